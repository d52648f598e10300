// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package worker

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/url"
)

// Error tags recorded on failed attempts.
const (
	errorTagTimeout    = "Timeout"
	errorTagConnection = "Connection error"
	errorTagTLSVerify  = "SSL certificate verification failed"
)

// classifyRequestError maps a transport error to its attempt error tag. The
// second return value reports whether the failure is fatal: certificate
// verification can never be fixed by retrying, so it aborts the schedule.
func classifyRequestError(err error) (string, bool) {
	var certVerifyErr *tls.CertificateVerificationError
	var unknownAuthorityErr x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	var certInvalidErr x509.CertificateInvalidError
	if errors.As(err, &certVerifyErr) ||
		errors.As(err, &unknownAuthorityErr) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &certInvalidErr) {
		return errorTagTLSVerify, true
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return errorTagTimeout, false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errorTagConnection, false
	}

	// Strip the url.Error envelope so the tag stays short.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err.Error(), false
	}

	return err.Error(), false
}
