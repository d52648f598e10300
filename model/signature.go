// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package model

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/pkg/errors"
)

// SignatureHeader is the HTTP header carrying the payload HMAC, on both the
// ingest and delivery legs.
const SignatureHeader = "X-Hub-Signature-256"

const signaturePrefix = "sha256="

// CanonicalizeJSON returns the canonical serialization of a JSON document:
// compact separators and no insignificant whitespace. Signatures on both legs
// are computed over this form, so producers and consumers agree on the exact
// bytes regardless of incidental formatting.
func CanonicalizeJSON(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, errors.Wrap(err, "failed to canonicalize JSON body")
	}

	return buf.Bytes(), nil
}

// SignPayload computes the signature header value for the given canonical
// body: "sha256=" followed by the lowercase hex HMAC-SHA256 of the body over
// the secret's UTF-8 bytes.
func SignPayload(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)

	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the given signature header value against the
// expected signature of body under secret. The comparison is constant-time.
func VerifySignature(secret string, body []byte, header string) bool {
	expected := SignPayload(secret, body)

	return hmac.Equal([]byte(expected), []byte(header))
}
