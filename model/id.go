// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package model

import (
	"bytes"
	"encoding/base32"

	"github.com/pborman/uuid"
	"github.com/sirupsen/logrus"
)

var encoding = base32.NewEncoding("ybndrfg8ejkmcpqxot1uwisza345h769")

// NewID is a globally unique identifier. It is a [A-Z0-9] string 26
// characters long. It is a UUID version 4 Guid that is zbased32 encoded
// with the padding stripped off.
func NewID() string {
	var b bytes.Buffer
	encoder := base32.NewEncoder(encoding, &b)

	if _, err := encoder.Write(uuid.NewRandom()); err != nil {
		logrus.WithError(err).Error("failed to write to encoder")
		return err.Error()
	}

	if err := encoder.Close(); err != nil {
		logrus.WithError(err).Error("failed to close encoder")
		return err.Error()
	}

	if b.Len() < 26 {
		logrus.Errorf("unexpected buffer length: got %d, want at least 26", b.Len())
		return b.String()
	}

	// Truncate to remove the '==' padding.
	b.Truncate(26)
	return b.String()
}
