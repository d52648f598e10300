// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package model_test

import (
	"testing"

	"github.com/mattermost/webhookd/model"
)

func TestNewID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := model.NewID()
		if len(id) != 26 {
			t.Fatal("ids should be exactly 26 chars")
		}
		if seen[id] {
			t.Fatal("ids should be unique")
		}
		seen[id] = true
	}
}
