// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package model_test

import (
	"bytes"
	"testing"

	"github.com/mattermost/webhookd/model"
	"github.com/stretchr/testify/require"
)

func TestCreateSubscriptionRequestValid(t *testing.T) {
	var testCases = []struct {
		testName    string
		requireErr  bool
		requestBody string
	}{
		{"empty request", true, ``},
		{"missing target url", true, `{"event_types":["test.event"]}`},
		{"invalid target url", true, `{"target_url":"htp://invalid.com"}`},
		{"relative target url", true, `{"target_url":"/relative"}`},
		{"missing host", true, `{"target_url":"https://"}`},
		{"valid", false, `{"target_url":"https://test.com","event_types":["test.event"]}`},
		{"valid with secret", false, `{"target_url":"http://test.com/hooks","secret":"string"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			request, err := model.NewCreateSubscriptionRequestFromReader(bytes.NewReader([]byte(tc.requestBody)))
			if tc.requireErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				require.NotNil(t, request)
			}
		})
	}
}

func TestNormalizeTargetURL(t *testing.T) {
	normalized, err := model.NormalizeTargetURL("https://test.com")
	require.NoError(t, err)
	require.Equal(t, "https://test.com/", normalized)

	normalized, err = model.NormalizeTargetURL("https://test.com/hooks")
	require.NoError(t, err)
	require.Equal(t, "https://test.com/hooks", normalized)
}

func TestPatchSubscriptionRequestApply(t *testing.T) {
	sVal := func(s string) *string { return &s }

	subscription := model.Subscription{
		ID:         model.NewID(),
		TargetURL:  "https://test.com/",
		EventTypes: []string{"test.event"},
		Secret:     "old",
	}
	originalID := subscription.ID

	patch := &model.PatchSubscriptionRequest{}
	require.True(t, patch.IsEmpty())
	require.False(t, patch.Apply(&subscription))

	eventTypes := []string{"updated.event"}
	patch = &model.PatchSubscriptionRequest{
		TargetURL:  sVal("https://updated.com/"),
		EventTypes: &eventTypes,
	}
	require.False(t, patch.IsEmpty())
	require.True(t, patch.Apply(&subscription))

	require.Equal(t, originalID, subscription.ID)
	require.Equal(t, "https://updated.com/", subscription.TargetURL)
	require.Equal(t, []string{"updated.event"}, subscription.EventTypes)
	require.Equal(t, "old", subscription.Secret)
}

func TestSubscriptionAcceptsEvent(t *testing.T) {
	anySubscription := model.Subscription{EventTypes: []string{}}
	require.True(t, anySubscription.AcceptsAny())
	require.True(t, anySubscription.AcceptsEvent([]string{"a"}))

	subscription := model.Subscription{EventTypes: []string{"a", "b"}}
	require.False(t, subscription.AcceptsAny())
	require.True(t, subscription.AcceptsEvent([]string{"b", "c"}))
	require.False(t, subscription.AcceptsEvent([]string{"c"}))
	require.False(t, subscription.AcceptsEvent(nil))
}
