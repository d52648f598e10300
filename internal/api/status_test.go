// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package api_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mattermost/webhookd/model"
)

func TestDeliveryStatus(t *testing.T) {
	fixture := setupAPI(t, 10)
	client := fixture.client

	subscriptionID := model.NewID()
	otherSubscriptionID := model.NewID()

	base := time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC)
	var deliveryLogs []*model.DeliveryLog
	for i := 0; i < 3; i++ {
		deliveryLog := &model.DeliveryLog{
			ID:             model.NewID(),
			SubscriptionID: subscriptionID,
			TargetURL:      "https://test.com/",
			EventTypes:     []string{"test.event"},
			Payload:        json.RawMessage(`{"event":"test.event"}`),
			Attempts: []model.Attempt{
				{Timestamp: base.Add(time.Duration(i) * time.Minute), Attempt: 1, StatusCode: 200, Success: true},
			},
			FinalStatus: model.DeliveryStatusSuccess,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		deliveryLogs = append(deliveryLogs, deliveryLog)
		fixture.deliveryLogs.add(deliveryLog)
	}
	fixture.deliveryLogs.add(&model.DeliveryLog{
		ID:             model.NewID(),
		SubscriptionID: otherSubscriptionID,
		TargetURL:      "https://other.com/",
		EventTypes:     []string{},
		Payload:        json.RawMessage(`{}`),
		Attempts:       []model.Attempt{{Timestamp: base, Attempt: 1, Error: "Timeout"}},
		FinalStatus:    model.DeliveryStatusFailed,
		CreatedAt:      base,
	})

	t.Run("list delivery logs", func(t *testing.T) {
		fetched, err := client.GetDeliveryLogs(-1)
		require.NoError(t, err)
		require.Len(t, fetched, 4)
	})

	t.Run("list with limit", func(t *testing.T) {
		fetched, err := client.GetDeliveryLogs(2)
		require.NoError(t, err)
		require.Len(t, fetched, 2)
	})

	t.Run("get delivery log", func(t *testing.T) {
		fetched, err := client.GetDeliveryLog(deliveryLogs[0].ID)
		require.NoError(t, err)
		require.Equal(t, deliveryLogs[0].ID, fetched.ID)
		require.Equal(t, model.DeliveryStatusSuccess, fetched.FinalStatus)
	})

	t.Run("unknown delivery log", func(t *testing.T) {
		fetched, err := client.GetDeliveryLog("unknown")
		require.NoError(t, err)
		require.Nil(t, fetched)
	})

	t.Run("subscription deliveries are rendered", func(t *testing.T) {
		deliveries, err := client.GetSubscriptionDeliveries(subscriptionID, -1)
		require.NoError(t, err)
		require.Len(t, deliveries, 3)

		// Most recent first, timestamps in operator form.
		require.Equal(t, "2026-08-25 10:32:00", deliveries[0].CreatedAt)
		require.Equal(t, "2026-08-25 10:32:00", deliveries[0].Attempts[0].Timestamp)
		require.Equal(t, "2026-08-25 10:30:00", deliveries[2].CreatedAt)
	})

	t.Run("subscription deliveries with limit", func(t *testing.T) {
		deliveries, err := client.GetSubscriptionDeliveries(subscriptionID, 1)
		require.NoError(t, err)
		require.Len(t, deliveries, 1)
	})

	t.Run("no deliveries", func(t *testing.T) {
		deliveries, err := client.GetSubscriptionDeliveries("unknown", -1)
		require.NoError(t, err)
		require.Empty(t, deliveries)
	})
}

func TestHealth(t *testing.T) {
	fixture := setupAPI(t, 10)

	resp, err := http.Get(fixture.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	require.Equal(t, "ok", health["status"])
}
