// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package api_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mattermost/webhookd/model"
)

func TestIngestWebhook(t *testing.T) {
	fixture := setupAPI(t, 10)
	client := fixture.client

	subscription, err := client.CreateSubscription(&model.CreateSubscriptionRequest{
		TargetURL:  "https://test.com",
		EventTypes: []string{"user.created"},
		Secret:     "string",
	})
	require.NoError(t, err)

	body := []byte(`{"event": "user.created", "data": {"id": 123, "name": "John Doe"}}`)
	canonical, err := model.CanonicalizeJSON(body)
	require.NoError(t, err)
	require.Equal(t, `{"event":"user.created","data":{"id":123,"name":"John Doe"}}`, string(canonical))

	t.Run("unknown subscription", func(t *testing.T) {
		err := client.IngestWebhook("unknown", nil, "", body)
		require.EqualError(t, err, "failed with status code 404")
	})

	t.Run("body must be a JSON object", func(t *testing.T) {
		for _, invalidBody := range []string{`[1,2,3]`, `"text"`, `{"event":`, ``} {
			err := client.IngestWebhook(subscription.ID, nil, "", []byte(invalidBody))
			require.EqualError(t, err, "failed with status code 400")
		}
	})

	t.Run("missing signature", func(t *testing.T) {
		err := client.IngestWebhook(subscription.ID, nil, "", body)
		require.EqualError(t, err, "failed with status code 403")
	})

	t.Run("invalid signature", func(t *testing.T) {
		// Signed over a body differing by a single digit.
		otherBody := []byte(`{"event":"user.created","data":{"id":124,"name":"John Doe"}}`)
		err := client.IngestWebhook(subscription.ID, nil, model.SignPayload("string", otherBody), body)
		require.EqualError(t, err, "failed with status code 403")
	})

	t.Run("wrong secret", func(t *testing.T) {
		err := client.IngestWebhook(subscription.ID, nil, model.SignPayload("wrong", canonical), body)
		require.EqualError(t, err, "failed with status code 403")
	})

	t.Run("valid signature over canonical body", func(t *testing.T) {
		err := client.IngestWebhook(subscription.ID, nil, model.SignPayload("string", canonical), body)
		require.NoError(t, err)

		// The queued payload is the canonical form of the submitted body.
		task := fixture.queue.Pop()
		require.Equal(t, subscription.ID, task.SubscriptionID)
		require.Equal(t, canonical, []byte(task.Payload))
	})

	t.Run("event not subscribed", func(t *testing.T) {
		err := client.IngestWebhook(subscription.ID, []string{"user.deleted"}, model.SignPayload("string", canonical), body)
		require.EqualError(t, err, "failed with status code 403")
	})

	t.Run("matching event type", func(t *testing.T) {
		err := client.IngestWebhook(subscription.ID, []string{"user.created"}, model.SignPayload("string", canonical), body)
		require.NoError(t, err)

		task := fixture.queue.Pop()
		require.Equal(t, []string{"user.created"}, task.EventTypes)
	})

	t.Run("no secret accepts unsigned payloads", func(t *testing.T) {
		open, err := client.CreateSubscription(&model.CreateSubscriptionRequest{
			TargetURL: "https://open.test.com",
		})
		require.NoError(t, err)

		err = client.IngestWebhook(open.ID, []string{"anything.at.all"}, "", body)
		require.NoError(t, err)

		fixture.queue.Pop()
	})

	fixture.metrics.mu.Lock()
	require.Equal(t, 3, fixture.metrics.accepted)
	require.Equal(t, 0, fixture.metrics.rejected)
	fixture.metrics.mu.Unlock()
}

func TestIngestWebhookQueueFull(t *testing.T) {
	fixture := setupAPI(t, 0)
	client := fixture.client

	subscription, err := client.CreateSubscription(&model.CreateSubscriptionRequest{
		TargetURL: "https://test.com",
	})
	require.NoError(t, err)

	err = client.IngestWebhook(subscription.ID, nil, "", []byte(`{"event":"x"}`))
	require.EqualError(t, err, "failed with status code 503")

	fixture.metrics.mu.Lock()
	require.Equal(t, 0, fixture.metrics.accepted)
	require.Equal(t, 1, fixture.metrics.rejected)
	fixture.metrics.mu.Unlock()
}
