// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package api

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mattermost/webhookd/internal/queue"
	"github.com/mattermost/webhookd/model"
)

// handleIngestWebhook responds to POST /ingest/{subscription}, authenticating
// the payload and handing it off to the delivery queue. The response never
// waits for delivery.
func handleIngestWebhook(c *Context, w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	subscriptionID := vars["subscription"]
	c.Logger = c.Logger.WithField("subscription", subscriptionID)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		c.Logger.WithError(err).Error("failed to read request body")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	// Signatures on both legs are computed over the canonical form, so the
	// exact bytes queued here are the bytes signed and delivered.
	payload, err := model.CanonicalizeJSON(body)
	if err != nil || len(payload) == 0 || payload[0] != '{' {
		outputError(c, w, http.StatusBadRequest, "body must be a JSON object")
		return
	}

	subscription, err := c.Subscriptions.Get(r.Context(), subscriptionID, nil)
	if err != nil {
		c.Logger.WithError(err).Error("failed to query subscription")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if subscription == nil {
		outputError(c, w, http.StatusNotFound, "Subscription not found")
		return
	}

	if subscription.Secret != "" {
		signature := r.Header.Get(model.SignatureHeader)
		if signature == "" {
			outputError(c, w, http.StatusForbidden, "Missing signature")
			return
		}
		if !model.VerifySignature(subscription.Secret, payload, signature) {
			outputError(c, w, http.StatusForbidden, "Invalid signature")
			return
		}
	}

	eventTypes := r.URL.Query()["event_types"]
	if len(eventTypes) > 0 && !subscription.AcceptsEvent(eventTypes) {
		outputError(c, w, http.StatusForbidden, "Event not subscribed")
		return
	}

	task := &model.DeliveryTask{
		SubscriptionID: subscription.ID,
		Payload:        payload,
		EventTypes:     eventTypes,
	}

	if err = c.Queue.Push(task); err != nil {
		if errors.Is(err, queue.ErrFull) {
			c.Metrics.IncQueueRejection()
			c.Logger.Warn("Delivery queue full, rejecting payload")
			outputError(c, w, http.StatusServiceUnavailable, "Delivery queue is full")
			return
		}

		c.Logger.WithError(err).Error("failed to queue delivery task")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	c.Metrics.IncIngestAccepted()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	outputJSON(c, w, map[string]string{"status": "accepted"})
}
