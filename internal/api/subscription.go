// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mattermost/webhookd/model"
)

// subscriptionListLimit bounds GET /subscriptions.
const subscriptionListLimit = 100

// handleCreateSubscription responds to POST /subscriptions, registering a new
// delivery target.
// sample body:
//
//	{
//		"target_url": "https://example.com/hooks",
//		"event_types": ["user.created"],
//		"secret": "s3cr3t"
//	}
func handleCreateSubscription(c *Context, w http.ResponseWriter, r *http.Request) {
	createSubscriptionRequest, err := model.NewCreateSubscriptionRequestFromReader(r.Body)
	if err != nil {
		c.Logger.WithError(err).Error("failed to decode request")
		outputError(c, w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	subscription := &model.Subscription{
		TargetURL:  createSubscriptionRequest.TargetURL,
		EventTypes: createSubscriptionRequest.EventTypes,
		Secret:     createSubscriptionRequest.Secret,
	}

	if err = c.Subscriptions.Create(r.Context(), subscription); err != nil {
		c.Logger.WithError(err).Error("failed to create subscription")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	c.Logger.WithField("subscription", subscription.ID).Info("Created subscription")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	outputJSON(c, w, subscription)
}

// handleGetSubscription responds to GET /subscriptions/{subscription},
// returning the subscription in question.
func handleGetSubscription(c *Context, w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	subscriptionID := vars["subscription"]
	c.Logger = c.Logger.WithField("subscription", subscriptionID)

	subscription, err := c.Subscriptions.Get(r.Context(), subscriptionID, nil)
	if err != nil {
		c.Logger.WithError(err).Error("failed to query subscription")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if subscription == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	outputJSON(c, w, subscription)
}

// handleGetSubscriptions responds to GET /subscriptions, returning registered
// subscriptions.
func handleGetSubscriptions(c *Context, w http.ResponseWriter, r *http.Request) {
	subscriptions, err := c.Subscriptions.List(r.Context(), subscriptionListLimit)
	if err != nil {
		c.Logger.WithError(err).Error("failed to query subscriptions")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if subscriptions == nil {
		subscriptions = []*model.Subscription{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	outputJSON(c, w, subscriptions)
}

// handleUpdateSubscription responds to PUT /subscriptions/{subscription},
// merging the given partial update onto the stored record.
func handleUpdateSubscription(c *Context, w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	subscriptionID := vars["subscription"]
	c.Logger = c.Logger.WithField("subscription", subscriptionID)

	patchSubscriptionRequest, err := model.NewPatchSubscriptionRequestFromReader(r.Body)
	if err != nil {
		c.Logger.WithError(err).Error("failed to decode request")
		outputError(c, w, http.StatusBadRequest, err.Error())
		return
	}
	if patchSubscriptionRequest.IsEmpty() {
		outputError(c, w, http.StatusBadRequest, "patch contains no changes")
		return
	}

	subscription, err := c.Subscriptions.Update(r.Context(), subscriptionID, patchSubscriptionRequest)
	if err != nil {
		c.Logger.WithError(err).Error("failed to update subscription")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if subscription == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	c.Logger.Info("Updated subscription")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	outputJSON(c, w, subscription)
}

// handleDeleteSubscription responds to DELETE /subscriptions/{subscription}.
func handleDeleteSubscription(c *Context, w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	subscriptionID := vars["subscription"]
	c.Logger = c.Logger.WithField("subscription", subscriptionID)

	deleted, err := c.Subscriptions.Delete(r.Context(), subscriptionID)
	if err != nil {
		c.Logger.WithError(err).Error("failed to delete subscription")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !deleted {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	c.Logger.Info("Deleted subscription")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	outputJSON(c, w, map[string]string{"status": "deleted"})
}
