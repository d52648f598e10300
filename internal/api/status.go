// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mattermost/webhookd/model"
)

// deliveryLogListLimit is the default page size for delivery log queries. A
// negative limit requests all logs.
const deliveryLogListLimit = 100

// handleGetDeliveryLogs responds to GET /status/delivery-logs, returning
// recent delivery logs most recent first.
func handleGetDeliveryLogs(c *Context, w http.ResponseWriter, r *http.Request) {
	limit, err := parseInt(r.URL, "limit", deliveryLogListLimit)
	if err != nil {
		c.Logger.WithError(err).Error("failed to parse limit")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	deliveryLogs, err := c.DeliveryLogs.GetDeliveryLogs(r.Context(), limit)
	if err != nil {
		c.Logger.WithError(err).Error("failed to query delivery logs")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if deliveryLogs == nil {
		deliveryLogs = []*model.DeliveryLog{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	outputJSON(c, w, deliveryLogs)
}

// handleGetDeliveryLog responds to GET /status/delivery/{delivery}, returning
// the delivery log in question.
func handleGetDeliveryLog(c *Context, w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	deliveryLogID := vars["delivery"]
	c.Logger = c.Logger.WithField("delivery", deliveryLogID)

	deliveryLog, err := c.DeliveryLogs.GetDeliveryLog(r.Context(), deliveryLogID)
	if err != nil {
		c.Logger.WithError(err).Error("failed to query delivery log")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if deliveryLog == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	outputJSON(c, w, deliveryLog)
}

// handleGetSubscriptionDeliveries responds to GET
// /status/delivery/subscription/{subscription}, returning the subscription's
// recent deliveries in rendered form, most recent first.
func handleGetSubscriptionDeliveries(c *Context, w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	subscriptionID := vars["subscription"]
	c.Logger = c.Logger.WithField("subscription", subscriptionID)

	limit, err := parseInt(r.URL, "limit", deliveryLogListLimit)
	if err != nil {
		c.Logger.WithError(err).Error("failed to parse limit")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	deliveryLogs, err := c.DeliveryLogs.GetDeliveryLogsForSubscription(r.Context(), subscriptionID, limit)
	if err != nil {
		c.Logger.WithError(err).Error("failed to query delivery logs")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	deliveries := make([]*model.RenderedDeliveryLog, 0, len(deliveryLogs))
	for _, deliveryLog := range deliveryLogs {
		deliveries = append(deliveries, deliveryLog.Render())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	outputJSON(c, w, deliveries)
}
