// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Register registers the API endpoints on the given router.
func Register(rootRouter *mux.Router, context *Context) {
	addContext := func(handler contextHandlerFunc) *contextHandler {
		return newContextHandler(context, handler)
	}

	rootRouter.Handle("/", addContext(handleGetRoot)).Methods("GET")
	rootRouter.Handle("/health", addContext(handleGetHealth)).Methods("GET")

	rootRouter.Handle("/subscriptions", addContext(handleGetSubscriptions)).Methods("GET")
	rootRouter.Handle("/subscriptions", addContext(handleCreateSubscription)).Methods("POST")
	rootRouter.Handle("/subscriptions/{subscription}", addContext(handleGetSubscription)).Methods("GET")
	rootRouter.Handle("/subscriptions/{subscription}", addContext(handleUpdateSubscription)).Methods("PUT")
	rootRouter.Handle("/subscriptions/{subscription}", addContext(handleDeleteSubscription)).Methods("DELETE")

	rootRouter.Handle("/ingest/{subscription}", addContext(handleIngestWebhook)).Methods("POST")

	rootRouter.Handle("/status/delivery-logs", addContext(handleGetDeliveryLogs)).Methods("GET")
	rootRouter.Handle("/status/delivery/subscription/{subscription}", addContext(handleGetSubscriptionDeliveries)).Methods("GET")
	rootRouter.Handle("/status/delivery/{delivery}", addContext(handleGetDeliveryLog)).Methods("GET")
}

// handleGetRoot responds to GET /, identifying the service.
func handleGetRoot(c *Context, w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	outputJSON(c, w, map[string]string{"message": "webhook delivery service"})
}

// handleGetHealth responds to GET /health.
func handleGetHealth(c *Context, w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	outputJSON(c, w, map[string]string{"status": "ok"})
}
