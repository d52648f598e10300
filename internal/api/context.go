// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package api

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/mattermost/webhookd/model"
)

// Subscriptions describes the subscription operations required to respond to
// API requests.
type Subscriptions interface {
	Create(ctx context.Context, subscription *model.Subscription) error
	Get(ctx context.Context, subscriptionID string, eventTypes []string) (*model.Subscription, error)
	List(ctx context.Context, limit int) ([]*model.Subscription, error)
	Update(ctx context.Context, subscriptionID string, patch *model.PatchSubscriptionRequest) (*model.Subscription, error)
	Delete(ctx context.Context, subscriptionID string) (bool, error)
}

// DeliveryLogStore describes read access to persisted delivery logs.
type DeliveryLogStore interface {
	GetDeliveryLog(ctx context.Context, deliveryLogID string) (*model.DeliveryLog, error)
	GetDeliveryLogs(ctx context.Context, limit int) ([]*model.DeliveryLog, error)
	GetDeliveryLogsForSubscription(ctx context.Context, subscriptionID string, limit int) ([]*model.DeliveryLog, error)
}

// Queue hands accepted payloads off to the delivery worker pool. Push returns
// queue.ErrFull when at capacity.
type Queue interface {
	Push(task *model.DeliveryTask) error
}

// Metrics instruments the ingest endpoint.
type Metrics interface {
	IncIngestAccepted()
	IncQueueRejection()
}

// Context provides the API with all necessary data and interfaces for responding to requests.
//
// It is cloned before each request, allowing per-request changes such as logger annotations.
type Context struct {
	Subscriptions Subscriptions
	DeliveryLogs  DeliveryLogStore
	Queue         Queue
	Metrics       Metrics
	RequestID     string
	Logger        logrus.FieldLogger
}

// Clone creates a shallow copy of context, allowing clones to apply per-request changes.
func (c *Context) Clone() *Context {
	return &Context{
		Subscriptions: c.Subscriptions,
		DeliveryLogs:  c.DeliveryLogs,
		Queue:         c.Queue,
		Metrics:       c.Metrics,
		Logger:        c.Logger,
	}
}
