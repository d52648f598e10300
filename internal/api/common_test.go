// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package api_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"

	"github.com/mattermost/webhookd/internal/api"
	"github.com/mattermost/webhookd/internal/queue"
	"github.com/mattermost/webhookd/internal/testlib"
	"github.com/mattermost/webhookd/model"
)

// fakeSubscriptions is an in-memory stand-in for the subscription service,
// mirroring its read and merge semantics.
type fakeSubscriptions struct {
	mu            sync.Mutex
	subscriptions map[string]*model.Subscription
}

func newFakeSubscriptions() *fakeSubscriptions {
	return &fakeSubscriptions{
		subscriptions: make(map[string]*model.Subscription),
	}
}

func (f *fakeSubscriptions) Create(_ context.Context, subscription *model.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if subscription.ID == "" {
		subscription.ID = model.NewID()
	}
	copied := *subscription
	f.subscriptions[subscription.ID] = &copied

	return nil
}

func (f *fakeSubscriptions) Get(_ context.Context, subscriptionID string, eventTypes []string) (*model.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	subscription, ok := f.subscriptions[subscriptionID]
	if !ok {
		return nil, nil
	}
	if len(eventTypes) > 0 && !subscription.AcceptsEvent(eventTypes) {
		return nil, nil
	}

	copied := *subscription
	return &copied, nil
}

func (f *fakeSubscriptions) List(_ context.Context, limit int) ([]*model.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var subscriptions []*model.Subscription
	for _, subscription := range f.subscriptions {
		if limit >= 0 && len(subscriptions) >= limit {
			break
		}
		copied := *subscription
		subscriptions = append(subscriptions, &copied)
	}

	return subscriptions, nil
}

func (f *fakeSubscriptions) Update(_ context.Context, subscriptionID string, patch *model.PatchSubscriptionRequest) (*model.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	subscription, ok := f.subscriptions[subscriptionID]
	if !ok {
		return nil, nil
	}

	patch.Apply(subscription)

	copied := *subscription
	return &copied, nil
}

func (f *fakeSubscriptions) Delete(_ context.Context, subscriptionID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.subscriptions[subscriptionID]; !ok {
		return false, nil
	}
	delete(f.subscriptions, subscriptionID)

	return true, nil
}

// fakeDeliveryLogs is an in-memory delivery log store preserving insertion
// order, newest first.
type fakeDeliveryLogs struct {
	mu   sync.Mutex
	logs []*model.DeliveryLog
}

func (f *fakeDeliveryLogs) add(deliveryLog *model.DeliveryLog) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append([]*model.DeliveryLog{deliveryLog}, f.logs...)
}

func (f *fakeDeliveryLogs) GetDeliveryLog(_ context.Context, deliveryLogID string) (*model.DeliveryLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, deliveryLog := range f.logs {
		if deliveryLog.ID == deliveryLogID {
			return deliveryLog, nil
		}
	}

	return nil, nil
}

func (f *fakeDeliveryLogs) GetDeliveryLogs(_ context.Context, limit int) ([]*model.DeliveryLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if limit < 0 || limit > len(f.logs) {
		limit = len(f.logs)
	}

	return append([]*model.DeliveryLog{}, f.logs[:limit]...), nil
}

func (f *fakeDeliveryLogs) GetDeliveryLogsForSubscription(_ context.Context, subscriptionID string, limit int) ([]*model.DeliveryLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []*model.DeliveryLog
	for _, deliveryLog := range f.logs {
		if deliveryLog.SubscriptionID != subscriptionID {
			continue
		}
		if limit >= 0 && len(matched) >= limit {
			break
		}
		matched = append(matched, deliveryLog)
	}

	return matched, nil
}

type fakeAPIMetrics struct {
	mu       sync.Mutex
	accepted int
	rejected int
}

func (f *fakeAPIMetrics) IncIngestAccepted() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accepted++
}

func (f *fakeAPIMetrics) IncQueueRejection() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejected++
}

type apiFixture struct {
	server        *httptest.Server
	client        *model.Client
	subscriptions *fakeSubscriptions
	deliveryLogs  *fakeDeliveryLogs
	queue         *queue.Queue
	metrics       *fakeAPIMetrics
}

func setupAPI(t *testing.T, queueCapacity int) *apiFixture {
	fixture := &apiFixture{
		subscriptions: newFakeSubscriptions(),
		deliveryLogs:  &fakeDeliveryLogs{},
		queue:         queue.New(queueCapacity),
		metrics:       &fakeAPIMetrics{},
	}

	router := mux.NewRouter()
	api.Register(router, &api.Context{
		Subscriptions: fixture.subscriptions,
		DeliveryLogs:  fixture.deliveryLogs,
		Queue:         fixture.queue,
		Metrics:       fixture.metrics,
		Logger:        testlib.MakeLogger(t),
	})

	fixture.server = httptest.NewServer(router)
	t.Cleanup(fixture.server.Close)

	fixture.client = model.NewClient(fixture.server.URL)

	return fixture
}
