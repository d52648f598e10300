// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package subscription

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/mattermost/webhookd/model"
)

// subscriptionStore is the authoritative persistence of subscription records.
type subscriptionStore interface {
	CreateSubscription(ctx context.Context, subscription *model.Subscription) error
	GetSubscription(ctx context.Context, subscriptionID string, eventTypes []string) (*model.Subscription, error)
	GetSubscriptions(ctx context.Context, limit int) ([]*model.Subscription, error)
	UpdateSubscription(ctx context.Context, subscription *model.Subscription) error
	DeleteSubscription(ctx context.Context, subscriptionID string) (bool, error)
}

// subscriptionCache holds best-effort copies of subscription records; all of
// its operations are failure-free from the caller's point of view.
type subscriptionCache interface {
	Get(ctx context.Context, subscriptionID string) *model.Subscription
	Set(ctx context.Context, subscription *model.Subscription)
	Invalidate(ctx context.Context, subscriptionID string)
}

// Service is the single read/write surface over subscription records,
// composing the store with a read-through/write-through cache. Cache failures
// never fail a call; store failures propagate.
type Service struct {
	store  subscriptionStore
	cache  subscriptionCache
	logger log.FieldLogger
}

// NewService creates a subscription service over the given store and cache.
func NewService(store subscriptionStore, cache subscriptionCache, logger log.FieldLogger) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// Get fetches the given subscription cache-first, returning nil if it does
// not exist. When eventTypes is non-empty the subscription must additionally
// accept at least one of them; the raw record is cached before the filter is
// applied so the cache never stores a filtered view.
func (s *Service) Get(ctx context.Context, subscriptionID string, eventTypes []string) (*model.Subscription, error) {
	subscription := s.cache.Get(ctx, subscriptionID)
	if subscription == nil {
		var err error
		subscription, err = s.store.GetSubscription(ctx, subscriptionID, nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get subscription from store")
		}
		if subscription == nil {
			// Missing subscriptions are never cached; a negative entry would
			// shadow a later creation.
			return nil, nil
		}

		s.cache.Set(ctx, subscription)
		s.logger.WithField("subscription", subscriptionID).Debug("Subscription cache miss, fetched from store")
	}

	if len(eventTypes) > 0 && !subscription.AcceptsEvent(eventTypes) {
		return nil, nil
	}

	return subscription, nil
}

// Create assigns the subscription a new ID, records it, and primes the cache.
func (s *Service) Create(ctx context.Context, subscription *model.Subscription) error {
	if subscription.ID == "" {
		subscription.ID = model.NewID()
	}

	if err := s.store.CreateSubscription(ctx, subscription); err != nil {
		return errors.Wrap(err, "failed to create subscription")
	}

	s.cache.Set(ctx, subscription)

	return nil
}

// List fetches up to limit subscriptions.
func (s *Service) List(ctx context.Context, limit int) ([]*model.Subscription, error) {
	return s.store.GetSubscriptions(ctx, limit)
}

// Update merges the patch onto the stored record, persists the result, and
// refreshes the cache. It returns the merged record, or nil if the
// subscription does not exist. The store update is linearised before the
// cache write on the same id.
func (s *Service) Update(ctx context.Context, subscriptionID string, patch *model.PatchSubscriptionRequest) (*model.Subscription, error) {
	subscription, err := s.store.GetSubscription(ctx, subscriptionID, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get subscription from store")
	}
	if subscription == nil {
		return nil, nil
	}

	patch.Apply(subscription)

	if err = s.store.UpdateSubscription(ctx, subscription); err != nil {
		return nil, errors.Wrap(err, "failed to update subscription")
	}

	s.cache.Set(ctx, subscription)

	return subscription, nil
}

// Delete removes the subscription and invalidates its cache entry, returning
// whether a record was deleted.
func (s *Service) Delete(ctx context.Context, subscriptionID string) (bool, error) {
	deleted, err := s.store.DeleteSubscription(ctx, subscriptionID)
	if err != nil {
		return false, errors.Wrap(err, "failed to delete subscription")
	}

	s.cache.Invalidate(ctx, subscriptionID)

	return deleted, nil
}
