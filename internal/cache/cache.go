// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/mattermost/webhookd/model"
)

// SubscriptionCache holds non-authoritative copies of subscription records in
// Redis. All operations are best effort: transport errors are logged and
// reported as misses or no-ops, never propagated to the caller. Missing
// subscriptions are not cached.
type SubscriptionCache struct {
	client *redis.Client
	ttl    time.Duration
	logger log.FieldLogger
}

// NewSubscriptionCache creates a cache over the given Redis client with the
// given entry TTL.
func NewSubscriptionCache(client *redis.Client, ttl time.Duration, logger log.FieldLogger) *SubscriptionCache {
	return &SubscriptionCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func subscriptionKey(subscriptionID string) string {
	return fmt.Sprintf("subscription:%s", subscriptionID)
}

// Get fetches the cached subscription, returning nil on a miss or any cache
// failure.
func (c *SubscriptionCache) Get(ctx context.Context, subscriptionID string) *model.Subscription {
	data, err := c.client.Get(ctx, subscriptionKey(subscriptionID)).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		c.logger.WithError(err).WithField("subscription", subscriptionID).Warn("failed to read subscription from cache")
		return nil
	}

	var subscription model.Subscription
	if err = json.Unmarshal(data, &subscription); err != nil {
		c.logger.WithError(err).WithField("subscription", subscriptionID).Warn("failed to decode cached subscription")
		return nil
	}

	return &subscription
}

// Set stores the subscription with the configured TTL.
func (c *SubscriptionCache) Set(ctx context.Context, subscription *model.Subscription) {
	data, err := json.Marshal(subscription)
	if err != nil {
		c.logger.WithError(err).WithField("subscription", subscription.ID).Warn("failed to encode subscription for cache")
		return
	}

	if err = c.client.Set(ctx, subscriptionKey(subscription.ID), data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("subscription", subscription.ID).Warn("failed to write subscription to cache")
	}
}

// Invalidate removes the cached subscription, if any.
func (c *SubscriptionCache) Invalidate(ctx context.Context, subscriptionID string) {
	if err := c.client.Del(ctx, subscriptionKey(subscriptionID)).Err(); err != nil {
		c.logger.WithError(err).WithField("subscription", subscriptionID).Warn("failed to invalidate cached subscription")
	}
}
