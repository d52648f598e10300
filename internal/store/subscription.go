// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package store

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mattermost/webhookd/model"
)

// CreateSubscription records the given subscription.
func (s *MongoStore) CreateSubscription(ctx context.Context, subscription *model.Subscription) error {
	_, err := s.db.Collection(subscriptionsCollection).InsertOne(ctx, subscription)
	if err != nil {
		return errors.Wrap(err, "failed to insert subscription")
	}

	return nil
}

// GetSubscription fetches the given subscription, returning nil if none
// exists. When eventTypes is non-empty the subscription must additionally
// accept at least one of them; a subscription with an empty event type set
// accepts any event.
func (s *MongoStore) GetSubscription(ctx context.Context, subscriptionID string, eventTypes []string) (*model.Subscription, error) {
	filter := bson.M{"_id": subscriptionID}
	if len(eventTypes) > 0 {
		filter["$or"] = bson.A{
			bson.M{"event_types": bson.M{"$size": 0}},
			bson.M{"event_types": bson.M{"$in": eventTypes}},
		}
	}

	var subscription model.Subscription
	err := s.db.Collection(subscriptionsCollection).FindOne(ctx, filter).Decode(&subscription)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get subscription by id")
	}

	return &subscription, nil
}

// GetSubscriptions fetches up to limit subscriptions.
func (s *MongoStore) GetSubscriptions(ctx context.Context, limit int) ([]*model.Subscription, error) {
	findOptions := options.Find().SetLimit(int64(limit))

	cursor, err := s.db.Collection(subscriptionsCollection).Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query subscriptions")
	}

	subscriptions := []*model.Subscription{}
	if err = cursor.All(ctx, &subscriptions); err != nil {
		return nil, errors.Wrap(err, "failed to decode subscriptions")
	}

	return subscriptions, nil
}

// UpdateSubscription replaces the stored subscription with the given merged
// record.
func (s *MongoStore) UpdateSubscription(ctx context.Context, subscription *model.Subscription) error {
	result, err := s.db.Collection(subscriptionsCollection).ReplaceOne(ctx, bson.M{"_id": subscription.ID}, subscription)
	if err != nil {
		return errors.Wrap(err, "failed to update subscription")
	}
	if result.MatchedCount == 0 {
		return errors.Errorf("subscription %s not found", subscription.ID)
	}

	return nil
}

// DeleteSubscription removes the given subscription, returning whether a
// record was deleted.
func (s *MongoStore) DeleteSubscription(ctx context.Context, subscriptionID string) (bool, error) {
	result, err := s.db.Collection(subscriptionsCollection).DeleteOne(ctx, bson.M{"_id": subscriptionID})
	if err != nil {
		return false, errors.Wrap(err, "failed to delete subscription")
	}

	return result.DeletedCount > 0, nil
}
