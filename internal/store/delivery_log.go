// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mattermost/webhookd/model"
)

// CreateDeliveryLog persists the attempt history of a finished delivery task.
func (s *MongoStore) CreateDeliveryLog(ctx context.Context, deliveryLog *model.DeliveryLog) error {
	_, err := s.db.Collection(deliveryLogsCollection).InsertOne(ctx, deliveryLog)
	if err != nil {
		return errors.Wrap(err, "failed to insert delivery log")
	}

	return nil
}

// GetDeliveryLog fetches the given delivery log, returning nil if none
// exists.
func (s *MongoStore) GetDeliveryLog(ctx context.Context, deliveryID string) (*model.DeliveryLog, error) {
	var deliveryLog model.DeliveryLog
	err := s.db.Collection(deliveryLogsCollection).FindOne(ctx, bson.M{"_id": deliveryID}).Decode(&deliveryLog)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get delivery log by id")
	}

	return &deliveryLog, nil
}

// GetDeliveryLogs fetches delivery logs ordered most recent first. A negative
// limit fetches all logs.
func (s *MongoStore) GetDeliveryLogs(ctx context.Context, limit int) ([]*model.DeliveryLog, error) {
	return s.findDeliveryLogs(ctx, bson.M{}, limit)
}

// GetDeliveryLogsForSubscription fetches recent delivery logs for one
// subscription, ordered most recent first. A negative limit fetches all.
func (s *MongoStore) GetDeliveryLogsForSubscription(ctx context.Context, subscriptionID string, limit int) ([]*model.DeliveryLog, error) {
	return s.findDeliveryLogs(ctx, bson.M{"subscription_id": subscriptionID}, limit)
}

func (s *MongoStore) findDeliveryLogs(ctx context.Context, filter bson.M, limit int) ([]*model.DeliveryLog, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit >= 0 {
		findOptions = findOptions.SetLimit(int64(limit))
	}

	cursor, err := s.db.Collection(deliveryLogsCollection).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query delivery logs")
	}

	deliveryLogs := []*model.DeliveryLog{}
	if err = cursor.All(ctx, &deliveryLogs); err != nil {
		return nil, errors.Wrap(err, "failed to decode delivery logs")
	}

	return deliveryLogs, nil
}

// DeleteDeliveryLogsBefore removes all delivery logs created before the given
// cutoff, returning the number deleted.
func (s *MongoStore) DeleteDeliveryLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.Collection(deliveryLogsCollection).DeleteMany(ctx, bson.M{
		"created_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete old delivery logs")
	}

	return result.DeletedCount, nil
}
