// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package store

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	subscriptionsCollection = "subscriptions"
	deliveryLogsCollection  = "delivery_logs"
)

// MongoStore persists subscriptions and delivery logs in a MongoDB database.
type MongoStore struct {
	db     *mongo.Database
	logger log.FieldLogger
}

// New constructs a store backed by the given database.
func New(db *mongo.Database, logger log.FieldLogger) *MongoStore {
	return &MongoStore{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes creates the secondary indexes used by delivery log lookups
// and garbage collection. It is idempotent and safe to run at every boot.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(deliveryLogsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "subscription_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	})
	if err != nil {
		return errors.Wrap(err, "failed to create delivery log indexes")
	}

	return nil
}

// Ping verifies connectivity to the underlying database.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}
