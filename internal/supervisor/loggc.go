// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package supervisor

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// deliveryLogPurger deletes delivery logs created before a cutoff.
type deliveryLogPurger interface {
	DeleteDeliveryLogsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// gcMetrics instruments delivery log garbage collection.
type gcMetrics interface {
	AddDeliveryLogsDeleted(count int64)
}

// DeliveryLogGC is a Doer deleting delivery logs older than the retention
// horizon on every scheduled tick.
type DeliveryLogGC struct {
	purger    deliveryLogPurger
	metrics   gcMetrics
	retention time.Duration
	logger    log.FieldLogger
}

// NewDeliveryLogGC creates a delivery log garbage collector with the given
// retention horizon.
func NewDeliveryLogGC(purger deliveryLogPurger, metrics gcMetrics, retention time.Duration, logger log.FieldLogger) *DeliveryLogGC {
	return &DeliveryLogGC{
		purger:    purger,
		metrics:   metrics,
		retention: retention,
		logger:    logger,
	}
}

// Do deletes all delivery logs older than the retention horizon.
func (gc *DeliveryLogGC) Do() error {
	cutoff := time.Now().UTC().Add(-gc.retention)

	deleted, err := gc.purger.DeleteDeliveryLogsBefore(context.Background(), cutoff)
	if err != nil {
		return err
	}

	gc.metrics.AddDeliveryLogsDeleted(deleted)
	gc.logger.WithField("deleted", deleted).Infof("Deleted delivery logs older than %s", gc.retention)

	return nil
}

// Shutdown performs shutdown tasks for the garbage collector.
func (gc *DeliveryLogGC) Shutdown() {
	gc.logger.Debug("Delivery log garbage collector shut down")
}
