// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package worker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/mattermost/webhookd/internal/queue"
	"github.com/mattermost/webhookd/model"
)

// subscriptionGetter resolves a subscription at dispatch time, applying the
// event type opt-in check.
type subscriptionGetter interface {
	Get(ctx context.Context, subscriptionID string, eventTypes []string) (*model.Subscription, error)
}

// deliveryLogStore persists the attempt history of a finished task.
type deliveryLogStore interface {
	CreateDeliveryLog(ctx context.Context, deliveryLog *model.DeliveryLog) error
}

// deliveryMetrics instruments the delivery pipeline.
type deliveryMetrics interface {
	IncAttempt(success bool)
	ObserveAttemptDuration(seconds float64)
	IncDelivery(finalStatus string)
}

// Pool runs N delivery workers consuming the handoff queue. Each worker runs
// tasks through the retry schedule and records a delivery log at the terminal
// state. Delivery is at-least-once: a task popped from the queue is worked to
// completion even across a shutdown signal.
type Pool struct {
	workerCount    int
	queue          *queue.Queue
	subscriptions  subscriptionGetter
	logs           deliveryLogStore
	metrics        deliveryMetrics
	httpClient     *http.Client
	retryIntervals []time.Duration
	logger         log.FieldLogger

	wg sync.WaitGroup
}

// NewPool creates a delivery worker pool. The total attempts per task is
// len(retryIntervals)+1; the per-attempt timeout is carried by httpClient.
func NewPool(workerCount int, taskQueue *queue.Queue, subscriptions subscriptionGetter, logs deliveryLogStore, metrics deliveryMetrics, httpClient *http.Client, retryIntervals []time.Duration, logger log.FieldLogger) *Pool {
	return &Pool{
		workerCount:    workerCount,
		queue:          taskQueue,
		subscriptions:  subscriptions,
		logs:           logs,
		metrics:        metrics,
		httpClient:     httpClient,
		retryIntervals: retryIntervals,
		logger:         logger,
	}
}

// Start spawns the workers.
func (p *Pool) Start() {
	for i := 1; i <= p.workerCount; i++ {
		p.wg.Add(1)
		go p.runWorker(fmt.Sprintf("worker-%d", i))
	}

	p.logger.Infof("Started %d delivery workers", p.workerCount)
}

// Stop pushes one end marker per worker and waits for all of them to drain
// their remaining tasks and exit.
func (p *Pool) Stop() {
	p.queue.PushEndMarkers(p.workerCount)
	p.wg.Wait()
	p.logger.Info("All delivery workers stopped")
}

func (p *Pool) runWorker(name string) {
	defer p.wg.Done()

	logger := p.logger.WithField("worker", name)
	for {
		task := p.queue.Pop()
		if task == nil {
			logger.Debug("Received end marker, exiting")
			return
		}

		if err := p.deliver(task, logger.WithField("subscription", task.SubscriptionID)); err != nil {
			logger.WithError(err).Error("Unexpected error during task delivery")
		}
	}
}

// deliver runs one task through the retry state machine and records its
// delivery log. The only path that skips the log is a subscription deleted or
// opted out since ingest.
func (p *Pool) deliver(task *model.DeliveryTask, logger log.FieldLogger) error {
	ctx := context.Background()

	subscription, err := p.subscriptions.Get(ctx, task.SubscriptionID, task.EventTypes)
	if err != nil {
		return errors.Wrap(err, "failed to resolve subscription at dispatch time")
	}
	if subscription == nil {
		logger.Warn("Subscription gone or no longer subscribed, dropping task")
		return nil
	}

	deliveryLog := &model.DeliveryLog{
		ID:             model.NewID(),
		SubscriptionID: subscription.ID,
		TargetURL:      subscription.TargetURL,
		EventTypes:     subscription.EventTypes,
		Payload:        task.Payload,
		Attempts:       []model.Attempt{},
		CreatedAt:      time.Now().UTC(),
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("X-Webhook-Event", strings.Join(task.EventTypes, ", "))
	if subscription.Secret != "" {
		// The signature covers the exact bytes sent as the request body.
		headers.Set(model.SignatureHeader, model.SignPayload(subscription.Secret, task.Payload))
	}

	totalAttempts := len(p.retryIntervals) + 1
	for i := 1; i <= totalAttempts; i++ {
		attempt, fatal := p.attemptDelivery(subscription.TargetURL, headers, task.Payload, i)
		deliveryLog.Attempts = append(deliveryLog.Attempts, attempt)
		p.metrics.IncAttempt(attempt.Success)

		if attempt.Success {
			deliveryLog.FinalStatus = model.DeliveryStatusSuccess
			logger.Debugf("Webhook delivered on attempt %d", i)
			break
		}

		if fatal {
			logger.WithField("error", attempt.Error).Error("Fatal delivery failure, skipping remaining retries")
			break
		}

		if i == totalAttempts {
			logger.Error("Max delivery attempts reached, giving up")
			break
		}

		logger.WithField("error", attempt.Error).Warnf("Delivery attempt %d failed", i)
		time.Sleep(p.retryIntervals[i-1])
	}

	if deliveryLog.FinalStatus == "" {
		deliveryLog.FinalStatus = model.DeliveryStatusFailed
	}
	p.metrics.IncDelivery(deliveryLog.FinalStatus)

	if err = p.logs.CreateDeliveryLog(ctx, deliveryLog); err != nil {
		return errors.Wrap(err, "failed to record delivery log")
	}

	return nil
}

// attemptDelivery performs a single outbound POST and classifies the outcome.
// The second return value reports a fatal failure that must skip the
// remaining retries.
func (p *Pool) attemptDelivery(targetURL string, headers http.Header, body []byte, ordinal int) (model.Attempt, bool) {
	attempt := model.Attempt{
		Timestamp: time.Now().UTC(),
		Attempt:   ordinal,
	}

	start := time.Now()
	defer func() {
		p.metrics.ObserveAttemptDuration(time.Since(start).Seconds())
	}()

	req, err := http.NewRequest(http.MethodPost, targetURL, bytes.NewReader(body))
	if err != nil {
		attempt.Error = "Invalid request"
		return attempt, false
	}
	req.Header = headers.Clone()

	resp, err := p.httpClient.Do(req)
	if err != nil {
		tag, fatal := classifyRequestError(err)
		attempt.Error = tag
		return attempt, fatal
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	attempt.StatusCode = resp.StatusCode
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		attempt.Success = true
	} else {
		attempt.Error = resp.Status
	}

	return attempt, false
}
