// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	logrus "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vrischmann/envconfig"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mattermost/webhookd/internal/api"
	"github.com/mattermost/webhookd/internal/cache"
	"github.com/mattermost/webhookd/internal/metrics"
	"github.com/mattermost/webhookd/internal/queue"
	"github.com/mattermost/webhookd/internal/store"
	"github.com/mattermost/webhookd/internal/subscription"
	"github.com/mattermost/webhookd/internal/supervisor"
	"github.com/mattermost/webhookd/internal/worker"
)

// environmentConfig is the server configuration coming from env vars.
type environmentConfig struct {
	MongoURI       string `envconfig:"default=mongodb://localhost:27017"`
	DBName         string `envconfig:"default=webhook_service"`
	RedisURL       string `envconfig:"default=redis://localhost:6379/0"`
	WorkerCount    int    `envconfig:"default=10"`
	RequestTimeout int    `envconfig:"default=10"`
}

func init() {
	serverCmd.PersistentFlags().String("listen", ":8080", "The interface and port on which to listen.")
	serverCmd.PersistentFlags().String("retry-intervals", "10s,30s,60s", "Comma-separated backoff intervals between delivery attempts; total attempts is one more than the interval count.")
	serverCmd.PersistentFlags().Int("queue-capacity", 1000, "The maximum number of accepted payloads awaiting delivery.")
	serverCmd.PersistentFlags().Duration("cache-ttl", 300*time.Second, "How long cached subscription records remain valid.")
	serverCmd.PersistentFlags().Duration("retention", 72*time.Hour, "How long delivery logs are retained before garbage collection.")
	serverCmd.PersistentFlags().Duration("cleanup-interval", time.Hour, "How often the delivery log garbage collector runs.")
	serverCmd.PersistentFlags().Bool("debug", false, "Whether to output debug logs.")
	serverCmd.PersistentFlags().Bool("machine-readable-logs", false, "Output the logs in machine readable format.")
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the webhook delivery server.",
	RunE: func(command *cobra.Command, args []string) error {
		command.SilenceUsage = true

		debug, _ := command.Flags().GetBool("debug")
		if debug {
			logger.SetLevel(logrus.DebugLevel)
		}

		machineLogs, _ := command.Flags().GetBool("machine-readable-logs")
		if machineLogs {
			logger.SetFormatter(&logrus.JSONFormatter{})
		}

		logger := logger.WithField("instance", instanceID)

		var config environmentConfig
		if err := envconfig.Init(&config); err != nil {
			return errors.Wrap(err, "unable to read environment configuration")
		}
		if config.WorkerCount < 1 {
			return errors.Errorf("WORKER_COUNT (%d) must be at least 1", config.WorkerCount)
		}
		if config.RequestTimeout < 1 {
			return errors.Errorf("REQUEST_TIMEOUT (%d) must be at least 1 second", config.RequestTimeout)
		}

		retryIntervalsFlag, _ := command.Flags().GetString("retry-intervals")
		retryIntervals, err := parseRetryIntervals(retryIntervalsFlag)
		if err != nil {
			return err
		}

		queueCapacity, _ := command.Flags().GetInt("queue-capacity")
		if queueCapacity < 1 {
			return errors.Errorf("queue-capacity (%d) must be at least 1", queueCapacity)
		}

		cacheTTL, _ := command.Flags().GetDuration("cache-ttl")
		retention, _ := command.Flags().GetDuration("retention")
		cleanupInterval, _ := command.Flags().GetDuration("cleanup-interval")

		logger.WithFields(logrus.Fields{
			"db-name":          config.DBName,
			"worker-count":     config.WorkerCount,
			"request-timeout":  config.RequestTimeout,
			"retry-intervals":  retryIntervalsFlag,
			"queue-capacity":   queueCapacity,
			"cache-ttl":        cacheTTL,
			"retention":        retention,
			"cleanup-interval": cleanupInterval,
			"debug":            debug,
		}).Info("Starting webhook delivery server")

		ctx := context.Background()

		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(config.MongoURI))
		if err != nil {
			return errors.Wrap(err, "failed to create mongodb client")
		}
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				logger.WithError(err).Warn("Failed to disconnect from mongodb")
			}
		}()

		mongoStore := store.New(mongoClient.Database(config.DBName), logger)

		connectBackoff := backoff.NewExponentialBackOff()
		connectBackoff.MaxElapsedTime = 30 * time.Second
		err = backoff.Retry(func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return mongoStore.Ping(pingCtx)
		}, connectBackoff)
		if err != nil {
			return errors.Wrap(err, "failed to reach mongodb")
		}

		if err = mongoStore.EnsureIndexes(ctx); err != nil {
			return err
		}

		redisOptions, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return errors.Wrap(err, "failed to parse REDIS_URL")
		}
		redisClient := redis.NewClient(redisOptions)
		defer func() {
			_ = redisClient.Close()
		}()
		if err = redisClient.Ping(ctx).Err(); err != nil {
			// The cache is best effort; reads fall through to the store.
			logger.WithError(err).Warn("Redis unreachable at boot")
		}

		subscriptionCache := cache.NewSubscriptionCache(redisClient, cacheTTL, logger)
		subscriptionService := subscription.NewService(mongoStore, subscriptionCache, logger)

		taskQueue := queue.New(queueCapacity)
		webhookMetrics := metrics.New()
		metrics.RegisterQueueDepth(taskQueue.Len)

		deliveryClient := &http.Client{
			Timeout: time.Duration(config.RequestTimeout) * time.Second,
		}
		pool := worker.NewPool(config.WorkerCount, taskQueue, subscriptionService, mongoStore, webhookMetrics, deliveryClient, retryIntervals, logger)
		pool.Start()

		deliveryLogGC := supervisor.NewDeliveryLogGC(mongoStore, webhookMetrics, retention, logger)
		gcScheduler := supervisor.NewScheduler(deliveryLogGC, cleanupInterval, logger)
		// Collect once at boot rather than waiting out the first interval.
		_ = gcScheduler.Do()

		router := mux.NewRouter()
		router.Use(api.LoggingMiddleware(logger))
		api.Register(router, &api.Context{
			Subscriptions: subscriptionService,
			DeliveryLogs:  mongoStore,
			Queue:         taskQueue,
			Metrics:       webhookMetrics,
			Logger:        logger,
		})
		router.Handle("/metrics", promhttp.Handler()).Methods("GET")

		listen, _ := command.Flags().GetString("listen")
		srv := &http.Server{
			Addr:           listen,
			Handler:        router,
			ReadTimeout:    180 * time.Second,
			WriteTimeout:   180 * time.Second,
			IdleTimeout:    time.Second * 180,
			MaxHeaderBytes: 1 << 20,
			ErrorLog:       stdlog.New(&logrusWriter{logger}, "", 0),
		}

		go func() {
			logger.WithField("addr", srv.Addr).Info("Listening")
			err := srv.ListenAndServe()
			if err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Error("Failed to listen and serve")
			}
		}()

		c := make(chan os.Signal, 1)
		// We'll accept graceful shutdowns when quit via SIGINT (Ctrl+C) or
		// SIGTERM. SIGKILL and SIGQUIT will not be caught.
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)

		// Block until we receive our signal.
		<-c
		logger.Info("Shutting down")

		// Stop accepting new payloads before draining the queue, so the pool's
		// end markers land behind every accepted task.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)

		pool.Stop()
		_ = gcScheduler.Close()

		return nil
	},
}

// parseRetryIntervals parses a comma-separated list of durations, e.g.
// "10s,30s,60s". An empty list disables retries entirely.
func parseRetryIntervals(value string) ([]time.Duration, error) {
	var intervals []time.Duration
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		interval, err := time.ParseDuration(part)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse retry interval %q", part)
		}
		if interval < 0 {
			return nil, errors.Errorf("retry interval %q must not be negative", part)
		}

		intervals = append(intervals, interval)
	}

	return intervals, nil
}
