// Package workflows connects the marketplace to Temporal, which runs the
// withdrawal payout saga.
package workflows

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	"go.temporal.io/sdk/interceptor"
	temporallog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"github.com/ghuser/nftmarket/pkg/config"
	"github.com/ghuser/nftmarket/pkg/logger"
)

// TemporalClient is the Temporal connection shared by the API, which starts
// withdrawal workflows, and the worker, which executes them.
type TemporalClient struct {
	Client    client.Client
	Namespace string

	activityConcurrency int
	log                 logger.Logger
}

// NewTemporalClient dials cfg.TemporalHostPort. The tracing interceptor is
// installed on the client and is inherited by workers created from it, so a
// withdrawal's workflow and activity spans join the trace of the request that
// started it.
func NewTemporalClient(ctx context.Context, cfg *config.Config, log logger.Logger) (*TemporalClient, error) {
	tracing, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{
		Tracer: otel.Tracer("github.com/ghuser/nftmarket/pkg/workflows"),
	})
	if err != nil {
		return nil, fmt.Errorf("create temporal otel interceptor: %w", err)
	}

	log = log.With("component", "temporal")
	c, err := client.DialContext(ctx, client.Options{
		HostPort:     cfg.TemporalHostPort,
		Namespace:    cfg.TemporalNamespace,
		Logger:       temporalLogger{log: log},
		Interceptors: []interceptor.ClientInterceptor{tracing},
	})
	if err != nil {
		return nil, fmt.Errorf("dial temporal server at %s: %w", cfg.TemporalHostPort, err)
	}
	log.Info("temporal client connected", "host_port", cfg.TemporalHostPort, "namespace", cfg.TemporalNamespace)

	return &TemporalClient{
		Client:              c,
		Namespace:           cfg.TemporalNamespace,
		activityConcurrency: cfg.PayoutConcurrency,
		log:                 log,
	}, nil
}

// Ping asks the frontend service for its health.
func (tc *TemporalClient) Ping(ctx context.Context) error {
	if _, err := tc.Client.CheckHealth(ctx, &client.CheckHealthRequest{}); err != nil {
		return fmt.Errorf("temporal health: %w", err)
	}
	return nil
}

// Close shuts down the client connection.
func (tc *TemporalClient) Close() {
	tc.Client.Close()
	tc.log.Info("temporal client closed")
}

// NewWorker returns a worker polling taskQueue. Register workflows and
// activities before calling Start or Run.
func (tc *TemporalClient) NewWorker(taskQueue string) worker.Worker {
	tc.log.Info("temporal worker created", "task_queue", taskQueue, "activity_concurrency", tc.activityConcurrency)
	return worker.New(tc.Client, taskQueue, workerOptions(tc.activityConcurrency))
}

func workerOptions(activityConcurrency int) worker.Options {
	opts := worker.Options{}
	if activityConcurrency > 0 {
		opts.MaxConcurrentActivityExecutionSize = activityConcurrency
	}
	return opts
}

// temporalLogger adapts logger.Logger to Temporal's log.Logger and log.WithLogger.
type temporalLogger struct {
	log logger.Logger
}

var (
	_ temporallog.Logger     = temporalLogger{}
	_ temporallog.WithLogger = temporalLogger{}
)

func (l temporalLogger) Debug(msg string, keyvals ...interface{}) { l.log.Debug(msg, keyvals...) }
func (l temporalLogger) Info(msg string, keyvals ...interface{})  { l.log.Info(msg, keyvals...) }
func (l temporalLogger) Warn(msg string, keyvals ...interface{})  { l.log.Warn(msg, keyvals...) }
func (l temporalLogger) Error(msg string, keyvals ...interface{}) { l.log.Error(msg, keyvals...) }

func (l temporalLogger) With(keyvals ...interface{}) temporallog.Logger {
	return temporalLogger{log: l.log.With(keyvals...)}
}
