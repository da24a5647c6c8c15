// Package events carries marketplace notifications over a Watermill SQL
// transport on PostgreSQL.
//
// Ledger writes put their notifications in the outbox inside the writing
// transaction (NewTxPublisher). With the forwarder enabled the outbox is a
// single internal queue that the API process drains onto the real topics, so
// a notification is delivered if and only if its transaction committed.
//
// Subscribers in one consumer group (<service>-consumer) share the stream:
// each message is handled by one worker instance. A failed handler is retried
// with exponential backoff, then the message is nacked and redelivered later,
// so handlers must tolerate seeing a notification more than once.
package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	watermillsql "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ghuser/nftmarket/pkg/config"
	"github.com/ghuser/nftmarket/pkg/logger"
)

const (
	handlerAttempts = 3
	firstRetryDelay = time.Second
	drainTimeout    = 30 * time.Second
	outboxTopic     = "market_outbox"
	errBuffer       = 100
)

// Handler processes one delivered message. Returning an error schedules a retry.
type Handler func(ctx context.Context, msg *message.Message) error

// EventBus publishes and consumes marketplace notifications.
type EventBus struct {
	db         *sql.DB
	publisher  message.Publisher // enveloped for the outbox when outbox is set
	subscriber *watermillsql.Subscriber
	fwd        *forwarder.Forwarder
	outbox     bool
	log        logger.Logger
	inflight   sync.WaitGroup
}

// NewEventBus connects to cfg.DefinitionDatabaseURL and publishes straight to
// the target topics. Workers use it to subscribe.
func NewEventBus(cfg *config.Config, log logger.Logger) (*EventBus, error) {
	return open(cfg, log, false)
}

// NewEventBusWithForwarder routes every publish through the outbox queue.
// Call StartForwarder in exactly one long-running process to deliver it.
func NewEventBusWithForwarder(cfg *config.Config, log logger.Logger) (*EventBus, error) {
	return open(cfg, log, true)
}

func open(cfg *config.Config, log logger.Logger, outbox bool) (*EventBus, error) {
	db, err := sql.Open("pgx", cfg.DefinitionDatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("events: open db: %w", err)
	}
	wlog := watermillLogger{log: log}

	pub, err := watermillsql.NewPublisher(db, watermillsql.PublisherConfig{
		SchemaAdapter:        watermillsql.DefaultPostgreSQLSchema{},
		AutoInitializeSchema: true,
	}, wlog)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("events: new publisher: %w", err)
	}

	sub, err := newSubscriber(db, cfg.ServiceName+"-consumer", wlog)
	if err != nil {
		_ = pub.Close()
		_ = db.Close()
		return nil, err
	}

	b := &EventBus{db: db, publisher: pub, subscriber: sub, outbox: outbox, log: log}
	if outbox {
		b.publisher = forwarder.NewPublisher(pub, forwarder.PublisherConfig{ForwarderTopic: outboxTopic})
	}
	return b, nil
}

func newSubscriber(db *sql.DB, group string, wlog watermill.LoggerAdapter) (*watermillsql.Subscriber, error) {
	sub, err := watermillsql.NewSubscriber(db, watermillsql.SubscriberConfig{
		SchemaAdapter:    watermillsql.DefaultPostgreSQLSchema{},
		OffsetsAdapter:   watermillsql.DefaultPostgreSQLOffsetsAdapter{},
		InitializeSchema: true,
		ConsumerGroup:    group,
	}, wlog)
	if err != nil {
		return nil, fmt.Errorf("events: new subscriber (%s): %w", group, err)
	}
	return sub, nil
}

// StartForwarder drains the outbox queue onto the target topics until ctx is
// done. It returns once the forwarder is running.
func (b *EventBus) StartForwarder(ctx context.Context) error {
	if !b.outbox {
		return errors.New("events: bus was created without an outbox")
	}
	if b.fwd != nil {
		return errors.New("events: forwarder already started")
	}
	wlog := watermillLogger{log: b.log}

	outboxSub, err := newSubscriber(b.db, "outbox-forwarder", wlog)
	if err != nil {
		return err
	}
	topicPub, err := watermillsql.NewPublisher(b.db, watermillsql.PublisherConfig{
		SchemaAdapter:        watermillsql.DefaultPostgreSQLSchema{},
		AutoInitializeSchema: true,
	}, wlog)
	if err != nil {
		_ = outboxSub.Close()
		return fmt.Errorf("events: new topic publisher: %w", err)
	}
	fwd, err := forwarder.NewForwarder(outboxSub, topicPub, wlog, forwarder.Config{ForwarderTopic: outboxTopic})
	if err != nil {
		_ = topicPub.Close()
		_ = outboxSub.Close()
		return fmt.Errorf("events: new forwarder: %w", err)
	}
	b.fwd = fwd

	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		b.log.InfoContext(ctx, "events: outbox forwarder running")
		if err := fwd.Run(ctx); err != nil {
			b.log.ErrorContext(ctx, "events: outbox forwarder failed", "error", err)
			return
		}
		b.log.InfoContext(ctx, "events: outbox forwarder stopped")
	}()

	select {
	case <-fwd.Running():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("events: waiting for forwarder: %w", ctx.Err())
	}
}

// NewTxPublisher returns a publisher whose writes belong to tx, so a
// notification is stored exactly when the ledger change it describes commits.
// The schema already exists once the bus is open.
func (b *EventBus) NewTxPublisher(tx *sql.Tx) (message.Publisher, error) {
	pub, err := watermillsql.NewPublisher(tx, watermillsql.PublisherConfig{
		SchemaAdapter: watermillsql.DefaultPostgreSQLSchema{},
	}, watermillLogger{log: b.log})
	if err != nil {
		return nil, fmt.Errorf("events: new tx publisher: %w", err)
	}
	if !b.outbox {
		return pub, nil
	}
	return forwarder.NewPublisher(pub, forwarder.PublisherConfig{ForwarderTopic: outboxTopic}), nil
}

// Publish sends payload to topic outside any ledger transaction.
func (b *EventBus) Publish(ctx context.Context, topic string, meta Metadata, payload any) error {
	msg, err := NewMessage(ctx, meta, payload)
	if err != nil {
		return err
	}
	if err := b.publisher.Publish(topic, msg); err != nil { //nolint:contextcheck
		return fmt.Errorf("events: publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe runs handler for every message on topics. Each message is handled
// with the publisher's trace restored; it is acked on success and nacked once
// handlerAttempts tries have failed, in which case the failure is sent on the
// returned channel. The channel is closed after all topics stop and must be
// drained by the caller.
func (b *EventBus) Subscribe(ctx context.Context, handler Handler, topics ...string) (<-chan error, error) {
	if len(topics) == 0 {
		return nil, errors.New("events: subscribe needs at least one topic")
	}
	streams := make(map[string]<-chan *message.Message, len(topics))
	for _, topic := range topics {
		ch, err := b.subscriber.Subscribe(ctx, topic)
		if err != nil {
			return nil, fmt.Errorf("events: subscribe to %s: %w", topic, err)
		}
		streams[topic] = ch
	}

	errCh := make(chan error, errBuffer)
	var consumers sync.WaitGroup
	for topic, ch := range streams {
		consumers.Add(1)
		b.inflight.Add(1)
		go func() {
			defer b.inflight.Done()
			defer consumers.Done()
			b.consume(ctx, topic, ch, handler, errCh)
		}()
	}
	go func() {
		consumers.Wait()
		close(errCh)
	}()
	return errCh, nil
}

func (b *EventBus) consume(ctx context.Context, topic string, ch <-chan *message.Message, handler Handler, errCh chan<- error) {
	for msg := range ch {
		msgCtx := MessageContext(ctx, msg)
		err := handleWithRetry(msgCtx, msg, handler, handlerAttempts, firstRetryDelay, b.log)
		if err == nil {
			msg.Ack()
			continue
		}
		msg.Nack()
		select {
		case errCh <- fmt.Errorf("%s: event %s: %w", topic, EventID(msg), err):
		default:
			b.log.ErrorContext(msgCtx, "events: error channel full", "topic", topic, "error", err)
		}
	}
}

// handleWithRetry calls handler up to attempts times, doubling the delay after
// each failure. It returns the last error, or ctx's error if ctx ends first.
func handleWithRetry(ctx context.Context, msg *message.Message, handler Handler, attempts int, delay time.Duration, log logger.Logger) error {
	var err error
	for attempt := 1; ; attempt++ {
		if err = handler(ctx, msg); err == nil {
			return nil
		}
		if attempt == attempts {
			return fmt.Errorf("events: handler failed %d times: %w", attempts, err)
		}
		log.WarnContext(ctx, "events: handler failed",
			"event_id", EventID(msg),
			"attempt", attempt,
			"retry_in", delay,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// Ping checks the bus database connection.
func (b *EventBus) Ping(ctx context.Context) error {
	if err := b.db.PingContext(ctx); err != nil {
		return fmt.Errorf("events: ping db: %w", err)
	}
	return nil
}

// Close stops consuming, waits up to drainTimeout for running handlers and
// the forwarder, then releases the publisher and the connection.
func (b *EventBus) Close() error {
	if err := b.subscriber.Close(); err != nil {
		return fmt.Errorf("events: close subscriber: %w", err)
	}
	if b.fwd != nil {
		if err := b.fwd.Close(); err != nil {
			return fmt.Errorf("events: close forwarder: %w", err)
		}
	}

	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(drainTimeout):
		b.log.Error("events: handlers still running at shutdown")
	}

	if err := b.publisher.Close(); err != nil {
		return fmt.Errorf("events: close publisher: %w", err)
	}
	return b.db.Close()
}

// watermillLogger routes Watermill's logs through logger.Logger.
type watermillLogger struct{ log logger.Logger }

func (l watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.log.Error(msg, append(logArgs(fields), "error", err)...)
}

func (l watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.log.Info(msg, logArgs(fields)...)
}

func (l watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.log.Debug(msg, logArgs(fields)...)
}

func (l watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.log.Debug(msg, logArgs(fields)...)
}

func (l watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return watermillLogger{log: l.log.With(logArgs(fields)...)}
}

func logArgs(fields watermill.LogFields) []any {
	args := make([]any, 0, 2*len(fields))
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}
