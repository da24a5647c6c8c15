// Package sqlstore implements the marketplace store on PostgreSQL or SQLite.
//
// Statements are written once with ? placeholders and rebound for PostgreSQL.
// Writers are serialized on the marketplace_config row (SELECT ... FOR UPDATE)
// on PostgreSQL and by the immediate-mode write lock on SQLite. Notifications
// emitted inside Update are written to the Watermill outbox in the same
// transaction when a publisher is configured, and handed to commit hooks after
// the transaction commits.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/ghuser/nftmarket/pkg/database"
	bus "github.com/ghuser/nftmarket/pkg/events"
	"github.com/ghuser/nftmarket/pkg/logger"
	"github.com/ghuser/nftmarket/services/marketplace/domain/events"
	"github.com/ghuser/nftmarket/services/marketplace/domain/repositories"
)

var (
	errReadOnly        = errors.New("sqlstore: write inside read-only transaction")
	errNotBootstrapped = errors.New("sqlstore: store not bootstrapped")
)

// TxPublisher opens a Watermill publisher bound to a transaction.
// *bus.EventBus satisfies it.
type TxPublisher interface {
	NewTxPublisher(tx *sql.Tx) (message.Publisher, error)
}

// CommitHook receives the notifications of a committed transaction.
type CommitHook func(ctx context.Context, notifications []events.Notification)

// Store is a repositories.Store backed by database/sql.
type Store struct {
	db        *database.Database
	publisher TxPublisher
	log       logger.Logger

	mu    sync.RWMutex
	hooks []CommitHook
}

// Option configures a Store.
type Option func(*Store)

// WithPublisher writes every emitted notification to the outbox of p inside
// the emitting transaction.
func WithPublisher(p TxPublisher) Option {
	return func(s *Store) { s.publisher = p }
}

// NewStore returns a Store on db. The schema must already be migrated.
func NewStore(db *database.Database, log logger.Logger, opts ...Option) *Store {
	s := &Store{db: db, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnCommit registers a hook run after every successful Update that emitted notifications.
func (s *Store) OnCommit(h CommitHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, h)
}

// Bootstrap inserts the configuration row unless it already exists.
func (s *Store) Bootstrap(ctx context.Context, g repositories.Genesis) error {
	q := s.rebind(`INSERT INTO marketplace_config (id, administrator, custodian, listing_fee, last_token_id, unsold_count)
		VALUES (1, ?, ?, ?, 0, 0)
		ON CONFLICT (id) DO NOTHING`)
	if _, err := s.db.DB().ExecContext(ctx, q, g.Administrator.String(), g.Custodian.String(), g.ListingFee.String()); err != nil {
		return fmt.Errorf("bootstrap marketplace: %w", err)
	}
	return nil
}

// Update runs fn in a write transaction and publishes its notifications on commit.
func (s *Store) Update(ctx context.Context, fn func(ctx context.Context, tx repositories.Tx) error) error {
	var t *tx
	err := s.db.WithTx(ctx, func(sqlTx *sql.Tx) error {
		t = &tx{store: s, sqlTx: sqlTx}
		if err := t.lockConfig(ctx); err != nil {
			return err
		}
		return fn(ctx, t)
	})
	if err != nil {
		return err
	}

	if len(t.emitted) > 0 {
		s.mu.RLock()
		hooks := append([]CommitHook(nil), s.hooks...)
		s.mu.RUnlock()
		for _, h := range hooks {
			h(ctx, t.emitted)
		}
	}
	return nil
}

// View runs fn in a read-only snapshot transaction.
func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx repositories.Tx) error) error {
	var opts *sql.TxOptions
	if s.db.Driver() == database.DriverPostgres {
		opts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	return s.db.WithTxOptions(ctx, opts, func(sqlTx *sql.Tx) error {
		return fn(ctx, &tx{store: s, sqlTx: sqlTx, readOnly: true})
	})
}

func (s *Store) rebind(query string) string {
	return bindParams(s.db.Driver(), query)
}

// bindParams rewrites ? placeholders to $1..$n for PostgreSQL.
func bindParams(driver, query string) string {
	if driver != database.DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

type tx struct {
	store    *Store
	sqlTx    *sql.Tx
	readOnly bool
	emitted  []events.Notification
	pub      message.Publisher
}

func (t *tx) Registry() repositories.ItemRegistry { return registry{t} }
func (t *tx) Entries() repositories.MarketEntries { return entries{t} }
func (t *tx) Settings() repositories.MarketSettings { return settings{t} }
func (t *tx) Funds() repositories.Funds { return funds{t} }
func (t *tx) Withdrawals() repositories.Withdrawals { return withdrawals{t} }

func (t *tx) writable() error {
	if t.readOnly {
		return errReadOnly
	}
	return nil
}

func (t *tx) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.sqlTx.ExecContext(ctx, t.store.rebind(query), args...)
}

func (t *tx) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.sqlTx.QueryContext(ctx, t.store.rebind(query), args...)
}

func (t *tx) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return t.sqlTx.QueryRowContext(ctx, t.store.rebind(query), args...)
}

// lockConfig takes the writer lock and checks the store was bootstrapped.
func (t *tx) lockConfig(ctx context.Context) error {
	q := `SELECT id FROM marketplace_config WHERE id = 1`
	if t.store.db.Driver() == database.DriverPostgres {
		q += ` FOR UPDATE`
	}
	var id int
	if err := t.queryRow(ctx, q).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errNotBootstrapped
		}
		return fmt.Errorf("lock marketplace config: %w", err)
	}
	return nil
}

// Emit records n for commit hooks and writes it to the outbox when a publisher is set.
func (t *tx) Emit(ctx context.Context, n events.Notification) error {
	if err := t.writable(); err != nil {
		return err
	}
	if t.store.publisher != nil {
		if err := t.publish(ctx, n); err != nil {
			return fmt.Errorf("publish %s: %w", n.Topic(), err)
		}
	}
	t.emitted = append(t.emitted, n)
	return nil
}

func (t *tx) publish(ctx context.Context, n events.Notification) error {
	meta := n.Envelope()
	msg, err := bus.NewMessage(ctx, bus.Metadata{EventID: meta.EventID.String(), Version: meta.Version}, n)
	if err != nil {
		return err
	}
	if t.pub == nil {
		p, err := t.store.publisher.NewTxPublisher(t.sqlTx)
		if err != nil {
			return fmt.Errorf("create publisher: %w", err)
		}
		t.pub = p
	}
	return t.pub.Publish(n.Topic(), msg)
}

func toMillis(at time.Time) int64 {
	return at.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
