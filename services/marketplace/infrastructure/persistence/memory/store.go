// Package memory implements the marketplace store in process memory.
//
// Every Update works on a private copy of the state that replaces the live
// state only when the callback succeeds, so a failed operation leaves no trace.
// Writers are serialized by a mutex; readers take the last committed state.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ghuser/nftmarket/services/marketplace/domain"
	"github.com/ghuser/nftmarket/services/marketplace/domain/events"
	"github.com/ghuser/nftmarket/services/marketplace/domain/models"
	"github.com/ghuser/nftmarket/services/marketplace/domain/repositories"
)

var errReadOnly = errors.New("memory: write inside read-only transaction")

// CommitHook receives the notifications of a committed transaction.
type CommitHook func(ctx context.Context, notifications []events.Notification)

// Store is an in-memory repositories.Store.
type Store struct {
	writer sync.Mutex   // serializes Update
	mu     sync.RWMutex // guards st and hooks
	st     *state       // committed state, never mutated after publication
	hooks  []CommitHook
}

// NewStore returns an empty, not yet bootstrapped store.
func NewStore() *Store {
	return &Store{st: newState()}
}

// OnCommit registers a hook run after every successful Update that emitted notifications.
func (s *Store) OnCommit(h CommitHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, h)
}

// Bootstrap records the genesis configuration once; later calls are no-ops.
func (s *Store) Bootstrap(_ context.Context, g repositories.Genesis) error {
	s.writer.Lock()
	defer s.writer.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st.initialized {
		return nil
	}
	next := s.st.clone()
	next.admin = g.Administrator
	next.custodian = g.Custodian
	next.fee = g.ListingFee
	next.initialized = true
	s.st = next
	return nil
}

// Update runs fn against a copy of the state and commits it if fn succeeds.
func (s *Store) Update(ctx context.Context, fn func(ctx context.Context, tx repositories.Tx) error) error {
	s.writer.Lock()
	defer s.writer.Unlock()

	current := s.committed()
	if !current.initialized {
		return fmt.Errorf("memory: store not bootstrapped")
	}
	t := &tx{st: current.clone()}
	if err := fn(ctx, t); err != nil {
		return err
	}

	s.mu.Lock()
	s.st = t.st
	hooks := append([]CommitHook(nil), s.hooks...)
	s.mu.Unlock()

	if len(t.emitted) > 0 {
		for _, h := range hooks {
			h(ctx, t.emitted)
		}
	}
	return nil
}

// View runs fn against the last committed state without blocking writers.
func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx repositories.Tx) error) error {
	current := s.committed()
	if !current.initialized {
		return fmt.Errorf("memory: store not bootstrapped")
	}
	return fn(ctx, &tx{st: current, readOnly: true})
}

func (s *Store) committed() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st
}

type account struct {
	balance decimal.Decimal
	refuses bool
}

type state struct {
	initialized bool
	admin       models.Address
	custodian   models.Address
	fee         decimal.Decimal

	lastID      models.TokenID
	unsold      int64
	tokens      map[models.TokenID]models.Token
	owned       map[models.Address]map[models.TokenID]struct{}
	entries     map[models.TokenID]models.MarketEntry
	accounts    map[models.Address]account
	withdrawals map[string]models.Withdrawal
}

func newState() *state {
	return &state{
		tokens:      make(map[models.TokenID]models.Token),
		owned:       make(map[models.Address]map[models.TokenID]struct{}),
		entries:     make(map[models.TokenID]models.MarketEntry),
		accounts:    make(map[models.Address]account),
		withdrawals: make(map[string]models.Withdrawal),
	}
}

func (s *state) clone() *state {
	c := *s
	c.tokens = make(map[models.TokenID]models.Token, len(s.tokens))
	for k, v := range s.tokens {
		c.tokens[k] = v
	}
	c.owned = make(map[models.Address]map[models.TokenID]struct{}, len(s.owned))
	for owner, ids := range s.owned {
		set := make(map[models.TokenID]struct{}, len(ids))
		for id := range ids {
			set[id] = struct{}{}
		}
		c.owned[owner] = set
	}
	c.entries = make(map[models.TokenID]models.MarketEntry, len(s.entries))
	for k, v := range s.entries {
		c.entries[k] = v
	}
	c.accounts = make(map[models.Address]account, len(s.accounts))
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	c.withdrawals = make(map[string]models.Withdrawal, len(s.withdrawals))
	for k, v := range s.withdrawals {
		c.withdrawals[k] = v
	}
	return &c
}

type tx struct {
	st       *state
	readOnly bool
	emitted  []events.Notification
}

func (t *tx) Registry() repositories.ItemRegistry { return registry{t} }
func (t *tx) Entries() repositories.MarketEntries { return entries{t} }
func (t *tx) Settings() repositories.MarketSettings { return settings{t} }
func (t *tx) Funds() repositories.Funds { return funds{t} }
func (t *tx) Withdrawals() repositories.Withdrawals { return withdrawals{t} }

func (t *tx) Emit(_ context.Context, n events.Notification) error {
	if t.readOnly {
		return errReadOnly
	}
	t.emitted = append(t.emitted, n)
	return nil
}

func (t *tx) writable() error {
	if t.readOnly {
		return errReadOnly
	}
	return nil
}

type registry struct{ t *tx }

func (r registry) Mint(_ context.Context, descriptor models.Descriptor, owner models.Address, at time.Time) (models.TokenID, error) {
	if err := r.t.writable(); err != nil {
		return 0, err
	}
	st := r.t.st
	st.lastID++
	id := st.lastID
	st.tokens[id] = models.Token{ID: id, Descriptor: descriptor, Owner: owner, MintedAt: at}
	st.own(owner, id)
	return id, nil
}

func (r registry) Transfer(_ context.Context, id models.TokenID, from, to models.Address) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	st := r.t.st
	tok, ok := st.tokens[id]
	if !ok {
		return fmt.Errorf("%w: %d", domain.ErrUnknownID, id)
	}
	if tok.Owner != from {
		return fmt.Errorf("%w: token %d", domain.ErrNotOwner, id)
	}
	delete(st.owned[from], id)
	tok.Owner = to
	st.tokens[id] = tok
	st.own(to, id)
	return nil
}

func (r registry) OwnerOf(_ context.Context, id models.TokenID) (models.Address, error) {
	tok, ok := r.t.st.tokens[id]
	if !ok {
		return "", fmt.Errorf("%w: %d", domain.ErrUnknownID, id)
	}
	return tok.Owner, nil
}

func (r registry) Token(_ context.Context, id models.TokenID) (*models.Token, error) {
	tok, ok := r.t.st.tokens[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownID, id)
	}
	return &tok, nil
}

func (r registry) TokensOf(_ context.Context, owner models.Address) ([]models.TokenID, error) {
	return r.t.st.tokensOf(owner), nil
}

func (r registry) BalanceOf(_ context.Context, owner models.Address) (int64, error) {
	return int64(len(r.t.st.owned[owner])), nil
}

func (r registry) TotalSupply(_ context.Context) (int64, error) {
	return int64(len(r.t.st.tokens)), nil
}

func (s *state) tokensOf(owner models.Address) []models.TokenID {
	ids := make([]models.TokenID, 0, len(s.owned[owner]))
	for id := range s.owned[owner] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *state) own(owner models.Address, id models.TokenID) {
	set, ok := s.owned[owner]
	if !ok {
		set = make(map[models.TokenID]struct{})
		s.owned[owner] = set
	}
	set[id] = struct{}{}
}

type entries struct{ t *tx }

func (e entries) Get(_ context.Context, id models.TokenID) (*models.MarketEntry, error) {
	entry, ok := e.t.st.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownID, id)
	}
	return &entry, nil
}

func (e entries) Put(_ context.Context, entry *models.MarketEntry) error {
	if err := e.t.writable(); err != nil {
		return err
	}
	st := e.t.st
	if _, ok := st.tokens[entry.ID]; !ok {
		return fmt.Errorf("%w: %d", domain.ErrUnknownID, entry.ID)
	}
	prev, existed := st.entries[entry.ID]
	switch {
	case (!existed || prev.Sold) && !entry.Sold:
		st.unsold++
	case existed && !prev.Sold && entry.Sold:
		st.unsold--
	}
	st.entries[entry.ID] = *entry
	return nil
}

func (e entries) Unsold(_ context.Context) ([]*models.MarketEntry, error) {
	return e.filter(func(m models.MarketEntry) bool { return !m.Sold }), nil
}

func (e entries) ListedBy(_ context.Context, seller models.Address) ([]*models.MarketEntry, error) {
	return e.filter(func(m models.MarketEntry) bool { return !m.Sold && m.Seller == seller }), nil
}

func (e entries) OwnedBy(_ context.Context, owner models.Address) ([]*models.MarketEntry, error) {
	st := e.t.st
	out := make([]*models.MarketEntry, 0, len(st.owned[owner]))
	for _, id := range st.tokensOf(owner) {
		if entry, ok := st.entries[id]; ok {
			out = append(out, &entry)
		}
	}
	return out, nil
}

func (e entries) UnsoldCount(_ context.Context) (int64, error) {
	return e.t.st.unsold, nil
}

func (e entries) filter(keep func(models.MarketEntry) bool) []*models.MarketEntry {
	out := make([]*models.MarketEntry, 0)
	for _, m := range e.t.st.entries {
		if keep(m) {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type settings struct{ t *tx }

func (s settings) ListingFee(context.Context) (decimal.Decimal, error) { return s.t.st.fee, nil }

func (s settings) SetListingFee(_ context.Context, fee decimal.Decimal) error {
	if err := s.t.writable(); err != nil {
		return err
	}
	s.t.st.fee = fee
	return nil
}

func (s settings) Administrator(context.Context) (models.Address, error) { return s.t.st.admin, nil }

func (s settings) Custodian(context.Context) (models.Address, error) { return s.t.st.custodian, nil }

type funds struct{ t *tx }

func (f funds) Transfer(_ context.Context, to models.Address, amount decimal.Decimal) error {
	if err := f.t.writable(); err != nil {
		return err
	}
	acct := f.t.st.accounts[to]
	if acct.refuses {
		return fmt.Errorf("%w: %s does not accept payments", domain.ErrFundTransferFailed, to)
	}
	acct.balance = acct.balance.Add(amount)
	f.t.st.accounts[to] = acct
	return nil
}

func (f funds) Debit(_ context.Context, from models.Address, amount decimal.Decimal) error {
	if err := f.t.writable(); err != nil {
		return err
	}
	acct := f.t.st.accounts[from]
	if acct.balance.LessThan(amount) {
		return fmt.Errorf("%w: balance %s, requested %s", domain.ErrInsufficientBalance, acct.balance, amount)
	}
	acct.balance = acct.balance.Sub(amount)
	f.t.st.accounts[from] = acct
	return nil
}

func (f funds) Credit(_ context.Context, to models.Address, amount decimal.Decimal) error {
	if err := f.t.writable(); err != nil {
		return err
	}
	acct := f.t.st.accounts[to]
	acct.balance = acct.balance.Add(amount)
	f.t.st.accounts[to] = acct
	return nil
}

func (f funds) Balance(_ context.Context, account models.Address) (decimal.Decimal, error) {
	return f.t.st.accounts[account].balance, nil
}

func (f funds) SetAcceptsPayments(_ context.Context, account models.Address, accepts bool) error {
	if err := f.t.writable(); err != nil {
		return err
	}
	acct := f.t.st.accounts[account]
	acct.refuses = !accepts
	f.t.st.accounts[account] = acct
	return nil
}

type withdrawals struct{ t *tx }

func (w withdrawals) Create(_ context.Context, wd *models.Withdrawal) error {
	if err := w.t.writable(); err != nil {
		return err
	}
	if _, ok := w.t.st.withdrawals[wd.ID]; ok {
		return fmt.Errorf("%w: %s", domain.ErrWithdrawalExists, wd.ID)
	}
	w.t.st.withdrawals[wd.ID] = *wd
	return nil
}

func (w withdrawals) Get(_ context.Context, id string) (*models.Withdrawal, error) {
	wd, ok := w.t.st.withdrawals[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrWithdrawalNotFound, id)
	}
	return &wd, nil
}

func (w withdrawals) SetStatus(_ context.Context, id string, status models.WithdrawalStatus, reference string, at time.Time) error {
	if err := w.t.writable(); err != nil {
		return err
	}
	wd, ok := w.t.st.withdrawals[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrWithdrawalNotFound, id)
	}
	wd.Status = status
	wd.Reference = reference
	wd.UpdatedAt = at
	w.t.st.withdrawals[id] = wd
	return nil
}
