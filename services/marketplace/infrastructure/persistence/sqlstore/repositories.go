package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ghuser/nftmarket/services/marketplace/domain"
	"github.com/ghuser/nftmarket/services/marketplace/domain/models"
)

type registry struct{ t *tx }

func (r registry) Mint(ctx context.Context, descriptor models.Descriptor, owner models.Address, at time.Time) (models.TokenID, error) {
	if err := r.t.writable(); err != nil {
		return 0, err
	}
	var id models.TokenID
	err := r.t.queryRow(ctx, `UPDATE marketplace_config SET last_token_id = last_token_id + 1 WHERE id = 1 RETURNING last_token_id`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("next token id: %w", err)
	}
	if _, err := r.t.exec(ctx, `INSERT INTO tokens (id, descriptor, owner, minted_at) VALUES (?, ?, ?, ?)`,
		int64(id), descriptor.String(), owner.String(), toMillis(at)); err != nil {
		return 0, fmt.Errorf("insert token %d: %w", id, err)
	}
	return id, nil
}

func (r registry) Transfer(ctx context.Context, id models.TokenID, from, to models.Address) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	res, err := r.t.exec(ctx, `UPDATE tokens SET owner = ? WHERE id = ? AND owner = ?`, to.String(), int64(id), from.String())
	if err != nil {
		return fmt.Errorf("transfer token %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transfer token %d: %w", id, err)
	}
	if n == 1 {
		return nil
	}
	if _, err := r.OwnerOf(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: token %d", domain.ErrNotOwner, id)
}

func (r registry) OwnerOf(ctx context.Context, id models.TokenID) (models.Address, error) {
	var owner string
	err := r.t.queryRow(ctx, `SELECT owner FROM tokens WHERE id = ?`, int64(id)).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %d", domain.ErrUnknownID, id)
		}
		return "", fmt.Errorf("query owner of %d: %w", id, err)
	}
	return models.Address(owner), nil
}

func (r registry) Token(ctx context.Context, id models.TokenID) (*models.Token, error) {
	var (
		descriptor, owner string
		minted            int64
	)
	err := r.t.queryRow(ctx, `SELECT descriptor, owner, minted_at FROM tokens WHERE id = ?`, int64(id)).
		Scan(&descriptor, &owner, &minted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", domain.ErrUnknownID, id)
		}
		return nil, fmt.Errorf("query token %d: %w", id, err)
	}
	return &models.Token{
		ID:         id,
		Descriptor: models.Descriptor(descriptor),
		Owner:      models.Address(owner),
		MintedAt:   fromMillis(minted),
	}, nil
}

func (r registry) TokensOf(ctx context.Context, owner models.Address) ([]models.TokenID, error) {
	rows, err := r.t.query(ctx, `SELECT id FROM tokens WHERE owner = ? ORDER BY id`, owner.String())
	if err != nil {
		return nil, fmt.Errorf("query tokens of %s: %w", owner, err)
	}
	defer rows.Close() //nolint:errcheck

	ids := make([]models.TokenID, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan token id: %w", err)
		}
		ids = append(ids, models.TokenID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tokens of %s: %w", owner, err)
	}
	return ids, nil
}

func (r registry) BalanceOf(ctx context.Context, owner models.Address) (int64, error) {
	var n int64
	if err := r.t.queryRow(ctx, `SELECT COUNT(*) FROM tokens WHERE owner = ?`, owner.String()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tokens of %s: %w", owner, err)
	}
	return n, nil
}

func (r registry) TotalSupply(ctx context.Context) (int64, error) {
	var n int64
	if err := r.t.queryRow(ctx, `SELECT COUNT(*) FROM tokens`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tokens: %w", err)
	}
	return n, nil
}

type entries struct{ t *tx }

const entryColumns = `e.token_id, e.seller, e.price, e.sold, e.updated_at`

func (e entries) Get(ctx context.Context, id models.TokenID) (*models.MarketEntry, error) {
	row := e.t.queryRow(ctx, `SELECT `+entryColumns+` FROM market_entries e WHERE e.token_id = ?`, int64(id))
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", domain.ErrUnknownID, id)
		}
		return nil, fmt.Errorf("query entry %d: %w", id, err)
	}
	return entry, nil
}

func (e entries) Put(ctx context.Context, entry *models.MarketEntry) error {
	if err := e.t.writable(); err != nil {
		return err
	}
	if _, err := e.t.Registry().OwnerOf(ctx, entry.ID); err != nil {
		return err
	}

	var prevSold bool
	err := e.t.queryRow(ctx, `SELECT sold FROM market_entries WHERE token_id = ?`, int64(entry.ID)).Scan(&prevSold)
	existed := true
	if errors.Is(err, sql.ErrNoRows) {
		existed = false
	} else if err != nil {
		return fmt.Errorf("query entry %d: %w", entry.ID, err)
	}

	_, err = e.t.exec(ctx, `INSERT INTO market_entries (token_id, seller, price, sold, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (token_id) DO UPDATE SET
			seller = excluded.seller,
			price = excluded.price,
			sold = excluded.sold,
			updated_at = excluded.updated_at`,
		int64(entry.ID), entry.Seller.String(), entry.Price.String(), entry.Sold, toMillis(entry.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert entry %d: %w", entry.ID, err)
	}

	var delta int
	switch {
	case (!existed || prevSold) && !entry.Sold:
		delta = 1
	case existed && !prevSold && entry.Sold:
		delta = -1
	}
	if delta != 0 {
		if _, err := e.t.exec(ctx, `UPDATE marketplace_config SET unsold_count = unsold_count + ? WHERE id = 1`, delta); err != nil {
			return fmt.Errorf("adjust unsold count: %w", err)
		}
	}
	return nil
}

func (e entries) Unsold(ctx context.Context) ([]*models.MarketEntry, error) {
	return e.list(ctx, `SELECT `+entryColumns+` FROM market_entries e WHERE NOT e.sold ORDER BY e.token_id`)
}

func (e entries) ListedBy(ctx context.Context, seller models.Address) ([]*models.MarketEntry, error) {
	return e.list(ctx, `SELECT `+entryColumns+` FROM market_entries e
		WHERE NOT e.sold AND e.seller = ? ORDER BY e.token_id`, seller.String())
}

func (e entries) OwnedBy(ctx context.Context, owner models.Address) ([]*models.MarketEntry, error) {
	return e.list(ctx, `SELECT `+entryColumns+` FROM market_entries e
		JOIN tokens t ON t.id = e.token_id
		WHERE t.owner = ? ORDER BY e.token_id`, owner.String())
}

func (e entries) UnsoldCount(ctx context.Context) (int64, error) {
	var n int64
	if err := e.t.queryRow(ctx, `SELECT unsold_count FROM marketplace_config WHERE id = 1`).Scan(&n); err != nil {
		return 0, fmt.Errorf("query unsold count: %w", err)
	}
	return n, nil
}

func (e entries) list(ctx context.Context, query string, args ...any) ([]*models.MarketEntry, error) {
	rows, err := e.t.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	out := make([]*models.MarketEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.MarketEntry, error) {
	var (
		id      int64
		seller  string
		price   decimal.Decimal
		sold    bool
		updated int64
	)
	if err := s.Scan(&id, &seller, &price, &sold, &updated); err != nil {
		return nil, err
	}
	return &models.MarketEntry{
		ID:        models.TokenID(id),
		Seller:    models.Address(seller),
		Price:     price,
		Sold:      sold,
		UpdatedAt: fromMillis(updated),
	}, nil
}

type settings struct{ t *tx }

func (s settings) ListingFee(ctx context.Context) (decimal.Decimal, error) {
	var fee decimal.Decimal
	if err := s.t.queryRow(ctx, `SELECT listing_fee FROM marketplace_config WHERE id = 1`).Scan(&fee); err != nil {
		return decimal.Zero, fmt.Errorf("query listing fee: %w", err)
	}
	return fee, nil
}

func (s settings) SetListingFee(ctx context.Context, fee decimal.Decimal) error {
	if err := s.t.writable(); err != nil {
		return err
	}
	if _, err := s.t.exec(ctx, `UPDATE marketplace_config SET listing_fee = ? WHERE id = 1`, fee.String()); err != nil {
		return fmt.Errorf("update listing fee: %w", err)
	}
	return nil
}

func (s settings) Administrator(ctx context.Context) (models.Address, error) {
	return s.address(ctx, `SELECT administrator FROM marketplace_config WHERE id = 1`)
}

func (s settings) Custodian(ctx context.Context) (models.Address, error) {
	return s.address(ctx, `SELECT custodian FROM marketplace_config WHERE id = 1`)
}

func (s settings) address(ctx context.Context, query string) (models.Address, error) {
	var addr string
	if err := s.t.queryRow(ctx, query).Scan(&addr); err != nil {
		return "", fmt.Errorf("query marketplace config: %w", err)
	}
	return models.Address(addr), nil
}

type funds struct{ t *tx }

func (f funds) Transfer(ctx context.Context, to models.Address, amount decimal.Decimal) error {
	if err := f.t.writable(); err != nil {
		return err
	}
	balance, accepts, err := f.account(ctx, to)
	if err != nil {
		return err
	}
	if !accepts {
		return fmt.Errorf("%w: %s does not accept payments", domain.ErrFundTransferFailed, to)
	}
	return f.setBalance(ctx, to, balance.Add(amount))
}

func (f funds) Debit(ctx context.Context, from models.Address, amount decimal.Decimal) error {
	if err := f.t.writable(); err != nil {
		return err
	}
	balance, _, err := f.account(ctx, from)
	if err != nil {
		return err
	}
	if balance.LessThan(amount) {
		return fmt.Errorf("%w: balance %s, requested %s", domain.ErrInsufficientBalance, balance, amount)
	}
	return f.setBalance(ctx, from, balance.Sub(amount))
}

func (f funds) Credit(ctx context.Context, to models.Address, amount decimal.Decimal) error {
	if err := f.t.writable(); err != nil {
		return err
	}
	balance, _, err := f.account(ctx, to)
	if err != nil {
		return err
	}
	return f.setBalance(ctx, to, balance.Add(amount))
}

func (f funds) Balance(ctx context.Context, account models.Address) (decimal.Decimal, error) {
	balance, _, err := f.account(ctx, account)
	return balance, err
}

func (f funds) SetAcceptsPayments(ctx context.Context, account models.Address, accepts bool) error {
	if err := f.t.writable(); err != nil {
		return err
	}
	_, err := f.t.exec(ctx, `INSERT INTO account_balances (account, balance, accepts_payments) VALUES (?, ?, ?)
		ON CONFLICT (account) DO UPDATE SET accepts_payments = excluded.accepts_payments`,
		account.String(), decimal.Zero.String(), accepts)
	if err != nil {
		return fmt.Errorf("set accepts payments for %s: %w", account, err)
	}
	return nil
}

// account returns the balance and payment flag; unknown accounts hold zero and accept payments.
func (f funds) account(ctx context.Context, account models.Address) (decimal.Decimal, bool, error) {
	var (
		balance decimal.Decimal
		accepts bool
	)
	err := f.t.queryRow(ctx, `SELECT balance, accepts_payments FROM account_balances WHERE account = ?`, account.String()).
		Scan(&balance, &accepts)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, true, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("query balance of %s: %w", account, err)
	}
	return balance, accepts, nil
}

func (f funds) setBalance(ctx context.Context, account models.Address, balance decimal.Decimal) error {
	_, err := f.t.exec(ctx, `INSERT INTO account_balances (account, balance, accepts_payments) VALUES (?, ?, ?)
		ON CONFLICT (account) DO UPDATE SET balance = excluded.balance`,
		account.String(), balance.String(), true)
	if err != nil {
		return fmt.Errorf("update balance of %s: %w", account, err)
	}
	return nil
}

type withdrawals struct{ t *tx }

func (w withdrawals) Create(ctx context.Context, wd *models.Withdrawal) error {
	if err := w.t.writable(); err != nil {
		return err
	}
	res, err := w.t.exec(ctx, `INSERT INTO withdrawals (id, account, amount, status, reference, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		wd.ID, wd.Account.String(), wd.Amount.String(), string(wd.Status), wd.Reference,
		toMillis(wd.CreatedAt), toMillis(wd.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert withdrawal %s: %w", wd.ID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("insert withdrawal %s: %w", wd.ID, err)
	} else if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrWithdrawalExists, wd.ID)
	}
	return nil
}

func (w withdrawals) Get(ctx context.Context, id string) (*models.Withdrawal, error) {
	var (
		account, status, reference string
		amount                     decimal.Decimal
		created, updated           int64
	)
	err := w.t.queryRow(ctx, `SELECT account, amount, status, reference, created_at, updated_at FROM withdrawals WHERE id = ?`, id).
		Scan(&account, &amount, &status, &reference, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrWithdrawalNotFound, id)
		}
		return nil, fmt.Errorf("query withdrawal %s: %w", id, err)
	}
	return &models.Withdrawal{
		ID:        id,
		Account:   models.Address(account),
		Amount:    amount,
		Status:    models.WithdrawalStatus(status),
		Reference: reference,
		CreatedAt: fromMillis(created),
		UpdatedAt: fromMillis(updated),
	}, nil
}

func (w withdrawals) SetStatus(ctx context.Context, id string, status models.WithdrawalStatus, reference string, at time.Time) error {
	if err := w.t.writable(); err != nil {
		return err
	}
	res, err := w.t.exec(ctx, `UPDATE withdrawals SET status = ?, reference = ?, updated_at = ? WHERE id = ?`,
		string(status), reference, toMillis(at), id)
	if err != nil {
		return fmt.Errorf("update withdrawal %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("update withdrawal %s: %w", id, err)
	} else if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrWithdrawalNotFound, id)
	}
	return nil
}
