package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	pkgcache "github.com/ghuser/nftmarket/pkg/cache"
	"github.com/ghuser/nftmarket/pkg/logger"
	"github.com/ghuser/nftmarket/services/marketplace/domain"
	"github.com/ghuser/nftmarket/services/marketplace/domain/events"
	"github.com/ghuser/nftmarket/services/marketplace/domain/models"
	"github.com/ghuser/nftmarket/services/marketplace/domain/repositories"
	domainsvcs "github.com/ghuser/nftmarket/services/marketplace/domain/services"
)

const instrumentationName = "github.com/ghuser/nftmarket/services/marketplace"

// MarketCache is the read-model cache consulted by MarketService.
// *cache.MarketCache satisfies it.
//
// Fills are conditional: SetToken and SetListings take the Generation read
// before the store read and return cache.ErrStaleFill, writing nothing, if an
// Invalidate landed in between.
type MarketCache interface {
	GetToken(ctx context.Context, id int64) (*pkgcache.CachedToken, error)
	SetToken(ctx context.Context, gen uint64, tok *pkgcache.CachedToken) error
	GetListings(ctx context.Context) ([]pkgcache.CachedListing, error)
	SetListings(ctx context.Context, gen uint64, listings []pkgcache.CachedListing) error
	Generation(ctx context.Context) (uint64, error)
	Invalidate(ctx context.Context, tokenIDs ...int64) error
}

// MarketOptions carries the collection metadata and clock of a MarketService.
type MarketOptions struct {
	CollectionName   string
	CollectionSymbol string
	Now              func() time.Time // defaults to time.Now
}

// TokenView is a registry record joined with its sale state.
type TokenView struct {
	ID         models.TokenID
	Descriptor models.Descriptor
	Owner      models.Address
	Entry      models.MarketEntry
}

// AccountView is what the marketplace knows about one account.
type AccountView struct {
	Address  models.Address
	Tokens   int64            // registry balance
	TokenIDs []models.TokenID // owned ids, ascending
	Balance  decimal.Decimal  // credited, not yet withdrawn funds
}

// MarketSummary describes the collection as a whole.
type MarketSummary struct {
	Name           string
	Symbol         string
	ListingFee     decimal.Decimal
	TotalSupply    int64
	ActiveListings int64
}

// MarketService runs the ledger operations and projection queries against the
// store. Mutations are serialized by a writer mutex and each runs in one store
// transaction. Reads of token views and active listings go through the cache
// when one is configured; committed notifications invalidate it.
type MarketService struct {
	store  repositories.Store
	ledger *domainsvcs.Ledger
	cache  MarketCache
	log    logger.Logger
	opts   MarketOptions

	writer sync.Mutex

	tracer trace.Tracer
	ops    metric.Int64Counter
	volume metric.Float64Counter
}

// NewMarketService returns a MarketService. marketCache may be nil.
func NewMarketService(store repositories.Store, marketCache MarketCache, log logger.Logger, opts MarketOptions) (*MarketService, error) {
	meter := otel.Meter(instrumentationName)
	ops, err := meter.Int64Counter("market.operations",
		metric.WithDescription("Marketplace ledger operations by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create operations counter: %w", err)
	}
	volume, err := meter.Float64Counter("market.sale_volume",
		metric.WithDescription("Native-unit value of completed purchases"),
	)
	if err != nil {
		return nil, fmt.Errorf("create sale volume counter: %w", err)
	}

	return &MarketService{
		store:  store,
		ledger: domainsvcs.NewLedger(opts.Now),
		cache:  marketCache,
		log:    log,
		opts:   opts,
		tracer: otel.Tracer(instrumentationName),
		ops:    ops,
		volume: volume,
	}, nil
}

// CreateToken mints a token for descriptor and lists it at price.
func (s *MarketService) CreateToken(ctx context.Context, inv models.Invocation, descriptor string, price decimal.Decimal) (*events.MarketItemCreated, error) {
	d, err := models.NewDescriptor(descriptor)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidDescriptor, err)
	}
	if err := domainsvcs.ValidateDescriptor(d); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidDescriptor, err)
	}
	if err := checkPrice(price); err != nil {
		return nil, err
	}
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	var evt *events.MarketItemCreated
	err = s.mutate(ctx, "create_token", func(ctx context.Context, tx repositories.Tx) error {
		var err error
		evt, err = s.ledger.CreateToken(ctx, tx, inv, d, price)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "token listed",
		"token_id", evt.TokenID,
		"seller", evt.Seller,
		"price", evt.Price.String(),
	)
	return evt, nil
}

// Buy purchases the listed token id at its asking price.
func (s *MarketService) Buy(ctx context.Context, inv models.Invocation, id models.TokenID) (*events.ItemPurchased, error) {
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	var evt *events.ItemPurchased
	err := s.mutate(ctx, "buy", func(ctx context.Context, tx repositories.Tx) error {
		var err error
		evt, err = s.ledger.Buy(ctx, tx, inv, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.volume.Add(ctx, evt.Price.InexactFloat64())
	s.log.InfoContext(ctx, "token sold",
		"token_id", evt.TokenID,
		"seller", evt.Seller,
		"buyer", evt.Buyer,
		"price", evt.Price.String(),
		"fee", evt.Fee.String(),
	)
	return evt, nil
}

// ResellToken relists a token the caller bought at newPrice.
func (s *MarketService) ResellToken(ctx context.Context, inv models.Invocation, id models.TokenID, newPrice decimal.Decimal) (*events.ItemRelisted, error) {
	if err := checkPrice(newPrice); err != nil {
		return nil, err
	}
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	var evt *events.ItemRelisted
	err := s.mutate(ctx, "resell_token", func(ctx context.Context, tx repositories.Tx) error {
		var err error
		evt, err = s.ledger.ResellToken(ctx, tx, inv, id, newPrice)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "token relisted",
		"token_id", evt.TokenID,
		"seller", evt.Seller,
		"price", evt.Price.String(),
	)
	return evt, nil
}

// UpdateListingFee replaces the listing fee on behalf of the administrator.
func (s *MarketService) UpdateListingFee(ctx context.Context, inv models.Invocation, fee decimal.Decimal) (*events.ListingFeeUpdated, error) {
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	var evt *events.ListingFeeUpdated
	err := s.mutate(ctx, "update_listing_fee", func(ctx context.Context, tx repositories.Tx) error {
		var err error
		evt, err = s.ledger.UpdateListingFee(ctx, tx, inv, fee)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "listing fee updated",
		"previous_fee", evt.PreviousFee.String(),
		"listing_fee", evt.ListingFee.String(),
	)
	return evt, nil
}

// ListingFee returns the current listing fee.
func (s *MarketService) ListingFee(ctx context.Context) (decimal.Decimal, error) {
	var fee decimal.Decimal
	err := s.view(ctx, "get_listing_fee", func(ctx context.Context, tx repositories.Tx) error {
		var err error
		fee, err = tx.Settings().ListingFee(ctx)
		return err
	})
	return fee, err
}

// MarketItems returns every active listing in ascending id order.
func (s *MarketService) MarketItems(ctx context.Context) ([]*models.MarketEntry, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetListings(ctx); err == nil {
			if items, ok := listingsFromCache(cached); ok {
				return items, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.log.WarnContext(ctx, "listings cache read failed", "error", err)
		}
	}

	gen, fill := s.cacheGeneration(ctx)
	var items []*models.MarketEntry
	err := s.view(ctx, "fetch_market_items", func(ctx context.Context, tx repositories.Tx) error {
		var err error
		items, err = domainsvcs.FetchMarketItems(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	if fill {
		snapshot := listingsToCache(items)
		go s.fillCache("listings", func(ctx context.Context) error {
			return s.cache.SetListings(ctx, gen, snapshot)
		})
	}
	return items, nil
}

// MyNFTs returns the entries of tokens owned by caller.
func (s *MarketService) MyNFTs(ctx context.Context, caller models.Address) ([]*models.MarketEntry, error) {
	var items []*models.MarketEntry
	err := s.view(ctx, "fetch_my_nfts", func(ctx context.Context, tx repositories.Tx) error {
		var err error
		items, err = domainsvcs.FetchMyNFTs(ctx, tx, caller)
		return err
	})
	return items, err
}

// ItemsListed returns the active listings created by caller.
func (s *MarketService) ItemsListed(ctx context.Context, caller models.Address) ([]*models.MarketEntry, error) {
	var items []*models.MarketEntry
	err := s.view(ctx, "fetch_items_listed", func(ctx context.Context, tx repositories.Tx) error {
		var err error
		items, err = domainsvcs.FetchItemsListed(ctx, tx, caller)
		return err
	})
	return items, err
}

// Token retrieves a token view using a read-through cache pattern:
//  1. Check Redis cache first.
//  2. On cache miss (or cache error), read the store.
//  3. Asynchronously warm the cache with the store result, unless the cache
//     was invalidated since step 2 began.
func (s *MarketService) Token(ctx context.Context, id models.TokenID) (*TokenView, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetToken(ctx, int64(id)); err == nil {
			if view, ok := tokenFromCache(cached); ok {
				return view, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.log.WarnContext(ctx, "token cache read failed", "token_id", id, "error", err)
		}
	}

	gen, fill := s.cacheGeneration(ctx)
	var view *TokenView
	err := s.view(ctx, "token", func(ctx context.Context, tx repositories.Tx) error {
		tok, err := tx.Registry().Token(ctx, id)
		if err != nil {
			return err
		}
		entry, err := tx.Entries().Get(ctx, id)
		if err != nil {
			return err
		}
		view = &TokenView{ID: tok.ID, Descriptor: tok.Descriptor, Owner: tok.Owner, Entry: *entry}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if fill {
		cached := tokenToCache(view)
		go s.fillCache("token", func(ctx context.Context) error {
			return s.cache.SetToken(ctx, gen, cached)
		}, "token_id", cached.ID)
	}
	return view, nil
}

// Account returns the registry balance and credited funds of addr.
func (s *MarketService) Account(ctx context.Context, addr models.Address) (*AccountView, error) {
	view := &AccountView{Address: addr}
	err := s.view(ctx, "account", func(ctx context.Context, tx repositories.Tx) error {
		var err error
		if view.Tokens, err = tx.Registry().BalanceOf(ctx, addr); err != nil {
			return err
		}
		if view.TokenIDs, err = tx.Registry().TokensOf(ctx, addr); err != nil {
			return err
		}
		view.Balance, err = tx.Funds().Balance(ctx, addr)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Summary returns the collection metadata and counters.
func (s *MarketService) Summary(ctx context.Context) (*MarketSummary, error) {
	sum := &MarketSummary{Name: s.opts.CollectionName, Symbol: s.opts.CollectionSymbol}
	err := s.view(ctx, "summary", func(ctx context.Context, tx repositories.Tx) error {
		var err error
		if sum.ListingFee, err = tx.Settings().ListingFee(ctx); err != nil {
			return err
		}
		if sum.TotalSupply, err = tx.Registry().TotalSupply(ctx); err != nil {
			return err
		}
		sum.ActiveListings, err = tx.Entries().UnsoldCount(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sum, nil
}

// invalidateCache is registered as the store's commit hook.
func (s *MarketService) invalidateCache(ctx context.Context, ns []events.Notification) {
	if s.cache == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	ids := tokenIDs(ns)
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		s.log.WarnContext(ctx, "market cache invalidation failed", "token_ids", ids, "error", err)
	}
}

// Refresh drops cached views changed by another process and reloads the
// given tokens from the store. It is a no-op without a cache.
func (s *MarketService) Refresh(ctx context.Context, tokenIDs ...int64) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Invalidate(ctx, tokenIDs...); err != nil {
		return err
	}
	for _, id := range tokenIDs {
		if _, err := s.Token(ctx, models.TokenID(id)); err != nil && !errors.Is(err, domain.ErrUnknownID) {
			return fmt.Errorf("reload token %d: %w", id, err)
		}
	}
	return nil
}

// cacheGeneration reads the cache generation a later fill must match. It
// reports false, skipping the fill, without a cache or when Redis fails.
func (s *MarketService) cacheGeneration(ctx context.Context) (uint64, bool) {
	if s.cache == nil {
		return 0, false
	}
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "cache generation read failed", "error", err)
		return 0, false
	}
	return gen, true
}

func (s *MarketService) fillCache(view string, set func(ctx context.Context) error, args ...any) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	args = append(args, "view", view)
	switch err := set(ctx); {
	case errors.Is(err, pkgcache.ErrStaleFill):
		s.log.Debug("cache fill dropped after invalidation", args...)
	case err != nil:
		s.log.Warn("cache fill failed", append(args, "error", err)...)
	}
}

func (s *MarketService) mutate(ctx context.Context, op string, fn func(ctx context.Context, tx repositories.Tx) error) error {
	ctx, span := s.tracer.Start(ctx, "market."+op)
	defer span.End()

	s.writer.Lock()
	err := s.store.Update(ctx, fn)
	s.writer.Unlock()

	outcome := "ok"
	switch {
	case err == nil:
	case isRejection(err):
		outcome = "rejected"
		span.SetStatus(codes.Error, err.Error())
		s.log.DebugContext(ctx, "market operation rejected", "op", op, "error", err)
	default:
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.log.ErrorContext(ctx, "market operation failed", "op", op, "error", err)
	}
	s.ops.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	))
	return err
}

func (s *MarketService) view(ctx context.Context, op string, fn func(ctx context.Context, tx repositories.Tx) error) error {
	ctx, span := s.tracer.Start(ctx, "market."+op)
	defer span.End()

	err := s.store.View(ctx, fn)
	if err != nil && !isRejection(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

var rejections = []error{
	domain.ErrPriceTooLow,
	domain.ErrListingFeeMismatch,
	domain.ErrUnknownID,
	domain.ErrAlreadySold,
	domain.ErrNotSold,
	domain.ErrPaymentMismatch,
	domain.ErrPriceMismatch,
	domain.ErrNotOwner,
	domain.ErrNotAdministrator,
	domain.ErrFundTransferFailed,
	domain.ErrInvalidDescriptor,
	domain.ErrInvalidAmount,
	domain.ErrInvalidAddress,
	domain.ErrInsufficientBalance,
}

// isRejection reports whether err is a domain rule violation rather than an
// infrastructure failure.
func isRejection(err error) bool {
	for _, target := range rejections {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// checkPrice rejects prices finer than one wei or beyond MaxAmount. The sign
// is left to the ledger, which reports non-positive prices as ErrPriceTooLow.
func checkPrice(price decimal.Decimal) error {
	return models.ValidatePrice(price)
}

func tokenIDs(ns []events.Notification) []int64 {
	var ids []int64
	for _, n := range ns {
		switch e := n.(type) {
		case *events.MarketItemCreated:
			ids = append(ids, e.TokenID)
		case *events.ItemPurchased:
			ids = append(ids, e.TokenID)
		case *events.ItemRelisted:
			ids = append(ids, e.TokenID)
		}
	}
	return ids
}

func listingsToCache(items []*models.MarketEntry) []pkgcache.CachedListing {
	out := make([]pkgcache.CachedListing, 0, len(items))
	for _, e := range items {
		out = append(out, pkgcache.CachedListing{
			ID:        int64(e.ID),
			Seller:    e.Seller.String(),
			Price:     e.Price.String(),
			UpdatedAt: e.UpdatedAt,
		})
	}
	return out
}

func listingsFromCache(cached []pkgcache.CachedListing) ([]*models.MarketEntry, bool) {
	out := make([]*models.MarketEntry, 0, len(cached))
	for _, l := range cached {
		price, err := decimal.NewFromString(l.Price)
		if err != nil {
			return nil, false
		}
		out = append(out, &models.MarketEntry{
			ID:        models.TokenID(l.ID),
			Seller:    models.Address(l.Seller),
			Price:     price,
			UpdatedAt: l.UpdatedAt,
		})
	}
	return out, true
}

func tokenToCache(v *TokenView) *pkgcache.CachedToken {
	return &pkgcache.CachedToken{
		ID:         int64(v.ID),
		Descriptor: v.Descriptor.String(),
		Owner:      v.Owner.String(),
		Seller:     v.Entry.Seller.String(),
		Price:      v.Entry.Price.String(),
		Sold:       v.Entry.Sold,
		UpdatedAt:  v.Entry.UpdatedAt,
	}
}

func tokenFromCache(c *pkgcache.CachedToken) (*TokenView, bool) {
	price, err := decimal.NewFromString(c.Price)
	if err != nil {
		return nil, false
	}
	id := models.TokenID(c.ID)
	return &TokenView{
		ID:         id,
		Descriptor: models.Descriptor(c.Descriptor),
		Owner:      models.Address(c.Owner),
		Entry: models.MarketEntry{
			ID:        id,
			Seller:    models.Address(c.Seller),
			Price:     price,
			Sold:      c.Sold,
			UpdatedAt: c.UpdatedAt,
		},
	}, true
}
