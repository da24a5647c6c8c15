package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ghuser/nftmarket/pkg/auth"
	"github.com/ghuser/nftmarket/services/marketplace/domain"
	"github.com/ghuser/nftmarket/services/marketplace/domain/models"
)

// ErrorResponse is returned on all error responses.
type ErrorResponse struct {
	Error string `json:"error" example:"item already sold: token 1"`
} // @name ErrorResponse

// MarketItemResponse is one market entry.
type MarketItemResponse struct {
	TokenID   int64     `json:"token_id"   example:"1"`
	Seller    string    `json:"seller"     example:"0x70997970c51812dc3a010c7d01b50e0d17dc79c8"`
	Price     string    `json:"price"      example:"0.1"`
	Sold      bool      `json:"sold"       example:"false"`
	UpdatedAt time.Time `json:"updated_at" example:"2025-01-15T10:30:00Z"`
} // @name MarketItemResponse

// MarketItemsResponse wraps a projection query result.
type MarketItemsResponse struct {
	Items []MarketItemResponse `json:"items"`
	Count int                  `json:"count" example:"1"`
} // @name MarketItemsResponse

func toMarketItems(entries []*models.MarketEntry) MarketItemsResponse {
	items := make([]MarketItemResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, MarketItemResponse{
			TokenID:   int64(e.ID),
			Seller:    e.Seller.String(),
			Price:     e.Price.String(),
			Sold:      e.Sold,
			UpdatedAt: e.UpdatedAt,
		})
	}
	return MarketItemsResponse{Items: items, Count: len(items)}
}

// callerFrom returns the authenticated caller placed in the context by auth.RequireCaller.
func callerFrom(r *http.Request) (models.Address, error) {
	raw, err := auth.CallerFromCtx(r.Context())
	if err != nil {
		return "", err
	}
	return models.ParseAddress(raw)
}

// tokenIDParam parses the {id} path parameter. Ids that cannot exist are
// reported as unknown.
func tokenIDParam(r *http.Request) (models.TokenID, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownID, raw)
	}
	return models.TokenID(id), nil
}
