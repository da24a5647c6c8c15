package handlers

import (
	"net/http"

	"github.com/ghuser/nftmarket/pkg/errhttp"
	"github.com/ghuser/nftmarket/pkg/httpx"
	appsvcs "github.com/ghuser/nftmarket/services/marketplace/application/services"
)

// SummaryResponse describes the collection.
type SummaryResponse struct {
	Name           string `json:"name"            example:"DOT's NFT"`
	Symbol         string `json:"symbol"          example:"DOTNFT"`
	ListingFee     string `json:"listing_fee"     example:"0.00025"`
	TotalSupply    int64  `json:"total_supply"    example:"12"`
	ActiveListings int64  `json:"active_listings" example:"4"`
} // @name SummaryResponse

// GetSummaryHandler handles GET /market requests.
type GetSummaryHandler struct {
	svc *appsvcs.Services
}

// NewGetSummaryHandler returns a GetSummaryHandler backed by the given services.
func NewGetSummaryHandler(svc *appsvcs.Services) *GetSummaryHandler {
	return &GetSummaryHandler{svc: svc}
}

// Execute returns the collection summary.
//
//	@Summary		Collection summary
//	@Description	Returns the collection name and symbol, the listing fee, the number of minted tokens and the number of active listings
//	@Tags			market
//	@Produce		json
//	@Success		200	{object}	SummaryResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/market [get]
func (h *GetSummaryHandler) Execute(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Market.Summary(r.Context())
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, SummaryResponse{
		Name:           sum.Name,
		Symbol:         sum.Symbol,
		ListingFee:     sum.ListingFee.String(),
		TotalSupply:    sum.TotalSupply,
		ActiveListings: sum.ActiveListings,
	})
}
