package handlers

import (
	"net/http"

	"github.com/ghuser/nftmarket/pkg/errhttp"
	"github.com/ghuser/nftmarket/pkg/httpx"
	appsvcs "github.com/ghuser/nftmarket/services/marketplace/application/services"
)

// ListingFeeResponse carries the current listing fee.
type ListingFeeResponse struct {
	ListingFee string `json:"listing_fee" example:"0.00025"`
} // @name ListingFeeResponse

// GetListingFeeHandler handles GET /market/listing-fee requests.
type GetListingFeeHandler struct {
	svc *appsvcs.Services
}

// NewGetListingFeeHandler returns a GetListingFeeHandler backed by the given services.
func NewGetListingFeeHandler(svc *appsvcs.Services) *GetListingFeeHandler {
	return &GetListingFeeHandler{svc: svc}
}

// Execute returns the listing fee.
//
//	@Summary	Get listing fee
//	@Tags		market
//	@Produce	json
//	@Success	200	{object}	ListingFeeResponse
//	@Failure	500	{object}	ErrorResponse
//	@Router		/market/listing-fee [get]
func (h *GetListingFeeHandler) Execute(w http.ResponseWriter, r *http.Request) {
	fee, err := h.svc.Market.ListingFee(r.Context())
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ListingFeeResponse{ListingFee: fee.String()})
}
