package handlers

import (
	"net/http"

	"github.com/ghuser/nftmarket/pkg/errhttp"
	"github.com/ghuser/nftmarket/pkg/httpx"
	appsvcs "github.com/ghuser/nftmarket/services/marketplace/application/services"
)

// GetMyItemsHandler handles GET /market/items/mine requests.
type GetMyItemsHandler struct {
	svc *appsvcs.Services
}

// NewGetMyItemsHandler returns a GetMyItemsHandler backed by the given services.
func NewGetMyItemsHandler(svc *appsvcs.Services) *GetMyItemsHandler {
	return &GetMyItemsHandler{svc: svc}
}

// Execute lists the tokens the caller owns.
//
//	@Summary	Owned tokens
//	@Tags		items
//	@Produce	json
//	@Success	200	{object}	MarketItemsResponse
//	@Failure	401	{object}	ErrorResponse
//	@Router		/market/items/mine [get]
func (h *GetMyItemsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	items, err := h.svc.Market.MyNFTs(r.Context(), caller)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toMarketItems(items))
}
