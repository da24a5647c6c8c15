package handlers

import (
	"net/http"

	"github.com/ghuser/nftmarket/pkg/errhttp"
	"github.com/ghuser/nftmarket/pkg/httpx"
	appsvcs "github.com/ghuser/nftmarket/services/marketplace/application/services"
)

// GetListedItemsHandler handles GET /market/items/listed requests.
type GetListedItemsHandler struct {
	svc *appsvcs.Services
}

// NewGetListedItemsHandler returns a GetListedItemsHandler backed by the given services.
func NewGetListedItemsHandler(svc *appsvcs.Services) *GetListedItemsHandler {
	return &GetListedItemsHandler{svc: svc}
}

// Execute lists the caller's tokens that are still for sale.
//
//	@Summary	Listed by caller
//	@Tags		items
//	@Produce	json
//	@Success	200	{object}	MarketItemsResponse
//	@Failure	401	{object}	ErrorResponse
//	@Router		/market/items/listed [get]
func (h *GetListedItemsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	items, err := h.svc.Market.ItemsListed(r.Context(), caller)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toMarketItems(items))
}
