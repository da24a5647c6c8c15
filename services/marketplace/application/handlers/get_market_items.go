package handlers

import (
	"net/http"

	"github.com/ghuser/nftmarket/pkg/errhttp"
	"github.com/ghuser/nftmarket/pkg/httpx"
	appsvcs "github.com/ghuser/nftmarket/services/marketplace/application/services"
)

// GetMarketItemsHandler handles GET /market/items requests.
type GetMarketItemsHandler struct {
	svc *appsvcs.Services
}

// NewGetMarketItemsHandler returns a GetMarketItemsHandler backed by the given services.
func NewGetMarketItemsHandler(svc *appsvcs.Services) *GetMarketItemsHandler {
	return &GetMarketItemsHandler{svc: svc}
}

// Execute lists every token currently for sale.
//
//	@Summary	Active listings
//	@Tags		items
//	@Produce	json
//	@Success	200	{object}	MarketItemsResponse
//	@Failure	500	{object}	ErrorResponse
//	@Router		/market/items [get]
func (h *GetMarketItemsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Market.MarketItems(r.Context())
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toMarketItems(items))
}
