package handlers

import (
	"net/http"
	"time"

	"github.com/ghuser/nftmarket/pkg/errhttp"
	"github.com/ghuser/nftmarket/pkg/httpx"
	appsvcs "github.com/ghuser/nftmarket/services/marketplace/application/services"
)

// TokenResponse is a token with its sale state.
type TokenResponse struct {
	TokenID    int64     `json:"token_id"   example:"1"`
	Descriptor string    `json:"descriptor" example:"https://picsum.photos/200/300"`
	Owner      string    `json:"owner"      example:"0x5fbdb2315678afecb367f032d93f642f64180aa3"`
	Seller     string    `json:"seller"     example:"0x70997970c51812dc3a010c7d01b50e0d17dc79c8"`
	Price      string    `json:"price"      example:"0.1"`
	Sold       bool      `json:"sold"       example:"false"`
	UpdatedAt  time.Time `json:"updated_at" example:"2025-01-15T10:30:00Z"`
} // @name TokenResponse

// GetTokenHandler handles GET /market/tokens/{id} requests.
type GetTokenHandler struct {
	svc *appsvcs.Services
}

// NewGetTokenHandler returns a GetTokenHandler backed by the given services.
func NewGetTokenHandler(svc *appsvcs.Services) *GetTokenHandler {
	return &GetTokenHandler{svc: svc}
}

// Execute returns one token.
//
//	@Summary	Get token
//	@Tags		tokens
//	@Produce	json
//	@Param		id	path		int	true	"Token id"
//	@Success	200	{object}	TokenResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/market/tokens/{id} [get]
func (h *GetTokenHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, err := tokenIDParam(r)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	view, err := h.svc.Market.Token(r.Context(), id)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, TokenResponse{
		TokenID:    int64(view.ID),
		Descriptor: view.Descriptor.String(),
		Owner:      view.Owner.String(),
		Seller:     view.Entry.Seller.String(),
		Price:      view.Entry.Price.String(),
		Sold:       view.Entry.Sold,
		UpdatedAt:  view.Entry.UpdatedAt,
	})
}
