package handlers

import (
	"net/http"

	"github.com/ghuser/nftmarket/pkg/errhttp"
	"github.com/ghuser/nftmarket/pkg/httpx"
	pkgvalidator "github.com/ghuser/nftmarket/pkg/validator"
	appsvcs "github.com/ghuser/nftmarket/services/marketplace/application/services"
	"github.com/ghuser/nftmarket/services/marketplace/domain/models"
)

// ResaleRequest is the request body for POST /market/tokens/{id}/resale.
// Payment must equal Price.
type ResaleRequest struct {
	Price   string `json:"price"   validate:"required,price"  example:"0.15"`
	Payment string `json:"payment" validate:"required,amount" example:"0.15"`
} // @name ResaleRequest

// ResaleResponse describes the new listing.
type ResaleResponse struct {
	TokenID int64  `json:"token_id" example:"1"`
	Seller  string `json:"seller"   example:"0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc"`
	Price   string `json:"price"    example:"0.15"`
} // @name ResaleResponse

// PostResaleHandler handles POST /market/tokens/{id}/resale requests.
type PostResaleHandler struct {
	svc *appsvcs.Services
}

// NewPostResaleHandler returns a PostResaleHandler backed by the given services.
func NewPostResaleHandler(svc *appsvcs.Services) *PostResaleHandler {
	return &PostResaleHandler{svc: svc}
}

// Execute hands an owned token back to the marketplace and relists it.
//
//	@Summary		Resell token
//	@Description	Relists a token the caller bought. The attached payment must equal the new price.
//	@Tags			tokens
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int				true	"Token id"
//	@Param			request	body		ResaleRequest	true	"Resale request"
//	@Success		200		{object}	ResaleResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/market/tokens/{id}/resale [post]
func (h *PostResaleHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	id, err := tokenIDParam(r)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	req, ok := pkgvalidator.ValidateRequest[ResaleRequest](w, r)
	if !ok {
		return
	}
	price, err := models.ParsePrice(req.Price)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	payment, err := models.ParseAmount(req.Payment)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	evt, err := h.svc.Market.ResellToken(r.Context(), models.Invocation{Caller: caller, Payment: payment}, id, price)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, ResaleResponse{
		TokenID: evt.TokenID,
		Seller:  evt.Seller,
		Price:   evt.Price.String(),
	})
}
