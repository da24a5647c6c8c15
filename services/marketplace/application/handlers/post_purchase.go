package handlers

import (
	"net/http"

	"github.com/ghuser/nftmarket/pkg/errhttp"
	"github.com/ghuser/nftmarket/pkg/httpx"
	pkgvalidator "github.com/ghuser/nftmarket/pkg/validator"
	appsvcs "github.com/ghuser/nftmarket/services/marketplace/application/services"
	"github.com/ghuser/nftmarket/services/marketplace/domain/models"
)

// PurchaseRequest is the request body for POST /market/tokens/{id}/purchase.
type PurchaseRequest struct {
	Payment string `json:"payment" validate:"required,amount" example:"0.1"`
} // @name PurchaseRequest

// PurchaseResponse describes a completed sale. Fee went to the administrator
// and Proceeds were credited to the seller.
type PurchaseResponse struct {
	TokenID  int64  `json:"token_id" example:"1"`
	Seller   string `json:"seller"   example:"0x70997970c51812dc3a010c7d01b50e0d17dc79c8"`
	Buyer    string `json:"buyer"    example:"0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc"`
	Price    string `json:"price"    example:"0.1"`
	Fee      string `json:"fee"      example:"0.00025"`
	Proceeds string `json:"proceeds" example:"0.09975"`
} // @name PurchaseResponse

// PostPurchaseHandler handles POST /market/tokens/{id}/purchase requests.
type PostPurchaseHandler struct {
	svc *appsvcs.Services
}

// NewPostPurchaseHandler returns a PostPurchaseHandler backed by the given services.
func NewPostPurchaseHandler(svc *appsvcs.Services) *PostPurchaseHandler {
	return &PostPurchaseHandler{svc: svc}
}

// Execute buys a listed token at its asking price.
//
//	@Summary		Buy token
//	@Description	Transfers a listed token to the caller. The attached payment must equal the asking price.
//	@Tags			tokens
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int				true	"Token id"
//	@Param			request	body		PurchaseRequest	true	"Purchase request"
//	@Success		200		{object}	PurchaseResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		424		{object}	ErrorResponse
//	@Router			/market/tokens/{id}/purchase [post]
func (h *PostPurchaseHandler) Execute(w http.ResponseWriter, r *http.Request) {
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

	req, ok := pkgvalidator.ValidateRequest[PurchaseRequest](w, r)
	if !ok {
		return
	}
	payment, err := models.ParseAmount(req.Payment)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	evt, err := h.svc.Market.Buy(r.Context(), models.Invocation{Caller: caller, Payment: payment}, id)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, PurchaseResponse{
		TokenID:  evt.TokenID,
		Seller:   evt.Seller,
		Buyer:    evt.Buyer,
		Price:    evt.Price.String(),
		Fee:      evt.Fee.String(),
		Proceeds: evt.Proceeds.String(),
	})
}
