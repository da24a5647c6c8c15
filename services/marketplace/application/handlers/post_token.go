package handlers

import (
	"net/http"

	"github.com/ghuser/nftmarket/pkg/errhttp"
	"github.com/ghuser/nftmarket/pkg/httpx"
	pkgvalidator "github.com/ghuser/nftmarket/pkg/validator"
	appsvcs "github.com/ghuser/nftmarket/services/marketplace/application/services"
	"github.com/ghuser/nftmarket/services/marketplace/domain/models"
)

// CreateTokenRequest is the request body for POST /market/tokens.
// Payment is the amount attached to the call and must equal the listing fee.
type CreateTokenRequest struct {
	Descriptor string `json:"descriptor" validate:"required,max=2048" example:"https://picsum.photos/200/300"`
	Price      string `json:"price"      validate:"required,price"    example:"0.1"`
	Payment    string `json:"payment"    validate:"required,amount"   example:"0.00025"`
} // @name CreateTokenRequest

// CreateTokenResponse is returned on successful listing.
type CreateTokenResponse struct {
	TokenID    int64  `json:"token_id"   example:"1"`
	Seller     string `json:"seller"     example:"0x70997970c51812dc3a010c7d01b50e0d17dc79c8"`
	Price      string `json:"price"      example:"0.1"`
	Descriptor string `json:"descriptor" example:"https://picsum.photos/200/300"`
} // @name CreateTokenResponse

// PostTokenHandler handles POST /market/tokens requests.
type PostTokenHandler struct {
	svc *appsvcs.Services
}

// NewPostTokenHandler returns a PostTokenHandler backed by the given services.
func NewPostTokenHandler(svc *appsvcs.Services) *PostTokenHandler {
	return &PostTokenHandler{svc: svc}
}

// Execute mints a token into marketplace custody and lists it for sale.
//
//	@Summary		Create and list token
//	@Description	Mints a token for the descriptor and lists it at price. The attached payment must equal the listing fee.
//	@Tags			tokens
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateTokenRequest	true	"Token listing request"
//	@Success		201		{object}	CreateTokenResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		424		{object}	ErrorResponse
//	@Router			/market/tokens [post]
func (h *PostTokenHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	req, ok := pkgvalidator.ValidateRequest[CreateTokenRequest](w, r)
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

	evt, err := h.svc.Market.CreateToken(r.Context(), models.Invocation{Caller: caller, Payment: payment}, req.Descriptor, price)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, CreateTokenResponse{
		TokenID:    evt.TokenID,
		Seller:     evt.Seller,
		Price:      evt.Price.String(),
		Descriptor: evt.Descriptor,
	})
}
