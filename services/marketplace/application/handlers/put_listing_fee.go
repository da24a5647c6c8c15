package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/ghuser/nftmarket/pkg/errhttp"
	"github.com/ghuser/nftmarket/pkg/httpx"
	pkgvalidator "github.com/ghuser/nftmarket/pkg/validator"
	appsvcs "github.com/ghuser/nftmarket/services/marketplace/application/services"
	"github.com/ghuser/nftmarket/services/marketplace/domain/models"
)

// UpdateListingFeeRequest is the request body for PUT /market/listing-fee.
type UpdateListingFeeRequest struct {
	ListingFee string `json:"listing_fee" validate:"required,amount" example:"0.0005"`
} // @name UpdateListingFeeRequest

// UpdateListingFeeResponse is returned after the fee changed.
type UpdateListingFeeResponse struct {
	PreviousFee string `json:"previous_fee" example:"0.00025"`
	ListingFee  string `json:"listing_fee"  example:"0.0005"`
} // @name UpdateListingFeeResponse

// PutListingFeeHandler handles PUT /market/listing-fee requests.
type PutListingFeeHandler struct {
	svc *appsvcs.Services
}

// NewPutListingFeeHandler returns a PutListingFeeHandler backed by the given services.
func NewPutListingFeeHandler(svc *appsvcs.Services) *PutListingFeeHandler {
	return &PutListingFeeHandler{svc: svc}
}

// Execute replaces the listing fee. Only the marketplace administrator may call it.
//
//	@Summary		Update listing fee
//	@Description	Replaces the fee charged for every new listing. Administrator only.
//	@Tags			market
//	@Accept			json
//	@Produce		json
//	@Param			request	body		UpdateListingFeeRequest	true	"New listing fee"
//	@Success		200		{object}	UpdateListingFeeResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/market/listing-fee [put]
func (h *PutListingFeeHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	req, ok := pkgvalidator.ValidateRequest[UpdateListingFeeRequest](w, r)
	if !ok {
		return
	}
	fee, err := models.ParseAmount(req.ListingFee)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	evt, err := h.svc.Market.UpdateListingFee(r.Context(), models.Invocation{Caller: caller, Payment: decimal.Zero}, fee)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, UpdateListingFeeResponse{
		PreviousFee: evt.PreviousFee.String(),
		ListingFee:  evt.ListingFee.String(),
	})
}
