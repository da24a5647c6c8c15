package handlers

import (
	"net/http"
	"time"

	"github.com/ghuser/nftmarket/pkg/errhttp"
	"github.com/ghuser/nftmarket/pkg/httpx"
	pkgvalidator "github.com/ghuser/nftmarket/pkg/validator"
	appsvcs "github.com/ghuser/nftmarket/services/marketplace/application/services"
	"github.com/ghuser/nftmarket/services/marketplace/domain/models"
)

// WithdrawalRequest is the request body for POST /market/withdrawals.
type WithdrawalRequest struct {
	Amount string `json:"amount" validate:"required,amount" example:"0.05"`
} // @name WithdrawalRequest

// WithdrawalResponse describes a withdrawal and its payout state.
type WithdrawalResponse struct {
	ID        string    `json:"id"                  example:"withdrawal-01JHZ3Q4W5X6Y7Z8A9B0C1D2E3"`
	Account   string    `json:"account"             example:"0x70997970c51812dc3a010c7d01b50e0d17dc79c8"`
	Amount    string    `json:"amount"              example:"0.05"`
	Status    string    `json:"status"              example:"pending"`
	Reference string    `json:"reference,omitempty" example:"po_123"`
	CreatedAt time.Time `json:"created_at"          example:"2025-01-15T10:30:00Z"`
	UpdatedAt time.Time `json:"updated_at"          example:"2025-01-15T10:30:00Z"`
} // @name WithdrawalResponse

func toWithdrawalResponse(w *models.Withdrawal) WithdrawalResponse {
	return WithdrawalResponse{
		ID:        w.ID,
		Account:   w.Account.String(),
		Amount:    w.Amount.String(),
		Status:    string(w.Status),
		Reference: w.Reference,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

// PostWithdrawalHandler handles POST /market/withdrawals requests.
type PostWithdrawalHandler struct {
	svc *appsvcs.Services
}

// NewPostWithdrawalHandler returns a PostWithdrawalHandler backed by the given services.
func NewPostWithdrawalHandler(svc *appsvcs.Services) *PostWithdrawalHandler {
	return &PostWithdrawalHandler{svc: svc}
}

// Execute reserves part of the caller's credited balance and starts its payout.
//
//	@Summary		Withdraw credited funds
//	@Description	Debits the caller's balance and starts the payout. Poll the returned withdrawal for the outcome.
//	@Tags			accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		WithdrawalRequest	true	"Withdrawal request"
//	@Success		202		{object}	WithdrawalResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/market/withdrawals [post]
func (h *PostWithdrawalHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	req, ok := pkgvalidator.ValidateRequest[WithdrawalRequest](w, r)
	if !ok {
		return
	}
	amount, err := models.ParseAmount(req.Amount)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	wd, err := h.svc.Withdrawals.Start(r.Context(), caller, amount)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusAccepted, toWithdrawalResponse(wd))
}
