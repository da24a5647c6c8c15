package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ghuser/nftmarket/pkg/errhttp"
	"github.com/ghuser/nftmarket/pkg/httpx"
	appsvcs "github.com/ghuser/nftmarket/services/marketplace/application/services"
	"github.com/ghuser/nftmarket/services/marketplace/domain"
)

// GetWithdrawalHandler handles GET /market/withdrawals/{id} requests.
type GetWithdrawalHandler struct {
	svc *appsvcs.Services
}

// NewGetWithdrawalHandler returns a GetWithdrawalHandler backed by the given services.
func NewGetWithdrawalHandler(svc *appsvcs.Services) *GetWithdrawalHandler {
	return &GetWithdrawalHandler{svc: svc}
}

// Execute returns one of the caller's withdrawals.
//
//	@Summary	Get withdrawal
//	@Tags		accounts
//	@Produce	json
//	@Param		id	path		string	true	"Withdrawal id"
//	@Success	200	{object}	WithdrawalResponse
//	@Failure	401	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/market/withdrawals/{id} [get]
func (h *GetWithdrawalHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	wd, err := h.svc.Withdrawals.Get(r.Context(), id)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	// Other accounts' withdrawals are reported as missing.
	if wd.Account != caller {
		errhttp.WriteError(w, fmt.Errorf("%w: %s", domain.ErrWithdrawalNotFound, id))
		return
	}

	httpx.JSON(w, http.StatusOK, toWithdrawalResponse(wd))
}
