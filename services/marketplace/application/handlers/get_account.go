package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ghuser/nftmarket/pkg/errhttp"
	"github.com/ghuser/nftmarket/pkg/httpx"
	appsvcs "github.com/ghuser/nftmarket/services/marketplace/application/services"
	"github.com/ghuser/nftmarket/services/marketplace/domain/models"
)

// AccountResponse reports the tokens held and funds credited to an account.
type AccountResponse struct {
	Address  string  `json:"address"   example:"0x70997970c51812dc3a010c7d01b50e0d17dc79c8"`
	Tokens   int64   `json:"tokens"    example:"2"`
	TokenIDs []int64 `json:"token_ids" example:"1,3"`
	Balance  string  `json:"balance"   example:"0.09975"`
} // @name AccountResponse

// GetAccountHandler handles GET /market/accounts/{address} requests.
type GetAccountHandler struct {
	svc *appsvcs.Services
}

// NewGetAccountHandler returns a GetAccountHandler backed by the given services.
func NewGetAccountHandler(svc *appsvcs.Services) *GetAccountHandler {
	return &GetAccountHandler{svc: svc}
}

// Execute returns the registry balance and credited funds of an address.
//
//	@Summary	Get account
//	@Tags		accounts
//	@Produce	json
//	@Param		address	path		string	true	"0x-prefixed account address"
//	@Success	200		{object}	AccountResponse
//	@Failure	422		{object}	ErrorResponse
//	@Router		/market/accounts/{address} [get]
func (h *GetAccountHandler) Execute(w http.ResponseWriter, r *http.Request) {
	addr, err := models.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	acct, err := h.svc.Market.Account(r.Context(), addr)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	ids := make([]int64, len(acct.TokenIDs))
	for i, id := range acct.TokenIDs {
		ids[i] = int64(id)
	}
	httpx.JSON(w, http.StatusOK, AccountResponse{
		Address:  acct.Address.String(),
		Tokens:   acct.Tokens,
		TokenIDs: ids,
		Balance:  acct.Balance.String(),
	})
}
