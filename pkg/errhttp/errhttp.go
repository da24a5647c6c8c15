// Package errhttp maps domain sentinel errors to HTTP status codes.
// Add a case to mapErrorToStatus for each new domain sentinel error.
package errhttp

import (
	"errors"
	"net/http"

	"github.com/ghuser/nftmarket/pkg/auth"
	"github.com/ghuser/nftmarket/pkg/httpx"
	marketdomain "github.com/ghuser/nftmarket/services/marketplace/domain"
)

// WriteError maps err to an HTTP status code and writes a JSON error response.
// Uses errors.Is() so wrapped sentinel errors are matched correctly.
// Defaults to 500 Internal Server Error for unrecognized errors, whose
// details are not echoed to the client.
func WriteError(w http.ResponseWriter, err error) {
	status := mapErrorToStatus(err)
	httpx.JSONError(w, status, httpx.SafeError(err, status, true))
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrCallerNotFound):
		return http.StatusUnauthorized // 401
	case errors.Is(err, marketdomain.ErrNotOwner),
		errors.Is(err, marketdomain.ErrNotAdministrator):
		return http.StatusForbidden // 403
	case errors.Is(err, marketdomain.ErrUnknownID),
		errors.Is(err, marketdomain.ErrWithdrawalNotFound):
		return http.StatusNotFound // 404
	case errors.Is(err, marketdomain.ErrAlreadySold),
		errors.Is(err, marketdomain.ErrNotSold),
		errors.Is(err, marketdomain.ErrWithdrawalExists),
		errors.Is(err, marketdomain.ErrWithdrawalSettled),
		errors.Is(err, marketdomain.ErrWithdrawalCancelled):
		return http.StatusConflict // 409
	case errors.Is(err, marketdomain.ErrPriceTooLow),
		errors.Is(err, marketdomain.ErrListingFeeMismatch),
		errors.Is(err, marketdomain.ErrPaymentMismatch),
		errors.Is(err, marketdomain.ErrPriceMismatch),
		errors.Is(err, marketdomain.ErrInvalidDescriptor),
		errors.Is(err, marketdomain.ErrInvalidAmount),
		errors.Is(err, marketdomain.ErrInvalidAddress),
		errors.Is(err, marketdomain.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity // 422
	case errors.Is(err, marketdomain.ErrFundTransferFailed):
		return http.StatusFailedDependency // 424
	case errors.Is(err, marketdomain.ErrWithdrawalsDisabled):
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}
