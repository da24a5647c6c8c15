package errhttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ghuser/nftmarket/pkg/auth"
	marketdomain "github.com/ghuser/nftmarket/services/marketplace/domain"
)

func TestWriteError_StatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"ErrCallerNotFound", auth.ErrCallerNotFound, http.StatusUnauthorized},
		{"ErrNotOwner", marketdomain.ErrNotOwner, http.StatusForbidden},
		{"ErrNotAdministrator", marketdomain.ErrNotAdministrator, http.StatusForbidden},
		{"ErrUnknownID", marketdomain.ErrUnknownID, http.StatusNotFound},
		{"ErrWithdrawalNotFound", marketdomain.ErrWithdrawalNotFound, http.StatusNotFound},
		{"ErrAlreadySold", marketdomain.ErrAlreadySold, http.StatusConflict},
		{"ErrNotSold", marketdomain.ErrNotSold, http.StatusConflict},
		{"ErrPriceTooLow", marketdomain.ErrPriceTooLow, http.StatusUnprocessableEntity},
		{"ErrListingFeeMismatch", marketdomain.ErrListingFeeMismatch, http.StatusUnprocessableEntity},
		{"ErrPaymentMismatch", marketdomain.ErrPaymentMismatch, http.StatusUnprocessableEntity},
		{"ErrPriceMismatch", marketdomain.ErrPriceMismatch, http.StatusUnprocessableEntity},
		{"ErrInvalidDescriptor", marketdomain.ErrInvalidDescriptor, http.StatusUnprocessableEntity},
		{"ErrInsufficientBalance", marketdomain.ErrInsufficientBalance, http.StatusUnprocessableEntity},
		{"ErrFundTransferFailed", marketdomain.ErrFundTransferFailed, http.StatusFailedDependency},
		{"ErrWithdrawalsDisabled", marketdomain.ErrWithdrawalsDisabled, http.StatusServiceUnavailable},
		{"wrapped ErrUnknownID", fmt.Errorf("buy: %w", marketdomain.ErrUnknownID), http.StatusNotFound},
		{"wrapped ErrPaymentMismatch", fmt.Errorf("%w: want 0.1, got 0.05", marketdomain.ErrPaymentMismatch), http.StatusUnprocessableEntity},
		{"unknown error", errors.New("something unexpected"), http.StatusInternalServerError},
		{"generic wrapped error", fmt.Errorf("context: %w", errors.New("db down")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestWriteError_JSONBody(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, fmt.Errorf("%w: token 3", marketdomain.ErrAlreadySold))

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response body is not valid JSON: %v", err)
	}
	if body["error"] != "item already sold: token 3" {
		t.Fatalf("unexpected error message %q", body["error"])
	}
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, errors.New("pq: password authentication failed"))

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response body is not valid JSON: %v", err)
	}
	if body["error"] != "Internal Server Error" {
		t.Fatalf("internal error leaked: %q", body["error"])
	}
}

func TestWriteError_ContentType(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, marketdomain.ErrUnknownID)

	ct := w.Header().Get("Content-Type")
	if ct == "" {
		t.Fatal("Content-Type header not set")
	}
}
