package payout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func TestClient_Send(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantRef      string
		wantErr      bool
		wantRejected bool
	}{
		{name: "accepted", status: http.StatusOK, body: `{"reference":"po_123"}`, wantRef: "po_123"},
		{name: "rejected", status: http.StatusUnprocessableEntity, body: `{"error":"account closed"}`, wantErr: true, wantRejected: true},
		{name: "rejected without body", status: http.StatusBadRequest, wantErr: true, wantRejected: true},
		{name: "gateway down", status: http.StatusBadGateway, body: `oops`, wantErr: true},
		{name: "missing reference", status: http.StatusOK, body: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Request
			var idemKey string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/payouts" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				idemKey = r.Header.Get("Idempotency-Key")
				_ = json.NewDecoder(r.Body).Decode(&got)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL + "/")
			ref, err := c.Send(context.Background(), Request{
				ID:      "withdrawal-01J",
				Account: "0x70997970c51812dc3a010c7d01b50e0d17dc79c8",
				Amount:  decimal.RequireFromString("0.05"),
			})

			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if errors.Is(err, ErrRejected) != tt.wantRejected {
				t.Fatalf("errors.Is(err, ErrRejected) = %v, want %v (err %v)", !tt.wantRejected, tt.wantRejected, err)
			}
			if ref != tt.wantRef {
				t.Fatalf("reference = %q, want %q", ref, tt.wantRef)
			}
			if idemKey != "withdrawal-01J" {
				t.Fatalf("Idempotency-Key = %q", idemKey)
			}
			if !got.Amount.Equal(decimal.RequireFromString("0.05")) || got.Account == "" {
				t.Fatalf("gateway received %+v", got)
			}
		})
	}
}

func TestClient_Send_Unreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	_, err := c.Send(context.Background(), Request{ID: "w", Amount: decimal.NewFromInt(1)})
	if err == nil || errors.Is(err, ErrRejected) {
		t.Fatalf("expected retryable transport error, got %v", err)
	}
}
