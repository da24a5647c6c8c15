package handlers

import (
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/ghuser/nftmarket/pkg/auth"
	"github.com/ghuser/nftmarket/pkg/errhttp"
	"github.com/ghuser/nftmarket/pkg/httpx"
)

// SessionResponse names the account bound to the session cookie.
type SessionResponse struct {
	Caller string `json:"caller" example:"0x70997970c51812dc3a010c7d01b50e0d17dc79c8"`
} // @name SessionResponse

// SessionHandler handles POST and DELETE /market/session. Signing in binds the
// caller resolved by auth.RequireCaller, normally the gateway header, to a
// session cookie so later requests need only the cookie.
type SessionHandler struct {
	store sessions.Store
}

// NewSessionHandler returns a SessionHandler writing to store.
func NewSessionHandler(store sessions.Store) *SessionHandler {
	return &SessionHandler{store: store}
}

// SignIn starts a session for the caller.
//
//	@Summary	Sign in
//	@Tags		session
//	@Produce	json
//	@Success	200	{object}	SessionResponse
//	@Failure	401	{object}	ErrorResponse
//	@Router		/market/session [post]
func (h *SessionHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	if err := auth.SaveCaller(h.store, w, r, caller.String()); err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, SessionResponse{Caller: caller.String()})
}

// SignOut ends the session and expires its cookie.
//
//	@Summary	Sign out
//	@Tags		session
//	@Success	204
//	@Router		/market/session [delete]
func (h *SessionHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := auth.ClearCaller(h.store, w, r); err != nil {
		errhttp.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
