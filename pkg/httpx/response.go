package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var errInvalidJSON = errors.New("invalid JSON")

// JSON writes v as JSON with the given status code. Encoding errors are
// dropped; the status line has already been sent.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError writes {"error": message}.
func JSONError(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// SafeError hides the message of 5xx errors in production.
func SafeError(err error, status int, isProduction bool) string {
	if isProduction && status >= http.StatusInternalServerError {
		return http.StatusText(status)
	}
	return err.Error()
}

// DecodeJSON decodes exactly one JSON document from the request body into v.
// On failure it returns the status to answer with: 413 when the body exceeds
// RequestBodyLimit, 400 otherwise.
func DecodeJSON(r *http.Request, v any) (int, error) {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		case errors.Is(err, io.EOF):
			return http.StatusBadRequest, errors.New("empty request body")
		default:
			return http.StatusBadRequest, errInvalidJSON
		}
	}
	if dec.More() {
		return http.StatusBadRequest, errInvalidJSON
	}
	return http.StatusOK, nil
}
