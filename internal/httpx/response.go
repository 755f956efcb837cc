// Package httpx holds the JSON response helpers shared by the API handlers
// and the middlewares.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every JSON error: a single machine-readable
// error code.
type ErrorResponse struct {
	Error string `json:"error"`
}

// JSON writes payload as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	body, err := json.Marshal(payload)
	if err != nil {
		// best-effort error response; avoid writing partial JSON
		http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// nothing we can do at this point
		_ = err
	}
}

// JSONError writes an ErrorResponse with the given status and code.
func JSONError(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorResponse{Error: msg})
}
