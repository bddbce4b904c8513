// Package httputil holds the small request/response helpers shared by the
// HTTP handlers.
package httputil

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteInternalError writes the single internal-server-class failure shape
// used for all pipeline errors. Only the internal reason code is exposed,
// never the underlying error text.
func WriteInternalError(w http.ResponseWriter, reasonCode string) {
	WriteJSON(w, http.StatusInternalServerError, map[string]string{
		"error":       "server_error",
		"reason_code": reasonCode,
	})
}

// Decode parses a JSON request body into T.
func Decode[T any](r *http.Request) (T, error) {
	var v T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(&v)
	return v, err
}
