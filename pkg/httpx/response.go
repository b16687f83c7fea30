package httpx

import (
	"encoding/json"
	"net/http"
)

// Error codes shared by every endpoint.
const (
	CodeUnauthorized            = "unauthorized"
	CodeInsufficientPermissions = "insufficient_permissions"
	CodeInvalidRequest          = "invalid_request"
	CodeNotFound                = "not_found"
	CodeRateLimited             = "rate_limit_exceeded"
	CodeServerError             = "server_error"
)

// Envelope is the body of every JSON response:
// {"ok":true,"data":...} or {"ok":false,"error":{"code":...,"message":...}}.
type Envelope struct {
	OK    bool       `json:"ok"`
	Data  any        `json:"data,omitempty"`
	Error *ErrorBody `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes v as JSON with no-store caching headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData writes a success envelope around data.
func WriteData(w http.ResponseWriter, code int, data any) {
	WriteJSON(w, code, Envelope{OK: true, Data: data})
}

// WriteError writes a failure envelope.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, Envelope{OK: false, Error: &ErrorBody{Code: code, Message: message}})
}

// WriteUnauthorized is the single response for every authentication failure.
// It never says which check failed.
func WriteUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="memoauth", error="invalid_token"`)
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, "Unauthorized")
}

// NoCache marks the response as not cacheable. Token responses must use it.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
