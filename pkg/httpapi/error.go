package httpapi

import (
	"encoding/json"
	"net/http"
)

// Error codes the SLA API surface reports. The board is read-only, so the
// taxonomy is small: either the upstream sources are gone or the request
// itself is bad.
const (
	CodeSourcesUnavailable = "SLA_SOURCES_UNAVAILABLE"
	CodeBadRequest         = "BAD_REQUEST"
)

// ErrorEnvelope standardizes JSON error responses for API namespaces.
type ErrorEnvelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}
