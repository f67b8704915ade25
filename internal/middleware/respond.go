package middleware

import (
	"encoding/json"
	"net/http"
)

// errorEnvelope mirrors the response shape written by the API handlers.
type errorEnvelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{StatusCode: status, Message: message})
}
