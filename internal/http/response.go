package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"kitabghar-backend-go/internal/services"
)

type ErrorResponse struct {
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Message: message})
}

// WriteServiceError maps a typed service error onto its status; anything
// else is an unexpected failure, logged server-side and answered with a
// generic 500 so storage details never leak to the caller.
func WriteServiceError(w http.ResponseWriter, err error) {
	var svcErr services.ServiceError
	if errors.As(err, &svcErr) {
		WriteError(w, svcErr.Status, svcErr.Message)
		return
	}
	log.Printf("unexpected error: %v", err)
	WriteError(w, http.StatusInternalServerError, "Internal server error")
}
