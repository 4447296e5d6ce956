package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"kitabghar-backend-go/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type UpsertProgressRequest struct {
	BookID     string `json:"bookId"`
	LastPage   int    `json:"lastPage"`
	TotalPages *int   `json:"totalPages"`
}

// GetReadingProgress answers null when the user has no progress row yet.
func (s *Server) GetReadingProgress(w http.ResponseWriter, r *http.Request) {
	progress, found, err := s.Store.GetReadingProgress(CurrentUserID(r), chi.URLParam(r, "bookId"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !found {
		WriteJSON(w, http.StatusOK, nil)
		return
	}
	WriteJSON(w, http.StatusOK, progress)
}

func (s *Server) UpsertReadingProgress(w http.ResponseWriter, r *http.Request) {
	var req UpsertProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	bookID := strings.TrimSpace(req.BookID)
	if bookID == "" {
		WriteError(w, http.StatusBadRequest, "bookId is required")
		return
	}
	if req.LastPage < 0 {
		WriteError(w, http.StatusBadRequest, "lastPage must not be negative")
		return
	}
	progress, err := s.Store.UpsertReadingProgress(models.ReadingProgress{
		ID:         uuid.NewString(),
		UserID:     CurrentUserID(r),
		BookID:     bookID,
		LastPage:   req.LastPage,
		TotalPages: req.TotalPages,
		UpdatedAt:  time.Now().UTC(),
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, progress)
}
