package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"kitabghar-backend-go/internal/models"
	"kitabghar-backend-go/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CategoryRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func (s *Server) AdminCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		WriteError(w, http.StatusBadRequest, "Category name is required")
		return
	}
	category := models.Category{
		ID:          uuid.NewString(),
		Name:        name,
		Description: req.Description,
	}
	if err := s.Store.CreateCategory(category); err != nil {
		if errors.Is(err, store.ErrCategoryNameTaken) {
			WriteError(w, http.StatusConflict, "Category name already in use")
			return
		}
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, category)
}

func (s *Server) AdminUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		WriteError(w, http.StatusBadRequest, "Category name is required")
		return
	}
	category := models.Category{
		ID:          chi.URLParam(r, "id"),
		Name:        name,
		Description: req.Description,
	}
	found, err := s.Store.UpdateCategory(category)
	if err != nil {
		if errors.Is(err, store.ErrCategoryNameTaken) {
			WriteError(w, http.StatusConflict, "Category name already in use")
			return
		}
		WriteServiceError(w, err)
		return
	}
	if !found {
		WriteError(w, http.StatusNotFound, "Category not found")
		return
	}
	WriteJSON(w, http.StatusOK, category)
}

// AdminDeleteCategory refuses to delete while books still reference the
// category, so the catalog never holds dangling lookups it expects to
// resolve.
func (s *Server) AdminDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.DeleteCategory(chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, store.ErrCategoryInUse) {
			WriteError(w, http.StatusConflict, "Category is still assigned to books")
			return
		}
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "Category deleted"})
}
