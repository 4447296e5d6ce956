package httpapi

import (
	"encoding/json"
	"net/http"

	"kitabghar-backend-go/internal/models"

	"github.com/go-chi/chi/v5"
)

type UpdateRoleRequest struct {
	Role string `json:"role"`
}

type UpdateBlockRequest struct {
	IsBlocked bool `json:"isBlocked"`
}

func (s *Server) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.Store.ListUsers()
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, users)
}

func (s *Server) AdminUpdateUserRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if req.Role != models.RoleUser && req.Role != models.RoleAdmin {
		WriteError(w, http.StatusBadRequest, "Invalid role")
		return
	}
	// Admins cannot change their own role.
	if userID == CurrentUserID(r) {
		WriteError(w, http.StatusForbidden, "Cannot change your own role")
		return
	}
	user, found, err := s.Store.UpdateUserRole(userID, req.Role)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !found {
		WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

func (s *Server) AdminUpdateUserBlock(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	var req UpdateBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	// Admins cannot block themselves.
	if userID == CurrentUserID(r) {
		WriteError(w, http.StatusForbidden, "Cannot block your own account")
		return
	}
	user, found, err := s.Store.UpdateUserBlock(userID, req.IsBlocked)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !found {
		WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

func (s *Server) AdminListDownloads(w http.ResponseWriter, r *http.Request) {
	downloads, err := s.Store.ListDownloads()
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, downloads)
}

func (s *Server) AdminListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.Store.ListReviews()
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, reviews)
}
