package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"kitabghar-backend-go/internal/models"
	"kitabghar-backend-go/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CreateBookmarkRequest struct {
	BookID string `json:"bookId"`
}

func (s *Server) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	bookmarks, err := s.Store.ListBookmarksByUser(CurrentUserID(r))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, bookmarks)
}

func (s *Server) CreateBookmark(w http.ResponseWriter, r *http.Request) {
	var req CreateBookmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	bookID := strings.TrimSpace(req.BookID)
	if bookID == "" {
		WriteError(w, http.StatusBadRequest, "bookId is required")
		return
	}
	if _, found, err := s.Store.GetBook(bookID); err != nil {
		WriteServiceError(w, err)
		return
	} else if !found {
		WriteError(w, http.StatusNotFound, "Book not found")
		return
	}
	bookmark := models.Bookmark{
		ID:        uuid.NewString(),
		UserID:    CurrentUserID(r),
		BookID:    bookID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.CreateBookmark(bookmark); err != nil {
		if errors.Is(err, store.ErrBookmarkExists) {
			WriteError(w, http.StatusConflict, "Book already bookmarked")
			return
		}
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, bookmark)
}

type BookmarkStatusResponse struct {
	IsBookmarked bool `json:"isBookmarked"`
}

func (s *Server) GetBookmarkStatus(w http.ResponseWriter, r *http.Request) {
	bookmarked, err := s.Store.IsBookmarked(CurrentUserID(r), chi.URLParam(r, "bookId"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, BookmarkStatusResponse{IsBookmarked: bookmarked})
}

func (s *Server) DeleteBookmark(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.DeleteBookmark(CurrentUserID(r), chi.URLParam(r, "bookId")); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "Bookmark removed"})
}
