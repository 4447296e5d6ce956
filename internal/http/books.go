package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"kitabghar-backend-go/internal/models"
	"kitabghar-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CreateReviewRequest struct {
	Rating  int     `json:"rating"`
	Comment *string `json:"comment"`
}

func (s *Server) ListBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := services.BookFilter{
		Search:     query.Get("search"),
		CategoryID: query.Get("categoryId"),
		Sort:       query.Get("sort"),
	}
	if raw := query.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	books, err := services.ListBookDetails(s.Store, filter)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, books)
}

func (s *Server) GetBook(w http.ResponseWriter, r *http.Request) {
	book, err := services.GetBookDetails(s.Store, chi.URLParam(r, "id"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, book)
}

func (s *Server) ListBookReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := services.ReviewsForBook(s.Store, chi.URLParam(r, "id"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, reviews)
}

func (s *Server) CreateReview(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")
	var req CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		WriteError(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	}
	_, found, err := s.Store.GetBook(bookID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !found {
		WriteError(w, http.StatusNotFound, "Book not found")
		return
	}
	review := models.Review{
		ID:        uuid.NewString(),
		BookID:    bookID,
		UserID:    CurrentUserID(r),
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.CreateReview(review); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, review)
}

// DownloadBook serves the stored file and records the download (counter
// increment plus event row) before streaming. Anonymous downloads are
// allowed; the event keeps a nil user in that case.
func (s *Server) DownloadBook(w http.ResponseWriter, r *http.Request) {
	book, found, err := s.Store.GetBook(chi.URLParam(r, "id"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !found || book.BookFile == nil {
		WriteError(w, http.StatusNotFound, "Book file not found")
		return
	}

	var userID *string
	if id := CurrentUserID(r); id != "" {
		userID = &id
	}
	if _, err := s.Store.RecordDownload(book.ID, userID); err != nil {
		WriteServiceError(w, err)
		return
	}

	filePath := filepath.Join(s.Config.UploadStoragePath, services.BucketBooks, filepath.Base(*book.BookFile))
	if _, err := os.Stat(filePath); err != nil {
		WriteError(w, http.StatusNotFound, "Book file not found on server")
		return
	}
	fileType := "pdf"
	if book.FileType != nil && *book.FileType != "" {
		fileType = *book.FileType
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", book.Title+"."+fileType))
	http.ServeFile(w, r, filePath)
}
