package httpapi

import (
	"net/http"
	"strings"
	"time"

	"kitabghar-backend-go/internal/models"
	"kitabghar-backend-go/internal/services"
	"kitabghar-backend-go/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxUploadBytes = 50 << 20

// AdminCreateBook accepts multipart form fields title, author, description,
// categoryId plus optional cover and book files. Required fields are
// validated before any file is written to storage.
func (s *Server) AdminCreateBook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid multipart payload")
		return
	}
	title := strings.TrimSpace(r.FormValue("title"))
	author := strings.TrimSpace(r.FormValue("author"))
	if title == "" || author == "" {
		WriteError(w, http.StatusBadRequest, "Title and author are required")
		return
	}
	book := models.Book{
		ID:          uuid.NewString(),
		Title:       title,
		Author:      author,
		Description: strings.TrimSpace(r.FormValue("description")),
		CreatedAt:   time.Now().UTC(),
	}
	if raw := strings.TrimSpace(r.FormValue("categoryId")); raw != "" {
		book.CategoryID = &raw
	}

	coverPath, _, err := s.saveUploadedFile(r, "cover", services.BucketCovers)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	book.CoverImage = coverPath
	bookPath, bookFilename, err := s.saveUploadedFile(r, "book", services.BucketBooks)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if bookPath != nil {
		book.BookFile = bookPath
		fileType := services.FileTypeFromName(bookFilename)
		book.FileType = &fileType
	}

	if err := s.Store.CreateBook(book); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, book)
}

// AdminUpdateBook applies a partial update: only the form fields actually
// present in the request change the stored book.
func (s *Server) AdminUpdateBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid multipart payload")
		return
	}

	var update store.BookUpdate
	if values, ok := r.MultipartForm.Value["title"]; ok && len(values) > 0 {
		title := strings.TrimSpace(values[0])
		if title == "" {
			WriteError(w, http.StatusBadRequest, "Title must not be empty")
			return
		}
		update.Title = &title
	}
	if values, ok := r.MultipartForm.Value["author"]; ok && len(values) > 0 {
		author := strings.TrimSpace(values[0])
		if author == "" {
			WriteError(w, http.StatusBadRequest, "Author must not be empty")
			return
		}
		update.Author = &author
	}
	if values, ok := r.MultipartForm.Value["description"]; ok && len(values) > 0 {
		description := strings.TrimSpace(values[0])
		update.Description = &description
	}
	if values, ok := r.MultipartForm.Value["categoryId"]; ok && len(values) > 0 {
		update.CategoryIDSet = true
		if value := strings.TrimSpace(values[0]); value != "" {
			update.CategoryID = &value
		}
	}

	coverPath, _, err := s.saveUploadedFile(r, "cover", services.BucketCovers)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	update.CoverImage = coverPath
	bookPath, bookFilename, err := s.saveUploadedFile(r, "book", services.BucketBooks)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if bookPath != nil {
		update.BookFile = bookPath
		fileType := services.FileTypeFromName(bookFilename)
		update.FileType = &fileType
	}

	book, found, err := s.Store.UpdateBook(bookID, update)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !found {
		WriteError(w, http.StatusNotFound, "Book not found")
		return
	}
	WriteJSON(w, http.StatusOK, book)
}

func (s *Server) AdminDeleteBook(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.DeleteBook(chi.URLParam(r, "id")); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "Book deleted"})
}

// saveUploadedFile stores the first file under the given multipart field and
// returns its relative path and original filename, or nil when the field is
// absent.
func (s *Server) saveUploadedFile(r *http.Request, field, bucket string) (*string, string, error) {
	if r.MultipartForm == nil {
		return nil, "", nil
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, "", nil
	}
	header := headers[0]
	file, err := header.Open()
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = file.Close() }()
	path, err := services.SaveUpload(s.Config.UploadStoragePath, bucket, header.Filename, file)
	if err != nil {
		return nil, "", err
	}
	return &path, header.Filename, nil
}
