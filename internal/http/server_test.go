package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitabghar-backend-go/internal/config"
	"kitabghar-backend-go/internal/models"
	"kitabghar-backend-go/internal/store"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	cfg := config.Config{
		StoreDriver:       config.StoreDriverMemory,
		JWTSecret:         "test-secret",
		JWTIssuer:         "kitabghar",
		TokenTTLSeconds:   3600,
		UploadStoragePath: t.TempDir(),
		AdminEmail:        "admin@example.com",
		AdminPassword:     "bootstrap-secret",
	}
	server := NewServer(store.NewMemoryStore(), cfg)
	return server, server.Router()
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func registerUser(t *testing.T, handler http.Handler, name, email string) TokenResponse {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Name: name, Email: email, Password: "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody[TokenResponse](t, rec)
}

func loginAdmin(t *testing.T, handler http.Handler) TokenResponse {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email: "admin@example.com", Password: "bootstrap-secret",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody[TokenResponse](t, rec)
}

func seedBook(t *testing.T, server *Server, title string) models.Book {
	t.Helper()
	book := models.Book{
		ID:        uuid.NewString(),
		Title:     title,
		Author:    "Author",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, server.Store.CreateBook(book))
	return book
}

func TestRegisterAndLogin(t *testing.T) {
	_, handler := newTestServer(t)

	registered := registerUser(t, handler, "Reader", "reader@example.com")
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, models.RoleUser, registered.User.Role)

	rec := doJSON(t, handler, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Name: "Other", Email: "Reader@Example.com", Password: "password123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email: "reader@example.com", Password: "password123",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email: "reader@example.com", Password: "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBootstrapAdminLogin(t *testing.T) {
	_, handler := newTestServer(t)

	first := loginAdmin(t, handler)
	assert.Equal(t, models.RoleAdmin, first.User.Role)

	// Repeat logins reuse the same account.
	second := loginAdmin(t, handler)
	assert.Equal(t, first.User.ID, second.User.ID)

	// The configured email alone does not open the bootstrap path.
	rec := doJSON(t, handler, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email: "admin@example.com", Password: "guess",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBlockedUserCannotLogin(t *testing.T) {
	server, handler := newTestServer(t)
	user := registerUser(t, handler, "Reader", "reader@example.com").User
	_, found, err := server.Store.UpdateUserBlock(user.ID, true)
	require.NoError(t, err)
	require.True(t, found)

	rec := doJSON(t, handler, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email: "reader@example.com", Password: "password123",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthGuards(t *testing.T) {
	_, handler := newTestServer(t)
	user := registerUser(t, handler, "Reader", "reader@example.com")

	rec := doJSON(t, handler, http.MethodGet, "/api/bookmarks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/bookmarks", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/admin/users", user.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := loginAdmin(t, handler)
	rec = doJSON(t, handler, http.MethodGet, "/api/admin/users", admin.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateReviewValidation(t *testing.T) {
	server, handler := newTestServer(t)
	user := registerUser(t, handler, "Reader", "reader@example.com")
	book := seedBook(t, server, "Dune")

	rec := doJSON(t, handler, http.MethodPost, "/api/books/"+book.ID+"/reviews", user.Token, CreateReviewRequest{Rating: 6})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/books/"+uuid.NewString()+"/reviews", user.Token, CreateReviewRequest{Rating: 4})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/books/"+book.ID+"/reviews", user.Token, CreateReviewRequest{Rating: 4})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/books/"+book.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	details := decodeBody[models.BookWithDetails](t, rec)
	assert.Equal(t, 4.0, details.AverageRating)
	assert.Equal(t, 1, details.ReviewCount)
}

func TestBookmarkLifecycle(t *testing.T) {
	server, handler := newTestServer(t)
	user := registerUser(t, handler, "Reader", "reader@example.com")
	book := seedBook(t, server, "Dune")

	rec := doJSON(t, handler, http.MethodPost, "/api/bookmarks", user.Token, CreateBookmarkRequest{BookID: book.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/bookmarks", user.Token, CreateBookmarkRequest{BookID: book.ID})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/bookmarks", user.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	bookmarks := decodeBody[[]models.Bookmark](t, rec)
	require.Len(t, bookmarks, 1)

	rec = doJSON(t, handler, http.MethodGet, "/api/bookmarks/"+book.ID+"/status", user.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[BookmarkStatusResponse](t, rec).IsBookmarked)

	rec = doJSON(t, handler, http.MethodDelete, "/api/bookmarks/"+book.ID, user.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/bookmarks", user.Token, nil)
	bookmarks = decodeBody[[]models.Bookmark](t, rec)
	assert.Empty(t, bookmarks)
}

func TestReadingProgressRoundTrip(t *testing.T) {
	server, handler := newTestServer(t)
	user := registerUser(t, handler, "Reader", "reader@example.com")
	book := seedBook(t, server, "Dune")

	rec := doJSON(t, handler, http.MethodGet, "/api/reading-progress/"+book.ID, user.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null\n", rec.Body.String())

	rec = doJSON(t, handler, http.MethodPost, "/api/reading-progress", user.Token, UpsertProgressRequest{
		BookID: book.ID, LastPage: 17,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/reading-progress", user.Token, UpsertProgressRequest{
		BookID: book.ID, LastPage: 42,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/reading-progress/"+book.ID, user.Token, nil)
	progress := decodeBody[models.ReadingProgress](t, rec)
	assert.Equal(t, 42, progress.LastPage)

	rec = doJSON(t, handler, http.MethodPost, "/api/reading-progress", user.Token, UpsertProgressRequest{
		BookID: book.ID, LastPage: -1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnonymousDownloadServesFileAndCounts(t *testing.T) {
	server, handler := newTestServer(t)
	book := seedBook(t, server, "Dune")

	booksDir := filepath.Join(server.Config.UploadStoragePath, "books")
	require.NoError(t, os.MkdirAll(booksDir, 0o755))
	fileName := uuid.NewString() + ".pdf"
	require.NoError(t, os.WriteFile(filepath.Join(booksDir, fileName), []byte("%PDF-1.4 test"), 0o644))

	storedPath := "/uploads/books/" + fileName
	fileType := "pdf"
	_, found, err := server.Store.UpdateBook(book.ID, store.BookUpdate{BookFile: &storedPath, FileType: &fileType})
	require.NoError(t, err)
	require.True(t, found)

	rec := doJSON(t, handler, http.MethodGet, "/api/books/"+book.ID+"/download", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Dune.pdf")
	assert.Equal(t, "%PDF-1.4 test", rec.Body.String())

	stored, found, err := server.Store.GetBook(book.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1, stored.DownloadCount)

	// The event row keeps a nil user for anonymous downloads.
	downloads, err := server.Store.ListDownloads()
	require.NoError(t, err)
	require.Len(t, downloads, 1)
	assert.Nil(t, downloads[0].UserID)
}

func TestDownloadWithoutFileIs404(t *testing.T) {
	server, handler := newTestServer(t)
	book := seedBook(t, server, "Dune")

	rec := doJSON(t, handler, http.MethodGet, "/api/books/"+book.ID+"/download", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	stored, _, err := server.Store.GetBook(book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.DownloadCount)
}

func TestAdminCannotChangeOwnRoleOrBlockSelf(t *testing.T) {
	_, handler := newTestServer(t)
	admin := loginAdmin(t, handler)

	rec := doJSON(t, handler, http.MethodPatch, "/api/admin/users/"+admin.User.ID+"/role", admin.Token, UpdateRoleRequest{Role: models.RoleUser})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, handler, http.MethodPatch, "/api/admin/users/"+admin.User.ID+"/block", admin.Token, UpdateBlockRequest{IsBlocked: true})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminRoleAndBlockUpdates(t *testing.T) {
	_, handler := newTestServer(t)
	admin := loginAdmin(t, handler)
	user := registerUser(t, handler, "Reader", "reader@example.com").User

	rec := doJSON(t, handler, http.MethodPatch, "/api/admin/users/"+user.ID+"/role", admin.Token, UpdateRoleRequest{Role: "librarian"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodPatch, "/api/admin/users/"+user.ID+"/role", admin.Token, UpdateRoleRequest{Role: models.RoleAdmin})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeBody[models.User](t, rec)
	assert.Equal(t, models.RoleAdmin, updated.Role)

	rec = doJSON(t, handler, http.MethodPatch, "/api/admin/users/"+uuid.NewString()+"/role", admin.Token, UpdateRoleRequest{Role: models.RoleUser})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, handler, http.MethodPatch, "/api/admin/users/"+user.ID+"/block", admin.Token, UpdateBlockRequest{IsBlocked: true})
	require.Equal(t, http.StatusOK, rec.Code)
	updated = decodeBody[models.User](t, rec)
	assert.True(t, updated.IsBlocked)
}

func TestAdminCategoryLifecycle(t *testing.T) {
	server, handler := newTestServer(t)
	admin := loginAdmin(t, handler)

	rec := doJSON(t, handler, http.MethodPost, "/api/admin/categories", admin.Token, CategoryRequest{Name: "Fiction"})
	require.Equal(t, http.StatusOK, rec.Code)
	category := decodeBody[models.Category](t, rec)

	rec = doJSON(t, handler, http.MethodPost, "/api/admin/categories", admin.Token, CategoryRequest{Name: "fiction"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	book := seedBook(t, server, "Dune")
	_, found, err := server.Store.UpdateBook(book.ID, store.BookUpdate{CategoryID: &category.ID, CategoryIDSet: true})
	require.NoError(t, err)
	require.True(t, found)

	rec = doJSON(t, handler, http.MethodDelete, "/api/admin/categories/"+category.ID, admin.Token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, handler, http.MethodDelete, "/api/admin/books/"+book.ID, admin.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodDelete, "/api/admin/categories/"+category.ID, admin.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	server, handler := newTestServer(t)
	registerUser(t, handler, "Reader", "reader@example.com")
	seedBook(t, server, "Dune")

	rec := doJSON(t, handler, http.MethodGet, "/api/stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody[models.Stats](t, rec)
	assert.Equal(t, 1, stats.Books)
	assert.Equal(t, 1, stats.Users)
}
