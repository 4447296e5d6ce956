package store

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"kitabghar-backend-go/internal/models"
)

var ErrBookNotFound = errors.New("book not found")

// MemoryStore is the process-local adapter used in tests and for running
// without a database. A single mutex guards every multi-step sequence, so
// the bookmark existence check, the reading-progress upsert, and the
// download increment+append are each atomic with respect to other callers.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[string]models.User
	categories map[string]models.Category
	books      map[string]models.Book
	reviews    map[string]models.Review
	bookmarks  map[string]models.Bookmark
	progress   map[string]models.ReadingProgress

	userOrder     []string
	categoryOrder []string
	bookOrder     []string
	reviewOrder   []string
	bookmarkOrder []string
	downloads     []models.Download
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]models.User),
		categories: make(map[string]models.Category),
		books:      make(map[string]models.Book),
		reviews:    make(map[string]models.Review),
		bookmarks:  make(map[string]models.Bookmark),
		progress:   make(map[string]models.ReadingProgress),
	}
}

func (m *MemoryStore) CreateUser(user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return ErrEmailTaken
		}
	}
	m.users[user.ID] = user
	m.userOrder = append(m.userOrder, user.ID)
	return nil
}

func (m *MemoryStore) GetUser(id string) (models.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	return user, ok, nil
}

func (m *MemoryStore) GetUserByEmail(email string) (models.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) {
			return user, true, nil
		}
	}
	return models.User{}, false, nil
}

// ListUsers returns users newest first.
func (m *MemoryStore) ListUsers() ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]models.User, 0, len(m.userOrder))
	for i := len(m.userOrder) - 1; i >= 0; i-- {
		if user, ok := m.users[m.userOrder[i]]; ok {
			items = append(items, user)
		}
	}
	return items, nil
}

func (m *MemoryStore) UpdateUserRole(id, role string) (models.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return models.User{}, false, nil
	}
	user.Role = role
	m.users[id] = user
	return user, true, nil
}

func (m *MemoryStore) UpdateUserBlock(id string, blocked bool) (models.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return models.User{}, false, nil
	}
	user.IsBlocked = blocked
	m.users[id] = user
	return user, true, nil
}

func (m *MemoryStore) CreateCategory(category models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.categories {
		if strings.EqualFold(existing.Name, category.Name) {
			return ErrCategoryNameTaken
		}
	}
	m.categories[category.ID] = category
	m.categoryOrder = append(m.categoryOrder, category.ID)
	return nil
}

func (m *MemoryStore) GetCategory(id string) (models.Category, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	category, ok := m.categories[id]
	return category, ok, nil
}

func (m *MemoryStore) ListCategories() ([]models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]models.Category, 0, len(m.categoryOrder))
	for _, id := range m.categoryOrder {
		if category, ok := m.categories[id]; ok {
			items = append(items, category)
		}
	}
	return items, nil
}

func (m *MemoryStore) UpdateCategory(category models.Category) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.categories[category.ID]
	if !ok {
		return false, nil
	}
	for id, other := range m.categories {
		if id != category.ID && strings.EqualFold(other.Name, category.Name) {
			return true, ErrCategoryNameTaken
		}
	}
	existing.Name = category.Name
	existing.Description = category.Description
	m.categories[category.ID] = existing
	return true, nil
}

// DeleteCategory refuses to remove a category while any book references it.
func (m *MemoryStore) DeleteCategory(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, book := range m.books {
		if book.CategoryID != nil && *book.CategoryID == id {
			return ErrCategoryInUse
		}
	}
	delete(m.categories, id)
	m.categoryOrder = removeID(m.categoryOrder, id)
	return nil
}

func (m *MemoryStore) CreateBook(book models.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books[book.ID] = book
	m.bookOrder = append(m.bookOrder, book.ID)
	return nil
}

func (m *MemoryStore) GetBook(id string) (models.Book, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	book, ok := m.books[id]
	return book, ok, nil
}

// ListBooks returns books in creation order.
func (m *MemoryStore) ListBooks() ([]models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]models.Book, 0, len(m.bookOrder))
	for _, id := range m.bookOrder {
		if book, ok := m.books[id]; ok {
			items = append(items, book)
		}
	}
	return items, nil
}

func (m *MemoryStore) UpdateBook(id string, update BookUpdate) (models.Book, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	book, ok := m.books[id]
	if !ok {
		return models.Book{}, false, nil
	}
	if update.Title != nil {
		book.Title = *update.Title
	}
	if update.Author != nil {
		book.Author = *update.Author
	}
	if update.Description != nil {
		book.Description = *update.Description
	}
	if update.CategoryIDSet {
		book.CategoryID = update.CategoryID
	}
	if update.CoverImage != nil {
		book.CoverImage = update.CoverImage
	}
	if update.BookFile != nil {
		book.BookFile = update.BookFile
	}
	if update.FileType != nil {
		book.FileType = update.FileType
	}
	m.books[id] = book
	return book, true, nil
}

// DeleteBook removes the book together with its reviews, bookmarks, reading
// progress, and download events, all under one lock.
func (m *MemoryStore) DeleteBook(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.books, id)
	m.bookOrder = removeID(m.bookOrder, id)
	for reviewID, review := range m.reviews {
		if review.BookID == id {
			delete(m.reviews, reviewID)
			m.reviewOrder = removeID(m.reviewOrder, reviewID)
		}
	}
	for bookmarkID, bookmark := range m.bookmarks {
		if bookmark.BookID == id {
			delete(m.bookmarks, bookmarkID)
			m.bookmarkOrder = removeID(m.bookmarkOrder, bookmarkID)
		}
	}
	for key, progress := range m.progress {
		if progress.BookID == id {
			delete(m.progress, key)
		}
	}
	kept := m.downloads[:0]
	for _, download := range m.downloads {
		if download.BookID != id {
			kept = append(kept, download)
		}
	}
	m.downloads = kept
	return nil
}

// RecordDownload increments the counter and appends the download event as one
// atomic step, so concurrent downloads for the same book lose no updates.
func (m *MemoryStore) RecordDownload(bookID string, userID *string) (models.Download, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	book, ok := m.books[bookID]
	if !ok {
		return models.Download{}, ErrBookNotFound
	}
	book.DownloadCount++
	m.books[bookID] = book
	download := models.Download{
		ID:           uuid.NewString(),
		BookID:       bookID,
		UserID:       userID,
		DownloadedAt: time.Now().UTC(),
	}
	m.downloads = append(m.downloads, download)
	return download, nil
}

// ListDownloads returns download events newest first.
func (m *MemoryStore) ListDownloads() ([]models.Download, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]models.Download, 0, len(m.downloads))
	for i := len(m.downloads) - 1; i >= 0; i-- {
		items = append(items, m.downloads[i])
	}
	return items, nil
}

func (m *MemoryStore) CreateReview(review models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews[review.ID] = review
	m.reviewOrder = append(m.reviewOrder, review.ID)
	return nil
}

// ListReviewsByBook returns the book's reviews newest first.
func (m *MemoryStore) ListReviewsByBook(bookID string) ([]models.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := []models.Review{}
	for i := len(m.reviewOrder) - 1; i >= 0; i-- {
		if review, ok := m.reviews[m.reviewOrder[i]]; ok && review.BookID == bookID {
			items = append(items, review)
		}
	}
	return items, nil
}

func (m *MemoryStore) ListReviews() ([]models.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]models.Review, 0, len(m.reviewOrder))
	for i := len(m.reviewOrder) - 1; i >= 0; i-- {
		if review, ok := m.reviews[m.reviewOrder[i]]; ok {
			items = append(items, review)
		}
	}
	return items, nil
}

// CreateBookmark enforces at most one bookmark per (user, book) pair; the
// existence check and the insert share the write lock.
func (m *MemoryStore) CreateBookmark(bookmark models.Bookmark) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.bookmarks {
		if existing.UserID == bookmark.UserID && existing.BookID == bookmark.BookID {
			return ErrBookmarkExists
		}
	}
	m.bookmarks[bookmark.ID] = bookmark
	m.bookmarkOrder = append(m.bookmarkOrder, bookmark.ID)
	return nil
}

func (m *MemoryStore) DeleteBookmark(userID, bookID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, bookmark := range m.bookmarks {
		if bookmark.UserID == userID && bookmark.BookID == bookID {
			delete(m.bookmarks, id)
			m.bookmarkOrder = removeID(m.bookmarkOrder, id)
		}
	}
	return nil
}

// ListBookmarksByUser returns the user's bookmarks newest first.
func (m *MemoryStore) ListBookmarksByUser(userID string) ([]models.Bookmark, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := []models.Bookmark{}
	for i := len(m.bookmarkOrder) - 1; i >= 0; i-- {
		if bookmark, ok := m.bookmarks[m.bookmarkOrder[i]]; ok && bookmark.UserID == userID {
			items = append(items, bookmark)
		}
	}
	return items, nil
}

func (m *MemoryStore) IsBookmarked(userID, bookID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, bookmark := range m.bookmarks {
		if bookmark.UserID == userID && bookmark.BookID == bookID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) GetReadingProgress(userID, bookID string) (models.ReadingProgress, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	progress, ok := m.progress[progressKey(userID, bookID)]
	return progress, ok, nil
}

// UpsertReadingProgress keeps exactly one row per (user, book) pair. The
// read-check and the write happen under one lock, so concurrent upserts for
// the same pair cannot both insert.
func (m *MemoryStore) UpsertReadingProgress(progress models.ReadingProgress) (models.ReadingProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := progressKey(progress.UserID, progress.BookID)
	if existing, ok := m.progress[key]; ok {
		existing.LastPage = progress.LastPage
		existing.TotalPages = progress.TotalPages
		existing.UpdatedAt = progress.UpdatedAt
		m.progress[key] = existing
		return existing, nil
	}
	m.progress[key] = progress
	return progress, nil
}

func (m *MemoryStore) Stats() (models.Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return models.Stats{
		Books:     len(m.books),
		Users:     len(m.users),
		Downloads: len(m.downloads),
		Reviews:   len(m.reviews),
	}, nil
}

func progressKey(userID, bookID string) string {
	return userID + "\x00" + bookID
}

func removeID(ids []string, id string) []string {
	filtered := ids[:0]
	for _, item := range ids {
		if item != id {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
