package store

import (
	"errors"

	"kitabghar-backend-go/internal/models"
)

// Uniqueness and referential-integrity violations surfaced by both adapters.
// Lookups that find nothing return a false found-flag instead of an error.
var (
	ErrEmailTaken        = errors.New("email already registered")
	ErrCategoryNameTaken = errors.New("category name already in use")
	ErrCategoryInUse     = errors.New("category is still referenced by books")
	ErrBookmarkExists    = errors.New("book already bookmarked")
)

// BookUpdate carries only the fields the caller intends to change. Nil
// pointers leave a column untouched; CategoryIDSet distinguishes "clear the
// category" (set, nil value) from "leave it alone" (unset).
type BookUpdate struct {
	Title         *string
	Author        *string
	Description   *string
	CategoryID    *string
	CategoryIDSet bool
	CoverImage    *string
	BookFile      *string
	FileType      *string
}

// Store is the persistence boundary shared by the Postgres and in-memory
// adapters. All implementations must be safe for concurrent use.
type Store interface {
	// users
	CreateUser(user models.User) error
	GetUser(id string) (models.User, bool, error)
	GetUserByEmail(email string) (models.User, bool, error)
	ListUsers() ([]models.User, error)
	UpdateUserRole(id, role string) (models.User, bool, error)
	UpdateUserBlock(id string, blocked bool) (models.User, bool, error)

	// categories
	CreateCategory(category models.Category) error
	GetCategory(id string) (models.Category, bool, error)
	ListCategories() ([]models.Category, error)
	UpdateCategory(category models.Category) (bool, error)
	DeleteCategory(id string) error

	// books
	CreateBook(book models.Book) error
	GetBook(id string) (models.Book, bool, error)
	ListBooks() ([]models.Book, error)
	UpdateBook(id string, update BookUpdate) (models.Book, bool, error)
	DeleteBook(id string) error
	RecordDownload(bookID string, userID *string) (models.Download, error)
	ListDownloads() ([]models.Download, error)

	// reviews
	CreateReview(review models.Review) error
	ListReviewsByBook(bookID string) ([]models.Review, error)
	ListReviews() ([]models.Review, error)

	// bookmarks
	CreateBookmark(bookmark models.Bookmark) error
	DeleteBookmark(userID, bookID string) error
	ListBookmarksByUser(userID string) ([]models.Bookmark, error)
	IsBookmarked(userID, bookID string) (bool, error)

	// reading progress
	GetReadingProgress(userID, bookID string) (models.ReadingProgress, bool, error)
	UpsertReadingProgress(progress models.ReadingProgress) (models.ReadingProgress, error)

	Stats() (models.Stats, error)
}
