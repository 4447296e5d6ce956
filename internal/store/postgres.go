package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"kitabghar-backend-go/internal/models"
)

const pgUniqueViolation = "23505"

// PostgresStore is the relational adapter. Uniqueness and foreign keys are
// enforced by the schema; the three multi-statement sequences (bookmark
// create, progress upsert, download recording) run inside transactions or
// single atomic statements.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateUser(user models.User) error {
	_, err := s.db.Exec(`
INSERT INTO users (id, email, password_hash, name, role, is_blocked, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`, user.ID, user.Email, user.PasswordHash, user.Name, user.Role, user.IsBlocked, user.CreatedAt)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

func (s *PostgresStore) GetUser(id string) (models.User, bool, error) {
	var user models.User
	err := s.db.Get(&user, `SELECT * FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, err
	}
	return user, true, nil
}

func (s *PostgresStore) GetUserByEmail(email string) (models.User, bool, error) {
	var user models.User
	err := s.db.Get(&user, `SELECT * FROM users WHERE lower(email) = lower($1)`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, err
	}
	return user, true, nil
}

func (s *PostgresStore) ListUsers() ([]models.User, error) {
	users := []models.User{}
	err := s.db.Select(&users, `SELECT * FROM users ORDER BY created_at DESC`)
	return users, err
}

func (s *PostgresStore) UpdateUserRole(id, role string) (models.User, bool, error) {
	var user models.User
	err := s.db.Get(&user, `UPDATE users SET role = $2 WHERE id = $1 RETURNING *`, id, role)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, err
	}
	return user, true, nil
}

func (s *PostgresStore) UpdateUserBlock(id string, blocked bool) (models.User, bool, error) {
	var user models.User
	err := s.db.Get(&user, `UPDATE users SET is_blocked = $2 WHERE id = $1 RETURNING *`, id, blocked)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, err
	}
	return user, true, nil
}

func (s *PostgresStore) CreateCategory(category models.Category) error {
	_, err := s.db.Exec(`
INSERT INTO categories (id, name, description) VALUES ($1,$2,$3)
`, category.ID, category.Name, category.Description)
	if isUniqueViolation(err) {
		return ErrCategoryNameTaken
	}
	return err
}

func (s *PostgresStore) GetCategory(id string) (models.Category, bool, error) {
	var category models.Category
	err := s.db.Get(&category, `SELECT * FROM categories WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Category{}, false, nil
	}
	if err != nil {
		return models.Category{}, false, err
	}
	return category, true, nil
}

func (s *PostgresStore) ListCategories() ([]models.Category, error) {
	categories := []models.Category{}
	err := s.db.Select(&categories, `SELECT * FROM categories ORDER BY name ASC`)
	return categories, err
}

func (s *PostgresStore) UpdateCategory(category models.Category) (bool, error) {
	result, err := s.db.Exec(`
UPDATE categories SET name = $2, description = $3 WHERE id = $1
`, category.ID, category.Name, category.Description)
	if isUniqueViolation(err) {
		return true, ErrCategoryNameTaken
	}
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeleteCategory refuses to remove a category while any book references it.
func (s *PostgresStore) DeleteCategory(id string) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	var inUse bool
	if err := tx.Get(&inUse, `SELECT EXISTS(SELECT 1 FROM books WHERE category_id = $1)`, id); err != nil {
		return err
	}
	if inUse {
		return ErrCategoryInUse
	}
	if _, err := tx.Exec(`DELETE FROM categories WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PostgresStore) CreateBook(book models.Book) error {
	_, err := s.db.Exec(`
INSERT INTO books (id, title, author, description, category_id, cover_image, book_file, file_type, download_count, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`, book.ID, book.Title, book.Author, book.Description, book.CategoryID, book.CoverImage, book.BookFile, book.FileType, book.DownloadCount, book.CreatedAt)
	return err
}

func (s *PostgresStore) GetBook(id string) (models.Book, bool, error) {
	var book models.Book
	err := s.db.Get(&book, `SELECT * FROM books WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Book{}, false, nil
	}
	if err != nil {
		return models.Book{}, false, err
	}
	return book, true, nil
}

func (s *PostgresStore) ListBooks() ([]models.Book, error) {
	books := []models.Book{}
	err := s.db.Select(&books, `SELECT * FROM books ORDER BY created_at ASC`)
	return books, err
}

func (s *PostgresStore) UpdateBook(id string, update BookUpdate) (models.Book, bool, error) {
	var book models.Book
	err := s.db.Get(&book, `
UPDATE books SET
  title = COALESCE($2, title),
  author = COALESCE($3, author),
  description = COALESCE($4, description),
  category_id = CASE WHEN $5 THEN $6 ELSE category_id END,
  cover_image = COALESCE($7, cover_image),
  book_file = COALESCE($8, book_file),
  file_type = COALESCE($9, file_type)
WHERE id = $1
RETURNING *
`, id, update.Title, update.Author, update.Description, update.CategoryIDSet, update.CategoryID,
		update.CoverImage, update.BookFile, update.FileType)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Book{}, false, nil
	}
	if err != nil {
		return models.Book{}, false, err
	}
	return book, true, nil
}

// DeleteBook removes the book and all dependent rows in one transaction.
func (s *PostgresStore) DeleteBook(id string) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, stmt := range []string{
		`DELETE FROM reviews WHERE book_id = $1`,
		`DELETE FROM bookmarks WHERE book_id = $1`,
		`DELETE FROM reading_progress WHERE book_id = $1`,
		`DELETE FROM downloads WHERE book_id = $1`,
		`DELETE FROM books WHERE id = $1`,
	} {
		if _, err := tx.Exec(stmt, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// RecordDownload bumps the counter and appends the download event in one
// transaction. The relative increment cannot lose updates under concurrency.
func (s *PostgresStore) RecordDownload(bookID string, userID *string) (models.Download, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return models.Download{}, err
	}
	defer func() { _ = tx.Rollback() }()
	result, err := tx.Exec(`UPDATE books SET download_count = download_count + 1 WHERE id = $1`, bookID)
	if err != nil {
		return models.Download{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return models.Download{}, err
	}
	if affected == 0 {
		return models.Download{}, ErrBookNotFound
	}
	download := models.Download{
		ID:           uuid.NewString(),
		BookID:       bookID,
		UserID:       userID,
		DownloadedAt: time.Now().UTC(),
	}
	if _, err := tx.Exec(`
INSERT INTO downloads (id, book_id, user_id, downloaded_at) VALUES ($1,$2,$3,$4)
`, download.ID, download.BookID, download.UserID, download.DownloadedAt); err != nil {
		return models.Download{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Download{}, err
	}
	return download, nil
}

func (s *PostgresStore) ListDownloads() ([]models.Download, error) {
	downloads := []models.Download{}
	err := s.db.Select(&downloads, `SELECT * FROM downloads ORDER BY downloaded_at DESC`)
	return downloads, err
}

func (s *PostgresStore) CreateReview(review models.Review) error {
	_, err := s.db.Exec(`
INSERT INTO reviews (id, book_id, user_id, rating, comment, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, review.ID, review.BookID, review.UserID, review.Rating, review.Comment, review.CreatedAt)
	return err
}

func (s *PostgresStore) ListReviewsByBook(bookID string) ([]models.Review, error) {
	reviews := []models.Review{}
	err := s.db.Select(&reviews, `SELECT * FROM reviews WHERE book_id = $1 ORDER BY created_at DESC`, bookID)
	return reviews, err
}

func (s *PostgresStore) ListReviews() ([]models.Review, error) {
	reviews := []models.Review{}
	err := s.db.Select(&reviews, `SELECT * FROM reviews ORDER BY created_at DESC`)
	return reviews, err
}

// CreateBookmark relies on the unique (user_id, book_id) index, so two
// concurrent inserts for the same pair cannot both land.
func (s *PostgresStore) CreateBookmark(bookmark models.Bookmark) error {
	_, err := s.db.Exec(`
INSERT INTO bookmarks (id, user_id, book_id, created_at) VALUES ($1,$2,$3,$4)
`, bookmark.ID, bookmark.UserID, bookmark.BookID, bookmark.CreatedAt)
	if isUniqueViolation(err) {
		return ErrBookmarkExists
	}
	return err
}

func (s *PostgresStore) DeleteBookmark(userID, bookID string) error {
	_, err := s.db.Exec(`DELETE FROM bookmarks WHERE user_id = $1 AND book_id = $2`, userID, bookID)
	return err
}

func (s *PostgresStore) ListBookmarksByUser(userID string) ([]models.Bookmark, error) {
	bookmarks := []models.Bookmark{}
	err := s.db.Select(&bookmarks, `SELECT * FROM bookmarks WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	return bookmarks, err
}

func (s *PostgresStore) IsBookmarked(userID, bookID string) (bool, error) {
	var exists bool
	err := s.db.Get(&exists, `
SELECT EXISTS(SELECT 1 FROM bookmarks WHERE user_id = $1 AND book_id = $2)
`, userID, bookID)
	return exists, err
}

func (s *PostgresStore) GetReadingProgress(userID, bookID string) (models.ReadingProgress, bool, error) {
	var progress models.ReadingProgress
	err := s.db.Get(&progress, `
SELECT * FROM reading_progress WHERE user_id = $1 AND book_id = $2
`, userID, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ReadingProgress{}, false, nil
	}
	if err != nil {
		return models.ReadingProgress{}, false, err
	}
	return progress, true, nil
}

// UpsertReadingProgress leans on the unique (user_id, book_id) constraint:
// a single ON CONFLICT statement keeps concurrent upserts from inserting
// duplicate rows for the same pair.
func (s *PostgresStore) UpsertReadingProgress(progress models.ReadingProgress) (models.ReadingProgress, error) {
	var stored models.ReadingProgress
	err := s.db.Get(&stored, `
INSERT INTO reading_progress (id, user_id, book_id, last_page, total_pages, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (user_id, book_id) DO UPDATE
SET last_page = EXCLUDED.last_page,
    total_pages = EXCLUDED.total_pages,
    updated_at = EXCLUDED.updated_at
RETURNING *
`, progress.ID, progress.UserID, progress.BookID, progress.LastPage, progress.TotalPages, progress.UpdatedAt)
	if err != nil {
		return models.ReadingProgress{}, err
	}
	return stored, nil
}

func (s *PostgresStore) Stats() (models.Stats, error) {
	var stats models.Stats
	err := s.db.Get(&stats, `
SELECT
  (SELECT count(*) FROM books) AS books,
  (SELECT count(*) FROM users) AS users,
  (SELECT count(*) FROM downloads) AS downloads,
  (SELECT count(*) FROM reviews) AS reviews
`)
	return stats, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
