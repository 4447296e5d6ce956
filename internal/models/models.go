package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	Role         string    `db:"role" json:"role"`
	IsBlocked    bool      `db:"is_blocked" json:"isBlocked"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

type Category struct {
	ID          string  `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description"`
}

type Book struct {
	ID            string    `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	Author        string    `db:"author" json:"author"`
	Description   string    `db:"description" json:"description"`
	CategoryID    *string   `db:"category_id" json:"categoryId"`
	CoverImage    *string   `db:"cover_image" json:"coverImage"`
	BookFile      *string   `db:"book_file" json:"bookFile"`
	FileType      *string   `db:"file_type" json:"fileType"`
	DownloadCount int       `db:"download_count" json:"downloadCount"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

type Review struct {
	ID        string    `db:"id" json:"id"`
	BookID    string    `db:"book_id" json:"bookId"`
	UserID    string    `db:"user_id" json:"userId"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   *string   `db:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type Bookmark struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	BookID    string    `db:"book_id" json:"bookId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type ReadingProgress struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"userId"`
	BookID     string    `db:"book_id" json:"bookId"`
	LastPage   int       `db:"last_page" json:"lastPage"`
	TotalPages *int      `db:"total_pages" json:"totalPages"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// Download is an append-only record of a file download. UserID stays nil for
// anonymous downloads.
type Download struct {
	ID           string    `db:"id" json:"id"`
	BookID       string    `db:"book_id" json:"bookId"`
	UserID       *string   `db:"user_id" json:"userId"`
	DownloadedAt time.Time `db:"downloaded_at" json:"downloadedAt"`
}

// BookWithDetails is a Book enriched with its resolved category and rating
// metrics computed from review rows at read time (never stored).
type BookWithDetails struct {
	Book
	Category      *Category `json:"category"`
	AverageRating float64   `json:"averageRating"`
	ReviewCount   int       `json:"reviewCount"`
}

type ReviewUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ReviewWithUser struct {
	Review
	User ReviewUser `json:"user"`
}

type Stats struct {
	Books     int `json:"books"`
	Users     int `json:"users"`
	Downloads int `json:"downloads"`
	Reviews   int `json:"reviews"`
}
