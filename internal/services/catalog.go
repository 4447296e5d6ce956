package services

import (
	"sort"
	"strings"

	"kitabghar-backend-go/internal/models"
	"kitabghar-backend-go/internal/store"
)

const (
	SortLatest    = "latest"
	SortRating    = "rating"
	SortDownloads = "downloads"
	SortTitle     = "title"
)

// CategoryAll is the sentinel filter value meaning "no category filter".
const CategoryAll = "all"

// BookFilter describes the catalog query: case-insensitive substring search
// on title or author, exact category match, ordering, and truncation.
type BookFilter struct {
	Search     string
	CategoryID string
	Sort       string
	Limit      int
}

// GetBookDetails assembles a BookWithDetails from a single review snapshot,
// so averageRating and reviewCount always agree within one response.
func GetBookDetails(st store.Store, id string) (models.BookWithDetails, error) {
	book, found, err := st.GetBook(id)
	if err != nil {
		return models.BookWithDetails{}, WrapError(err, "load book")
	}
	if !found {
		return models.BookWithDetails{}, ErrNotFound("Book not found")
	}
	var category *models.Category
	if book.CategoryID != nil {
		if resolved, ok, err := st.GetCategory(*book.CategoryID); err != nil {
			return models.BookWithDetails{}, WrapError(err, "load category")
		} else if ok {
			category = &resolved
		}
	}
	reviews, err := st.ListReviewsByBook(id)
	if err != nil {
		return models.BookWithDetails{}, WrapError(err, "load reviews")
	}
	return models.BookWithDetails{
		Book:          book,
		Category:      category,
		AverageRating: averageRating(reviews),
		ReviewCount:   len(reviews),
	}, nil
}

// ListBookDetails loads books, categories, and reviews once, assembles the
// detail rows from that snapshot, then applies filter, sort, and limit.
func ListBookDetails(st store.Store, filter BookFilter) ([]models.BookWithDetails, error) {
	books, err := st.ListBooks()
	if err != nil {
		return nil, WrapError(err, "load books")
	}
	categories, err := st.ListCategories()
	if err != nil {
		return nil, WrapError(err, "load categories")
	}
	reviews, err := st.ListReviews()
	if err != nil {
		return nil, WrapError(err, "load reviews")
	}

	categoryByID := make(map[string]models.Category, len(categories))
	for _, category := range categories {
		categoryByID[category.ID] = category
	}
	reviewsByBook := make(map[string][]models.Review, len(books))
	for _, review := range reviews {
		reviewsByBook[review.BookID] = append(reviewsByBook[review.BookID], review)
	}

	items := make([]models.BookWithDetails, 0, len(books))
	for _, book := range books {
		var category *models.Category
		if book.CategoryID != nil {
			if resolved, ok := categoryByID[*book.CategoryID]; ok {
				resolved := resolved
				category = &resolved
			}
		}
		bookReviews := reviewsByBook[book.ID]
		items = append(items, models.BookWithDetails{
			Book:          book,
			Category:      category,
			AverageRating: averageRating(bookReviews),
			ReviewCount:   len(bookReviews),
		})
	}

	// Search matches title or author only; category names are deliberately
	// excluded so the API filter behaves the same on every call site.
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		filtered := items[:0]
		for _, item := range items {
			if strings.Contains(strings.ToLower(item.Title), search) ||
				strings.Contains(strings.ToLower(item.Author), search) {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}

	if filter.CategoryID != "" && filter.CategoryID != CategoryAll {
		filtered := items[:0]
		for _, item := range items {
			if item.Book.CategoryID != nil && *item.Book.CategoryID == filter.CategoryID {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}

	// Stable sorts keep creation order as the tie-break, so equal keys stay
	// deterministic.
	switch filter.Sort {
	case SortRating:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].AverageRating > items[j].AverageRating
		})
	case SortDownloads:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].DownloadCount > items[j].DownloadCount
		})
	case SortTitle:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Title < items[j].Title
		})
	default:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		})
	}

	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}
	return items, nil
}

// ReviewsForBook returns the book's reviews newest first, each joined with
// the authoring user's public fields. Reviews whose author no longer exists
// are skipped.
func ReviewsForBook(st store.Store, bookID string) ([]models.ReviewWithUser, error) {
	reviews, err := st.ListReviewsByBook(bookID)
	if err != nil {
		return nil, WrapError(err, "load reviews")
	}
	items := make([]models.ReviewWithUser, 0, len(reviews))
	for _, review := range reviews {
		user, found, err := st.GetUser(review.UserID)
		if err != nil {
			return nil, WrapError(err, "load review author")
		}
		if !found {
			continue
		}
		items = append(items, models.ReviewWithUser{
			Review: review,
			User:   models.ReviewUser{ID: user.ID, Name: user.Name, Email: user.Email},
		})
	}
	return items, nil
}

// averageRating is the mean of the ratings, 0 when there are none.
func averageRating(reviews []models.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, review := range reviews {
		sum += review.Rating
	}
	return float64(sum) / float64(len(reviews))
}
