package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitabghar-backend-go/internal/models"
	"kitabghar-backend-go/internal/store"
)

type catalogFixture struct {
	store   *store.MemoryStore
	fiction models.Category
	dune    models.Book
	lotr    models.Book
	sapiens models.Book
}

// newCatalogFixture seeds three books: "Dune" (fiction, rated 4 and 2, two
// downloads), "The Lord of the Rings" (fiction, rated 5), and "Sapiens"
// (uncategorized, unrated, one download). Creation order is Dune, LOTR,
// Sapiens with ascending timestamps.
func newCatalogFixture(t *testing.T) catalogFixture {
	t.Helper()
	st := store.NewMemoryStore()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	fiction := models.Category{ID: uuid.NewString(), Name: "Fiction"}
	require.NoError(t, st.CreateCategory(fiction))

	dune := models.Book{ID: uuid.NewString(), Title: "Dune", Author: "Frank Herbert", CategoryID: &fiction.ID, CreatedAt: base}
	lotr := models.Book{ID: uuid.NewString(), Title: "The Lord of the Rings", Author: "J.R.R. Tolkien", CategoryID: &fiction.ID, CreatedAt: base.Add(time.Hour)}
	sapiens := models.Book{ID: uuid.NewString(), Title: "Sapiens", Author: "Yuval Noah Harari", CreatedAt: base.Add(2 * time.Hour)}
	require.NoError(t, st.CreateBook(dune))
	require.NoError(t, st.CreateBook(lotr))
	require.NoError(t, st.CreateBook(sapiens))

	reviewer := models.User{ID: uuid.NewString(), Email: "reviewer@example.com", Name: "Reviewer"}
	require.NoError(t, st.CreateUser(reviewer))
	require.NoError(t, st.CreateReview(models.Review{ID: uuid.NewString(), BookID: dune.ID, UserID: reviewer.ID, Rating: 4}))
	require.NoError(t, st.CreateReview(models.Review{ID: uuid.NewString(), BookID: dune.ID, UserID: reviewer.ID, Rating: 2}))
	require.NoError(t, st.CreateReview(models.Review{ID: uuid.NewString(), BookID: lotr.ID, UserID: reviewer.ID, Rating: 5}))

	for i := 0; i < 2; i++ {
		_, err := st.RecordDownload(dune.ID, nil)
		require.NoError(t, err)
	}
	_, err := st.RecordDownload(sapiens.ID, nil)
	require.NoError(t, err)

	return catalogFixture{store: st, fiction: fiction, dune: dune, lotr: lotr, sapiens: sapiens}
}

func titles(items []models.BookWithDetails) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Title)
	}
	return out
}

func TestGetBookDetailsComputesRating(t *testing.T) {
	fx := newCatalogFixture(t)

	details, err := GetBookDetails(fx.store, fx.dune.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", details.Title)
	assert.Equal(t, 3.0, details.AverageRating)
	assert.Equal(t, 2, details.ReviewCount)
	require.NotNil(t, details.Category)
	assert.Equal(t, "Fiction", details.Category.Name)
}

func TestGetBookDetailsZeroReviews(t *testing.T) {
	fx := newCatalogFixture(t)

	details, err := GetBookDetails(fx.store, fx.sapiens.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, details.AverageRating)
	assert.Equal(t, 0, details.ReviewCount)
	assert.Nil(t, details.Category)
}

func TestGetBookDetailsNotFound(t *testing.T) {
	fx := newCatalogFixture(t)

	_, err := GetBookDetails(fx.store, uuid.NewString())
	var svcErr ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, 404, svcErr.Status)
}

func TestListBookDetailsDefaultsToLatest(t *testing.T) {
	fx := newCatalogFixture(t)

	items, err := ListBookDetails(fx.store, BookFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sapiens", "The Lord of the Rings", "Dune"}, titles(items))
}

func TestListBookDetailsSortByTitle(t *testing.T) {
	fx := newCatalogFixture(t)

	items, err := ListBookDetails(fx.store, BookFilter{Sort: SortTitle})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune", "Sapiens", "The Lord of the Rings"}, titles(items))
}

func TestListBookDetailsSortByRating(t *testing.T) {
	fx := newCatalogFixture(t)

	items, err := ListBookDetails(fx.store, BookFilter{Sort: SortRating})
	require.NoError(t, err)
	assert.Equal(t, []string{"The Lord of the Rings", "Dune", "Sapiens"}, titles(items))
}

func TestListBookDetailsSortByDownloads(t *testing.T) {
	fx := newCatalogFixture(t)

	items, err := ListBookDetails(fx.store, BookFilter{Sort: SortDownloads})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Dune", items[0].Title)
	assert.Equal(t, 2, items[0].DownloadCount)
}

func TestListBookDetailsSearchMatchesTitleAndAuthor(t *testing.T) {
	fx := newCatalogFixture(t)

	items, err := ListBookDetails(fx.store, BookFilter{Search: "DUNE"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune"}, titles(items))

	items, err = ListBookDetails(fx.store, BookFilter{Search: "tolkien"})
	require.NoError(t, err)
	assert.Equal(t, []string{"The Lord of the Rings"}, titles(items))

	// Category names do not match.
	items, err = ListBookDetails(fx.store, BookFilter{Search: "fiction"})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestListBookDetailsCategoryFilter(t *testing.T) {
	fx := newCatalogFixture(t)

	items, err := ListBookDetails(fx.store, BookFilter{CategoryID: fx.fiction.ID, Sort: SortTitle})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune", "The Lord of the Rings"}, titles(items))

	items, err = ListBookDetails(fx.store, BookFilter{CategoryID: CategoryAll})
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestListBookDetailsLimit(t *testing.T) {
	fx := newCatalogFixture(t)

	items, err := ListBookDetails(fx.store, BookFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sapiens", "The Lord of the Rings"}, titles(items))
}

func TestListAndGetAgreeOnRatings(t *testing.T) {
	fx := newCatalogFixture(t)

	items, err := ListBookDetails(fx.store, BookFilter{})
	require.NoError(t, err)
	for _, item := range items {
		single, err := GetBookDetails(fx.store, item.ID)
		require.NoError(t, err)
		assert.Equal(t, single.AverageRating, item.AverageRating, item.Title)
		assert.Equal(t, single.ReviewCount, item.ReviewCount, item.Title)
	}
}

func TestReviewsForBookSkipsMissingAuthors(t *testing.T) {
	st := store.NewMemoryStore()
	book := models.Book{ID: uuid.NewString(), Title: "Dune", Author: "Frank Herbert", CreatedAt: time.Now().UTC()}
	require.NoError(t, st.CreateBook(book))

	author := models.User{ID: uuid.NewString(), Email: "a@example.com", Name: "Anna"}
	require.NoError(t, st.CreateUser(author))
	require.NoError(t, st.CreateReview(models.Review{ID: uuid.NewString(), BookID: book.ID, UserID: author.ID, Rating: 5}))
	require.NoError(t, st.CreateReview(models.Review{ID: uuid.NewString(), BookID: book.ID, UserID: uuid.NewString(), Rating: 1}))

	items, err := ReviewsForBook(st, book.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Anna", items[0].User.Name)
	assert.Equal(t, 5, items[0].Rating)
}
