package store

import (
	"context"
	"testing"
	"time"

	"yamdb/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, s *MemoryStore, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com"}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func seedTitle(t *testing.T, s *MemoryStore) (*models.Title, *models.Category, *models.Genre) {
	t.Helper()
	ctx := context.Background()
	c := &models.Category{Name: "Movie", Slug: "movie"}
	require.NoError(t, s.CreateCategory(ctx, c))
	g := &models.Genre{Name: "Drama", Slug: "drama"}
	require.NoError(t, s.CreateGenre(ctx, g))
	title := &models.Title{Name: "The Godfather", Year: 1972, CategoryID: &c.ID}
	require.NoError(t, s.CreateTitle(ctx, title, []uint{g.ID}))
	return title, c, g
}

func TestMemoryStoreUserUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	alice := seedUser(t, s, "alice")
	assert.Equal(t, models.RoleUser, alice.Role)

	err := s.CreateUser(ctx, &models.User{Username: "alice", Email: "other@example.com"})
	assert.ErrorIs(t, err, ErrConflict)
	err = s.CreateUser(ctx, &models.User{Username: "other", Email: "alice@example.com"})
	assert.ErrorIs(t, err, ErrConflict)

	bob := seedUser(t, s, "bob")
	taken := "alice"
	_, err = s.UpdateUser(ctx, bob.ID, UserFields{Username: &taken})
	assert.ErrorIs(t, err, ErrConflict)

	got, err := s.GetUserByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)
}

func TestMemoryStoreFindUsers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedUser(t, s, "alice")
	seedUser(t, s, "bob")

	found, err := s.FindUsers(ctx, "alice", "bob@example.com")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "alice", found[0].Username)
	assert.Equal(t, "bob", found[1].Username)

	found, err = s.FindUsers(ctx, "carol", "carol@example.com")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestMemoryStoreListUsersSearchAndPage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, name := range []string{"zed", "anna", "hannah", "bob"} {
		seedUser(t, s, name)
	}

	users, total, err := s.ListUsers(ctx, "ANN", Page{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, users, 2)
	assert.Equal(t, "anna", users[0].Username)
	assert.Equal(t, "hannah", users[1].Username)

	users, total, err = s.ListUsers(ctx, "", Page{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	require.Len(t, users, 2)
	assert.Equal(t, "bob", users[0].Username)
	assert.Equal(t, "hannah", users[1].Username)

	users, _, err = s.ListUsers(ctx, "", Page{Limit: 2, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestMemoryStoreConfirmationCode(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u := seedUser(t, s, "alice")

	require.NoError(t, s.SetConfirmationCode(ctx, u.ID, "hash"))
	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash", got.ConfirmationCode)

	assert.ErrorIs(t, s.SetConfirmationCode(ctx, 999, "hash"), ErrNotFound)
}

func TestMemoryStoreSlugUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.CreateCategory(ctx, &models.Category{Name: "Movie", Slug: "movie"}))
	assert.ErrorIs(t, s.CreateCategory(ctx, &models.Category{Name: "Film", Slug: "movie"}), ErrConflict)

	require.NoError(t, s.CreateGenre(ctx, &models.Genre{Name: "Drama", Slug: "drama"}))
	assert.ErrorIs(t, s.CreateGenre(ctx, &models.Genre{Name: "Other", Slug: "drama"}), ErrConflict)
}

func TestMemoryStoreCategorySearchIsSubstringGenreSearchIsExact(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.CreateCategory(ctx, &models.Category{Name: "Movie", Slug: "movie"}))
	require.NoError(t, s.CreateCategory(ctx, &models.Category{Name: "Music", Slug: "music"}))
	require.NoError(t, s.CreateGenre(ctx, &models.Genre{Name: "Rock", Slug: "rock"}))
	require.NoError(t, s.CreateGenre(ctx, &models.Genre{Name: "Rock and Roll", Slug: "rock-n-roll"}))

	categories, total, err := s.ListCategories(ctx, "mu", Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "music", categories[0].Slug)

	genres, total, err := s.ListGenres(ctx, "Rock", Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "rock", genres[0].Slug)
}

func TestMemoryStoreTitleReadModel(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	title, c, g := seedTitle(t, s)

	assert.Nil(t, title.Rating)
	require.NotNil(t, title.Category)
	assert.Equal(t, c.Slug, title.Category.Slug)
	require.Len(t, title.Genres, 1)
	assert.Equal(t, g.Slug, title.Genres[0].Slug)

	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	require.NoError(t, s.CreateReview(ctx, &models.Review{TitleID: title.ID, AuthorID: alice.ID, Text: "good", Score: 8}))
	require.NoError(t, s.CreateReview(ctx, &models.Review{TitleID: title.ID, AuthorID: bob.ID, Text: "fine", Score: 5}))

	got, err := s.GetTitle(ctx, title.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Rating)
	assert.InDelta(t, 6.5, *got.Rating, 0.0001)
}

func TestMemoryStoreTitleFilters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	title, _, _ := seedTitle(t, s)
	require.NoError(t, s.CreateTitle(ctx, &models.Title{Name: "Other", Year: 2001}, nil))

	year := 1972
	cases := []struct {
		name   string
		filter TitleFilter
		want   int
	}{
		{"no filter", TitleFilter{}, 2},
		{"genre", TitleFilter{Genre: "drama"}, 1},
		{"unknown genre", TitleFilter{Genre: "comedy"}, 0},
		{"category", TitleFilter{Category: "movie"}, 1},
		{"year", TitleFilter{Year: &year}, 1},
		{"name substring", TitleFilter{Name: "godfa"}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			titles, total, err := s.ListTitles(ctx, tc.filter, Page{})
			require.NoError(t, err)
			assert.EqualValues(t, tc.want, total)
			if tc.want == 1 && tc.filter != (TitleFilter{}) {
				assert.Equal(t, title.ID, titles[0].ID)
			}
		})
	}
}

func TestMemoryStoreUpdateTitle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	title, _, _ := seedTitle(t, s)
	comedy := &models.Genre{Name: "Comedy", Slug: "comedy"}
	require.NoError(t, s.CreateGenre(ctx, comedy))

	name := "Renamed"
	var noCategory *uint
	updated, err := s.UpdateTitle(ctx, title.ID, TitleFields{
		Name:       &name,
		CategoryID: &noCategory,
		GenreIDs:   []uint{comedy.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, 1972, updated.Year)
	assert.Nil(t, updated.Category)
	require.Len(t, updated.Genres, 1)
	assert.Equal(t, "comedy", updated.Genres[0].Slug)

	_, err = s.UpdateTitle(ctx, 999, TitleFields{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreCategoryDeleteDetachesTitles(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	title, c, g := seedTitle(t, s)

	require.NoError(t, s.DeleteCategory(ctx, c.Slug))
	require.NoError(t, s.DeleteGenre(ctx, g.Slug))

	got, err := s.GetTitle(ctx, title.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
	assert.Nil(t, got.Category)
	assert.Empty(t, got.Genres)

	assert.ErrorIs(t, s.DeleteCategory(ctx, c.Slug), ErrNotFound)
}

func TestMemoryStoreReviewUniquePerAuthor(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	title, _, _ := seedTitle(t, s)
	alice := seedUser(t, s, "alice")

	r := &models.Review{TitleID: title.ID, AuthorID: alice.ID, Text: "good", Score: 8}
	require.NoError(t, s.CreateReview(ctx, r))
	assert.Equal(t, "alice", r.Author.Username)
	assert.False(t, r.PubDate.IsZero())

	err := s.CreateReview(ctx, &models.Review{TitleID: title.ID, AuthorID: alice.ID, Text: "again", Score: 1})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.GetReview(ctx, title.ID+100, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreReviewsOrderedByPubDate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	title, _, _ := seedTitle(t, s)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"late", "early"} {
		u := seedUser(t, s, name)
		r := &models.Review{TitleID: title.ID, AuthorID: u.ID, Text: name, Score: 5, PubDate: base.Add(time.Duration(1-i) * time.Hour)}
		require.NoError(t, s.CreateReview(ctx, r))
	}

	reviews, total, err := s.ListReviews(ctx, title.ID, Page{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, "early", reviews[0].Text)
	assert.Equal(t, "late", reviews[1].Text)
}

func TestMemoryStoreCascades(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	title, _, _ := seedTitle(t, s)
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")

	r := &models.Review{TitleID: title.ID, AuthorID: alice.ID, Text: "good", Score: 8}
	require.NoError(t, s.CreateReview(ctx, r))
	c := &models.Comment{ReviewID: r.ID, AuthorID: bob.ID, Text: "agreed"}
	require.NoError(t, s.CreateComment(ctx, c))
	assert.Equal(t, "bob", c.Author.Username)

	t.Run("deleting a user removes their comments", func(t *testing.T) {
		require.NoError(t, s.DeleteUser(ctx, bob.ID))
		_, err := s.GetComment(ctx, r.ID, c.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("deleting a title removes reviews and comments", func(t *testing.T) {
		carol := seedUser(t, s, "carol")
		c2 := &models.Comment{ReviewID: r.ID, AuthorID: carol.ID, Text: "hm"}
		require.NoError(t, s.CreateComment(ctx, c2))

		require.NoError(t, s.DeleteTitle(ctx, title.ID))
		_, err := s.GetReview(ctx, title.ID, r.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.GetComment(ctx, r.ID, c2.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryStoreUpdateReviewKeepsPubDate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	title, _, _ := seedTitle(t, s)
	alice := seedUser(t, s, "alice")

	r := &models.Review{TitleID: title.ID, AuthorID: alice.ID, Text: "good", Score: 8}
	require.NoError(t, s.CreateReview(ctx, r))
	published := r.PubDate

	r.Text, r.Score = "better", 9
	r.PubDate = published.Add(time.Hour)
	require.NoError(t, s.UpdateReview(ctx, r))

	got, err := s.GetReview(ctx, title.ID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "better", got.Text)
	assert.Equal(t, 9, got.Score)
	assert.True(t, published.Equal(got.PubDate))
}
