// Package store persists accounts and content. The gorm implementation backs
// production; the in-memory one serves local runs and tests.
package store

import (
	"context"
	"errors"

	"yamdb/internal/models"
)

var (
	ErrNotFound = errors.New("store: record not found")
	ErrConflict = errors.New("store: unique constraint violated")
)

// Page selects a window of an ordered listing.
type Page struct {
	Limit  int
	Offset int
}

// UserFields lists the account columns a partial update may touch.
type UserFields struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
	Role      *models.Role
}

func (f UserFields) apply(u *models.User) {
	if f.Username != nil {
		u.Username = *f.Username
	}
	if f.Email != nil {
		u.Email = *f.Email
	}
	if f.FirstName != nil {
		u.FirstName = *f.FirstName
	}
	if f.LastName != nil {
		u.LastName = *f.LastName
	}
	if f.Bio != nil {
		u.Bio = *f.Bio
	}
	if f.Role != nil {
		u.Role = *f.Role
	}
}

type AccountStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// FindUsers returns every account whose username or email matches.
	FindUsers(ctx context.Context, username, email string) ([]models.User, error)
	ListUsers(ctx context.Context, search string, page Page) ([]models.User, int64, error)
	UpdateUser(ctx context.Context, id uint, fields UserFields) (*models.User, error)
	DeleteUser(ctx context.Context, id uint) error
	SetConfirmationCode(ctx context.Context, id uint, hash string) error
}

// TitleFilter narrows title listings; zero values are ignored.
type TitleFilter struct {
	Genre    string
	Category string
	Year     *int
	Name     string
}

// TitleFields is a partial title update. GenreIDs replaces the whole genre set
// when non-nil.
type TitleFields struct {
	Name        *string
	Year        *int
	Description *string
	CategoryID  **uint
	GenreIDs    []uint
}

type ContentStore interface {
	CreateCategory(ctx context.Context, c *models.Category) error
	ListCategories(ctx context.Context, search string, page Page) ([]models.Category, int64, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	DeleteCategory(ctx context.Context, slug string) error

	CreateGenre(ctx context.Context, g *models.Genre) error
	ListGenres(ctx context.Context, name string, page Page) ([]models.Genre, int64, error)
	GetGenresBySlugs(ctx context.Context, slugs []string) ([]models.Genre, error)
	DeleteGenre(ctx context.Context, slug string) error

	CreateTitle(ctx context.Context, t *models.Title, genreIDs []uint) error
	GetTitle(ctx context.Context, id uint) (*models.Title, error)
	ListTitles(ctx context.Context, filter TitleFilter, page Page) ([]models.Title, int64, error)
	UpdateTitle(ctx context.Context, id uint, fields TitleFields) (*models.Title, error)
	DeleteTitle(ctx context.Context, id uint) error

	CreateReview(ctx context.Context, r *models.Review) error
	GetReview(ctx context.Context, titleID, id uint) (*models.Review, error)
	ListReviews(ctx context.Context, titleID uint, page Page) ([]models.Review, int64, error)
	UpdateReview(ctx context.Context, r *models.Review) error
	DeleteReview(ctx context.Context, id uint) error

	CreateComment(ctx context.Context, c *models.Comment) error
	GetComment(ctx context.Context, reviewID, id uint) (*models.Comment, error)
	ListComments(ctx context.Context, reviewID uint, page Page) ([]models.Comment, int64, error)
	UpdateComment(ctx context.Context, c *models.Comment) error
	DeleteComment(ctx context.Context, id uint) error
}

// Store is everything the API needs from persistence.
type Store interface {
	AccountStore
	ContentStore
	Ping(ctx context.Context) error
}
