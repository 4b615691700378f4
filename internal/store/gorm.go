package store

import (
	"context"
	"errors"
	"strings"

	"yamdb/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pgUniqueViolation = "23505"

// GormStore implements Store on top of a gorm connection. Referential rules
// (cascades, SET NULL on category) are enforced by the foreign keys AutoMigrate
// creates.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrConflict
	}
	return err
}

func affected(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func paginate(page Page) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if page.Limit > 0 {
			tx = tx.Limit(page.Limit)
		}
		if page.Offset > 0 {
			tx = tx.Offset(page.Offset)
		}
		return tx
	}
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Accounts

func (s *GormStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

func (s *GormStore) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) FindUsers(ctx context.Context, username, email string) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", username, email).
		Order("id ASC").
		Find(&users).Error
	return users, translate(err)
}

func (s *GormStore) ListUsers(ctx context.Context, search string, page Page) ([]models.User, int64, error) {
	filter := func(tx *gorm.DB) *gorm.DB {
		if search != "" {
			tx = tx.Where("username ILIKE ?", containsPattern(search))
		}
		return tx
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var users []models.User
	err := s.db.WithContext(ctx).
		Scopes(filter, paginate(page)).
		Order("username ASC").
		Find(&users).Error
	return users, total, translate(err)
}

func (s *GormStore) UpdateUser(ctx context.Context, id uint, fields UserFields) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, id).Error; err != nil {
			return err
		}
		fields.apply(&u)
		return tx.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
			"username":   u.Username,
			"email":      u.Email,
			"first_name": u.FirstName,
			"last_name":  u.LastName,
			"bio":        u.Bio,
			"role":       u.Role,
		}).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) DeleteUser(ctx context.Context, id uint) error {
	return affected(s.db.WithContext(ctx).Delete(&models.User{}, id))
}

func (s *GormStore) SetConfirmationCode(ctx context.Context, id uint, hash string) error {
	return affected(s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("confirmation_code", hash))
}

// Categories and genres

func (s *GormStore) CreateCategory(ctx context.Context, c *models.Category) error {
	return translate(s.db.WithContext(ctx).Create(c).Error)
}

func (s *GormStore) ListCategories(ctx context.Context, search string, page Page) ([]models.Category, int64, error) {
	filter := func(tx *gorm.DB) *gorm.DB {
		if search != "" {
			tx = tx.Where("name ILIKE ?", containsPattern(search))
		}
		return tx
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Category{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var categories []models.Category
	err := s.db.WithContext(ctx).
		Scopes(filter, paginate(page)).
		Order("name ASC, id ASC").
		Find(&categories).Error
	return categories, total, translate(err)
}

func (s *GormStore) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *GormStore) DeleteCategory(ctx context.Context, slug string) error {
	return affected(s.db.WithContext(ctx).Where("slug = ?", slug).Delete(&models.Category{}))
}

func (s *GormStore) CreateGenre(ctx context.Context, g *models.Genre) error {
	return translate(s.db.WithContext(ctx).Create(g).Error)
}

func (s *GormStore) ListGenres(ctx context.Context, name string, page Page) ([]models.Genre, int64, error) {
	filter := func(tx *gorm.DB) *gorm.DB {
		if name != "" {
			tx = tx.Where("name = ?", name)
		}
		return tx
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Genre{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var genres []models.Genre
	err := s.db.WithContext(ctx).
		Scopes(filter, paginate(page)).
		Order("name ASC, id ASC").
		Find(&genres).Error
	return genres, total, translate(err)
}

func (s *GormStore) GetGenresBySlugs(ctx context.Context, slugs []string) ([]models.Genre, error) {
	var genres []models.Genre
	if len(slugs) == 0 {
		return genres, nil
	}
	err := s.db.WithContext(ctx).Where("slug IN ?", slugs).Order("id ASC").Find(&genres).Error
	return genres, translate(err)
}

func (s *GormStore) DeleteGenre(ctx context.Context, slug string) error {
	return affected(s.db.WithContext(ctx).Where("slug = ?", slug).Delete(&models.Genre{}))
}

// Titles

func withRating(tx *gorm.DB) *gorm.DB {
	return tx.Select("titles.*, (SELECT AVG(reviews.score) FROM reviews WHERE reviews.title_id = titles.id) AS rating")
}

func titleFilter(f TitleFilter) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if f.Genre != "" {
			tx = tx.Where(`EXISTS (SELECT 1 FROM genre_titles JOIN genres ON genres.id = genre_titles.genre_id
				WHERE genre_titles.title_id = titles.id AND genres.slug = ?)`, f.Genre)
		}
		if f.Category != "" {
			tx = tx.Where("titles.category_id IN (SELECT id FROM categories WHERE slug = ?)", f.Category)
		}
		if f.Year != nil {
			tx = tx.Where("titles.year = ?", *f.Year)
		}
		if f.Name != "" {
			tx = tx.Where("titles.name ILIKE ?", containsPattern(f.Name))
		}
		return tx
	}
}

// fillGenres loads the genre set of every title in one query.
func (s *GormStore) fillGenres(ctx context.Context, titles []models.Title) error {
	if len(titles) == 0 {
		return nil
	}
	ids := make([]uint, len(titles))
	for i, t := range titles {
		ids[i] = t.ID
	}

	var links []models.GenreTitle
	err := s.db.WithContext(ctx).
		Preload("Genre").
		Where("title_id IN ?", ids).
		Order("id ASC").
		Find(&links).Error
	if err != nil {
		return translate(err)
	}

	byTitle := make(map[uint][]models.Genre)
	for _, l := range links {
		byTitle[l.TitleID] = append(byTitle[l.TitleID], l.Genre)
	}
	for i := range titles {
		titles[i].Genres = byTitle[titles[i].ID]
		if titles[i].Genres == nil {
			titles[i].Genres = []models.Genre{}
		}
	}
	return nil
}

func linkGenres(tx *gorm.DB, titleID uint, genreIDs []uint) error {
	if len(genreIDs) == 0 {
		return nil
	}
	links := make([]models.GenreTitle, 0, len(genreIDs))
	for _, gid := range genreIDs {
		links = append(links, models.GenreTitle{TitleID: titleID, GenreID: gid})
	}
	return tx.Omit(clause.Associations).Create(&links).Error
}

func (s *GormStore) CreateTitle(ctx context.Context, t *models.Title, genreIDs []uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(t).Error; err != nil {
			return err
		}
		return linkGenres(tx, t.ID, genreIDs)
	})
	if err != nil {
		return translate(err)
	}

	loaded, err := s.GetTitle(ctx, t.ID)
	if err != nil {
		return err
	}
	*t = *loaded
	return nil
}

func (s *GormStore) GetTitle(ctx context.Context, id uint) (*models.Title, error) {
	var t models.Title
	err := s.db.WithContext(ctx).
		Model(&models.Title{}).
		Scopes(withRating).
		Preload("Category").
		Where("titles.id = ?", id).
		Take(&t).Error
	if err != nil {
		return nil, translate(err)
	}
	titles := []models.Title{t}
	if err := s.fillGenres(ctx, titles); err != nil {
		return nil, err
	}
	return &titles[0], nil
}

func (s *GormStore) ListTitles(ctx context.Context, filter TitleFilter, page Page) ([]models.Title, int64, error) {
	var total int64
	err := s.db.WithContext(ctx).
		Model(&models.Title{}).
		Scopes(titleFilter(filter)).
		Count(&total).Error
	if err != nil {
		return nil, 0, translate(err)
	}

	var titles []models.Title
	err = s.db.WithContext(ctx).
		Model(&models.Title{}).
		Scopes(withRating, titleFilter(filter), paginate(page)).
		Preload("Category").
		Order("titles.id ASC").
		Find(&titles).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	if err := s.fillGenres(ctx, titles); err != nil {
		return nil, 0, err
	}
	return titles, total, nil
}

func (s *GormStore) UpdateTitle(ctx context.Context, id uint, fields TitleFields) (*models.Title, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Title
		if err := tx.First(&t, id).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if fields.Name != nil {
			updates["name"] = *fields.Name
		}
		if fields.Year != nil {
			updates["year"] = *fields.Year
		}
		if fields.Description != nil {
			updates["description"] = *fields.Description
		}
		if fields.CategoryID != nil {
			updates["category_id"] = *fields.CategoryID
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.Title{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}

		if fields.GenreIDs != nil {
			if err := tx.Where("title_id = ?", id).Delete(&models.GenreTitle{}).Error; err != nil {
				return err
			}
			return linkGenres(tx, id, fields.GenreIDs)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return s.GetTitle(ctx, id)
}

func (s *GormStore) DeleteTitle(ctx context.Context, id uint) error {
	return affected(s.db.WithContext(ctx).Delete(&models.Title{}, id))
}

// Reviews

func (s *GormStore) CreateReview(ctx context.Context, r *models.Review) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(r).Error; err != nil {
		return translate(err)
	}
	return translate(s.db.WithContext(ctx).Preload("Author").First(r, r.ID).Error)
}

func (s *GormStore) GetReview(ctx context.Context, titleID, id uint) (*models.Review, error) {
	var r models.Review
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("title_id = ? AND id = ?", titleID, id).
		First(&r).Error
	if err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *GormStore) ListReviews(ctx context.Context, titleID uint, page Page) ([]models.Review, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Review{}).Where("title_id = ?", titleID).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var reviews []models.Review
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("title_id = ?", titleID).
		Scopes(paginate(page)).
		Order("pub_date ASC, id ASC").
		Find(&reviews).Error
	return reviews, total, translate(err)
}

func (s *GormStore) UpdateReview(ctx context.Context, r *models.Review) error {
	return affected(s.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("id = ?", r.ID).
		Updates(map[string]interface{}{"text": r.Text, "score": r.Score}))
}

func (s *GormStore) DeleteReview(ctx context.Context, id uint) error {
	return affected(s.db.WithContext(ctx).Delete(&models.Review{}, id))
}

// Comments

func (s *GormStore) CreateComment(ctx context.Context, c *models.Comment) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error; err != nil {
		return translate(err)
	}
	return translate(s.db.WithContext(ctx).Preload("Author").First(c, c.ID).Error)
}

func (s *GormStore) GetComment(ctx context.Context, reviewID, id uint) (*models.Comment, error) {
	var c models.Comment
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("review_id = ? AND id = ?", reviewID, id).
		First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *GormStore) ListComments(ctx context.Context, reviewID uint, page Page) ([]models.Comment, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Comment{}).Where("review_id = ?", reviewID).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("review_id = ?", reviewID).
		Scopes(paginate(page)).
		Order("pub_date ASC, id ASC").
		Find(&comments).Error
	return comments, total, translate(err)
}

func (s *GormStore) UpdateComment(ctx context.Context, c *models.Comment) error {
	return affected(s.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id = ?", c.ID).
		Update("text", c.Text))
}

func (s *GormStore) DeleteComment(ctx context.Context, id uint) error {
	return affected(s.db.WithContext(ctx).Delete(&models.Comment{}, id))
}
