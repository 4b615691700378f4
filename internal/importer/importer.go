// Package importer bulk-loads the CSV export into the database. Every table is
// replaced wholesale inside one transaction, so running the same files twice
// leaves the same state.
package importer

import (
	"context"
	"fmt"
	"time"

	"yamdb/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// File names, in load order.
const (
	UsersFile      = "users.csv"
	CategoriesFile = "category.csv"
	GenresFile     = "genre.csv"
	TitlesFile     = "titles.csv"
	GenreTitleFile = "genre_title.csv"
	ReviewsFile    = "review.csv"
	CommentsFile   = "comments.csv"
)

// Dataset is the parsed content of a data directory.
type Dataset struct {
	Users      []models.User
	Categories []models.Category
	Genres     []models.Genre
	Titles     []models.Title
	GenreTitle []models.GenreTitle
	Reviews    []models.Review
	Comments   []models.Comment
}

// Counts reports rows per file.
func (d *Dataset) Counts() map[string]int {
	return map[string]int{
		UsersFile:      len(d.Users),
		CategoriesFile: len(d.Categories),
		GenresFile:     len(d.Genres),
		TitlesFile:     len(d.Titles),
		GenreTitleFile: len(d.GenreTitle),
		ReviewsFile:    len(d.Reviews),
		CommentsFile:   len(d.Comments),
	}
}

// Parse reads and validates every file in dir. The first bad row stops the
// parse; the error names the file and line.
func Parse(dir string) (*Dataset, error) {
	d := &Dataset{}
	steps := []func(string) error{
		d.parseUsers,
		d.parseCategories,
		d.parseGenres,
		d.parseTitles,
		d.parseGenreTitle,
		d.parseReviews,
		d.parseComments,
	}
	for _, step := range steps {
		if err := step(dir); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Dataset) parseUsers(dir string) error {
	records, err := readFile(dir, UsersFile, "id", "username", "email")
	if err != nil {
		return err
	}
	for _, r := range records {
		u := models.User{
			Bio:       r.str("bio"),
			FirstName: r.str("first_name"),
			LastName:  r.str("last_name"),
			Role:      models.Role(r.str("role")),
		}
		if u.ID, err = r.uint("id"); err != nil {
			return err
		}
		if u.Username, err = r.required("username"); err != nil {
			return err
		}
		if u.Email, err = r.required("email"); err != nil {
			return err
		}
		if u.Role == "" {
			u.Role = models.RoleUser
		}
		if !u.Role.Valid() {
			return r.errorf("unknown role %q", u.Role)
		}
		d.Users = append(d.Users, u)
	}
	return nil
}

func (d *Dataset) parseCategories(dir string) error {
	records, err := readFile(dir, CategoriesFile, "id", "name", "slug")
	if err != nil {
		return err
	}
	for _, r := range records {
		var c models.Category
		if c.ID, err = r.uint("id"); err != nil {
			return err
		}
		if c.Name, err = r.required("name"); err != nil {
			return err
		}
		if c.Slug, err = r.required("slug"); err != nil {
			return err
		}
		d.Categories = append(d.Categories, c)
	}
	return nil
}

func (d *Dataset) parseGenres(dir string) error {
	records, err := readFile(dir, GenresFile, "id", "name", "slug")
	if err != nil {
		return err
	}
	for _, r := range records {
		var g models.Genre
		if g.ID, err = r.uint("id"); err != nil {
			return err
		}
		if g.Name, err = r.required("name"); err != nil {
			return err
		}
		if g.Slug, err = r.required("slug"); err != nil {
			return err
		}
		d.Genres = append(d.Genres, g)
	}
	return nil
}

func (d *Dataset) parseTitles(dir string) error {
	records, err := readFile(dir, TitlesFile, "id", "name", "year", "category")
	if err != nil {
		return err
	}
	thisYear := time.Now().Year()
	for _, r := range records {
		t := models.Title{Description: r.str("description")}
		if t.ID, err = r.uint("id"); err != nil {
			return err
		}
		if t.Name, err = r.required("name"); err != nil {
			return err
		}
		if t.Year, err = r.int("year"); err != nil {
			return err
		}
		if t.Year > thisYear {
			return r.errorf("year %d is in the future", t.Year)
		}
		if t.CategoryID, err = r.optionalUint("category"); err != nil {
			return err
		}
		d.Titles = append(d.Titles, t)
	}
	return nil
}

func (d *Dataset) parseGenreTitle(dir string) error {
	records, err := readFile(dir, GenreTitleFile, "id", "title_id", "genre_id")
	if err != nil {
		return err
	}
	for _, r := range records {
		var gt models.GenreTitle
		if gt.ID, err = r.uint("id"); err != nil {
			return err
		}
		if gt.TitleID, err = r.uint("title_id"); err != nil {
			return err
		}
		if gt.GenreID, err = r.uint("genre_id"); err != nil {
			return err
		}
		d.GenreTitle = append(d.GenreTitle, gt)
	}
	return nil
}

func (d *Dataset) parseReviews(dir string) error {
	records, err := readFile(dir, ReviewsFile, "id", "title_id", "text", "author", "score", "pub_date")
	if err != nil {
		return err
	}
	for _, r := range records {
		rv := models.Review{Text: r.str("text")}
		if rv.ID, err = r.uint("id"); err != nil {
			return err
		}
		if rv.TitleID, err = r.uint("title_id"); err != nil {
			return err
		}
		if rv.AuthorID, err = r.uint("author"); err != nil {
			return err
		}
		if rv.Score, err = r.int("score"); err != nil {
			return err
		}
		if rv.Score < models.MinScore || rv.Score > models.MaxScore {
			return r.errorf("score %d is outside %d..%d", rv.Score, models.MinScore, models.MaxScore)
		}
		if rv.PubDate, err = r.time("pub_date"); err != nil {
			return err
		}
		d.Reviews = append(d.Reviews, rv)
	}
	return nil
}

func (d *Dataset) parseComments(dir string) error {
	records, err := readFile(dir, CommentsFile, "id", "review_id", "text", "author", "pub_date")
	if err != nil {
		return err
	}
	for _, r := range records {
		c := models.Comment{Text: r.str("text")}
		if c.ID, err = r.uint("id"); err != nil {
			return err
		}
		if c.ReviewID, err = r.uint("review_id"); err != nil {
			return err
		}
		if c.AuthorID, err = r.uint("author"); err != nil {
			return err
		}
		if c.PubDate, err = r.time("pub_date"); err != nil {
			return err
		}
		d.Comments = append(d.Comments, c)
	}
	return nil
}

const batchSize = 500

// sequenceTables have serial ids that must move past the imported ones.
var sequenceTables = []string{"users", "categories", "genres", "titles", "genre_titles", "reviews", "comments"}

// Load replaces the contents of every table with the dataset in a single
// transaction. Children are cleared first and parents inserted first so the
// foreign keys hold throughout.
func Load(ctx context.Context, conn *gorm.DB, d *Dataset) error {
	return conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wipe := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range []any{
			&models.Comment{}, &models.Review{}, &models.GenreTitle{},
			&models.Title{}, &models.Genre{}, &models.Category{}, &models.User{},
		} {
			if err := wipe.Delete(model).Error; err != nil {
				return fmt.Errorf("clear %T: %w", model, err)
			}
		}

		inserts := []struct {
			file string
			rows any
			n    int
		}{
			{UsersFile, &d.Users, len(d.Users)},
			{CategoriesFile, &d.Categories, len(d.Categories)},
			{GenresFile, &d.Genres, len(d.Genres)},
			{TitlesFile, &d.Titles, len(d.Titles)},
			{GenreTitleFile, &d.GenreTitle, len(d.GenreTitle)},
			{ReviewsFile, &d.Reviews, len(d.Reviews)},
			{CommentsFile, &d.Comments, len(d.Comments)},
		}
		for _, ins := range inserts {
			if ins.n == 0 {
				continue
			}
			if err := tx.Omit("Category", "Title", "Genre", "Review", "Author").CreateInBatches(ins.rows, batchSize).Error; err != nil {
				return fmt.Errorf("insert %s: %w", ins.file, err)
			}
			log.Info().Str("file", ins.file).Int("rows", ins.n).Msg("imported")
		}

		if tx.Dialector.Name() != "postgres" {
			return nil
		}
		for _, table := range sequenceTables {
			err := tx.Exec(fmt.Sprintf(
				"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)",
				table)).Error
			if err != nil {
				return fmt.Errorf("reset %s id sequence: %w", table, err)
			}
		}
		return nil
	})
}

// Run parses dir and loads it.
func Run(ctx context.Context, conn *gorm.DB, dir string) (*Dataset, error) {
	d, err := Parse(dir)
	if err != nil {
		return nil, err
	}
	if err := Load(ctx, conn, d); err != nil {
		return nil, err
	}
	return d, nil
}
