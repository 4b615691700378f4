package handlers

import (
	"time"

	"yamdb/internal/models"
)

// Response bodies list their fields explicitly so internal keys never leak.

type userView struct {
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Bio       string      `json:"bio"`
	Role      models.Role `json:"role"`
}

func newUserView(u *models.User) userView {
	return userView{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		Role:      u.Role,
	}
}

type slugView struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type titleView struct {
	ID          uint       `json:"id"`
	Name        string     `json:"name"`
	Year        int        `json:"year"`
	Rating      *float64   `json:"rating"`
	Description string     `json:"description"`
	Genre       []slugView `json:"genre"`
	Category    *slugView  `json:"category"`
}

func newTitleView(t *models.Title) titleView {
	v := titleView{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      t.Rating,
		Description: t.Description,
		Genre:       make([]slugView, 0, len(t.Genres)),
	}
	for _, g := range t.Genres {
		v.Genre = append(v.Genre, slugView{Name: g.Name, Slug: g.Slug})
	}
	if t.Category != nil {
		v.Category = &slugView{Name: t.Category.Name, Slug: t.Category.Slug}
	}
	return v
}

type reviewView struct {
	ID      uint      `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

func newReviewView(r *models.Review) reviewView {
	return reviewView{ID: r.ID, Text: r.Text, Author: r.Author.Username, Score: r.Score, PubDate: r.PubDate}
}

type commentView struct {
	ID      uint      `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	PubDate time.Time `json:"pub_date"`
}

func newCommentView(c *models.Comment) commentView {
	return commentView{ID: c.ID, Text: c.Text, Author: c.Author.Username, PubDate: c.PubDate}
}

// mapViews converts a slice of rows with the given view constructor.
func mapViews[M any, V any](rows []M, view func(*M) V) []V {
	out := make([]V, 0, len(rows))
	for i := range rows {
		out = append(out, view(&rows[i]))
	}
	return out
}
