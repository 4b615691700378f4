package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"yamdb/internal/models"
)

// MemoryStore keeps every table in maps behind one mutex. It applies the same
// uniqueness and cascade rules as the relational schema.
type MemoryStore struct {
	mu sync.RWMutex

	nextID     uint
	users      map[uint]models.User
	categories map[uint]models.Category
	genres     map[uint]models.Genre
	titles     map[uint]models.Title
	links      map[uint]models.GenreTitle
	reviews    map[uint]models.Review
	comments   map[uint]models.Comment

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[uint]models.User),
		categories: make(map[uint]models.Category),
		genres:     make(map[uint]models.Genre),
		titles:     make(map[uint]models.Title),
		links:      make(map[uint]models.GenreTitle),
		reviews:    make(map[uint]models.Review),
		comments:   make(map[uint]models.Comment),
		now:        time.Now,
	}
}

func (s *MemoryStore) id() uint {
	s.nextID++
	return s.nextID
}

func window[T any](items []T, page Page) []T {
	if page.Offset >= len(items) {
		return []T{}
	}
	items = items[page.Offset:]
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Accounts

func (s *MemoryStore) usernameOrEmailTaken(id uint, username, email string) bool {
	for _, u := range s.users {
		if u.ID == id {
			continue
		}
		if u.Username == username || u.Email == email {
			return true
		}
	}
	return false
}

func (s *MemoryStore) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.usernameOrEmailTaken(0, u.Username, u.Email) {
		return ErrConflict
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.ID == 0 {
		u.ID = s.id()
	} else if u.ID > s.nextID {
		s.nextID = u.ID
	}
	u.CreatedAt = s.now()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = *u
	return nil
}

func (s *MemoryStore) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindUsers(ctx context.Context, username, email string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found []models.User
	for _, u := range s.users {
		if u.Username == username || u.Email == email {
			found = append(found, u)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ID < found[j].ID })
	return found, nil
}

func (s *MemoryStore) ListUsers(ctx context.Context, search string, page Page) ([]models.User, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var users []models.User
	for _, u := range s.users {
		if search == "" || containsFold(u.Username, search) {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return window(users, page), int64(len(users)), nil
}

func (s *MemoryStore) UpdateUser(ctx context.Context, id uint, fields UserFields) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	fields.apply(&u)
	if s.usernameOrEmailTaken(id, u.Username, u.Email) {
		return nil, ErrConflict
	}
	u.UpdatedAt = s.now()
	s.users[id] = u
	return &u, nil
}

func (s *MemoryStore) DeleteUser(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	for rid, r := range s.reviews {
		if r.AuthorID == id {
			s.deleteReviewLocked(rid)
		}
	}
	for cid, c := range s.comments {
		if c.AuthorID == id {
			delete(s.comments, cid)
		}
	}
	return nil
}

func (s *MemoryStore) SetConfirmationCode(ctx context.Context, id uint, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.ConfirmationCode = hash
	s.users[id] = u
	return nil
}

// Categories and genres

func (s *MemoryStore) CreateCategory(ctx context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.categories {
		if existing.Slug == c.Slug {
			return ErrConflict
		}
	}
	c.ID = s.id()
	s.categories[c.ID] = *c
	return nil
}

func (s *MemoryStore) ListCategories(ctx context.Context, search string, page Page) ([]models.Category, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var categories []models.Category
	for _, c := range s.categories {
		if search == "" || containsFold(c.Name, search) {
			categories = append(categories, c)
		}
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Name != categories[j].Name {
			return categories[i].Name < categories[j].Name
		}
		return categories[i].ID < categories[j].ID
	})
	return window(categories, page), int64(len(categories)), nil
}

func (s *MemoryStore) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.categories {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) DeleteCategory(ctx context.Context, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, c := range s.categories {
		if c.Slug != slug {
			continue
		}
		delete(s.categories, id)
		for tid, t := range s.titles {
			if t.CategoryID != nil && *t.CategoryID == id {
				t.CategoryID = nil
				s.titles[tid] = t
			}
		}
		return nil
	}
	return ErrNotFound
}

func (s *MemoryStore) CreateGenre(ctx context.Context, g *models.Genre) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.genres {
		if existing.Slug == g.Slug {
			return ErrConflict
		}
	}
	g.ID = s.id()
	s.genres[g.ID] = *g
	return nil
}

func (s *MemoryStore) ListGenres(ctx context.Context, name string, page Page) ([]models.Genre, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var genres []models.Genre
	for _, g := range s.genres {
		if name == "" || g.Name == name {
			genres = append(genres, g)
		}
	}
	sort.Slice(genres, func(i, j int) bool {
		if genres[i].Name != genres[j].Name {
			return genres[i].Name < genres[j].Name
		}
		return genres[i].ID < genres[j].ID
	})
	return window(genres, page), int64(len(genres)), nil
}

func (s *MemoryStore) GetGenresBySlugs(ctx context.Context, slugs []string) ([]models.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(slugs))
	for _, slug := range slugs {
		wanted[slug] = true
	}
	genres := []models.Genre{}
	for _, g := range s.genres {
		if wanted[g.Slug] {
			genres = append(genres, g)
		}
	}
	sort.Slice(genres, func(i, j int) bool { return genres[i].ID < genres[j].ID })
	return genres, nil
}

func (s *MemoryStore) DeleteGenre(ctx context.Context, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, g := range s.genres {
		if g.Slug != slug {
			continue
		}
		delete(s.genres, id)
		for lid, l := range s.links {
			if l.GenreID == id {
				delete(s.links, lid)
			}
		}
		return nil
	}
	return ErrNotFound
}

// Titles

// hydrate fills the derived and related fields of a stored title.
func (s *MemoryStore) hydrate(t models.Title) models.Title {
	if t.CategoryID != nil {
		if c, ok := s.categories[*t.CategoryID]; ok {
			t.Category = &c
		}
	} else {
		t.Category = nil
	}

	var linkIDs []uint
	for lid, l := range s.links {
		if l.TitleID == t.ID {
			linkIDs = append(linkIDs, lid)
		}
	}
	sort.Slice(linkIDs, func(i, j int) bool { return linkIDs[i] < linkIDs[j] })
	t.Genres = make([]models.Genre, 0, len(linkIDs))
	for _, lid := range linkIDs {
		t.Genres = append(t.Genres, s.genres[s.links[lid].GenreID])
	}

	var sum, n int
	for _, r := range s.reviews {
		if r.TitleID == t.ID {
			sum += r.Score
			n++
		}
	}
	t.Rating = nil
	if n > 0 {
		avg := float64(sum) / float64(n)
		t.Rating = &avg
	}
	return t
}

func (s *MemoryStore) linkGenresLocked(titleID uint, genreIDs []uint) {
	for _, gid := range genreIDs {
		id := s.id()
		s.links[id] = models.GenreTitle{ID: id, TitleID: titleID, GenreID: gid}
	}
}

func (s *MemoryStore) CreateTitle(ctx context.Context, t *models.Title, genreIDs []uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = s.id()
	stored := *t
	stored.Category, stored.Genres, stored.Rating = nil, nil, nil
	s.titles[t.ID] = stored
	s.linkGenresLocked(t.ID, genreIDs)
	*t = s.hydrate(stored)
	return nil
}

func (s *MemoryStore) GetTitle(ctx context.Context, id uint) (*models.Title, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.titles[id]
	if !ok {
		return nil, ErrNotFound
	}
	t = s.hydrate(t)
	return &t, nil
}

func (s *MemoryStore) matches(t models.Title, f TitleFilter) bool {
	if f.Year != nil && t.Year != *f.Year {
		return false
	}
	if f.Name != "" && !containsFold(t.Name, f.Name) {
		return false
	}
	if f.Category != "" && (t.Category == nil || t.Category.Slug != f.Category) {
		return false
	}
	if f.Genre != "" {
		found := false
		for _, g := range t.Genres {
			if g.Slug == f.Genre {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (s *MemoryStore) ListTitles(ctx context.Context, filter TitleFilter, page Page) ([]models.Title, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var titles []models.Title
	for _, t := range s.titles {
		t = s.hydrate(t)
		if s.matches(t, filter) {
			titles = append(titles, t)
		}
	}
	sort.Slice(titles, func(i, j int) bool { return titles[i].ID < titles[j].ID })
	return window(titles, page), int64(len(titles)), nil
}

func (s *MemoryStore) UpdateTitle(ctx context.Context, id uint, fields TitleFields) (*models.Title, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.titles[id]
	if !ok {
		return nil, ErrNotFound
	}
	if fields.Name != nil {
		t.Name = *fields.Name
	}
	if fields.Year != nil {
		t.Year = *fields.Year
	}
	if fields.Description != nil {
		t.Description = *fields.Description
	}
	if fields.CategoryID != nil {
		t.CategoryID = *fields.CategoryID
	}
	s.titles[id] = t

	if fields.GenreIDs != nil {
		for lid, l := range s.links {
			if l.TitleID == id {
				delete(s.links, lid)
			}
		}
		s.linkGenresLocked(id, fields.GenreIDs)
	}
	t = s.hydrate(t)
	return &t, nil
}

func (s *MemoryStore) DeleteTitle(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.titles[id]; !ok {
		return ErrNotFound
	}
	delete(s.titles, id)
	for lid, l := range s.links {
		if l.TitleID == id {
			delete(s.links, lid)
		}
	}
	for rid, r := range s.reviews {
		if r.TitleID == id {
			s.deleteReviewLocked(rid)
		}
	}
	return nil
}

// Reviews

func (s *MemoryStore) withAuthor(r models.Review) models.Review {
	r.Author = s.users[r.AuthorID]
	return r
}

func (s *MemoryStore) CreateReview(ctx context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.reviews {
		if existing.TitleID == r.TitleID && existing.AuthorID == r.AuthorID {
			return ErrConflict
		}
	}
	r.ID = s.id()
	if r.PubDate.IsZero() {
		r.PubDate = s.now()
	}
	stored := *r
	stored.Author, stored.Title = models.User{}, models.Title{}
	s.reviews[r.ID] = stored
	*r = s.withAuthor(stored)
	return nil
}

func (s *MemoryStore) GetReview(ctx context.Context, titleID, id uint) (*models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reviews[id]
	if !ok || r.TitleID != titleID {
		return nil, ErrNotFound
	}
	r = s.withAuthor(r)
	return &r, nil
}

func (s *MemoryStore) ListReviews(ctx context.Context, titleID uint, page Page) ([]models.Review, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var reviews []models.Review
	for _, r := range s.reviews {
		if r.TitleID == titleID {
			reviews = append(reviews, s.withAuthor(r))
		}
	}
	sort.Slice(reviews, func(i, j int) bool {
		if !reviews[i].PubDate.Equal(reviews[j].PubDate) {
			return reviews[i].PubDate.Before(reviews[j].PubDate)
		}
		return reviews[i].ID < reviews[j].ID
	})
	return window(reviews, page), int64(len(reviews)), nil
}

func (s *MemoryStore) UpdateReview(ctx context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.reviews[r.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Text = r.Text
	stored.Score = r.Score
	s.reviews[r.ID] = stored
	return nil
}

func (s *MemoryStore) deleteReviewLocked(id uint) {
	delete(s.reviews, id)
	for cid, c := range s.comments {
		if c.ReviewID == id {
			delete(s.comments, cid)
		}
	}
}

func (s *MemoryStore) DeleteReview(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reviews[id]; !ok {
		return ErrNotFound
	}
	s.deleteReviewLocked(id)
	return nil
}

// Comments

func (s *MemoryStore) CreateComment(ctx context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reviews[c.ReviewID]; !ok {
		return ErrNotFound
	}
	c.ID = s.id()
	if c.PubDate.IsZero() {
		c.PubDate = s.now()
	}
	stored := *c
	stored.Author, stored.Review = models.User{}, models.Review{}
	s.comments[c.ID] = stored
	c.Author = s.users[c.AuthorID]
	return nil
}

func (s *MemoryStore) GetComment(ctx context.Context, reviewID, id uint) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok || c.ReviewID != reviewID {
		return nil, ErrNotFound
	}
	c.Author = s.users[c.AuthorID]
	return &c, nil
}

func (s *MemoryStore) ListComments(ctx context.Context, reviewID uint, page Page) ([]models.Comment, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var comments []models.Comment
	for _, c := range s.comments {
		if c.ReviewID == reviewID {
			c.Author = s.users[c.AuthorID]
			comments = append(comments, c)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		if !comments[i].PubDate.Equal(comments[j].PubDate) {
			return comments[i].PubDate.Before(comments[j].PubDate)
		}
		return comments[i].ID < comments[j].ID
	})
	return window(comments, page), int64(len(comments)), nil
}

func (s *MemoryStore) UpdateComment(ctx context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.comments[c.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Text = c.Text
	s.comments[c.ID] = stored
	return nil
}

func (s *MemoryStore) DeleteComment(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return ErrNotFound
	}
	delete(s.comments, id)
	return nil
}
