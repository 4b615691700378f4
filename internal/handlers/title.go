package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"yamdb/internal/apperr"
	"yamdb/internal/models"
	"yamdb/internal/store"

	"github.com/gin-gonic/gin"
)

type TitleHandler struct {
	Deps
}

func NewTitleHandler(d Deps) *TitleHandler {
	return &TitleHandler{Deps: d}
}

type titleCreateRequest struct {
	Name        string   `json:"name" binding:"required,max=256"`
	Year        *int     `json:"year" binding:"required,notfuture"`
	Description string   `json:"description"`
	Genre       []string `json:"genre" binding:"required"`
	Category    string   `json:"category" binding:"required"`
}

type titlePatchRequest struct {
	Name        *string  `json:"name" binding:"omitempty,max=256"`
	Year        *int     `json:"year" binding:"omitempty,notfuture"`
	Description *string  `json:"description"`
	Genre       []string `json:"genre"`
	Category    *string  `json:"category"`
}

// resolveGenres maps slugs to ids, keeping the request order and dropping
// repeats. An unknown slug is reported on the genre field.
func (h *TitleHandler) resolveGenres(ctx context.Context, slugs []string) ([]uint, error) {
	genres, err := h.Store.GetGenresBySlugs(ctx, slugs)
	if err != nil {
		return nil, err
	}
	bySlug := make(map[string]uint, len(genres))
	for _, g := range genres {
		bySlug[g.Slug] = g.ID
	}

	ids := make([]uint, 0, len(slugs))
	seen := make(map[uint]bool, len(slugs))
	for _, slug := range slugs {
		id, ok := bySlug[slug]
		if !ok {
			return nil, apperr.Field("genre", fmt.Sprintf("Object with slug=%s does not exist.", slug))
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (h *TitleHandler) resolveCategory(ctx context.Context, slug string) (uint, error) {
	cat, err := h.Store.GetCategoryBySlug(ctx, slug)
	if errors.Is(err, store.ErrNotFound) {
		return 0, apperr.Field("category", fmt.Sprintf("Object with slug=%s does not exist.", slug))
	}
	if err != nil {
		return 0, err
	}
	return cat.ID, nil
}

// List /titles/?genre=&category=&year=&name=
func (h *TitleHandler) List(c *gin.Context) {
	filter := store.TitleFilter{
		Genre:    c.Query("genre"),
		Category: c.Query("category"),
		Name:     c.Query("name"),
	}
	if raw := c.Query("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			RenderError(c, apperr.Field("year", "Enter a number."))
			return
		}
		filter.Year = &year
	}

	page := pageFromQuery(c, h.Limits)
	titles, total, err := h.Store.ListTitles(c.Request.Context(), filter, page)
	if err != nil {
		RenderError(c, err)
		return
	}
	renderPage(c, mapViews(titles, newTitleView), total, page)
}

func (h *TitleHandler) Create(c *gin.Context) {
	var req titleCreateRequest
	if err := bindJSON(c, &req); err != nil {
		RenderError(c, err)
		return
	}
	ctx := c.Request.Context()

	genreIDs, err := h.resolveGenres(ctx, req.Genre)
	if err != nil {
		RenderError(c, err)
		return
	}
	categoryID, err := h.resolveCategory(ctx, req.Category)
	if err != nil {
		RenderError(c, err)
		return
	}

	title := &models.Title{
		Name:        req.Name,
		Year:        *req.Year,
		Description: req.Description,
		CategoryID:  &categoryID,
	}
	if err := h.Store.CreateTitle(ctx, title, genreIDs); err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newTitleView(title))
}

func (h *TitleHandler) Get(c *gin.Context) {
	id, err := pathID(c, "title_id", "title not found")
	if err != nil {
		RenderError(c, err)
		return
	}
	title, err := h.Store.GetTitle(c.Request.Context(), id)
	if err != nil {
		RenderError(c, notFound(err, "title not found"))
		return
	}
	c.JSON(http.StatusOK, newTitleView(title))
}

// Update applies a partial update. An absent genre list leaves the genres
// untouched; a present one replaces them.
func (h *TitleHandler) Update(c *gin.Context) {
	id, err := pathID(c, "title_id", "title not found")
	if err != nil {
		RenderError(c, err)
		return
	}
	ctx := c.Request.Context()
	if _, err := h.Store.GetTitle(ctx, id); err != nil {
		RenderError(c, notFound(err, "title not found"))
		return
	}

	var req titlePatchRequest
	if err := bindJSON(c, &req); err != nil {
		RenderError(c, err)
		return
	}

	fields := store.TitleFields{
		Name:        req.Name,
		Year:        req.Year,
		Description: req.Description,
	}
	if req.Genre != nil {
		if fields.GenreIDs, err = h.resolveGenres(ctx, req.Genre); err != nil {
			RenderError(c, err)
			return
		}
	}
	if req.Category != nil {
		categoryID, err := h.resolveCategory(ctx, *req.Category)
		if err != nil {
			RenderError(c, err)
			return
		}
		ref := &categoryID
		fields.CategoryID = &ref
	}

	title, err := h.Store.UpdateTitle(ctx, id, fields)
	if err != nil {
		RenderError(c, notFound(err, "title not found"))
		return
	}
	c.JSON(http.StatusOK, newTitleView(title))
}

// Delete removes the title together with its reviews and their comments.
func (h *TitleHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "title_id", "title not found")
	if err != nil {
		RenderError(c, err)
		return
	}
	if err := h.Store.DeleteTitle(c.Request.Context(), id); err != nil {
		RenderError(c, notFound(err, "title not found"))
		return
	}
	c.Status(http.StatusNoContent)
}
