package handlers

import (
	"context"
	"errors"
	"net/http"

	"yamdb/internal/apperr"
	"yamdb/internal/models"
	"yamdb/internal/store"

	"github.com/gin-gonic/gin"
)

type slugRequest struct {
	Name string `json:"name" binding:"required,max=256"`
	Slug string `json:"slug" binding:"required,max=50,slug"`
}

func slugTaken(err error, what string) error {
	if errors.Is(err, store.ErrConflict) {
		return apperr.Field("slug", what+" with this slug already exists.")
	}
	return err
}

// CategoryHandler serves /categories/. Search is a substring match on name.
type CategoryHandler struct {
	Deps
}

func NewCategoryHandler(d Deps) *CategoryHandler {
	return &CategoryHandler{Deps: d}
}

func (h *CategoryHandler) List(c *gin.Context) {
	page := pageFromQuery(c, h.Limits)
	rows, total, err := h.Store.ListCategories(c.Request.Context(), c.Query("search"), page)
	if err != nil {
		RenderError(c, err)
		return
	}
	renderPage(c, mapViews(rows, func(m *models.Category) slugView {
		return slugView{Name: m.Name, Slug: m.Slug}
	}), total, page)
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req slugRequest
	if err := bindJSON(c, &req); err != nil {
		RenderError(c, err)
		return
	}
	row := &models.Category{Name: req.Name, Slug: req.Slug}
	if err := h.Store.CreateCategory(c.Request.Context(), row); err != nil {
		RenderError(c, slugTaken(err, "category"))
		return
	}
	c.JSON(http.StatusCreated, slugView{Name: row.Name, Slug: row.Slug})
}

// Delete detaches the category from its titles; the titles stay.
func (h *CategoryHandler) Delete(c *gin.Context) {
	h.removeBySlug(c, h.Store.DeleteCategory, "category not found")
}

// GenreHandler serves /genres/. Unlike categories, search matches the whole
// name.
type GenreHandler struct {
	Deps
}

func NewGenreHandler(d Deps) *GenreHandler {
	return &GenreHandler{Deps: d}
}

func (h *GenreHandler) List(c *gin.Context) {
	page := pageFromQuery(c, h.Limits)
	rows, total, err := h.Store.ListGenres(c.Request.Context(), c.Query("search"), page)
	if err != nil {
		RenderError(c, err)
		return
	}
	renderPage(c, mapViews(rows, func(m *models.Genre) slugView {
		return slugView{Name: m.Name, Slug: m.Slug}
	}), total, page)
}

func (h *GenreHandler) Create(c *gin.Context) {
	var req slugRequest
	if err := bindJSON(c, &req); err != nil {
		RenderError(c, err)
		return
	}
	row := &models.Genre{Name: req.Name, Slug: req.Slug}
	if err := h.Store.CreateGenre(c.Request.Context(), row); err != nil {
		RenderError(c, slugTaken(err, "genre"))
		return
	}
	c.JSON(http.StatusCreated, slugView{Name: row.Name, Slug: row.Slug})
}

func (h *GenreHandler) Delete(c *gin.Context) {
	h.removeBySlug(c, h.Store.DeleteGenre, "genre not found")
}

func (d Deps) removeBySlug(c *gin.Context, del func(context.Context, string) error, detail string) {
	if err := del(c.Request.Context(), c.Param("slug")); err != nil {
		RenderError(c, notFound(err, detail))
		return
	}
	c.Status(http.StatusNoContent)
}
