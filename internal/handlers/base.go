package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"yamdb/internal/apperr"
	"yamdb/internal/config"
	"yamdb/internal/middleware"
	"yamdb/internal/store"
	"yamdb/internal/utils"
	"yamdb/internal/validation"

	"github.com/gin-gonic/gin"
)

// Deps is what every resource handler is built from.
type Deps struct {
	Store  store.Store
	Limits config.LimitsConfig
}

// RenderError writes the JSON error body for err and aborts the request.
func RenderError(c *gin.Context, err error) {
	middleware.AbortError(c, err)
}

// bindJSON decodes the body into obj, reporting failures field by field.
func bindJSON(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		return validation.Translate(err)
	}
	return nil
}

// notFound maps a missing row to a 404 with the given detail.
func notFound(err error, detail string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(detail)
	}
	return err
}

// pathID parses a numeric path parameter; anything else is a 404.
func pathID(c *gin.Context, name, detail string) (uint, error) {
	id, ok := utils.StringToID(c.Param(name))
	if !ok {
		return 0, apperr.NotFound(detail)
	}
	return id, nil
}

// pageFromQuery reads limit/offset. Missing or invalid values fall back to
// the defaults; limit is capped at MaxPageSize.
func pageFromQuery(c *gin.Context, limits config.LimitsConfig) store.Page {
	limit := utils.StringToInt(c.Query("limit"), limits.PageSize)
	if limit <= 0 {
		limit = limits.PageSize
	}
	if limit > limits.MaxPageSize {
		limit = limits.MaxPageSize
	}
	offset := utils.StringToInt(c.Query("offset"), 0)
	if offset < 0 {
		offset = 0
	}
	return store.Page{Limit: limit, Offset: offset}
}

type pageView struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

func requestURL(c *gin.Context) url.URL {
	u := *c.Request.URL
	u.Host = c.Request.Host
	u.Scheme = "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		u.Scheme = "https"
	}
	return u
}

func pageLink(c *gin.Context, limit, offset int) *string {
	u := requestURL(c)
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	} else {
		q.Del("offset")
	}
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}

// renderPage writes a limit/offset page with absolute next/previous links.
func renderPage(c *gin.Context, results any, count int64, page store.Page) {
	view := pageView{Count: count, Results: results}
	// Compared without adding so a huge offset cannot wrap around.
	if int64(page.Offset) < count-int64(page.Limit) {
		view.Next = pageLink(c, page.Limit, page.Offset+page.Limit)
	}
	if page.Offset > 0 {
		prev := page.Offset - page.Limit
		if prev < 0 {
			prev = 0
		}
		view.Previous = pageLink(c, page.Limit, prev)
	}
	c.JSON(http.StatusOK, view)
}
