package handlers

import (
	"errors"
	"net/http"

	"yamdb/internal/apperr"
	"yamdb/internal/middleware"
	"yamdb/internal/models"
	"yamdb/internal/policy"
	"yamdb/internal/store"
	"yamdb/internal/utils"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	Deps
}

func NewReviewHandler(d Deps) *ReviewHandler {
	return &ReviewHandler{Deps: d}
}

type reviewCreateRequest struct {
	Text  string `json:"text" binding:"required"`
	Score *int   `json:"score" binding:"required,min=0,max=10"`
}

type reviewPatchRequest struct {
	Text  *string `json:"text"`
	Score *int    `json:"score" binding:"omitempty,min=0,max=10"`
}

// cleanText strips markup from user text. Text that is empty afterwards is
// rejected on the text field.
func cleanText(raw string) (string, error) {
	text := utils.SanitizeText(raw)
	if text == "" {
		return "", apperr.Field("text", "This field may not be blank.")
	}
	return text, nil
}

// ensureOwner applies ReadOnlyOrOwner to an existing object.
func ensureOwner(c *gin.Context, authorID uint) error {
	caller := middleware.CurrentCaller(c)
	if policy.ReadOnlyOrOwner(caller, policy.ActionFromMethod(c.Request.Method), authorID) {
		return nil
	}
	if !policy.IsAuthenticated(caller) {
		return apperr.Unauthenticated("authentication credentials were not provided")
	}
	return apperr.PermissionDenied("you do not have permission to perform this action")
}

func (h *ReviewHandler) titleID(c *gin.Context) (uint, error) {
	id, err := pathID(c, "title_id", "title not found")
	if err != nil {
		return 0, err
	}
	if _, err := h.Store.GetTitle(c.Request.Context(), id); err != nil {
		return 0, notFound(err, "title not found")
	}
	return id, nil
}

func (h *ReviewHandler) load(c *gin.Context) (*models.Review, error) {
	titleID, err := h.titleID(c)
	if err != nil {
		return nil, err
	}
	id, err := pathID(c, "review_id", "review not found")
	if err != nil {
		return nil, err
	}
	review, err := h.Store.GetReview(c.Request.Context(), titleID, id)
	return review, notFound(err, "review not found")
}

func (h *ReviewHandler) List(c *gin.Context) {
	titleID, err := h.titleID(c)
	if err != nil {
		RenderError(c, err)
		return
	}
	page := pageFromQuery(c, h.Limits)
	reviews, total, err := h.Store.ListReviews(c.Request.Context(), titleID, page)
	if err != nil {
		RenderError(c, err)
		return
	}
	renderPage(c, mapViews(reviews, newReviewView), total, page)
}

// Create posts the caller's review. A second review of the same title by the
// same author is a validation error.
func (h *ReviewHandler) Create(c *gin.Context) {
	titleID, err := h.titleID(c)
	if err != nil {
		RenderError(c, err)
		return
	}
	if err := ensureOwner(c, 0); err != nil {
		RenderError(c, err)
		return
	}

	var req reviewCreateRequest
	if err := bindJSON(c, &req); err != nil {
		RenderError(c, err)
		return
	}
	text, err := cleanText(req.Text)
	if err != nil {
		RenderError(c, err)
		return
	}

	review := &models.Review{
		TitleID:  titleID,
		AuthorID: middleware.CurrentUser(c).ID,
		Text:     text,
		Score:    *req.Score,
	}
	if err := h.Store.CreateReview(c.Request.Context(), review); err != nil {
		if errors.Is(err, store.ErrConflict) {
			err = apperr.Conflict("You have already reviewed this title.")
		}
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newReviewView(review))
}

func (h *ReviewHandler) Get(c *gin.Context) {
	review, err := h.load(c)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, newReviewView(review))
}

func (h *ReviewHandler) Update(c *gin.Context) {
	review, err := h.load(c)
	if err != nil {
		RenderError(c, err)
		return
	}
	if err := ensureOwner(c, review.AuthorID); err != nil {
		RenderError(c, err)
		return
	}

	var req reviewPatchRequest
	if err := bindJSON(c, &req); err != nil {
		RenderError(c, err)
		return
	}
	if req.Text != nil {
		if review.Text, err = cleanText(*req.Text); err != nil {
			RenderError(c, err)
			return
		}
	}
	if req.Score != nil {
		review.Score = *req.Score
	}

	if err := h.Store.UpdateReview(c.Request.Context(), review); err != nil {
		RenderError(c, notFound(err, "review not found"))
		return
	}
	c.JSON(http.StatusOK, newReviewView(review))
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	review, err := h.load(c)
	if err != nil {
		RenderError(c, err)
		return
	}
	if err := ensureOwner(c, review.AuthorID); err != nil {
		RenderError(c, err)
		return
	}
	if err := h.Store.DeleteReview(c.Request.Context(), review.ID); err != nil {
		RenderError(c, notFound(err, "review not found"))
		return
	}
	c.Status(http.StatusNoContent)
}
