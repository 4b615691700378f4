package handlers

import (
	"net/http"

	"yamdb/internal/middleware"
	"yamdb/internal/models"

	"github.com/gin-gonic/gin"
)

// CommentHandler serves the comments of one review. The review is looked up
// under its title first so a mismatched pair is a 404.
type CommentHandler struct {
	reviews *ReviewHandler
}

func NewCommentHandler(d Deps) *CommentHandler {
	return &CommentHandler{reviews: NewReviewHandler(d)}
}

type commentRequest struct {
	Text string `json:"text" binding:"required"`
}

type commentPatchRequest struct {
	Text *string `json:"text"`
}

func (h *CommentHandler) load(c *gin.Context) (*models.Comment, error) {
	review, err := h.reviews.load(c)
	if err != nil {
		return nil, err
	}
	id, err := pathID(c, "comment_id", "comment not found")
	if err != nil {
		return nil, err
	}
	comment, err := h.reviews.Store.GetComment(c.Request.Context(), review.ID, id)
	return comment, notFound(err, "comment not found")
}

func (h *CommentHandler) List(c *gin.Context) {
	review, err := h.reviews.load(c)
	if err != nil {
		RenderError(c, err)
		return
	}
	page := pageFromQuery(c, h.reviews.Limits)
	comments, total, err := h.reviews.Store.ListComments(c.Request.Context(), review.ID, page)
	if err != nil {
		RenderError(c, err)
		return
	}
	renderPage(c, mapViews(comments, newCommentView), total, page)
}

func (h *CommentHandler) Create(c *gin.Context) {
	review, err := h.reviews.load(c)
	if err != nil {
		RenderError(c, err)
		return
	}
	if err := ensureOwner(c, 0); err != nil {
		RenderError(c, err)
		return
	}

	var req commentRequest
	if err := bindJSON(c, &req); err != nil {
		RenderError(c, err)
		return
	}
	text, err := cleanText(req.Text)
	if err != nil {
		RenderError(c, err)
		return
	}

	comment := &models.Comment{
		ReviewID: review.ID,
		AuthorID: middleware.CurrentUser(c).ID,
		Text:     text,
	}
	if err := h.reviews.Store.CreateComment(c.Request.Context(), comment); err != nil {
		RenderError(c, notFound(err, "review not found"))
		return
	}
	c.JSON(http.StatusCreated, newCommentView(comment))
}

func (h *CommentHandler) Get(c *gin.Context) {
	comment, err := h.load(c)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCommentView(comment))
}

func (h *CommentHandler) Update(c *gin.Context) {
	comment, err := h.load(c)
	if err != nil {
		RenderError(c, err)
		return
	}
	if err := ensureOwner(c, comment.AuthorID); err != nil {
		RenderError(c, err)
		return
	}

	var req commentPatchRequest
	if err := bindJSON(c, &req); err != nil {
		RenderError(c, err)
		return
	}
	if req.Text != nil {
		if comment.Text, err = cleanText(*req.Text); err != nil {
			RenderError(c, err)
			return
		}
	}

	if err := h.reviews.Store.UpdateComment(c.Request.Context(), comment); err != nil {
		RenderError(c, notFound(err, "comment not found"))
		return
	}
	c.JSON(http.StatusOK, newCommentView(comment))
}

func (h *CommentHandler) Delete(c *gin.Context) {
	comment, err := h.load(c)
	if err != nil {
		RenderError(c, err)
		return
	}
	if err := ensureOwner(c, comment.AuthorID); err != nil {
		RenderError(c, err)
		return
	}
	if err := h.reviews.Store.DeleteComment(c.Request.Context(), comment.ID); err != nil {
		RenderError(c, notFound(err, "comment not found"))
		return
	}
	c.Status(http.StatusNoContent)
}
