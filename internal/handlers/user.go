package handlers

import (
	"context"
	"errors"
	"net/http"

	"yamdb/internal/apperr"
	"yamdb/internal/middleware"
	"yamdb/internal/models"
	"yamdb/internal/policy"
	"yamdb/internal/store"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	Deps
}

func NewUserHandler(d Deps) *UserHandler {
	return &UserHandler{Deps: d}
}

type userCreateRequest struct {
	Username  string       `json:"username" binding:"required,username"`
	Email     string       `json:"email" binding:"required,email,emaillen"`
	FirstName string       `json:"first_name" binding:"max=150"`
	LastName  string       `json:"last_name" binding:"max=150"`
	Bio       string       `json:"bio"`
	Role      *models.Role `json:"role" binding:"omitempty,role"`
}

type userPatchRequest struct {
	Username  *string      `json:"username" binding:"omitempty,username"`
	Email     *string      `json:"email" binding:"omitempty,email,emaillen"`
	FirstName *string      `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string      `json:"last_name" binding:"omitempty,max=150"`
	Bio       *string      `json:"bio"`
	Role      *models.Role `json:"role" binding:"omitempty,role"`
}

func (r userPatchRequest) fields() store.UserFields {
	return store.UserFields{
		Username:  r.Username,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Bio:       r.Bio,
		Role:      r.Role,
	}
}

// checkTaken reports which of username/email already belong to an account
// other than selfID.
func (h *UserHandler) checkTaken(ctx context.Context, selfID uint, username, email string) error {
	matches, err := h.Store.FindUsers(ctx, username, email)
	if err != nil {
		return err
	}
	fields := map[string][]string{}
	for _, m := range matches {
		if m.ID == selfID {
			continue
		}
		if username != "" && m.Username == username {
			fields["username"] = []string{"A user with that username already exists."}
		}
		if email != "" && m.Email == email {
			fields["email"] = []string{"A user with that email already exists."}
		}
	}
	if len(fields) > 0 {
		return apperr.FieldErrors(fields)
	}
	return nil
}

func conflictAsValidation(err error) error {
	if errors.Is(err, store.ErrConflict) {
		return apperr.Validation("A user with that username or email already exists.")
	}
	return err
}

// List /users/?search=
func (h *UserHandler) List(c *gin.Context) {
	page := pageFromQuery(c, h.Limits)
	users, total, err := h.Store.ListUsers(c.Request.Context(), c.Query("search"), page)
	if err != nil {
		RenderError(c, err)
		return
	}
	renderPage(c, mapViews(users, newUserView), total, page)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req userCreateRequest
	if err := bindJSON(c, &req); err != nil {
		RenderError(c, err)
		return
	}
	ctx := c.Request.Context()
	if err := h.checkTaken(ctx, 0, req.Username, req.Email); err != nil {
		RenderError(c, err)
		return
	}

	user := &models.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      models.RoleUser,
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if err := h.Store.CreateUser(ctx, user); err != nil {
		RenderError(c, conflictAsValidation(err))
		return
	}
	c.JSON(http.StatusCreated, newUserView(user))
}

func (h *UserHandler) load(c *gin.Context) (*models.User, error) {
	user, err := h.Store.GetUserByUsername(c.Request.Context(), c.Param("username"))
	return user, notFound(err, "user not found")
}

// Get /users/:username
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.load(c)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserView(user))
}

func (h *UserHandler) Update(c *gin.Context) {
	user, err := h.load(c)
	if err != nil {
		RenderError(c, err)
		return
	}
	h.patch(c, user, true)
}

func (h *UserHandler) Delete(c *gin.Context) {
	user, err := h.load(c)
	if err != nil {
		RenderError(c, err)
		return
	}
	if err := h.Store.DeleteUser(c.Request.Context(), user.ID); err != nil {
		RenderError(c, notFound(err, "user not found"))
		return
	}
	c.Status(http.StatusNoContent)
}

// Me returns the caller's own record.
func (h *UserHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		RenderError(c, apperr.Unauthenticated("authentication credentials were not provided"))
		return
	}
	c.JSON(http.StatusOK, newUserView(user))
}

// UpdateMe edits the caller's own record. Only admins may change their role
// here; for everyone else the field is dropped.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		RenderError(c, apperr.Unauthenticated("authentication credentials were not provided"))
		return
	}
	h.patch(c, user, policy.AdminOnly(middleware.CurrentCaller(c)))
}

func (h *UserHandler) patch(c *gin.Context, user *models.User, allowRole bool) {
	var req userPatchRequest
	if err := bindJSON(c, &req); err != nil {
		RenderError(c, err)
		return
	}
	if !allowRole {
		req.Role = nil
	}

	ctx := c.Request.Context()
	var username, email string
	if req.Username != nil && *req.Username != user.Username {
		username = *req.Username
	}
	if req.Email != nil && *req.Email != user.Email {
		email = *req.Email
	}
	if username != "" || email != "" {
		if err := h.checkTaken(ctx, user.ID, username, email); err != nil {
			RenderError(c, err)
			return
		}
	}

	updated, err := h.Store.UpdateUser(ctx, user.ID, req.fields())
	if err != nil {
		RenderError(c, notFound(conflictAsValidation(err), "user not found"))
		return
	}
	c.JSON(http.StatusOK, newUserView(updated))
}
