package handlers

import (
	"net/http"

	"yamdb/internal/auth"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	flow *auth.Flow
}

func NewAuthHandler(flow *auth.Flow) *AuthHandler {
	return &AuthHandler{flow: flow}
}

type signupRequest struct {
	Username string `json:"username" binding:"required,username"`
	Email    string `json:"email" binding:"required,email,emaillen"`
}

type tokenRequest struct {
	Username         string `json:"username" binding:"required"`
	ConfirmationCode string `json:"confirmation_code" binding:"required"`
}

// Signup registers the account (or re-sends the code) and mails a
// confirmation code.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := bindJSON(c, &req); err != nil {
		RenderError(c, err)
		return
	}

	user, err := h.flow.Signup(c.Request.Context(), req.Username, req.Email)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": user.Username, "email": user.Email})
}

// Token trades a confirmation code for a session token.
func (h *AuthHandler) Token(c *gin.Context) {
	var req tokenRequest
	if err := bindJSON(c, &req); err != nil {
		RenderError(c, err)
		return
	}

	token, err := h.flow.Exchange(c.Request.Context(), req.Username, req.ConfirmationCode)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
