package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "loanrisk/internal/errors"
	"loanrisk/internal/middleware"
	"loanrisk/internal/services"
)

// AuthHandler handles registration, login, logout, and session restore.
type AuthHandler struct {
	identity services.IdentityServicer
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(identity services.IdentityServicer) *AuthHandler {
	return &AuthHandler{identity: identity}
}

// RegisterRequest represents the registration request payload.
type RegisterRequest struct {
	Username        string `json:"username" binding:"required,max=64"`
	Email           string `json:"email" binding:"required,email,max=255"`
	Password        string `json:"password" binding:"required,max=128"`
	ConfirmPassword string `json:"confirm_password" binding:"required,max=128"`
	FullName        string `json:"full_name" binding:"required,max=100"`
}

// LoginRequest represents the login request payload.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register handles user registration. Password length and confirmation are
// checked by the identity store so its typed failures come through intact.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.identity.Register(req.Username, req.Email, req.Password, req.ConfirmPassword, req.FullName)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// Login authenticates a user and issues a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	session, user, err := h.identity.Login(req.Username, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": session.Token,
		"user":  user,
	})
}

// Logout destroys the current session. Safe to call repeatedly.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, ok := middleware.SessionToken(c)
	if !ok {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}

	if err := h.identity.Logout(token); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Session returns the restored session and account view for the bearer
// token; the dashboard calls this on startup to resume a saved session.
func (h *AuthHandler) Session(c *gin.Context) {
	token, ok := middleware.SessionToken(c)
	if !ok {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}

	session, user, err := h.identity.ValidateSession(token)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session": session,
		"user":    user,
	})
}

// Profile returns the authenticated user's account view.
func (h *AuthHandler) Profile(c *gin.Context) {
	username, ok := middleware.Username(c)
	if !ok {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}

	user, err := h.identity.GetUser(username)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
