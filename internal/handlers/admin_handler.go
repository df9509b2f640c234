package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "loanrisk/internal/errors"
	"loanrisk/internal/models"
	"loanrisk/internal/services"
)

// AdminHandler serves the user-management and system-stats views.
type AdminHandler struct {
	identity services.IdentityServicer
	history  services.HistoryServicer
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(identity services.IdentityServicer, history services.HistoryServicer) *AdminHandler {
	return &AdminHandler{identity: identity, history: history}
}

// CreateUserRequest is the admin account-creation payload.
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,max=128"`
	FullName string `json:"full_name" binding:"required,max=100"`
	Role     string `json:"role" binding:"required,role"`
}

// UpdateUserRequest is the admin profile-edit payload. The username in the
// path is immutable.
type UpdateUserRequest struct {
	FullName string `json:"full_name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Status   string `json:"status" binding:"required,account_status"`
}

// ListUsers returns accounts, optionally filtered by status and role
// query parameters.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var filter services.UserFilter
	if raw := c.Query("status"); raw != "" {
		switch models.Status(raw) {
		case models.StatusActive, models.StatusInactive:
			status := models.Status(raw)
			filter.Status = &status
		default:
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unknown status filter"))
			return
		}
	}
	if raw := c.Query("role"); raw != "" {
		switch models.Role(raw) {
		case models.RoleUser, models.RoleAdmin:
			role := models.Role(raw)
			filter.Role = &role
		default:
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unknown role filter"))
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"users": h.identity.ListUsers(filter)})
}

// CreateUser creates an account with an explicit role.
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.identity.CreateUser(req.Username, req.Email, req.Password, req.FullName, models.Role(req.Role))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// UpdateUser edits full name, email, and status of an account.
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.identity.UpdateProfile(c.Param("username"), req.FullName, req.Email, models.Status(req.Status))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Promote grants the admin role to an account.
func (h *AdminHandler) Promote(c *gin.Context) {
	h.mutate(c, h.identity.PromoteToAdmin)
}

// Demote revokes the admin role from an account.
func (h *AdminHandler) Demote(c *gin.Context) {
	h.mutate(c, h.identity.DemoteFromAdmin)
}

// Activate marks an account active.
func (h *AdminHandler) Activate(c *gin.Context) {
	h.mutate(c, h.identity.ActivateAccount)
}

// Deactivate marks an account inactive.
func (h *AdminHandler) Deactivate(c *gin.Context) {
	h.mutate(c, h.identity.DeactivateAccount)
}

// DeleteUser removes an account.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	h.mutate(c, h.identity.DeleteAccount)
}

func (h *AdminHandler) mutate(c *gin.Context, op func(username string) error) {
	username := c.Param("username")
	if err := op(username); err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.identity.GetUser(username)
	if err != nil {
		// Deletion leaves nothing to return.
		c.JSON(http.StatusOK, gin.H{"username": username})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Stats returns account statistics together with the ledger aggregates.
func (h *AdminHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"stats":      h.identity.SystemStats(),
		"aggregates": h.history.Aggregates(),
	})
}

// ClearPredictions empties the history ledger.
func (h *AdminHandler) ClearPredictions(c *gin.Context) {
	if err := h.history.Clear(); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Prediction history cleared"})
}
