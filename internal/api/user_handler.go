package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tradebridge-backend/internal/core"
	"tradebridge-backend/internal/middleware"
	"tradebridge-backend/internal/models"
)

// UserHandler serves the caller's own profile and the buyer's saved-seller
// list.
type UserHandler struct {
	profiles core.ProfileService
	logger   *zap.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(profiles core.ProfileService, logger *zap.Logger) *UserHandler {
	return &UserHandler{profiles: profiles, logger: logger}
}

// GetMe handles GET /users/me.
func (h *UserHandler) GetMe(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserID)

	role, profile, err := h.profiles.Get(c.Request.Context(), uid)
	if err != nil {
		h.respondProfileError(c, err)
		return
	}
	c.JSON(http.StatusOK, ProfileResponse{Role: string(role), Profile: profile})
}

// UpdateMe handles PATCH /users/me. Absent fields are left untouched.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserID)

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	if err := h.profiles.Update(c.Request.Context(), uid, req); err != nil {
		h.respondProfileError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Profile updated"})
}

// SaveSeller handles POST /users/me/saved-sellers/:sellerId (buyer only).
func (h *UserHandler) SaveSeller(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserID)
	sellerID := c.Param("sellerId")

	if err := h.profiles.SaveSeller(c.Request.Context(), uid, sellerID); err != nil {
		h.respondProfileError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Seller saved"})
}

// UnsaveSeller handles DELETE /users/me/saved-sellers/:sellerId (buyer only).
func (h *UserHandler) UnsaveSeller(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserID)
	sellerID := c.Param("sellerId")

	if err := h.profiles.UnsaveSeller(c.Request.Context(), uid, sellerID); err != nil {
		h.respondProfileError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Seller removed"})
}

func (h *UserHandler) respondProfileError(c *gin.Context, err error) {
	if errors.Is(err, core.ErrProfileNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Profile not found"})
		return
	}
	h.logger.Error("profile operation failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Something went wrong"})
}
