package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tradebridge-backend/internal/core"
	"tradebridge-backend/internal/identity"
	"tradebridge-backend/internal/middleware"
	"tradebridge-backend/internal/models"
)

// Action-code link modes.
const (
	modeVerifyEmail   = "verifyEmail"
	modeResetPassword = "resetPassword"
)

// AuthHandler owns registration, login, action-code and password-reset
// endpoints.
type AuthHandler struct {
	registration core.RegistrationService
	roles        core.RoleService
	tokens       identity.Tokens
	logger       *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(registration core.RegistrationService, roles core.RoleService, tokens identity.Tokens, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{registration: registration, roles: roles, tokens: tokens, logger: logger}
}

// Register handles POST /auth/register: account creation plus role-document
// write as one server-side operation.
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	result, err := h.registration.Register(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrEmailAlreadyRegistered):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "This email is already registered"})
		case errors.Is(err, core.ErrInvalidRegistration):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid registration", Details: err.Error()})
		default:
			h.logger.Error("registration failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Registration failed, please try again"})
		}
		return
	}

	c.JSON(http.StatusCreated, RegisterResponse{
		UID:      result.UID,
		Role:     string(result.Role),
		VerifyBy: result.VerifyBy,
		Message:  "Verification email sent. Unverified accounts are removed after 24 hours.",
	})
}

// Login handles POST /auth/login: password sign-in followed by role
// resolution with the login retry budget.
func (h *AuthHandler) Login(c *gin.Context) {
	h.login(c, models.RoleNone)
}

// AdminLogin handles POST /auth/admin-login. Non-admin roles are rejected
// with a generic access-denied, without revealing what was probed.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	h.login(c, models.RoleAdmin)
}

func (h *AuthHandler) login(c *gin.Context, want models.Role) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	signIn, err := h.tokens.SignInWithPassword(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid email or password"})
		case errors.Is(err, identity.ErrAccountDisabled):
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "This account has been disabled"})
		default:
			h.logger.Error("sign-in failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Sign-in failed, please try again"})
		}
		return
	}

	role, err := h.roles.ResolveWithRetry(c.Request.Context(), signIn.UID)
	if err != nil {
		// Fatal to the session: the client must discard the token and
		// re-authenticate.
		h.logger.Warn("login without resolvable role", zap.String("uid", signIn.UID), zap.Error(err))
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Your account role could not be determined. Please sign in again."})
		return
	}
	if want != models.RoleNone && role != want {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Access denied"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:    signIn.IDToken,
		Role:     string(role),
		Redirect: role.DashboardPath(),
	})
}

// HandleActionCode handles POST /auth/action, the target of emailed links.
// It dispatches on the link's mode discriminator.
func (h *AuthHandler) HandleActionCode(c *gin.Context) {
	var req models.ActionCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}
	if req.Mode == "" || req.OobCode == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid link"})
		return
	}

	switch req.Mode {
	case modeVerifyEmail:
		if err := h.tokens.ConfirmEmailVerification(c.Request.Context(), req.OobCode); err != nil {
			h.respondCodeError(c, err)
			return
		}
		c.JSON(http.StatusOK, SuccessResponse{Message: "Email verified"})
	case modeResetPassword:
		if req.NewPassword == "" {
			// First step: validate the code so the client can render the
			// new-password form.
			email, err := h.tokens.VerifyResetCode(c.Request.Context(), req.OobCode)
			if err != nil {
				h.respondCodeError(c, err)
				return
			}
			c.JSON(http.StatusOK, SuccessResponse{Message: "Reset code valid", Data: gin.H{"email": email}})
			return
		}
		if len(req.NewPassword) < 8 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Password must be at least 8 characters"})
			return
		}
		if err := h.tokens.ConfirmPasswordReset(c.Request.Context(), req.OobCode, req.NewPassword); err != nil {
			h.respondCodeError(c, err)
			return
		}
		c.JSON(http.StatusOK, SuccessResponse{Message: "Password has been reset"})
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Unsupported action"})
	}
}

// respondCodeError maps action-code failures to their three user-facing
// kinds. Any failure is terminal for that code.
func (h *AuthHandler) respondCodeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, identity.ErrCodeExpired):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "This link has expired. Please request a new one."})
	case errors.Is(err, identity.ErrCodeInvalid):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "This link is invalid or has already been used."})
	default:
		h.logger.Error("action code handling failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Something went wrong. Please request a new link."})
	}
}

// RequestPasswordReset handles POST /auth/password-reset. The response is
// identical whether or not the email has an account.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req models.PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	if err := h.tokens.SendPasswordReset(c.Request.Context(), req.Email); err != nil {
		if !errors.Is(err, identity.ErrEmailNotFound) {
			h.logger.Error("password reset dispatch failed", zap.Error(err))
		}
		// Fall through: do not reveal account existence.
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "If that email has an account, a reset link has been sent."})
}

// VerificationStatus handles GET /auth/verification-status for the waiting
// page's poll loop. Once verified, the redirect is resolved through the
// role resolver.
func (h *AuthHandler) VerificationStatus(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserID)

	verified, verifyBy, err := h.registration.VerificationStatus(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Account not found"})
		return
	}

	resp := VerificationStatusResponse{Verified: verified, VerifyBy: verifyBy}
	if verified {
		role, err := h.roles.ResolveWithRetry(c.Request.Context(), uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Your account role could not be determined. Please sign in again."})
			return
		}
		resp.Redirect = role.DashboardPath()
	}
	c.JSON(http.StatusOK, resp)
}

// ResendVerification handles POST /auth/resend-verification.
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserID)
	if err := h.registration.ResendVerification(c.Request.Context(), uid); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Account not found"})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Verification email sent"})
}
