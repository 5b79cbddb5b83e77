package middleware

import (
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tradebridge-backend/internal/core"
	"tradebridge-backend/internal/models"
)

// Context keys set by the auth middleware.
const (
	CtxUserID    = "userID"
	CtxUserEmail = "userEmail"
	CtxUserRole  = "userRole"
)

type errorBody struct {
	Error string `json:"error"`
}

// AuthMiddleware verifies Firebase ID tokens and resolves caller roles.
type AuthMiddleware struct {
	authClient *auth.Client
	roles      core.RoleService
	logger     *zap.Logger
}

// NewAuthMiddleware creates the middleware. All three dependencies are
// required; routes cannot be secured without them.
func NewAuthMiddleware(authClient *auth.Client, roles core.RoleService, logger *zap.Logger) *AuthMiddleware {
	if authClient == nil {
		panic("auth client is required for AuthMiddleware")
	}
	return &AuthMiddleware{authClient: authClient, roles: roles, logger: logger}
}

// VerifyToken authenticates the bearer token and stores the caller's UID
// and email in the request context.
func (m *AuthMiddleware) VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "Authorization header is required"})
			return
		}
		parts := strings.Split(header, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "Authorization header format must be 'Bearer {token}'"})
			return
		}

		token, err := m.authClient.VerifyIDToken(c.Request.Context(), parts[1])
		if err != nil {
			m.logger.Warn("ID token verification failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "Invalid or expired authentication token"})
			return
		}

		c.Set(CtxUserID, token.UID)
		if email, ok := token.Claims["email"].(string); ok {
			c.Set(CtxUserEmail, email)
		}
		c.Next()
	}
}

// RequireRole resolves the caller's role and rejects anything not in want.
// The rejection is a generic access-denied: which collections were probed
// is never revealed.
func (m *AuthMiddleware) RequireRole(want ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString(CtxUserID)
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "Authentication required"})
			return
		}
		role, err := m.roles.Resolve(c.Request.Context(), uid)
		if err != nil {
			m.logger.Error("role resolution failed", zap.String("uid", uid), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusForbidden, errorBody{Error: "Access denied"})
			return
		}
		for _, w := range want {
			if role == w {
				c.Set(CtxUserRole, role)
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, errorBody{Error: "Access denied"})
	}
}
