package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"carrental/internal/domain"
	"carrental/internal/pkg/jwt"
)

// Context keys set by JWTAuth.
const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextRole   = "role"
)

// TokenParser verifies access tokens.
type TokenParser interface {
	Parse(token string) (*jwt.Claims, error)
}

// JWTAuth rejects requests without a valid bearer token and stores the
// caller's identity in the context.
func JWTAuth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			abortJSON(c, http.StatusUnauthorized, "missing or malformed bearer token")
			return
		}

		claims, err := parser.Parse(strings.TrimSpace(token))
		if err != nil {
			abortJSON(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireRole allows only callers whose role is one of roles. It must run
// after JWTAuth.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[string(r)] = true
	}

	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if role == "" {
			abortJSON(c, http.StatusUnauthorized, "authentication required")
			return
		}
		if !allowed[role] {
			abortJSON(c, http.StatusForbidden, "insufficient permissions")
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated caller's ID.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// Role returns the authenticated caller's role.
func Role(c *gin.Context) domain.Role {
	return domain.Role(c.GetString(ContextRole))
}

// IsStaff reports whether the caller is staff or an admin.
func IsStaff(c *gin.Context) bool {
	role := Role(c)
	return role == domain.RoleStaff || role == domain.RoleAdmin
}

func abortJSON(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}
