package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campushub/campushub-api/internal/models"
	appErrors "github.com/campushub/campushub-api/pkg/errors"
	"github.com/campushub/campushub-api/pkg/response"
)

// ContextUserKey holds the caller's *models.JWTClaims on the gin context.
const ContextUserKey = "currentUser"

// TokenValidator turns a bearer token into claims.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

func reject(c *gin.Context, err error) {
	response.Error(c, err)
	c.Abort()
}

// Authenticate requires "Authorization: Bearer <token>" and stores the claims.
// Tenant roles must carry a school; only SUPERADMIN may act across schools.
func Authenticate(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, found := strings.Cut(strings.TrimSpace(c.GetHeader("Authorization")), " ")
		token = strings.TrimSpace(token)
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			reject(c, appErrors.Clone(appErrors.ErrUnauthorized, "bearer token required"))
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			reject(c, err)
			return
		}
		if claims.Role != models.RoleSuperAdmin && claims.SchoolID == "" {
			reject(c, appErrors.Clone(appErrors.ErrForbidden, "account is not attached to a school"))
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// Claims returns the caller stored by Authenticate, or nil.
func Claims(c *gin.Context) *models.JWTClaims {
	claims, _ := c.Value(ContextUserKey).(*models.JWTClaims)
	return claims
}

// RBAC admits the listed roles plus SUPERADMIN.
func RBAC(allowed ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			reject(c, appErrors.ErrUnauthorized)
			return
		}
		if claims.Role == models.RoleSuperAdmin {
			c.Next()
			return
		}
		for _, role := range allowed {
			if claims.Role == role {
				c.Next()
				return
			}
		}
		reject(c, appErrors.Clone(appErrors.ErrForbidden, "role "+string(claims.Role)+" may not perform this action"))
	}
}
