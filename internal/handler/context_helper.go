package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campushub/campushub-api/internal/middleware"
	"github.com/campushub/campushub-api/internal/models"
	"github.com/campushub/campushub-api/internal/service"
	"github.com/campushub/campushub-api/pkg/mailer"
)

// reservedQueryKeys are list parameters that are not column filters.
var reservedQueryKeys = map[string]struct{}{
	"page":       {},
	"page_size":  {},
	"sort_by":    {},
	"sort_order": {},
	"school_id":  {},
}

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

// scopeFromContext limits tenant users to their own school. Super admins are unrestricted.
func scopeFromContext(c *gin.Context) service.Scope {
	claims := claimsFromContext(c)
	if claims == nil || claims.Role == models.RoleSuperAdmin {
		return service.Scope{}
	}
	return service.Scope{SchoolID: claims.SchoolID}
}

func callerAddress(c *gin.Context) mailer.Address {
	claims := claimsFromContext(c)
	if claims == nil {
		return mailer.Address{}
	}
	return mailer.Address{Name: claims.FullName, Email: claims.Email}
}

func listQueryFromContext(c *gin.Context) models.ListQuery {
	query := models.ListQuery{
		SchoolID:  strings.TrimSpace(c.Query("school_id")),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
		Filters:   map[string]string{},
	}
	query.Page = positiveQueryInt(c, "page", 1)
	query.PageSize = positiveQueryInt(c, "page_size", 20)
	for key, values := range c.Request.URL.Query() {
		if _, reserved := reservedQueryKeys[key]; reserved || len(values) == 0 {
			continue
		}
		query.Filters[key] = strings.TrimSpace(values[0])
	}
	return query
}

// positiveQueryInt reads an integer query value, falling back when it is
// missing, malformed or below 1.
func positiveQueryInt(c *gin.Context, key string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
