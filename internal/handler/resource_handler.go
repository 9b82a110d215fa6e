package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campushub/campushub-api/internal/middleware"
	"github.com/campushub/campushub-api/internal/models"
	"github.com/campushub/campushub-api/internal/service"
	appErrors "github.com/campushub/campushub-api/pkg/errors"
	"github.com/campushub/campushub-api/pkg/response"
)

type resourceService[T any] interface {
	Name() string
	Create(ctx context.Context, scope service.Scope, item *T) (*T, error)
	Get(ctx context.Context, scope service.Scope, id string) (*T, error)
	List(ctx context.Context, scope service.Scope, query models.ListQuery) ([]T, *models.Pagination, error)
	Update(ctx context.Context, scope service.Scope, id string, item *T) (*T, error)
	Delete(ctx context.Context, scope service.Scope, id string) error
}

// ResourceHandler exposes the uniform REST surface of one entity.
type ResourceHandler[T any, PT models.Entity[T]] struct {
	service resourceService[T]
}

// NewResourceHandler constructs a ResourceHandler.
func NewResourceHandler[T any, PT models.Entity[T]](svc resourceService[T]) *ResourceHandler[T, PT] {
	return &ResourceHandler[T, PT]{service: svc}
}

// Register mounts POST /, GET /, GET /:id, PUT /:id, DELETE /:id and GET /school/:schoolId.
func (h *ResourceHandler[T, PT]) Register(group *gin.RouterGroup, readRoles, writeRoles []models.UserRole) {
	read := middleware.RBAC(readRoles...)
	write := middleware.RBAC(writeRoles...)
	group.POST("", write, h.Create)
	group.GET("", read, h.List)
	group.GET("/school/:schoolId", read, h.ListBySchool)
	group.GET("/:id", read, h.Get)
	group.PUT("/:id", write, h.Update)
	group.DELETE("/:id", write, h.Delete)
}

// newItem returns a zero record with its defaults applied, so omitted JSON fields keep them.
func (h *ResourceHandler[T, PT]) newItem() *T {
	item := new(T)
	if defaulter, ok := any(item).(models.Defaulter); ok {
		defaulter.ApplyDefaults()
	}
	return item
}

func (h *ResourceHandler[T, PT]) bind(c *gin.Context) (*T, bool) {
	item := h.newItem()
	if err := c.ShouldBindJSON(item); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid "+h.service.Name()+" payload"))
		return nil, false
	}
	return item, true
}

// Create stores a new record and responds 201.
func (h *ResourceHandler[T, PT]) Create(c *gin.Context) {
	item, ok := h.bind(c)
	if !ok {
		return
	}
	created, err := h.service.Create(c.Request.Context(), scopeFromContext(c), item)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// List returns one page of records filtered by query parameters.
func (h *ResourceHandler[T, PT]) List(c *gin.Context) {
	h.list(c, listQueryFromContext(c))
}

// ListBySchool lists the records of one school.
func (h *ResourceHandler[T, PT]) ListBySchool(c *gin.Context) {
	query := listQueryFromContext(c)
	query.SchoolID = strings.TrimSpace(c.Param("schoolId"))
	h.list(c, query)
}

func (h *ResourceHandler[T, PT]) list(c *gin.Context, query models.ListQuery) {
	items, pagination, err := h.service.List(c.Request.Context(), scopeFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	response.Page(c, items, pagination, middleware.ExtractMeta(c))
}

// Get returns one record.
func (h *ResourceHandler[T, PT]) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), scopeFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// Update replaces one record.
func (h *ResourceHandler[T, PT]) Update(c *gin.Context) {
	item, ok := h.bind(c)
	if !ok {
		return
	}
	updated, err := h.service.Update(c.Request.Context(), scopeFromContext(c), c.Param("id"), item)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, updated)
}

// Delete removes one record.
func (h *ResourceHandler[T, PT]) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), scopeFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, h.service.Name()+" deleted", nil)
}
