package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/campushub-api/internal/models"
	"github.com/campushub/campushub-api/internal/repository"
	appErrors "github.com/campushub/campushub-api/pkg/errors"
)

type resourceRepository[T any] interface {
	Create(ctx context.Context, item *T) error
	FindByID(ctx context.Context, id string) (*T, error)
	List(ctx context.Context, query models.ListQuery) ([]T, int, error)
	Update(ctx context.Context, item *T) error
	Delete(ctx context.Context, id string) error
}

// Scope restricts an operation to one school. The zero value is unrestricted.
type Scope struct {
	SchoolID string
}

// Restricted reports whether the scope limits access.
func (s Scope) Restricted() bool { return s.SchoolID != "" }

// ResourceHooks customise a ResourceService.
type ResourceHooks[T any] struct {
	// Check runs entity rules, such as reference existence, before writes.
	Check func(ctx context.Context, item *T) error
	// Decorate fills derived fields before a record is returned.
	Decorate func(item *T)
}

// ResourceService implements create, read, update, delete and list for one entity.
type ResourceService[T any, PT models.Entity[T]] struct {
	name      string
	repo      resourceRepository[T]
	hooks     ResourceHooks[T]
	validator *validator.Validate
	logger    *zap.Logger
}

// NewResourceService constructs a ResourceService; name is used in error messages.
func NewResourceService[T any, PT models.Entity[T]](name string, repo resourceRepository[T], hooks ResourceHooks[T], validate *validator.Validate, logger *zap.Logger) *ResourceService[T, PT] {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResourceService[T, PT]{name: name, repo: repo, hooks: hooks, validator: validate, logger: logger}
}

// Name returns the singular resource name.
func (s *ResourceService[T, PT]) Name() string {
	return s.name
}

// Create validates and stores a new record.
func (s *ResourceService[T, PT]) Create(ctx context.Context, scope Scope, item *T) (*T, error) {
	if err := s.validateWrite(ctx, scope, item); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, s.translate(err, "create")
	}
	s.decorate(item)
	return item, nil
}

// Get returns a record by id.
func (s *ResourceService[T, PT]) Get(ctx context.Context, scope Scope, id string) (*T, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, "load")
	}
	if scope.Restricted() && PT(item).Tenant() != scope.SchoolID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, s.name+" not found")
	}
	s.decorate(item)
	return item, nil
}

// List returns one page of records.
func (s *ResourceService[T, PT]) List(ctx context.Context, scope Scope, query models.ListQuery) ([]T, *models.Pagination, error) {
	if scope.Restricted() {
		if query.SchoolID != "" && query.SchoolID != scope.SchoolID {
			return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "cannot access another school")
		}
		query.SchoolID = scope.SchoolID
	}
	items, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list "+s.name+" records")
	}
	for i := range items {
		s.decorate(&items[i])
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	size := query.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Update replaces an existing record.
func (s *ResourceService[T, PT]) Update(ctx context.Context, scope Scope, id string, item *T) (*T, error) {
	existing, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	meta := PT(item).Meta()
	meta.ID = id
	meta.CreatedAt = PT(existing).Meta().CreatedAt

	if err := s.validateWrite(ctx, scope, item); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, s.translate(err, "update")
	}
	s.decorate(item)
	return item, nil
}

// Delete removes a record.
func (s *ResourceService[T, PT]) Delete(ctx context.Context, scope Scope, id string) error {
	if _, err := s.Get(ctx, scope, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if repository.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, s.name+" is still referenced by other records")
		}
		return s.translate(err, "delete")
	}
	return nil
}

func (s *ResourceService[T, PT]) validateWrite(ctx context.Context, scope Scope, item *T) error {
	if err := s.validator.Struct(item); err != nil {
		return appErrors.Invalid(err, "invalid "+s.name+" payload")
	}
	if scope.Restricted() && PT(item).Tenant() != scope.SchoolID {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot write records of another school")
	}
	if s.hooks.Check != nil {
		if err := s.hooks.Check(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *ResourceService[T, PT]) decorate(item *T) {
	if s.hooks.Decorate != nil {
		s.hooks.Decorate(item)
	}
}

func (s *ResourceService[T, PT]) translate(err error, action string) error {
	var appErr *appErrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, s.name+" not found")
	case repository.IsUniqueViolation(err):
		msg := s.name + " already exists"
		if constraint := repository.ConstraintName(err); strings.HasSuffix(constraint, "_slot_uq") {
			msg = s.name + " conflicts with an existing booking"
		}
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, msg)
	case repository.IsForeignKeyViolation(err):
		return appErrors.Wrap(err, appErrors.ErrInvalidReference.Code, appErrors.ErrInvalidReference.Status, "referenced record does not exist")
	case repository.IsInvalidText(err):
		return appErrors.Invalid(err, "invalid identifier")
	}
	s.logger.Error("resource operation failed", zap.String("resource", s.name), zap.String("action", action), zap.Error(err))
	return appErrors.Internal(err, "failed to "+action+" "+s.name)
}
