package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/campushub-api/internal/models"
)

// TableRepository provides CRUD for one table described by a Table.
type TableRepository[T any, PT models.Entity[T]] struct {
	db    *sqlx.DB
	table Table
}

// NewTableRepository constructs a TableRepository.
func NewTableRepository[T any, PT models.Entity[T]](db *sqlx.DB, table Table) *TableRepository[T, PT] {
	return &TableRepository[T, PT]{db: db, table: table}
}

// Table exposes the table description.
func (r *TableRepository[T, PT]) Table() Table {
	return r.table
}

// Create inserts a record, assigning its ID and timestamps.
func (r *TableRepository[T, PT]) Create(ctx context.Context, item *T) error {
	meta := PT(item).Meta()
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = now
	}
	meta.UpdatedAt = now

	if _, err := r.db.NamedExecContext(ctx, r.table.insertStatement(), item); err != nil {
		return fmt.Errorf("create %s: %w", r.table.Singular, err)
	}
	return nil
}

// FindByID fetches a record. Missing rows return sql.ErrNoRows unwrapped.
func (r *TableRepository[T, PT]) FindByID(ctx context.Context, id string) (*T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", r.table.selectColumns(), r.table.Name)
	if r.table.SoftDelete != "" {
		query += " AND " + r.table.SoftDelete
	}
	var item T
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find %s: %w", r.table.Singular, err)
	}
	return &item, nil
}

// List returns one page of records along with the total count.
func (r *TableRepository[T, PT]) List(ctx context.Context, q models.ListQuery) ([]T, int, error) {
	base := "FROM " + r.table.Name + " WHERE 1=1"
	var conditions []string
	var args []interface{}

	if r.table.SoftDelete != "" {
		conditions = append(conditions, r.table.SoftDelete)
	}
	if q.SchoolID != "" && r.table.TenantColumn != "" {
		conditions = append(conditions, fmt.Sprintf("%s = $%d", r.table.TenantColumn, len(args)+1))
		args = append(args, q.SchoolID)
	}

	params := make([]string, 0, len(q.Filters))
	for param := range q.Filters {
		params = append(params, param)
	}
	sort.Strings(params)
	for _, param := range params {
		column, ok := r.table.Filters[param]
		value := strings.TrimSpace(q.Filters[param])
		if !ok || value == "" {
			continue
		}
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, value)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	column := r.table.sortColumn(q.SortBy)
	order := strings.ToUpper(q.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", r.table.selectColumns(), base, column, order, size, offset)
	items := make([]T, 0)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", r.table.Name, err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", r.table.Name, err)
	}
	return items, total, nil
}

// Update replaces the writable columns of an existing record.
func (r *TableRepository[T, PT]) Update(ctx context.Context, item *T) error {
	PT(item).Meta().UpdatedAt = time.Now().UTC()
	res, err := r.db.NamedExecContext(ctx, r.table.updateStatement(), item)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.table.Singular, err)
	}
	return requireAffected(res)
}

// Delete removes a record, or clears its soft-delete flag.
func (r *TableRepository[T, PT]) Delete(ctx context.Context, id string) error {
	var (
		res sql.Result
		err error
	)
	if r.table.SoftDelete != "" {
		query := fmt.Sprintf("UPDATE %s SET %s = FALSE, updated_at = $2 WHERE id = $1 AND %s", r.table.Name, r.table.SoftDelete, r.table.SoftDelete)
		res, err = r.db.ExecContext(ctx, query, id, time.Now().UTC())
	} else {
		res, err = r.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.table.Name), id)
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.table.Singular, err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
