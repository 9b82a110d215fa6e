package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// referenceTables lists the tables that may be referenced and their tenant column.
var referenceTables = map[string]string{
	"schools":          "",
	"users":            "",
	"intakes":          "school_id",
	"courses":          "school_id",
	"intake_courses":   "school_id",
	"semesters":        "school_id",
	"modules":          "school_id",
	"semester_modules": "school_id",
	"rooms":            "school_id",
	"lecturers":        "school_id",
	"subscriptions":    "school_id",
}

// ReferenceRepository checks that foreign identifiers point at existing rows.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository constructs a ReferenceRepository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// Exists reports whether id exists in table. When schoolID is set the row must belong to that school.
func (r *ReferenceRepository) Exists(ctx context.Context, table, id, schoolID string) (bool, error) {
	tenantColumn, ok := referenceTables[table]
	if !ok {
		return false, fmt.Errorf("reference table %q not allowed", table)
	}
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}

	query := "SELECT 1 FROM " + table + " WHERE id = $1"
	args := []interface{}{id}
	if tenantColumn != "" && schoolID != "" {
		query += " AND " + tenantColumn + " = $2"
		args = append(args, schoolID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check %s reference: %w", table, err)
	}
	return true, nil
}
