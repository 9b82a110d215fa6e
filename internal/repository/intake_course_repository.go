package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campushub/campushub-api/internal/models"
)

// IntakeCourseRepository holds the enrollment transition of intake courses.
type IntakeCourseRepository struct {
	db *sqlx.DB
}

// NewIntakeCourseRepository constructs an IntakeCourseRepository.
func NewIntakeCourseRepository(db *sqlx.DB) *IntakeCourseRepository {
	return &IntakeCourseRepository{db: db}
}

// Enroll takes one seat of an OPEN intake course and closes it when the cap is reached.
// It returns sql.ErrNoRows when the course is missing, not open, or full.
func (r *IntakeCourseRepository) Enroll(ctx context.Context, id string) (*models.IntakeCourse, error) {
	query := fmt.Sprintf(`UPDATE intake_courses
		SET current_students = current_students + 1,
			status = CASE WHEN current_students + 1 >= max_students THEN 'CLOSED' ELSE status END,
			updated_at = $2
		WHERE id = $1 AND status = 'OPEN' AND current_students < max_students
		RETURNING %s`, IntakeCourses.selectColumns())
	var course models.IntakeCourse
	if err := r.db.GetContext(ctx, &course, query, id, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("enroll intake course: %w", err)
	}
	return &course, nil
}
