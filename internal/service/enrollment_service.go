package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/campushub/campushub-api/internal/models"
	appErrors "github.com/campushub/campushub-api/pkg/errors"
)

type intakeCourseEnroller interface {
	Enroll(ctx context.Context, id string) (*models.IntakeCourse, error)
}

// EnrollmentService applies the seat-taking transition of intake courses.
type EnrollmentService struct {
	courses intakeCourseReader
	repo    intakeCourseEnroller
	logger  *zap.Logger
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(courses intakeCourseReader, repo intakeCourseEnroller, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{courses: courses, repo: repo, logger: logger}
}

// Enroll takes one seat. Only OPEN courses below their cap accept enrollments;
// the enrollment that fills the last seat closes the course.
func (s *EnrollmentService) Enroll(ctx context.Context, scope Scope, id string) (*models.IntakeCourse, error) {
	course, err := s.courses.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if course.Status != models.IntakeCourseOpen {
		return nil, appErrors.Clone(appErrors.ErrConflict, "intake course is not open for enrollment")
	}
	if course.CurrentStudents >= course.MaxStudents {
		return nil, appErrors.Clone(appErrors.ErrConflict, "intake course is full")
	}

	updated, err := s.repo.Enroll(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "intake course is full or closed")
		}
		return nil, appErrors.Internal(err, "failed to enroll")
	}
	s.logger.Info("intake course enrollment",
		zap.String("intake_course_id", id),
		zap.Int("current_students", updated.CurrentStudents),
		zap.String("status", string(updated.Status)),
	)
	return updated, nil
}
