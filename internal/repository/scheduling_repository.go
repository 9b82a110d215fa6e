package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campushub/campushub-api/internal/models"
)

// SchedulingRepository loads the resource pools consumed by the schedule generator.
type SchedulingRepository struct {
	db *sqlx.DB
}

// NewSchedulingRepository constructs a SchedulingRepository.
func NewSchedulingRepository(db *sqlx.DB) *SchedulingRepository {
	return &SchedulingRepository{db: db}
}

// ActiveRooms returns the bookable rooms of a school.
func (r *SchedulingRepository) ActiveRooms(ctx context.Context, schoolID string) ([]models.Room, error) {
	query := fmt.Sprintf("SELECT %s FROM rooms WHERE school_id = $1 AND is_active ORDER BY name", Rooms.selectColumns())
	rooms := make([]models.Room, 0)
	if err := r.db.SelectContext(ctx, &rooms, query, schoolID); err != nil {
		return nil, fmt.Errorf("list active rooms: %w", err)
	}
	return rooms, nil
}

// ActiveLecturers returns the lecturers of a school available for teaching and invigilation.
func (r *SchedulingRepository) ActiveLecturers(ctx context.Context, schoolID string) ([]models.Lecturer, error) {
	query := fmt.Sprintf("SELECT %s FROM lecturers WHERE school_id = $1 AND is_active ORDER BY full_name", Lecturers.selectColumns())
	lecturers := make([]models.Lecturer, 0)
	if err := r.db.SelectContext(ctx, &lecturers, query, schoolID); err != nil {
		return nil, fmt.Errorf("list active lecturers: %w", err)
	}
	return lecturers, nil
}

// SemesterModulesForIntakeCourse returns every semester module, active or not, of an intake course.
func (r *SchedulingRepository) SemesterModulesForIntakeCourse(ctx context.Context, schoolID, intakeCourseID string) ([]models.SemesterModule, error) {
	query := fmt.Sprintf("SELECT %s FROM semester_modules WHERE school_id = $1 AND intake_course_id = $2 ORDER BY created_at, id", SemesterModules.selectColumns())
	modules := make([]models.SemesterModule, 0)
	if err := r.db.SelectContext(ctx, &modules, query, schoolID, intakeCourseID); err != nil {
		return nil, fmt.Errorf("list semester modules: %w", err)
	}
	return modules, nil
}

// ClassSchedulesForSchool returns committed classes used to seed the conflict tracker.
func (r *SchedulingRepository) ClassSchedulesForSchool(ctx context.Context, schoolID string) ([]models.ClassSchedule, error) {
	query := fmt.Sprintf("SELECT %s FROM class_schedules WHERE school_id = $1", ClassSchedules.selectColumns())
	classes := make([]models.ClassSchedule, 0)
	if err := r.db.SelectContext(ctx, &classes, query, schoolID); err != nil {
		return nil, fmt.Errorf("list class schedules: %w", err)
	}
	return classes, nil
}
