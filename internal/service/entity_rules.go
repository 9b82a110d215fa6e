package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/campushub/campushub-api/internal/models"
	"github.com/campushub/campushub-api/internal/scheduler"
	appErrors "github.com/campushub/campushub-api/pkg/errors"
)

type referenceChecker interface {
	Exists(ctx context.Context, table, id, schoolID string) (bool, error)
}

type reference struct {
	table string
	field string
	id    string
}

// EntityRules enforces reference integrity and field consistency for resources.
type EntityRules struct {
	refs referenceChecker
}

// NewEntityRules constructs EntityRules.
func NewEntityRules(refs referenceChecker) *EntityRules {
	return &EntityRules{refs: refs}
}

func (r *EntityRules) require(ctx context.Context, schoolID string, refs ...reference) error {
	for _, ref := range refs {
		id := strings.TrimSpace(ref.id)
		if id == "" {
			return appErrors.Clone(appErrors.ErrValidation, ref.field+" is required")
		}
		ok, err := r.refs.Exists(ctx, ref.table, id, schoolID)
		if err != nil {
			return appErrors.Internal(err, "failed to verify "+ref.field)
		}
		if !ok {
			return appErrors.Clone(appErrors.ErrInvalidReference, fmt.Sprintf("%s %s does not exist", ref.field, id))
		}
	}
	return nil
}

func school(id string) reference { return reference{table: "schools", field: "school_id", id: id} }

// Intake checks an intake.
func (r *EntityRules) Intake(ctx context.Context, item *models.Intake) error {
	item.Name = strings.TrimSpace(item.Name)
	return r.require(ctx, "", school(item.SchoolID))
}

// Course checks a course.
func (r *EntityRules) Course(ctx context.Context, item *models.Course) error {
	item.Code = strings.ToUpper(strings.TrimSpace(item.Code))
	return r.require(ctx, "", school(item.SchoolID))
}

// IntakeCourse checks an intake course.
func (r *EntityRules) IntakeCourse(ctx context.Context, item *models.IntakeCourse) error {
	if item.Status == "" {
		item.Status = models.IntakeCourseOpen
	}
	if item.CurrentStudents > item.MaxStudents {
		return appErrors.Clone(appErrors.ErrValidation, "current_students cannot exceed max_students")
	}
	if err := r.require(ctx, "", school(item.SchoolID)); err != nil {
		return err
	}
	return r.require(ctx, item.SchoolID,
		reference{table: "intakes", field: "intake_id", id: item.IntakeID},
		reference{table: "courses", field: "course_id", id: item.CourseID},
	)
}

// Semester checks a semester.
func (r *EntityRules) Semester(ctx context.Context, item *models.Semester) error {
	if item.StartDate.IsZero() || item.EndDate.IsZero() {
		return appErrors.Clone(appErrors.ErrValidation, "start_date and end_date are required")
	}
	if item.EndDate.Before(item.StartDate.Time) {
		return appErrors.Clone(appErrors.ErrValidation, "end_date must not be before start_date")
	}
	if err := r.require(ctx, "", school(item.SchoolID)); err != nil {
		return err
	}
	return r.require(ctx, item.SchoolID,
		reference{table: "intake_courses", field: "intake_course_id", id: item.IntakeCourseID},
		reference{table: "courses", field: "course_id", id: item.CourseID},
	)
}

// Module checks a module.
func (r *EntityRules) Module(ctx context.Context, item *models.Module) error {
	item.Code = strings.ToUpper(strings.TrimSpace(item.Code))
	return r.require(ctx, "", school(item.SchoolID))
}

// SemesterModule checks a semester module assignment.
func (r *EntityRules) SemesterModule(ctx context.Context, item *models.SemesterModule) error {
	if err := r.require(ctx, "", school(item.SchoolID)); err != nil {
		return err
	}
	return r.require(ctx, item.SchoolID,
		reference{table: "semesters", field: "semester_id", id: item.SemesterID},
		reference{table: "modules", field: "module_id", id: item.ModuleID},
		reference{table: "courses", field: "course_id", id: item.CourseID},
		reference{table: "intake_courses", field: "intake_course_id", id: item.IntakeCourseID},
	)
}

// Room checks a room.
func (r *EntityRules) Room(ctx context.Context, item *models.Room) error {
	return r.require(ctx, "", school(item.SchoolID))
}

// Lecturer checks a lecturer.
func (r *EntityRules) Lecturer(ctx context.Context, item *models.Lecturer) error {
	item.Email = strings.ToLower(strings.TrimSpace(item.Email))
	if err := r.require(ctx, "", school(item.SchoolID)); err != nil {
		return err
	}
	if item.UserID != nil && strings.TrimSpace(*item.UserID) != "" {
		return r.require(ctx, "", reference{table: "users", field: "user_id", id: *item.UserID})
	}
	item.UserID = nil
	return nil
}

// ClassSchedule checks a class schedule and normalises its day and times.
func (r *EntityRules) ClassSchedule(ctx context.Context, item *models.ClassSchedule) error {
	day, err := scheduler.ParseWeekday(item.DayOfWeek)
	if err != nil {
		return appErrors.Invalid(err, "invalid day_of_week")
	}
	item.DayOfWeek = day.String()

	start, err := parseClock(item.StartTime)
	if err != nil {
		return appErrors.Invalid(err, "invalid start_time")
	}
	end, err := parseClock(item.EndTime)
	if err != nil {
		return appErrors.Invalid(err, "invalid end_time")
	}
	if !end.After(start) {
		return appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}
	if item.ModuleStartDate.IsZero() || item.ModuleEndDate.IsZero() {
		return appErrors.Clone(appErrors.ErrValidation, "module_start_date and module_end_date are required")
	}
	if !item.ModuleEndDate.After(item.ModuleStartDate.Time) {
		return appErrors.Clone(appErrors.ErrValidation, "module_end_date must be after module_start_date")
	}

	if err := r.require(ctx, "", school(item.SchoolID)); err != nil {
		return err
	}
	return r.require(ctx, item.SchoolID,
		reference{table: "semester_modules", field: "semester_module_id", id: item.SemesterModuleID},
		reference{table: "modules", field: "module_id", id: item.ModuleID},
		reference{table: "intake_courses", field: "intake_course_id", id: item.IntakeCourseID},
		reference{table: "courses", field: "course_id", id: item.CourseID},
		reference{table: "semesters", field: "semester_id", id: item.SemesterID},
		reference{table: "rooms", field: "room_id", id: item.RoomID},
		reference{table: "lecturers", field: "lecturer_id", id: item.LecturerID},
	)
}

// ExamSchedule checks an exam schedule and its invigilators.
func (r *EntityRules) ExamSchedule(ctx context.Context, item *models.ExamSchedule) error {
	if item.ExamDate.IsZero() {
		return appErrors.Clone(appErrors.ErrValidation, "exam_date is required")
	}
	if _, err := parseClock(item.ExamTime); err != nil {
		return appErrors.Invalid(err, "invalid exam_time")
	}

	refs := []reference{
		{table: "intake_courses", field: "intake_course_id", id: item.IntakeCourseID},
		{table: "semester_modules", field: "semester_module_id", id: item.SemesterModuleID},
		{table: "modules", field: "module_id", id: item.ModuleID},
		{table: "rooms", field: "room_id", id: item.RoomID},
	}
	seen := make(map[string]struct{}, len(item.Invigilators))
	invigilators := item.Invigilators[:0]
	for _, id := range item.Invigilators {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		invigilators = append(invigilators, id)
		refs = append(refs, reference{table: "lecturers", field: "invigilator", id: id})
	}
	item.Invigilators = invigilators

	if err := r.require(ctx, "", school(item.SchoolID)); err != nil {
		return err
	}
	return r.require(ctx, item.SchoolID, refs...)
}

// Subscription checks a subscription.
func (r *EntityRules) Subscription(ctx context.Context, item *models.Subscription) error {
	if item.Status == "" {
		item.Status = models.SubscriptionPending
	}
	if item.StartsAt != nil && item.EndsAt != nil && item.EndsAt.Before(*item.StartsAt) {
		return appErrors.Clone(appErrors.ErrValidation, "ends_at must not be before starts_at")
	}
	return r.require(ctx, "", school(item.SchoolID))
}

// Payment checks a payment.
func (r *EntityRules) Payment(ctx context.Context, item *models.Payment) error {
	if item.Status == "" {
		item.Status = models.PaymentPending
	}
	item.Currency = strings.ToUpper(item.Currency)
	if err := r.require(ctx, "", school(item.SchoolID)); err != nil {
		return err
	}
	return r.require(ctx, item.SchoolID, reference{table: "subscriptions", field: "subscription_id", id: item.SubscriptionID})
}

func parseClock(raw string) (time.Time, error) {
	return time.Parse("15:04", strings.TrimSpace(raw))
}
