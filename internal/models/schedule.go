package models

import (
	"time"

	"github.com/lib/pq"

	"github.com/campushub/campushub-api/internal/scheduler"
)

// ClassSchedule is a committed weekly class.
type ClassSchedule struct {
	Base
	SchoolID         string `db:"school_id" json:"school_id" validate:"required"`
	SemesterModuleID string `db:"semester_module_id" json:"semester_module_id" validate:"required"`
	ModuleID         string `db:"module_id" json:"module_id" validate:"required"`
	IntakeCourseID   string `db:"intake_course_id" json:"intake_course_id" validate:"required"`
	CourseID         string `db:"course_id" json:"course_id" validate:"required"`
	SemesterID       string `db:"semester_id" json:"semester_id" validate:"required"`
	DayOfWeek        string `db:"day_of_week" json:"day_of_week" validate:"required"`
	StartTime        string `db:"start_time" json:"start_time" validate:"required,len=5"`
	EndTime          string `db:"end_time" json:"end_time" validate:"required,len=5"`
	RoomID           string `db:"room_id" json:"room_id" validate:"required"`
	LecturerID       string `db:"lecturer_id" json:"lecturer_id" validate:"required"`
	ModuleStartDate  Date   `db:"module_start_date" json:"module_start_date"`
	ModuleEndDate    Date   `db:"module_end_date" json:"module_end_date"`
}

// Tenant implements Record.
func (cs *ClassSchedule) Tenant() string { return cs.SchoolID }

// ExamSchedule is a committed exam session.
type ExamSchedule struct {
	Base
	SchoolID         string         `db:"school_id" json:"school_id" validate:"required"`
	IntakeCourseID   string         `db:"intake_course_id" json:"intake_course_id" validate:"required"`
	SemesterModuleID string         `db:"semester_module_id" json:"semester_module_id" validate:"required"`
	ModuleID         string         `db:"module_id" json:"module_id" validate:"required"`
	ExamDate         Date           `db:"exam_date" json:"exam_date"`
	ExamTime         string         `db:"exam_time" json:"exam_time" validate:"required,len=5"`
	DurationMinute   int            `db:"duration_minute" json:"duration_minute" validate:"required,min=1,max=600"`
	RoomID           string         `db:"room_id" json:"room_id" validate:"required"`
	Invigilators     pq.StringArray `db:"invigilators" json:"invigilators"`
}

// Tenant implements Record.
func (es *ExamSchedule) Tenant() string { return es.SchoolID }

// ApplyDefaults implements Defaulter.
func (es *ExamSchedule) ApplyDefaults() {
	es.DurationMinute = 120
	es.Invigilators = pq.StringArray{}
}

// ScheduleDraft is a generated, uncommitted schedule kept for export.
type ScheduleDraft struct {
	ID             string                 `json:"draftId"`
	SchoolID       string                 `json:"schoolId"`
	IntakeCourseID string                 `json:"intakeCourseId"`
	SemesterID     string                 `json:"semesterId,omitempty"`
	CreatedBy      string                 `json:"createdBy,omitempty"`
	Seed           int64                  `json:"seed"`
	CreatedAt      time.Time              `json:"createdAt"`
	ExpiresAt      time.Time              `json:"expiresAt"`
	Classes        []scheduler.ClassEntry `json:"classSchedule"`
	Exams          []scheduler.ExamEntry  `json:"examSchedule"`
	Skipped        []scheduler.Skip       `json:"skipped"`
}

// ImportRowError reports a rejected spreadsheet row.
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportSummary tallies a spreadsheet import.
type ImportSummary struct {
	Total        int              `json:"total"`
	SuccessCount int              `json:"successCount"`
	ErrorCount   int              `json:"errorCount"`
	Errors       []ImportRowError `json:"errors"`
}
