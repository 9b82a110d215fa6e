package models

import "time"

// IntakeCourseStatus enumerates enrollment states of a course offering.
type IntakeCourseStatus string

const (
	IntakeCourseOpen      IntakeCourseStatus = "OPEN"
	IntakeCourseClosed    IntakeCourseStatus = "CLOSED"
	IntakeCourseOngoing   IntakeCourseStatus = "ONGOING"
	IntakeCourseCompleted IntakeCourseStatus = "COMPLETED"
)

// SemesterStatus is derived from the semester dates.
type SemesterStatus string

const (
	SemesterUpcoming   SemesterStatus = "UPCOMING"
	SemesterInProgress SemesterStatus = "IN_PROGRESS"
	SemesterCompleted  SemesterStatus = "COMPLETED"
)

// Intake is a cohort enrollment period.
type Intake struct {
	Base
	SchoolID    string `db:"school_id" json:"school_id" validate:"required"`
	Name        string `db:"name" json:"name" validate:"required,max=100"`
	IntakeMonth int    `db:"intake_month" json:"intake_month" validate:"required,min=1,max=12"`
	IntakeYear  int    `db:"intake_year" json:"intake_year" validate:"required,min=2000,max=2100"`
	IsActive    bool   `db:"is_active" json:"is_active"`
}

// Tenant implements Record.
func (i *Intake) Tenant() string { return i.SchoolID }

// ApplyDefaults implements Defaulter.
func (i *Intake) ApplyDefaults() {
	i.IsActive = true
}

// Course is a programme of study.
type Course struct {
	Base
	SchoolID       string `db:"school_id" json:"school_id" validate:"required"`
	Name           string `db:"name" json:"name" validate:"required,max=200"`
	Code           string `db:"code" json:"code" validate:"required,max=50"`
	DurationMonths int    `db:"duration_months" json:"duration_months" validate:"min=0"`
	IsActive       bool   `db:"is_active" json:"is_active"`
}

// Tenant implements Record.
func (c *Course) Tenant() string { return c.SchoolID }

// ApplyDefaults implements Defaulter.
func (c *Course) ApplyDefaults() {
	c.IsActive = true
}

// IntakeCourse offers a course within an intake.
type IntakeCourse struct {
	Base
	SchoolID        string             `db:"school_id" json:"school_id" validate:"required"`
	IntakeID        string             `db:"intake_id" json:"intake_id" validate:"required"`
	CourseID        string             `db:"course_id" json:"course_id" validate:"required"`
	MaxStudents     int                `db:"max_students" json:"max_students" validate:"required,min=1"`
	CurrentStudents int                `db:"current_students" json:"current_students" validate:"min=0"`
	Fee             float64            `db:"fee" json:"fee" validate:"min=0"`
	Status          IntakeCourseStatus `db:"status" json:"status" validate:"omitempty,oneof=OPEN CLOSED ONGOING COMPLETED"`
}

// Tenant implements Record.
func (ic *IntakeCourse) Tenant() string { return ic.SchoolID }

// ApplyDefaults implements Defaulter.
func (ic *IntakeCourse) ApplyDefaults() {
	ic.Status = IntakeCourseOpen
}

// Semester is a term of an intake course.
type Semester struct {
	Base
	SchoolID       string         `db:"school_id" json:"school_id" validate:"required"`
	IntakeCourseID string         `db:"intake_course_id" json:"intake_course_id" validate:"required"`
	CourseID       string         `db:"course_id" json:"course_id" validate:"required"`
	Name           string         `db:"name" json:"name" validate:"required,max=100"`
	SemesterNumber int            `db:"semester_number" json:"semester_number" validate:"required,min=1"`
	StartDate      Date           `db:"start_date" json:"start_date"`
	EndDate        Date           `db:"end_date" json:"end_date"`
	Status         SemesterStatus `db:"-" json:"status"`
}

// Tenant implements Record.
func (s *Semester) Tenant() string { return s.SchoolID }

// DeriveStatus sets Status from the dates relative to now.
func (s *Semester) DeriveStatus(now time.Time) {
	today := NewDate(now)
	switch {
	case today.Before(s.StartDate.Time):
		s.Status = SemesterUpcoming
	case !today.After(s.EndDate.Time):
		s.Status = SemesterInProgress
	default:
		s.Status = SemesterCompleted
	}
}

// Module is a teachable unit.
type Module struct {
	Base
	SchoolID    string `db:"school_id" json:"school_id" validate:"required"`
	Code        string `db:"code" json:"code" validate:"required,max=50"`
	Name        string `db:"name" json:"name" validate:"required,max=200"`
	CreditHours int    `db:"credit_hours" json:"credit_hours" validate:"min=0"`
	IsActive    bool   `db:"is_active" json:"is_active"`
}

// Tenant implements Record.
func (m *Module) Tenant() string { return m.SchoolID }

// ApplyDefaults implements Defaulter.
func (m *Module) ApplyDefaults() {
	m.IsActive = true
}

// SemesterModule assigns a module to a semester. Deletes are soft.
type SemesterModule struct {
	Base
	SchoolID       string `db:"school_id" json:"school_id" validate:"required"`
	SemesterID     string `db:"semester_id" json:"semester_id" validate:"required"`
	ModuleID       string `db:"module_id" json:"module_id" validate:"required"`
	CourseID       string `db:"course_id" json:"course_id" validate:"required"`
	IntakeCourseID string `db:"intake_course_id" json:"intake_course_id" validate:"required"`
	IsActive       bool   `db:"is_active" json:"is_active"`
}

// Tenant implements Record.
func (sm *SemesterModule) Tenant() string { return sm.SchoolID }

// ApplyDefaults implements Defaulter.
func (sm *SemesterModule) ApplyDefaults() {
	sm.IsActive = true
}
