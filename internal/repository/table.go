package repository

import "strings"

// Table describes how a resource maps onto its SQL table.
type Table struct {
	Name     string
	Singular string
	// Columns lists the writable columns, excluding id and the audit timestamps.
	Columns []string
	// Filters maps query parameter names onto filterable columns.
	Filters map[string]string
	Sorts   []string
	// TenantColumn scopes rows to a school.
	TenantColumn string
	// SoftDelete names a boolean column cleared on delete; rows with it unset are hidden.
	SoftDelete string
}

func (t Table) selectColumns() string {
	cols := make([]string, 0, len(t.Columns)+3)
	cols = append(cols, "id")
	cols = append(cols, t.Columns...)
	cols = append(cols, "created_at", "updated_at")
	return strings.Join(cols, ", ")
}

func (t Table) insertStatement() string {
	cols := make([]string, 0, len(t.Columns)+3)
	cols = append(cols, "id")
	cols = append(cols, t.Columns...)
	cols = append(cols, "created_at", "updated_at")
	named := make([]string, len(cols))
	for i, col := range cols {
		named[i] = ":" + col
	}
	return "INSERT INTO " + t.Name + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(named, ", ") + ")"
}

func (t Table) updateStatement() string {
	sets := make([]string, 0, len(t.Columns)+1)
	for _, col := range t.Columns {
		sets = append(sets, col+" = :"+col)
	}
	sets = append(sets, "updated_at = :updated_at")
	query := "UPDATE " + t.Name + " SET " + strings.Join(sets, ", ") + " WHERE id = :id"
	if t.SoftDelete != "" {
		query += " AND " + t.SoftDelete
	}
	return query
}

func (t Table) sortColumn(requested string) string {
	for _, col := range t.Sorts {
		if col == requested {
			return col
		}
	}
	if requested == "updated_at" {
		return requested
	}
	return "created_at"
}

// Tables used by the generic resource endpoints.
var (
	Schools = Table{
		Name:         "schools",
		Singular:     "school",
		Columns:      []string{"name", "email", "phone", "address", "plan", "is_active"},
		Filters:      map[string]string{"plan": "plan", "is_active": "is_active"},
		Sorts:        []string{"name"},
		TenantColumn: "id",
	}
	Intakes = Table{
		Name:         "intakes",
		Singular:     "intake",
		Columns:      []string{"school_id", "name", "intake_month", "intake_year", "is_active"},
		Filters:      map[string]string{"intake_year": "intake_year", "intake_month": "intake_month", "is_active": "is_active"},
		Sorts:        []string{"name", "intake_year"},
		TenantColumn: "school_id",
	}
	Courses = Table{
		Name:         "courses",
		Singular:     "course",
		Columns:      []string{"school_id", "name", "code", "duration_months", "is_active"},
		Filters:      map[string]string{"code": "code", "is_active": "is_active"},
		Sorts:        []string{"name", "code"},
		TenantColumn: "school_id",
	}
	IntakeCourses = Table{
		Name:         "intake_courses",
		Singular:     "intake course",
		Columns:      []string{"school_id", "intake_id", "course_id", "max_students", "current_students", "fee", "status"},
		Filters:      map[string]string{"intake_id": "intake_id", "course_id": "course_id", "status": "status"},
		Sorts:        []string{"status"},
		TenantColumn: "school_id",
	}
	Semesters = Table{
		Name:         "semesters",
		Singular:     "semester",
		Columns:      []string{"school_id", "intake_course_id", "course_id", "name", "semester_number", "start_date", "end_date"},
		Filters:      map[string]string{"intake_course_id": "intake_course_id", "course_id": "course_id"},
		Sorts:        []string{"semester_number", "start_date"},
		TenantColumn: "school_id",
	}
	Modules = Table{
		Name:         "modules",
		Singular:     "module",
		Columns:      []string{"school_id", "code", "name", "credit_hours", "is_active"},
		Filters:      map[string]string{"code": "code", "is_active": "is_active"},
		Sorts:        []string{"code", "name"},
		TenantColumn: "school_id",
	}
	SemesterModules = Table{
		Name:         "semester_modules",
		Singular:     "semester module",
		Columns:      []string{"school_id", "semester_id", "module_id", "course_id", "intake_course_id", "is_active"},
		Filters:      map[string]string{"semester_id": "semester_id", "module_id": "module_id", "intake_course_id": "intake_course_id"},
		TenantColumn: "school_id",
		SoftDelete:   "is_active",
	}
	Rooms = Table{
		Name:         "rooms",
		Singular:     "room",
		Columns:      []string{"school_id", "name", "room_type", "capacity", "is_active"},
		Filters:      map[string]string{"room_type": "room_type", "is_active": "is_active"},
		Sorts:        []string{"name", "capacity"},
		TenantColumn: "school_id",
	}
	Lecturers = Table{
		Name:         "lecturers",
		Singular:     "lecturer",
		Columns:      []string{"school_id", "user_id", "full_name", "email", "department", "is_active"},
		Filters:      map[string]string{"department": "department", "is_active": "is_active"},
		Sorts:        []string{"full_name", "email"},
		TenantColumn: "school_id",
	}
	ClassSchedules = Table{
		Name:     "class_schedules",
		Singular: "class schedule",
		Columns: []string{"school_id", "semester_module_id", "module_id", "intake_course_id", "course_id", "semester_id",
			"day_of_week", "start_time", "end_time", "room_id", "lecturer_id", "module_start_date", "module_end_date"},
		Filters: map[string]string{"semester_id": "semester_id", "intake_course_id": "intake_course_id",
			"room_id": "room_id", "lecturer_id": "lecturer_id", "day_of_week": "day_of_week"},
		Sorts:        []string{"module_start_date", "start_time"},
		TenantColumn: "school_id",
	}
	ExamSchedules = Table{
		Name:     "exam_schedules",
		Singular: "exam schedule",
		Columns: []string{"school_id", "intake_course_id", "semester_module_id", "module_id", "exam_date", "exam_time",
			"duration_minute", "room_id", "invigilators"},
		Filters:      map[string]string{"intake_course_id": "intake_course_id", "module_id": "module_id", "room_id": "room_id"},
		Sorts:        []string{"exam_date"},
		TenantColumn: "school_id",
	}
	Subscriptions = Table{
		Name:         "subscriptions",
		Singular:     "subscription",
		Columns:      []string{"school_id", "plan", "price", "status", "starts_at", "ends_at"},
		Filters:      map[string]string{"plan": "plan", "status": "status"},
		Sorts:        []string{"starts_at"},
		TenantColumn: "school_id",
	}
	Payments = Table{
		Name:     "payments",
		Singular: "payment",
		Columns: []string{"school_id", "subscription_id", "amount", "currency", "status", "gateway_ref",
			"redirect_url", "paid_at"},
		Filters:      map[string]string{"subscription_id": "subscription_id", "status": "status"},
		Sorts:        []string{"paid_at", "amount"},
		TenantColumn: "school_id",
	}
)
