package scheduler

// IntakeCourse identifies the course offering a run is generated for.
type IntakeCourse struct {
	ID       string `json:"id"`
	CourseID string `json:"courseId"`
	SchoolID string `json:"schoolId"`
}

// Module is a semester-module eligible for scheduling.
type Module struct {
	SemesterModuleID string `json:"semesterModuleId"`
	ModuleID         string `json:"moduleId"`
	SemesterID       string `json:"semesterId"`
	CourseID         string `json:"courseId"`
	IntakeCourseID   string `json:"intakeCourseId"`
	SchoolID         string `json:"schoolId"`
	Active           bool   `json:"isActive"`
}

// Room is an entry of the room pool.
type Room struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Lecturer is an entry of the lecturer pool.
type Lecturer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ClassEntry is a generated, not yet committed, weekly class.
type ClassEntry struct {
	IntakeCourseID   string `json:"intakeCourseId"`
	CourseID         string `json:"courseId"`
	SemesterID       string `json:"semesterId"`
	SemesterModuleID string `json:"semesterModuleId"`
	ModuleID         string `json:"moduleId"`
	DayOfWeek        string `json:"dayOfWeek"`
	StartTime        string `json:"startTime"`
	EndTime          string `json:"endTime"`
	ClassDate        string `json:"classDate"`
	RoomID           string `json:"roomId"`
	LecturerID       string `json:"lecturerId"`
	ModuleStartDate  string `json:"moduleStartDate"`
	ModuleEndDate    string `json:"moduleEndDate"`
	SchoolID         string `json:"schoolId"`
}

// ExamEntry is a generated, not yet committed, exam session.
type ExamEntry struct {
	IntakeCourseID   string   `json:"intakeCourseId"`
	CourseID         string   `json:"courseId"`
	SemesterID       string   `json:"semesterId"`
	SemesterModuleID string   `json:"semesterModuleId"`
	ModuleID         string   `json:"moduleId"`
	ExamDate         string   `json:"examDate"`
	ExamTime         string   `json:"examTime"`
	DurationMinute   int      `json:"durationMinute"`
	RoomID           string   `json:"roomId"`
	Invigilators     []string `json:"invigilators"`
	SchoolID         string   `json:"schoolId"`
}

// Skip kinds.
const (
	SkipClass = "class"
	SkipExam  = "exam"
)

// Skip records a module that could not be placed.
type Skip struct {
	Kind             string `json:"kind"`
	SemesterModuleID string `json:"semesterModuleId"`
	ModuleID         string `json:"moduleId"`
	Reason           string `json:"reason"`
}

// ClassInput carries everything a class run needs.
type ClassInput struct {
	IntakeCourse *IntakeCourse
	SemesterID   string
	// SelectedModule matches either a semester-module id or a module id.
	SelectedModule string
	Modules        []Module
	Rooms          []Room
	Lecturers      []Lecturer
	// Tracker may be pre-seeded with already committed classes.
	Tracker *Tracker
}

// ClassResult is the outcome of a class run.
type ClassResult struct {
	Entries []ClassEntry `json:"entries"`
	Skipped []Skip       `json:"skipped"`
}

// ExamInput carries everything an exam run needs.
type ExamInput struct {
	Classes        []ClassEntry
	Rooms          []Room
	Lecturers      []Lecturer
	SemesterID     string
	SelectedModule string
}

// ExamResult is the outcome of an exam run.
type ExamResult struct {
	Entries []ExamEntry `json:"entries"`
	Skipped []Skip      `json:"skipped"`
}
