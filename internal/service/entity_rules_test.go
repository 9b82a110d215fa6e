package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campushub-api/internal/models"
	appErrors "github.com/campushub/campushub-api/pkg/errors"
)

func validClassSchedule() *models.ClassSchedule {
	return &models.ClassSchedule{
		SchoolID:         "school-1",
		SemesterModuleID: "sm-1",
		ModuleID:         "mod-1",
		IntakeCourseID:   "ic-1",
		CourseID:         "course-1",
		SemesterID:       "sem-1",
		DayOfWeek:        "tuesday",
		StartTime:        "09:00",
		EndTime:          "11:00",
		RoomID:           "room-1",
		LecturerID:       "lec-1",
		ModuleStartDate:  models.NewDate(time.Date(2025, 2, 4, 0, 0, 0, 0, time.UTC)),
		ModuleEndDate:    models.NewDate(time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)),
	}
}

func TestEntityRulesClassScheduleNormalisesDay(t *testing.T) {
	refs := &stubReferences{}
	item := validClassSchedule()

	require.NoError(t, NewEntityRules(refs).ClassSchedule(context.Background(), item))
	assert.Equal(t, "Tuesday", item.DayOfWeek)
	assert.Contains(t, refs.calls, "rooms:room-1")
	assert.Contains(t, refs.calls, "lecturers:lec-1")
}

func TestEntityRulesClassScheduleRejectsBadTimes(t *testing.T) {
	rules := NewEntityRules(&stubReferences{})

	item := validClassSchedule()
	item.EndTime = "08:00"
	assertStatus(t, rules.ClassSchedule(context.Background(), item), http.StatusBadRequest)

	item = validClassSchedule()
	item.StartTime = "9am"
	assertStatus(t, rules.ClassSchedule(context.Background(), item), http.StatusBadRequest)

	item = validClassSchedule()
	item.DayOfWeek = "Funday"
	assertStatus(t, rules.ClassSchedule(context.Background(), item), http.StatusBadRequest)

	item = validClassSchedule()
	item.ModuleEndDate = item.ModuleStartDate
	assertStatus(t, rules.ClassSchedule(context.Background(), item), http.StatusBadRequest)

	item = validClassSchedule()
	item.ModuleStartDate = models.Date{}
	assertStatus(t, rules.ClassSchedule(context.Background(), item), http.StatusBadRequest)
}

func TestEntityRulesClassScheduleUnknownRoom(t *testing.T) {
	refs := &stubReferences{missing: map[string]bool{"rooms:room-1": true}}

	err := NewEntityRules(refs).ClassSchedule(context.Background(), validClassSchedule())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidReference)
	assert.Contains(t, err.Error(), "room_id")
}

func TestEntityRulesExamScheduleDedupesInvigilators(t *testing.T) {
	refs := &stubReferences{}
	item := &models.ExamSchedule{
		SchoolID:         "school-1",
		IntakeCourseID:   "ic-1",
		SemesterModuleID: "sm-1",
		ModuleID:         "mod-1",
		ExamDate:         models.NewDate(time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)),
		ExamTime:         "09:00",
		DurationMinute:   120,
		RoomID:           "room-1",
		Invigilators:     pq.StringArray{"lec-1", " lec-2 ", "lec-1", ""},
	}

	require.NoError(t, NewEntityRules(refs).ExamSchedule(context.Background(), item))
	assert.Equal(t, pq.StringArray{"lec-1", "lec-2"}, item.Invigilators)
	assert.Contains(t, refs.calls, "lecturers:lec-2")
}

func TestEntityRulesExamScheduleMissingInvigilator(t *testing.T) {
	refs := &stubReferences{missing: map[string]bool{"lecturers:ghost": true}}
	item := &models.ExamSchedule{
		SchoolID:         "school-1",
		IntakeCourseID:   "ic-1",
		SemesterModuleID: "sm-1",
		ModuleID:         "mod-1",
		ExamDate:         models.NewDate(time.Now()),
		ExamTime:         "13:00",
		RoomID:           "room-1",
		Invigilators:     pq.StringArray{"ghost"},
	}

	err := NewEntityRules(refs).ExamSchedule(context.Background(), item)
	assert.ErrorIs(t, err, appErrors.ErrInvalidReference)
}

func TestEntityRulesSemesterDates(t *testing.T) {
	rules := NewEntityRules(&stubReferences{})
	item := &models.Semester{
		SchoolID:       "school-1",
		IntakeCourseID: "ic-1",
		CourseID:       "course-1",
		StartDate:      models.NewDate(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)),
		EndDate:        models.NewDate(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
	}
	assertStatus(t, rules.Semester(context.Background(), item), http.StatusBadRequest)

	item.EndDate = models.NewDate(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, rules.Semester(context.Background(), item))
}

func TestEntityRulesIntakeCourseCapacity(t *testing.T) {
	rules := NewEntityRules(&stubReferences{})
	item := &models.IntakeCourse{SchoolID: "school-1", IntakeID: "in-1", CourseID: "c-1", MaxStudents: 10, CurrentStudents: 11}
	assertStatus(t, rules.IntakeCourse(context.Background(), item), http.StatusBadRequest)

	item.CurrentStudents = 3
	require.NoError(t, rules.IntakeCourse(context.Background(), item))
	assert.Equal(t, models.IntakeCourseOpen, item.Status)
}

func TestEntityRulesLecturerNormalises(t *testing.T) {
	blank := "  "
	item := &models.Lecturer{SchoolID: "school-1", FullName: "Ada", Email: " Ada@Example.COM ", UserID: &blank}

	require.NoError(t, NewEntityRules(&stubReferences{}).Lecturer(context.Background(), item))
	assert.Equal(t, "ada@example.com", item.Email)
	assert.Nil(t, item.UserID)
}
