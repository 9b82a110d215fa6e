package scheduler

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var semesterStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestGenerator(seed int64) *Generator {
	return New(rand.New(rand.NewSource(seed)), zap.NewNop())
}

func buildModules(n int) []Module {
	modules := make([]Module, n)
	for i := range modules {
		modules[i] = Module{
			SemesterModuleID: fmt.Sprintf("sm-%d", i),
			ModuleID:         fmt.Sprintf("mod-%d", i),
			SemesterID:       "sem-1",
			CourseID:         "course-1",
			IntakeCourseID:   "ic-1",
			SchoolID:         "school-1",
			Active:           true,
		}
	}
	return modules
}

func classInput(modules []Module, rooms []Room, lecturers []Lecturer) ClassInput {
	return ClassInput{
		IntakeCourse: &IntakeCourse{ID: "ic-1", CourseID: "course-1", SchoolID: "school-1"},
		SemesterID:   "sem-1",
		Modules:      modules,
		Rooms:        rooms,
		Lecturers:    lecturers,
	}
}

func TestGenerateClassScheduleRequiresIntakeCourse(t *testing.T) {
	_, err := newTestGenerator(1).GenerateClassSchedule(ClassInput{Modules: buildModules(1)}, Config{})
	require.ErrorIs(t, err, ErrIntakeCourseNotFound)
	assert.Equal(t, "Selected intake course not found", err.Error())
}

func TestGenerateClassScheduleRequiresModules(t *testing.T) {
	gen := newTestGenerator(1)

	_, err := gen.GenerateClassSchedule(classInput(nil, nil, nil), Config{})
	require.Error(t, err)
	assert.Equal(t, "No modules found for the selected semester", err.Error())

	inactive := buildModules(2)
	inactive[0].Active = false
	inactive[1].Active = false
	_, err = gen.GenerateClassSchedule(classInput(inactive, nil, nil), Config{})
	assert.Equal(t, ErrNoModules, err)

	input := classInput(buildModules(2), nil, nil)
	input.SelectedModule = "missing"
	_, err = gen.GenerateClassSchedule(input, Config{})
	assert.Equal(t, ErrNoModules, err)
}

func TestGenerateClassScheduleNoDoubleBooking(t *testing.T) {
	rooms := []Room{{ID: "r1"}, {ID: "r2"}}
	lecturers := []Lecturer{{ID: "l1"}, {ID: "l2"}, {ID: "l3"}}
	cfg := Config{SemesterStart: semesterStart, DurationWeeks: 1}

	for seed := int64(0); seed < 20; seed++ {
		result, err := newTestGenerator(seed).GenerateClassSchedule(classInput(buildModules(80), rooms, lecturers), cfg)
		require.NoError(t, err)
		assert.Equal(t, 80, len(result.Entries)+len(result.Skipped))

		roomSlots := make(map[string]bool)
		lecturerSlots := make(map[string]bool)
		for _, entry := range result.Entries {
			roomKey := entry.DayOfWeek + entry.StartTime + entry.ClassDate + entry.RoomID
			lecturerKey := entry.DayOfWeek + entry.StartTime + entry.ClassDate + entry.LecturerID
			require.False(t, roomSlots[roomKey], "room double booked: %s", roomKey)
			require.False(t, lecturerSlots[lecturerKey], "lecturer double booked: %s", lecturerKey)
			roomSlots[roomKey] = true
			lecturerSlots[lecturerKey] = true
		}
	}
}

func TestGenerateClassScheduleSkipsWhenRoomsExhausted(t *testing.T) {
	cfg := Config{
		SemesterStart: semesterStart,
		DurationWeeks: 1,
		Days:          []time.Weekday{time.Monday},
		TimeSlots:     []TimeSlot{{Start: "08:00", End: "10:00"}},
	}
	input := classInput(buildModules(2), []Room{{ID: "only-room"}}, []Lecturer{{ID: "l1"}, {ID: "l2"}})

	result, err := newTestGenerator(7).GenerateClassSchedule(input, cfg)
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "sm-0", result.Entries[0].SemesterModuleID)
	assert.Equal(t, "only-room", result.Entries[0].RoomID)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, Skip{Kind: SkipClass, SemesterModuleID: "sm-1", ModuleID: "mod-1", Reason: "no free room"}, result.Skipped[0])
}

func TestGenerateClassScheduleRespectsSeededTracker(t *testing.T) {
	cfg := Config{
		SemesterStart: semesterStart,
		Days:          []time.Weekday{time.Monday},
		TimeSlots:     []TimeSlot{{Start: "08:00", End: "10:00"}},
	}
	tracker := NewTracker()
	tracker.MarkUsed(time.Monday, "08:00", semesterStart, "", "l1")
	input := classInput(buildModules(1), []Room{{ID: "r1"}}, []Lecturer{{ID: "l1"}})
	input.Tracker = tracker

	result, err := newTestGenerator(3).GenerateClassSchedule(input, cfg)
	require.NoError(t, err)
	assert.Empty(t, result.Entries)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "no free lecturer", result.Skipped[0].Reason)
}

func TestGenerateClassScheduleStaggersModuleWindows(t *testing.T) {
	rooms := []Room{{ID: "r1"}, {ID: "r2"}, {ID: "r3"}}
	lecturers := []Lecturer{{ID: "l1"}, {ID: "l2"}, {ID: "l3"}}
	cfg := Config{SemesterStart: semesterStart.Add(9 * time.Hour)}

	result, err := newTestGenerator(42).GenerateClassSchedule(classInput(buildModules(3), rooms, lecturers), cfg)
	require.NoError(t, err)
	require.Len(t, result.Entries, 3)

	expected := [][2]string{
		{"2024-01-01", "2024-03-25"},
		{"2024-01-29", "2024-04-22"},
		{"2024-02-26", "2024-05-20"},
	}
	for i, entry := range result.Entries {
		assert.Equal(t, expected[i][0], entry.ModuleStartDate)
		assert.Equal(t, expected[i][1], entry.ModuleEndDate)
		assert.Equal(t, fmt.Sprintf("sm-%d", i), entry.SemesterModuleID)

		classDate, err := ParseDate(entry.ClassDate)
		require.NoError(t, err)
		assert.Equal(t, entry.DayOfWeek, classDate.Weekday().String())
		assert.False(t, classDate.Before(mustDate(t, entry.ModuleStartDate)))
		assert.True(t, classDate.Before(mustDate(t, entry.ModuleStartDate).AddDate(0, 0, 7)))
		assert.Contains(t, []string{"r1", "r2", "r3"}, entry.RoomID)
		assert.Equal(t, "school-1", entry.SchoolID)
	}
}

func TestGenerateClassScheduleSelectedModule(t *testing.T) {
	input := classInput(buildModules(4), []Room{{ID: "r1"}}, []Lecturer{{ID: "l1"}})
	input.SelectedModule = "mod-2"

	result, err := newTestGenerator(5).GenerateClassSchedule(input, Config{SemesterStart: semesterStart})
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "sm-2", result.Entries[0].SemesterModuleID)
	assert.Equal(t, "2024-01-01", result.Entries[0].ModuleStartDate)
}

func TestGenerateClassScheduleSelectedModuleUsesChosenSemester(t *testing.T) {
	modules := []Module{
		{SemesterModuleID: "sm-s1", ModuleID: "mod-x", SemesterID: "sem-1", CourseID: "course-1", IntakeCourseID: "ic-1", SchoolID: "school-1", Active: true},
		{SemesterModuleID: "sm-s2", ModuleID: "mod-x", SemesterID: "sem-2", CourseID: "course-1", IntakeCourseID: "ic-1", SchoolID: "school-1", Active: true},
	}
	input := classInput(modules, []Room{{ID: "r1"}}, []Lecturer{{ID: "l1"}})
	input.SemesterID = "sem-2"
	input.SelectedModule = "mod-x"

	result, err := newTestGenerator(3).GenerateClassSchedule(input, Config{SemesterStart: semesterStart})
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "sm-s2", result.Entries[0].SemesterModuleID)
	assert.Equal(t, "sem-2", result.Entries[0].SemesterID)
}

func TestGenerateClassScheduleSelectedModuleIgnoresInactive(t *testing.T) {
	modules := buildModules(1)
	modules[0].Active = false
	input := classInput(modules, []Room{{ID: "r1"}}, []Lecturer{{ID: "l1"}})
	input.SelectedModule = "sm-0"

	result, err := newTestGenerator(3).GenerateClassSchedule(input, Config{SemesterStart: semesterStart})
	assert.Equal(t, ErrNoModules, err)
	assert.Empty(t, result.Entries)
}

func TestGenerateClassScheduleDefaultsToOneEntryPerModule(t *testing.T) {
	rooms := []Room{{ID: "r1"}, {ID: "r2"}, {ID: "r3"}, {ID: "r4"}}
	lecturers := []Lecturer{{ID: "l1"}, {ID: "l2"}, {ID: "l3"}, {ID: "l4"}}

	result, err := newTestGenerator(11).GenerateClassSchedule(classInput(buildModules(3), rooms, lecturers), Config{SemesterStart: semesterStart, ClassesPerWeek: 3})
	require.NoError(t, err)
	assert.Len(t, result.Entries, 3)
}

func TestGenerateClassScheduleHonorsClassesPerWeek(t *testing.T) {
	rooms := []Room{{ID: "r1"}, {ID: "r2"}, {ID: "r3"}, {ID: "r4"}}
	lecturers := []Lecturer{{ID: "l1"}, {ID: "l2"}, {ID: "l3"}, {ID: "l4"}}
	cfg := Config{SemesterStart: semesterStart, ClassesPerWeek: 2, HonorClassesPerWeek: true}

	result, err := newTestGenerator(11).GenerateClassSchedule(classInput(buildModules(3), rooms, lecturers), cfg)
	require.NoError(t, err)
	require.Len(t, result.Entries, 6)

	days := make(map[string]map[string]bool)
	for _, entry := range result.Entries {
		if days[entry.SemesterModuleID] == nil {
			days[entry.SemesterModuleID] = make(map[string]bool)
		}
		assert.False(t, days[entry.SemesterModuleID][entry.DayOfWeek], "module %s scheduled twice on %s", entry.SemesterModuleID, entry.DayOfWeek)
		days[entry.SemesterModuleID][entry.DayOfWeek] = true
	}
}

func TestGenerateExamScheduleExcludesTeachingLecturer(t *testing.T) {
	rooms := []Room{{ID: "r1"}, {ID: "r2"}}
	lecturers := []Lecturer{{ID: "l1"}, {ID: "l2"}, {ID: "l3"}}

	for seed := int64(0); seed < 25; seed++ {
		gen := newTestGenerator(seed)
		classes, err := gen.GenerateClassSchedule(classInput(buildModules(6), rooms, lecturers), Config{SemesterStart: semesterStart})
		require.NoError(t, err)

		exams := gen.GenerateExamSchedule(ExamInput{Classes: classes.Entries, Rooms: rooms, Lecturers: lecturers})
		require.Len(t, exams.Entries, len(classes.Entries))

		teaching := make(map[string]string)
		ends := make(map[string]string)
		for _, class := range classes.Entries {
			teaching[class.ModuleID] = class.LecturerID
			ends[class.ModuleID] = class.ModuleEndDate
		}
		for _, exam := range exams.Entries {
			require.NotEmpty(t, exam.Invigilators)
			require.LessOrEqual(t, len(exam.Invigilators), 2)
			assert.NotContains(t, exam.Invigilators, teaching[exam.ModuleID])
			if len(exam.Invigilators) == 2 {
				assert.NotEqual(t, exam.Invigilators[0], exam.Invigilators[1])
			}
			assert.Equal(t, mustDate(t, ends[exam.ModuleID]).AddDate(0, 0, -7), mustDate(t, exam.ExamDate))
			assert.Contains(t, ExamTimes, exam.ExamTime)
			assert.Equal(t, 120, exam.DurationMinute)
		}
	}
}

func TestGenerateExamScheduleDedupesAndFilters(t *testing.T) {
	classes := []ClassEntry{
		{ModuleID: "m1", SemesterModuleID: "sm1", IntakeCourseID: "ic", SemesterID: "s1", LecturerID: "l1", ModuleEndDate: "2024-03-25"},
		{ModuleID: "m1", SemesterModuleID: "sm1", IntakeCourseID: "ic", SemesterID: "s1", LecturerID: "l1", ModuleEndDate: "2024-03-25"},
		{ModuleID: "m2", SemesterModuleID: "sm2", IntakeCourseID: "ic", SemesterID: "s2", LecturerID: "l2", ModuleEndDate: "2024-04-22"},
	}
	gen := newTestGenerator(9)
	input := ExamInput{Classes: classes, Rooms: []Room{{ID: "r1"}}, Lecturers: []Lecturer{{ID: "l1"}, {ID: "l2"}, {ID: "l3"}}}

	all := gen.GenerateExamSchedule(input)
	require.Len(t, all.Entries, 2)
	assert.Equal(t, "2024-03-18", all.Entries[0].ExamDate)

	input.SemesterID = "s2"
	filtered := gen.GenerateExamSchedule(input)
	require.Len(t, filtered.Entries, 1)
	assert.Equal(t, "m2", filtered.Entries[0].ModuleID)

	input.SemesterID = ""
	input.SelectedModule = "sm1"
	selected := gen.GenerateExamSchedule(input)
	require.Len(t, selected.Entries, 1)
	assert.Equal(t, "m1", selected.Entries[0].ModuleID)
}

func TestGenerateExamScheduleSkipsWithoutRoomsOrInvigilators(t *testing.T) {
	classes := []ClassEntry{{ModuleID: "m1", IntakeCourseID: "ic", LecturerID: "l1", ModuleEndDate: "2024-03-25"}}
	gen := newTestGenerator(2)

	noRooms := gen.GenerateExamSchedule(ExamInput{Classes: classes, Lecturers: []Lecturer{{ID: "l2"}}})
	assert.Empty(t, noRooms.Entries)
	require.Len(t, noRooms.Skipped, 1)
	assert.Equal(t, "no rooms available", noRooms.Skipped[0].Reason)

	lecturerOnly := gen.GenerateExamSchedule(ExamInput{Classes: classes, Rooms: []Room{{ID: "r1"}}, Lecturers: []Lecturer{{ID: "l1"}}})
	assert.Empty(t, lecturerOnly.Entries)
	require.Len(t, lecturerOnly.Skipped, 1)
	assert.Equal(t, SkipExam, lecturerOnly.Skipped[0].Kind)
}

func TestGenerateScenarioThreeModulesTwoRooms(t *testing.T) {
	rooms := []Room{{ID: "r1"}, {ID: "r2"}}
	lecturers := []Lecturer{{ID: "l1"}, {ID: "l2"}}
	gen := newTestGenerator(100)

	classes, err := gen.GenerateClassSchedule(classInput(buildModules(3), rooms, lecturers), Config{})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(classes.Entries), 3)
	for _, entry := range classes.Entries {
		assert.Contains(t, []string{"r1", "r2"}, entry.RoomID)
		assert.Contains(t, []string{"l1", "l2"}, entry.LecturerID)
	}

	exams := gen.GenerateExamSchedule(ExamInput{Classes: classes.Entries, Rooms: rooms, Lecturers: lecturers})
	modules := make(map[string]bool)
	for _, exam := range exams.Entries {
		assert.False(t, modules[exam.ModuleID])
		modules[exam.ModuleID] = true
	}
}

func mustDate(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := ParseDate(raw)
	require.NoError(t, err)
	return d
}
