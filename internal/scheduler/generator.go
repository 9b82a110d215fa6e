package scheduler

import (
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/campushub/campushub-api/pkg/errors"
)

// Generator errors surfaced to API callers as 400s.
var (
	ErrIntakeCourseNotFound = appErrors.Clone(appErrors.ErrValidation, "Selected intake course not found")
	ErrNoModules            = appErrors.Clone(appErrors.ErrValidation, "No modules found for the selected semester")
)

// Generator places classes and exams with uniform random choices.
type Generator struct {
	rng    *rand.Rand
	logger *zap.Logger
	now    func() time.Time
}

// New builds a generator. A nil rng is seeded from the clock.
func New(rng *rand.Rand, logger *zap.Logger) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{rng: rng, logger: logger, now: time.Now}
}

// GenerateClassSchedule assigns a day, slot, room and lecturer to every resolved module.
func (g *Generator) GenerateClassSchedule(input ClassInput, cfg Config) (ClassResult, error) {
	if input.IntakeCourse == nil {
		return ClassResult{}, ErrIntakeCourseNotFound
	}
	modules := resolveModules(input)
	if len(modules) == 0 {
		return ClassResult{}, ErrNoModules
	}

	cfg = cfg.withDefaults(g.now())
	tracker := input.Tracker
	if tracker == nil {
		tracker = NewTracker()
	}

	result := ClassResult{Entries: make([]ClassEntry, 0, len(modules)), Skipped: []Skip{}}
	sessions := cfg.sessionsPerModule()

	for i, module := range modules {
		start, end := moduleWindow(cfg.SemesterStart, i, len(modules), cfg.DurationWeeks)
		dayOrder := g.rng.Perm(len(cfg.Days))[:sessions]

		for _, dayIdx := range dayOrder {
			day := cfg.Days[dayIdx]
			slot := cfg.TimeSlots[g.rng.Intn(len(cfg.TimeSlots))]
			classDate := NextWeekday(start, day)

			rooms := tracker.FreeRooms(day, slot.Start, classDate, input.Rooms)
			lecturers := tracker.FreeLecturers(day, slot.Start, classDate, input.Lecturers)
			if len(rooms) == 0 || len(lecturers) == 0 {
				reason := "no free room"
				if len(rooms) > 0 {
					reason = "no free lecturer"
				}
				g.logger.Warn("skipping module, resources exhausted",
					zap.String("semester_module_id", module.SemesterModuleID),
					zap.String("day", day.String()),
					zap.String("slot", slot.Start),
					zap.String("date", FormatDate(classDate)),
					zap.String("reason", reason),
				)
				result.Skipped = append(result.Skipped, Skip{
					Kind:             SkipClass,
					SemesterModuleID: module.SemesterModuleID,
					ModuleID:         module.ModuleID,
					Reason:           reason,
				})
				continue
			}

			room := rooms[g.rng.Intn(len(rooms))]
			lecturer := lecturers[g.rng.Intn(len(lecturers))]
			tracker.MarkUsed(day, slot.Start, classDate, room.ID, lecturer.ID)

			result.Entries = append(result.Entries, ClassEntry{
				IntakeCourseID:   firstNonEmpty(module.IntakeCourseID, input.IntakeCourse.ID),
				CourseID:         firstNonEmpty(module.CourseID, input.IntakeCourse.CourseID),
				SemesterID:       module.SemesterID,
				SemesterModuleID: module.SemesterModuleID,
				ModuleID:         module.ModuleID,
				DayOfWeek:        day.String(),
				StartTime:        slot.Start,
				EndTime:          slot.End,
				ClassDate:        FormatDate(classDate),
				RoomID:           room.ID,
				LecturerID:       lecturer.ID,
				ModuleStartDate:  FormatDate(start),
				ModuleEndDate:    FormatDate(end),
				SchoolID:         firstNonEmpty(module.SchoolID, input.IntakeCourse.SchoolID),
			})
		}
	}

	sort.SliceStable(result.Entries, func(i, j int) bool {
		a, b := result.Entries[i], result.Entries[j]
		if a.ModuleStartDate == b.ModuleStartDate {
			return a.StartTime < b.StartTime
		}
		return a.ModuleStartDate < b.ModuleStartDate
	})

	return result, nil
}

// GenerateExamSchedule derives one exam per (module, intake course) from the class schedule.
func (g *Generator) GenerateExamSchedule(input ExamInput) ExamResult {
	result := ExamResult{Entries: []ExamEntry{}, Skipped: []Skip{}}
	seen := make(map[[2]string]struct{})

	for _, class := range input.Classes {
		if input.SemesterID != "" && class.SemesterID != input.SemesterID {
			continue
		}
		if input.SelectedModule != "" && class.ModuleID != input.SelectedModule && class.SemesterModuleID != input.SelectedModule {
			continue
		}
		key := [2]string{class.ModuleID, class.IntakeCourseID}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if len(input.Rooms) == 0 {
			g.skipExam(&result, class, "no rooms available")
			continue
		}

		pool := make([]Lecturer, 0, len(input.Lecturers))
		for _, lecturer := range input.Lecturers {
			if lecturer.ID != class.LecturerID {
				pool = append(pool, lecturer)
			}
		}
		if len(pool) == 0 {
			g.skipExam(&result, class, "no invigilators available")
			continue
		}

		end, err := ParseDate(class.ModuleEndDate)
		if err != nil {
			g.skipExam(&result, class, err.Error())
			continue
		}

		count := 1 + g.rng.Intn(2)
		if count > len(pool) {
			count = len(pool)
		}
		invigilators := make([]string, 0, count)
		for _, idx := range g.rng.Perm(len(pool))[:count] {
			invigilators = append(invigilators, pool[idx].ID)
		}

		examTime := ExamTimes[g.rng.Intn(len(ExamTimes))]
		room := input.Rooms[g.rng.Intn(len(input.Rooms))]

		result.Entries = append(result.Entries, ExamEntry{
			IntakeCourseID:   class.IntakeCourseID,
			CourseID:         class.CourseID,
			SemesterID:       class.SemesterID,
			SemesterModuleID: class.SemesterModuleID,
			ModuleID:         class.ModuleID,
			ExamDate:         FormatDate(end.AddDate(0, 0, -examLeadDays)),
			ExamTime:         examTime,
			DurationMinute:   examDurationMinutes,
			RoomID:           room.ID,
			Invigilators:     invigilators,
			SchoolID:         class.SchoolID,
		})
	}

	return result
}

func (g *Generator) skipExam(result *ExamResult, class ClassEntry, reason string) {
	g.logger.Warn("skipping exam",
		zap.String("module_id", class.ModuleID),
		zap.String("intake_course_id", class.IntakeCourseID),
		zap.String("reason", reason),
	)
	result.Skipped = append(result.Skipped, Skip{
		Kind:             SkipExam,
		SemesterModuleID: class.SemesterModuleID,
		ModuleID:         class.ModuleID,
		Reason:           reason,
	})
}

func resolveModules(input ClassInput) []Module {
	if input.SelectedModule != "" {
		for _, m := range input.Modules {
			if !m.Active || (input.SemesterID != "" && m.SemesterID != input.SemesterID) {
				continue
			}
			if m.SemesterModuleID == input.SelectedModule || m.ModuleID == input.SelectedModule {
				return []Module{m}
			}
		}
		return nil
	}
	resolved := make([]Module, 0, len(input.Modules))
	for _, m := range input.Modules {
		if !m.Active {
			continue
		}
		if input.SemesterID != "" && m.SemesterID != input.SemesterID {
			continue
		}
		resolved = append(resolved, m)
	}
	return resolved
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
