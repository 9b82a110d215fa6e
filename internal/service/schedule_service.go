package service

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campushub/campushub-api/internal/models"
	"github.com/campushub/campushub-api/internal/scheduler"
	appErrors "github.com/campushub/campushub-api/pkg/errors"
	"github.com/campushub/campushub-api/pkg/mailer"
	"github.com/campushub/campushub-api/pkg/storage"
)

type schedulePools interface {
	ActiveRooms(ctx context.Context, schoolID string) ([]models.Room, error)
	ActiveLecturers(ctx context.Context, schoolID string) ([]models.Lecturer, error)
	SemesterModulesForIntakeCourse(ctx context.Context, schoolID, intakeCourseID string) ([]models.SemesterModule, error)
	ClassSchedulesForSchool(ctx context.Context, schoolID string) ([]models.ClassSchedule, error)
}

type intakeCourseReader interface {
	Get(ctx context.Context, scope Scope, id string) (*models.IntakeCourse, error)
}

type classScheduleWriter interface {
	Create(ctx context.Context, scope Scope, item *models.ClassSchedule) (*models.ClassSchedule, error)
}

type examScheduleWriter interface {
	Create(ctx context.Context, scope Scope, item *models.ExamSchedule) (*models.ExamSchedule, error)
}

type exportStorage interface {
	Put(name string, data []byte) (string, error)
	Open(name string) (io.ReadCloser, int64, error)
	Sweep(ttl time.Duration) ([]string, error)
}

type downloadSigner interface {
	Sign(ref, path string) (string, time.Time, error)
	Verify(token string) (storage.Grant, error)
}

type importNotifier interface {
	ImportSummary(to mailer.Address, filename string, summary models.ImportSummary) error
}

// ScheduleConfig tunes generation, export and import.
type ScheduleConfig struct {
	DraftTTL            time.Duration
	CheckPersisted      bool
	HonorClassesPerWeek bool
	ClassesPerWeek      int
	DurationWeeks       int
	MaxImportRows       int
	APIPrefix           string
	ExportTTL           time.Duration
}

// ScheduleDependencies collects the collaborators of ScheduleService.
type ScheduleDependencies struct {
	Pools         schedulePools
	IntakeCourses intakeCourseReader
	Classes       classScheduleWriter
	Exams         examScheduleWriter
	Drafts        DraftStore
	Storage       exportStorage
	Signer        downloadSigner
	Notifier      importNotifier
	Metrics       *MetricsService
}

// GenerateScheduleRequest is the payload of a generator run.
type GenerateScheduleRequest struct {
	IntakeCourseID string `json:"intakeCourseId" validate:"required"`
	SemesterID     string `json:"semesterId" validate:"required_without=ModuleID"`
	// ModuleID selects a single semester module, by semester-module or module id.
	ModuleID       string `json:"moduleId"`
	StartDate      string `json:"startDate"`
	ClassesPerWeek int    `json:"classesPerWeek" validate:"omitempty,min=1,max=7"`
	DurationWeeks  int    `json:"durationWeeks" validate:"omitempty,min=1,max=52"`
	IncludeExams   *bool  `json:"includeExams"`
	Seed           *int64 `json:"seed"`
}

// ScheduleService generates schedule drafts and moves them through export and import.
type ScheduleService struct {
	deps      ScheduleDependencies
	cfg       ScheduleConfig
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
	newRand   func(seed int64) *rand.Rand
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(deps ScheduleDependencies, cfg ScheduleConfig, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DraftTTL <= 0 {
		cfg.DraftTTL = 30 * time.Minute
	}
	if cfg.MaxImportRows <= 0 {
		cfg.MaxImportRows = 5000
	}
	if deps.Drafts == nil {
		deps.Drafts = newMemoryDraftStore(time.Now)
	}
	return &ScheduleService{
		deps:      deps,
		cfg:       cfg,
		validator: validate,
		logger:    logger,
		now:       time.Now,
		newRand:   func(seed int64) *rand.Rand { return rand.New(rand.NewSource(seed)) },
	}
}

// Generate runs the class and exam generators and stores the result as a draft.
func (s *ScheduleService) Generate(ctx context.Context, scope Scope, createdBy string, req GenerateScheduleRequest) (*models.ScheduleDraft, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid schedule generation payload")
	}
	var semesterStart time.Time
	if req.StartDate != "" {
		parsed, err := scheduler.ParseDate(req.StartDate)
		if err != nil {
			return nil, appErrors.Invalid(err, "invalid startDate")
		}
		semesterStart = parsed
	}

	started := s.now()
	draft, err := s.generate(ctx, scope, createdBy, req, semesterStart)
	if err != nil {
		s.deps.Metrics.ObserveScheduleRun(0, 0, 0, 0, time.Since(started), err)
		return nil, err
	}
	classSkips, examSkips := countSkips(draft.Skipped)
	s.deps.Metrics.ObserveScheduleRun(len(draft.Classes), len(draft.Exams), classSkips, examSkips, time.Since(started), nil)

	if err := s.deps.Drafts.Save(ctx, *draft); err != nil {
		return nil, err
	}
	s.logger.Info("schedule draft generated",
		zap.String("draft_id", draft.ID),
		zap.String("intake_course_id", draft.IntakeCourseID),
		zap.Int("classes", len(draft.Classes)),
		zap.Int("exams", len(draft.Exams)),
		zap.Int("skipped", len(draft.Skipped)),
	)
	return draft, nil
}

func (s *ScheduleService) generate(ctx context.Context, scope Scope, createdBy string, req GenerateScheduleRequest, semesterStart time.Time) (*models.ScheduleDraft, error) {
	course, err := s.deps.IntakeCourses.Get(ctx, scope, req.IntakeCourseID)
	if err != nil {
		var appErr *appErrors.Error
		if !errors.As(err, &appErr) || appErr.Code != appErrors.ErrNotFound.Code {
			return nil, err
		}
		return nil, scheduler.ErrIntakeCourseNotFound
	}

	schoolID := course.SchoolID
	rooms, err := s.deps.Pools.ActiveRooms(ctx, schoolID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load rooms")
	}
	lecturers, err := s.deps.Pools.ActiveLecturers(ctx, schoolID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load lecturers")
	}
	semesterModules, err := s.deps.Pools.SemesterModulesForIntakeCourse(ctx, schoolID, course.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load semester modules")
	}
	tracker, err := s.seedTracker(ctx, schoolID)
	if err != nil {
		return nil, err
	}

	seed := s.now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}
	gen := scheduler.New(s.newRand(seed), s.logger)

	cfg := scheduler.Config{
		ClassesPerWeek:      firstPositive(req.ClassesPerWeek, s.cfg.ClassesPerWeek),
		DurationWeeks:       firstPositive(req.DurationWeeks, s.cfg.DurationWeeks),
		SemesterStart:       semesterStart,
		HonorClassesPerWeek: s.cfg.HonorClassesPerWeek,
	}
	roomPool, lecturerPool := toRoomPool(rooms), toLecturerPool(lecturers)
	classes, err := gen.GenerateClassSchedule(scheduler.ClassInput{
		IntakeCourse:   &scheduler.IntakeCourse{ID: course.ID, CourseID: course.CourseID, SchoolID: schoolID},
		SemesterID:     req.SemesterID,
		SelectedModule: req.ModuleID,
		Modules:        toModulePool(semesterModules),
		Rooms:          roomPool,
		Lecturers:      lecturerPool,
		Tracker:        tracker,
	}, cfg)
	if err != nil {
		return nil, err
	}

	draft := &models.ScheduleDraft{
		ID:             uuid.NewString(),
		SchoolID:       schoolID,
		IntakeCourseID: course.ID,
		SemesterID:     req.SemesterID,
		CreatedBy:      createdBy,
		Seed:           seed,
		CreatedAt:      s.now().UTC(),
		Classes:        classes.Entries,
		Exams:          []scheduler.ExamEntry{},
		Skipped:        classes.Skipped,
	}
	draft.ExpiresAt = draft.CreatedAt.Add(s.cfg.DraftTTL)

	if req.IncludeExams == nil || *req.IncludeExams {
		exams := gen.GenerateExamSchedule(scheduler.ExamInput{
			Classes:        classes.Entries,
			Rooms:          roomPool,
			Lecturers:      lecturerPool,
			SemesterID:     req.SemesterID,
			SelectedModule: req.ModuleID,
		})
		draft.Exams = exams.Entries
		draft.Skipped = append(draft.Skipped, exams.Skipped...)
	}
	if draft.Skipped == nil {
		draft.Skipped = []scheduler.Skip{}
	}
	return draft, nil
}

// seedTracker marks every weekly occurrence of the school's committed classes as used.
func (s *ScheduleService) seedTracker(ctx context.Context, schoolID string) (*scheduler.Tracker, error) {
	tracker := scheduler.NewTracker()
	if !s.cfg.CheckPersisted {
		return tracker, nil
	}
	existing, err := s.deps.Pools.ClassSchedulesForSchool(ctx, schoolID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load committed class schedules")
	}
	for _, class := range existing {
		day, err := scheduler.ParseWeekday(class.DayOfWeek)
		if err != nil {
			s.logger.Warn("ignoring class schedule with invalid day", zap.String("class_schedule_id", class.ID), zap.String("day", class.DayOfWeek))
			continue
		}
		// A committed class recurs weekly for its whole module window.
		for _, date := range scheduler.WeeklyDates(class.ModuleStartDate.Time, class.ModuleEndDate.Time, day) {
			tracker.MarkUsed(day, class.StartTime, date, class.RoomID, class.LecturerID)
		}
	}
	return tracker, nil
}

// Draft returns a stored draft visible to scope.
func (s *ScheduleService) Draft(ctx context.Context, scope Scope, id string) (*models.ScheduleDraft, error) {
	draft, err := s.deps.Drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if scope.Restricted() && draft.SchoolID != scope.SchoolID {
		return nil, draftNotFound()
	}
	return draft, nil
}

func toRoomPool(rooms []models.Room) []scheduler.Room {
	pool := make([]scheduler.Room, 0, len(rooms))
	for _, room := range rooms {
		pool = append(pool, scheduler.Room{ID: room.ID, Name: room.Name})
	}
	return pool
}

func toLecturerPool(lecturers []models.Lecturer) []scheduler.Lecturer {
	pool := make([]scheduler.Lecturer, 0, len(lecturers))
	for _, lecturer := range lecturers {
		pool = append(pool, scheduler.Lecturer{ID: lecturer.ID, Name: lecturer.FullName})
	}
	return pool
}

func toModulePool(modules []models.SemesterModule) []scheduler.Module {
	pool := make([]scheduler.Module, 0, len(modules))
	for _, m := range modules {
		pool = append(pool, scheduler.Module{
			SemesterModuleID: m.ID,
			ModuleID:         m.ModuleID,
			SemesterID:       m.SemesterID,
			CourseID:         m.CourseID,
			IntakeCourseID:   m.IntakeCourseID,
			SchoolID:         m.SchoolID,
			Active:           m.IsActive,
		})
	}
	return pool
}

func countSkips(skips []scheduler.Skip) (classes, exams int) {
	for _, skip := range skips {
		if skip.Kind == scheduler.SkipExam {
			exams++
		} else {
			classes++
		}
	}
	return classes, exams
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
