package service

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/campushub/campushub-api/internal/models"
	"github.com/campushub/campushub-api/internal/repository"
)

// Resources groups the services behind the generic REST resources.
type Resources struct {
	Schools         *ResourceService[models.School, *models.School]
	Intakes         *ResourceService[models.Intake, *models.Intake]
	Courses         *ResourceService[models.Course, *models.Course]
	IntakeCourses   *ResourceService[models.IntakeCourse, *models.IntakeCourse]
	Semesters       *ResourceService[models.Semester, *models.Semester]
	Modules         *ResourceService[models.Module, *models.Module]
	SemesterModules *ResourceService[models.SemesterModule, *models.SemesterModule]
	Rooms           *ResourceService[models.Room, *models.Room]
	Lecturers       *ResourceService[models.Lecturer, *models.Lecturer]
	ClassSchedules  *ResourceService[models.ClassSchedule, *models.ClassSchedule]
	ExamSchedules   *ResourceService[models.ExamSchedule, *models.ExamSchedule]
	Subscriptions   *ResourceService[models.Subscription, *models.Subscription]
	Payments        *ResourceService[models.Payment, *models.Payment]
}

// NewResources wires a ResourceService per table.
func NewResources(db *sqlx.DB, refs referenceChecker, validate *validator.Validate, logger *zap.Logger) *Resources {
	rules := NewEntityRules(refs)
	return &Resources{
		Schools: NewResourceService[models.School]("school",
			repository.NewTableRepository[models.School](db, repository.Schools), ResourceHooks[models.School]{}, validate, logger),
		Intakes: NewResourceService[models.Intake]("intake",
			repository.NewTableRepository[models.Intake](db, repository.Intakes), ResourceHooks[models.Intake]{Check: rules.Intake}, validate, logger),
		Courses: NewResourceService[models.Course]("course",
			repository.NewTableRepository[models.Course](db, repository.Courses), ResourceHooks[models.Course]{Check: rules.Course}, validate, logger),
		IntakeCourses: NewResourceService[models.IntakeCourse]("intake course",
			repository.NewTableRepository[models.IntakeCourse](db, repository.IntakeCourses), ResourceHooks[models.IntakeCourse]{Check: rules.IntakeCourse}, validate, logger),
		Semesters: NewResourceService[models.Semester]("semester",
			repository.NewTableRepository[models.Semester](db, repository.Semesters), ResourceHooks[models.Semester]{
				Check:    rules.Semester,
				Decorate: func(s *models.Semester) { s.DeriveStatus(time.Now()) },
			}, validate, logger),
		Modules: NewResourceService[models.Module]("module",
			repository.NewTableRepository[models.Module](db, repository.Modules), ResourceHooks[models.Module]{Check: rules.Module}, validate, logger),
		SemesterModules: NewResourceService[models.SemesterModule]("semester module",
			repository.NewTableRepository[models.SemesterModule](db, repository.SemesterModules), ResourceHooks[models.SemesterModule]{Check: rules.SemesterModule}, validate, logger),
		Rooms: NewResourceService[models.Room]("room",
			repository.NewTableRepository[models.Room](db, repository.Rooms), ResourceHooks[models.Room]{Check: rules.Room}, validate, logger),
		Lecturers: NewResourceService[models.Lecturer]("lecturer",
			repository.NewTableRepository[models.Lecturer](db, repository.Lecturers), ResourceHooks[models.Lecturer]{Check: rules.Lecturer}, validate, logger),
		ClassSchedules: NewResourceService[models.ClassSchedule]("class schedule",
			repository.NewTableRepository[models.ClassSchedule](db, repository.ClassSchedules), ResourceHooks[models.ClassSchedule]{Check: rules.ClassSchedule}, validate, logger),
		ExamSchedules: NewResourceService[models.ExamSchedule]("exam schedule",
			repository.NewTableRepository[models.ExamSchedule](db, repository.ExamSchedules), ResourceHooks[models.ExamSchedule]{Check: rules.ExamSchedule}, validate, logger),
		Subscriptions: NewResourceService[models.Subscription]("subscription",
			repository.NewTableRepository[models.Subscription](db, repository.Subscriptions), ResourceHooks[models.Subscription]{Check: rules.Subscription}, validate, logger),
		Payments: NewResourceService[models.Payment]("payment",
			repository.NewTableRepository[models.Payment](db, repository.Payments), ResourceHooks[models.Payment]{Check: rules.Payment}, validate, logger),
	}
}
