// Command seed fills an empty database with one demo school: users, rooms,
// lecturers and an intake course with a semester of modules ready for the
// schedule generator.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bxcodec/faker/v4"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/campushub-api/internal/models"
	"github.com/campushub/campushub-api/internal/repository"
	"github.com/campushub/campushub-api/internal/service"
	"github.com/campushub/campushub-api/pkg/config"
	"github.com/campushub/campushub-api/pkg/database"
	"github.com/campushub/campushub-api/pkg/logger"
)

func main() {
	rooms := flag.Int("rooms", 6, "rooms to create")
	lecturers := flag.Int("lecturers", 8, "lecturers to create")
	modules := flag.Int("modules", 5, "modules in the first semester")
	password := flag.String("password", "password123", "password of the seeded accounts")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()
	if err := database.RunMigrations(db.DB, logr); err != nil {
		logr.Fatal("failed to run migrations", zap.Error(err))
	}

	s := &seeder{
		res:      service.NewResources(db, repository.NewReferenceRepository(db), validator.New(), logr),
		users:    repository.NewUserRepository(db),
		password: *password,
		logger:   logr,
	}
	if err := s.run(ctx, *rooms, *lecturers, *modules); err != nil {
		logr.Fatal("seed failed", zap.Error(err))
	}
}

type seeder struct {
	res      *service.Resources
	users    *repository.UserRepository
	password string
	logger   *zap.Logger
}

func (s *seeder) run(ctx context.Context, roomCount, lecturerCount, moduleCount int) error {
	root := service.Scope{}

	school := &models.School{}
	school.ApplyDefaults()
	school.Name = strings.TrimSpace(faker.LastName()) + " Institute"
	school.Email = strings.ToLower(faker.Email())
	school.Phone = faker.Phonenumber()
	school, err := s.res.Schools.Create(ctx, root, school)
	if err != nil {
		return fmt.Errorf("school: %w", err)
	}
	schoolID := school.ID

	if err := s.user(ctx, nil, "root@campushub.test", models.RoleSuperAdmin); err != nil {
		return err
	}
	if err := s.user(ctx, &schoolID, "admin@"+domainOf(school.Name), models.RoleAdmin); err != nil {
		return err
	}

	for i := 1; i <= roomCount; i++ {
		room := &models.Room{}
		room.ApplyDefaults()
		room.SchoolID = schoolID
		room.Name = fmt.Sprintf("Room %d%02d", (i-1)/4+1, i)
		room.Capacity = 30 + 5*(i%4)
		if i == roomCount {
			room.RoomType = "LAB"
		}
		if _, err := s.res.Rooms.Create(ctx, root, room); err != nil {
			return fmt.Errorf("room %d: %w", i, err)
		}
	}

	for i := 0; i < lecturerCount; i++ {
		lecturer := &models.Lecturer{}
		lecturer.ApplyDefaults()
		lecturer.SchoolID = schoolID
		lecturer.FullName = faker.FirstName() + " " + faker.LastName()
		lecturer.Email = fmt.Sprintf("lecturer%d@%s", i+1, domainOf(school.Name))
		lecturer.Department = faker.Word()
		if _, err := s.res.Lecturers.Create(ctx, root, lecturer); err != nil {
			return fmt.Errorf("lecturer %d: %w", i+1, err)
		}
	}

	now := time.Now()
	intake := &models.Intake{}
	intake.ApplyDefaults()
	intake.SchoolID = schoolID
	intake.Name = now.Format("January 2006") + " Intake"
	intake.IntakeMonth = int(now.Month())
	intake.IntakeYear = now.Year()
	if intake, err = s.res.Intakes.Create(ctx, root, intake); err != nil {
		return fmt.Errorf("intake: %w", err)
	}

	course := &models.Course{}
	course.ApplyDefaults()
	course.SchoolID = schoolID
	course.Name = "Diploma in " + strings.Title(faker.Word()) //nolint:staticcheck
	course.Code = "DIP-" + strings.ToUpper(faker.Word())
	course.DurationMonths = 24
	if course, err = s.res.Courses.Create(ctx, root, course); err != nil {
		return fmt.Errorf("course: %w", err)
	}

	intakeCourse := &models.IntakeCourse{}
	intakeCourse.ApplyDefaults()
	intakeCourse.SchoolID = schoolID
	intakeCourse.IntakeID = intake.ID
	intakeCourse.CourseID = course.ID
	intakeCourse.MaxStudents = 40
	intakeCourse.Fee = 2500000
	if intakeCourse, err = s.res.IntakeCourses.Create(ctx, root, intakeCourse); err != nil {
		return fmt.Errorf("intake course: %w", err)
	}

	semester := &models.Semester{
		SchoolID:       schoolID,
		IntakeCourseID: intakeCourse.ID,
		CourseID:       course.ID,
		Name:           "Semester 1",
		SemesterNumber: 1,
		StartDate:      models.NewDate(now),
		EndDate:        models.NewDate(now.AddDate(0, 4, 0)),
	}
	if semester, err = s.res.Semesters.Create(ctx, root, semester); err != nil {
		return fmt.Errorf("semester: %w", err)
	}

	for i := 1; i <= moduleCount; i++ {
		module := &models.Module{}
		module.ApplyDefaults()
		module.SchoolID = schoolID
		module.Code = fmt.Sprintf("%s%d", course.Code, 100+i)
		module.Name = strings.Title(faker.Word()) + " " + strings.Title(faker.Word()) //nolint:staticcheck
		module.CreditHours = 3
		if module, err = s.res.Modules.Create(ctx, root, module); err != nil {
			return fmt.Errorf("module %d: %w", i, err)
		}

		link := &models.SemesterModule{}
		link.ApplyDefaults()
		link.SchoolID = schoolID
		link.SemesterID = semester.ID
		link.ModuleID = module.ID
		link.CourseID = course.ID
		link.IntakeCourseID = intakeCourse.ID
		if _, err := s.res.SemesterModules.Create(ctx, root, link); err != nil {
			return fmt.Errorf("semester module %d: %w", i, err)
		}
	}

	s.logger.Info("seed complete",
		zap.String("school_id", schoolID),
		zap.String("intake_course_id", intakeCourse.ID),
		zap.String("semester_id", semester.ID),
	)
	return nil
}

func (s *seeder) user(ctx context.Context, schoolID *string, email string, role models.UserRole) error {
	hash, err := service.HashPassword(s.password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		SchoolID:     schoolID,
		Email:        email,
		PasswordHash: hash,
		FullName:     faker.FirstName() + " " + faker.LastName(),
		Role:         role,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return fmt.Errorf("user %s: %w", email, err)
	}
	s.logger.Info("user seeded", zap.String("email", email), zap.String("role", string(role)))
	return nil
}

// domainOf turns "Hart Institute" into "hart-institute.test".
func domainOf(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-") + ".test"
}
