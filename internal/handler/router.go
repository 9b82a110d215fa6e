package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/campushub/campushub-api/internal/middleware"
	"github.com/campushub/campushub-api/internal/models"
	"github.com/campushub/campushub-api/internal/service"
	"github.com/campushub/campushub-api/pkg/config"
	corsmiddleware "github.com/campushub/campushub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campushub/campushub-api/pkg/middleware/requestid"
)

// RouterDeps carries everything the HTTP layer needs.
type RouterDeps struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *service.MetricsService
	Auth       *service.AuthService
	Resources  *service.Resources
	Schedules  *service.ScheduleService
	Enrollment *service.EnrollmentService
	Billing    *service.BillingService
	Checks     map[string]Pinger
}

var (
	allMembers = []models.UserRole{models.RoleAdmin, models.RoleLecturer, models.RoleStudent}
	staff      = []models.UserRole{models.RoleAdmin, models.RoleLecturer}
	admins     = []models.UserRole{models.RoleAdmin}
	superOnly  = []models.UserRole{}
)

// NewRouter builds the gin engine with middleware and every route mounted.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(middleware.Observe(deps.Logger, deps.Metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := NewMetricsHandler(deps.Metrics, deps.Checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	authHandler := NewAuthHandler(deps.Auth)
	api.POST("/auth/login", authHandler.Login)

	scheduleHandler := NewScheduleHandler(deps.Schedules)
	api.GET("/exports/:token", scheduleHandler.Download)

	billingHandler := NewBillingHandler(deps.Billing)
	api.POST("/payments/notifications", billingHandler.Notification)

	secured := api.Group("")
	secured.Use(middleware.Authenticate(deps.Auth))
	secured.GET("/auth/me", authHandler.Me)

	res := deps.Resources
	NewResourceHandler[models.School](res.Schools).Register(secured.Group("/schools"), allMembers, superOnly)
	NewResourceHandler[models.Intake](res.Intakes).Register(secured.Group("/intakes"), allMembers, admins)
	NewResourceHandler[models.Course](res.Courses).Register(secured.Group("/courses"), allMembers, admins)
	NewResourceHandler[models.Semester](res.Semesters).Register(secured.Group("/semesters"), allMembers, admins)
	NewResourceHandler[models.Module](res.Modules).Register(secured.Group("/modules"), allMembers, admins)
	NewResourceHandler[models.SemesterModule](res.SemesterModules).Register(secured.Group("/semester-modules"), allMembers, admins)
	NewResourceHandler[models.Room](res.Rooms).Register(secured.Group("/rooms"), staff, admins)
	NewResourceHandler[models.Lecturer](res.Lecturers).Register(secured.Group("/lecturers"), staff, admins)
	NewResourceHandler[models.ClassSchedule](res.ClassSchedules).Register(secured.Group("/class-schedules"), allMembers, admins)
	NewResourceHandler[models.ExamSchedule](res.ExamSchedules).Register(secured.Group("/exam-schedules"), allMembers, admins)
	NewResourceHandler[models.Subscription](res.Subscriptions).Register(secured.Group("/subscriptions"), admins, superOnly)

	intakeCourses := secured.Group("/intake-courses")
	NewResourceHandler[models.IntakeCourse](res.IntakeCourses).Register(intakeCourses, allMembers, admins)
	enrollmentHandler := NewEnrollmentHandler(deps.Enrollment)
	intakeCourses.POST("/:id/enroll", middleware.RBAC(models.RoleAdmin, models.RoleStudent), enrollmentHandler.Enroll)

	payments := secured.Group("/payments")
	payments.POST("/checkout", middleware.RBAC(admins...), billingHandler.Checkout)
	NewResourceHandler[models.Payment](res.Payments).Register(payments, admins, superOnly)

	schedules := secured.Group("/schedules")
	schedules.Use(middleware.RBAC(admins...))
	schedules.POST("/generate", scheduleHandler.Generate)
	schedules.GET("/drafts/:id", scheduleHandler.Draft)
	schedules.GET("/drafts/:id/export", scheduleHandler.Export)
	schedules.POST("/drafts/:id/export", scheduleHandler.ExportLink)
	schedules.POST("/import", scheduleHandler.Import)

	return r
}
