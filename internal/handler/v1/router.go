package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mosesotieno/clinical-study/internal/config"
	"github.com/mosesotieno/clinical-study/internal/domain"
	"github.com/mosesotieno/clinical-study/internal/service"
	"github.com/mosesotieno/clinical-study/pkg/auth"
	"github.com/mosesotieno/clinical-study/pkg/metrics"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Config     *config.Config
	Logger     *zap.Logger
	Collector  *metrics.Collector
	JWTManager *auth.JWTManager

	AuthSvc        *service.AuthService
	ParticipantSvc *service.ParticipantService
	VisitSvc       *service.VisitService
	ReportSvc      *service.ReportService
}

// NewRouter wires the full HTTP surface. All clinical routes require a
// valid token; write access to each workflow step is restricted to the
// role that performs it.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(deps.Logger))
	r.Use(Metrics(deps.Collector))
	r.Use(CORS(deps.Config.CORS))
	r.Use(RateLimit(deps.Config.RateLimit))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": deps.Config.App.Version})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	authHandler := NewAuthHandler(deps.AuthSvc)
	participantHandler := NewParticipantHandler(deps.ParticipantSvc, deps.VisitSvc)
	visitHandler := NewVisitHandler(deps.VisitSvc)
	reportHandler := NewReportHandler(deps.ReportSvc)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(AuthRateLimit(deps.Config.RateLimit))
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/change-password", Authenticate(deps.JWTManager), authHandler.ChangePassword)
	}

	protected := api.Group("")
	protected.Use(Authenticate(deps.JWTManager))

	participants := protected.Group("/participants")
	{
		participants.POST("", RequireRole(domain.RoleCoordinator), participantHandler.Enroll)
		participants.GET("", participantHandler.List)
		participants.GET("/search", participantHandler.Search)
		participants.GET("/:id", participantHandler.Get)
		participants.DELETE("/:id", RequireRole(domain.RoleCoordinator), participantHandler.Delete)
	}

	visits := protected.Group("/visits")
	{
		visits.POST("", RequireRole(domain.RoleCoordinator, domain.RoleNurse), visitHandler.Create)
		visits.GET("/:id", visitHandler.Get)
		visits.GET("/:id/status", visitHandler.Status)

		visits.POST("/:id/vitals", RequireRole(domain.RoleNurse), visitHandler.RecordVitals)
		visits.POST("/:id/doctor", RequireRole(domain.RoleDoctor), visitHandler.RecordDoctorAssessment)
		visits.POST("/:id/psychiatrist", RequireRole(domain.RolePsychiatrist), visitHandler.RecordPsychiatristAssessment)
		visits.POST("/:id/lab", RequireRole(domain.RoleDoctor, domain.RoleLabTech), visitHandler.RecordLabRequest)
		visits.POST("/:id/complete", RequireRole(domain.RoleCoordinator, domain.RoleDoctor), visitHandler.Complete)
	}

	dashboard := protected.Group("/dashboard")
	{
		dashboard.GET("/active", reportHandler.ActiveVisits)
		dashboard.GET("/completed", reportHandler.CompletedVisits)
	}

	reports := protected.Group("/reports")
	{
		reports.GET("/study-progress", reportHandler.StudyProgress)
		reports.GET("/visit-summary", reportHandler.VisitSummary)
		reports.GET("/export/participants", RequireRole(domain.RoleCoordinator), reportHandler.ExportParticipants)
	}

	return r
}
