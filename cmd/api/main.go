package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mosesotieno/clinical-study/internal/config"
	v1 "github.com/mosesotieno/clinical-study/internal/handler/v1"
	"github.com/mosesotieno/clinical-study/internal/repository"
	"github.com/mosesotieno/clinical-study/internal/service"
	"github.com/mosesotieno/clinical-study/pkg/auth"
	"github.com/mosesotieno/clinical-study/pkg/database"
	"github.com/mosesotieno/clinical-study/pkg/logger"
	"github.com/mosesotieno/clinical-study/pkg/metrics"
	"github.com/mosesotieno/clinical-study/pkg/tracer"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	if cfg.Tracing.Enabled {
		tp, err := tracer.Init(cfg.Tracing)
		if err != nil {
			log.Fatal("initializing tracer", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				log.Warn("tracer shutdown", zap.Error(err))
			}
		}()
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal("connecting to database", zap.Error(err))
	}
	if err := database.Migrate(db, log); err != nil {
		log.Fatal("running migrations", zap.Error(err))
	}

	collector := metrics.NewCollector("clinical_study", prometheus.DefaultRegisterer)
	if err := database.Instrument(db, collector.DBQueryDuration); err != nil {
		log.Fatal("instrumenting database", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("unwrapping sql.DB", zap.Error(err))
	}
	go func() {
		for range time.Tick(15 * time.Second) {
			collector.DBConnections.Set(float64(sqlDB.Stats().OpenConnections))
		}
	}()

	jwtManager := auth.NewJWTManager(cfg.JWT)

	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	participantRepo := repository.NewParticipantRepository(db)
	visitRepo := repository.NewVisitRepository(db)

	auditSvc := service.NewAuditService(auditRepo, collector, log)
	defer auditSvc.Shutdown()

	authSvc := service.NewAuthService(userRepo, jwtManager, auditSvc, log)
	participantSvc := service.NewParticipantService(participantRepo, visitRepo, auditSvc, collector, log)
	visitSvc := service.NewVisitService(visitRepo, participantRepo, auditSvc, collector, log)
	reportSvc := service.NewReportService(visitRepo, participantRepo, auditSvc, log)

	router := v1.NewRouter(v1.RouterDeps{
		Config:         cfg,
		Logger:         log,
		Collector:      collector,
		JWTManager:     jwtManager,
		AuthSvc:        authSvc,
		ParticipantSvc: participantSvc,
		VisitSvc:       visitSvc,
		ReportSvc:      reportSvc,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	log.Info("stopped")
}
