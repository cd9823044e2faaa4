package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/mosesotieno/clinical-study/internal/config"
	"github.com/mosesotieno/clinical-study/internal/domain"
	"github.com/mosesotieno/clinical-study/internal/domain/participant"
	"github.com/mosesotieno/clinical-study/internal/domain/visit"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		PrepareStmt:                              true,
		DisableForeignKeyConstraintWhenMigrating: false,
		DisableAutomaticPing:                     false,
		// Unique violations surface as gorm.ErrDuplicatedKey, which the
		// repositories map to domain conflict errors.
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: false,
	}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// Instrument registers gorm callbacks that record per-operation query
// latency into obs, labelled by operation and table.
func Instrument(db *gorm.DB, obs *prometheus.HistogramVec) error {
	const startKey = "metrics:start"

	start := func(tx *gorm.DB) {
		tx.InstanceSet(startKey, time.Now())
	}
	finish := func(op string) func(tx *gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(startKey)
			if !ok {
				return
			}
			obs.WithLabelValues(op, tx.Statement.Table).Observe(time.Since(v.(time.Time)).Seconds())
		}
	}

	if err := db.Callback().Create().Before("gorm:create").Register("metrics:before_create", start); err != nil {
		return err
	}
	if err := db.Callback().Create().After("gorm:create").Register("metrics:after_create", finish("create")); err != nil {
		return err
	}
	if err := db.Callback().Query().Before("gorm:query").Register("metrics:before_query", start); err != nil {
		return err
	}
	if err := db.Callback().Query().After("gorm:query").Register("metrics:after_query", finish("query")); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("metrics:before_update", start); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:update").Register("metrics:after_update", finish("update")); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("metrics:before_delete", start); err != nil {
		return err
	}
	if err := db.Callback().Delete().After("gorm:delete").Register("metrics:after_delete", finish("delete")); err != nil {
		return err
	}

	return nil
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()

	schemas := []string{"clinical", "auth", "audit"} // logical namespace
	for _, schema := range schemas {
		if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)).Error; err != nil {
			return fmt.Errorf("creating schema %s: %w", schema, err)
		}
	}

	models := []any{
		&domain.User{},
		&domain.AuditLog{},
		&participant.Participant{},
		&visit.Visit{},
		&visit.Vitals{},
		&visit.DoctorAssessment{},
		&visit.PsychiatristAssessment{},
		&visit.LabRequest{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []struct {
		name  string
		query string
	}{
		// Active-visit dashboard: incomplete visits ordered by visit date
		{
			name:  "idx_visits_active",
			query: `CREATE INDEX IF NOT EXISTS idx_visits_active ON clinical.visits (visit_date DESC) WHERE completed = false`,
		},
		{
			name:  "idx_visits_completed_date",
			query: `CREATE INDEX IF NOT EXISTS idx_visits_completed_date ON clinical.visits (visit_date, type) WHERE completed = true`,
		},
		// Participant search: GIN index for substring search on code + name
		{
			name:  "idx_participants_search",
			query: `CREATE INDEX IF NOT EXISTS idx_participants_search_trgm ON clinical.participants USING gin ((code || ' ' || first_name || ' ' || last_name) gin_trgm_ops) WHERE deleted_at IS NULL`,
		},
	}

	// pg_trgm may be unavailable on managed instances; the search index is
	// then skipped and lookups fall back to sequential scans.
	trgmAvailable := db.Exec("CREATE EXTENSION IF NOT EXISTS pg_trgm").Error == nil

	for _, idx := range indexes {
		if strings.Contains(idx.query, "gin_trgm_ops") && !trgmAvailable {
			continue
		}
		if err := db.Exec(idx.query).Error; err != nil {
			return fmt.Errorf("creating index %s: %w", idx.name, err)
		}
	}

	return nil
}
