package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/mosesotieno/clinical-study/internal/domain/visit"
	"gorm.io/gorm"
)

type VisitRepository struct {
	db *gorm.DB
}

func NewVisitRepository(db *gorm.DB) *VisitRepository {
	return &VisitRepository{db: db}
}

func (r *VisitRepository) Create(ctx context.Context, v *visit.Visit) error {
	if err := r.db.WithContext(ctx).Create(v).Error; err != nil {
		return fmt.Errorf("inserting visit: %w", err)
	}
	return nil
}

func (r *VisitRepository) GetByID(ctx context.Context, id uuid.UUID) (*visit.Visit, error) {
	var v visit.Visit
	err := r.withSteps(r.db.WithContext(ctx)).First(&v, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, visit.ErrVisitNotFound
		}
		return nil, fmt.Errorf("loading visit: %w", err)
	}
	return &v, nil
}

func (r *VisitRepository) SetCompleted(ctx context.Context, id uuid.UUID) (*visit.Visit, error) {
	res := r.db.WithContext(ctx).
		Model(&visit.Visit{}).
		Where("id = ?", id).
		Update("completed", true)
	if res.Error != nil {
		return nil, fmt.Errorf("marking visit complete: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Either missing or already completed; GetByID distinguishes.
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

func (r *VisitRepository) CreateVitals(ctx context.Context, rec *visit.Vitals) error {
	return r.createStep(ctx, rec)
}

func (r *VisitRepository) CreateDoctorAssessment(ctx context.Context, rec *visit.DoctorAssessment) error {
	return r.createStep(ctx, rec)
}

func (r *VisitRepository) CreatePsychiatristAssessment(ctx context.Context, rec *visit.PsychiatristAssessment) error {
	return r.createStep(ctx, rec)
}

func (r *VisitRepository) CreateLabRequest(ctx context.Context, rec *visit.LabRequest) error {
	return r.createStep(ctx, rec)
}

// createStep inserts a step record; the unique index on visit_id enforces
// the one-record-per-(visit, step) invariant.
func (r *VisitRepository) createStep(ctx context.Context, rec any) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return visit.ErrStepAlreadyRecorded
		}
		return fmt.Errorf("inserting step record: %w", err)
	}
	return nil
}

func (r *VisitRepository) ListActive(ctx context.Context) ([]*visit.Visit, error) {
	var visits []*visit.Visit
	err := r.withSteps(r.db.WithContext(ctx)).
		Where("completed = ?", false).
		Order("visit_date DESC").
		Find(&visits).Error
	if err != nil {
		return nil, fmt.Errorf("listing active visits: %w", err)
	}
	return visits, nil
}

func (r *VisitRepository) ListByParticipant(ctx context.Context, participantID uuid.UUID) ([]*visit.Visit, error) {
	var visits []*visit.Visit
	err := r.withSteps(r.db.WithContext(ctx)).
		Where("participant_id = ?", participantID).
		Order("visit_date DESC").
		Find(&visits).Error
	if err != nil {
		return nil, fmt.Errorf("listing participant visits: %w", err)
	}
	return visits, nil
}

// completedFilter builds the base query for completed visits with the
// ListCompletedQuery filters applied. Each caller gets a fresh chain.
func (r *VisitRepository) completedFilter(ctx context.Context, q *visit.ListCompletedQuery) *gorm.DB {
	db := r.db.WithContext(ctx).
		Model(&visit.Visit{}).
		Where("clinical.visits.completed = ?", true)

	if q.DateFrom != nil {
		db = db.Where("visit_date >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		db = db.Where("visit_date <= ?", *q.DateTo)
	}
	if q.Type != nil {
		db = db.Where("clinical.visits.type = ?", *q.Type)
	}
	if q.ParticipantCode != "" {
		db = db.Joins("JOIN clinical.participants p ON p.id = clinical.visits.participant_id").
			Where("p.code ILIKE ?", "%"+q.ParticipantCode+"%")
	}
	return db
}

func (r *VisitRepository) ListCompleted(ctx context.Context, q *visit.ListCompletedQuery) (*visit.PagedVisits, error) {
	db := r.completedFilter(ctx, q)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting completed visits: %w", err)
	}

	var visits []*visit.Visit
	err := r.withSteps(db).
		Order("visit_date DESC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&visits).Error
	if err != nil {
		return nil, fmt.Errorf("listing completed visits: %w", err)
	}

	return &visit.PagedVisits{
		Visits:     visits,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(q.PageSize))),
	}, nil
}

func (r *VisitRepository) CompletedStats(ctx context.Context, q *visit.ListCompletedQuery, today time.Time) (visit.CompletedStats, error) {
	var stats visit.CompletedStats

	if err := r.completedFilter(ctx, q).Count(&stats.Total).Error; err != nil {
		return visit.CompletedStats{}, fmt.Errorf("counting completed visits: %w", err)
	}

	tomorrow := today.Add(24 * time.Hour)
	err := r.completedFilter(ctx, q).
		Where("visit_date >= ? AND visit_date < ?", today, tomorrow).
		Count(&stats.Today).Error
	if err != nil {
		return visit.CompletedStats{}, fmt.Errorf("counting today's completed visits: %w", err)
	}

	weekAgo := today.Add(-7 * 24 * time.Hour)
	err = r.completedFilter(ctx, q).
		Where("visit_date >= ?", weekAgo).
		Count(&stats.ThisWeek).Error
	if err != nil {
		return visit.CompletedStats{}, fmt.Errorf("counting this week's completed visits: %w", err)
	}

	err = r.completedFilter(ctx, q).
		Select("clinical.visits.type AS type, count(*) AS count").
		Group("clinical.visits.type").
		Order("clinical.visits.type").
		Scan(&stats.ByType).Error
	if err != nil {
		return visit.CompletedStats{}, fmt.Errorf("counting completed visits by type: %w", err)
	}

	return stats, nil
}

func (r *VisitRepository) Counts(ctx context.Context) (visit.VisitCounts, error) {
	var counts visit.VisitCounts
	err := r.db.WithContext(ctx).
		Model(&visit.Visit{}).
		Select("count(*) AS total, count(*) FILTER (WHERE completed) AS completed, count(*) FILTER (WHERE NOT completed) AS active").
		Scan(&counts).Error
	if err != nil {
		return visit.VisitCounts{}, fmt.Errorf("counting visits: %w", err)
	}
	return counts, nil
}

func (r *VisitRepository) CountByType(ctx context.Context, completedOnly bool) ([]visit.TypeCount, error) {
	db := r.db.WithContext(ctx).
		Model(&visit.Visit{}).
		Select("type, count(*) AS count").
		Group("type").
		Order("type")
	if completedOnly {
		db = db.Where("completed = ?", true)
	}

	var counts []visit.TypeCount
	if err := db.Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("counting visits by type: %w", err)
	}
	return counts, nil
}

func (r *VisitRepository) CountInRange(ctx context.Context, from, to time.Time, completed *bool) (int64, error) {
	db := r.db.WithContext(ctx).
		Model(&visit.Visit{}).
		Where("visit_date >= ? AND visit_date < ?", from, to)
	if completed != nil {
		db = db.Where("completed = ?", *completed)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("counting visits in range: %w", err)
	}
	return total, nil
}

func (r *VisitRepository) HasActive(ctx context.Context, participantID uuid.UUID) (bool, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&visit.Visit{}).
		Where("participant_id = ? AND completed = ?", participantID, false).
		Count(&total).Error
	if err != nil {
		return false, fmt.Errorf("checking active visits: %w", err)
	}
	return total > 0, nil
}

func (r *VisitRepository) LatestVitals(ctx context.Context, participantID uuid.UUID) (*visit.Vitals, error) {
	var rec visit.Vitals
	err := r.db.WithContext(ctx).
		Joins("JOIN clinical.visits v ON v.id = clinical.vitals.visit_id").
		Where("v.participant_id = ?", participantID).
		Order("clinical.vitals.taken_at DESC").
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading latest vitals: %w", err)
	}
	return &rec, nil
}

func (r *VisitRepository) LatestDoctorAssessment(ctx context.Context, participantID uuid.UUID) (*visit.DoctorAssessment, error) {
	var rec visit.DoctorAssessment
	err := r.db.WithContext(ctx).
		Joins("JOIN clinical.visits v ON v.id = clinical.doctor_assessments.visit_id").
		Where("v.participant_id = ?", participantID).
		Order("clinical.doctor_assessments.completed_at DESC").
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading latest doctor assessment: %w", err)
	}
	return &rec, nil
}

func (r *VisitRepository) withSteps(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Vitals").
		Preload("Doctor").
		Preload("Psychiatrist").
		Preload("Lab")
}
