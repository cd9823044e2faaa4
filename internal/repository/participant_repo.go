package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/mosesotieno/clinical-study/internal/domain/participant"
	"github.com/mosesotieno/clinical-study/internal/domain/visit"
	"gorm.io/gorm"
)

type ParticipantRepository struct {
	db *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func (r *ParticipantRepository) Create(ctx context.Context, p *participant.Participant) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return participant.ErrParticipantAlreadyExists
		}
		return fmt.Errorf("inserting participant: %w", err)
	}
	return nil
}

func (r *ParticipantRepository) GetByID(ctx context.Context, id uuid.UUID) (*participant.Participant, error) {
	var p participant.Participant
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, participant.ErrParticipantNotFound
		}
		return nil, fmt.Errorf("loading participant: %w", err)
	}
	return &p, nil
}

func (r *ParticipantRepository) GetByCode(ctx context.Context, code string) (*participant.Participant, error) {
	var p participant.Participant
	err := r.db.WithContext(ctx).First(&p, "code = ?", code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, participant.ErrParticipantNotFound
		}
		return nil, fmt.Errorf("loading participant by code: %w", err)
	}
	return &p, nil
}

// Delete removes the participant together with their visits and step
// records, inside one transaction.
func (r *ParticipantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		visitIDs := tx.Model(&visit.Visit{}).Select("id").Where("participant_id = ?", id)

		for _, model := range []any{&visit.Vitals{}, &visit.DoctorAssessment{}, &visit.PsychiatristAssessment{}, &visit.LabRequest{}} {
			if err := tx.Where("visit_id IN (?)", visitIDs).Delete(model).Error; err != nil {
				return fmt.Errorf("deleting step records: %w", err)
			}
		}

		if err := tx.Where("participant_id = ?", id).Delete(&visit.Visit{}).Error; err != nil {
			return fmt.Errorf("deleting visits: %w", err)
		}

		res := tx.Delete(&participant.Participant{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("deleting participant: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return participant.ErrParticipantNotFound
		}
		return nil
	})
}

func (r *ParticipantRepository) List(ctx context.Context, q *participant.ListParticipantsQuery) (*participant.PagedParticipants, error) {
	db := r.db.WithContext(ctx).Model(&participant.Participant{})

	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		db = db.Where("code ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting participants: %w", err)
	}

	var participants []*participant.Participant
	err := db.Order("enrolled_at DESC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&participants).Error
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}

	return &participant.PagedParticipants{
		Participants: participants,
		TotalCount:   total,
		Page:         q.Page,
		PageSize:     q.PageSize,
		TotalPages:   int(math.Ceil(float64(total) / float64(q.PageSize))),
	}, nil
}

func (r *ParticipantRepository) ListEnrolledBetween(ctx context.Context, from, to *time.Time) ([]*participant.Participant, error) {
	db := r.db.WithContext(ctx)
	if from != nil {
		db = db.Where("enrolled_at >= ?", *from)
	}
	if to != nil {
		db = db.Where("enrolled_at <= ?", *to)
	}

	var participants []*participant.Participant
	if err := db.Order("enrolled_at").Find(&participants).Error; err != nil {
		return nil, fmt.Errorf("listing participants by enrollment date: %w", err)
	}
	return participants, nil
}

func (r *ParticipantRepository) Search(ctx context.Context, q string, limit int) ([]*participant.Participant, error) {
	pattern := "%" + q + "%"
	var participants []*participant.Participant
	err := r.db.WithContext(ctx).
		Where("code ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ?", pattern, pattern, pattern).
		Order("enrolled_at DESC").
		Limit(limit).
		Find(&participants).Error
	if err != nil {
		return nil, fmt.Errorf("searching participants: %w", err)
	}
	return participants, nil
}

func (r *ParticipantRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&participant.Participant{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("counting participants: %w", err)
	}
	return total, nil
}

func (r *ParticipantRepository) EnrollmentTrend(ctx context.Context, since time.Time) ([]participant.WeeklyEnrollment, error) {
	var trend []participant.WeeklyEnrollment
	err := r.db.WithContext(ctx).
		Model(&participant.Participant{}).
		Select("date_trunc('week', enrolled_at) AS week_start, count(*) AS count").
		Where("enrolled_at >= ?", since).
		Group("week_start").
		Order("week_start").
		Scan(&trend).Error
	if err != nil {
		return nil, fmt.Errorf("loading enrollment trend: %w", err)
	}
	return trend, nil
}
