package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mosesotieno/clinical-study/internal/domain/participant"
	"github.com/mosesotieno/clinical-study/internal/domain/visit"
	"github.com/mosesotieno/clinical-study/pkg/metrics"
	"go.uber.org/zap"
)

type ParticipantService struct {
	repo      participant.Repository
	visitRepo visit.Repository
	auditSvc  *AuditService
	collector *metrics.Collector
	log       *zap.Logger
}

func NewParticipantService(repo participant.Repository, visitRepo visit.Repository, auditSvc *AuditService, collector *metrics.Collector, log *zap.Logger) *ParticipantService {
	return &ParticipantService{
		repo:      repo,
		visitRepo: visitRepo,
		auditSvc:  auditSvc,
		collector: collector,
		log:       log,
	}
}

func (s *ParticipantService) Enroll(ctx context.Context, cmd *participant.EnrollParticipantCommand, callerID uuid.UUID, callerRole string, ip string) (*participant.Participant, error) {
	if err := validateEnrollCommand(cmd); err != nil {
		return nil, err
	}

	p := &participant.Participant{
		Code:        strings.ToUpper(strings.TrimSpace(cmd.Code)),
		FirstName:   strings.TrimSpace(cmd.FirstName),
		LastName:    strings.TrimSpace(cmd.LastName),
		DateOfBirth: cmd.DateOfBirth,
		Gender:      cmd.Gender,
		ContactInfo: strings.TrimSpace(cmd.ContactInfo),
		CreatedBy:   cmd.CreatedBy,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.log.Error("failed to enroll participant", zap.Error(err))
		return nil, err
	}

	s.collector.ParticipantsEnrolledTotal.Inc()

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "create",
		ResourceType: "participant",
		ResourceID:   p.ID.String(),
		IPAddress:    ip,
	})

	s.log.Info("participant enrolled",
		zap.String("participant_id", p.ID.String()),
		zap.String("code", p.Code),
		zap.String("created_by", callerID.String()),
	)

	return p, nil
}

func (s *ParticipantService) GetParticipant(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole string, ip string) (*participant.Participant, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "read",
		ResourceType: "participant",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})

	return p, nil
}

// DeleteParticipant removes a participant and their visit history. Only
// coordinators and admins may do this.
func (s *ParticipantService) DeleteParticipant(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole string, ip string) error {
	if callerRole != "admin" && callerRole != "coordinator" {
		return ErrForbidden
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting participant: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "delete",
		ResourceType: "participant",
		ResourceID:   id.String(),
		IPAddress:    ip,
		Changes:      fmt.Sprintf(`{"code":%q}`, p.Code),
	})

	return nil
}

func (s *ParticipantService) ListParticipants(ctx context.Context, q *participant.ListParticipantsQuery) (*participant.PagedParticipants, error) {
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}

	return s.repo.List(ctx, q)
}

const searchResultLimit = 10

// Search returns the compact result set backing the participant search API.
func (s *ParticipantService) Search(ctx context.Context, query string) ([]participant.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []participant.SearchResult{}, nil
	}

	matches, err := s.repo.Search(ctx, query, searchResultLimit)
	if err != nil {
		return nil, fmt.Errorf("searching participants: %w", err)
	}

	results := make([]participant.SearchResult, 0, len(matches))
	for _, p := range matches {
		results = append(results, participant.SearchResult{
			ID:          p.ID,
			Code:        p.Code,
			Name:        p.FullName(),
			DateOfBirth: p.DateOfBirth.Format("2006-01-02"),
		})
	}
	return results, nil
}

// HasActiveVisit reports whether the participant has an incomplete visit.
func (s *ParticipantService) HasActiveVisit(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.visitRepo.HasActive(ctx, id)
}

func validateEnrollCommand(cmd *participant.EnrollParticipantCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.Code) == "" {
		errs = append(errs, "participant_id is required")
	}
	if strings.TrimSpace(cmd.FirstName) == "" {
		errs = append(errs, "first_name is required")
	}
	if strings.TrimSpace(cmd.LastName) == "" {
		errs = append(errs, "last_name is required")
	}
	if cmd.DateOfBirth.IsZero() {
		errs = append(errs, "date_of_birth is required")
	}
	if cmd.DateOfBirth.After(time.Now()) {
		errs = append(errs, "date_of_birth cannot be in the future")
	}
	if !cmd.Gender.IsValid() {
		errs = append(errs, "gender is invalid")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
