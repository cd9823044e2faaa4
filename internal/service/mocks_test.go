package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mosesotieno/clinical-study/internal/domain"
	"github.com/mosesotieno/clinical-study/internal/domain/participant"
	"github.com/mosesotieno/clinical-study/internal/domain/visit"
	"github.com/mosesotieno/clinical-study/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockVisitRepository is a mock implementation of visit.Repository.
type MockVisitRepository struct {
	mock.Mock
}

func (m *MockVisitRepository) Create(ctx context.Context, v *visit.Visit) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockVisitRepository) GetByID(ctx context.Context, id uuid.UUID) (*visit.Visit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*visit.Visit), args.Error(1)
}

func (m *MockVisitRepository) SetCompleted(ctx context.Context, id uuid.UUID) (*visit.Visit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*visit.Visit), args.Error(1)
}

func (m *MockVisitRepository) CreateVitals(ctx context.Context, rec *visit.Vitals) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockVisitRepository) CreateDoctorAssessment(ctx context.Context, rec *visit.DoctorAssessment) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockVisitRepository) CreatePsychiatristAssessment(ctx context.Context, rec *visit.PsychiatristAssessment) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockVisitRepository) CreateLabRequest(ctx context.Context, rec *visit.LabRequest) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockVisitRepository) ListActive(ctx context.Context) ([]*visit.Visit, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*visit.Visit), args.Error(1)
}

func (m *MockVisitRepository) ListByParticipant(ctx context.Context, participantID uuid.UUID) ([]*visit.Visit, error) {
	args := m.Called(ctx, participantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*visit.Visit), args.Error(1)
}

func (m *MockVisitRepository) ListCompleted(ctx context.Context, q *visit.ListCompletedQuery) (*visit.PagedVisits, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*visit.PagedVisits), args.Error(1)
}

func (m *MockVisitRepository) CompletedStats(ctx context.Context, q *visit.ListCompletedQuery, today time.Time) (visit.CompletedStats, error) {
	args := m.Called(ctx, q, today)
	return args.Get(0).(visit.CompletedStats), args.Error(1)
}

func (m *MockVisitRepository) Counts(ctx context.Context) (visit.VisitCounts, error) {
	args := m.Called(ctx)
	return args.Get(0).(visit.VisitCounts), args.Error(1)
}

func (m *MockVisitRepository) CountByType(ctx context.Context, completedOnly bool) ([]visit.TypeCount, error) {
	args := m.Called(ctx, completedOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]visit.TypeCount), args.Error(1)
}

func (m *MockVisitRepository) CountInRange(ctx context.Context, from, to time.Time, completed *bool) (int64, error) {
	args := m.Called(ctx, from, to, completed)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVisitRepository) HasActive(ctx context.Context, participantID uuid.UUID) (bool, error) {
	args := m.Called(ctx, participantID)
	return args.Bool(0), args.Error(1)
}

func (m *MockVisitRepository) LatestVitals(ctx context.Context, participantID uuid.UUID) (*visit.Vitals, error) {
	args := m.Called(ctx, participantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*visit.Vitals), args.Error(1)
}

func (m *MockVisitRepository) LatestDoctorAssessment(ctx context.Context, participantID uuid.UUID) (*visit.DoctorAssessment, error) {
	args := m.Called(ctx, participantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*visit.DoctorAssessment), args.Error(1)
}

// MockParticipantRepository is a mock implementation of participant.Repository.
type MockParticipantRepository struct {
	mock.Mock
}

func (m *MockParticipantRepository) Create(ctx context.Context, p *participant.Participant) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockParticipantRepository) GetByID(ctx context.Context, id uuid.UUID) (*participant.Participant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*participant.Participant), args.Error(1)
}

func (m *MockParticipantRepository) GetByCode(ctx context.Context, code string) (*participant.Participant, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*participant.Participant), args.Error(1)
}

func (m *MockParticipantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockParticipantRepository) List(ctx context.Context, q *participant.ListParticipantsQuery) (*participant.PagedParticipants, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*participant.PagedParticipants), args.Error(1)
}

func (m *MockParticipantRepository) ListEnrolledBetween(ctx context.Context, from, to *time.Time) ([]*participant.Participant, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*participant.Participant), args.Error(1)
}

func (m *MockParticipantRepository) Search(ctx context.Context, q string, limit int) ([]*participant.Participant, error) {
	args := m.Called(ctx, q, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*participant.Participant), args.Error(1)
}

func (m *MockParticipantRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockParticipantRepository) EnrollmentTrend(ctx context.Context, since time.Time) ([]participant.WeeklyEnrollment, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]participant.WeeklyEnrollment), args.Error(1)
}

// MockAuditRepository is a mock implementation of AuditRepository.
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func newTestCollector() *metrics.Collector {
	return metrics.NewCollector("test", prometheus.NewRegistry())
}

func newTestAuditService() *AuditService {
	repo := new(MockAuditRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
	return NewAuditService(repo, newTestCollector(), zap.NewNop())
}

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) UpdateLoginAttempt(ctx context.Context, id uuid.UUID, success bool) error {
	args := m.Called(ctx, id, success)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}
