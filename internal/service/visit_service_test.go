package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mosesotieno/clinical-study/internal/domain/participant"
	"github.com/mosesotieno/clinical-study/internal/domain/visit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupVisitService() (*VisitService, *MockVisitRepository, *MockParticipantRepository) {
	visitRepo := new(MockVisitRepository)
	participantRepo := new(MockParticipantRepository)
	svc := NewVisitService(visitRepo, participantRepo, newTestAuditService(), newTestCollector(), zap.NewNop())
	return svc, visitRepo, participantRepo
}

func validVitalsCommand() *visit.RecordVitalsCommand {
	return &visit.RecordVitalsCommand{
		BloodPressureSystolic:  120,
		BloodPressureDiastolic: 80,
		HeartRate:              72,
		TemperatureCelsius:     36.8,
		HeightCm:               172,
		WeightKg:               70,
		TakenBy:                uuid.New(),
	}
}

func TestCreateVisit(t *testing.T) {
	svc, visitRepo, participantRepo := setupVisitService()
	ctx := context.Background()
	participantID := uuid.New()

	participantRepo.On("GetByID", ctx, participantID).Return(&participant.Participant{ID: participantID}, nil)
	visitRepo.On("Create", ctx, mock.AnythingOfType("*visit.Visit")).Return(nil)

	v, err := svc.CreateVisit(ctx, &visit.CreateVisitCommand{
		ParticipantID: participantID,
		Type:          visit.TypeBaseline,
	}, uuid.New(), "coordinator", "10.0.0.1")

	require.NoError(t, err)
	assert.Equal(t, participantID, v.ParticipantID)
	assert.False(t, v.Completed)
	visitRepo.AssertExpectations(t)
}

func TestCreateVisitInvalidType(t *testing.T) {
	svc, _, _ := setupVisitService()

	_, err := svc.CreateVisit(context.Background(), &visit.CreateVisitCommand{
		ParticipantID: uuid.New(),
		Type:          visit.VisitType("annual"),
	}, uuid.New(), "coordinator", "10.0.0.1")

	assert.ErrorIs(t, err, visit.ErrInvalidVisitType)
}

func TestCreateVisitUnknownParticipant(t *testing.T) {
	svc, _, participantRepo := setupVisitService()
	ctx := context.Background()
	participantID := uuid.New()

	participantRepo.On("GetByID", ctx, participantID).Return(nil, participant.ErrParticipantNotFound)

	_, err := svc.CreateVisit(ctx, &visit.CreateVisitCommand{
		ParticipantID: participantID,
		Type:          visit.TypeBaseline,
	}, uuid.New(), "coordinator", "10.0.0.1")

	assert.ErrorIs(t, err, participant.ErrParticipantNotFound)
}

func TestRecordVitalsOnNewVisit(t *testing.T) {
	svc, visitRepo, _ := setupVisitService()
	ctx := context.Background()
	visitID := uuid.New()

	visitRepo.On("GetByID", ctx, visitID).Return(&visit.Visit{ID: visitID}, nil)
	visitRepo.On("CreateVitals", ctx, mock.AnythingOfType("*visit.Vitals")).Return(nil)

	rec, err := svc.RecordVitals(ctx, visitID, validVitalsCommand(), uuid.New(), "nurse", "10.0.0.1")

	require.NoError(t, err)
	assert.Equal(t, visitID, rec.VisitID)
	visitRepo.AssertExpectations(t)
}

func TestRecordVitalsOutOfOrder(t *testing.T) {
	svc, visitRepo, _ := setupVisitService()
	ctx := context.Background()
	visitID := uuid.New()

	// Vitals already recorded; the visit is waiting on the doctor.
	visitRepo.On("GetByID", ctx, visitID).Return(&visit.Visit{
		ID:     visitID,
		Vitals: &visit.Vitals{VisitID: visitID},
	}, nil)

	_, err := svc.RecordVitals(ctx, visitID, validVitalsCommand(), uuid.New(), "nurse", "10.0.0.1")

	var orderErr *visit.OutOfOrderError
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, visit.StepVitals, orderErr.Requested)
	assert.Equal(t, visit.StepDoctor, orderErr.RedirectTo)
	visitRepo.AssertNotCalled(t, "CreateVitals", mock.Anything, mock.Anything)
}

func TestRecordVitalsValidation(t *testing.T) {
	svc, visitRepo, _ := setupVisitService()

	cmd := validVitalsCommand()
	cmd.BloodPressureSystolic = 70
	cmd.BloodPressureDiastolic = 90

	_, err := svc.RecordVitals(context.Background(), uuid.New(), cmd, uuid.New(), "nurse", "10.0.0.1")

	var validErr *ValidationError
	require.ErrorAs(t, err, &validErr)
	assert.Contains(t, validErr.Fields, "systolic pressure must be greater than diastolic pressure")
	visitRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestRecordDoctorAssessmentRequiresVitals(t *testing.T) {
	svc, visitRepo, _ := setupVisitService()
	ctx := context.Background()
	visitID := uuid.New()

	visitRepo.On("GetByID", ctx, visitID).Return(&visit.Visit{ID: visitID}, nil)

	_, err := svc.RecordDoctorAssessment(ctx, visitID, &visit.RecordDoctorAssessmentCommand{
		ChiefComplaint:       "headache",
		MedicalHistory:       "none",
		PhysicalExamFindings: "unremarkable",
	}, uuid.New(), "doctor", "10.0.0.1")

	var orderErr *visit.OutOfOrderError
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, visit.StepVitals, orderErr.RedirectTo)
}

func TestRecordDuplicateStep(t *testing.T) {
	svc, visitRepo, _ := setupVisitService()
	ctx := context.Background()
	visitID := uuid.New()

	// Gate passes but the insert races with another submission; the unique
	// constraint reports the conflict.
	visitRepo.On("GetByID", ctx, visitID).Return(&visit.Visit{ID: visitID}, nil)
	visitRepo.On("CreateVitals", ctx, mock.Anything).Return(visit.ErrStepAlreadyRecorded)

	_, err := svc.RecordVitals(ctx, visitID, validVitalsCommand(), uuid.New(), "nurse", "10.0.0.1")

	assert.ErrorIs(t, err, visit.ErrStepAlreadyRecorded)
}

func TestRecordLabRequestValidation(t *testing.T) {
	svc, _, _ := setupVisitService()
	ctx := context.Background()

	_, err := svc.RecordLabRequest(ctx, uuid.New(), &visit.RecordLabRequestCommand{
		Urgency: visit.UrgencyRoutine,
	}, uuid.New(), "doctor", "10.0.0.1")
	assert.ErrorIs(t, err, visit.ErrNoTestsRequested)

	_, err = svc.RecordLabRequest(ctx, uuid.New(), &visit.RecordLabRequestCommand{
		TestsRequested: []visit.LabTest{"MRI"},
		Urgency:        visit.UrgencyRoutine,
	}, uuid.New(), "doctor", "10.0.0.1")
	assert.ErrorIs(t, err, visit.ErrUnknownLabTest)

	_, err = svc.RecordLabRequest(ctx, uuid.New(), &visit.RecordLabRequestCommand{
		TestsRequested: []visit.LabTest{visit.TestCBC},
		Urgency:        visit.Urgency("immediately"),
	}, uuid.New(), "doctor", "10.0.0.1")
	assert.ErrorIs(t, err, visit.ErrInvalidUrgency)
}

func fullyRecordedVisit(id uuid.UUID) *visit.Visit {
	return &visit.Visit{
		ID:           id,
		Vitals:       &visit.Vitals{VisitID: id},
		Doctor:       &visit.DoctorAssessment{VisitID: id},
		Psychiatrist: &visit.PsychiatristAssessment{VisitID: id},
		Lab:          &visit.LabRequest{VisitID: id},
	}
}

func TestCompleteVisit(t *testing.T) {
	svc, visitRepo, _ := setupVisitService()
	ctx := context.Background()
	visitID := uuid.New()

	v := fullyRecordedVisit(visitID)
	done := fullyRecordedVisit(visitID)
	done.Completed = true

	visitRepo.On("GetByID", ctx, visitID).Return(v, nil)
	visitRepo.On("SetCompleted", ctx, visitID).Return(done, nil)

	completed, err := svc.CompleteVisit(ctx, visitID, uuid.New(), "doctor", "10.0.0.1")

	require.NoError(t, err)
	assert.True(t, completed.Completed)
	visitRepo.AssertExpectations(t)
}

func TestCompleteVisitIdempotent(t *testing.T) {
	svc, visitRepo, _ := setupVisitService()
	ctx := context.Background()
	visitID := uuid.New()

	done := fullyRecordedVisit(visitID)
	done.Completed = true
	visitRepo.On("GetByID", ctx, visitID).Return(done, nil)

	completed, err := svc.CompleteVisit(ctx, visitID, uuid.New(), "doctor", "10.0.0.1")

	require.NoError(t, err)
	assert.True(t, completed.Completed)
	visitRepo.AssertNotCalled(t, "SetCompleted", mock.Anything, mock.Anything)
}

func TestCompleteVisitWithMissingSteps(t *testing.T) {
	svc, visitRepo, _ := setupVisitService()
	ctx := context.Background()
	visitID := uuid.New()

	visitRepo.On("GetByID", ctx, visitID).Return(&visit.Visit{
		ID:     visitID,
		Vitals: &visit.Vitals{VisitID: visitID},
	}, nil)

	_, err := svc.CompleteVisit(ctx, visitID, uuid.New(), "doctor", "10.0.0.1")

	var orderErr *visit.OutOfOrderError
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, visit.StepComplete, orderErr.Requested)
	assert.Equal(t, visit.StepDoctor, orderErr.RedirectTo)
	visitRepo.AssertNotCalled(t, "SetCompleted", mock.Anything, mock.Anything)
}

func TestGetStatus(t *testing.T) {
	svc, visitRepo, _ := setupVisitService()
	ctx := context.Background()
	visitID := uuid.New()

	visitRepo.On("GetByID", ctx, visitID).Return(&visit.Visit{
		ID:     visitID,
		Vitals: &visit.Vitals{VisitID: visitID},
		Doctor: &visit.DoctorAssessment{VisitID: visitID},
	}, nil)

	summary, err := svc.GetStatus(ctx, visitID)

	require.NoError(t, err)
	assert.True(t, summary.VitalsCompleted)
	assert.True(t, summary.DoctorCompleted)
	assert.False(t, summary.PsychiatristCompleted)
	assert.False(t, summary.LabRequested)
	assert.False(t, summary.Completed)
}

func TestGetStatusNotFound(t *testing.T) {
	svc, visitRepo, _ := setupVisitService()
	ctx := context.Background()
	visitID := uuid.New()

	visitRepo.On("GetByID", ctx, visitID).Return(nil, visit.ErrVisitNotFound)

	_, err := svc.GetStatus(ctx, visitID)
	assert.ErrorIs(t, err, visit.ErrVisitNotFound)
}
