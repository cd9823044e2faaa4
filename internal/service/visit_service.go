package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mosesotieno/clinical-study/internal/domain/participant"
	"github.com/mosesotieno/clinical-study/internal/domain/visit"
	"github.com/mosesotieno/clinical-study/pkg/metrics"
	"go.uber.org/zap"
)

// VisitService drives the visit workflow. Every step recording checks the
// workflow gate first; the storage-level uniqueness constraint on
// (visit, step) remains the backstop against concurrent double submission.
type VisitService struct {
	repo            visit.Repository
	participantRepo participant.Repository
	auditSvc        *AuditService
	collector       *metrics.Collector
	log             *zap.Logger
}

func NewVisitService(
	repo visit.Repository,
	participantRepo participant.Repository,
	auditSvc *AuditService,
	collector *metrics.Collector,
	log *zap.Logger,
) *VisitService {
	return &VisitService{
		repo:            repo,
		participantRepo: participantRepo,
		auditSvc:        auditSvc,
		collector:       collector,
		log:             log,
	}
}

func (s *VisitService) CreateVisit(ctx context.Context, cmd *visit.CreateVisitCommand, callerID uuid.UUID, callerRole string, ip string) (*visit.Visit, error) {
	if !cmd.Type.IsValid() {
		return nil, visit.ErrInvalidVisitType
	}

	if _, err := s.participantRepo.GetByID(ctx, cmd.ParticipantID); err != nil {
		return nil, fmt.Errorf("verifying participant: %w", err)
	}

	v := &visit.Visit{
		ParticipantID: cmd.ParticipantID,
		Type:          cmd.Type,
		Notes:         cmd.Notes,
		CreatedBy:     cmd.CreatedBy,
	}

	if err := s.repo.Create(ctx, v); err != nil {
		s.log.Error("failed to create visit", zap.Error(err))
		return nil, fmt.Errorf("creating visit: %w", err)
	}

	s.collector.VisitsCreatedTotal.WithLabelValues(string(v.Type)).Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "create",
		ResourceType: "visit",
		ResourceID:   v.ID.String(),
		IPAddress:    ip,
	})

	s.log.Info("visit created",
		zap.String("visit_id", v.ID.String()),
		zap.String("participant_id", cmd.ParticipantID.String()),
		zap.String("type", string(v.Type)),
	)

	return v, nil
}

func (s *VisitService) GetVisit(ctx context.Context, id uuid.UUID) (*visit.Visit, error) {
	return s.repo.GetByID(ctx, id)
}

// ListParticipantVisits returns a participant's visit history, newest first.
func (s *VisitService) ListParticipantVisits(ctx context.Context, participantID uuid.UUID) ([]*visit.Visit, error) {
	return s.repo.ListByParticipant(ctx, participantID)
}

// GetStatus returns the derived workflow status for the status API.
func (s *VisitService) GetStatus(ctx context.Context, id uuid.UUID) (visit.StatusSummary, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return visit.StatusSummary{}, err
	}
	return v.Status().Summary(), nil
}

// checkGate loads the visit and evaluates workflow access for the requested
// step. Returns the visit on Allow and *visit.OutOfOrderError on denial.
func (s *VisitService) checkGate(ctx context.Context, id uuid.UUID, step visit.Step) (*visit.Visit, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	access := visit.EvaluateAccess(v.Status(), step)
	if !access.Allowed {
		s.collector.WorkflowDenialsTotal.WithLabelValues(string(step), string(access.RedirectTo)).Inc()
		return nil, &visit.OutOfOrderError{Requested: step, RedirectTo: access.RedirectTo}
	}
	return v, nil
}

func (s *VisitService) RecordVitals(ctx context.Context, visitID uuid.UUID, cmd *visit.RecordVitalsCommand, callerID uuid.UUID, callerRole string, ip string) (*visit.Vitals, error) {
	if err := validateVitalsCommand(cmd); err != nil {
		return nil, err
	}

	v, err := s.checkGate(ctx, visitID, visit.StepVitals)
	if err != nil {
		return nil, err
	}

	rec := &visit.Vitals{
		VisitID:                v.ID,
		BloodPressureSystolic:  cmd.BloodPressureSystolic,
		BloodPressureDiastolic: cmd.BloodPressureDiastolic,
		HeartRate:              cmd.HeartRate,
		TemperatureCelsius:     cmd.TemperatureCelsius,
		HeightCm:               cmd.HeightCm,
		WeightKg:               cmd.WeightKg,
		TakenBy:                cmd.TakenBy,
	}

	if err := s.repo.CreateVitals(ctx, rec); err != nil {
		return nil, err
	}

	s.recordStepAudit(ctx, v, visit.StepVitals, callerID, callerRole, ip)
	return rec, nil
}

func (s *VisitService) RecordDoctorAssessment(ctx context.Context, visitID uuid.UUID, cmd *visit.RecordDoctorAssessmentCommand, callerID uuid.UUID, callerRole string, ip string) (*visit.DoctorAssessment, error) {
	var errs []string
	if strings.TrimSpace(cmd.ChiefComplaint) == "" {
		errs = append(errs, "chief_complaint is required")
	}
	if strings.TrimSpace(cmd.MedicalHistory) == "" {
		errs = append(errs, "medical_history is required")
	}
	if strings.TrimSpace(cmd.PhysicalExamFindings) == "" {
		errs = append(errs, "physical_exam_findings is required")
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	v, err := s.checkGate(ctx, visitID, visit.StepDoctor)
	if err != nil {
		return nil, err
	}

	rec := &visit.DoctorAssessment{
		VisitID:              v.ID,
		ChiefComplaint:       cmd.ChiefComplaint,
		MedicalHistory:       cmd.MedicalHistory,
		CurrentMedications:   cmd.CurrentMedications,
		PhysicalExamFindings: cmd.PhysicalExamFindings,
		CompletedBy:          cmd.CompletedBy,
	}

	if err := s.repo.CreateDoctorAssessment(ctx, rec); err != nil {
		return nil, err
	}

	s.recordStepAudit(ctx, v, visit.StepDoctor, callerID, callerRole, ip)
	return rec, nil
}

func (s *VisitService) RecordPsychiatristAssessment(ctx context.Context, visitID uuid.UUID, cmd *visit.RecordPsychiatristAssessmentCommand, callerID uuid.UUID, callerRole string, ip string) (*visit.PsychiatristAssessment, error) {
	var errs []string
	if strings.TrimSpace(cmd.MentalStatusExam) == "" {
		errs = append(errs, "mental_status_exam is required")
	}
	if strings.TrimSpace(cmd.RiskFactors) == "" {
		errs = append(errs, "risk_factors is required")
	}
	if strings.TrimSpace(cmd.Recommendations) == "" {
		errs = append(errs, "recommendations is required")
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	v, err := s.checkGate(ctx, visitID, visit.StepPsychiatrist)
	if err != nil {
		return nil, err
	}

	rec := &visit.PsychiatristAssessment{
		VisitID:          v.ID,
		MentalStatusExam: cmd.MentalStatusExam,
		RiskFactors:      cmd.RiskFactors,
		Recommendations:  cmd.Recommendations,
		AssessmentNotes:  cmd.AssessmentNotes,
		CompletedBy:      cmd.CompletedBy,
	}

	if err := s.repo.CreatePsychiatristAssessment(ctx, rec); err != nil {
		return nil, err
	}

	s.recordStepAudit(ctx, v, visit.StepPsychiatrist, callerID, callerRole, ip)
	return rec, nil
}

func (s *VisitService) RecordLabRequest(ctx context.Context, visitID uuid.UUID, cmd *visit.RecordLabRequestCommand, callerID uuid.UUID, callerRole string, ip string) (*visit.LabRequest, error) {
	if len(cmd.TestsRequested) == 0 {
		return nil, visit.ErrNoTestsRequested
	}
	for _, t := range cmd.TestsRequested {
		if !t.IsValid() {
			return nil, visit.ErrUnknownLabTest
		}
	}
	if !cmd.Urgency.IsValid() {
		return nil, visit.ErrInvalidUrgency
	}

	v, err := s.checkGate(ctx, visitID, visit.StepLab)
	if err != nil {
		return nil, err
	}

	rec := &visit.LabRequest{
		VisitID:        v.ID,
		TestsRequested: cmd.TestsRequested,
		Urgency:        cmd.Urgency,
		Notes:          cmd.Notes,
		RequestedBy:    cmd.RequestedBy,
	}

	if err := s.repo.CreateLabRequest(ctx, rec); err != nil {
		return nil, err
	}

	s.recordStepAudit(ctx, v, visit.StepLab, callerID, callerRole, ip)
	return rec, nil
}

// CompleteVisit sets the completion flag. Idempotent: completing an
// already-completed visit is a no-op returning the same state.
func (s *VisitService) CompleteVisit(ctx context.Context, visitID uuid.UUID, callerID uuid.UUID, callerRole string, ip string) (*visit.Visit, error) {
	v, err := s.repo.GetByID(ctx, visitID)
	if err != nil {
		return nil, err
	}

	if v.Completed {
		return v, nil
	}

	access := visit.EvaluateAccess(v.Status(), visit.StepComplete)
	if !access.Allowed {
		s.collector.WorkflowDenialsTotal.WithLabelValues(string(visit.StepComplete), string(access.RedirectTo)).Inc()
		return nil, &visit.OutOfOrderError{Requested: visit.StepComplete, RedirectTo: access.RedirectTo}
	}

	completed, err := s.repo.SetCompleted(ctx, visitID)
	if err != nil {
		return nil, fmt.Errorf("completing visit: %w", err)
	}

	s.collector.VisitsCompletedTotal.Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "complete",
		ResourceType: "visit",
		ResourceID:   visitID.String(),
		IPAddress:    ip,
	})

	s.log.Info("visit completed",
		zap.String("visit_id", visitID.String()),
		zap.String("completed_by", callerID.String()),
	)

	return completed, nil
}

func (s *VisitService) recordStepAudit(ctx context.Context, v *visit.Visit, step visit.Step, callerID uuid.UUID, callerRole string, ip string) {
	s.collector.StepRecordsTotal.WithLabelValues(string(step)).Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "create",
		ResourceType: "visit_" + string(step),
		ResourceID:   v.ID.String(),
		IPAddress:    ip,
	})
}

func validateVitalsCommand(cmd *visit.RecordVitalsCommand) error {
	var errs []string

	if cmd.BloodPressureSystolic < 50 || cmd.BloodPressureSystolic > 250 {
		errs = append(errs, "blood_pressure_systolic must be between 50 and 250")
	}
	if cmd.BloodPressureDiastolic < 30 || cmd.BloodPressureDiastolic > 150 {
		errs = append(errs, "blood_pressure_diastolic must be between 30 and 150")
	}
	if cmd.BloodPressureSystolic <= cmd.BloodPressureDiastolic {
		errs = append(errs, "systolic pressure must be greater than diastolic pressure")
	}
	if cmd.HeartRate < 30 || cmd.HeartRate > 200 {
		errs = append(errs, "heart_rate must be between 30 and 200")
	}
	if cmd.TemperatureCelsius < 35 || cmd.TemperatureCelsius > 42 {
		errs = append(errs, "temperature_celsius must be between 35 and 42")
	}
	if cmd.HeightCm < 100 || cmd.HeightCm > 220 {
		errs = append(errs, "height_cm must be between 100 and 220")
	}
	if cmd.WeightKg < 30 || cmd.WeightKg > 200 {
		errs = append(errs, "weight_kg must be between 30 and 200")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
