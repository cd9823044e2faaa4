package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mosesotieno/clinical-study/internal/domain/visit"
	"github.com/mosesotieno/clinical-study/internal/service"
)

type VisitHandler struct {
	visitSvc *service.VisitService
}

func NewVisitHandler(visitSvc *service.VisitService) *VisitHandler {
	return &VisitHandler{visitSvc: visitSvc}
}

type createVisitRequest struct {
	ParticipantID uuid.UUID `json:"participant_id" binding:"required"`
	VisitType     string    `json:"visit_type" binding:"required"`
	Notes         string    `json:"notes"`
}

func (h *VisitHandler) Create(c *gin.Context) {
	claims := claimsFrom(c)

	var req createVisitRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &visit.CreateVisitCommand{
		ParticipantID: req.ParticipantID,
		Type:          visit.VisitType(req.VisitType),
		Notes:         req.Notes,
		CreatedBy:     claims.UserID,
	}

	v, err := h.visitSvc.CreateVisit(c.Request.Context(), cmd, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, v)
}

func (h *VisitHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	v, err := h.visitSvc.GetVisit(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, v)
}

// Status returns the five workflow booleans for a visit. Frontends poll
// this to decide which step form to show.
func (h *VisitHandler) Status(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	summary, err := h.visitSvc.GetStatus(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, summary)
}

type recordVitalsRequest struct {
	BloodPressureSystolic  int     `json:"blood_pressure_systolic" binding:"required"`
	BloodPressureDiastolic int     `json:"blood_pressure_diastolic" binding:"required"`
	HeartRate              int     `json:"heart_rate" binding:"required"`
	TemperatureCelsius     float64 `json:"temperature_celsius" binding:"required"`
	HeightCm               float64 `json:"height_cm" binding:"required"`
	WeightKg               float64 `json:"weight_kg" binding:"required"`
}

func (h *VisitHandler) RecordVitals(c *gin.Context) {
	claims := claimsFrom(c)
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req recordVitalsRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &visit.RecordVitalsCommand{
		BloodPressureSystolic:  req.BloodPressureSystolic,
		BloodPressureDiastolic: req.BloodPressureDiastolic,
		HeartRate:              req.HeartRate,
		TemperatureCelsius:     req.TemperatureCelsius,
		HeightCm:               req.HeightCm,
		WeightKg:               req.WeightKg,
		TakenBy:                claims.UserID,
	}

	rec, err := h.visitSvc.RecordVitals(c.Request.Context(), id, cmd, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, rec)
}

type recordDoctorRequest struct {
	ChiefComplaint       string `json:"chief_complaint" binding:"required"`
	MedicalHistory       string `json:"medical_history" binding:"required"`
	CurrentMedications   string `json:"current_medications"`
	PhysicalExamFindings string `json:"physical_exam_findings" binding:"required"`
}

func (h *VisitHandler) RecordDoctorAssessment(c *gin.Context) {
	claims := claimsFrom(c)
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req recordDoctorRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &visit.RecordDoctorAssessmentCommand{
		ChiefComplaint:       req.ChiefComplaint,
		MedicalHistory:       req.MedicalHistory,
		CurrentMedications:   req.CurrentMedications,
		PhysicalExamFindings: req.PhysicalExamFindings,
		CompletedBy:          claims.UserID,
	}

	rec, err := h.visitSvc.RecordDoctorAssessment(c.Request.Context(), id, cmd, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, rec)
}

type recordPsychiatristRequest struct {
	MentalStatusExam string `json:"mental_status_exam" binding:"required"`
	RiskFactors      string `json:"risk_factors" binding:"required"`
	Recommendations  string `json:"recommendations" binding:"required"`
	AssessmentNotes  string `json:"assessment_notes"`
}

func (h *VisitHandler) RecordPsychiatristAssessment(c *gin.Context) {
	claims := claimsFrom(c)
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req recordPsychiatristRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &visit.RecordPsychiatristAssessmentCommand{
		MentalStatusExam: req.MentalStatusExam,
		RiskFactors:      req.RiskFactors,
		Recommendations:  req.Recommendations,
		AssessmentNotes:  req.AssessmentNotes,
		CompletedBy:      claims.UserID,
	}

	rec, err := h.visitSvc.RecordPsychiatristAssessment(c.Request.Context(), id, cmd, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, rec)
}

type recordLabRequest struct {
	TestsRequested []string `json:"tests_requested" binding:"required"`
	Urgency        string   `json:"urgency" binding:"required"`
	Notes          string   `json:"notes"`
}

func (h *VisitHandler) RecordLabRequest(c *gin.Context) {
	claims := claimsFrom(c)
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req recordLabRequest
	if !bindJSON(c, &req) {
		return
	}

	tests := make([]visit.LabTest, 0, len(req.TestsRequested))
	for _, t := range req.TestsRequested {
		tests = append(tests, visit.LabTest(t))
	}

	cmd := &visit.RecordLabRequestCommand{
		TestsRequested: tests,
		Urgency:        visit.Urgency(req.Urgency),
		Notes:          req.Notes,
		RequestedBy:    claims.UserID,
	}

	rec, err := h.visitSvc.RecordLabRequest(c.Request.Context(), id, cmd, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, rec)
}

func (h *VisitHandler) Complete(c *gin.Context) {
	claims := claimsFrom(c)
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	v, err := h.visitSvc.CompleteVisit(c.Request.Context(), id, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, v)
}
