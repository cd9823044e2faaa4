package visit

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Step identifies one stage of the visit workflow, including the terminal
// complete action.
type Step string

const (
	StepVitals       Step = "vitals"
	StepDoctor       Step = "doctor"
	StepPsychiatrist Step = "psychiatrist"
	StepLab          Step = "lab"
	StepComplete     Step = "complete"
)

func (s Step) IsValid() bool {
	switch s {
	case StepVitals, StepDoctor, StepPsychiatrist, StepLab, StepComplete:
		return true
	}
	return false
}

// stepOrder is the fixed linear workflow. No skipping, no going back.
var stepOrder = [4]Step{StepVitals, StepDoctor, StepPsychiatrist, StepLab}

// Vitals is the nurse-recorded measurement set, at most one per visit.
type Vitals struct {
	ID      uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VisitID uuid.UUID `json:"visit_id" gorm:"column:visit_id;type:uuid;not null;uniqueIndex"`

	BloodPressureSystolic  int     `json:"blood_pressure_systolic" gorm:"column:bp_systolic;not null"`
	BloodPressureDiastolic int     `json:"blood_pressure_diastolic" gorm:"column:bp_diastolic;not null"`
	HeartRate              int     `json:"heart_rate" gorm:"column:heart_rate;not null"`
	TemperatureCelsius     float64 `json:"temperature_celsius" gorm:"column:temperature_celsius;type:decimal(4,2);not null"`
	HeightCm               float64 `json:"height_cm" gorm:"column:height_cm;type:decimal(5,2);not null"`
	WeightKg               float64 `json:"weight_kg" gorm:"column:weight_kg;type:decimal(5,2);not null"`

	TakenBy uuid.UUID `json:"taken_by" gorm:"column:taken_by;type:uuid;not null"`
	TakenAt time.Time `json:"taken_at" gorm:"column:taken_at;autoCreateTime"`
}

func (Vitals) TableName() string {
	return "clinical.vitals"
}

// BMI returns the body mass index rounded to one decimal place, or 0 if
// height is missing.
func (v *Vitals) BMI() float64 {
	if v.HeightCm <= 0 {
		return 0
	}
	heightM := v.HeightCm / 100
	return math.Round(v.WeightKg/(heightM*heightM)*10) / 10
}

// DoctorAssessment is the doctor questionnaire, at most one per visit.
type DoctorAssessment struct {
	ID      uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VisitID uuid.UUID `json:"visit_id" gorm:"column:visit_id;type:uuid;not null;uniqueIndex"`

	ChiefComplaint       string `json:"chief_complaint" gorm:"column:chief_complaint;type:text;not null"`
	MedicalHistory       string `json:"medical_history" gorm:"column:medical_history;type:text;not null"`
	CurrentMedications   string `json:"current_medications,omitempty" gorm:"column:current_medications;type:text"`
	PhysicalExamFindings string `json:"physical_exam_findings" gorm:"column:physical_exam_findings;type:text;not null"`

	CompletedBy uuid.UUID `json:"completed_by" gorm:"column:completed_by;type:uuid;not null"`
	CompletedAt time.Time `json:"completed_at" gorm:"column:completed_at;autoCreateTime"`
}

func (DoctorAssessment) TableName() string {
	return "clinical.doctor_assessments"
}

// PsychiatristAssessment is the psychiatric questionnaire, at most one per
// visit.
type PsychiatristAssessment struct {
	ID      uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VisitID uuid.UUID `json:"visit_id" gorm:"column:visit_id;type:uuid;not null;uniqueIndex"`

	MentalStatusExam string `json:"mental_status_exam" gorm:"column:mental_status_exam;type:text;not null"`
	RiskFactors      string `json:"risk_factors" gorm:"column:risk_factors;type:text;not null"`
	Recommendations  string `json:"recommendations" gorm:"column:recommendations;type:text;not null"`
	AssessmentNotes  string `json:"assessment_notes,omitempty" gorm:"column:assessment_notes;type:text"`

	CompletedBy uuid.UUID `json:"completed_by" gorm:"column:completed_by;type:uuid;not null"`
	CompletedAt time.Time `json:"completed_at" gorm:"column:completed_at;autoCreateTime"`
}

func (PsychiatristAssessment) TableName() string {
	return "clinical.psychiatrist_assessments"
}

type Urgency string

const (
	UrgencyRoutine Urgency = "routine"
	UrgencyUrgent  Urgency = "urgent"
	UrgencyStat    Urgency = "stat"
)

func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyRoutine, UrgencyUrgent, UrgencyStat:
		return true
	}
	return false
}

type LabTest string

const (
	TestCBC  LabTest = "CBC"
	TestLFT  LabTest = "LFT"
	TestRFT  LabTest = "RFT"
	TestXRay LabTest = "XRAY"
	TestHIV  LabTest = "HIV"
)

func (t LabTest) IsValid() bool {
	switch t {
	case TestCBC, TestLFT, TestRFT, TestXRay, TestHIV:
		return true
	}
	return false
}

// LabRequest is the lab order for a visit, at most one per visit.
type LabRequest struct {
	ID      uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VisitID uuid.UUID `json:"visit_id" gorm:"column:visit_id;type:uuid;not null;uniqueIndex"`

	TestsRequested []LabTest `json:"tests_requested" gorm:"column:tests_requested;serializer:json;not null"`
	Urgency        Urgency   `json:"urgency" gorm:"column:urgency;type:varchar(20);not null"`
	Notes          string    `json:"notes,omitempty" gorm:"column:notes;type:text"`

	RequestedBy uuid.UUID `json:"requested_by" gorm:"column:requested_by;type:uuid;not null"`
	RequestedAt time.Time `json:"requested_at" gorm:"column:requested_at;autoCreateTime"`
}

func (LabRequest) TableName() string {
	return "clinical.lab_requests"
}

type RecordVitalsCommand struct {
	BloodPressureSystolic  int
	BloodPressureDiastolic int
	HeartRate              int
	TemperatureCelsius     float64
	HeightCm               float64
	WeightKg               float64
	TakenBy                uuid.UUID
}

type RecordDoctorAssessmentCommand struct {
	ChiefComplaint       string
	MedicalHistory       string
	CurrentMedications   string
	PhysicalExamFindings string
	CompletedBy          uuid.UUID
}

type RecordPsychiatristAssessmentCommand struct {
	MentalStatusExam string
	RiskFactors      string
	Recommendations  string
	AssessmentNotes  string
	CompletedBy      uuid.UUID
}

type RecordLabRequestCommand struct {
	TestsRequested []LabTest
	Urgency        Urgency
	Notes          string
	RequestedBy    uuid.UUID
}
