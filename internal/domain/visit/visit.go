package visit

import (
	"time"

	"github.com/google/uuid"
)

type VisitType string

const (
	TypeBaseline  VisitType = "baseline"
	TypeFollowUp1 VisitType = "followup_1"
	TypeFollowUp2 VisitType = "followup_2"
)

func (t VisitType) IsValid() bool {
	switch t {
	case TypeBaseline, TypeFollowUp1, TypeFollowUp2:
		return true
	}
	return false
}

// Label returns the human-readable name of the visit type.
func (t VisitType) Label() string {
	switch t {
	case TypeBaseline:
		return "Baseline Visit"
	case TypeFollowUp1:
		return "1st Follow-up"
	case TypeFollowUp2:
		return "2nd Follow-up"
	}
	return string(t)
}

// Visit is one clinical encounter for a participant. It progresses through
// the fixed step order vitals → doctor → psychiatrist → lab, then is marked
// complete by an explicit action. Completion is never inferred from the
// step records alone.
type Visit struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	ParticipantID uuid.UUID `json:"participant_id" gorm:"column:participant_id;type:uuid;not null;index"`
	Type          VisitType `json:"visit_type" gorm:"column:type;type:varchar(20);not null;index"`
	VisitDate     time.Time `json:"visit_date" gorm:"column:visit_date;autoCreateTime;index"`
	Completed     bool      `json:"completed" gorm:"column:completed;not null;default:false;index"`
	Notes         string    `json:"notes,omitempty" gorm:"column:notes;type:text"`

	// Step records; at most one of each per visit, enforced by a unique
	// index on visit_id in each step table.
	Vitals       *Vitals                 `json:"vitals,omitempty" gorm:"foreignKey:VisitID"`
	Doctor       *DoctorAssessment       `json:"doctor_assessment,omitempty" gorm:"foreignKey:VisitID"`
	Psychiatrist *PsychiatristAssessment `json:"psychiatrist_assessment,omitempty" gorm:"foreignKey:VisitID"`
	Lab          *LabRequest             `json:"lab_request,omitempty" gorm:"foreignKey:VisitID"`

	CreatedBy uuid.UUID `json:"created_by" gorm:"column:created_by;type:uuid;not null"`
}

func (Visit) TableName() string {
	return "clinical.visits"
}

// Status derives the workflow position from the loaded step records.
func (v *Visit) Status() WorkflowStatus {
	return WorkflowStatus{
		Vitals:       v.Vitals != nil,
		Doctor:       v.Doctor != nil,
		Psychiatrist: v.Psychiatrist != nil,
		Lab:          v.Lab != nil,
		Completed:    v.Completed,
	}
}

type CreateVisitCommand struct {
	ParticipantID uuid.UUID
	Type          VisitType
	Notes         string
	CreatedBy     uuid.UUID
}

type ListCompletedQuery struct {
	DateFrom        *time.Time
	DateTo          *time.Time
	Type            *VisitType
	ParticipantCode string // substring match on the participant's study code
	Page            int
	PageSize        int
}

type PagedVisits struct {
	Visits     []*Visit `json:"visits"`
	TotalCount int64    `json:"total_count"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	TotalPages int      `json:"total_pages"`
}

// VisitCounts are the aggregate totals used by the progress reports.
type VisitCounts struct {
	Total     int64
	Completed int64
	Active    int64
}

// TypeCount is one row of a visit-type distribution.
type TypeCount struct {
	Type  VisitType `json:"visit_type"`
	Count int64     `json:"count"`
}

// CompletedStats are aggregates over the completed visits matching a
// ListCompletedQuery's filters, independent of paging.
type CompletedStats struct {
	Total    int64
	Today    int64
	ThisWeek int64
	ByType   []TypeCount
}
