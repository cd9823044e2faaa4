package participant

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

type Participant struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt *time.Time `json:"-" gorm:"index"`

	// Code is the study-assigned participant identifier, e.g. "P-0001".
	Code        string    `json:"participant_id" gorm:"column:code;type:varchar(20);uniqueIndex;not null"`
	FirstName   string    `json:"first_name" gorm:"column:first_name;type:varchar(100);not null"`
	LastName    string    `json:"last_name" gorm:"column:last_name;type:varchar(100);not null"`
	DateOfBirth time.Time `json:"date_of_birth" gorm:"column:date_of_birth;not null"`
	Gender      Gender    `json:"gender" gorm:"column:gender;type:varchar(10);not null"`
	ContactInfo string    `json:"contact_info,omitempty" gorm:"column:contact_info;type:varchar(100)"`

	// EnrolledAt is when the participant entered the study.
	EnrolledAt time.Time `json:"enrolled_at" gorm:"column:enrolled_at;autoCreateTime;index"`

	CreatedBy uuid.UUID `json:"created_by" gorm:"column:created_by;type:uuid;not null"`
}

func (Participant) TableName() string {
	return "clinical.participants"
}

func (p *Participant) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func (p *Participant) Age() int {
	now := time.Now()
	years := now.Year() - p.DateOfBirth.Year()
	if now.Month() < p.DateOfBirth.Month() ||
		(now.Month() == p.DateOfBirth.Month() && now.Day() < p.DateOfBirth.Day()) {
		years--
	}
	return years
}

type EnrollParticipantCommand struct {
	Code        string
	FirstName   string
	LastName    string
	DateOfBirth time.Time
	Gender      Gender
	ContactInfo string
	CreatedBy   uuid.UUID
}

type ListParticipantsQuery struct {
	Search   string // matches code, first or last name
	Page     int
	PageSize int
}

type PagedParticipants struct {
	Participants []*Participant `json:"participants"`
	TotalCount   int64          `json:"total_count"`
	Page         int            `json:"page"`
	PageSize     int            `json:"page_size"`
	TotalPages   int            `json:"total_pages"`
}

// SearchResult is the compact shape returned by the participant search API.
type SearchResult struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"participant_id"`
	Name        string    `json:"name"`
	DateOfBirth string    `json:"dob"`
}

// WeeklyEnrollment is one bucket of the enrollment trend report.
type WeeklyEnrollment struct {
	WeekStart time.Time `json:"week_start"`
	Count     int64     `json:"count"`
}
