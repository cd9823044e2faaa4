package visit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new visit in the "no steps done" state.
	Create(ctx context.Context, v *Visit) error

	// GetByID retrieves a visit with its step records preloaded.
	// Returns ErrVisitNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Visit, error)

	// SetCompleted sets the completion flag. Idempotent at the storage
	// level: completing an already-completed visit is a no-op.
	SetCompleted(ctx context.Context, id uuid.UUID) (*Visit, error)

	// CreateVitals persists the vitals step record. Returns
	// ErrStepAlreadyRecorded if one already exists for the visit.
	CreateVitals(ctx context.Context, rec *Vitals) error
	CreateDoctorAssessment(ctx context.Context, rec *DoctorAssessment) error
	CreatePsychiatristAssessment(ctx context.Context, rec *PsychiatristAssessment) error
	CreateLabRequest(ctx context.Context, rec *LabRequest) error

	// ListActive returns all incomplete visits with step records preloaded,
	// newest first.
	ListActive(ctx context.Context) ([]*Visit, error)

	// ListByParticipant returns all of a participant's visits with step
	// records preloaded, newest first.
	ListByParticipant(ctx context.Context, participantID uuid.UUID) ([]*Visit, error)

	// ListCompleted returns completed visits matching the query, newest
	// first.
	ListCompleted(ctx context.Context, q *ListCompletedQuery) (*PagedVisits, error)

	// CompletedStats returns aggregates over the completed visits matching
	// the query's filters, ignoring paging. today is the start of the
	// reporting day.
	CompletedStats(ctx context.Context, q *ListCompletedQuery, today time.Time) (CompletedStats, error)

	// Counts returns the total / completed / active visit totals.
	Counts(ctx context.Context) (VisitCounts, error)

	// CountByType returns the visit-type distribution, optionally limited
	// to completed visits.
	CountByType(ctx context.Context, completedOnly bool) ([]TypeCount, error)

	// CountInRange counts visits with a visit date in [from, to), optionally
	// filtered by completion state.
	CountInRange(ctx context.Context, from, to time.Time, completed *bool) (int64, error)

	// HasActive reports whether the participant has any incomplete visit.
	HasActive(ctx context.Context, participantID uuid.UUID) (bool, error)

	// LatestVitals returns the most recent vitals across all of a
	// participant's visits, or nil if none exist.
	LatestVitals(ctx context.Context, participantID uuid.UUID) (*Vitals, error)

	// LatestDoctorAssessment returns the most recent doctor assessment
	// across all of a participant's visits, or nil if none exist.
	LatestDoctorAssessment(ctx context.Context, participantID uuid.UUID) (*DoctorAssessment, error)
}
