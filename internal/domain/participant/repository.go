package participant

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new participant. Returns ErrParticipantAlreadyExists
	// on duplicate Code.
	Create(ctx context.Context, p *Participant) error

	// GetByID retrieves a participant by primary key. Returns
	// ErrParticipantNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Participant, error)

	// GetByCode retrieves a participant by their study code.
	GetByCode(ctx context.Context, code string) (*Participant, error)

	// Delete removes the participant and, by cascade, their visits.
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns a paginated, filtered list of participants ordered by
	// enrollment date, newest first.
	List(ctx context.Context, q *ListParticipantsQuery) (*PagedParticipants, error)

	// ListEnrolledBetween returns every participant whose enrollment date
	// falls in the optional [from, to] range, oldest first. A nil bound is
	// open-ended.
	ListEnrolledBetween(ctx context.Context, from, to *time.Time) ([]*Participant, error)

	// Search returns up to limit participants whose code or name contains q.
	Search(ctx context.Context, q string, limit int) ([]*Participant, error)

	// Count returns the total number of enrolled participants.
	Count(ctx context.Context) (int64, error)

	// EnrollmentTrend returns weekly enrollment counts since the given time.
	EnrollmentTrend(ctx context.Context, since time.Time) ([]WeeklyEnrollment, error)
}
