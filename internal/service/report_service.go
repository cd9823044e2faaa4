package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/mosesotieno/clinical-study/internal/domain/participant"
	"github.com/mosesotieno/clinical-study/internal/domain/visit"
	"go.uber.org/zap"
)

// ReportService derives the dashboard and report aggregates. The workflow
// computations (progress, waiting buckets) come from the visit package;
// this service only assembles them with storage counts.
type ReportService struct {
	visitRepo       visit.Repository
	participantRepo participant.Repository
	auditSvc        *AuditService
	log             *zap.Logger
}

func NewReportService(visitRepo visit.Repository, participantRepo participant.Repository, auditSvc *AuditService, log *zap.Logger) *ReportService {
	return &ReportService{
		visitRepo:       visitRepo,
		participantRepo: participantRepo,
		auditSvc:        auditSvc,
		log:             log,
	}
}

// ActiveVisitEntry is one row of the active-visits dashboard.
type ActiveVisitEntry struct {
	Visit    *visit.Visit `json:"visit"`
	Progress int          `json:"progress"`
	NextStep visit.Step   `json:"next_step"`
}

type ActiveVisitsReport struct {
	Visits         []ActiveVisitEntry `json:"visits"`
	Buckets        visit.BucketCounts `json:"buckets"`
	TodayVisits    int64              `json:"today_visits"`
	TodayCompleted int64              `json:"today_completed"`
}

func (s *ReportService) ActiveVisits(ctx context.Context) (*ActiveVisitsReport, error) {
	visits, err := s.visitRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing active visits: %w", err)
	}

	entries := make([]ActiveVisitEntry, 0, len(visits))
	statuses := make([]visit.WorkflowStatus, 0, len(visits))
	for _, v := range visits {
		ws := v.Status()
		statuses = append(statuses, ws)
		entries = append(entries, ActiveVisitEntry{
			Visit:    v,
			Progress: ws.ProgressCount(),
			NextStep: ws.NextStep(),
		})
	}

	today := startOfDay(time.Now())
	tomorrow := today.Add(24 * time.Hour)

	todayVisits, err := s.visitRepo.CountInRange(ctx, today, tomorrow, nil)
	if err != nil {
		return nil, fmt.Errorf("counting today's visits: %w", err)
	}
	completed := true
	todayCompleted, err := s.visitRepo.CountInRange(ctx, today, tomorrow, &completed)
	if err != nil {
		return nil, fmt.Errorf("counting today's completed visits: %w", err)
	}

	return &ActiveVisitsReport{
		Visits:         entries,
		Buckets:        visit.CountBuckets(statuses),
		TodayVisits:    todayVisits,
		TodayCompleted: todayCompleted,
	}, nil
}

type TypeBreakdown struct {
	Type       visit.VisitType `json:"visit_type"`
	Count      int64           `json:"count"`
	Percentage float64         `json:"percentage"`
}

type CompletedVisitsReport struct {
	Visits            *visit.PagedVisits `json:"visits"`
	TotalCompleted    int64              `json:"total_completed"`
	CompletedToday    int64              `json:"completed_today"`
	CompletedThisWeek int64              `json:"completed_this_week"`
	ActiveCount       int64              `json:"active_count"`
	TotalVisits       int64              `json:"total_visits"`
	TypeBreakdown     []TypeBreakdown    `json:"visit_type_breakdown"`
}

func (s *ReportService) CompletedVisits(ctx context.Context, q *visit.ListCompletedQuery) (*CompletedVisitsReport, error) {
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}

	paged, err := s.visitRepo.ListCompleted(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing completed visits: %w", err)
	}

	// Stats honour the same filters as the listing; only the active count
	// is global, so total_visits reads as "matching completed + all active".
	stats, err := s.visitRepo.CompletedStats(ctx, q, startOfDay(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("aggregating completed visits: %w", err)
	}

	counts, err := s.visitRepo.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting visits: %w", err)
	}

	breakdown := make([]TypeBreakdown, 0, len(stats.ByType))
	for _, tc := range stats.ByType {
		pct := 0.0
		if stats.Total > 0 {
			pct = float64(tc.Count) * 100.0 / float64(stats.Total)
		}
		breakdown = append(breakdown, TypeBreakdown{Type: tc.Type, Count: tc.Count, Percentage: pct})
	}

	return &CompletedVisitsReport{
		Visits:            paged,
		TotalCompleted:    stats.Total,
		CompletedToday:    stats.Today,
		CompletedThisWeek: stats.ThisWeek,
		ActiveCount:       counts.Active,
		TotalVisits:       stats.Total + counts.Active,
		TypeBreakdown:     breakdown,
	}, nil
}

type StudyProgressReport struct {
	TotalParticipants int64                          `json:"total_participants"`
	TotalVisits       int64                          `json:"total_visits"`
	CompletedVisits   int64                          `json:"completed_visits"`
	ActiveVisits      int64                          `json:"active_visits"`
	VisitTypes        []visit.TypeCount              `json:"visit_types"`
	WeeklyEnrollment  []participant.WeeklyEnrollment `json:"weekly_enrollment"`
}

const enrollmentTrendWeeks = 8

func (s *ReportService) StudyProgress(ctx context.Context) (*StudyProgressReport, error) {
	totalParticipants, err := s.participantRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting participants: %w", err)
	}

	counts, err := s.visitRepo.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting visits: %w", err)
	}

	typeCounts, err := s.visitRepo.CountByType(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("counting visit types: %w", err)
	}

	since := time.Now().Add(-enrollmentTrendWeeks * 7 * 24 * time.Hour)
	trend, err := s.participantRepo.EnrollmentTrend(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("loading enrollment trend: %w", err)
	}

	return &StudyProgressReport{
		TotalParticipants: totalParticipants,
		TotalVisits:       counts.Total,
		CompletedVisits:   counts.Completed,
		ActiveVisits:      counts.Active,
		VisitTypes:        typeCounts,
		WeeklyEnrollment:  trend,
	}, nil
}

type VisitSummaryReport struct {
	Visits         *visit.PagedVisits `json:"visits"`
	TotalVisits    int64              `json:"total_visits"`
	CompletedCount int64              `json:"completed_count"`
	ActiveCount    int64              `json:"active_count"`
	TypeSummary    []visit.TypeCount  `json:"visit_type_summary"`
}

func (s *ReportService) VisitSummary(ctx context.Context, q *visit.ListCompletedQuery) (*VisitSummaryReport, error) {
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}

	paged, err := s.visitRepo.ListCompleted(ctx, q)
	if err != nil {
		return nil, err
	}

	counts, err := s.visitRepo.Counts(ctx)
	if err != nil {
		return nil, err
	}

	typeCounts, err := s.visitRepo.CountByType(ctx, false)
	if err != nil {
		return nil, err
	}

	return &VisitSummaryReport{
		Visits:         paged,
		TotalVisits:    counts.Total,
		CompletedCount: counts.Completed,
		ActiveCount:    counts.Active,
		TypeSummary:    typeCounts,
	}, nil
}

// ExportQuery controls the participant CSV export.
type ExportQuery struct {
	DateFrom      *time.Time
	DateTo        *time.Time
	IncludeVitals bool
	IncludeDoctor bool
}

const exportTruncateLen = 50

// ExportParticipantsCSV streams the participant extract to w. Optional
// columns pull each participant's latest vitals / doctor assessment across
// all their visits.
func (s *ReportService) ExportParticipantsCSV(ctx context.Context, w io.Writer, q *ExportQuery, callerID uuid.UUID, callerRole string, ip string) error {
	participants, err := s.participantRepo.ListEnrolledBetween(ctx, q.DateFrom, q.DateTo)
	if err != nil {
		return fmt.Errorf("listing participants: %w", err)
	}

	cw := csv.NewWriter(w)

	headers := []string{"Participant ID", "First Name", "Last Name", "Date of Birth", "Gender", "Enrollment Date"}
	if q.IncludeVitals {
		headers = append(headers, "Blood Pressure", "Heart Rate", "Temperature", "Height", "Weight")
	}
	if q.IncludeDoctor {
		headers = append(headers, "Chief Complaint", "Medical History")
	}
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	rows := 0
	for _, p := range participants {
		row := []string{
			p.Code,
			p.FirstName,
			p.LastName,
			p.DateOfBirth.Format("2006-01-02"),
			string(p.Gender),
			p.EnrolledAt.Format("2006-01-02"),
		}

		if q.IncludeVitals {
			vt, err := s.visitRepo.LatestVitals(ctx, p.ID)
			if err != nil {
				return fmt.Errorf("loading latest vitals: %w", err)
			}
			if vt != nil {
				row = append(row,
					fmt.Sprintf("%d/%d", vt.BloodPressureSystolic, vt.BloodPressureDiastolic),
					fmt.Sprintf("%d", vt.HeartRate),
					fmt.Sprintf("%.1f", vt.TemperatureCelsius),
					fmt.Sprintf("%.1f", vt.HeightCm),
					fmt.Sprintf("%.1f", vt.WeightKg),
				)
			} else {
				row = append(row, "", "", "", "", "")
			}
		}

		if q.IncludeDoctor {
			da, err := s.visitRepo.LatestDoctorAssessment(ctx, p.ID)
			if err != nil {
				return fmt.Errorf("loading latest doctor assessment: %w", err)
			}
			if da != nil {
				row = append(row, truncate(da.ChiefComplaint), truncate(da.MedicalHistory))
			} else {
				row = append(row, "", "")
			}
		}

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
		rows++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "export",
		ResourceType: "participant",
		IPAddress:    ip,
		Changes:      fmt.Sprintf(`{"rows":%d}`, rows),
	})

	return nil
}

// truncate shortens free text to exportTruncateLen characters without
// splitting a multi-byte rune.
func truncate(s string) string {
	r := []rune(s)
	if len(r) > exportTruncateLen {
		return string(r[:exportTruncateLen]) + "..."
	}
	return s
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
