package v1

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mosesotieno/clinical-study/internal/domain/visit"
	"github.com/mosesotieno/clinical-study/internal/service"
)

type ReportHandler struct {
	reportSvc *service.ReportService
}

func NewReportHandler(reportSvc *service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

func (h *ReportHandler) ActiveVisits(c *gin.Context) {
	report, err := h.reportSvc.ActiveVisits(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, report)
}

func (h *ReportHandler) CompletedVisits(c *gin.Context) {
	q, ok := parseCompletedQuery(c)
	if !ok {
		return
	}

	report, err := h.reportSvc.CompletedVisits(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, report)
}

func (h *ReportHandler) StudyProgress(c *gin.Context) {
	report, err := h.reportSvc.StudyProgress(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, report)
}

func (h *ReportHandler) VisitSummary(c *gin.Context) {
	q, ok := parseCompletedQuery(c)
	if !ok {
		return
	}

	report, err := h.reportSvc.VisitSummary(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, report)
}

// ExportParticipants streams the participant extract as a CSV download.
func (h *ReportHandler) ExportParticipants(c *gin.Context) {
	claims := claimsFrom(c)

	q := &service.ExportQuery{
		IncludeVitals: c.Query("include_vitals") == "true",
		IncludeDoctor: c.Query("include_doctor") == "true",
	}

	var ok bool
	if q.DateFrom, ok = parseQueryDate(c, "date_from"); !ok {
		return
	}
	if q.DateTo, ok = parseQueryDate(c, "date_to"); !ok {
		return
	}

	filename := fmt.Sprintf("participants_export_%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := h.reportSvc.ExportParticipantsCSV(c.Request.Context(), c.Writer, q, claims.UserID, string(claims.Role), c.ClientIP()); err != nil {
		// Headers may already be written; nothing more can be sent safely.
		c.Abort()
	}
}

func parseCompletedQuery(c *gin.Context) (*visit.ListCompletedQuery, bool) {
	q := &visit.ListCompletedQuery{
		ParticipantCode: c.Query("participant"),
		Page:            parseQueryInt(c, "page", 1),
		PageSize:        parseQueryInt(c, "page_size", 20),
	}

	var ok bool
	if q.DateFrom, ok = parseQueryDate(c, "date_from"); !ok {
		return nil, false
	}
	if q.DateTo, ok = parseQueryDate(c, "date_to"); !ok {
		return nil, false
	}

	if raw := c.Query("visit_type"); raw != "" {
		t := visit.VisitType(raw)
		if !t.IsValid() {
			respondError(c, http.StatusBadRequest, "invalid visit_type")
			return nil, false
		}
		q.Type = &t
	}

	return q, true
}

func parseQueryDate(c *gin.Context, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, key+" must be formatted YYYY-MM-DD")
		return nil, false
	}
	return &t, true
}
