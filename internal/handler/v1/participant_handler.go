package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mosesotieno/clinical-study/internal/domain/participant"
	"github.com/mosesotieno/clinical-study/internal/domain/visit"
	"github.com/mosesotieno/clinical-study/internal/service"
)

type ParticipantHandler struct {
	participantSvc *service.ParticipantService
	visitSvc       *service.VisitService
}

func NewParticipantHandler(participantSvc *service.ParticipantService, visitSvc *service.VisitService) *ParticipantHandler {
	return &ParticipantHandler{participantSvc: participantSvc, visitSvc: visitSvc}
}

type enrollParticipantRequest struct {
	Code        string `json:"participant_id" binding:"required"`
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name" binding:"required"`
	DateOfBirth string `json:"date_of_birth" binding:"required"`
	Gender      string `json:"gender" binding:"required"`
	ContactInfo string `json:"contact_info"`
}

func (h *ParticipantHandler) Enroll(c *gin.Context) {
	claims := claimsFrom(c)

	var req enrollParticipantRequest
	if !bindJSON(c, &req) {
		return
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		respondError(c, http.StatusBadRequest, "date_of_birth must be formatted YYYY-MM-DD")
		return
	}

	cmd := &participant.EnrollParticipantCommand{
		Code:        req.Code,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: dob,
		Gender:      participant.Gender(req.Gender),
		ContactInfo: req.ContactInfo,
		CreatedBy:   claims.UserID,
	}

	p, err := h.participantSvc.Enroll(c.Request.Context(), cmd, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, p)
}

func (h *ParticipantHandler) List(c *gin.Context) {
	q := &participant.ListParticipantsQuery{
		Search:   c.Query("search"),
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}

	paged, err := h.participantSvc.ListParticipants(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, paged)
}

func (h *ParticipantHandler) Search(c *gin.Context) {
	results, err := h.participantSvc.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, results)
}

// participantDetail is the participant page payload: the record itself
// plus the full visit history and whether a visit is currently open.
type participantDetail struct {
	Participant *participant.Participant `json:"participant"`
	Age         int                      `json:"age"`
	Visits      []*visit.Visit           `json:"visits"`
	HasActive   bool                     `json:"has_active_visit"`
}

func (h *ParticipantHandler) Get(c *gin.Context) {
	claims := claimsFrom(c)
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.participantSvc.GetParticipant(c.Request.Context(), id, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	visits, err := h.visitSvc.ListParticipantVisits(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	hasActive := false
	for _, v := range visits {
		if !v.Completed {
			hasActive = true
			break
		}
	}

	respondOK(c, participantDetail{
		Participant: p,
		Age:         p.Age(),
		Visits:      visits,
		HasActive:   hasActive,
	})
}

func (h *ParticipantHandler) Delete(c *gin.Context) {
	claims := claimsFrom(c)
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.participantSvc.DeleteParticipant(c.Request.Context(), id, claims.UserID, string(claims.Role), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
