package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eirikhm/tripfellows/internal/services"
	"github.com/eirikhm/tripfellows/pkg/errors"
	"github.com/eirikhm/tripfellows/pkg/response"
)

// ProposalHandler exposes the proposal lifecycle and participation endpoints.
type ProposalHandler struct {
	proposals      *services.ProposalService
	participations *services.ParticipationService
	messages       *services.MessageService
	meetups        *services.MeetupService
}

func NewProposalHandler(db *gorm.DB) (*ProposalHandler, error) {
	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	proposals, err := services.NewProposalService(db, audit)
	if err != nil {
		return nil, err
	}
	participations, err := services.NewParticipationService(db, audit)
	if err != nil {
		return nil, err
	}
	messages, err := services.NewMessageService(db)
	if err != nil {
		return nil, err
	}
	meetups, err := services.NewMeetupService(db)
	if err != nil {
		return nil, err
	}
	return &ProposalHandler{
		proposals:      proposals,
		participations: participations,
		messages:       messages,
		meetups:        meetups,
	}, nil
}

type createProposalRequest struct {
	Title           string   `json:"title" validate:"required,min=1,max=256"`
	Destination     string   `json:"destination" validate:"omitempty,max=256"`
	Budget          *float64 `json:"budget" validate:"omitempty,gte=0"`
	MaxParticipants *int     `json:"max_participants" validate:"omitempty,gt=0"`
	StartDate       string   `json:"start_date" validate:"omitempty"`
	EndDate         string   `json:"end_date" validate:"omitempty"`
}

type postMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=4000"`
}

type addMeetupRequest struct {
	Location string `json:"location" validate:"omitempty,max=256"`
	Time     string `json:"time" validate:"omitempty"`
}

// GET /api/proposals
func (h *ProposalHandler) List(c *gin.Context) {
	proposals, err := h.proposals.ListDiscoverable(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, proposals)
}

// POST /api/proposals
func (h *ProposalHandler) Create(c *gin.Context) {
	var req createProposalRequest
	if !bindAndValidate(c, &req) {
		return
	}

	startDate, ok := parseDateField(c, "start_date", req.StartDate)
	if !ok {
		return
	}
	endDate, ok := parseDateField(c, "end_date", req.EndDate)
	if !ok {
		return
	}

	proposal, err := h.proposals.Create(requestContext(c), services.CreateProposalInput{
		ActorID:         currentUserID(c),
		Title:           req.Title,
		Destination:     req.Destination,
		Budget:          req.Budget,
		MaxParticipants: req.MaxParticipants,
		StartDate:       startDate,
		EndDate:         endDate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, proposal)
}

// GET /api/proposals/:id
func (h *ProposalHandler) Get(c *gin.Context) {
	detail, err := h.proposals.GetDetail(requestContext(c), c.Param("id"), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, detail)
}

// POST /api/proposals/:id/join
func (h *ProposalHandler) Join(c *gin.Context) {
	participation, err := h.participations.Join(requestContext(c), c.Param("id"), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, participation)
}

// POST /api/proposals/:id/leave
func (h *ProposalHandler) Leave(c *gin.Context) {
	result, err := h.participations.Leave(requestContext(c), c.Param("id"), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// POST /api/proposals/:id/finalize
func (h *ProposalHandler) Finalize(c *gin.Context) {
	proposal, err := h.proposals.Finalize(requestContext(c), c.Param("id"), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, proposal)
}

// POST /api/proposals/:id/cancel
func (h *ProposalHandler) Cancel(c *gin.Context) {
	proposal, err := h.proposals.Cancel(requestContext(c), c.Param("id"), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, proposal)
}

// POST /api/proposals/:id/close
func (h *ProposalHandler) Close(c *gin.Context) {
	proposal, err := h.proposals.CloseToNewParticipants(requestContext(c), c.Param("id"), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, proposal)
}

// POST /api/proposals/:id/participants/:userID/grant-edit
func (h *ProposalHandler) GrantEdit(c *gin.Context) {
	participation, err := h.participations.GrantEdit(requestContext(c), c.Param("id"), currentUserID(c), c.Param("userID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, participation)
}

// DELETE /api/proposals/:id
func (h *ProposalHandler) Delete(c *gin.Context) {
	if err := h.proposals.Delete(requestContext(c), c.Param("id"), currentUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// POST /api/proposals/:id/messages
func (h *ProposalHandler) PostMessage(c *gin.Context) {
	var req postMessageRequest
	if !bindAndValidate(c, &req) {
		return
	}

	message, err := h.messages.Post(requestContext(c), services.PostMessageInput{
		ProposalID: c.Param("id"),
		AuthorID:   currentUserID(c),
		Content:    req.Content,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, message)
}

// GET /api/proposals/:id/messages
func (h *ProposalHandler) ListMessages(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 50)

	var before time.Time
	if raw := strings.TrimSpace(c.Query("before")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, errors.NewBadRequest("before must be an RFC 3339 timestamp"))
			return
		}
		before = parsed
	}

	messages, err := h.messages.List(requestContext(c), c.Param("id"), currentUserID(c), limit, before)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, messages)
}

// POST /api/proposals/:id/meetups
func (h *ProposalHandler) AddMeetup(c *gin.Context) {
	var req addMeetupRequest
	if !bindAndValidate(c, &req) {
		return
	}

	when, ok := parseMeetupTime(c, req.Time)
	if !ok {
		return
	}

	meetup, err := h.meetups.Add(requestContext(c), services.AddMeetupInput{
		ProposalID: c.Param("id"),
		CreatorID:  currentUserID(c),
		Location:   req.Location,
		Time:       when,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, meetup)
}

// GET /api/proposals/:id/meetups
func (h *ProposalHandler) ListMeetups(c *gin.Context) {
	meetups, err := h.meetups.List(requestContext(c), c.Param("id"), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, meetups)
}

// parseDateField parses an optional YYYY-MM-DD value, writing an error
// response on malformed input.
func parseDateField(c *gin.Context, field, raw string) (*time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}

	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		response.Error(c, errors.NewBadRequest(field+" must be a YYYY-MM-DD date"))
		return nil, false
	}
	return &parsed, true
}

// parseMeetupTime accepts RFC 3339 or "YYYY-MM-DD HH:MM"; an empty value
// means the meetup time is not decided yet.
func parseMeetupTime(c *gin.Context, raw string) (*time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return &parsed, true
		}
	}

	response.Error(c, errors.NewBadRequest("time must be RFC 3339 or YYYY-MM-DD HH:MM"))
	return nil, false
}
