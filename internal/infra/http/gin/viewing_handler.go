package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"erent/internal/app/commands"
	"erent/internal/app/dto"
	viewingsapp "erent/internal/app/handlers/viewings"
	"erent/internal/app/queries"
	"erent/internal/domain/viewing"
)

type ViewingsHTTP interface {
	Search(c *gin.Context)
	Get(c *gin.Context)
	Schedule(c *gin.Context)
	Approve(c *gin.Context)
	Reject(c *gin.Context)
	Cancel(c *gin.Context)
}

type ViewingsHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type scheduleViewingRequest struct {
	PropertyID string    `json:"property_id"`
	Start      timestamp `json:"start"`
	Note       string    `json:"note"`
}

type viewingDecisionRequest struct {
	Note string `json:"note"`
}

func (h ViewingsHandler) Search(c *gin.Context) {
	q := readQuery(c)
	query := viewingsapp.SearchViewingsQuery{
		Actor:      currentActor(c),
		PropertyID: q.str("property_id"),
		TenantID:   q.str("tenant_id"),
		LandlordID: q.str("landlord_id"),
		From:       q.timePtr("from"),
		To:         q.timePtr("to"),
		Paging:     q.paging(),
	}
	if raw := q.str("status"); raw != "" {
		status, err := viewing.ParseStatus(raw)
		if err != nil {
			respondError(c, h.Logger, err)
			return
		}
		query.Status = &status
	}
	if q.err != nil {
		respondError(c, h.Logger, q.err)
		return
	}
	result, err := queries.Ask[viewingsapp.SearchViewingsQuery, dto.Page[dto.Viewing]](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ViewingsHandler) Get(c *gin.Context) {
	query := viewingsapp.GetViewingQuery{Actor: currentActor(c), ViewingID: c.Param("id")}
	result, err := queries.Ask[viewingsapp.GetViewingQuery, dto.Viewing](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ViewingsHandler) Schedule(c *gin.Context) {
	var req scheduleViewingRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	cmd := viewingsapp.ScheduleViewingCommand{
		ID:         newID(),
		Actor:      currentActor(c),
		PropertyID: req.PropertyID,
		Start:      req.Start.Time,
		Note:       req.Note,
		IdemKey:    idempotencyKey(c),
	}
	result, err := commands.Dispatch[viewingsapp.ScheduleViewingCommand, dto.Viewing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ViewingsHandler) Approve(c *gin.Context) {
	note, ok := h.decisionNote(c)
	if !ok {
		return
	}
	h.transition(c, viewingsapp.ApproveViewingCommand{ViewingID: c.Param("id"), Actor: currentActor(c), Note: note})
}

func (h ViewingsHandler) Reject(c *gin.Context) {
	note, ok := h.decisionNote(c)
	if !ok {
		return
	}
	h.transition(c, viewingsapp.RejectViewingCommand{ViewingID: c.Param("id"), Actor: currentActor(c), Note: note})
}

func (h ViewingsHandler) Cancel(c *gin.Context) {
	h.transition(c, viewingsapp.CancelViewingCommand{ViewingID: c.Param("id"), Actor: currentActor(c)})
}

// decisionNote reads the optional landlord note. An empty body is allowed.
func (h ViewingsHandler) decisionNote(c *gin.Context) (string, bool) {
	var req viewingDecisionRequest
	if c.Request.ContentLength == 0 {
		return "", true
	}
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.Logger, err)
		return "", false
	}
	return req.Note, true
}

func (h ViewingsHandler) transition(c *gin.Context, cmd commands.Command) {
	result, err := commands.Dispatch[commands.Command, dto.Viewing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ViewingsHTTP = ViewingsHandler{}
