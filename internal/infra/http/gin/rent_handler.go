package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"erent/internal/app/commands"
	"erent/internal/app/dto"
	rentsapp "erent/internal/app/handlers/rents"
	"erent/internal/app/queries"
	"erent/internal/domain/rent"
)

type RentsHTTP interface {
	Search(c *gin.Context)
	Get(c *gin.Context)
	Quote(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Accept(c *gin.Context)
	Reject(c *gin.Context)
	Cancel(c *gin.Context)
	Pay(c *gin.Context)
}

type RentsHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type rentRequest struct {
	PropertyID string    `json:"property_id"`
	Start      timestamp `json:"start"`
	End        timestamp `json:"end"`
	Daily      bool      `json:"daily"`
}

func (h RentsHandler) Search(c *gin.Context) {
	q := readQuery(c)
	query := rentsapp.SearchRentsQuery{
		Actor:         currentActor(c),
		PropertyID:    q.str("property_id"),
		PropertyTitle: q.str("property_title"),
		TenantID:      q.str("tenant_id"),
		LandlordID:    q.str("landlord_id"),
		Daily:         q.boolPtr("daily"),
		StartFrom:     q.timePtr("start_from"),
		StartTo:       q.timePtr("start_to"),
		EndFrom:       q.timePtr("end_from"),
		EndTo:         q.timePtr("end_to"),
		Active:        q.boolPtr("active"),
		Paging:        q.paging(),
	}
	if raw := q.str("status"); raw != "" {
		status, err := rent.ParseStatus(raw)
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
	result, err := queries.Ask[rentsapp.SearchRentsQuery, dto.Page[dto.Rent]](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RentsHandler) Get(c *gin.Context) {
	query := rentsapp.GetRentQuery{Actor: currentActor(c), RentID: c.Param("id")}
	result, err := queries.Ask[rentsapp.GetRentQuery, dto.Rent](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Quote prices a stay from query parameters without reserving it.
func (h RentsHandler) Quote(c *gin.Context) {
	q := readQuery(c)
	start := q.timePtr("start")
	end := q.timePtr("end")
	query := rentsapp.QuoteRentQuery{
		PropertyID: q.str("property_id"),
		Daily:      q.flag("daily"),
	}
	if start != nil {
		query.Start = *start
	}
	if end != nil {
		query.End = *end
	}
	if q.err != nil {
		respondError(c, h.Logger, q.err)
		return
	}
	result, err := queries.Ask[rentsapp.QuoteRentQuery, dto.Quote](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RentsHandler) Create(c *gin.Context) {
	var req rentRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	cmd := rentsapp.CreateRentCommand{
		ID:         newID(),
		Actor:      currentActor(c),
		PropertyID: req.PropertyID,
		Start:      req.Start.Time,
		End:        req.End.Time,
		Daily:      req.Daily,
		IdemKey:    idempotencyKey(c),
	}
	result, err := commands.Dispatch[rentsapp.CreateRentCommand, dto.Rent](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h RentsHandler) Update(c *gin.Context) {
	var req rentRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	cmd := rentsapp.UpdateRentCommand{
		RentID:  c.Param("id"),
		Actor:   currentActor(c),
		Start:   req.Start.Time,
		End:     req.End.Time,
		Daily:   req.Daily,
		IdemKey: idempotencyKey(c),
	}
	result, err := commands.Dispatch[rentsapp.UpdateRentCommand, dto.Rent](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RentsHandler) Accept(c *gin.Context) {
	h.transition(c, rentsapp.AcceptRentCommand{RentID: c.Param("id"), Actor: currentActor(c)})
}

func (h RentsHandler) Reject(c *gin.Context) {
	h.transition(c, rentsapp.RejectRentCommand{RentID: c.Param("id"), Actor: currentActor(c)})
}

func (h RentsHandler) Cancel(c *gin.Context) {
	h.transition(c, rentsapp.CancelRentCommand{RentID: c.Param("id"), Actor: currentActor(c)})
}

func (h RentsHandler) Pay(c *gin.Context) {
	h.transition(c, rentsapp.PayRentCommand{RentID: c.Param("id"), Actor: currentActor(c)})
}

func (h RentsHandler) transition(c *gin.Context, cmd commands.Command) {
	result, err := commands.Dispatch[commands.Command, dto.Rent](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ RentsHTTP = RentsHandler{}
