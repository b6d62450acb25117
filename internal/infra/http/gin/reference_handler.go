package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"erent/internal/app/commands"
	"erent/internal/app/dto"
	referenceapp "erent/internal/app/handlers/reference"
	"erent/internal/app/queries"
	"erent/internal/domain/reference"
)

// referenceRoutes names the collection path of every lookup table.
var referenceRoutes = []struct {
	path string
	kind reference.Kind
}{
	{"/countries", reference.KindCountry},
	{"/cities", reference.KindCity},
	{"/amenities", reference.KindAmenity},
	{"/property-types", reference.KindPropertyType},
	{"/genders", reference.KindGender},
	{"/roles", reference.KindRole},
}

type ReferenceHTTP interface {
	List(kind reference.Kind) gin.HandlerFunc
	Get(kind reference.Kind) gin.HandlerFunc
	Create(kind reference.Kind) gin.HandlerFunc
	Update(kind reference.Kind) gin.HandlerFunc
	Delete(kind reference.Kind) gin.HandlerFunc
}

type ReferenceHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type referenceRequest struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
	CountryID   string `json:"country_id"`
	Active      *bool  `json:"active"`
}

func (r referenceRequest) fields() referenceapp.EntryFields {
	return referenceapp.EntryFields{
		Name:        r.Name,
		Code:        r.Code,
		Description: r.Description,
		ParentID:    r.CountryID,
		Active:      r.Active,
	}
}

func (h ReferenceHandler) List(kind reference.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := readQuery(c)
		query := referenceapp.ListEntriesQuery{
			Kind:     kind,
			Name:     q.str("name"),
			ParentID: q.str("country_id"),
			Active:   q.boolPtr("active"),
			Paging:   q.paging(),
		}
		if q.err != nil {
			respondError(c, h.Logger, q.err)
			return
		}
		result, err := queries.Ask[referenceapp.ListEntriesQuery, dto.Page[dto.ReferenceEntry]](c.Request.Context(), h.Queries, query)
		if err != nil {
			respondError(c, h.Logger, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func (h ReferenceHandler) Get(kind reference.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := referenceapp.GetEntryQuery{Kind: kind, ID: c.Param("id")}
		result, err := queries.Ask[referenceapp.GetEntryQuery, dto.ReferenceEntry](c.Request.Context(), h.Queries, query)
		if err != nil {
			respondError(c, h.Logger, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func (h ReferenceHandler) Create(kind reference.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req referenceRequest
		if err := bindJSON(c, &req); err != nil {
			respondError(c, h.Logger, err)
			return
		}
		cmd := referenceapp.CreateEntryCommand{
			ID:     newID(),
			Actor:  currentActor(c),
			Kind:   kind,
			Fields: req.fields(),
		}
		result, err := commands.Dispatch[referenceapp.CreateEntryCommand, dto.ReferenceEntry](c.Request.Context(), h.Commands, cmd)
		if err != nil {
			respondError(c, h.Logger, err)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

func (h ReferenceHandler) Update(kind reference.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req referenceRequest
		if err := bindJSON(c, &req); err != nil {
			respondError(c, h.Logger, err)
			return
		}
		cmd := referenceapp.UpdateEntryCommand{
			ID:     c.Param("id"),
			Actor:  currentActor(c),
			Kind:   kind,
			Fields: req.fields(),
		}
		result, err := commands.Dispatch[referenceapp.UpdateEntryCommand, dto.ReferenceEntry](c.Request.Context(), h.Commands, cmd)
		if err != nil {
			respondError(c, h.Logger, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func (h ReferenceHandler) Delete(kind reference.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		cmd := referenceapp.DeleteEntryCommand{ID: c.Param("id"), Actor: currentActor(c), Kind: kind}
		if _, err := commands.Dispatch[referenceapp.DeleteEntryCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
			respondError(c, h.Logger, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

var _ ReferenceHTTP = ReferenceHandler{}
