package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"erent/internal/app/commands"
	"erent/internal/app/dto"
	usersapp "erent/internal/app/handlers/users"
	"erent/internal/app/queries"
)

type UsersHTTP interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	UpdateProfile(c *gin.Context)
	SetActive(c *gin.Context)
	AssignRoles(c *gin.Context)
}

type UsersHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type profileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	GenderID  string `json:"gender_id"`
	CityID    string `json:"city_id"`
}

type activeRequest struct {
	Active *bool `json:"active"`
}

type rolesRequest struct {
	Roles []string `json:"roles"`
}

func (h UsersHandler) List(c *gin.Context) {
	q := readQuery(c)
	query := usersapp.ListUsersQuery{
		Actor:  currentActor(c),
		Query:  q.str("q"),
		Role:   q.str("role"),
		Active: q.boolPtr("active"),
		Paging: q.paging(),
	}
	if q.err != nil {
		respondError(c, h.Logger, q.err)
		return
	}
	result, err := queries.Ask[usersapp.ListUsersQuery, dto.Page[dto.User]](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h UsersHandler) Get(c *gin.Context) {
	query := usersapp.GetUserQuery{Actor: currentActor(c), UserID: c.Param("id")}
	result, err := queries.Ask[usersapp.GetUserQuery, dto.User](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h UsersHandler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	cmd := usersapp.UpdateProfileCommand{
		UserID:    c.Param("id"),
		Actor:     currentActor(c),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		GenderID:  req.GenderID,
		CityID:    req.CityID,
	}
	result, err := commands.Dispatch[usersapp.UpdateProfileCommand, dto.User](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h UsersHandler) SetActive(c *gin.Context) {
	var req activeRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	if req.Active == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "active is required"})
		return
	}
	cmd := usersapp.SetActiveCommand{UserID: c.Param("id"), Actor: currentActor(c), Active: *req.Active}
	result, err := commands.Dispatch[usersapp.SetActiveCommand, dto.User](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h UsersHandler) AssignRoles(c *gin.Context) {
	var req rolesRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	cmd := usersapp.AssignRolesCommand{UserID: c.Param("id"), Actor: currentActor(c), Roles: req.Roles}
	result, err := commands.Dispatch[usersapp.AssignRolesCommand, dto.User](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ UsersHTTP = UsersHandler{}
