package ginserver

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"erent/internal/app/dto"
	usersapp "erent/internal/app/handlers/users"
	"erent/internal/app/queries"
	authsvc "erent/internal/app/services/auth"
	domainuser "erent/internal/domain/user"
)

type AuthHTTP interface {
	Register(c *gin.Context)
	Login(c *gin.Context)
	Logout(c *gin.Context)
	Me(c *gin.Context)
}

// Accounts is the part of *auth.Service the auth endpoints call.
type Accounts interface {
	Register(ctx context.Context, params authsvc.RegisterParams) (*domainuser.User, error)
	Login(ctx context.Context, params authsvc.LoginParams) (*authsvc.LoginResult, error)
	Logout(ctx context.Context, token string) error
}

type AuthHandler struct {
	Service Accounts
	Queries queries.Bus
	Logger  *slog.Logger
}

type registerRequest struct {
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"email"`
	Username  string   `json:"username"`
	Password  string   `json:"password"`
	Phone     string   `json:"phone"`
	GenderID  string   `json:"gender_id"`
	CityID    string   `json:"city_id"`
	Roles     []string `json:"roles"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (h AuthHandler) Register(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "auth service unavailable"})
		return
	}
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	u, err := h.Service.Register(c.Request.Context(), authsvc.RegisterParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		Phone:     req.Phone,
		GenderID:  req.GenderID,
		CityID:    req.CityID,
		Roles:     req.Roles,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, dto.MapUser(u))
}

func (h AuthHandler) Login(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "auth service unavailable"})
		return
	}
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	result, err := h.Service.Login(c.Request.Context(), authsvc.LoginParams{
		Login:    strings.TrimSpace(req.Login),
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.Login{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      dto.MapUser(result.User),
	})
}

// Logout revokes the bearer token the request was made with.
func (h AuthHandler) Logout(c *gin.Context) {
	if _, ok := requireActor(c, h.Logger); !ok {
		return
	}
	token := currentToken(c)
	if token != "" && h.Service != nil {
		if err := h.Service.Logout(c.Request.Context(), token); err != nil {
			respondError(c, h.Logger, err)
			return
		}
	}
	c.Status(http.StatusNoContent)
}

func (h AuthHandler) Me(c *gin.Context) {
	actor, ok := requireActor(c, h.Logger)
	if !ok {
		return
	}
	query := usersapp.GetUserQuery{Actor: actor, UserID: string(actor.ID)}
	result, err := queries.Ask[usersapp.GetUserQuery, dto.User](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AuthHTTP = AuthHandler{}
