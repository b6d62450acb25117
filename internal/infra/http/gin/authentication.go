package ginserver

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	gin "github.com/gin-gonic/gin"

	"erent/internal/app/access"
	domainauth "erent/internal/domain/auth"
)

const (
	actorContextKey = "erent.actor"
	tokenContextKey = "erent.token"
)

// Authenticator resolves request credentials into an actor. *auth.Service
// satisfies it.
type Authenticator interface {
	ResolveToken(ctx context.Context, token string) (access.Actor, error)
	AuthenticateBasic(ctx context.Context, login, password string) (access.Actor, error)
}

// AuthMiddleware accepts Bearer tokens and HTTP Basic credentials. Requests
// without valid credentials continue anonymously; the buses refuse guarded
// messages from anonymous callers.
type AuthMiddleware struct {
	Service Authenticator
	Logger  *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	if m.Service == nil {
		c.Next()
		return
	}
	header := c.GetHeader("Authorization")
	ctx := c.Request.Context()
	if token := extractBearerToken(header); token != "" {
		actor, err := m.Service.ResolveToken(ctx, token)
		if err != nil {
			m.debug("token validation failed", err)
		} else {
			c.Set(actorContextKey, actor)
			c.Set(tokenContextKey, token)
		}
		c.Next()
		return
	}
	if login, password, ok := c.Request.BasicAuth(); ok {
		actor, err := m.Service.AuthenticateBasic(ctx, login, password)
		if err != nil {
			m.debug("basic authentication failed", err)
		} else {
			c.Set(actorContextKey, actor)
		}
	}
	c.Next()
}

func (m AuthMiddleware) debug(msg string, err error) {
	if m.Logger == nil || errors.Is(err, domainauth.ErrSessionNotFound) {
		return
	}
	m.Logger.Debug(msg, "error", err)
}

// currentActor returns the authenticated caller, or the zero actor.
func currentActor(c *gin.Context) access.Actor {
	val, exists := c.Get(actorContextKey)
	if !exists {
		return access.Actor{}
	}
	actor, _ := val.(access.Actor)
	return actor
}

// requireActor aborts with 401 when the request is anonymous.
func requireActor(c *gin.Context, logger *slog.Logger) (access.Actor, bool) {
	actor := currentActor(c)
	if !actor.Authenticated() {
		respondError(c, logger, access.ErrUnauthenticated)
		return access.Actor{}, false
	}
	return actor, true
}

func currentToken(c *gin.Context) string {
	return c.GetString(tokenContextKey)
}

func extractBearerToken(header string) string {
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
