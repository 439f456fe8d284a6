package security

import (
	"net/http"
	"strings"

	"semprejoias/pkg/models"
	"semprejoias/pkg/roles"

	"github.com/gin-gonic/gin"
)

const (
	actorKey = "actor"

	HeaderActorID   = "X-Actor-Id"
	HeaderActorName = "X-Actor-Name"
	HeaderActorRole = "X-Actor-Role"
)

// ActorMiddleware resolves the operator behind the request. With a secret the
// actor comes from a bearer token, otherwise from the X-Actor-* headers set by
// a trusted front end.
func ActorMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			actor models.Actor
			err   error
		)

		if len(secret) > 0 {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing"})
				return
			}
			actor, err = ParseActorToken(secret, strings.TrimPrefix(authHeader, "Bearer "))
		} else {
			actor, err = actorFromHeaders(c)
		}

		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid actor", "details": err.Error()})
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

func actorFromHeaders(c *gin.Context) (models.Actor, error) {
	role, err := roles.NewRole(c.GetHeader(HeaderActorRole))
	if err != nil {
		return models.Actor{}, err
	}
	actor := models.Actor{
		ID:   strings.TrimSpace(c.GetHeader(HeaderActorID)),
		Name: strings.TrimSpace(c.GetHeader(HeaderActorName)),
		Role: role,
	}
	if actor.IsZero() {
		return models.Actor{}, ErrMissingActor
	}
	return actor, nil
}

// ActorFromContext returns the actor set by ActorMiddleware, zero if absent.
func ActorFromContext(c *gin.Context) models.Actor {
	if value, ok := c.Get(actorKey); ok {
		if actor, ok := value.(models.Actor); ok {
			return actor
		}
	}
	return models.Actor{}
}

// SetActor is used by tests and internal callers that bypass the middleware.
func SetActor(c *gin.Context, actor models.Actor) {
	c.Set(actorKey, actor)
}

// Authorize ensures the actor has at least the required role.
func Authorize(requiredRole roles.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFromContext(c)
		if actor.IsZero() || !actor.Role.HasPermission(requiredRole) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden: insufficient permissions"})
			return
		}
		c.Next()
	}
}
