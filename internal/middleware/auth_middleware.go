package middleware

import (
	"context"
	"strings"

	"go-leave/internal/domain"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/contextutil"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// Authenticator turns a bearer credential into an actor.
type Authenticator interface {
	Authenticate(ctx context.Context, credential string) (domain.Actor, error)
}

func bearerToken(c *gin.Context) string {
	if token, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); found {
		return strings.TrimSpace(token)
	}
	if cookie, err := c.Cookie("access_token"); err == nil {
		return cookie
	}
	return ""
}

func AuthMiddleware(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := authn.Authenticate(c.Request.Context(), bearerToken(c))
		if err != nil {
			httpErr := apperror.ToHTTP(err)
			response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
			c.Abort()
			return
		}

		SetActor(c, actor)
		c.Next()
	}
}

// SetActor stores the actor on both the gin context and the request context.
func SetActor(c *gin.Context, actor domain.Actor) {
	c.Set(actorKey, actor)
	c.Set("user_id", actor.ID)
	c.Set("role", string(actor.Role))

	ctx := contextutil.WithUserID(c.Request.Context(), actor.ID)
	c.Request = c.Request.WithContext(ctx)
}

func CurrentActor(c *gin.Context) (domain.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return domain.Actor{}, false
	}
	actor, ok := v.(domain.Actor)
	return actor, ok && actor.ID != ""
}

// RequireActor aborts with 401 when no actor was attached upstream.
func RequireActor(c *gin.Context) (domain.Actor, bool) {
	actor, ok := CurrentActor(c)
	if !ok {
		response.Error(c, apperror.ErrUnauthorized.HTTPStatus, apperror.ErrUnauthorized.Code, apperror.ErrUnauthorized.Message, nil)
		c.Abort()
	}
	return actor, ok
}
