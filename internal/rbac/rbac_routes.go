package rbac

import (
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, authn middleware.Authenticator) {
	group := r.Group("/rbac")
	group.Use(middleware.AuthMiddleware(authn))
	{
		group.POST("/enforce", handler.Enforce)
	}
}
