package audit

import (
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, authn middleware.Authenticator, rbacService middleware.RBACService) {
	trail := r.Group("/audit")
	trail.Use(middleware.AuthMiddleware(authn))
	{
		trail.GET("/leave-requests/:id", middleware.RBACAuthorize(rbacService, "audit", "read"), handler.History)
	}
}
