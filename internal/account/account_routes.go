package account

import (
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, authn middleware.Authenticator, rbacService middleware.RBACService) {
	accounts := r.Group("/accounts")
	accounts.Use(middleware.AuthMiddleware(authn))
	{
		accounts.POST("/register", handler.Register)
		accounts.GET("/me", middleware.RBACAuthorize(rbacService, "account", "read"), handler.Me)
		accounts.GET("", middleware.RBACAuthorize(rbacService, "account", "list"), handler.List)
	}
}
