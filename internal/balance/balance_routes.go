package balance

import (
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, authn middleware.Authenticator, rbacService middleware.RBACService) {
	balances := r.Group("/balances")
	balances.Use(middleware.AuthMiddleware(authn))
	{
		balances.GET("/:accountId", middleware.RBACAuthorize(rbacService, "balance", "read"), handler.Read)
		balances.PUT("/:accountId", middleware.RBACAuthorize(rbacService, "balance", "write"), handler.Set)
	}
}
