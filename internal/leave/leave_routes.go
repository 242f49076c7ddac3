package leave

import (
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	authn middleware.Authenticator,
	rbacService middleware.RBACService,
	rdb redis.Cmdable,
) {
	leaves := r.Group("/leave-requests")
	leaves.Use(middleware.AuthMiddleware(authn), middleware.RateLimitByUser(rate.Limit(5), 20))
	{
		leaves.GET("", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.List)
		leaves.POST("", middleware.RBACAuthorize(rbacService, "leave", "create"), middleware.Idempotency(rdb), handler.Create)
		leaves.GET("/:id", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.Get)
		leaves.DELETE("/:id", middleware.RBACAuthorize(rbacService, "leave", "cancel"), handler.Cancel)
		leaves.PATCH("/:id/review", middleware.RBACAuthorize(rbacService, "leave", "review"), handler.Review)
	}

	stats := r.Group("/stats")
	stats.Use(middleware.AuthMiddleware(authn))
	{
		stats.GET("", middleware.RBACAuthorize(rbacService, "stats", "read"), handler.Stats)
	}
}
