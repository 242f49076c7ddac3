package app

import (
	"net/http"

	"go-leave/internal/account"
	"go-leave/internal/audit"
	"go-leave/internal/auth"
	"go-leave/internal/balance"
	"go-leave/internal/config"
	"go-leave/internal/leave"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/middleware"
	"go-leave/internal/rbac"
	"go-leave/internal/rbac/infra"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func registerModules(router *gin.Engine, cfg *config.Config, deps *infrastructure) error {
	db := deps.sqlDB
	gormDB := deps.gormDB
	rdb := deps.redis

	// --- Global middleware ---
	router.Use(
		middleware.RequestID(),
		middleware.ContextLogger(zap.L()),
		middleware.CORS(cfg.CORSAllowedOrigins),
		middleware.RateLimitByIP(rate.Limit(20), 40),
	)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer(infra.AdminPolicy{
		Emails: cfg.AdminEmails,
		IDs:    cfg.AdminIDs,
	})
	if err != nil {
		return err
	}
	provider := auth.NewJWTProvider(cfg.JWTSecret, cfg.JWTIssuer)
	rbacService := rbac.NewService(provider, enforcer, cfg.IdentityTimeout)

	// --- Repositories ---
	accountRepo := account.NewRepository(gormDB)
	auditRepo := audit.NewRepository(gormDB)
	balanceRepo := balance.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- Services ---
	defaults := balance.Allocation{
		Annual: cfg.DefaultAnnual,
		Sick:   cfg.DefaultSick,
		Casual: cfg.DefaultCasual,
	}
	balanceService := balance.NewService(balanceRepo, rbacService, defaults, cfg.StoreTimeout)
	accountService := account.NewService(accountRepo, balanceService, rbacService, cfg.StoreTimeout)
	auditService := audit.NewService(auditRepo, rbacService, cfg.StoreTimeout)
	leaveService := leave.NewService(db, leaveRepo, balanceService, rbacService, leave.Options{
		Outbox:       outboxRepo,
		Cache:        rdb,
		Location:     cfg.ServerLocation,
		StoreTimeout: cfg.StoreTimeout,
	})

	// --- Handlers ---
	accountHandler := account.NewHandler(accountService)
	auditHandler := audit.NewHandler(auditService)
	balanceHandler := balance.NewHandler(balanceService)
	leaveHandler := leave.NewHandler(leaveService)
	rbacHandler := rbac.NewHandler(rbacService)

	// --- Routes Registration ---
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"}, nil)
	})

	api := router.Group("/api/v1")
	{
		account.RegisterRoutes(api, accountHandler, rbacService, rbacService)
		audit.RegisterRoutes(api, auditHandler, rbacService, rbacService)
		balance.RegisterRoutes(api, balanceHandler, rbacService, rbacService)
		leave.RegisterRoutes(api, leaveHandler, rbacService, rbacService, rdb)
		rbac.RegisterRoutes(api, rbacHandler, rbacService)
	}

	return nil
}
