package router

import (
	"time"

	"platepos/internal/config"
	"platepos/internal/handler"
	"platepos/internal/infra"
	"platepos/internal/middleware"
	"platepos/internal/model"
	"platepos/internal/repository"
	"platepos/internal/service"
	"platepos/internal/token"
	"platepos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, mailer *infra.Mailer) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	issuer := token.NewIssuer(
		cfg.JWTSecret,
		time.Duration(cfg.JWTExpirationHours)*time.Hour,
		time.Duration(cfg.JWTRefreshHours)*time.Hour,
		time.Duration(cfg.StepUpWindowSecs)*time.Second,
	)
	hasher := token.NewBcryptHasher()

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	dispatcher := worker.NewDispatcher(rdb)
	authSvc := service.NewAuthService(userRepo, issuer, hasher, cfg)
	orderSvc := service.NewOrderService(orderRepo, userRepo, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	ordersH := handler.NewOrdersHandler(orderSvc, cfg.RestaurantName)
	adminH := handler.NewAdminHandler(dispatcher)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, mailer))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/register", authH.Register)
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes: authenticate → load identity → active check, then
	// per-route role/permission/level/ownership/step-up gates.
	authMW := middleware.Authenticate(issuer, userRepo)
	v1 := r.Group("/v1", authMW)
	{
		me := v1.Group("/auth")
		{
			me.POST("/step-up", authH.StepUp)
			me.POST("/password", authH.ChangePassword)
			me.GET("/me", authH.Me)
			me.GET("/me/permissions", authH.MyPermissions)
			me.GET("/additional-auth", authH.RequiresAdditionalAuth)
		}

		users := v1.Group("/users")
		{
			users.GET("", middleware.RequirePermission("users:read"), usersH.List)
			users.GET("/:id", middleware.RequireSelfOrElevated("id"), usersH.Get)
			users.PUT("/:id", middleware.RequirePermission("users:update"), usersH.Update)
			// Deactivation is the destruction equivalent; user:delete is a
			// sensitive operation and demands a step-up credential.
			users.DELETE("/:id",
				middleware.RequireRole(model.RoleAdmin, model.RoleManager),
				middleware.RequireStepUp(issuer, "user:delete"),
				usersH.Deactivate)
			users.PATCH("/:id/reactivate", middleware.RequireMinRole(model.RoleManager), usersH.Reactivate)
		}

		orders := v1.Group("/orders")
		{
			orders.POST("", middleware.RequirePermission("orders:create"), ordersH.Create)
			orders.GET("", middleware.RequirePermission("orders:read"), ordersH.List)
			orders.GET("/:id", middleware.RequirePermission("orders:read"), ordersH.Get)
			orders.GET("/:id/receipt", middleware.RequirePermission("orders:read"), ordersH.Receipt)
			orders.PATCH("/:id/status", middleware.RequirePermission("orders:status"), ordersH.UpdateStatus)
			orders.PUT("/:id", middleware.RequirePermission("orders:update"), ordersH.Update)
			orders.DELETE("/:id", middleware.RequirePermission("orders:delete"), ordersH.Delete)
		}

		admin := v1.Group("/admin", middleware.RequireMinRole(model.RoleManager))
		{
			admin.POST("/export", middleware.RequireStepUp(issuer, "data:export"), adminH.Export)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
