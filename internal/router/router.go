package router

import (
	"time"

	"tradenet/internal/config"
	"tradenet/internal/handler"
	"tradenet/internal/middleware"
	"tradenet/internal/repository"
	"tradenet/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
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

	// ── Repositories ─────────────────────────────────────────────────────────
	nodeRepo := repository.NewNodeRepository(db)
	productRepo := repository.NewProductRepository(db)
	userRepo := repository.NewUserRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	chainSvc := service.NewChainService(nodeRepo)
	productSvc := service.NewProductService(productRepo, nodeRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	nodesH := handler.NewNodesHandler(chainSvc, rdb)
	productsH := handler.NewProductsHandler(productSvc)
	factoriesH := handler.NewFactoriesHandler(chainSvc, rdb)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Factory directory: read-only, cache-backed, no auth required
	r.GET("/v1/factories", factoriesH.List)

	// Protected routes: authenticated AND still-active employees only
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	activeMW := middleware.RequireActive(userRepo)
	v1 := r.Group("/v1", jwtMW, activeMW)
	{
		nodes := v1.Group("/nodes")
		{
			nodes.POST("", nodesH.Create)
			nodes.GET("", nodesH.List)
			nodes.GET("/search", nodesH.Search)
			nodes.POST("/clear-debt", nodesH.ClearDebt)
			nodes.GET("/:id", nodesH.Get)
			nodes.PUT("/:id", nodesH.Update)
			nodes.DELETE("/:id", nodesH.Delete)
		}

		products := v1.Group("/products")
		{
			products.POST("", productsH.Create)
			products.GET("", productsH.List)
			products.GET("/:id", productsH.Get)
			products.PUT("/:id", productsH.Update)
			products.DELETE("/:id", productsH.Delete)
		}

		users := v1.Group("/users")
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Deactivate)
			users.PATCH("/:id/reactivate", usersH.Reactivate)
		}
	}

	return r
}
