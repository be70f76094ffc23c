package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"oauthd/internal/caching"
	"oauthd/internal/config"
	"oauthd/internal/handlers"
	"oauthd/internal/jobs/background"
	"oauthd/internal/middleware"
	"oauthd/internal/repositories"
	"oauthd/internal/services"
	"oauthd/internal/session"
	"oauthd/pkg/database"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Database connection pool
	pool, err := database.NewPool(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	// Create repositories
	tokenRepo := repositories.NewTokenRepo(pool)
	clientRepo := repositories.NewClientRepo(pool)
	userRepo := repositories.NewUserRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Create services
	tokenSvc := services.NewTokenService(tokenRepo, cacheSvc,
		time.Duration(cfg.Tokens.AccessTTLSeconds)*time.Second,
		time.Duration(cfg.Tokens.CodeTTLSeconds)*time.Second)
	clientSvc := services.NewClientService(clientRepo)
	scopeReg := services.NewScopeRegistry(cfg.Scopes)
	auditSvc := services.NewAuditService(auditRepo)
	sessions := session.NewManager(cacheSvc, userRepo)

	// Grant type registry: built-ins first, then extensions, then frozen.
	grants := services.NewGrantRegistry()
	if err := grants.Register(services.NewAuthorizationCodeGrant(tokenSvc), "code"); err != nil {
		log.Fatalf("Failed to register authorization_code grant: %v", err)
	}
	if err := grants.Register(services.NewImplicitGrant(tokenSvc), "token"); err != nil {
		log.Fatalf("Failed to register implicit grant: %v", err)
	}
	grants.Freeze()

	// Create handlers
	authorizeHandlers := handlers.NewAuthorizeHandlers(clientSvc, scopeReg, grants, sessions, cfg.Server.LoginURL)
	tokenHandlers := handlers.NewTokenHandlers(clientSvc, grants)
	discoveryHandlers := handlers.NewDiscoveryHandlers(grants, cfg.Server.BaseURL)
	userHandlers := handlers.NewUserHandlers(userRepo)
	clientHandlers := handlers.NewClientHandlers(clientSvc, auditSvc)
	auditHandlers := handlers.NewAuditHandlers(auditSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc)
	auditMiddleware := middleware.NewAuditMiddleware(auditSvc)

	// Background purge of expired token records
	scheduler, err := background.NewJobScheduler(tokenSvc, time.Duration(cfg.Tokens.PurgeMinutes)*time.Minute)
	if err != nil {
		log.Fatalf("Failed to create job scheduler: %v", err)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Printf("Failed to stop job scheduler: %v", err)
		}
	}()

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)

	// OAuth2 protocol endpoints
	oauth := e.Group("/oauth")
	oauth.Use(auditMiddleware.AuditRequest())
	oauth.GET("", discoveryHandlers.Index)
	oauth.GET("/authorize", authorizeHandlers.Authorize)
	oauth.POST("/authorize", authorizeHandlers.Decide)
	oauth.POST("/token", tokenHandlers.Token,
		middleware.RateLimit(cacheSvc, cfg.RateLimit.Limit, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second))

	// Protected API routes (require a bearer token)
	v1 := e.Group("/v1")
	v1.Use(middleware.BearerAuth(tokenSvc, userRepo))
	v1.Use(middleware.RequireBearer())
	v1.GET("/me", userHandlers.Me)
	v1.DELETE("/clients/:client_id", clientHandlers.Delete, middleware.RequireScope("write"))
	v1.GET("/audit", auditHandlers.List, middleware.RequireScope("write"))

	log.Printf("oauthd starting on port %d", cfg.Server.Port)
	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", cfg.Server.Port)))
}
