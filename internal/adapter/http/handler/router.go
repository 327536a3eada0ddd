package handler

import (
	"player-bank-service/internal/adapter/http/middleware"
	redisStore "player-bank-service/internal/adapter/storage/redis"
	"player-bank-service/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	BankSvc        ports.BankService
	HashSvc        ports.HashService
	AdminKeyHash   string                     // Argon2id hash; empty disables the admin surface
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 16)) // transfer bodies are tiny

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")

	// --- Player transfer routes ---
	bankHandler := NewBankHandler(deps.BankSvc)
	players := v1.Group("/players/:player_id")
	{
		players.GET("/balance", rl("balance"), bankHandler.GetBalance)
		players.POST("/deposit", rl("transfers"), bankHandler.Deposit)
		players.POST("/withdraw", rl("transfers"), bankHandler.Withdraw)
	}

	// --- Admin routes (service-key authenticated) ---
	adminAuth := middleware.AdminKeyAuth(deps.HashSvc, deps.AdminKeyHash, deps.Logger)
	adminHandler := NewAdminHandler(deps.BankSvc)
	admin := v1.Group("/admin/players/:player_id", adminAuth)
	{
		admin.PUT("/balance", rl("admin"), adminHandler.SetBalance)
		admin.POST("/give", rl("admin"), adminHandler.Give)
		admin.POST("/take", rl("admin"), adminHandler.Take)
	}

	return r
}
