package server

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/rebased/rebased-api/internal/db"
	"github.com/rebased/rebased-api/internal/delegation"
	"github.com/rebased/rebased-api/internal/handlers"
	"github.com/rebased/rebased-api/internal/logger"
)

// Handler Definitions
var (
	healthHandler     *handlers.HealthHandler
	delegationHandler *handlers.DelegationHandler

	// Database
	dbPool    *pgxpool.Pool
	dbQueries *db.Queries
)

// InitializeHandlers wires the database pool, services and handlers. It must
// run before InitializeRoutes.
func InitializeHandlers() {
	// Get database connection string from environment
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL environment variable is required")
	}

	// Create a connection pool using pgxpool
	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		logger.Fatal("Unable to parse database connection string", zap.Error(err))
	}

	// Configure the connection pool
	poolConfig.MaxConns = 20
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	// Create the connection pool
	dbPool, err = pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Fatal("Unable to create connection pool", zap.Error(err))
	}

	// Create queries instance with the connection pool
	dbQueries = db.New(dbPool)

	delegationService := delegation.NewService(dbQueries)
	commonServices := handlers.NewCommonServices(dbQueries, delegationService)

	healthHandler = handlers.NewHealthHandler()
	delegationHandler = handlers.NewDelegationHandler(commonServices)
}

// InitializeRoutes registers middleware and the API surface on the router.
func InitializeRoutes(router *gin.Engine) {
	// Configure and apply CORS middleware
	router.Use(configureCORS())

	// Health check
	router.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		delegations := v1.Group("/delegations")
		{
			delegations.POST("", delegationHandler.CreateDelegation)
			delegations.GET("", delegationHandler.ListDelegations)
			delegations.GET("/:delegation_id", delegationHandler.GetDelegation)
			delegations.PATCH("/:delegation_id/link-strategy", delegationHandler.LinkStrategy)
			delegations.POST("/:delegation_id/revoke", delegationHandler.RevokeDelegation)
		}
	}
}

// Close releases the database pool. Called during shutdown.
func Close() {
	if dbPool != nil {
		dbPool.Close()
	}
}

// configureCORS returns a configured CORS middleware
func configureCORS() gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()

	// Get allowed origins from environment variable
	originsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	if originsEnv == "" {
		// Default to localhost if not set
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	} else {
		// Split and trim the origins
		origins := strings.Split(originsEnv, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		corsConfig.AllowOrigins = origins
	}

	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key"}
	corsConfig.AllowCredentials = os.Getenv("CORS_ALLOW_CREDENTIALS") == "true"

	return cors.New(corsConfig)
}
