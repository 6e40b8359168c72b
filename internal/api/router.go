package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/eirikhm/tripfellows/internal/app"
	iauth "github.com/eirikhm/tripfellows/internal/auth"
	"github.com/eirikhm/tripfellows/internal/handlers"
	"github.com/eirikhm/tripfellows/internal/middleware"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())

	// Health endpoint (public)
	r.GET("/health", handlers.Health(db))

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	authHandler, err := handlers.NewAuthHandler(db, jwt)
	if err != nil {
		return nil, err
	}

	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	requireAuth := middleware.Auth(jwt)

	api := r.Group("/api")
	api.Use(requireAuth)

	api.GET("/auth/me", authHandler.Me)

	// Profiles
	profileHandler, err := handlers.NewProfileHandler(db)
	if err != nil {
		return nil, err
	}
	api.GET("/users/:id", profileHandler.Get)
	api.PATCH("/profile", profileHandler.Update)

	// Proposals
	proposalHandler, err := handlers.NewProposalHandler(db)
	if err != nil {
		return nil, err
	}
	proposals := api.Group("/proposals")
	{
		proposals.GET("", proposalHandler.List)
		proposals.POST("", proposalHandler.Create)
		proposals.GET("/:id", proposalHandler.Get)
		proposals.DELETE("/:id", proposalHandler.Delete)

		proposals.POST("/:id/join", proposalHandler.Join)
		proposals.POST("/:id/leave", proposalHandler.Leave)

		proposals.POST("/:id/finalize", proposalHandler.Finalize)
		proposals.POST("/:id/cancel", proposalHandler.Cancel)
		proposals.POST("/:id/close", proposalHandler.Close)

		proposals.POST("/:id/participants/:userID/grant-edit", proposalHandler.GrantEdit)

		proposals.POST("/:id/messages", proposalHandler.PostMessage)
		proposals.GET("/:id/messages", proposalHandler.ListMessages)
		proposals.POST("/:id/meetups", proposalHandler.AddMeetup)
		proposals.GET("/:id/meetups", proposalHandler.ListMeetups)
	}

	return r, nil
}
