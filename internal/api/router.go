package api

import (
	"pathbuilder-service/internal/api/handlers"
	"pathbuilder-service/internal/services"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Deps struct {
	Sessions      *services.DraftSessions
	Library       *services.RouteLibrary
	Logger        *zap.Logger
	SettleTimeout time.Duration
}

// NewRouter wires HTTP handlers with their dependencies and returns the engine.
// Handlers stay unaware of concrete adapters.
func NewRouter(deps Deps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(logger))
	router.Use(recoveryMiddleware(logger))

	router.GET("/health", handlers.Health)

	drafts := &handlers.DraftHandler{
		Sessions:      deps.Sessions,
		Logger:        logger,
		SettleTimeout: deps.SettleTimeout,
	}
	drafts.RegisterRoutes(&router.RouterGroup)

	routes := &handlers.RouteHandler{Library: deps.Library, Logger: logger}
	routes.RegisterRoutes(&router.RouterGroup)

	return router
}
