// Package server assembles the Gin engine, middleware, and route handlers.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cvgenius-backend/internal/analyses"
	"cvgenius-backend/internal/config"
	"cvgenius-backend/internal/extract"
	"cvgenius-backend/internal/llm"
	"cvgenius-backend/internal/llm/gemini"
	"cvgenius-backend/internal/llm/ollama"
	"cvgenius-backend/internal/metrics"
	"cvgenius-backend/internal/render"
	"cvgenius-backend/internal/server/middleware"
	"cvgenius-backend/internal/server/respond"
)

const healthPingTimeout = 5 * time.Second

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config, log *zap.Logger) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigins),
	)

	backend, err := NewBackend(cfg)
	if err != nil {
		return nil, err
	}

	svc := analyses.NewService(backend, analyses.NewCache(), cfg.Provider, log)
	analysisHandler := analyses.NewHandler(svc)
	extractHandler := extract.NewHandler()
	renderHandler := render.NewHandler()

	api := r.Group("/api/v1")
	api.GET("/health", healthHandler(svc))
	api.GET("/metrics", metrics.Handler())
	analysisHandler.RegisterRoutes(api)
	extractHandler.RegisterRoutes(api)
	renderHandler.RegisterRoutes(api)

	return r, nil
}

// NewBackend builds the configured LLM client.
func NewBackend(cfg config.Config) (llm.Client, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return gemini.NewClient(context.Background(), cfg.GeminiAPIKey, cfg.Model, cfg.LLMTimeout)
	case config.ProviderOllama:
		return ollama.NewClient(cfg.OllamaURL, cfg.Model, cfg.LLMTimeout)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func healthHandler(svc *analyses.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
		defer cancel()

		backendOK := true
		if err := svc.Backend().Ping(ctx); err != nil {
			backendOK = false
		}

		status := http.StatusOK
		if !backendOK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, gin.H{
			"ok":     backendOK,
			"model":  svc.Backend().Model(),
			"cached": svc.Cache().Len(),
		})
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
