package main

import (
	"log"

	"go.uber.org/zap"

	"cvgenius-backend/internal/config"
	"cvgenius-backend/internal/logger"
	"cvgenius-backend/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zl, err := logger.New(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zl.Sync() //nolint:errcheck
	zap.ReplaceGlobals(zl)

	r, err := server.NewRouter(cfg, zl)
	if err != nil {
		zl.Fatal("router setup failed", zap.Error(err))
	}

	addr := server.Addr(cfg.Port)
	zl.Info("starting API server",
		zap.String("addr", addr),
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
	)

	if err := r.Run(addr); err != nil {
		zl.Fatal("server error", zap.Error(err))
	}
}
