package main

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/coelhoxyz/lead-qualifier-agent/internal/config"
	"github.com/coelhoxyz/lead-qualifier-agent/internal/server"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	s, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to create server", zap.Error(err))
	}

	addr := ":" + cfg.Port
	logger.Info("lead qualifier listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, s.Router()); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
