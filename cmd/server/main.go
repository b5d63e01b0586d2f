package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/interviewkit/internal/logging"
	"github.com/dmitrijs2005/interviewkit/internal/server"
	"github.com/dmitrijs2005/interviewkit/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewJSON(os.Stdout, cfg.LogLevel)

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err.Error())
		os.Exit(1)
	}
	defer app.Close()

	app.Run(ctx)

}
