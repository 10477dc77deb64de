package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/society-cms-go/internal/app"
	"github.com/kapu/society-cms-go/internal/config"
	"github.com/kapu/society-cms-go/internal/constants"
	"github.com/kapu/society-cms-go/internal/util"
	"github.com/kapu/society-cms-go/pkg/errors"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	// Initialize logger
	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	logger.Debug("Society CMS client starting",
		zap.String("version", constants.Version),
		zap.String("endpoint", cfg.API.Endpoint()),
	)

	buildCtx, buildCancel := context.WithTimeout(context.Background(), 10*time.Second)
	container, err := app.Build(buildCtx, cfg, logger)
	buildCancel()
	if err != nil {
		logger.Error("Failed to assemble client", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		return 1
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := container.Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		logger.Debug("Command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, container.Deps.Formatter.FormatError(errors.HumanMessage(err, "command failed")))
		return 1
	}
	return 0
}
