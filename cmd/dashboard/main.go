// Command dashboard watches one market's order book and reference price.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/johan/polymarket-desk/internal/config"
	"github.com/johan/polymarket-desk/internal/dashboard"
	"github.com/johan/polymarket-desk/internal/logging"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	reference := flag.String("ref", "", "Market URL, slug or search keyword (overrides config)")
	hourly := flag.Bool("hourly", false, "Follow the generated hourly slug")
	mode := flag.String("mode", "", "poll or stream (overrides config)")
	flag.Parse()

	// A missing .env is fine; variables may come from the environment.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg = config.DefaultConfig()
			cfg.ApplyEnv(os.LookupEnv)
		} else {
			slog.Error("loading config", "error", err)
			os.Exit(1)
		}
	}

	if *reference != "" {
		cfg.Dashboard.Reference = *reference
	}
	if *hourly {
		cfg.Dashboard.Hourly = true
	}
	if *mode != "" {
		cfg.Dashboard.Mode = *mode
	}

	logger := logging.Setup(os.Stderr, cfg.Logging)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	svc, err := dashboard.NewService(cfg, os.Stdout, logger)
	if err != nil {
		logger.Error("creating service", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("dashboard stopped", "error", err)
		os.Exit(1)
	}

	logger.Info("dashboard shutdown complete")
}
