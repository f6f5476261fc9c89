package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"CrisisMonitor/internal/app"
	"CrisisMonitor/internal/config"
	"CrisisMonitor/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath  = flag.String("config", "", "path to YAML config (default $CRISIS_MONITOR_CONFIG)")
		windowHours = flag.Int("window-hours", 0, "fetch window in hours")
		windowDays  = flag.Int("window-days", 0, "time-series window in days")
		maxArticles = flag.Int("max-articles", 0, "cap on articles per run")
		threshold   = flag.Float64("threshold", 0, "crisis confidence threshold")
		noCache     = flag.Bool("no-cache", false, "ignore the article cache for this run")
		output      = flag.String("output", "", "feed output path")
		classLog    = flag.String("log-classifications", "", "append per-article classifications to this JSONL file")
		daemon      = flag.Bool("daemon", false, "run on the configured cron schedule")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "window-hours":
			cfg.Pipeline.WindowHours = *windowHours
		case "window-days":
			cfg.Pipeline.WindowDays = *windowDays
		case "max-articles":
			cfg.Pipeline.MaxArticles = *maxArticles
		case "threshold":
			cfg.Classifier.Threshold = *threshold
		case "no-cache":
			cfg.Pipeline.CacheBypass = *noCache
		case "output":
			cfg.Export.OutputPath = *output
		case "log-classifications":
			cfg.Export.ClassificationLog = *classLog
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}

	logger := logging.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application setup failed", "error", err)
		return 1
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("application close", "error", err)
		}
	}()

	if *daemon {
		if err := application.RunDaemon(ctx); err != nil {
			logger.Error("daemon stopped", "error", err)
			return 1
		}
		return 0
	}

	stats, err := application.RunOnce(ctx)
	if err != nil {
		logger.Error("run failed", "error", err)
		return 1
	}
	fmt.Printf("classified %d articles, %d crisis, %d mapped, %d unmapped; feed written to %s\n",
		stats.Classified, stats.Crisis, stats.Mapped, stats.Unmapped, cfg.Export.OutputPath)
	return 0
}
