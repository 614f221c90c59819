package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/revlogica/orchestrator/internal/config"
	"github.com/revlogica/orchestrator/internal/daemon"
	"github.com/revlogica/orchestrator/internal/existdb"
	"github.com/revlogica/orchestrator/internal/retry"
	"github.com/revlogica/orchestrator/internal/version"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Serve struct {
	} `cmd:"" help:"Start the orchestrator service (API and admin servers)"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Check struct {
		Ping bool `help:"Also verify the document database is reachable"`
	} `cmd:"" help:"Validate the configuration file"`

	Version struct {
	} `cmd:"" help:"Print the version and exit"`
}

func main() {
	ctx := kong.Parse(&CLI)

	switch ctx.Command() {
	case "serve":
		cfg, err := loadConfig()
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		if err := runServe(cfg); err != nil {
			slog.Error("Service failed", "error", err)
			os.Exit(1)
		}
	case "init":
		setupLogging("info", "text")
		if err := runInit(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
	case "check":
		cfg, err := loadConfig()
		if err != nil {
			slog.Error("Configuration is invalid", "error", err)
			os.Exit(1)
		}
		if err := runCheck(cfg, CLI.Check.Ping); err != nil {
			slog.Error("Check failed", "error", err)
			os.Exit(1)
		}
	case "version":
		fmt.Println(version.Version)
	}
}

// loadConfig loads the configuration and installs logging per its settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		setupLogging("info", "text")
		return nil, err
	}
	level := cfg.Logging.Level
	if CLI.Verbose {
		level = "debug"
	}
	setupLogging(level, cfg.Logging.Format)
	return cfg, nil
}

func setupLogging(level, format string) {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: slogLevel}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func runServe(cfg *config.Config) error {
	slog.Info("Starting orchestrator", "version", version.Version, "config", CLI.Config)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d, err := daemon.New(cfg, CLI.Config)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- d.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("daemon error: %w", err)
		}
		// Started cleanly; now wait for the shutdown signal.
		<-ctx.Done()
		slog.Info("Shutdown signal received, stopping daemon...")
	case <-ctx.Done():
		slog.Info("Shutdown signal received, stopping daemon...")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()

	if err := d.Stop(stopCtx); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}

	slog.Info("Daemon stopped successfully")
	return nil
}

func runInit(configPath string, force bool) error {
	slog.Info("Initializing configuration", "path", configPath, "force", force)
	return config.Init(configPath, force)
}

// runCheck validates the loaded configuration and optionally pings the
// document database.
func runCheck(cfg *config.Config, ping bool) error {
	slog.Info("Configuration is valid",
		"existdb_url", cfg.ExistDB.URL,
		"nlp_url", cfg.NLP.URL,
		"events_enabled", cfg.Events.Enabled,
		"archive_enabled", cfg.Archive.Enabled)

	if !ping {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ExistDB.Timeout)
	defer cancel()

	client := existdb.New(cfg.ExistDB, retry.FromConfig(cfg.Retry))
	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("document database is not reachable: %w", err)
	}
	slog.Info("Document database is reachable")
	return nil
}
