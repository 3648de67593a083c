// Command api runs the ledgercore API server: the HTTP adapter, the
// webhook worker, and the cron maintenance jobs in one process.
//
//	go run ./cmd/api                     # development defaults
//	go run ./cmd/api -config ./configs   # with a config file
//	PAYBRIDGE_SERVER_PORT=3000 go run ./cmd/api -env-only
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/paybridge/ledgercore/internal/config"
	"github.com/paybridge/ledgercore/internal/container"
)

// Set by the linker at build time (-ldflags "-X main.version=...").
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

const initTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "./configs", "path to config directory")
	configName := flag.String("config-name", "config", "config file name without extension")
	envOnly := flag.Bool("env-only", false, "load config from environment variables only")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("ledgercore %s (built %s, commit %s)\n", version, buildTime, gitCommit)
		return
	}

	// .env is for local development; a missing file is not an error.
	_ = godotenv.Load()

	cfg, err := loadConfig(*envOnly, *configPath, *configName)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	cfg.App.Version = version
	cfg.App.BuildTime = buildTime
	cfg.App.GitCommit = gitCommit

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

// loadConfig resolves config from env only, from a file, or from
// development defaults when no file exists. An invalid production
// config is always fatal and never falls back to defaults.
func loadConfig(envOnly bool, path, name string) (*config.Config, error) {
	if envOnly {
		return config.LoadFromEnv()
	}

	return config.Load(path, name)
}

func run(cfg *config.Config) error {
	c := container.New(cfg)

	initCtx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	if err := c.Initialize(initCtx); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		c.Logger().Info("starting server",
			"address", cfg.Server.Address(),
			"environment", cfg.App.Environment,
			"version", cfg.App.Version,
		)
		errChan <- c.HTTPServer().Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			c.Logger().Error("server error", "error", err)
		}
	case sig := <-quit:
		c.Logger().Info("received shutdown signal", "signal", sig.String())
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := c.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	c.Logger().Info("server stopped")
	return nil
}
