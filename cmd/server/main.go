package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GriffinCanCode/mirrordeck/internal/infrastructure/config"
	"github.com/GriffinCanCode/mirrordeck/internal/infrastructure/server"
	"github.com/GriffinCanCode/mirrordeck/internal/shared/paths"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Mirror.ProfilePath == "" {
		if p, ok := paths.DefaultProfile(); ok {
			cfg.Mirror.ProfilePath = p
		}
	}

	// Flags override env
	port := flag.String("port", cfg.Server.Port, "Control API port")
	host := flag.String("host", cfg.Server.Host, "Control API bind address")
	profile := flag.String("profile", cfg.Mirror.ProfilePath, "Profile file (.yaml, .json or .toml)")
	scrcpy := flag.String("scrcpy", cfg.Mirror.ScrcpyPath, "scrcpy executable")
	adb := flag.String("adb", cfg.Mirror.AdbPath, "adb executable")
	level := flag.String("log-level", cfg.Logging.Level, "Log level (debug, info, warn, error)")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development logging")
	logFile := flag.String("log-file", cfg.Logging.File, "Also write logs to this file")
	flag.Parse()

	cfg.Server.Port = *port
	cfg.Server.Host = *host
	cfg.Mirror.ProfilePath = *profile
	cfg.Mirror.ScrcpyPath = *scrcpy
	cfg.Mirror.AdbPath = *adb
	cfg.Logging.Level = *level
	cfg.Logging.Development = *dev
	cfg.Logging.File = *logFile

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case <-ctx.Done():
		log.Println("Shutting down gracefully...")
	case err := <-errChan:
		if err != nil {
			log.Printf("Server error: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Close(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
		os.Exit(1)
	}
}
