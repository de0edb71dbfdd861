package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/adeilh/go-rakh-starter/config"
	"github.com/adeilh/go-rakh-starter/internal/app"
	"github.com/adeilh/go-rakh-starter/logging"
)

const serviceName = "go-rakh-starter"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine.
	_ = godotenv.Load()

	defaultEnv := os.Getenv("ENVIRONMENT")
	if defaultEnv == "" {
		defaultEnv = "local"
	}
	environment := pflag.StringP("environment", "e", defaultEnv, "configuration environment to load (env ENVIRONMENT)")
	configFile := pflag.StringP("config", "c", "", "load a single configuration file instead of the layered directory")
	pflag.Parse()

	var (
		settings *config.Settings
		err      error
	)
	if *configFile != "" {
		settings, err = config.LoadFile(*configFile)
	} else {
		settings, err = config.Load(*environment)
	}
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Service: serviceName,
		Level:   settings.Log.Level,
		Format:  settings.Log.Format,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting", zap.String("environment", *environment))
	return app.Run(ctx, settings, logger)
}
