package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"walkin-queue-backend/cmd/queued/command"
	"walkin-queue-backend/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.WithField("path", configPath).Fatalf("failed to load configuration: %v", err)
	}

	logger := command.NewLogger(cfg.Log)
	logger.WithField("path", configPath).Info("configuration loaded")

	root := &cobra.Command{Use: "queued", Short: "Salon walk-in queue server"}
	root.AddCommand(
		command.Server{Logger: logger}.Command(ctx, cfg),
		command.MigrateCommand{Logger: logger}.Command(ctx, cfg),
		command.SweepCommand{Logger: logger}.Command(ctx, cfg),
		command.ResetCommand{Logger: logger}.Command(ctx, cfg),
	)

	if err := root.Execute(); err != nil {
		logger.Fatalf("failed to execute root command: %v", err)
	}
}
