package main

import (
	"fmt"
	"os"

	"civic-pulse/config"
	"civic-pulse/pkg/database"
	"civic-pulse/pkg/logger"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Civic Pulse database and operations tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		upCommand(),
		statusCommand(),
		verifyCommand(),
		reconcileCommand(),
		seedDevCommand(),
		tokenCommand(),
	)
	return root
}

// connect loads the environment configuration and opens the database.
func connect() (*config.Config, *gorm.DB, error) {
	cfg := config.LoadConfig()
	logger.SetGlobalLogger(logger.New(cfg.LogMode))

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return cfg, db, nil
}
