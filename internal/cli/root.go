package cli

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	appLogger "github.com/FACorreiaa/devcamper-api/app/logger"
	"github.com/FACorreiaa/devcamper-api/config"
)

const serviceName = "devcamper-api"

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	serveCmd := newServeCmd()

	rootCmd := &cobra.Command{
		Use:           serviceName,
		Short:         "DevCamper bootcamp directory API",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		// bare invocation serves, as the container entrypoint expects
		RunE: serveCmd.RunE,
	}
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newMigrateCmd())
	return rootCmd
}

// bootstrap loads .env and the config file, then installs the process logger.
func bootstrap() (*config.Config, *slog.Logger, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("initializing config: %w", err)
	}

	logger := appLogger.New(cfg.Mode, os.Stdout)
	slog.SetDefault(logger)
	return &cfg, logger, nil
}
