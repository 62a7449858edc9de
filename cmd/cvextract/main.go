package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yungbote/cvextract/internal/app"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "cvextract",
	Short:         "CV and interview transcript extraction service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile == "" {
			_ = godotenv.Load()
			return nil
		}
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load before reading the environment")
	rootCmd.AddCommand(serveCmd, workerCmd, extractCmd, promptsCmd, migrateCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// buildApp loads configuration and wires the application. mutate may adjust
// the config first.
func buildApp(mutate func(*app.Config)) (*app.App, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return app.New(cfg)
}
