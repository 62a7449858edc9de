package main

import (
	"github.com/spf13/cobra"

	"github.com/yungbote/cvextract/internal/app"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(func(cfg *app.Config) {
			if serveAddr != "" {
				cfg.HTTPAddr = serveAddr
			}
		})
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Serve(cmd.Context())
	},
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume queued extraction jobs from NATS",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.RunWorker(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(func(cfg *app.Config) { cfg.AutoMigrate = true })
		if err != nil {
			return err
		}
		a.Log.Info("Migration complete")
		a.Close()
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides HTTP_ADDR)")
}
