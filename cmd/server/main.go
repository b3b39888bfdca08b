// Command server runs the Sports Club API and its maintenance tasks.
// With no subcommand it serves HTTP; "migrate", "seed" and "token" are one-shot
// helpers that share the same configuration.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/trentd187/sports-club/internal/config"
	"github.com/trentd187/sports-club/internal/logger"
)

// App holds what every command needs.
type App struct {
	cfg *config.Config
	log zerolog.Logger
}

func main() {
	app := &App{}

	rootCmd := &cobra.Command{
		Use:          "server",
		Short:        "Sports Club API",
		Long:         `Court bookings, memberships and announcements for a sports club.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.serve(cmd.Context())
		},
	}

	rootCmd.AddCommand(serveCmd(app))
	rootCmd.AddCommand(migrateCmd(app))
	rootCmd.AddCommand(seedCmd(app))
	rootCmd.AddCommand(tokenCmd(app))

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// init loads config and builds the logger.
func (a *App) init() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg
	a.log = logger.New(logger.Options{
		Service: "sports-club",
		Level:   cfg.App.LogLevel,
		Format:  cfg.App.LogFormat,
	})
	return nil
}
