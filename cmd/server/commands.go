package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/trentd187/sports-club/internal/database"
	"github.com/trentd187/sports-club/internal/events"
	"github.com/trentd187/sports-club/internal/handlers"
	"github.com/trentd187/sports-club/internal/identity"
	"github.com/trentd187/sports-club/internal/metrics"
	"github.com/trentd187/sports-club/internal/seed"
	"github.com/trentd187/sports-club/internal/server"
	"github.com/trentd187/sports-club/internal/store"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (the default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.serve(cmd.Context())
		},
	}
}

func migrateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := app.openDB(true)
			if err != nil {
				return err
			}
			closeDB(db)
			app.log.Info().Msg("migrate.done")
			return nil
		},
	}
}

func seedCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Insert courts from a JSON or YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := app.openDB(app.cfg.DB.AutoMigrate)
			if err != nil {
				return err
			}
			defer closeDB(db)

			n, err := seed.Load(cmd.Context(), store.New(db).Courts, args[0])
			if err != nil {
				return err
			}
			app.log.Info().Int64("inserted", n).Str("file", args[0]).Msg("seed.done")
			fmt.Printf("Inserted %d courts\n", n)
			return nil
		},
	}
}

func tokenCmd(app *App) *cobra.Command {
	var (
		email string
		name  string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development token for AUTH_PROVIDER=jwt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := identity.NewJWTVerifier(app.cfg.Auth.JWTSecret, app.cfg.Auth.JWTIssuer)
			if err != nil {
				return err
			}
			token, err := v.Mint(identity.Identity{Email: email, Name: name}, time.Now(), ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email the token is issued for")
	cmd.Flags().StringVar(&name, "name", "", "Display name claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// openDB connects and, when migrate is set, brings the schema up to date.
// SQLite schemas are created by database.Connect itself.
func (a *App) openDB(migrate bool) (*gorm.DB, error) {
	db, err := database.Connect(a.cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if migrate && !a.cfg.DB.UsesSQLite() {
		if err := database.RunMigrations(a.cfg.DB.URL); err != nil {
			closeDB(db)
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	return db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// serve wires every dependency, listens, and shuts down on SIGINT/SIGTERM.
func (a *App) serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := a.openDB(a.cfg.DB.AutoMigrate)
	if err != nil {
		return err
	}
	defer closeDB(db)

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("getting sql db handle: %w", err)
	}
	pingers := []handlers.Pinger{handlers.PingFunc(sqlDB.PingContext)}

	verifier, err := identity.FromConfig(ctx, a.cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to set up identity provider: %w", err)
	}

	hub := events.NewHub()
	go hub.Run(ctx)

	var publisher events.Publisher = hub
	if url := a.cfg.Events.RedisURL; url != "" {
		redisPub, err := events.NewRedisPublisher(ctx, url, a.cfg.Events.Channel)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisPub.Close()
		publisher = events.Multi{hub, redisPub}
		pingers = append(pingers, redisPub)
		a.log.Info().Str("channel", a.cfg.Events.Channel).Msg("events.redis_enabled")
	}

	app := server.New(server.Deps{
		Store:     store.New(db),
		Verifier:  verifier,
		Hub:       hub,
		Publisher: publisher,
		Metrics:   metrics.New(),
		Logger:    a.log,
		Pingers:   pingers,
	})

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("port", a.cfg.App.Port).Str("env", a.cfg.App.Env).Msg("server.start")
		errCh <- app.Listen(":" + a.cfg.App.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("server.shutdown")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
