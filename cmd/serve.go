package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/benjamesfleming/smarterplaylists/internal/repositories"
	"github.com/benjamesfleming/smarterplaylists/internal/server"
	"github.com/benjamesfleming/smarterplaylists/internal/services"
	"github.com/benjamesfleming/smarterplaylists/internal/session"
	"github.com/benjamesfleming/smarterplaylists/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs startup migrations and then serves the HTTP surface until interrupted.
//
// Migrations run before the listener is opened; a failed step aborts startup so
// the process never serves requests over a partially migrated schema.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	spotifyConf := config.Credentials.Spotify
	if spotifyConf.ClientID == "" || spotifyConf.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client id and secret are required", shared.ErrMissingCredentials)
	}

	provider, err := services.NewSpotifyService(spotifyConf.ClientID, spotifyConf.ClientSecret, spotifyConf.RedirectURI)
	if err != nil {
		return fmt.Errorf("failed to create spotify provider: %w", err)
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return err
	}

	users := repositories.NewUserRepository(db)
	sessions := session.NewManager(time.Duration(config.Server.SessionTTLMins) * time.Minute)

	router := server.NewBasicRouter()
	router.Use(server.Recover(r.logger), server.Logging(r.logger))
	router.Handler(server.NewAuthHandler(provider, users, sessions, r.logger))
	router.Handler(server.NewUsersHandler(users, r.logger))

	srv := &http.Server{
		Addr:    config.Addr(),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}
