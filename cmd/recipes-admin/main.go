// Command recipes-admin serves the HTML admin for the recipe catalog.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jacentio/recipes/client"
	"github.com/jacentio/recipes/internal/admin/state"
	"github.com/jacentio/recipes/internal/admin/views"
	"github.com/jacentio/recipes/internal/config"
)

func main() {
	configPath := flag.String("config", os.Getenv("RECIPES_ADMIN_CONFIG"), "path to config file")
	listen := flag.String("listen", "", "listen address, overrides the config file")
	backend := flag.String("backend", "", "API base URL, overrides the config file")
	flag.Parse()

	cfg, err := config.LoadAdmin(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *backend != "" {
		cfg.Backend = *backend
	}

	logger, err := config.NewLogger(os.Stderr, cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("admin stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Admin, logger *slog.Logger) error {
	c, err := client.New(cfg.Backend, client.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		return err
	}

	sessions := state.NewSessions(state.ClientSessions(c, logger), cfg.SessionIdle)
	go sessions.Run(ctx, time.Minute)

	v, err := views.New(sessions, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           v.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("listening", "addr", cfg.Listen, "backend", cfg.Backend)

	errc := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	return srv.Shutdown(sctx)
}
