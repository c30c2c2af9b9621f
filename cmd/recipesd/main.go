// Command recipesd serves the recipe catalog REST API.
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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jacentio/recipes/internal/api"
	"github.com/jacentio/recipes/internal/catalog"
	"github.com/jacentio/recipes/internal/catalog/dynamo"
	"github.com/jacentio/recipes/internal/catalog/memory"
	"github.com/jacentio/recipes/internal/catalog/sqlite"
	"github.com/jacentio/recipes/internal/config"
	"github.com/jacentio/recipes/internal/images"
)

func main() {
	configPath := flag.String("config", os.Getenv("RECIPES_CONFIG"), "path to config file")
	listen := flag.String("listen", "", "listen address, overrides the config file")
	driver := flag.String("driver", "", "catalog driver: memory|sqlite|dynamo, overrides the config file")
	createTables := flag.Bool("create-tables", false, "create missing DynamoDB tables on startup")
	flag.Parse()

	cfg, err := config.LoadServer(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *driver != "" {
		cfg.Driver = *driver
	}
	if *createTables {
		cfg.CreateTables = true
	}

	logger, err := config.NewLogger(os.Stderr, cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, logger *slog.Logger) error {
	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	cat := catalog.New(backend, logger)
	defer cat.Close()

	blobs, err := openImages(ctx, cfg.Images)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	handler := api.New(cat, api.Options{
		Images:         images.NewService(blobs, nil, logger),
		Registry:       reg,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("listening", "addr", cfg.Listen, "driver", cfg.Driver, "images", cfg.Images.Driver)
	return serve(ctx, srv, logger)
}

func openBackend(ctx context.Context, cfg config.Server, logger *slog.Logger) (catalog.Backend, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return sqlite.Open(ctx, cfg.SQLite.Path)
	case config.DriverDynamo:
		client, err := dynamo.NewClient(ctx, cfg.Dynamo)
		if err != nil {
			return nil, err
		}
		if cfg.CreateTables {
			if err := dynamo.EnsureTables(ctx, client, cfg.Dynamo); err != nil {
				return nil, fmt.Errorf("create tables: %w", err)
			}
		}
		return dynamo.New(client, cfg.Dynamo, logger), nil
	default:
		return memory.New(), nil
	}
}

func openImages(ctx context.Context, cfg config.Images) (images.Store, error) {
	if cfg.Driver == config.ImagesS3 {
		return images.NewS3Store(ctx, cfg.S3)
	}
	return images.NewMemoryStore(), nil
}

// serve runs srv until ctx is done, then shuts it down.
func serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
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
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}
