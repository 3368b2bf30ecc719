// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/cdmbridge/internal/api"
	"github.com/starford/cdmbridge/internal/bridge"
	"github.com/starford/cdmbridge/internal/catalog"
	"github.com/starford/cdmbridge/internal/persistence/modeljson"
	"github.com/starford/cdmbridge/internal/sse"
	"github.com/starford/cdmbridge/internal/storage"
)

// Bridge is an opened bridge service together with the resources it holds.
type Bridge struct {
	Service *bridge.Service
	Store   *storage.Manager
	// Root is the local directory mounted under the default namespace.
	Root string

	db *catalog.DB
}

// Close releases the catalog.
func (b *Bridge) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Open mounts the configured corpus namespaces, opens the catalog and
// builds the bridge service. With withCatalog unset no catalog is opened
// and catalog operations report apperr.ErrUnsupported.
func Open(cfg *Config, logger *slog.Logger, withCatalog bool) (*Bridge, error) {
	if err := os.MkdirAll(cfg.Corpus.Root, 0o755); err != nil {
		return nil, fmt.Errorf("create corpus dir: %w", err)
	}
	fs, err := storage.NewFS(cfg.Corpus.Root)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	store := storage.NewManager(cfg.Corpus.Namespace)
	store.Mount(cfg.Corpus.Namespace, fs)
	for _, r := range cfg.Corpus.Remotes {
		u, err := storage.NewURL(r.Root)
		if err != nil {
			return nil, fmt.Errorf("mount %s: %w", r.Namespace, err)
		}
		store.Mount(r.Namespace, u)
	}

	b := &Bridge{Store: store, Root: fs.Root()}
	var cat catalog.Catalog
	if withCatalog {
		db, err := catalog.Open(cfg.Catalog.Path)
		if err != nil {
			return nil, fmt.Errorf("init catalog: %w", err)
		}
		b.db = db
		cat = db
	}
	b.Service = bridge.NewService(store, cat, logger, modeljson.Options{Workers: cfg.Conversion.Workers})
	return b, nil
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{version: "dev"}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("version", app.version),
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("corpus_root", cfg.Corpus.Root),
		slog.String("namespace", cfg.Corpus.Namespace),
		slog.Int("remotes", len(cfg.Corpus.Remotes)),
		slog.String("catalog_path", cfg.Catalog.Path),
		slog.Int("workers", cfg.Conversion.Workers),
		slog.String("log_level", cfg.App.LogLevel.String()))

	b, err := Open(cfg, logger, true)
	if err != nil {
		return err
	}
	defer b.Close()
	svc := b.Service

	// Run initial sync.
	if report, err := svc.Sync(ctx); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	} else {
		logger.Info("initial sync complete",
			slog.Int("catalogued", report.Catalogued),
			slog.Int("unchanged", report.Unchanged),
			slog.Int("removed", report.Removed),
			slog.Int("failed", report.Failed))
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, broker.PublishManifestEvent)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := svc.Manifests(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"status":"ok","version":%q}`, app.version)
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	if cfg.Conversion.Watch {
		g.Go(func() error {
			if err := svc.Watch(gCtx, b.Root, broker.PublishManifestEvent); err != nil {
				logger.Error("watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		// Stops the watcher.
		stop()

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
