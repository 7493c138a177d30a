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

	"github.com/starford/dagaz/internal/api"
	"github.com/starford/dagaz/internal/calendar"
	"github.com/starford/dagaz/internal/dateparse"
	"github.com/starford/dagaz/internal/engine"
	"github.com/starford/dagaz/internal/intent"
	"github.com/starford/dagaz/internal/llm"
	"github.com/starford/dagaz/internal/mcpserver"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/sse"
	"github.com/starford/dagaz/internal/storage"
	"github.com/starford/dagaz/internal/store"
	"github.com/starford/dagaz/internal/validate"
)

// keywordExtractor extracts intents without a model, using keyword
// matching only.
type keywordExtractor struct{}

func (keywordExtractor) ExtractIntent(_ context.Context, text string, _ time.Time) (models.RawIntent, error) {
	return llm.KeywordFallback(text), nil
}

func buildEngine(cfg *Config, notify engine.NotifyFunc) (*engine.Engine, *store.Store, error) {
	provider, err := storage.NewFile(cfg.Store.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}
	st, err := store.Open(provider)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	if w := cfg.Scheduling.CancelWindowMinutes; w > 0 {
		st.SetCancelWindow(time.Duration(w) * time.Minute)
	}

	resolver := &intent.Resolver{
		Dates:           &dateparse.Normalizer{IncludeToday: cfg.Scheduling.NextWeekdayIncludesToday},
		DefaultDuration: time.Duration(cfg.Scheduling.DefaultDurationMinutes) * time.Minute,
	}
	validator := &validate.Validator{
		MaxDuration: time.Duration(cfg.Scheduling.MaxDurationMinutes) * time.Minute,
	}
	eng := engine.New(st, resolver, validator, cfg.Scheduling.ConflictPolicy, notify)
	return eng, st, nil
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_path", cfg.Store.Path),
		slog.String("conflict_policy", cfg.Scheduling.ConflictPolicy),
		slog.Bool("llm_enabled", cfg.LLM.Enabled()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker()
	defer broker.Close()

	// Optional calendar mirror.
	var cal *calendar.Sync
	if cfg.Store.CalendarPath != "" {
		calProvider, err := storage.NewFile(cfg.Store.CalendarPath)
		if err != nil {
			return fmt.Errorf("init calendar storage: %w", err)
		}
		cal, err = calendar.NewSync(calProvider)
		if err != nil {
			return fmt.Errorf("init calendar sync: %w", err)
		}
	}

	notify := func(event string, appt models.Appointment) {
		broker.PublishAppointmentEvent(event, appt)
		if cal == nil {
			return
		}
		go func() {
			var err error
			switch event {
			case "created":
				err = cal.AppointmentCreated(appt)
			case "cancelled":
				err = cal.AppointmentCancelled(appt)
			}
			if err != nil {
				logger.Warn("calendar sync failed",
					slog.String("event", event),
					slog.Int("appointment_id", appt.ID),
					slog.String("error", err.Error()))
			}
		}()
	}

	eng, st, err := buildEngine(cfg, notify)
	if err != nil {
		return err
	}

	// Intent extraction: LLM when configured, keyword matching otherwise.
	var extractor api.IntentExtractor
	if cfg.LLM.Enabled() {
		extractor = llm.NewClient(cfg.LLM.APIURL, cfg.LLM.APIKey, cfg.LLM.Model)
	} else {
		logger.Warn("LLM not configured, using keyword intent extraction")
		extractor = keywordExtractor{}
	}

	// Build API handler and router.
	h := api.NewHandler(eng, extractor)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the schedule file for external edits.
	g.Go(func() error {
		return store.Watch(gCtx, st, cfg.Store.Path, logger, broker.PublishReload)
	})

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

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP starts the MCP server on stdin/stdout. Logs go to stderr so they
// do not corrupt the protocol stream.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	eng, _, err := buildEngine(cfg, nil)
	if err != nil {
		return err
	}

	logger.Info("MCP server starting on stdio", slog.String("store_path", cfg.Store.Path))
	return mcpserver.New(eng).ServeStdio()
}
