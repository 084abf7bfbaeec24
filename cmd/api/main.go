package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/justsurfingit/cover-letter-agent/internal/auth"
	"github.com/justsurfingit/cover-letter-agent/internal/config"
	"github.com/justsurfingit/cover-letter-agent/internal/database"
	"github.com/justsurfingit/cover-letter-agent/internal/export"
	"github.com/justsurfingit/cover-letter-agent/internal/handlers"
	"github.com/justsurfingit/cover-letter-agent/internal/logging"
	"github.com/justsurfingit/cover-letter-agent/internal/services"
	"github.com/justsurfingit/cover-letter-agent/internal/session"
	"github.com/justsurfingit/cover-letter-agent/internal/workflow"
)

const (
	janitorInterval = time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load configuration (defaults, optional YAML, .env, environment)
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatal("Error loading configuration: ", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	logger := logging.NewJSON(logging.ParseLevel(cfg.LogLevel))

	// 2. Job Record Store
	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		log.Fatal("Store initialisation failed: ", err)
	}

	// 3. Generation Service
	var (
		generator workflow.Generator
		extractor handlers.JobExtractor
	)
	switch cfg.LLM.Provider {
	case "edge":
		generator = services.NewEdgeFunctionGenerator(cfg.Supabase.URL, cfg.Supabase.AnonKey, cfg.Supabase.Function, cfg.LLM.Model, cfg.LLM.Timeout)
	default:
		llmService, err := services.NewLLMService(ctx, cfg.LLM)
		if err != nil {
			log.Fatal("LLM initialisation failed: ", err)
		}
		generator, extractor = llmService, llmService
	}

	// 4. Identity provider
	var provider auth.Provider
	switch cfg.Auth.Provider {
	case "supabase":
		provider = auth.NewSupabaseProvider(cfg.Supabase.URL, cfg.Supabase.AnonKey)
	default:
		provider = auth.NewJWTProvider(cfg.Supabase.JWTSecret)
	}

	// 5. Optional export archive
	var archive handlers.DocumentArchive
	if cfg.Export.Bucket != "" {
		a, err := export.NewArchive(ctx, cfg.Export)
		if err != nil {
			log.Fatal("Export archive initialisation failed: ", err)
		}
		archive = a
	} else {
		logger.Info(ctx, "export archive disabled")
	}

	// 6. Workflow sessions
	sessions := session.NewManager(store, generator, cfg.Server.SessionIdleTTL, logger)
	sessions.StartJanitor(ctx, janitorInterval)

	// 7. Handlers and router
	router := handlers.NewRouter(handlers.Handlers{
		Jobs:     handlers.NewJobHandler(extractor, store, logger),
		Sessions: handlers.NewSessionHandler(sessions, archive, cfg.Locale, cfg.LLM.Timeout, logger),
		Profile:  handlers.NewProfileHandler(store),
		Logger:   logger,
	}, auth.Middleware(provider, logger), cfg.Server.AllowedOrigins)

	// 8. Serve until interrupted
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info(ctx, "server starting", "addr", cfg.Server.Addr,
			"store", cfg.Database.Driver, "llm", cfg.LLM.Provider, "auth", cfg.Auth.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start: ", err)
		}
	}()

	<-ctx.Done()
	logger.Info(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	sessions.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "server shutdown failed", "error", err)
	}
}

func newStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (services.Repository, error) {
	switch cfg.Database.Driver {
	case "supabase":
		s, err := services.NewSupabaseStore(cfg.Supabase.URL, cfg.SupabaseKey())
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		logger.Warn(ctx, "using the in-memory store; data is lost on restart")
		return services.NewMemoryStore(), nil
	default:
		db, err := database.Connect(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		return services.NewJobService(db), nil
	}
}
