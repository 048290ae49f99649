package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/iiresodh/prequal-api/internal/config"
	"github.com/iiresodh/prequal-api/internal/domain/analysis"
	"github.com/iiresodh/prequal-api/internal/domain/chat"
	"github.com/iiresodh/prequal-api/internal/domain/entitlement"
	"github.com/iiresodh/prequal-api/internal/infrastructure/auth"
	"github.com/iiresodh/prequal-api/internal/infrastructure/firestore"
	"github.com/iiresodh/prequal-api/internal/infrastructure/llmprovider"
	"github.com/iiresodh/prequal-api/internal/infrastructure/logger"
	"github.com/iiresodh/prequal-api/internal/infrastructure/observability"
	"github.com/iiresodh/prequal-api/internal/infrastructure/ragprovider"
	analysisrepo "github.com/iiresodh/prequal-api/internal/infrastructure/repository/analysis"
	billingrepo "github.com/iiresodh/prequal-api/internal/infrastructure/repository/billing"
	chatrepo "github.com/iiresodh/prequal-api/internal/infrastructure/repository/chat"
	"github.com/iiresodh/prequal-api/internal/interfaces/httpserver"
	"github.com/iiresodh/prequal-api/internal/interfaces/httpserver/handlers"
	"github.com/iiresodh/prequal-api/internal/webhook"
	"github.com/iiresodh/prequal-api/internal/worker"
)

// Application bundles the HTTP server with its lifecycle dependencies.
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)
	cfg.Normalize(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	store, err := firestore.Connect(ctx, cfg.GoogleCloudProject)
	if err != nil {
		log.Fatal().Err(err).Msg("connect document store")
	}
	defer store.Close()

	verifier, err := auth.NewVerifier(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize token verifier")
	}

	chatRepository := chatrepo.NewRepository(store)
	analysisRepository := analysisrepo.NewRepository(store)
	billingRepository := billingrepo.NewRepository(store)

	generator := llmprovider.NewClient(ctx, cfg, log)

	var contextProvider analysis.ContextProvider
	if cfg.RAGAPIURL != "" {
		contextProvider = ragprovider.NewClient(cfg.RAGAPIURL, log)
	}

	// Background persistence runs on the process context so saves survive
	// request cancellation.
	taskQueue := worker.NewQueue(cfg.QueueSize)
	workerPool := worker.NewPool(
		taskQueue,
		analysisRepository,
		worker.Config{
			WorkerCount: cfg.WorkerCount,
			TaskTimeout: cfg.TaskTimeout,
		},
		log,
	)
	workerPool.Start(ctx)
	defer func() {
		log.Info().Msg("stopping worker pool")
		workerPool.Stop()
	}()

	checker := entitlement.NewChecker(cfg.AdminDomains, cfg.AdminEmails, billingRepository, log)
	analysisService := analysis.NewService(generator, contextProvider, taskQueue, cfg.StatusDelay, log)
	chatService := chat.NewService(chatRepository, log)

	stripeHandler := webhook.NewStripeHandler(cfg.StripeWebhookSecret, cfg.StripeAPIKey, billingRepository, log)

	handlerProvider := handlers.NewProvider(analysisService, chatService, checker, log)
	httpServer := httpserver.New(cfg, log, handlerProvider, verifier, stripeHandler)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
