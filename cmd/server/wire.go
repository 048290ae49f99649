//go:build wireinject

package main

import (
	"context"

	cloudfirestore "cloud.google.com/go/firestore"
	"github.com/google/wire"
	"github.com/rs/zerolog"

	"github.com/iiresodh/prequal-api/internal/config"
	"github.com/iiresodh/prequal-api/internal/domain/analysis"
	"github.com/iiresodh/prequal-api/internal/domain/billing"
	"github.com/iiresodh/prequal-api/internal/domain/chat"
	"github.com/iiresodh/prequal-api/internal/domain/entitlement"
	"github.com/iiresodh/prequal-api/internal/infrastructure/auth"
	"github.com/iiresodh/prequal-api/internal/infrastructure/firestore"
	"github.com/iiresodh/prequal-api/internal/infrastructure/llmprovider"
	"github.com/iiresodh/prequal-api/internal/infrastructure/logger"
	"github.com/iiresodh/prequal-api/internal/infrastructure/ragprovider"
	analysisrepo "github.com/iiresodh/prequal-api/internal/infrastructure/repository/analysis"
	billingrepo "github.com/iiresodh/prequal-api/internal/infrastructure/repository/billing"
	chatrepo "github.com/iiresodh/prequal-api/internal/infrastructure/repository/chat"
	"github.com/iiresodh/prequal-api/internal/interfaces/httpserver"
	"github.com/iiresodh/prequal-api/internal/interfaces/httpserver/handlers"
	"github.com/iiresodh/prequal-api/internal/webhook"
	"github.com/iiresodh/prequal-api/internal/worker"
)

var storageSet = wire.NewSet(
	newFirestoreClient,
	chatrepo.NewRepository,
	wire.Bind(new(chat.Repository), new(*chatrepo.Repository)),
	analysisrepo.NewRepository,
	wire.Bind(new(analysis.Repository), new(*analysisrepo.Repository)),
	billingrepo.NewRepository,
	wire.Bind(new(billing.Repository), new(*billingrepo.Repository)),
	wire.Bind(new(entitlement.BillingRepository), new(*billingrepo.Repository)),
)

var analysisSet = wire.NewSet(
	llmprovider.NewClient,
	wire.Bind(new(analysis.Generator), new(*llmprovider.Client)),
	newContextProvider,
	newTaskQueue,
	wire.Bind(new(analysis.Scheduler), new(*worker.Queue)),
	newAnalysisService,
	chat.NewService,
	newChecker,
)

// BuildApplication demonstrates how to assemble the service with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newVerifier,
		storageSet,
		analysisSet,
		newStripeHandler,
		handlers.NewProvider,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newFirestoreClient(ctx context.Context, cfg *config.Config) (*cloudfirestore.Client, error) {
	return firestore.Connect(ctx, cfg.GoogleCloudProject)
}

func newVerifier(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Verifier, error) {
	return auth.NewVerifier(ctx, cfg, log)
}

func newContextProvider(cfg *config.Config, log zerolog.Logger) analysis.ContextProvider {
	if cfg.RAGAPIURL == "" {
		return nil
	}
	return ragprovider.NewClient(cfg.RAGAPIURL, log)
}

func newTaskQueue(cfg *config.Config) *worker.Queue {
	return worker.NewQueue(cfg.QueueSize)
}

func newAnalysisService(
	generator analysis.Generator,
	contextProvider analysis.ContextProvider,
	scheduler analysis.Scheduler,
	cfg *config.Config,
	log zerolog.Logger,
) *analysis.Service {
	return analysis.NewService(generator, contextProvider, scheduler, cfg.StatusDelay, log)
}

func newChecker(cfg *config.Config, repo entitlement.BillingRepository, log zerolog.Logger) *entitlement.Checker {
	return entitlement.NewChecker(cfg.AdminDomains, cfg.AdminEmails, repo, log)
}

func newStripeHandler(cfg *config.Config, repo billing.Repository, log zerolog.Logger) *webhook.StripeHandler {
	return webhook.NewStripeHandler(cfg.StripeWebhookSecret, cfg.StripeAPIKey, repo, log)
}
