package handlers

import (
	"github.com/rs/zerolog"

	"github.com/iiresodh/prequal-api/internal/domain/analysis"
	"github.com/iiresodh/prequal-api/internal/domain/chat"
	"github.com/iiresodh/prequal-api/internal/domain/entitlement"
)

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Analysis *AnalysisHandler
	Chat     *ChatHandler
}

// NewProvider constructs the handler provider with domain services.
func NewProvider(
	analysisService *analysis.Service,
	chatService *chat.Service,
	checker *entitlement.Checker,
	log zerolog.Logger,
) *Provider {
	return &Provider{
		Analysis: NewAnalysisHandler(analysisService, checker, log),
		Chat:     NewChatHandler(chatService, checker, log),
	}
}
