package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/iiresodh/prequal-api/internal/interfaces/httpserver/handlers"
)

// Provider coordinates all route registrations.
type Provider struct {
	handlers *handlers.Provider
}

// NewProvider constructs the route provider.
func NewProvider(handlerProvider *handlers.Provider) *Provider {
	return &Provider{handlers: handlerProvider}
}

// Register attaches the authenticated API routes to the gin engine. The
// frontend consumes these at the root path, so there is no version prefix.
func (p *Provider) Register(engine *gin.Engine) {
	engine.POST("/analyze", p.handlers.Analysis.Analyze)

	engine.GET("/conversations", p.handlers.Chat.ListConversations)
	engine.POST("/conversations", p.handlers.Chat.CreateConversation)
	engine.PATCH("/conversations/:id", p.handlers.Chat.RenameConversation)
	engine.DELETE("/conversations/:id", p.handlers.Chat.DeleteConversation)
	engine.GET("/conversations/:id/messages", p.handlers.Chat.ListMessages)
	engine.POST("/conversations/:id/messages", p.handlers.Chat.AppendMessage)
}
