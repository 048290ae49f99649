package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/iiresodh/prequal-api/internal/domain/apperr"
	"github.com/iiresodh/prequal-api/internal/domain/chat"
	"github.com/iiresodh/prequal-api/internal/domain/entitlement"
	"github.com/iiresodh/prequal-api/internal/domain/identity"
	"github.com/iiresodh/prequal-api/internal/infrastructure/auth"
	"github.com/iiresodh/prequal-api/internal/interfaces/httpserver/dto"
)

// ChatHandler exposes conversation and message endpoints. These require a
// verified caller but not an active subscription.
type ChatHandler struct {
	service *chat.Service
	checker *entitlement.Checker
	log     zerolog.Logger
}

// NewChatHandler constructs the handler.
func NewChatHandler(service *chat.Service, checker *entitlement.Checker, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		checker: checker,
		log:     log.With().Str("handler", "chat").Logger(),
	}
}

// ListConversations handles GET /conversations.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	caller, ok := h.authorize(c)
	if !ok {
		return
	}
	convos := h.service.ListConversations(c.Request.Context(), caller.UserID)
	c.JSON(http.StatusOK, gin.H{"conversations": convos})
}

// CreateConversation handles POST /conversations.
func (h *ChatHandler) CreateConversation(c *gin.Context) {
	caller, ok := h.authorize(c)
	if !ok {
		return
	}

	var req dto.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	convo, err := h.service.CreateConversation(c.Request.Context(), caller.UserID, req.Title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create the conversation"})
		return
	}
	c.JSON(http.StatusCreated, convo)
}

// RenameConversation handles PATCH /conversations/:id.
func (h *ChatHandler) RenameConversation(c *gin.Context) {
	caller, ok := h.authorize(c)
	if !ok {
		return
	}

	var req dto.RenameConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.RenameConversation(c.Request.Context(), caller.UserID, c.Param("id"), req.Title); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not rename the conversation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// DeleteConversation handles DELETE /conversations/:id.
func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	caller, ok := h.authorize(c)
	if !ok {
		return
	}

	if err := h.service.DeleteConversation(c.Request.Context(), caller.UserID, c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete the conversation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ListMessages handles GET /conversations/:id/messages.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	caller, ok := h.authorize(c)
	if !ok {
		return
	}
	messages := h.service.ListMessages(c.Request.Context(), caller.UserID, c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// AppendMessage handles POST /conversations/:id/messages.
func (h *ChatHandler) AppendMessage(c *gin.Context) {
	caller, ok := h.authorize(c)
	if !ok {
		return
	}

	var req dto.AppendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message := chat.Message{
		Role:      chat.Role(req.Role),
		Content:   req.Content,
		Timestamp: time.Now().UTC(),
	}
	if err := h.service.AppendMessage(c.Request.Context(), caller.UserID, c.Param("id"), message); err != nil {
		if errors.Is(err, chat.ErrInvalidRole) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "role must be user or model"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store the message"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "ok"})
}

func (h *ChatHandler) authorize(c *gin.Context) (identity.Identity, bool) {
	caller, found := auth.IdentityFromContext(c)
	if !found {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return identity.Identity{}, false
	}
	if err := h.checker.AuthorizeAuthenticated(caller); err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.ClientMessage(err)})
		return identity.Identity{}, false
	}
	return caller, true
}
