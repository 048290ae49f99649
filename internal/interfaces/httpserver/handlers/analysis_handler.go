package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/iiresodh/prequal-api/internal/domain/analysis"
	"github.com/iiresodh/prequal-api/internal/domain/apperr"
	"github.com/iiresodh/prequal-api/internal/domain/entitlement"
	"github.com/iiresodh/prequal-api/internal/infrastructure/auth"
	"github.com/iiresodh/prequal-api/internal/infrastructure/observability"
	"github.com/iiresodh/prequal-api/internal/interfaces/httpserver/dto"
)

// AnalysisHandler exposes the streaming prequalification endpoint.
type AnalysisHandler struct {
	service *analysis.Service
	checker *entitlement.Checker
	log     zerolog.Logger
}

// NewAnalysisHandler constructs the handler.
func NewAnalysisHandler(service *analysis.Service, checker *entitlement.Checker, log zerolog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		service: service,
		checker: checker,
		log:     log.With().Str("handler", "analysis").Logger(),
	}
}

// Analyze handles POST /analyze. It authorizes the caller, then streams the
// generated report as server-sent events. All SSE frames are data-only JSON
// payloads; the stream ends with exactly one done or error event.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	caller, ok := auth.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req dto.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.checker.Authorize(c.Request.Context(), caller); err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.ClientMessage(err)})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		h.log.Error().Msg("response writer does not support streaming")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming is not supported"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	// Disables proxy buffering so chunks reach the client as they are produced.
	c.Header("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx, span := observability.StartAnalysisSpan(c.Request.Context(), caller.UserID, req.CountryCode)
	defer span.End()

	observer := newSSEObserver(c.Writer, flusher, h.log)
	outcome := h.service.RunStream(ctx, caller, analysis.Request{
		Title:       req.Title,
		Facts:       req.Facts,
		CountryCode: req.CountryCode,
	}, observer)

	if outcome == analysis.OutcomeError {
		span.SetAttributes(attribute.Bool("stream.error", true))
	}
}

// sseObserver serializes stream events into data-only SSE frames.
type sseObserver struct {
	mu      sync.Mutex
	writer  http.ResponseWriter
	flusher http.Flusher
	log     zerolog.Logger
}

func newSSEObserver(w http.ResponseWriter, flusher http.Flusher, log zerolog.Logger) *sseObserver {
	return &sseObserver{
		writer:  w,
		flusher: flusher,
		log:     log,
	}
}

func (o *sseObserver) OnStatus(message string) {
	o.send(map[string]string{"event": "status", "message": message})
}

func (o *sseObserver) OnChunk(text string) {
	o.send(map[string]string{"text": text})
}

func (o *sseObserver) OnDone() {
	o.send(map[string]string{"event": "done"})
}

func (o *sseObserver) OnError(message string) {
	o.send(map[string]string{"error": message})
}

func (o *sseObserver) send(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		o.log.Error().Err(err).Msg("marshal SSE payload")
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintf(o.writer, "data: %s\n\n", data)
	o.flusher.Flush()
}
