package analysis

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iiresodh/prequal-api/internal/domain/identity"
	"github.com/iiresodh/prequal-api/internal/domain/prompt"
)

// Chunk is one unit of streamed generation output. A non-nil Err marks the
// error-shaped terminal chunk; the stream closes right after it.
type Chunk struct {
	Text string
	Err  error
}

// Generator streams model output for a prompt. The returned channel is
// always closed by the producer, fault or not, and stops delivering when
// ctx is cancelled.
type Generator interface {
	Stream(ctx context.Context, promptText string) <-chan Chunk
}

// ContextProvider fetches reference snippets for the facts narrative.
// Implementations degrade to an empty result on fault.
type ContextProvider interface {
	FetchContext(ctx context.Context, query, countryCode string) []string
}

// Scheduler hands a completed record to the background persistence path.
// It must not block the response stream.
type Scheduler interface {
	Schedule(record Prequalification) error
}

// StreamObserver receives the ordered stream events for one analysis. Calls
// arrive from a single goroutine.
type StreamObserver interface {
	OnStatus(message string)
	OnChunk(text string)
	OnDone()
	OnError(message string)
}

// Service orchestrates one analysis: retrieve context, assemble the prompt,
// stream generation to the observer, and schedule the background save.
type Service struct {
	generator   Generator
	contextProv ContextProvider
	scheduler   Scheduler
	statusDelay time.Duration
	log         zerolog.Logger
}

// NewService builds the analysis service. contextProv may be nil when no
// retrieval backend is configured. statusDelay is the cosmetic pause after
// the initial status event.
func NewService(generator Generator, contextProv ContextProvider, scheduler Scheduler, statusDelay time.Duration, log zerolog.Logger) *Service {
	return &Service{
		generator:   generator,
		contextProv: contextProv,
		scheduler:   scheduler,
		statusDelay: statusDelay,
		log:         log.With().Str("component", "analysis").Logger(),
	}
}

// Outcome reports how a stream ended.
type Outcome int

const (
	// OutcomeDone means the stream completed and emitted a done event.
	OutcomeDone Outcome = iota
	// OutcomeError means the stream terminated with an error event.
	OutcomeError
)

// RunStream streams one analysis to the observer. It terminates the stream
// with exactly one of OnDone or OnError and never panics outward. The
// background save is scheduled only after a fully successful stream.
func (s *Service) RunStream(ctx context.Context, caller identity.Identity, req Request, observer StreamObserver) Outcome {
	observer.OnStatus("Analyzing facts narrative...")
	if s.statusDelay > 0 {
		select {
		case <-time.After(s.statusDelay):
		case <-ctx.Done():
		}
	}

	promptText := s.assemblePrompt(ctx, req)

	var result strings.Builder
	for chunk := range s.generator.Stream(ctx, promptText) {
		if chunk.Err != nil {
			s.log.Error().Err(chunk.Err).Str("user_id", caller.UserID).Msg("generation stream fault")
			observer.OnError("The analysis could not be completed.")
			return OutcomeError
		}
		if chunk.Text == "" {
			continue
		}
		observer.OnChunk(chunk.Text)
		result.WriteString(chunk.Text)
	}

	if err := ctx.Err(); err != nil {
		// Client went away mid-stream; nothing useful left to emit.
		s.log.Warn().Err(err).Str("user_id", caller.UserID).Msg("analysis stream cancelled")
		return OutcomeError
	}

	observer.OnDone()

	record := Prequalification{
		UserID:      caller.UserID,
		Title:       req.Title,
		Facts:       req.Facts,
		CountryCode: req.CountryCode,
		Result:      result.String(),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.scheduler.Schedule(record); err != nil {
		// Best-effort persistence: the caller already has the full result.
		s.log.Error().Err(err).Str("user_id", caller.UserID).Msg("schedule analysis save failed")
	}
	return OutcomeDone
}

func (s *Service) assemblePrompt(ctx context.Context, req Request) string {
	if s.contextProv == nil {
		return prompt.Assemble(req.Facts, req.CountryCode)
	}
	snippets := s.contextProv.FetchContext(ctx, req.Facts, req.CountryCode)
	return prompt.AssembleWithContext(req.Facts, req.CountryCode, snippets)
}
