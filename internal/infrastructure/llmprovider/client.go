package llmprovider

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/iiresodh/prequal-api/internal/config"
	"github.com/iiresodh/prequal-api/internal/domain/analysis"
	"github.com/iiresodh/prequal-api/internal/domain/prompt"
	"github.com/iiresodh/prequal-api/internal/infrastructure/metrics"
)

// Client streams Gemini output through the Vertex backend. It is safe for
// concurrent use; each Stream call opens a fresh chat session.
type Client struct {
	client  *genai.Client
	model   string
	config  *genai.GenerateContentConfig
	timeout time.Duration
	log     zerolog.Logger
	initErr error
}

// NewClient initializes the generation session factory once at startup.
// Initialization failure does not abort the process: every later Stream
// call fails fast with a single error-shaped chunk, matching the stream
// contract the callers expect.
func NewClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) *Client {
	componentLog := log.With().Str("component", "llmprovider").Logger()

	c := &Client{
		model:   cfg.GeminiModel,
		timeout: cfg.GenerationTimeout,
		log:     componentLog,
		config: &genai.GenerateContentConfig{
			MaxOutputTokens:   int32(cfg.MaxOutputTokens),
			Temperature:       genai.Ptr(float32(cfg.Temperature)),
			TopP:              genai.Ptr(float32(cfg.TopP)),
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: prompt.SystemInstruction}}},
		},
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  cfg.GoogleCloudProject,
		Location: cfg.GoogleCloudLocation,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		componentLog.Error().Err(err).Str("model", cfg.GeminiModel).
			Msg("generation client failed to initialize, streams will fail fast")
		c.initErr = err
		return c
	}

	c.client = client
	componentLog.Info().Str("model", cfg.GeminiModel).Msg("generation client initialized")
	return c
}

// Stream opens a generation session for the prompt and forwards text chunks
// until the model signals done. The channel always closes; any fault is
// surfaced as one final error-shaped chunk. The session call is bounded by
// the configured generation timeout and stops when ctx is cancelled.
func (c *Client) Stream(ctx context.Context, promptText string) <-chan analysis.Chunk {
	out := make(chan analysis.Chunk)

	go func() {
		defer close(out)

		if c.initErr != nil {
			out <- analysis.Chunk{Err: c.initErr}
			return
		}

		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		chat, err := c.client.Chats.Create(ctx, c.model, c.config, nil)
		if err != nil {
			c.log.Error().Err(err).Msg("create chat session failed")
			out <- analysis.Chunk{Err: err}
			return
		}

		started := time.Now()
		chunks := 0
		for resp, err := range chat.SendMessageStream(ctx, genai.Part{Text: promptText}) {
			if err != nil {
				c.log.Error().Err(err).Int("chunks", chunks).Msg("generation stream fault")
				// Terminal error chunks are sent unconditionally: the consumer
				// drains the channel until close, and the session deadline may
				// already have expired here, so a ctx-guarded send could drop
				// the error and make a truncated stream look complete.
				out <- analysis.Chunk{Err: err}
				metrics.GenerationDuration.WithLabelValues("error").Observe(time.Since(started).Seconds())
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			chunks++
			metrics.StreamChunksTotal.Inc()
			if !c.emit(ctx, out, analysis.Chunk{Text: text}) {
				metrics.GenerationDuration.WithLabelValues("cancelled").Observe(time.Since(started).Seconds())
				return
			}
		}
		metrics.GenerationDuration.WithLabelValues("ok").Observe(time.Since(started).Seconds())
	}()

	return out
}

// emit delivers a text chunk unless ctx ended first, which is the signal to
// stop pulling from upstream. Terminal error chunks never go through here.
func (c *Client) emit(ctx context.Context, out chan<- analysis.Chunk, chunk analysis.Chunk) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}

var _ analysis.Generator = (*Client)(nil)
