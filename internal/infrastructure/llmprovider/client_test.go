package llmprovider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iiresodh/prequal-api/internal/domain/analysis"
)

func TestStreamFailFastDeliversErrorChunk(t *testing.T) {
	initErr := errors.New("backend unavailable")
	client := &Client{log: zerolog.Nop(), initErr: initErr}

	var got []analysis.Chunk
	for chunk := range client.Stream(context.Background(), "facts") {
		got = append(got, chunk)
	}

	if len(got) != 1 {
		t.Fatalf("expected exactly one chunk, got %d: %v", len(got), got)
	}
	if !errors.Is(got[0].Err, initErr) {
		t.Fatalf("expected the init error, got %v", got[0].Err)
	}
}

func TestStreamDeliversTerminalErrorAfterDeadline(t *testing.T) {
	client := &Client{log: zerolog.Nop(), initErr: errors.New("backend unavailable")}

	// The session deadline may already be expired when the terminal error is
	// produced; the chunk must still reach a draining consumer every time.
	for i := 0; i < 200; i++ {
		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))

		var got []analysis.Chunk
		for chunk := range client.Stream(ctx, "facts") {
			got = append(got, chunk)
		}
		cancel()

		if len(got) != 1 || got[0].Err == nil {
			t.Fatalf("iteration %d: expected one terminal error chunk, got %v", i, got)
		}
	}
}

func TestEmitStopsTextChunksOnEndedContext(t *testing.T) {
	client := &Client{log: zerolog.Nop()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan analysis.Chunk)
	if client.emit(ctx, out, analysis.Chunk{Text: "partial"}) {
		t.Fatal("emit must report false once the context has ended")
	}
}
