package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/iiresodh/prequal-api/internal/domain/analysis"
	"github.com/iiresodh/prequal-api/internal/domain/entitlement"
	"github.com/iiresodh/prequal-api/internal/domain/identity"
	"github.com/iiresodh/prequal-api/internal/infrastructure/auth"
	"github.com/iiresodh/prequal-api/internal/interfaces/httpserver/handlers"
)

// MockGenerator is a mock implementation of analysis.Generator.
type MockGenerator struct {
	StreamFunc func(ctx context.Context, promptText string) <-chan analysis.Chunk
}

func (m *MockGenerator) Stream(ctx context.Context, promptText string) <-chan analysis.Chunk {
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, promptText)
	}
	ch := make(chan analysis.Chunk)
	close(ch)
	return ch
}

// MockScheduler is a mock implementation of analysis.Scheduler.
type MockScheduler struct {
	ScheduleFunc func(record analysis.Prequalification) error
}

func (m *MockScheduler) Schedule(record analysis.Prequalification) error {
	if m.ScheduleFunc != nil {
		return m.ScheduleFunc(record)
	}
	return nil
}

// MockBilling is a mock implementation of entitlement.BillingRepository.
type MockBilling struct {
	HasActiveSubscriptionFunc func(ctx context.Context, userID string) (bool, error)
}

func (m *MockBilling) HasActiveSubscription(ctx context.Context, userID string) (bool, error) {
	if m.HasActiveSubscriptionFunc != nil {
		return m.HasActiveSubscriptionFunc(ctx, userID)
	}
	return false, nil
}

func chunkStream(chunks ...analysis.Chunk) func(ctx context.Context, promptText string) <-chan analysis.Chunk {
	return func(ctx context.Context, promptText string) <-chan analysis.Chunk {
		ch := make(chan analysis.Chunk, len(chunks))
		for _, chunk := range chunks {
			ch <- chunk
		}
		close(ch)
		return ch
	}
}

func newAnalysisRouter(gen analysis.Generator, sched analysis.Scheduler, billing entitlement.BillingRepository, caller *identity.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := zerolog.Nop()

	service := analysis.NewService(gen, nil, sched, 0, log)
	checker := entitlement.NewChecker(nil, nil, billing, log)
	handler := handlers.NewAnalysisHandler(service, checker, log)

	router := gin.New()
	router.POST("/analyze", func(c *gin.Context) {
		if caller != nil {
			auth.SetIdentity(c, *caller)
		}
		handler.Analyze(c)
	})
	return router
}

func performAnalyze(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func parseEvents(t *testing.T, body string) []map[string]string {
	t.Helper()
	var events []map[string]string
	for _, frame := range strings.Split(strings.TrimSpace(body), "\n\n") {
		payloadText := strings.TrimPrefix(frame, "data: ")
		var payload map[string]string
		if err := json.Unmarshal([]byte(payloadText), &payload); err != nil {
			t.Fatalf("unmarshal SSE frame %q: %v", frame, err)
		}
		events = append(events, payload)
	}
	return events
}

func TestAnalyzeStreamsEventsInOrder(t *testing.T) {
	var saved *analysis.Prequalification
	gen := &MockGenerator{StreamFunc: chunkStream(
		analysis.Chunk{Text: "The petition "},
		analysis.Chunk{Text: "appears admissible."},
	)}
	sched := &MockScheduler{ScheduleFunc: func(record analysis.Prequalification) error {
		saved = &record
		return nil
	}}
	billing := &MockBilling{HasActiveSubscriptionFunc: func(ctx context.Context, userID string) (bool, error) {
		return true, nil
	}}
	caller := &identity.Identity{UserID: "user-1", Email: "user@example.org"}

	router := newAnalysisRouter(gen, sched, billing, caller)
	recorder := performAnalyze(router, `{"title":"Case","facts":"arbitrary detention","country_code":"hn"}`)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if ct := recorder.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("expected event-stream content type, got %q", ct)
	}

	events := parseEvents(t, recorder.Body.String())
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d: %v", len(events), events)
	}
	if events[0]["event"] != "status" || events[0]["message"] == "" {
		t.Fatalf("expected status event first, got %v", events[0])
	}
	if events[1]["text"] != "The petition " || events[2]["text"] != "appears admissible." {
		t.Fatalf("unexpected chunk events: %v", events)
	}
	if events[3]["event"] != "done" {
		t.Fatalf("expected done event last, got %v", events[3])
	}

	if saved == nil {
		t.Fatal("expected analysis to be scheduled for persistence")
	}
	if saved.UserID != "user-1" || saved.Result != "The petition appears admissible." {
		t.Fatalf("unexpected saved record: %+v", saved)
	}
}

func TestAnalyzeGenerationFaultEndsWithErrorEvent(t *testing.T) {
	gen := &MockGenerator{StreamFunc: chunkStream(
		analysis.Chunk{Text: "partial"},
		analysis.Chunk{Err: errors.New("model unavailable")},
	)}
	sched := &MockScheduler{ScheduleFunc: func(record analysis.Prequalification) error {
		t.Fatal("failed analysis must not be persisted")
		return nil
	}}
	billing := &MockBilling{HasActiveSubscriptionFunc: func(ctx context.Context, userID string) (bool, error) {
		return true, nil
	}}
	caller := &identity.Identity{UserID: "user-1", Email: "user@example.org"}

	router := newAnalysisRouter(gen, sched, billing, caller)
	recorder := performAnalyze(router, `{"title":"Case","facts":"arbitrary detention"}`)

	events := parseEvents(t, recorder.Body.String())
	last := events[len(events)-1]
	if last["error"] == "" {
		t.Fatalf("expected terminal error event, got %v", last)
	}
	for _, event := range events {
		if event["event"] == "done" {
			t.Fatalf("done event must not follow an error: %v", events)
		}
	}
}

func TestAnalyzeUniversalContextReachesGenerator(t *testing.T) {
	var prompt string
	gen := &MockGenerator{StreamFunc: func(ctx context.Context, promptText string) <-chan analysis.Chunk {
		prompt = promptText
		return chunkStream(analysis.Chunk{Text: "ok"})(ctx, promptText)
	}}
	billing := &MockBilling{HasActiveSubscriptionFunc: func(ctx context.Context, userID string) (bool, error) {
		return true, nil
	}}
	caller := &identity.Identity{UserID: "user-1", Email: "user@example.org"}

	router := newAnalysisRouter(gen, &MockScheduler{}, billing, caller)
	performAnalyze(router, `{"title":"Case","facts":"arbitrary detention"}`)

	if !strings.Contains(prompt, "Geographic context: Universal") {
		t.Fatalf("expected universal geographic context in prompt, got %q", prompt)
	}
}

func TestAnalyzeRejectsMissingIdentity(t *testing.T) {
	router := newAnalysisRouter(&MockGenerator{}, &MockScheduler{}, &MockBilling{}, nil)
	recorder := performAnalyze(router, `{"title":"Case","facts":"x"}`)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
}

func TestAnalyzeRejectsMissingFacts(t *testing.T) {
	caller := &identity.Identity{UserID: "user-1", Email: "user@example.org"}
	router := newAnalysisRouter(&MockGenerator{}, &MockScheduler{}, &MockBilling{}, caller)
	recorder := performAnalyze(router, `{"title":"no facts"}`)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestAnalyzeRejectsMissingTitle(t *testing.T) {
	caller := &identity.Identity{UserID: "user-1", Email: "user@example.org"}
	router := newAnalysisRouter(&MockGenerator{}, &MockScheduler{}, &MockBilling{}, caller)
	recorder := performAnalyze(router, `{"facts":"no title"}`)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestAnalyzeForbiddenWithoutSubscription(t *testing.T) {
	billing := &MockBilling{HasActiveSubscriptionFunc: func(ctx context.Context, userID string) (bool, error) {
		return false, nil
	}}
	caller := &identity.Identity{UserID: "user-1", Email: "user@example.org"}

	router := newAnalysisRouter(&MockGenerator{}, &MockScheduler{}, billing, caller)
	recorder := performAnalyze(router, `{"title":"Case","facts":"x"}`)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", recorder.Code)
	}
	if ct := recorder.Header().Get("Content-Type"); strings.HasPrefix(ct, "text/event-stream") {
		t.Fatal("denied request must not open a stream")
	}
}

func TestAnalyzeBillingFaultIsServerError(t *testing.T) {
	billing := &MockBilling{HasActiveSubscriptionFunc: func(ctx context.Context, userID string) (bool, error) {
		return false, errors.New("store unreachable")
	}}
	caller := &identity.Identity{UserID: "user-1", Email: "user@example.org"}

	router := newAnalysisRouter(&MockGenerator{}, &MockScheduler{}, billing, caller)
	recorder := performAnalyze(router, `{"title":"Case","facts":"x"}`)

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("billing fault must surface as 500, got %d", recorder.Code)
	}
	if strings.Contains(recorder.Body.String(), "store unreachable") {
		t.Fatal("internal fault detail must not leak to the client")
	}
}
