package ragprovider_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/iiresodh/prequal-api/internal/infrastructure/ragprovider"
)

func TestFetchContext(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query" {
			t.Errorf("path = %q, want /query", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string][]string{"snippets": {"art. 4 ACHR", "art. 6 ICCPR"}})
	}))
	defer server.Close()

	client := ragprovider.NewClient(server.URL, zerolog.Nop())
	snippets := client.FetchContext(context.Background(), "the facts", "SV")

	if len(snippets) != 2 {
		t.Fatalf("snippets = %v, want 2 entries", snippets)
	}
	if gotBody["query"] != "the facts" || gotBody["country_code"] != "SV" {
		t.Errorf("request body = %v", gotBody)
	}
}

func TestFetchContextDisabled(t *testing.T) {
	client := ragprovider.NewClient("", zerolog.Nop())
	if got := client.FetchContext(context.Background(), "x", ""); got != nil {
		t.Errorf("disabled client returned %v, want nil", got)
	}
}

func TestFetchContextDegradesOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := ragprovider.NewClient(server.URL, zerolog.Nop())
	if got := client.FetchContext(context.Background(), "x", ""); len(got) != 0 {
		t.Errorf("server error returned %v, want empty", got)
	}
}

func TestFetchContextDegradesOnUnreachableBackend(t *testing.T) {
	client := ragprovider.NewClient("http://127.0.0.1:1", zerolog.Nop())
	if got := client.FetchContext(context.Background(), "x", ""); len(got) != 0 {
		t.Errorf("unreachable backend returned %v, want empty", got)
	}
}
