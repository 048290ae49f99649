package prompt_test

import (
	"strings"
	"testing"

	"github.com/iiresodh/prequal-api/internal/domain/prompt"
)

func TestAssembleUniversalContext(t *testing.T) {
	got := prompt.Assemble("the facts", "")
	if !strings.Contains(got, "Geographic context: Universal") {
		t.Errorf("missing universal context line in %q", got)
	}
	if !strings.Contains(got, "the facts") {
		t.Error("facts not embedded verbatim")
	}
}

func TestAssembleCountryContext(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"SV", "Geographic context: SV"},
		{"mx", "Geographic context: mx"},
		{"  co  ", "Geographic context: co"},
		{"El Salvador", "Geographic context: El Salvador"},
		{"   ", "Geographic context: Universal"},
	}
	for _, tt := range tests {
		if got := prompt.Assemble("x", tt.code); !strings.Contains(got, tt.want) {
			t.Errorf("Assemble(code=%q) missing %q", tt.code, tt.want)
		}
	}
}

func TestAssembleFactsPassThroughVerbatim(t *testing.T) {
	facts := "line one\n<script>not escaped</script>\n\"quotes\" stay"
	got := prompt.Assemble(facts, "SV")
	if !strings.Contains(got, facts) {
		t.Error("facts must pass through without escaping")
	}
}

func TestAssembleWithContext(t *testing.T) {
	got := prompt.AssembleWithContext("facts", "", []string{"snippet a", "  ", "snippet b"})
	if !strings.Contains(got, "REFERENCE MATERIAL") {
		t.Error("missing reference material block")
	}
	if !strings.Contains(got, "snippet a") || !strings.Contains(got, "snippet b") {
		t.Error("snippets not embedded")
	}

	plain := prompt.AssembleWithContext("facts", "", nil)
	if strings.Contains(plain, "REFERENCE MATERIAL") {
		t.Error("no snippets must mean no reference block")
	}
	if plain != prompt.Assemble("facts", "") {
		t.Error("empty snippets must fall back to the plain prompt")
	}
}
