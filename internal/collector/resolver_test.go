package collector

import (
	"reflect"
	"testing"
)

func TestResolveKnownKey(t *testing.T) {
	r := NewResolver()
	labels := r.Resolve("perplexity")
	if len(labels) < 2 {
		t.Fatalf("expected multiple historical labels, got %v", labels)
	}
	if labels[0] != "perplexity" {
		t.Errorf("expected canonical label first, got %q", labels[0])
	}
}

func TestResolveIsCaseInsensitiveAndTrims(t *testing.T) {
	r := NewResolver()
	want := r.Resolve("gemini")
	for _, key := range []string{"Gemini", "  gemini  ", "GEMINI"} {
		got := r.Resolve(key)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Resolve(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestResolveUnknownKeyFailsOpen(t *testing.T) {
	r := NewResolver()
	got := r.Resolve("  some-new-provider ")
	if !reflect.DeepEqual(got, []string{"some-new-provider"}) {
		t.Errorf("expected trimmed input as exact match, got %v", got)
	}
}

func TestResolveAllDeduplicates(t *testing.T) {
	r := NewResolver()
	got := r.ResolveAll([]string{"gemini", "bard-alias-test", "Gemini"})
	seen := make(map[string]int)
	for _, label := range got {
		seen[label]++
	}
	for label, count := range seen {
		if count > 1 {
			t.Errorf("label %q appears %d times", label, count)
		}
	}
	if seen["bard-alias-test"] != 1 {
		t.Errorf("unknown key lost during flattening: %v", got)
	}
}

func TestResolveReturnsCopy(t *testing.T) {
	r := NewResolver()
	first := r.Resolve("claude")
	first[0] = "mutated"
	second := r.Resolve("claude")
	if second[0] == "mutated" {
		t.Error("Resolve returned shared backing array")
	}
}
