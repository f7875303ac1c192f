// Package collector maps logical answer-provider keys to the raw labels
// under which their captures were historically stored.
package collector

import "strings"

// aliases holds every stored label for a logical provider key. Providers
// were renamed more than once during collection; old rows keep old labels.
var aliases = map[string][]string{
	"chatgpt":       {"chatgpt", "openai-chatgpt", "gpt4-browse"},
	"perplexity":    {"perplexity", "perplexity-online", "pplx"},
	"gemini":        {"gemini", "google-gemini", "bard"},
	"claude":        {"claude", "anthropic-claude"},
	"google-aio":    {"google-aio", "google-sge", "search-generative"},
	"bing-copilot":  {"bing-copilot", "bing-chat", "copilot"},
	"meta-ai":       {"meta-ai", "llama-chat"},
	"you-dot-com":   {"you-dot-com", "youchat"},
	"grok":          {"grok", "xai-grok"},
	"deepseek-chat": {"deepseek-chat", "deepseek"},
}

type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve returns the stored labels for a logical provider key. Unknown
// keys resolve to the trimmed input itself: an unrecognized filter behaves
// as an exact match instead of silently matching nothing.
func (r *Resolver) Resolve(key string) []string {
	trimmed := strings.TrimSpace(key)
	if labels, ok := aliases[strings.ToLower(trimmed)]; ok {
		out := make([]string, len(labels))
		copy(out, labels)
		return out
	}
	return []string{trimmed}
}

// ResolveAll flattens several keys into one label list, de-duplicating
// while preserving first-seen order.
func (r *Resolver) ResolveAll(keys []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, key := range keys {
		for _, label := range r.Resolve(key) {
			if !seen[label] {
				seen[label] = true
				out = append(out, label)
			}
		}
	}
	return out
}
