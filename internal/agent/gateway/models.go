package gateway

import "slices"

// Backend identifies the model-serving service a model lives on.
type Backend int

const (
	// BackendGemini is the hosted Gemini API.
	BackendGemini Backend = iota
	// BackendHuggingFace is the open-model inference router.
	BackendHuggingFace
)

func (b Backend) String() string {
	switch b {
	case BackendGemini:
		return "gemini"
	case BackendHuggingFace:
		return "huggingface"
	default:
		return "unknown"
	}
}

// ModelDescriptor is one row of the routing table.
type ModelDescriptor struct {
	ID      string
	Backend Backend
	// Streaming reports token-level delivery support.
	Streaming bool
}

const DefaultGeminiModel = "gemini-2.0-flash-lite"

var defaultDescriptors = []ModelDescriptor{
	{ID: "gemini-2.0-flash-lite", Backend: BackendGemini, Streaming: true},
	{ID: "gemini-2.0-flash", Backend: BackendGemini, Streaming: true},
	{ID: "gemini-2.0-pro", Backend: BackendGemini, Streaming: true},
	{ID: "gemini-2.5-flash", Backend: BackendGemini, Streaming: true},
	{ID: "gemini-2.5-flash-lite", Backend: BackendGemini, Streaming: true},
	{ID: "meta-llama/Meta-Llama-3-8B-Instruct", Backend: BackendHuggingFace, Streaming: true},
	{ID: "mistralai/Mistral-7B-Instruct-v0.2", Backend: BackendHuggingFace, Streaming: true},
	{ID: "google/flan-t5-small", Backend: BackendHuggingFace},
	{ID: "google/flan-t5-base", Backend: BackendHuggingFace},
	{ID: "Qwen/Qwen1.5-0.5B", Backend: BackendHuggingFace},
	{ID: "facebook/bart-large-cnn", Backend: BackendHuggingFace},
}

var defaultChains = map[Backend][]string{
	BackendGemini: {
		"gemini-2.0-flash-lite",
		"gemini-2.0-flash",
		"gemini-2.0-pro",
	},
	BackendHuggingFace: {
		"google/flan-t5-small",
		"Qwen/Qwen1.5-0.5B",
		"google/flan-t5-base",
		"facebook/bart-large-cnn",
	},
}

// ModelTable routes model ids to backends and holds each backend's
// fallback chain. It is read-only after construction.
type ModelTable struct {
	byID   map[string]ModelDescriptor
	chains map[Backend][]string
}

// NewModelTable returns the built-in table with extraGemini ids added as
// streaming Gemini models.
func NewModelTable(extraGemini ...string) *ModelTable {
	t := &ModelTable{
		byID:   make(map[string]ModelDescriptor, len(defaultDescriptors)+len(extraGemini)),
		chains: make(map[Backend][]string, len(defaultChains)),
	}
	for _, d := range defaultDescriptors {
		t.byID[d.ID] = d
	}
	for _, id := range extraGemini {
		if id == "" {
			continue
		}
		t.byID[id] = ModelDescriptor{ID: id, Backend: BackendGemini, Streaming: true}
	}
	for b, chain := range defaultChains {
		t.chains[b] = slices.Clone(chain)
	}
	return t
}

// Lookup resolves id. Empty selects the default Gemini model; unknown ids
// belong to the open-model backend, which serves arbitrary repositories.
func (t *ModelTable) Lookup(id string) ModelDescriptor {
	if id == "" {
		id = DefaultGeminiModel
	}
	if d, ok := t.byID[id]; ok {
		return d
	}
	return ModelDescriptor{ID: id, Backend: BackendHuggingFace, Streaming: true}
}

func (t *ModelTable) Chain(b Backend) []string {
	return t.chains[b]
}

// Attempts lists the models tried for a request, in order: the requested
// model, the rest of its backend's chain, and for the open-model backend a
// single final try on the default Gemini model.
func (t *ModelTable) Attempts(id string) []ModelDescriptor {
	first := t.Lookup(id)
	out := []ModelDescriptor{first}
	for _, alt := range t.chains[first.Backend] {
		if alt != first.ID {
			out = append(out, t.Lookup(alt))
		}
	}
	if first.Backend == BackendHuggingFace {
		out = append(out, t.Lookup(DefaultGeminiModel))
	}
	return out
}
