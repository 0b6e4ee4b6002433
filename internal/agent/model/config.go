package model

import "time"

// ================ Config ================

// GatewayConfig configures both model-serving backends.
type GatewayConfig struct {
	GeminiAPIKey      string        `envconfig:"GEMINI_API_KEY"`
	GeminiBaseURL     string        `envconfig:"GEMINI_BASE_URL"`
	HFToken           string        `envconfig:"HF_TOKEN"`
	HFBaseURL         string        `envconfig:"HF_BASE_URL" default:"https://router.huggingface.co/v1"`
	CallTimeout       time.Duration `envconfig:"GATEWAY_CALL_TIMEOUT" default:"60s"`
	MaxTokens         int           `envconfig:"GATEWAY_MAX_TOKENS" default:"1024"`
	DegradedMessage   string        `envconfig:"GATEWAY_DEGRADED_MESSAGE"`
	ExtraGeminiModels []string      `envconfig:"GATEWAY_EXTRA_GEMINI_MODELS"`
}

// CacheConfig bounds each result-cache namespace.
type CacheConfig struct {
	RAGMaxEntries   int           `envconfig:"CACHE_RAG_MAX_ENTRIES" default:"100"`
	FactsMaxEntries int           `envconfig:"CACHE_FACTS_MAX_ENTRIES" default:"100"`
	UIMaxEntries    int           `envconfig:"CACHE_UI_MAX_ENTRIES" default:"100"`
	TTL             time.Duration `envconfig:"CACHE_TTL" default:"1h"`
}

// CatalogConfig selects where the meal catalog is loaded from.
// An empty Source means the embedded sample catalog.
type CatalogConfig struct {
	Source       string        `envconfig:"CATALOG_SOURCE"`
	FetchTimeout time.Duration `envconfig:"CATALOG_FETCH_TIMEOUT" default:"10s"`
}

type RetrievalConfig struct {
	MaxResults int `envconfig:"RETRIEVAL_MAX_RESULTS" default:"3"`
	ChunkSize  int `envconfig:"RETRIEVAL_CHUNK_SIZE" default:"1000"`
}

type MemoryConfig struct {
	TTL           time.Duration `envconfig:"MEMORY_TTL" default:"24h"`
	DefaultUserID string        `envconfig:"MEMORY_USER_ID" default:"user1"`
}
