package model

import (
	"sync"

	"github.com/cloudwego/eino/schema"
)

// Pricing defines USD cost per 1M tokens for input/output.
type Pricing struct {
	InputPerM  float64
	OutputPerM float64
}

// defaultPricing provides hardcoded USD pricing per 1M tokens (text tokens).
// Hugging Face router models are billed per provider and are left at zero.
var defaultPricing = map[string]Pricing{
	"gemini-2.0-flash-lite": {InputPerM: 0.075, OutputPerM: 0.30},
	"gemini-2.0-flash":      {InputPerM: 0.10, OutputPerM: 0.40},
	"gemini-2.5-flash":      {InputPerM: 0.30, OutputPerM: 2.50},
	"gemini-2.5-flash-lite": {InputPerM: 0.10, OutputPerM: 0.40},
}

// ResolvePricing returns hardcoded pricing for a model, zero when unknown.
func ResolvePricing(model string) Pricing {
	return defaultPricing[model]
}

// ComputeCost converts token usage to USD cost using per-1M Pricing.
func ComputeCost(usage *schema.TokenUsage, p Pricing) (inputCost, outputCost, total float64) {
	if usage == nil {
		return 0, 0, 0
	}
	inputCost = p.InputPerM * float64(usage.PromptTokens) / 1_000_000.0
	outputCost = p.OutputPerM * float64(usage.CompletionTokens) / 1_000_000.0
	total = inputCost + outputCost
	return
}

// UsageTracker accumulates model cost for one pipeline run. It is shared by
// agents running in parallel, so all access is locked.
type UsageTracker struct {
	mu       sync.Mutex
	totalUSD float64
	tokens   int
}

// Add records usage for modelName and returns the cost of this call.
func (u *UsageTracker) Add(modelName string, usage *schema.TokenUsage) float64 {
	if u == nil || usage == nil {
		return 0
	}
	_, _, total := ComputeCost(usage, ResolvePricing(modelName))
	u.mu.Lock()
	u.totalUSD += total
	u.tokens += usage.TotalTokens
	u.mu.Unlock()
	return total
}

func (u *UsageTracker) TotalUSD() float64 {
	if u == nil {
		return 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.totalUSD
}

func (u *UsageTracker) TotalTokens() int {
	if u == nil {
		return 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.tokens
}
