package model

import "time"

type AgentStatus string

const (
	StatusPending    AgentStatus = "pending"
	StatusProcessing AgentStatus = "processing"
	StatusCompleted  AgentStatus = "completed"
	StatusError      AgentStatus = "error"
)

// AgentRunRecord describes one agent invocation. Only the orchestrator
// creates these.
type AgentRunRecord struct {
	Agent     string      `json:"agent"`
	Status    AgentStatus `json:"status"`
	StartTime time.Time   `json:"startTime"`
	EndTime   time.Time   `json:"endTime"`
	Output    string      `json:"output,omitempty"`
}

// ProgressFunc is called with (agent, processing, "") before every agent
// and with completed/error plus detail right after it.
type ProgressFunc func(agent string, status AgentStatus, output string)

// TokenSink receives streamed model tokens.
//
// Push is called synchronously by the producing call, in generation order
// for that producer. Agents streaming at the same time interleave in no
// particular order, which is why every token carries its agent name.
type TokenSink interface {
	Push(agent, token string)
}

// TokenSinkFunc adapts a function to TokenSink.
type TokenSinkFunc func(agent, token string)

func (f TokenSinkFunc) Push(agent, token string) { f(agent, token) }

type Flow string

const (
	FlowInitial  Flow = "initial_plan"
	FlowFollowUp Flow = "follow_up"
)

type RequestOptions struct {
	WebSearchEnabled bool
	// ReasoningEnabled defaults to true when nil.
	ReasoningEnabled *bool
	UserPreferences  *UserPreferences
}

// Reasoning reports whether token streaming and diagnostic detail are forwarded.
func (o RequestOptions) Reasoning() bool {
	return o.ReasoningEnabled == nil || *o.ReasoningEnabled
}

// Request is the input of one pipeline run.
type Request struct {
	Message        string
	History        []ChatTurn
	OnProgress     ProgressFunc
	OnToken        TokenSink
	ModelSelection map[string]string
	Options        RequestOptions
	// UserID keys interaction memory; empty uses the configured default.
	UserID string
}

type AgentResponse struct {
	Message          string          `json:"message"`
	MealPlan         *MealPlan       `json:"mealPlan,omitempty"`
	SearchResults    []SearchResult  `json:"searchResults,omitempty"`
	SearchQuery      string          `json:"searchQuery,omitempty"`
	TaskAnalysis     *TaskAnalysis   `json:"taskAnalysis,omitempty"`
	RetrievedContext []string        `json:"retrievedContext,omitempty"`
	Query            string          `json:"query"`
	PlanType         PlanType        `json:"type"`
	Meals            []MealCandidate `json:"meals"`
	ChatHistory      []ChatTurn      `json:"chatHistory"`

	FactCheckingReasoning string        `json:"factCheckingReasoning,omitempty"`
	FactCheckedMeals      []CheckedMeal `json:"factCheckedMeals,omitempty"`
	RAGReasoning          string        `json:"ragReasoning,omitempty"`
	PlanningReasoning     string        `json:"planningReasoning,omitempty"`
	ContentReasoning      string        `json:"contentReasoning,omitempty"`
	ChatReasoning         string        `json:"chatReasoning,omitempty"`
	UISuggestions         string        `json:"uiSuggestions,omitempty"`

	Flow         Flow             `json:"flow"`
	Runs         []AgentRunRecord `json:"runs"`
	TotalCostUSD float64          `json:"totalCostUsd"`
}

// GenerateOptions configures one Model Gateway call.
type GenerateOptions struct {
	Temperature float32
	// ModelID empty means the gateway's default model.
	ModelID string
	// OnToken receives incremental text when set.
	OnToken func(token string)
	// NoDegrade makes an exhausted fallback chain return an error instead
	// of the degraded-service message, for callers with their own fallback.
	NoDegrade bool
	Usage     *UsageTracker
}
