package model

import "time"

// Agent names as reported to progress callbacks and used as keys of
// per-run model selection.
const (
	AgentManagement     = "ManagementAgent"
	AgentSearch         = "SearchAgent"
	AgentRAG            = "RAGProcessor"
	AgentFactChecker    = "FactChecker"
	AgentPlanner        = "ReasoningPlanner"
	AgentContentWriter  = "ContentWriter"
	AgentChat           = "ChatProcessor"
	AgentRecommendation = "RecommendationAgent"
	AgentUXUI           = "UXUIDesigner"
)

type TaskType string

const (
	TaskReplaceMeal TaskType = "replace_meal"
	TaskSearchInfo  TaskType = "search_info"
	TaskUnknown     TaskType = "unknown"
)

type TaskAnalysis struct {
	TaskType             TaskType `json:"taskType"`
	FoodType             string   `json:"foodType"`
	RequiresConfirmation bool     `json:"requiresConfirmation"`
	// SuggestedResponse is empty when no confirmation question applies.
	SuggestedResponse string `json:"suggestedResponse,omitempty"`
}

type SearchDetails struct {
	Meal            MealCandidate `json:"meal"`
	Relevance       string        `json:"relevance,omitempty"`
	AdditionalInfo  string        `json:"additionalInfo,omitempty"`
	HealthBenefits  []string      `json:"healthBenefits,omitempty"`
	PopularVariants []string      `json:"popularVariants,omitempty"`
	CookingTips     []string      `json:"cookingTips,omitempty"`
}

type SearchResult struct {
	Name    string        `json:"name"`
	Details SearchDetails `json:"details"`
}

// CheckedMeal is the provenance attached to one catalog dish.
type CheckedMeal struct {
	Name        string `json:"name"`
	FactChecked bool   `json:"factChecked"`
	Source      string `json:"source"`
}

type FactCheckResult struct {
	Reasoning string        `json:"reasoning"`
	Meals     []CheckedMeal `json:"meals"`
	CheckedAt time.Time     `json:"checkedAt"`
}

type RAGResult struct {
	Reasoning   string    `json:"reasoning"`
	Context     []string  `json:"context"`
	RetrievedAt time.Time `json:"retrievedAt"`
}

// PipelineState is the record threaded through every agent of one run.
//
// The first block is set once by the orchestrator and is read-only for
// agents. Every field below it has exactly one owner (two for MealPlan and
// Message) noted on the field; an agent returns a Clone with only its own
// fields changed.
type PipelineState struct {
	Query            string
	PlanType         PlanType
	Catalog          []MealCandidate
	History          []ChatTurn
	RetrievedContext []string

	MealPlan      *MealPlan        // ReasoningPlanner, ChatProcessor
	Message       string           // ContentWriter, ChatProcessor
	TaskAnalysis  *TaskAnalysis    // ManagementAgent
	SearchResults []SearchResult   // SearchAgent
	SearchQuery   string           // SearchAgent
	FactCheck     *FactCheckResult // FactChecker
	RAG           *RAGResult       // RAGProcessor

	PlanningReasoning string // ReasoningPlanner
	ContentReasoning  string // ContentWriter
	ChatReasoning     string // ChatProcessor
	UISuggestions     string // UXUIDesigner
}

func NewPipelineState(query string, planType PlanType, catalog []MealCandidate, history []ChatTurn, retrieved []string) *PipelineState {
	return &PipelineState{
		Query:            query,
		PlanType:         planType,
		Catalog:          catalog,
		History:          history,
		RetrievedContext: retrieved,
	}
}

// Clone returns a shallow copy. Slices and pointers are shared, so callers
// replace owned values instead of mutating them.
func (s *PipelineState) Clone() *PipelineState {
	c := *s
	return &c
}
