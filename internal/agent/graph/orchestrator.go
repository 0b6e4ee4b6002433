package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"

	"github.com/Chative-mealplan/server/internal/agent/graph/agents"
	"github.com/Chative-mealplan/server/internal/agent/graph/conversations"
	"github.com/Chative-mealplan/server/internal/agent/graph/nodes"
	"github.com/Chative-mealplan/server/internal/agent/graph/observers"
	"github.com/Chative-mealplan/server/internal/agent/graph/tools"
	"github.com/Chative-mealplan/server/internal/agent/model"
	logx "github.com/Chative-mealplan/server/pkg/logger"
	"github.com/Chative-mealplan/server/pkg/metrics"
)

// Stage is the state of one pipeline run.
type Stage int

const (
	StageIdle Stage = iota
	StageRetrievingContext
	StageInitialPlanFlow
	StageFollowUpFlow
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageRetrievingContext:
		return "retrieving_context"
	case StageInitialPlanFlow:
		return "initial_plan_flow"
	case StageFollowUpFlow:
		return "follow_up_flow"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	}
	return "unknown"
}

// CatalogSource loads the meal catalog. It must not fail; an unavailable
// catalog is empty.
type CatalogSource interface {
	Load(ctx context.Context) []model.MealCandidate
}

// ContextRetriever ranks passages of the selected documents.
type ContextRetriever interface {
	RetrieveContext(query string, maxResults int) []string
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Agents        Agents
	Catalog       CatalogSource
	Documents     ContextRetriever
	Interactions  model.InteractionRepository
	MaxResults    int
	DefaultUserID string
}

// Orchestrator runs one request through the agent graph. It is safe for
// concurrent use; runs share nothing but the agents' caches.
type Orchestrator struct {
	runnable      compose.Runnable[*model.PipelineState, *model.PipelineState]
	catalog       CatalogSource
	docs          ContextRetriever
	interactions  model.InteractionRepository
	maxResults    int
	defaultUserID string
	newRunID      func() string
}

func New(ctx context.Context, d Deps) (*Orchestrator, error) {
	if d.Catalog == nil {
		return nil, errors.New("catalog source is nil")
	}
	if d.Documents == nil {
		return nil, errors.New("context retriever is nil")
	}
	runnable, err := BuildGraph(ctx, d.Agents)
	if err != nil {
		return nil, err
	}
	o := &Orchestrator{
		runnable:      runnable,
		catalog:       d.Catalog,
		docs:          d.Documents,
		interactions:  d.Interactions,
		maxResults:    d.MaxResults,
		defaultUserID: d.DefaultUserID,
		newRunID:      uuid.NewString,
	}
	if o.maxResults <= 0 {
		o.maxResults = 3
	}
	if o.defaultUserID == "" {
		o.defaultUserID = "user1"
	}
	return o, nil
}

var (
	dailyKeywords  = []string{"theo ngày"}
	weeklyKeywords = []string{"theo tuần"}
)

// ClassifyPlanType picks weekly for "theo tuần" and daily otherwise.
func ClassifyPlanType(message string) model.PlanType {
	if containsAny(tools.Normalize(message), weeklyKeywords) {
		return model.PlanWeekly
	}
	return model.PlanDaily
}

// ClassifyFlow starts a new plan for short conversations or when the
// message asks for a daily or weekly menu.
func ClassifyFlow(message string, history []model.ChatTurn) model.Flow {
	q := tools.Normalize(message)
	if len(history) <= 2 || containsAny(q, dailyKeywords) || containsAny(q, weeklyKeywords) {
		return model.FlowInitial
	}
	return model.FlowFollowUp
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// ProcessUserMessage runs the pipeline for one message. A failed required
// step is reported through req.OnProgress and returned as *errx.AgentError;
// no partial response is returned.
func (o *Orchestrator) ProcessUserMessage(ctx context.Context, req model.Request) (*model.AgentResponse, error) {
	runID := o.newRunID()
	stage := StageIdle
	transition := func(next Stage) {
		logx.Debug().Str("run_id", runID).Str("from", stage.String()).Str("to", next.String()).Msg("pipeline stage")
		stage = next
	}

	history := conversations.FilterThinking(req.History)
	planType := ClassifyPlanType(req.Message)
	flow := ClassifyFlow(req.Message, history)

	transition(StageRetrievingContext)
	meals := o.catalog.Load(ctx)
	retrieved := o.docs.RetrieveContext(req.Message, o.maxResults)
	state := model.NewPipelineState(req.Message, planType, meals, history, retrieved)

	reasoning := req.Options.Reasoning()
	usage := &model.UsageTracker{}
	rc := &agents.RunContext{
		RunID:            runID,
		Models:           req.ModelSelection,
		WebSearchEnabled: req.Options.WebSearchEnabled,
		Preferences:      req.Options.UserPreferences,
		Usage:            usage,
	}
	if reasoning {
		rc.Sink = req.OnToken
	}
	run := nodes.NewRun(runID, flow, rc, reasoning, req.OnProgress)

	if flow == model.FlowInitial {
		transition(StageInitialPlanFlow)
	} else {
		transition(StageFollowUpFlow)
	}
	logx.Info().Str("run_id", runID).Str("flow", string(flow)).Str("plan_type", string(planType)).
		Int("meals", len(meals)).Int("passages", len(retrieved)).Msg("Processing user message")

	out, err := o.runnable.Invoke(nodes.WithRun(ctx, run), state, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		transition(StageFailed)
		metrics.PipelineRuns.WithLabelValues(string(flow), "error").Inc()
		if failure := run.Failure(); failure != nil {
			logx.Error().Err(failure).Str("run_id", runID).Str("agent", failure.Agent).Msg("Pipeline failed")
			return nil, failure
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logx.Error().Err(err).Str("run_id", runID).Msg("Pipeline failed")
		return nil, fmt.Errorf("run pipeline: %w", err)
	}
	transition(StageDone)
	metrics.PipelineRuns.WithLabelValues(string(flow), "completed").Inc()

	o.remember(ctx, runID, req.UserID, out)

	resp := buildResponse(out, req.History, flow)
	resp.Runs = run.Records()
	resp.TotalCostUSD = usage.TotalUSD()
	return resp, nil
}

// remember saves the interaction. Failures are logged only.
func (o *Orchestrator) remember(ctx context.Context, runID, userID string, s *model.PipelineState) {
	if o.interactions == nil {
		return
	}
	if userID == "" {
		userID = o.defaultUserID
	}
	err := o.interactions.Save(ctx, userID, model.Interaction{
		Timestamp: time.Now(),
		Query:     s.Query,
		Response:  s.Message,
		MealPlan:  s.MealPlan,
	})
	if err != nil {
		logx.Warn().Err(err).Str("run_id", runID).Str("user_id", userID).Msg("Failed to save interaction")
	}
}

func buildResponse(s *model.PipelineState, history []model.ChatTurn, flow model.Flow) *model.AgentResponse {
	resp := &model.AgentResponse{
		Message:           s.Message,
		MealPlan:          s.MealPlan,
		SearchResults:     s.SearchResults,
		SearchQuery:       s.SearchQuery,
		TaskAnalysis:      s.TaskAnalysis,
		RetrievedContext:  s.RetrievedContext,
		Query:             s.Query,
		PlanType:          s.PlanType,
		Meals:             s.Catalog,
		ChatHistory:       history,
		PlanningReasoning: s.PlanningReasoning,
		ContentReasoning:  s.ContentReasoning,
		ChatReasoning:     s.ChatReasoning,
		UISuggestions:     s.UISuggestions,
		Flow:              flow,
	}
	if s.FactCheck != nil {
		resp.FactCheckingReasoning = s.FactCheck.Reasoning
		resp.FactCheckedMeals = s.FactCheck.Meals
	}
	if s.RAG != nil {
		resp.RAGReasoning = s.RAG.Reasoning
	}
	return resp
}
