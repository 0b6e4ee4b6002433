package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"golang.org/x/sync/errgroup"

	"github.com/Chative-mealplan/server/internal/agent/graph/agents"
	"github.com/Chative-mealplan/server/internal/agent/model"
)

const (
	NodeFactCheckAndRAG = "FactCheckAndRAG"
	NodePlanner         = "ReasoningPlanner"
	NodeContentWriter   = "ContentWriter"
	NodeManagement      = "ManagementAgent"
	NodeSearch          = "SearchAgent"
	NodeRecommendation  = "RecommendationAgent"
	NodeChat            = "ChatProcessor"
	NodeUXUI            = "UXUIDesigner"
)

// RecommendationOutput is the diagnostic of the recommendation sub-step.
const RecommendationOutput = "Đã đề xuất các món thay thế phù hợp."

// NewAgentNode wraps a required agent.
func NewAgentNode(a agents.Agent) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in *model.PipelineState) (*model.PipelineState, error) {
		run, err := RunFrom(ctx)
		if err != nil {
			return nil, err
		}
		return run.Step(ctx, a, a.Name(), run.Agents, in, a.Diagnostic)
	})
}

// NewOptionalAgentNode wraps an agent whose failure is reported but leaves
// the state as it was.
func NewOptionalAgentNode(a agents.Agent) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in *model.PipelineState) (*model.PipelineState, error) {
		run, err := RunFrom(ctx)
		if err != nil {
			return nil, err
		}
		return run.OptionalStep(ctx, a, run.Agents, in)
	})
}

// NewRecommendationNode runs the chat agent as the recommendation sub-step
// of a replace request.
func NewRecommendationNode(chat agents.Agent) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in *model.PipelineState) (*model.PipelineState, error) {
		run, err := RunFrom(ctx)
		if err != nil {
			return nil, err
		}
		var foodType string
		if in.TaskAnalysis != nil {
			foodType = in.TaskAnalysis.FoodType
		}
		return run.Step(ctx, chat, model.AgentRecommendation, run.Agents.AsRecommendation(foodType), in,
			func(*model.PipelineState) string { return RecommendationOutput })
	})
}

// NewFactCheckAndRAGNode runs the fact checker and the RAG processor at the
// same time on clones of the same input, then merges their owned fields.
// The first failure cancels the other and fails the step.
func NewFactCheckAndRAGNode(factChecker, rag agents.Agent) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in *model.PipelineState) (*model.PipelineState, error) {
		run, err := RunFrom(ctx)
		if err != nil {
			return nil, err
		}

		var checked, retrieved *model.PipelineState
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			out, err := run.Step(gctx, factChecker, factChecker.Name(), run.Agents, in.Clone(), factChecker.Diagnostic)
			checked = out
			return err
		})
		g.Go(func() error {
			out, err := run.Step(gctx, rag, rag.Name(), run.Agents, in.Clone(), rag.Diagnostic)
			retrieved = out
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		merged := in.Clone()
		merged.FactCheck = checked.FactCheck
		merged.RAG = retrieved.RAG
		return merged, nil
	})
}

// NewFlowCondition routes the start of the graph by the run's flow.
func NewFlowCondition() func(context.Context, *model.PipelineState) (string, error) {
	return func(ctx context.Context, _ *model.PipelineState) (string, error) {
		run, err := RunFrom(ctx)
		if err != nil {
			return "", err
		}
		switch run.Flow {
		case model.FlowInitial:
			return NodeFactCheckAndRAG, nil
		case model.FlowFollowUp:
			return NodeManagement, nil
		}
		return "", fmt.Errorf("unknown flow %q", run.Flow)
	}
}

// NewTaskCondition routes a follow-up by the management agent's task type.
func NewTaskCondition() func(context.Context, *model.PipelineState) (string, error) {
	return func(_ context.Context, s *model.PipelineState) (string, error) {
		if s.TaskAnalysis == nil {
			return NodeChat, nil
		}
		switch s.TaskAnalysis.TaskType {
		case model.TaskSearchInfo:
			return NodeSearch, nil
		case model.TaskReplaceMeal:
			return NodeRecommendation, nil
		}
		return NodeChat, nil
	}
}
