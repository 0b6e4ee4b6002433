package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/Chative-mealplan/server/internal/agent/cache"
	"github.com/Chative-mealplan/server/internal/agent/catalog"
	"github.com/Chative-mealplan/server/internal/agent/gateway"
	"github.com/Chative-mealplan/server/internal/agent/graph/agents"
	"github.com/Chative-mealplan/server/internal/agent/graph/nodes"
	"github.com/Chative-mealplan/server/internal/agent/model"
	"github.com/Chative-mealplan/server/internal/agent/repo"
	"github.com/Chative-mealplan/server/internal/agent/retrieval"
	logx "github.com/Chative-mealplan/server/pkg/logger"
)

// Config holds everything needed to compose the pipeline end-to-end.
// This is a convenience layer over Deps that also constructs the gateway,
// the cache and the agents.
type Config struct {
	Gateway   model.GatewayConfig
	Cache     model.CacheConfig
	Catalog   model.CatalogConfig
	Retrieval model.RetrievalConfig
	Memory    model.MemoryConfig

	// InteractionRepo defaults to an in-process store.
	InteractionRepo model.InteractionRepository
	// Documents defaults to an empty store with nothing selected.
	Documents *retrieval.Store
	// WebSearcher is optional.
	WebSearcher agents.WebSearcher
}

// Agents are the processing units wired into the graph.
type Agents struct {
	Management  agents.Agent
	Search      agents.Agent
	RAG         agents.Agent
	FactChecker agents.Agent
	Planner     agents.Agent
	Writer      agents.Agent
	Chat        agents.Agent
	UXUI        agents.Agent
}

// NewAgents builds the default agents on one generator and one cache.
func NewAgents(gen agents.Generator, c *cache.Cache, web agents.WebSearcher) Agents {
	return Agents{
		Management:  agents.NewManagementAgent(),
		Search:      agents.NewSearchAgent(),
		RAG:         agents.NewRAGProcessor(gen, c, web),
		FactChecker: agents.NewFactChecker(gen, c),
		Planner:     agents.NewReasoningPlanner(gen),
		Writer:      agents.NewContentWriter(gen),
		Chat:        agents.NewChatProcessor(gen),
		UXUI:        agents.NewUXUIDesigner(gen, c),
	}
}

func (a Agents) validate() error {
	for name, ag := range map[string]agents.Agent{
		"management": a.Management, "search": a.Search, "rag": a.RAG, "fact checker": a.FactChecker,
		"planner": a.Planner, "writer": a.Writer, "chat": a.Chat, "uxui": a.UXUI,
	} {
		if ag == nil {
			return fmt.Errorf("%s agent is nil", name)
		}
	}
	return nil
}

// BuildPipeline composes the gateway, cache, catalog loader and agents,
// builds the graph, and returns an Orchestrator.
func BuildPipeline(ctx context.Context, cfg Config) (*Orchestrator, error) {
	docs := cfg.Documents
	if docs == nil {
		docs = retrieval.NewStore(cfg.Retrieval.ChunkSize)
	}
	interactions := cfg.InteractionRepo
	if interactions == nil {
		interactions = repo.NewMemoryInteractionRepository()
	}

	gw := gateway.New(cfg.Gateway)
	c := cache.NewFromConfig(cfg.Cache)

	orch, err := New(ctx, Deps{
		Agents:        NewAgents(gw, c, cfg.WebSearcher),
		Catalog:       catalog.NewLoader(cfg.Catalog),
		Documents:     docs,
		Interactions:  interactions,
		MaxResults:    cfg.Retrieval.MaxResults,
		DefaultUserID: cfg.Memory.DefaultUserID,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Pipeline built successfully")
	return orch, nil
}

// GraphBuilder handles the construction of the agent graph.
type GraphBuilder struct {
	agents Agents
	graph  *compose.Graph[*model.PipelineState, *model.PipelineState]
	errs   []error
}

// BuildGraph constructs and returns the compiled agent graph. Both flows
// live in one graph; the start branch picks one per run.
func BuildGraph(ctx context.Context, a Agents) (compose.Runnable[*model.PipelineState, *model.PipelineState], error) {
	if err := a.validate(); err != nil {
		return nil, err
	}

	b := &GraphBuilder{
		agents: a,
		graph:  compose.NewGraph[*model.PipelineState, *model.PipelineState](),
	}
	b.addNodes()
	b.addEdges()
	b.addBranches()
	if err := errors.Join(b.errs...); err != nil {
		logx.Error().Err(err).Msg("Error assembling graph")
		return nil, fmt.Errorf("error assembling graph: %w", err)
	}
	return b.compile(ctx)
}

func (b *GraphBuilder) check(err error) {
	if err != nil {
		b.errs = append(b.errs, err)
	}
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() {
	a := b.agents
	b.check(b.graph.AddLambdaNode(nodes.NodeFactCheckAndRAG, nodes.NewFactCheckAndRAGNode(a.FactChecker, a.RAG)))
	b.check(b.graph.AddLambdaNode(nodes.NodePlanner, nodes.NewAgentNode(a.Planner)))
	b.check(b.graph.AddLambdaNode(nodes.NodeContentWriter, nodes.NewAgentNode(a.Writer)))
	b.check(b.graph.AddLambdaNode(nodes.NodeManagement, nodes.NewAgentNode(a.Management)))
	b.check(b.graph.AddLambdaNode(nodes.NodeSearch, nodes.NewAgentNode(a.Search)))
	b.check(b.graph.AddLambdaNode(nodes.NodeRecommendation, nodes.NewRecommendationNode(a.Chat)))
	b.check(b.graph.AddLambdaNode(nodes.NodeChat, nodes.NewAgentNode(a.Chat)))
	b.check(b.graph.AddLambdaNode(nodes.NodeUXUI, nodes.NewOptionalAgentNode(a.UXUI)))
}

// addEdges creates the fixed connections of both flows
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{nodes.NodeFactCheckAndRAG, nodes.NodePlanner},
		{nodes.NodePlanner, nodes.NodeContentWriter},
		{nodes.NodeContentWriter, nodes.NodeUXUI},
		{nodes.NodeSearch, nodes.NodeChat},
		{nodes.NodeRecommendation, nodes.NodeChat},
		{nodes.NodeChat, nodes.NodeUXUI},
		{nodes.NodeUXUI, compose.END},
	}
	for _, edge := range edges {
		b.check(b.graph.AddEdge(edge[0], edge[1]))
	}
}

// addBranches creates the flow and task routing branches
func (b *GraphBuilder) addBranches() {
	flowBranch := compose.NewGraphBranch(
		nodes.NewFlowCondition(),
		map[string]bool{
			nodes.NodeFactCheckAndRAG: true,
			nodes.NodeManagement:      true,
		},
	)
	if err := b.graph.AddBranch(compose.START, flowBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding flow branch")
		b.check(fmt.Errorf("error adding flow branch: %w", err))
	}

	taskBranch := compose.NewGraphBranch(
		nodes.NewTaskCondition(),
		map[string]bool{
			nodes.NodeSearch:         true,
			nodes.NodeRecommendation: true,
			nodes.NodeChat:           true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeManagement, taskBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding task branch")
		b.check(fmt.Errorf("error adding task branch: %w", err))
	}
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[*model.PipelineState, *model.PipelineState], error) {
	runnable, err := b.graph.Compile(ctx,
		compose.WithGraphName("mealplan"),
		compose.WithMaxRunSteps(20),
	)
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
