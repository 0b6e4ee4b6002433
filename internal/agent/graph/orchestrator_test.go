package graph

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Chative-mealplan/server/internal/agent/cache"
	"github.com/Chative-mealplan/server/internal/agent/graph/agents"
	"github.com/Chative-mealplan/server/internal/agent/graph/nodes"
	"github.com/Chative-mealplan/server/internal/agent/model"
	"github.com/Chative-mealplan/server/internal/agent/repo"
	"github.com/Chative-mealplan/server/internal/agent/retrieval"
	errx "github.com/Chative-mealplan/server/internal/core/error"
	logx "github.com/Chative-mealplan/server/pkg/logger"
)

func TestMain(m *testing.M) {
	logx.Disable()
	os.Exit(m.Run())
}

type echoGen struct{ reply string }

func (g echoGen) Generate(ctx context.Context, _ string, opts model.GenerateOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if opts.OnToken != nil {
		for _, tok := range strings.Fields(g.reply) {
			opts.OnToken(tok)
		}
	}
	return g.reply, nil
}

type staticCatalog []model.MealCandidate

func (c staticCatalog) Load(context.Context) []model.MealCandidate { return c }

var sampleMeals = staticCatalog{
	{Name: "Phở Gà", Ingredients: []string{"Thịt gà", "Bánh phở"}, Nutrition: model.Nutrition{Calories: 450}},
	{Name: "Bún Chả", Ingredients: []string{"Thịt lợn", "Bún"}, Nutrition: model.Nutrition{Calories: 550}},
	{Name: "Cơm Tấm Sườn Nướng", Ingredients: []string{"Sườn lợn", "Gạo tấm"}, Nutrition: model.Nutrition{Calories: 650}},
	{Name: "Bánh Mì Thịt Nướng", Ingredients: []string{"Bánh mì", "Thịt lợn"}, Nutrition: model.Nutrition{Calories: 500}},
	{Name: "Canh Chua Cá Lóc", Ingredients: []string{"Cá lóc", "Cà chua"}, Nutrition: model.Nutrition{Calories: 300}},
	{Name: "Gỏi Cuốn Tôm Thịt", Ingredients: []string{"Tôm", "Rau sống"}, Nutrition: model.Nutrition{Calories: 250}},
	{Name: "Cháo Gà", Ingredients: []string{"Gạo", "Thịt gà"}, Nutrition: model.Nutrition{Calories: 350}},
}

type event struct {
	agent  string
	status model.AgentStatus
	output string
}

type progressLog struct {
	mu     sync.Mutex
	events []event
}

func (p *progressLog) record(agent string, status model.AgentStatus, output string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event{agent, status, output})
}

func (p *progressLog) agents(status model.AgentStatus) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		if e.status == status {
			out = append(out, e.agent)
		}
	}
	return out
}

func (p *progressLog) find(agent string, status model.AgentStatus) (event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.events {
		if e.agent == agent && e.status == status {
			return e, true
		}
	}
	return event{}, false
}

func defaultAgents(reply string) Agents {
	return NewAgents(echoGen{reply: reply}, cache.NewFromConfig(model.CacheConfig{}), nil)
}

func newOrchestrator(t *testing.T, a Agents, interactions model.InteractionRepository) *Orchestrator {
	t.Helper()
	o, err := New(context.Background(), Deps{
		Agents:       a,
		Catalog:      sampleMeals,
		Documents:    retrieval.NewStore(0),
		Interactions: interactions,
	})
	require.NoError(t, err)
	return o
}

func turns(n int) []model.ChatTurn {
	out := make([]model.ChatTurn, 0, n)
	for i := range n {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		out = append(out, model.ChatTurn{Role: role, Content: "tin nhắn"})
	}
	return out
}

// countingAgent counts invocations of the wrapped agent.
type countingAgent struct {
	agents.Agent
	calls atomic.Int32
}

func (c *countingAgent) Process(ctx context.Context, s *model.PipelineState, rc *agents.RunContext) (*model.PipelineState, error) {
	c.calls.Add(1)
	return c.Agent.Process(ctx, s, rc)
}

// failingAgent always fails with err.
type failingAgent struct {
	name string
	err  error
}

func (f failingAgent) Name() string { return f.name }

func (f failingAgent) Process(context.Context, *model.PipelineState, *agents.RunContext) (*model.PipelineState, error) {
	return nil, f.err
}

func (f failingAgent) Diagnostic(*model.PipelineState) string { return "" }

func TestOrchestrator_DailyPlanEndToEnd(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	interactions := repo.NewMemoryInteractionRepository()
	o := newOrchestrator(t, defaultAgents("Thực đơn hôm nay rất ngon"), interactions)
	progress := &progressLog{}

	resp, err := o.ProcessUserMessage(context.Background(), model.Request{
		Message:    "Thực đơn theo ngày",
		OnProgress: progress.record,
	})
	require.NoError(t, err)

	assert.Equal(t, model.FlowInitial, resp.Flow)
	assert.Equal(t, model.PlanDaily, resp.PlanType)
	require.NotNil(t, resp.MealPlan)
	require.Len(t, resp.MealPlan.Days, 1)
	meals := resp.MealPlan.Days[0].Meals
	for _, slot := range [][]model.MealCandidate{meals.Breakfast, meals.Lunch, meals.Dinner} {
		require.Len(t, slot, 2)
		for _, m := range slot {
			assert.Contains(t, []model.MealCandidate(sampleMeals), m)
		}
	}
	assert.NotEmpty(t, resp.Message)
	assert.Len(t, resp.FactCheckedMeals, len(sampleMeals))
	assert.NotEmpty(t, resp.RAGReasoning)
	assert.NotEmpty(t, resp.UISuggestions)

	completed := progress.agents(model.StatusCompleted)
	require.Len(t, completed, 5)
	assert.ElementsMatch(t, []string{model.AgentFactChecker, model.AgentRAG}, completed[:2])
	assert.Equal(t, []string{model.AgentPlanner, model.AgentContentWriter, model.AgentUXUI}, completed[2:])
	assert.Len(t, resp.Runs, 5)

	n, err := interactions.Count(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOrchestrator_WeeklyKeywordStartsNewPlan(t *testing.T) {
	o := newOrchestrator(t, defaultAgents("ok"), nil)
	resp, err := o.ProcessUserMessage(context.Background(), model.Request{
		Message: "Lập thực đơn theo tuần cho tôi",
		History: turns(1),
	})
	require.NoError(t, err)
	assert.Equal(t, model.FlowInitial, resp.Flow)
	require.NotNil(t, resp.MealPlan)
	assert.Len(t, resp.MealPlan.Days, 7)
}

func TestOrchestrator_FollowUpNeverPlans(t *testing.T) {
	a := defaultAgents("Phở gà rất bổ dưỡng")
	planner := &countingAgent{Agent: a.Planner}
	a.Planner = planner
	o := newOrchestrator(t, a, nil)
	progress := &progressLog{}

	resp, err := o.ProcessUserMessage(context.Background(), model.Request{
		Message:    "Cho tôi thông tin về Phở Gà",
		History:    turns(5),
		OnProgress: progress.record,
	})
	require.NoError(t, err)

	assert.Equal(t, model.FlowFollowUp, resp.Flow)
	assert.Zero(t, planner.calls.Load())
	assert.Equal(t, []string{model.AgentManagement, model.AgentSearch, model.AgentChat, model.AgentUXUI},
		progress.agents(model.StatusCompleted))
	require.NotNil(t, resp.TaskAnalysis)
	assert.Equal(t, model.TaskSearchInfo, resp.TaskAnalysis.TaskType)
	require.Len(t, resp.SearchResults, 1)
	assert.Equal(t, "Phở Gà", resp.SearchQuery)
	assert.Equal(t, "Phở gà rất bổ dưỡng", resp.Message)
}

func TestOrchestrator_ReplaceRunsRecommendationStep(t *testing.T) {
	o := newOrchestrator(t, defaultAgents("Đây là món thay thế"), nil)
	progress := &progressLog{}

	resp, err := o.ProcessUserMessage(context.Background(), model.Request{
		Message:    "Tôi không thích món cá này, đổi món khác",
		History:    turns(5),
		OnProgress: progress.record,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{model.AgentManagement, model.AgentRecommendation, model.AgentChat, model.AgentUXUI},
		progress.agents(model.StatusCompleted))
	rec, ok := progress.find(model.AgentRecommendation, model.StatusCompleted)
	require.True(t, ok)
	assert.Equal(t, nodes.RecommendationOutput, rec.output)
	assert.Equal(t, "cá", resp.TaskAnalysis.FoodType)
	require.NotNil(t, resp.MealPlan)
}

// barrierAgent blocks until its peer has also started, and checks at call
// time that the peer's field is not visible in its input.
type barrierAgent struct {
	agents.Agent
	arrive  *sync.WaitGroup
	foreign func(*model.PipelineState) bool
	saw     atomic.Bool
	timeout atomic.Bool
}

func (b *barrierAgent) Process(ctx context.Context, s *model.PipelineState, rc *agents.RunContext) (*model.PipelineState, error) {
	b.saw.Store(b.foreign(s))
	b.arrive.Done()
	done := make(chan struct{})
	go func() {
		b.arrive.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		b.timeout.Store(true)
	}
	b.saw.Store(b.saw.Load() || b.foreign(s))
	return b.Agent.Process(ctx, s, rc)
}

func TestOrchestrator_ParallelStepIsolation(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	a := defaultAgents("ok")
	var arrive sync.WaitGroup
	arrive.Add(2)
	facts := &barrierAgent{Agent: a.FactChecker, arrive: &arrive, foreign: func(s *model.PipelineState) bool { return s.RAG != nil }}
	rag := &barrierAgent{Agent: a.RAG, arrive: &arrive, foreign: func(s *model.PipelineState) bool { return s.FactCheck != nil }}
	a.FactChecker, a.RAG = facts, rag
	o := newOrchestrator(t, a, nil)

	resp, err := o.ProcessUserMessage(context.Background(), model.Request{Message: "Thực đơn theo ngày"})
	require.NoError(t, err)

	assert.False(t, facts.timeout.Load(), "fact checker did not run alongside RAG")
	assert.False(t, rag.timeout.Load(), "RAG did not run alongside fact checker")
	assert.False(t, facts.saw.Load(), "fact checker observed RAG output")
	assert.False(t, rag.saw.Load(), "RAG observed fact check output")
	assert.NotEmpty(t, resp.FactCheckingReasoning)
	assert.NotEmpty(t, resp.RAGReasoning)
}

func TestOrchestrator_RequiredStepFailure(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	a := defaultAgents("ok")
	a.Planner = failingAgent{name: model.AgentPlanner, err: errors.New("planner exploded")}
	writer := &countingAgent{Agent: a.Writer}
	a.Writer = writer
	o := newOrchestrator(t, a, nil)
	progress := &progressLog{}

	resp, err := o.ProcessUserMessage(context.Background(), model.Request{
		Message:    "Thực đơn theo ngày",
		OnProgress: progress.record,
	})
	require.Error(t, err)
	assert.Nil(t, resp)

	var ae *errx.AgentError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, model.AgentPlanner, ae.Agent)
	assert.Contains(t, err.Error(), "planner exploded")

	ev, ok := progress.find(model.AgentPlanner, model.StatusError)
	require.True(t, ok)
	assert.Equal(t, "planner exploded", ev.output)
	assert.Zero(t, writer.calls.Load())
}

func TestOrchestrator_ParallelStepFailure(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	a := defaultAgents("ok")
	a.FactChecker = failingAgent{name: model.AgentFactChecker, err: errors.New("no facts")}
	o := newOrchestrator(t, a, nil)

	_, err := o.ProcessUserMessage(context.Background(), model.Request{Message: "Thực đơn theo ngày"})
	var ae *errx.AgentError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, model.AgentFactChecker, ae.Agent)
}

func TestOrchestrator_UXUIFailureIsNotFatal(t *testing.T) {
	a := defaultAgents("ok")
	a.UXUI = failingAgent{name: model.AgentUXUI, err: errors.New("layout broke")}
	o := newOrchestrator(t, a, nil)
	progress := &progressLog{}

	resp, err := o.ProcessUserMessage(context.Background(), model.Request{
		Message:    "Thực đơn theo ngày",
		OnProgress: progress.record,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Message)
	assert.Empty(t, resp.UISuggestions)
	_, ok := progress.find(model.AgentUXUI, model.StatusError)
	assert.True(t, ok)
}

func TestOrchestrator_ProgressContract(t *testing.T) {
	o := newOrchestrator(t, defaultAgents("ok"), nil)
	progress := &progressLog{}

	_, err := o.ProcessUserMessage(context.Background(), model.Request{
		Message:    "Thực đơn theo ngày",
		OnProgress: progress.record,
	})
	require.NoError(t, err)

	open := map[string]bool{}
	for _, e := range progress.events {
		switch e.status {
		case model.StatusProcessing:
			assert.False(t, open[e.agent], "%s started twice", e.agent)
			open[e.agent] = true
		case model.StatusCompleted, model.StatusError:
			assert.True(t, open[e.agent], "%s finished before it started", e.agent)
			open[e.agent] = false
		}
	}
	for agent, running := range open {
		assert.False(t, running, "%s never finished", agent)
	}
	assert.Len(t, progress.agents(model.StatusProcessing), 5)
}

func TestOrchestrator_StreamsTokensWhenReasoningEnabled(t *testing.T) {
	o := newOrchestrator(t, defaultAgents("suy luận"), nil)
	var mu sync.Mutex
	byAgent := map[string]int{}
	sink := model.TokenSinkFunc(func(agent, _ string) {
		mu.Lock()
		defer mu.Unlock()
		byAgent[agent]++
	})

	_, err := o.ProcessUserMessage(context.Background(), model.Request{Message: "Thực đơn theo ngày", OnToken: sink})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{model.AgentPlanner: 2}, byAgent)
}

func TestOrchestrator_ReasoningDisabled(t *testing.T) {
	o := newOrchestrator(t, defaultAgents("suy luận"), nil)
	progress := &progressLog{}
	var tokens atomic.Int32
	off := false

	resp, err := o.ProcessUserMessage(context.Background(), model.Request{
		Message:    "Thực đơn theo ngày",
		OnProgress: progress.record,
		OnToken:    model.TokenSinkFunc(func(string, string) { tokens.Add(1) }),
		Options:    model.RequestOptions{ReasoningEnabled: &off},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Message)
	assert.Zero(t, tokens.Load())
	for _, e := range progress.events {
		if e.status == model.StatusCompleted {
			assert.Empty(t, e.output, e.agent)
		}
	}
	assert.Len(t, progress.agents(model.StatusProcessing), 5)
}

func TestOrchestrator_ModelSelectionReachesAgents(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	gen := generatorFunc(func(_ context.Context, _ string, opts model.GenerateOptions) (string, error) {
		mu.Lock()
		seen = append(seen, opts.ModelID)
		mu.Unlock()
		return "ok", nil
	})
	o := newOrchestrator(t, NewAgents(gen, cache.NewFromConfig(model.CacheConfig{}), nil), nil)

	_, err := o.ProcessUserMessage(context.Background(), model.Request{
		Message:        "Thực đơn theo ngày",
		ModelSelection: map[string]string{model.AgentPlanner: "gemini-2.5-flash"},
	})
	require.NoError(t, err)
	assert.Contains(t, seen, "gemini-2.5-flash")
	assert.Contains(t, seen, agents.DefaultRAGModel)
}

type generatorFunc func(ctx context.Context, prompt string, opts model.GenerateOptions) (string, error)

func (f generatorFunc) Generate(ctx context.Context, prompt string, opts model.GenerateOptions) (string, error) {
	return f(ctx, prompt, opts)
}

func TestClassifyFlowAndPlanType(t *testing.T) {
	assert.Equal(t, model.PlanWeekly, ClassifyPlanType("Thực đơn THEO TUẦN"))
	assert.Equal(t, model.PlanDaily, ClassifyPlanType("Thực đơn theo ngày"))
	assert.Equal(t, model.PlanDaily, ClassifyPlanType("xin chào"))

	assert.Equal(t, model.FlowInitial, ClassifyFlow("xin chào", turns(2)))
	assert.Equal(t, model.FlowInitial, ClassifyFlow("đổi sang thực đơn theo tuần", turns(6)))
	assert.Equal(t, model.FlowFollowUp, ClassifyFlow("món này thế nào", turns(3)))
}

func TestNew_RejectsMissingAgents(t *testing.T) {
	a := defaultAgents("ok")
	a.Chat = nil
	_, err := New(context.Background(), Deps{Agents: a, Catalog: sampleMeals, Documents: retrieval.NewStore(0)})
	require.Error(t, err)
}
