package nodes

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/Chative-mealplan/server/internal/agent/graph/agents"
	"github.com/Chative-mealplan/server/internal/agent/model"
	errx "github.com/Chative-mealplan/server/internal/core/error"
	logx "github.com/Chative-mealplan/server/pkg/logger"
	"github.com/Chative-mealplan/server/pkg/metrics"
)

// Run is the per-request bookkeeping shared by every node of one graph
// invocation. It is safe for use by the parallel step.
type Run struct {
	ID     string
	Flow   model.Flow
	Agents *agents.RunContext
	// Reasoning forwards diagnostic detail with "completed" events.
	Reasoning  bool
	OnProgress model.ProgressFunc

	mu      sync.Mutex
	records []model.AgentRunRecord
	failure *errx.AgentError
	now     func() time.Time
}

func NewRun(id string, flow model.Flow, rc *agents.RunContext, reasoning bool, onProgress model.ProgressFunc) *Run {
	return &Run{
		ID:         id,
		Flow:       flow,
		Agents:     rc,
		Reasoning:  reasoning,
		OnProgress: onProgress,
		now:        time.Now,
	}
}

type runKey struct{}

func WithRun(ctx context.Context, r *Run) context.Context {
	return context.WithValue(ctx, runKey{}, r)
}

var errNoRun = errors.New("no pipeline run in context")

func RunFrom(ctx context.Context) (*Run, error) {
	r, ok := ctx.Value(runKey{}).(*Run)
	if !ok || r == nil {
		return nil, errNoRun
	}
	return r, nil
}

// Records returns a copy of the agent invocations so far.
func (r *Run) Records() []model.AgentRunRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.records)
}

// Failure returns the first required step that failed, if any.
func (r *Run) Failure() *errx.AgentError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failure
}

// Step runs one agent invocation under the progress contract: processing
// before, then completed with the diagnostic or error with the detail.
// label is the name reported, which differs from the agent's own name for
// the recommendation sub-step.
func (r *Run) Step(ctx context.Context, a agents.Agent, label string, rc *agents.RunContext, in *model.PipelineState, diagnostic func(*model.PipelineState) string) (*model.PipelineState, error) {
	out, err := r.invoke(ctx, a, label, rc, in, diagnostic)
	if err != nil {
		return nil, r.fail(label, err)
	}
	return out, nil
}

// OptionalStep is Step for an agent whose failure is not fatal: the error
// is reported and the input state is returned unchanged. Cancellation is
// still returned.
func (r *Run) OptionalStep(ctx context.Context, a agents.Agent, rc *agents.RunContext, in *model.PipelineState) (*model.PipelineState, error) {
	out, err := r.invoke(ctx, a, a.Name(), rc, in, a.Diagnostic)
	if err == nil {
		return out, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	logx.Warn().Err(err).Str("run_id", r.ID).Str("agent", a.Name()).Msg("optional step failed, keeping previous state")
	return in, nil
}

func (r *Run) invoke(ctx context.Context, a agents.Agent, label string, rc *agents.RunContext, in *model.PipelineState, diagnostic func(*model.PipelineState) string) (*model.PipelineState, error) {
	start := r.now()
	r.report(label, model.StatusProcessing, "")

	out, err := a.Process(ctx, in, rc)
	elapsed := time.Since(start)
	metrics.AgentDuration.WithLabelValues(label).Observe(elapsed.Seconds())

	if err == nil && out == nil {
		err = errors.New("agent returned no state")
	}
	if err != nil {
		r.finish(label, model.StatusError, start, err.Error())
		metrics.AgentRuns.WithLabelValues(label, string(model.StatusError)).Inc()
		return nil, err
	}

	output := ""
	if r.Reasoning {
		output = diagnostic(out)
	}
	r.finish(label, model.StatusCompleted, start, output)
	metrics.AgentRuns.WithLabelValues(label, string(model.StatusCompleted)).Inc()
	return out, nil
}

func (r *Run) report(agent string, status model.AgentStatus, output string) {
	if r.OnProgress == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.OnProgress(agent, status, output)
}

func (r *Run) finish(agent string, status model.AgentStatus, start time.Time, output string) {
	r.mu.Lock()
	r.records = append(r.records, model.AgentRunRecord{
		Agent:     agent,
		Status:    status,
		StartTime: start,
		EndTime:   r.now(),
		Output:    output,
	})
	r.mu.Unlock()
	r.report(agent, status, output)
}

func (r *Run) fail(agent string, err error) error {
	wrapped := errx.WrapAgent(agent, err)
	var ae *errx.AgentError
	if errors.As(wrapped, &ae) {
		r.mu.Lock()
		if r.failure == nil {
			r.failure = ae
		}
		r.mu.Unlock()
	}
	return wrapped
}
