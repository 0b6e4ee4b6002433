// Package agents holds the processing units of the meal-plan pipeline.
// Every agent reads a PipelineState and returns a clone in which only the
// fields it owns have changed.
package agents

import (
	"context"

	"github.com/Chative-mealplan/server/internal/agent/model"
)

// Generator is the model gateway as seen by agents.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts model.GenerateOptions) (string, error)
}

// WebSearcher augments retrieval with web snippets. It is consulted only
// when a run enables web search.
type WebSearcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

type Agent interface {
	Name() string
	Process(ctx context.Context, state *model.PipelineState, rc *RunContext) (*model.PipelineState, error)
	// Diagnostic is the detail reported with a "completed" progress event.
	Diagnostic(state *model.PipelineState) string
}

// RunContext is the per-run configuration shared by every agent of a run.
type RunContext struct {
	RunID string
	// Models overrides the default model per agent name.
	Models           map[string]string
	Sink             model.TokenSink
	WebSearchEnabled bool
	Preferences      *model.UserPreferences
	Usage            *model.UsageTracker

	// Recommendation marks ChatProcessor running as the recommendation
	// step of a replace request; FoodType is what the user wants replaced.
	Recommendation bool
	FoodType       string
}

// ModelFor returns the selected model for agent, or def.
func (rc *RunContext) ModelFor(agent, def string) string {
	if rc != nil {
		if id, ok := rc.Models[agent]; ok && id != "" {
			return id
		}
	}
	return def
}

// AsRecommendation returns a copy configured for the recommendation step.
func (rc *RunContext) AsRecommendation(foodType string) *RunContext {
	c := *rc
	c.Recommendation = true
	c.FoodType = foodType
	return &c
}

// tokens returns a stream callback tagged with agent, or nil when the run
// has no sink.
func (rc *RunContext) tokens(agent string) func(string) {
	if rc == nil || rc.Sink == nil {
		return nil
	}
	sink := rc.Sink
	return func(tok string) { sink.Push(agent, tok) }
}

func (rc *RunContext) usage() *model.UsageTracker {
	if rc == nil {
		return nil
	}
	return rc.Usage
}

func (rc *RunContext) runID() string {
	if rc == nil {
		return ""
	}
	return rc.RunID
}

func (rc *RunContext) preferences() *model.UserPreferences {
	if rc == nil {
		return nil
	}
	return rc.Preferences
}
