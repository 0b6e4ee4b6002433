package agents

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Chative-mealplan/server/internal/agent/cache"
	"github.com/Chative-mealplan/server/internal/agent/graph/prompts"
	"github.com/Chative-mealplan/server/internal/agent/model"
	logx "github.com/Chative-mealplan/server/pkg/logger"
)

const (
	DefaultFactCheckModel = "google/flan-t5-small"
	FactCheckSource       = "https://suckhoedoisong.vn/dinh-duong-169/"
)

// FactChecker attaches provenance to every catalog dish and asks a model
// for a nutrition sanity check. Results are cached per dish-name list.
type FactChecker struct {
	gen   Generator
	cache *cache.Cache
	now   func() time.Time
}

func NewFactChecker(gen Generator, c *cache.Cache) *FactChecker {
	return &FactChecker{gen: gen, cache: c, now: time.Now}
}

func (f *FactChecker) Name() string { return model.AgentFactChecker }

func (f *FactChecker) Process(ctx context.Context, s *model.PipelineState, rc *RunContext) (*model.PipelineState, error) {
	out := s.Clone()

	names := make([]string, 0, len(s.Catalog))
	for _, m := range s.Catalog {
		names = append(names, m.Name)
	}
	nameKey, _ := json.Marshal(names)
	key := cache.Key(cache.NamespaceFacts, string(nameKey))
	if hit, ok := cache.GetAs[*model.FactCheckResult](f.cache, cache.NamespaceFacts, key); ok {
		logx.Debug().Str("run_id", rc.runID()).Str("agent", f.Name()).Msg("using cached fact check result")
		out.FactCheck = hit
		return out, nil
	}

	checked := make([]model.CheckedMeal, 0, len(names))
	for _, n := range names {
		checked = append(checked, model.CheckedMeal{Name: n, FactChecked: true, Source: FactCheckSource})
	}

	prompt, err := prompts.RenderFactCheck(ctx, s.Catalog)
	var reasoning string
	if err == nil {
		reasoning, err = f.gen.Generate(ctx, prompt, model.GenerateOptions{
			Temperature: 0.3,
			ModelID:     rc.ModelFor(model.AgentFactChecker, DefaultFactCheckModel),
			Usage:       rc.usage(),
		})
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logx.Error().Err(err).Str("run_id", rc.runID()).Str("agent", f.Name()).Msg("Error in fact checking")
		out.FactCheck = &model.FactCheckResult{
			Reasoning: "Lỗi khi kiểm tra thông tin: " + err.Error(),
			Meals:     checked,
			CheckedAt: f.now(),
		}
		return out, nil
	}

	result := &model.FactCheckResult{
		Reasoning: reasoning,
		Meals:     checked,
		CheckedAt: f.now(),
	}
	f.cache.Set(cache.NamespaceFacts, key, result)
	out.FactCheck = result
	return out, nil
}

func (f *FactChecker) Diagnostic(s *model.PipelineState) string {
	if s.FactCheck == nil {
		return ""
	}
	return s.FactCheck.Reasoning
}
