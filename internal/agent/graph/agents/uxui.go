package agents

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Chative-mealplan/server/internal/agent/cache"
	"github.com/Chative-mealplan/server/internal/agent/graph/prompts"
	"github.com/Chative-mealplan/server/internal/agent/model"
	logx "github.com/Chative-mealplan/server/pkg/logger"
)

const DefaultUXUIModel = "google/flan-t5-small"

const fallbackUITemplate = `# Default UI Template for %s meal plan

## Layout Structure
- Responsive grid layout
- Card-based meal display
- Collapsible sections
- Mobile-first approach

## Components
- MealCard with quick actions
- NutritionChart with animations
- Interactive calendar for weekly view
- Loading skeletons

## Animations
- Fade in on load
- Smooth transitions
- Loading states

## Responsive Design
- Mobile: Single column
- Tablet: Two columns
- Desktop: Three columns

## Accessibility
- ARIA labels
- Keyboard navigation
- High contrast mode`

// FallbackUITemplate is the static layout hint used when no model answers.
func FallbackUITemplate(planType model.PlanType) string {
	return fmt.Sprintf(fallbackUITemplate, planType)
}

// UXUIDesigner suggests how to present the current plan. Its failure is
// never fatal, so every error ends in the static template.
type UXUIDesigner struct {
	gen   Generator
	cache *cache.Cache
}

func NewUXUIDesigner(gen Generator, c *cache.Cache) *UXUIDesigner {
	return &UXUIDesigner{gen: gen, cache: c}
}

func (u *UXUIDesigner) Name() string { return model.AgentUXUI }

func (u *UXUIDesigner) Process(ctx context.Context, s *model.PipelineState, rc *RunContext) (out *model.PipelineState, err error) {
	out = s.Clone()
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Interface("panic", r).Str("run_id", rc.runID()).Str("agent", u.Name()).Msg("Error in UX/UI processing")
			out = s.Clone()
			out.UISuggestions = FallbackUITemplate(s.PlanType)
			err = nil
		}
	}()

	key := cache.Key(cache.NamespaceUI, planFingerprint(s.MealPlan, s.PlanType))
	if hit, ok := cache.GetAs[string](u.cache, cache.NamespaceUI, key); ok {
		out.UISuggestions = hit
		return out, nil
	}

	prompt, err := prompts.RenderUXUI(ctx, s.MealPlan, s.PlanType)
	var hint string
	if err == nil {
		opts := model.GenerateOptions{
			Temperature: 0.7,
			ModelID:     rc.ModelFor(model.AgentUXUI, DefaultUXUIModel),
			NoDegrade:   true,
			Usage:       rc.usage(),
		}
		hint, err = u.gen.Generate(ctx, prompt, opts)
		if err != nil && ctx.Err() == nil && opts.ModelID != FastFallbackModel {
			logx.Warn().Err(err).Str("run_id", rc.runID()).Str("agent", u.Name()).Msg("Primary UX/UI model failed, using fallback")
			opts.ModelID = FastFallbackModel
			hint, err = u.gen.Generate(ctx, prompt, opts)
		}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil || strings.TrimSpace(hint) == "" {
		if err != nil {
			logx.Error().Err(err).Str("run_id", rc.runID()).Str("agent", u.Name()).Msg("Error in UX/UI processing")
		}
		out.UISuggestions = FallbackUITemplate(s.PlanType)
		return out, nil
	}

	u.cache.Set(cache.NamespaceUI, key, hint)
	out.UISuggestions = hint
	return out, nil
}

func (u *UXUIDesigner) Diagnostic(*model.PipelineState) string { return "" }

func planFingerprint(plan *model.MealPlan, planType model.PlanType) string {
	raw, _ := json.Marshal(plan)
	sum := sha256.Sum256(append(append(raw, '|'), string(planType)...))
	return hex.EncodeToString(sum[:])
}
