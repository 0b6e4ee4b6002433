package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Chative-mealplan/server/internal/agent/graph/prompts"
	"github.com/Chative-mealplan/server/internal/agent/model"
	logx "github.com/Chative-mealplan/server/pkg/logger"
)

const (
	DefaultPlannerModel = "meta-llama/Meta-Llama-3-8B-Instruct"
	TodayLabel          = "Hôm nay"
	plannerApology      = "Không thể tạo phân tích chi tiết. Tuy nhiên, thực đơn đã được lập kế hoạch cẩn thận để đảm bảo cân bằng dinh dưỡng và phù hợp với nhu cầu của bạn."
)

var weekdayNames = [...]string{"Chủ Nhật", "Thứ Hai", "Thứ Ba", "Thứ Tư", "Thứ Năm", "Thứ Sáu", "Thứ Bảy"}

// SlotRule builds a plan from the catalog.
type SlotRule func(planType model.PlanType, catalog []model.MealCandidate, now time.Time) *model.MealPlan

// ReasoningPlanner streams a planning trace and builds the MealPlan. The
// plan never depends on the model call succeeding.
type ReasoningPlanner struct {
	gen  Generator
	rule SlotRule
	now  func() time.Time
}

func NewReasoningPlanner(gen Generator) *ReasoningPlanner {
	return &ReasoningPlanner{gen: gen, rule: RotatingSlots, now: time.Now}
}

func (p *ReasoningPlanner) Name() string { return model.AgentPlanner }

func (p *ReasoningPlanner) Process(ctx context.Context, s *model.PipelineState, rc *RunContext) (*model.PipelineState, error) {
	out := s.Clone()
	prefs := rc.preferences()

	prompt, err := prompts.RenderPlanner(ctx, s.PlanType, s.Query, prefs)
	var reasoning string
	if err == nil {
		reasoning, err = p.gen.Generate(ctx, prompt, model.GenerateOptions{
			Temperature: 0.3,
			ModelID:     rc.ModelFor(model.AgentPlanner, DefaultPlannerModel),
			OnToken:     rc.tokens(model.AgentPlanner),
			Usage:       rc.usage(),
		})
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logx.Error().Err(err).Str("run_id", rc.runID()).Str("agent", p.Name()).Msg("Error generating planning reasoning")
		reasoning = plannerApology
	}

	plan := p.buildPlan(s.PlanType, s.Catalog)
	if prefs != nil {
		plan.IsPersonalized = true
		plan.PersonalizationReason = personalizationReason(prefs)
	}
	out.MealPlan = plan
	out.PlanningReasoning = reasoning
	return out, nil
}

func (p *ReasoningPlanner) Diagnostic(s *model.PipelineState) string {
	return s.PlanningReasoning
}

func (p *ReasoningPlanner) buildPlan(planType model.PlanType, catalog []model.MealCandidate) (plan *model.MealPlan) {
	defer func() {
		if r := recover(); r != nil {
			logx.Warn().Interface("panic", r).Msg("slot rule failed, using sequential slots")
			plan = SequentialSlots(planType, catalog)
		}
	}()
	plan = p.rule(planType, catalog, p.now())
	if plan == nil {
		plan = SequentialSlots(planType, catalog)
	}
	return plan
}

// RotatingSlots is the default slot rule. A daily plan is one day with
// breakfast [0,6], lunch [1,4] and dinner [2,5]. A weekly plan is seven
// days from now where day i takes [i,i+3], [i+1,i+4] and [i+2,i+5]. All
// indices wrap around the catalog.
func RotatingSlots(planType model.PlanType, catalog []model.MealCandidate, now time.Time) *model.MealPlan {
	if planType == model.PlanWeekly {
		days := make([]model.Day, 0, 7)
		for i := range 7 {
			d := now.AddDate(0, 0, i)
			days = append(days, model.Day{
				Label: fmt.Sprintf("%s, %d/%d", weekdayNames[d.Weekday()], d.Day(), int(d.Month())),
				Meals: model.DayMeals{
					Breakfast: pick(catalog, i, i+3),
					Lunch:     pick(catalog, i+1, i+4),
					Dinner:    pick(catalog, i+2, i+5),
				},
			})
		}
		return &model.MealPlan{PlanType: model.PlanWeekly, Days: days}
	}
	return &model.MealPlan{
		PlanType: model.PlanDaily,
		Days: []model.Day{{
			Label: TodayLabel,
			Meals: model.DayMeals{
				Breakfast: pick(catalog, 0, 6),
				Lunch:     pick(catalog, 1, 4),
				Dinner:    pick(catalog, 2, 5),
			},
		}},
	}
}

// SequentialSlots fills a single day from consecutive pairs of the catalog.
func SequentialSlots(planType model.PlanType, catalog []model.MealCandidate) *model.MealPlan {
	return &model.MealPlan{
		PlanType: planType,
		Days: []model.Day{{
			Label: TodayLabel,
			Meals: model.DayMeals{
				Breakfast: window(catalog, 0, 2),
				Lunch:     window(catalog, 2, 4),
				Dinner:    window(catalog, 4, 6),
			},
		}},
	}
}

// pick returns the catalog entries at the given indices modulo its length.
// The result is never nil.
func pick(catalog []model.MealCandidate, idx ...int) []model.MealCandidate {
	out := make([]model.MealCandidate, 0, len(idx))
	if len(catalog) == 0 {
		return out
	}
	for _, i := range idx {
		out = append(out, catalog[i%len(catalog)])
	}
	return out
}

func window(catalog []model.MealCandidate, from, to int) []model.MealCandidate {
	from = min(from, len(catalog))
	to = min(to, len(catalog))
	return append(make([]model.MealCandidate, 0, to-from), catalog[from:to]...)
}

func personalizationReason(p *model.UserPreferences) string {
	var parts []string
	if p.DietaryType != "" {
		parts = append(parts, "chế độ ăn "+p.DietaryType)
	}
	if r := p.Restrictions(); len(r) > 0 {
		parts = append(parts, "hạn chế: "+strings.Join(r, ", "))
	}
	if len(p.Allergies) > 0 {
		parts = append(parts, "dị ứng: "+strings.Join(p.Allergies, ", "))
	}
	if len(p.HealthGoals) > 0 {
		parts = append(parts, "mục tiêu: "+strings.Join(p.HealthGoals, ", "))
	}
	if p.CalorieGoal > 0 {
		parts = append(parts, fmt.Sprintf("%d kcal/ngày", p.CalorieGoal))
	}
	if len(parts) == 0 {
		return "Thực đơn được điều chỉnh theo hồ sơ của bạn."
	}
	return "Thực đơn được điều chỉnh theo " + strings.Join(parts, "; ") + "."
}
