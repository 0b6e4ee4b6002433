package agents

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/Chative-mealplan/server/internal/agent/graph/conversations"
	"github.com/Chative-mealplan/server/internal/agent/graph/prompts"
	"github.com/Chative-mealplan/server/internal/agent/graph/tools"
	"github.com/Chative-mealplan/server/internal/agent/model"
	logx "github.com/Chative-mealplan/server/pkg/logger"
)

const (
	DefaultChatModel = "gemini-2.0-flash-lite"
	ChatReplyModel   = "meta-llama/Meta-Llama-3-8B-Instruct"

	chatApology          = "Xin lỗi, tôi không thể xử lý yêu cầu của bạn lúc này. Bạn có thể thử lại với câu hỏi khác không?"
	chatErrorReasoning   = "Đã xảy ra lỗi khi xử lý yêu cầu chat."
	chatReasoningApology = "Không thể tạo phân tích chi tiết. Tuy nhiên, yêu cầu của bạn đã được xử lý cẩn thận."
)

var changeKeywords = []string{"đổi", "thay", "không thích", "món khác"}

// ChatProcessor answers follow-up turns and swaps meals on change requests.
// It does nothing until the conversation has more than two turns.
type ChatProcessor struct {
	gen  Generator
	intn func(n int) int
}

func NewChatProcessor(gen Generator) *ChatProcessor {
	return &ChatProcessor{gen: gen, intn: rand.IntN}
}

func (c *ChatProcessor) Name() string { return model.AgentChat }

func (c *ChatProcessor) Process(ctx context.Context, s *model.PipelineState, rc *RunContext) (out *model.PipelineState, err error) {
	out = s.Clone()
	if len(s.History) <= 2 {
		return out, nil
	}

	defer func() {
		if r := recover(); r != nil {
			logx.Error().Interface("panic", r).Str("run_id", rc.runID()).Str("agent", c.Name()).Msg("Error in chat processing")
			out = s.Clone()
			out.Message = chatApology
			out.ChatReasoning = chatErrorReasoning
			err = nil
		}
	}()

	tag := model.AgentChat
	var foodType string
	if rc != nil && rc.Recommendation {
		tag = model.AgentRecommendation
		foodType = rc.FoodType
	}

	reasoning, rerr := c.generate(ctx, func() (string, error) {
		return prompts.RenderChatReasoning(ctx, s.Query, foodType)
	}, model.GenerateOptions{
		Temperature: 0.3,
		ModelID:     rc.ModelFor(model.AgentChat, DefaultChatModel),
		OnToken:     rc.tokens(tag),
		Usage:       rc.usage(),
	})
	if rerr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logx.Error().Err(rerr).Str("run_id", rc.runID()).Str("agent", c.Name()).Msg("Error generating chat reasoning")
		reasoning = chatReasoningApology
	}

	in := prompts.ChatReplyInput{
		Query:        s.Query,
		Catalog:      s.Catalog[:min(3, len(s.Catalog))],
		MealPlan:     s.MealPlan,
		History:      conversations.FormatTurns(conversations.RecentTurns(s.History, 3)),
		Preferences:  rc.preferences(),
		TaskAnalysis: s.TaskAnalysis,
	}
	if len(s.SearchResults) > 0 {
		in.SearchResult = &s.SearchResults[0]
	}
	reply, err := c.generate(ctx, func() (string, error) {
		return prompts.RenderChatReply(ctx, in)
	}, model.GenerateOptions{
		Temperature: 0.7,
		ModelID:     ChatReplyModel,
		Usage:       rc.usage(),
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logx.Error().Err(err).Str("run_id", rc.runID()).Str("agent", c.Name()).Msg("Error in chat processing")
		out.Message = chatApology
		out.ChatReasoning = chatErrorReasoning
		return out, nil
	}

	if containsAny(tools.Normalize(s.Query), changeKeywords) {
		out.MealPlan = c.swapMeals(s.MealPlan, s.Catalog)
	}
	out.Message = reply
	out.ChatReasoning = reasoning
	return out, nil
}

func (c *ChatProcessor) Diagnostic(s *model.PipelineState) string {
	return s.ChatReasoning
}

func (c *ChatProcessor) generate(ctx context.Context, render func() (string, error), opts model.GenerateOptions) (string, error) {
	prompt, err := render()
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return c.gen.Generate(ctx, prompt, opts)
}

// swapMeals returns a new plan with every slot refilled by two random
// catalog picks, or a fresh single-day plan when there is none yet.
func (c *ChatProcessor) swapMeals(plan *model.MealPlan, catalog []model.MealCandidate) *model.MealPlan {
	if plan == nil || len(plan.Days) == 0 {
		return SequentialSlots(model.PlanDaily, catalog)
	}
	if len(catalog) == 0 {
		return plan
	}
	random := func() []model.MealCandidate {
		return []model.MealCandidate{catalog[c.intn(len(catalog))], catalog[c.intn(len(catalog))]}
	}
	next := *plan
	next.Days = make([]model.Day, len(plan.Days))
	for i, d := range plan.Days {
		next.Days[i] = model.Day{
			Label: d.Label,
			Meals: model.DayMeals{Breakfast: random(), Lunch: random(), Dinner: random()},
		}
	}
	return &next
}
