// Package prompts renders agent prompts from embedded Go templates through
// the eino prompt component, so prompt callbacks fire for every render.
package prompts

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-mealplan/server/internal/agent/model"
)

//go:embed template/*.txt
var templates embed.FS

const noPreferences = "Không có thông tin chi tiết về người dùng"

// Render formats template name with vars and returns the rendered text.
func Render(ctx context.Context, name string, vars map[string]any) (string, error) {
	raw, err := templates.ReadFile("template/" + name + ".txt")
	if err != nil {
		return "", fmt.Errorf("unknown prompt %q: %w", name, err)
	}

	ctx = callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      name,
		Type:      "GoTemplate",
		Component: components.ComponentOfPrompt,
	})
	tpl := prompt.FromMessages(schema.GoTemplate, schema.UserMessage(string(raw)))
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("render prompt %s: empty result", name)
	}
	return strings.TrimSpace(msgs[0].Content), nil
}

// PlanLabel is the Vietnamese word for the plan period.
func PlanLabel(t model.PlanType) string {
	if t == model.PlanWeekly {
		return "tuần"
	}
	return "ngày"
}

func RenderRAG(ctx context.Context, query, formattedContext string, webResults []string) (string, error) {
	return Render(ctx, "rag", map[string]any{
		"Query":      query,
		"Context":    formattedContext,
		"WebResults": webResults,
	})
}

func RenderFactCheck(ctx context.Context, meals []model.MealCandidate) (string, error) {
	return Render(ctx, "fact_check", map[string]any{
		"Meals": indentJSON(meals),
	})
}

func RenderPlanner(ctx context.Context, planType model.PlanType, query string, prefs *model.UserPreferences) (string, error) {
	vars := map[string]any{
		"PlanLabel":    PlanLabel(planType),
		"Query":        query,
		"Preferences":  nil,
		"HealthGoals":  "",
		"Allergies":    "",
		"Restrictions": []string(nil),
	}
	if prefs != nil {
		vars["Preferences"] = prefs
		vars["HealthGoals"] = strings.Join(prefs.HealthGoals, ", ")
		vars["Allergies"] = strings.Join(prefs.Allergies, ", ")
		vars["Restrictions"] = prefs.Restrictions()
	}
	return Render(ctx, "planner", vars)
}

func RenderContentWriter(ctx context.Context, planType model.PlanType, query string, totalCalories float64) (string, error) {
	label := "Thực đơn ngày"
	if planType == model.PlanWeekly {
		label = "Thực đơn tuần"
	}
	return Render(ctx, "content_writer", map[string]any{
		"Query":         query,
		"PlanLabel":     label,
		"TotalCalories": fmt.Sprintf("%.0f", totalCalories),
	})
}

func RenderChatReasoning(ctx context.Context, query, foodType string) (string, error) {
	return Render(ctx, "chat_reasoning", map[string]any{
		"Query":    query,
		"FoodType": foodType,
	})
}

// ChatReplyInput carries what the follow-up reply prompt embeds.
type ChatReplyInput struct {
	Query        string
	Catalog      []model.MealCandidate
	MealPlan     *model.MealPlan
	History      string
	Preferences  *model.UserPreferences
	TaskAnalysis *model.TaskAnalysis
	SearchResult *model.SearchResult
}

func RenderChatReply(ctx context.Context, in ChatReplyInput) (string, error) {
	vars := map[string]any{
		"Query":        in.Query,
		"Catalog":      indentJSON(in.Catalog),
		"MealPlan":     indentJSON(in.MealPlan),
		"History":      in.History,
		"Preferences":  noPreferences,
		"TaskAnalysis": "",
		"SearchResult": "",
	}
	if in.Preferences != nil {
		vars["Preferences"] = indentJSON(in.Preferences)
	}
	if in.TaskAnalysis != nil {
		vars["TaskAnalysis"] = indentJSON(in.TaskAnalysis)
	}
	if in.SearchResult != nil {
		vars["SearchResult"] = indentJSON(in.SearchResult)
	}
	return Render(ctx, "chat_reply", vars)
}

func RenderUXUI(ctx context.Context, plan *model.MealPlan, planType model.PlanType) (string, error) {
	return Render(ctx, "uxui", map[string]any{
		"MealPlan": indentJSON(plan),
		"PlanType": string(planType),
	})
}

func indentJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
