package prompts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-mealplan/server/internal/agent/model"
)

func TestRenderPlanner_WithoutPreferences(t *testing.T) {
	out, err := RenderPlanner(context.Background(), model.PlanWeekly, "Thực đơn theo tuần", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "thực đơn tuần")
	assert.Contains(t, out, noPreferences)
	assert.Contains(t, out, `"Thực đơn theo tuần"`)
	assert.NotContains(t, out, "<no value>")
}

func TestRenderPlanner_WithPreferences(t *testing.T) {
	prefs := &model.UserPreferences{
		Age:          30,
		Gender:       "nữ",
		HealthGoals:  []string{"giảm cân", "tăng cơ"},
		Allergies:    []string{"đậu phộng"},
		CalorieGoal:  1800,
		IsVegetarian: true,
		IsLowCarb:    true,
	}
	out, err := RenderPlanner(context.Background(), model.PlanDaily, "Thực đơn theo ngày", prefs)
	require.NoError(t, err)
	assert.Contains(t, out, "thực đơn ngày")
	assert.Contains(t, out, "- Tuổi: 30")
	assert.Contains(t, out, "giảm cân, tăng cơ")
	assert.Contains(t, out, "- Dị ứng: đậu phộng")
	assert.Contains(t, out, "- Ăn chay\n- Ít carb")
	assert.NotContains(t, out, noPreferences)
}

func TestRenderRAG_IncludesContextAndWebResults(t *testing.T) {
	out, err := RenderRAG(context.Background(), "rau muống", "### Thông tin\n\n[Đoạn 1]:\nrau\n", []string{"kết quả web"})
	require.NoError(t, err)
	assert.Contains(t, out, "[Đoạn 1]:")
	assert.Contains(t, out, "- kết quả web")
	assert.Contains(t, out, `"rau muống"`)

	out, err = RenderRAG(context.Background(), "rau", "", nil)
	require.NoError(t, err)
	assert.NotContains(t, out, "Kết quả tìm kiếm trên web")
}

func TestRenderChatReply(t *testing.T) {
	out, err := RenderChatReply(context.Background(), ChatReplyInput{
		Query:        "đổi món cá",
		Catalog:      []model.MealCandidate{{Name: "Phở Gà"}},
		History:      "Người dùng: xin chào",
		TaskAnalysis: &model.TaskAnalysis{TaskType: model.TaskReplaceMeal, FoodType: "cá"},
	})
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Phở Gà"`)
	assert.Contains(t, out, "Người dùng: xin chào")
	assert.Contains(t, out, `"taskType": "replace_meal"`)
	assert.Contains(t, out, noPreferences)
	assert.Contains(t, out, "null", "missing plan renders as JSON null")
}

func TestRenderOthers(t *testing.T) {
	ctx := context.Background()
	for name, render := range map[string]func() (string, error){
		"fact_check":     func() (string, error) { return RenderFactCheck(ctx, []model.MealCandidate{{Name: "Bún Chả"}}) },
		"content_writer": func() (string, error) { return RenderContentWriter(ctx, model.PlanDaily, "q", 1234.4) },
		"chat_reasoning": func() (string, error) { return RenderChatReasoning(ctx, "q", "thịt") },
		"uxui": func() (string, error) {
			return RenderUXUI(ctx, &model.MealPlan{PlanType: model.PlanDaily}, model.PlanDaily)
		},
	} {
		out, err := render()
		require.NoError(t, err, name)
		assert.NotEmpty(t, out, name)
		assert.NotContains(t, out, "<no value>", name)
	}

	_, err := Render(ctx, "missing", nil)
	assert.Error(t, err)
}
