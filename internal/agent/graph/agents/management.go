package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/Chative-mealplan/server/internal/agent/graph/tools"
	"github.com/Chative-mealplan/server/internal/agent/model"
)

var (
	replaceKeywords = []string{"thay", "đổi", "không thích", "món khác"}
	foodKeywords    = []string{"cá", "thịt", "rau", "cơm", "bún", "phở"}
	searchKeywords  = []string{"tìm", "thông tin", "chi tiết", "cách làm", "dinh dưỡng của"}
)

// ManagementAgent classifies follow-up requests by keyword. It never calls
// a model.
type ManagementAgent struct{}

func NewManagementAgent() *ManagementAgent { return &ManagementAgent{} }

func (ManagementAgent) Name() string { return model.AgentManagement }

func (ManagementAgent) Process(_ context.Context, s *model.PipelineState, _ *RunContext) (*model.PipelineState, error) {
	out := s.Clone()
	ta := Classify(s.Query)
	out.TaskAnalysis = &ta
	return out, nil
}

func (ManagementAgent) Diagnostic(s *model.PipelineState) string {
	if s.TaskAnalysis == nil {
		return ""
	}
	return string(s.TaskAnalysis.TaskType)
}

// Classify maps a query to a task. Replace keywords win over search
// keywords; the first food keyword found names what to replace.
func Classify(query string) model.TaskAnalysis {
	q := tools.Normalize(query)
	ta := model.TaskAnalysis{TaskType: model.TaskUnknown}

	switch {
	case containsAny(q, replaceKeywords):
		ta.TaskType = model.TaskReplaceMeal
		for _, food := range foodKeywords {
			if strings.Contains(q, food) {
				ta.FoodType = food
				break
			}
		}
		if ta.FoodType != "" {
			ta.RequiresConfirmation = true
			ta.SuggestedResponse = fmt.Sprintf("Bạn có muốn thêm món ăn liên quan đến %s vào lịch không?", ta.FoodType)
		}
	case containsAny(q, searchKeywords):
		ta.TaskType = model.TaskSearchInfo
	}
	return ta
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
