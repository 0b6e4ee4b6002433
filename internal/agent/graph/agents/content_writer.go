package agents

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/Chative-mealplan/server/internal/agent/graph/prompts"
	"github.com/Chative-mealplan/server/internal/agent/model"
	logx "github.com/Chative-mealplan/server/pkg/logger"
)

const (
	DefaultContentWriterModel = "google/flan-t5-base"
	// FastFallbackModel is retried once when a selected model fails.
	FastFallbackModel = "gemini-2.0-flash-lite"

	contentGenerated = "Generated with optimized prompt"
	contentTemplated = "Using fallback template response"
	specialFeatures  = "Thực đơn được thiết kế đa dạng với các món Á - Âu, đảm bảo cả dinh dưỡng và khẩu vị."
)

var messageTemplates = [...]string{
	"Tuyệt vời! Tôi đã chuẩn bị một thực đơn %[1]s đặc biệt với %[2]d món ăn đa dạng và cân bằng dinh dưỡng. %[4]s Tổng calories trong %[1]s là %.0[3]fkcal, rất phù hợp cho chế độ ăn uống lành mạnh.\n\nBạn có thể xem chi tiết từng món bên dưới. Đừng ngần ngại cho tôi biết nếu bạn muốn điều chỉnh bất kỳ món nào nhé!",
	"Rất vui được giúp bạn! Dưới đây là thực đơn %[1]s được thiết kế riêng với %[2]d món ăn ngon và bổ dưỡng. %[4]s Tổng calories khoảng %.0[3]fkcal, mỗi món đều được tính toán cẩn thận về mặt dinh dưỡng.\n\nHãy khám phá chi tiết từng món và cho tôi biết nếu bạn muốn thay đổi gì nhé!",
	"Tuyệt! Dựa trên yêu cầu của bạn, tôi đã tạo một thực đơn %[1]s với %[2]d món ăn hấp dẫn (%.0[3]fkcal). %[4]s Mỗi bữa đều được cân đối về protein, carbs và chất béo.\n\nBạn có thể tham khảo chi tiết bên dưới và đừng quên cho tôi biết nếu cần điều chỉnh món nào!",
}

// ContentWriter writes the user-facing introduction of a new plan.
type ContentWriter struct {
	gen  Generator
	intn func(n int) int
}

func NewContentWriter(gen Generator) *ContentWriter {
	return &ContentWriter{gen: gen, intn: rand.IntN}
}

func (w *ContentWriter) Name() string { return model.AgentContentWriter }

func (w *ContentWriter) Process(ctx context.Context, s *model.PipelineState, rc *RunContext) (*model.PipelineState, error) {
	out := s.Clone()

	prompt, err := prompts.RenderContentWriter(ctx, s.PlanType, s.Query, s.MealPlan.TotalCalories())
	var msg string
	if err == nil {
		opts := model.GenerateOptions{
			Temperature: 0.7,
			ModelID:     rc.ModelFor(model.AgentContentWriter, DefaultContentWriterModel),
			NoDegrade:   true,
			Usage:       rc.usage(),
		}
		msg, err = w.gen.Generate(ctx, prompt, opts)
		if err != nil && ctx.Err() == nil && opts.ModelID != FastFallbackModel {
			logx.Warn().Err(err).Str("run_id", rc.runID()).Str("agent", w.Name()).
				Str("model", opts.ModelID).Msg("Primary model failed, falling back to flash-lite model")
			opts.ModelID = FastFallbackModel
			msg, err = w.gen.Generate(ctx, prompt, opts)
		}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil || strings.TrimSpace(msg) == "" {
		if err != nil {
			logx.Error().Err(err).Str("run_id", rc.runID()).Str("agent", w.Name()).Msg("Error in content writing")
		}
		out.Message = w.templated(s.PlanType, s.MealPlan)
		out.ContentReasoning = contentTemplated
		return out, nil
	}

	out.Message = msg
	out.ContentReasoning = contentGenerated
	return out, nil
}

func (w *ContentWriter) Diagnostic(s *model.PipelineState) string {
	return s.ContentReasoning
}

func (w *ContentWriter) templated(planType model.PlanType, plan *model.MealPlan) string {
	period, count := "ngày", 3
	if planType == model.PlanWeekly {
		period, count = "tuần", 21
	}
	if n := plan.MealCount(); n > 0 {
		count = n
	}
	tpl := messageTemplates[w.intn(len(messageTemplates))]
	return fmt.Sprintf(tpl, period, count, plan.TotalCalories(), specialFeatures)
}
