package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-mealplan/server/internal/agent/model"
)

type MealDetailsInput struct {
	Name string `json:"name"`
}

var (
	healthBenefits = []string{
		"Cung cấp protein chất lượng cao",
		"Giàu vitamin và khoáng chất",
		"Hỗ trợ sức khỏe tim mạch",
		"Tăng cường hệ miễn dịch",
	}
	cookingTips = []string{
		"Nên chọn nguyên liệu tươi ngon",
		"Gia vị vừa phải để giữ hương vị tự nhiên",
		"Thời gian nấu phù hợp để giữ dinh dưỡng",
		"Kết hợp với rau xanh để cân bằng bữa ăn",
	}
	variantSuffixes = []string{"miền Bắc", "miền Trung", "miền Nam", "chay"}
)

func createMealDetailsTool(catalog []model.MealCandidate) tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: "meal_details",
			Desc: "Get the full details of one catalog dish: the dish itself plus health benefits, regional variants and cooking tips.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"name": {
					Type:     "string",
					Desc:     "Exact dish name as returned by search_meal.",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *MealDetailsInput) (*model.SearchDetails, error) {
			if in.Name == "" {
				return nil, fmt.Errorf("name is required")
			}
			for _, meal := range catalog {
				if meal.Name != in.Name {
					continue
				}
				variants := make([]string, 0, len(variantSuffixes))
				for _, s := range variantSuffixes {
					variants = append(variants, meal.Name+" "+s)
				}
				return &model.SearchDetails{
					Meal:            meal,
					AdditionalInfo:  DetailsLine(meal.Name),
					HealthBenefits:  append([]string(nil), healthBenefits...),
					PopularVariants: variants,
					CookingTips:     append([]string(nil), cookingTips...),
				}, nil
			}
			return nil, fmt.Errorf("meal not found: %s", in.Name)
		},
	)
}

// DetailsLine is the one-line summary attached to every search hit.
func DetailsLine(name string) string {
	return "Thông tin chi tiết về món " + name
}
