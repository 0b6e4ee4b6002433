package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/text/unicode/norm"

	"github.com/Chative-mealplan/server/internal/agent/model"
)

// SearchKeywords are the ingredient words tried, in order, when the query
// names no catalog dish.
var SearchKeywords = []string{"cá", "thịt", "rau", "cơm", "bún", "phở", "bánh"}

type SearchMealInput struct {
	Query string `json:"query"`
}

type SearchMealOutput struct {
	// Target is the matched dish name or keyword, empty when nothing matched.
	Target string `json:"target"`
	// ByName is true when Target is a dish name found in the query.
	ByName bool                  `json:"by_name"`
	Meals  []model.MealCandidate `json:"meals"`
}

// Normalize lowercases s after NFC composition, so precomposed and
// combining Vietnamese spellings compare equal.
func Normalize(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

func createSearchMealTool(catalog []model.MealCandidate) tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: "search_meal",
			Desc: "Search the meal catalog. A dish named in the query wins; otherwise the first ingredient keyword (cá, thịt, rau, cơm, bún, phở, bánh) found in the query selects every dish whose name or ingredients contain it.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     "string",
					Desc:     "The user's request in Vietnamese, e.g. \"cho tôi thông tin về Phở Gà\".",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *SearchMealInput) (*SearchMealOutput, error) {
			if strings.TrimSpace(in.Query) == "" {
				return nil, fmt.Errorf("query is required")
			}
			q := Normalize(in.Query)

			for _, meal := range catalog {
				if meal.Name != "" && strings.Contains(q, Normalize(meal.Name)) {
					return &SearchMealOutput{Target: meal.Name, ByName: true, Meals: []model.MealCandidate{meal}}, nil
				}
			}

			for _, kw := range SearchKeywords {
				if !strings.Contains(q, kw) {
					continue
				}
				out := &SearchMealOutput{Target: kw, Meals: []model.MealCandidate{}}
				for _, meal := range catalog {
					if mentions(meal, kw) {
						out.Meals = append(out.Meals, meal)
					}
				}
				return out, nil
			}

			return &SearchMealOutput{Meals: []model.MealCandidate{}}, nil
		},
	)
}

func mentions(meal model.MealCandidate, keyword string) bool {
	if strings.Contains(Normalize(meal.Name), keyword) {
		return true
	}
	for _, ing := range meal.Ingredients {
		if strings.Contains(Normalize(ing), keyword) {
			return true
		}
	}
	return false
}
