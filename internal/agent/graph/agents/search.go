package agents

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/Chative-mealplan/server/internal/agent/graph/tools"
	"github.com/Chative-mealplan/server/internal/agent/model"
)

// SearchAgent answers "tell me about X" through the catalog tools. It never
// calls a model.
type SearchAgent struct{}

func NewSearchAgent() *SearchAgent { return &SearchAgent{} }

func (SearchAgent) Name() string { return model.AgentSearch }

func (SearchAgent) Process(ctx context.Context, s *model.PipelineState, _ *RunContext) (*model.PipelineState, error) {
	out := s.Clone()
	out.SearchResults = nil
	out.SearchQuery = s.Query
	if strings.TrimSpace(s.Query) == "" {
		return out, nil
	}

	mt := tools.NewMealTools(s.Catalog)
	found, err := tools.Invoke[tools.SearchMealOutput](ctx, mt.Search, tools.SearchMealInput{Query: s.Query})
	if err != nil {
		return nil, err
	}

	var results []model.SearchResult
	if found.ByName {
		details, err := tools.Invoke[model.SearchDetails](ctx, mt.Details, tools.MealDetailsInput{Name: found.Target})
		if err != nil {
			return nil, err
		}
		results = append(results, model.SearchResult{Name: found.Target, Details: *details})
	} else {
		for _, meal := range found.Meals {
			results = append(results, model.SearchResult{
				Name: meal.Name,
				Details: model.SearchDetails{
					Meal:           meal,
					Relevance:      "Món này có liên quan đến " + found.Target,
					AdditionalInfo: tools.DetailsLine(meal.Name),
				},
			})
		}
	}

	if len(results) > 0 {
		out.SearchResults = results
	}
	if found.Target != "" {
		out.SearchQuery = found.Target
	}
	return out, nil
}

func (SearchAgent) Diagnostic(s *model.PipelineState) string {
	if len(s.SearchResults) == 0 {
		return ""
	}
	b, err := json.MarshalIndent(s.SearchResults, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}
