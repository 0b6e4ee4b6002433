package model

// Nutrition facts of one dish. All values are non-negative.
type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Sodium   float64 `json:"sodium"`
}

// MealCandidate is one dish from the catalog. Catalog entries are shared by
// every agent of a run and must never be modified in place.
type MealCandidate struct {
	Name        string    `json:"name"`
	Ingredients []string  `json:"ingredients"`
	Nutrition   Nutrition `json:"nutrition"`
	Preparation string    `json:"preparation"`
	Price       float64   `json:"price"`
	Source      string    `json:"source,omitempty"`
	SourceName  string    `json:"sourceName,omitempty"`
}

type PlanType string

const (
	PlanDaily  PlanType = "daily"
	PlanWeekly PlanType = "weekly"
)

type DayMeals struct {
	Breakfast []MealCandidate `json:"breakfast"`
	Lunch     []MealCandidate `json:"lunch"`
	Dinner    []MealCandidate `json:"dinner"`
}

type Day struct {
	Label string   `json:"date"`
	Meals DayMeals `json:"meals"`
}

// MealPlan is created by the planner and replaced wholesale by the chat
// processor; nothing else writes it.
type MealPlan struct {
	PlanType              PlanType `json:"type"`
	Days                  []Day    `json:"days"`
	IsPersonalized        bool     `json:"isPersonalized,omitempty"`
	PersonalizationReason string   `json:"personalizationReason,omitempty"`
}

// TotalCalories sums the calories of every meal in the plan.
func (p *MealPlan) TotalCalories() float64 {
	if p == nil {
		return 0
	}
	var total float64
	for _, d := range p.Days {
		for _, slot := range [][]MealCandidate{d.Meals.Breakfast, d.Meals.Lunch, d.Meals.Dinner} {
			for _, m := range slot {
				total += m.Nutrition.Calories
			}
		}
	}
	return total
}

// MealCount is the number of meal slots (breakfast/lunch/dinner) in the plan.
func (p *MealPlan) MealCount() int {
	if p == nil {
		return 0
	}
	return len(p.Days) * 3
}
