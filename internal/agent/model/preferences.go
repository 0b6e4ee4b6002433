package model

type MacroPreferences struct {
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Fat         float64 `json:"fat"`
	ProteinGoal float64 `json:"proteinGoal"`
	CarbGoal    float64 `json:"carbGoal"`
	FatGoal     float64 `json:"fatGoal"`
}

// UserPreferences is owned by the UI layer and passed through unchanged.
type UserPreferences struct {
	Age              int              `json:"age"`
	Gender           string           `json:"gender"`
	Weight           float64          `json:"weight"`
	Height           float64          `json:"height"`
	ActivityLevel    string           `json:"activityLevel"`
	HealthGoals      []string         `json:"healthGoals"`
	WeightGoal       string           `json:"weightGoal"`
	TargetWeight     float64          `json:"targetWeight"`
	CalorieGoal      int              `json:"calorieGoal"`
	MacroPreferences MacroPreferences `json:"macroPreferences"`
	DietaryType      string           `json:"dietaryType"`
	IsVegetarian     bool             `json:"isVegetarian"`
	IsVegan          bool             `json:"isVegan"`
	IsPescatarian    bool             `json:"isPescatarian"`
	IsKeto           bool             `json:"isKeto"`
	IsLowCarb        bool             `json:"isLowCarb"`
	IsGlutenFree     bool             `json:"isGlutenFree"`
	IsDairyFree      bool             `json:"isDairyFree"`
	Allergies        []string         `json:"allergies"`
	SpiceLevel       string           `json:"spiceLevel"`
}

// Restrictions lists the active dietary restriction flags in Vietnamese.
func (p *UserPreferences) Restrictions() []string {
	if p == nil {
		return nil
	}
	var out []string
	flags := []struct {
		on    bool
		label string
	}{
		{p.IsVegetarian, "Ăn chay"},
		{p.IsVegan, "Ăn thuần chay"},
		{p.IsPescatarian, "Ăn chay và hải sản"},
		{p.IsKeto, "Chế độ Keto"},
		{p.IsLowCarb, "Ít carb"},
		{p.IsGlutenFree, "Không gluten"},
		{p.IsDairyFree, "Không lactose"},
	}
	for _, f := range flags {
		if f.on {
			out = append(out, f.label)
		}
	}
	return out
}
