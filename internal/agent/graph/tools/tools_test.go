package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-mealplan/server/internal/agent/model"
)

var testCatalog = []model.MealCandidate{
	{Name: "Phở Gà", Ingredients: []string{"Thịt gà (200g)", "Bánh phở (150g)"}},
	{Name: "Canh Chua Cá Lóc", Ingredients: []string{"Cá lóc (300g)", "Cà chua"}},
	{Name: "Cơm Tấm Sườn Nướng", Ingredients: []string{"Sườn lợn (250g)", "Gạo tấm"}},
}

func TestSearchMeal_ByName(t *testing.T) {
	mt := NewMealTools(testCatalog)
	out, err := Invoke[SearchMealOutput](context.Background(), mt.Search, SearchMealInput{Query: "Cho tôi thông tin về PHỞ GÀ"})
	require.NoError(t, err)
	assert.True(t, out.ByName)
	assert.Equal(t, "Phở Gà", out.Target)
	require.Len(t, out.Meals, 1)
}

func TestSearchMeal_ByKeyword(t *testing.T) {
	mt := NewMealTools(testCatalog)
	out, err := Invoke[SearchMealOutput](context.Background(), mt.Search, SearchMealInput{Query: "món nào có thịt"})
	require.NoError(t, err)
	assert.False(t, out.ByName)
	assert.Equal(t, "thịt", out.Target)
	require.Len(t, out.Meals, 1)
	assert.Equal(t, "Phở Gà", out.Meals[0].Name)

	out, err = Invoke[SearchMealOutput](context.Background(), mt.Search, SearchMealInput{Query: "xin chào"})
	require.NoError(t, err)
	assert.Empty(t, out.Target)
	assert.Empty(t, out.Meals)
}

func TestSearchMeal_RequiresQuery(t *testing.T) {
	mt := NewMealTools(testCatalog)
	_, err := Invoke[SearchMealOutput](context.Background(), mt.Search, SearchMealInput{})
	assert.Error(t, err)
}

func TestMealDetails(t *testing.T) {
	mt := NewMealTools(testCatalog)
	out, err := Invoke[model.SearchDetails](context.Background(), mt.Details, MealDetailsInput{Name: "Canh Chua Cá Lóc"})
	require.NoError(t, err)
	assert.Equal(t, "Canh Chua Cá Lóc", out.Meal.Name)
	assert.Equal(t, "Thông tin chi tiết về món Canh Chua Cá Lóc", out.AdditionalInfo)
	assert.Len(t, out.HealthBenefits, 4)
	assert.Equal(t, []string{
		"Canh Chua Cá Lóc miền Bắc",
		"Canh Chua Cá Lóc miền Trung",
		"Canh Chua Cá Lóc miền Nam",
		"Canh Chua Cá Lóc chay",
	}, out.PopularVariants)

	_, err = Invoke[model.SearchDetails](context.Background(), mt.Details, MealDetailsInput{Name: "Bún Riêu"})
	assert.Error(t, err)
}

func TestGetAllTools(t *testing.T) {
	mt := NewMealTools(nil)
	names := []string{}
	for _, bt := range mt.GetAllTools() {
		info, err := bt.Info(context.Background())
		require.NoError(t, err)
		names = append(names, info.Name)
	}
	assert.Equal(t, []string{"search_meal", "meal_details"}, names)
}
