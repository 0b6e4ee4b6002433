package conversations

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Chative-mealplan/server/internal/agent/model"
)

func turns(roles ...model.TurnRole) []model.ChatTurn {
	out := make([]model.ChatTurn, len(roles))
	for i, r := range roles {
		out[i] = model.ChatTurn{Role: r, Content: string(r) + string(rune('a'+i))}
	}
	return out
}

func TestFilterThinking(t *testing.T) {
	in := turns(model.RoleUser, model.RoleThinking, model.RoleAssistant, model.RoleThinking)
	out := FilterThinking(in)
	assert.Len(t, out, 2)
	assert.Equal(t, model.RoleUser, out[0].Role)
	assert.Equal(t, model.RoleAssistant, out[1].Role)
	assert.Len(t, in, 4)
}

func TestRecentTurns(t *testing.T) {
	in := turns(model.RoleUser, model.RoleAssistant, model.RoleUser, model.RoleAssistant)
	out := RecentTurns(in, 3)
	assert.Equal(t, in[1:], out)

	out[0].Content = "changed"
	assert.NotEqual(t, "changed", in[1].Content)

	assert.Equal(t, in, RecentTurns(in, 10))
	assert.Empty(t, RecentTurns(in, 0))
}

func TestFormatTurns(t *testing.T) {
	in := []model.ChatTurn{
		{Role: model.RoleUser, Content: " Tôi muốn ăn phở "},
		{Role: model.RoleSystem, Content: "ignored"},
		{Role: model.RoleAssistant, Content: "Phở Gà nhé"},
		{Role: model.RoleUser, Content: "  "},
	}
	assert.Equal(t, "Người dùng: Tôi muốn ăn phở\nTrợ lý: Phở Gà nhé", FormatTurns(in))
}
