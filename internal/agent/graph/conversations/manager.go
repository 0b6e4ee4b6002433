// Package conversations prepares chat history for classification and
// prompt building.
package conversations

import (
	"strings"

	"github.com/Chative-mealplan/server/internal/agent/model"
)

// FilterThinking drops transient thinking turns. The input is not modified.
func FilterThinking(turns []model.ChatTurn) []model.ChatTurn {
	out := make([]model.ChatTurn, 0, len(turns))
	for _, t := range turns {
		if t.Role == model.RoleThinking {
			continue
		}
		out = append(out, t)
	}
	return out
}

// RecentTurns returns a copy of the last maxTurns turns.
func RecentTurns(turns []model.ChatTurn, maxTurns int) []model.ChatTurn {
	if maxTurns < 0 {
		maxTurns = 0
	}
	source := turns
	if len(turns) > maxTurns {
		source = turns[len(turns)-maxTurns:]
	}
	result := make([]model.ChatTurn, len(source))
	copy(result, source)
	return result
}

// FormatTurns renders user and assistant turns as "Người dùng: ..." and
// "Trợ lý: ..." lines. Other roles and empty turns are skipped.
func FormatTurns(turns []model.ChatTurn) string {
	var b strings.Builder
	for _, t := range turns {
		content := strings.TrimSpace(t.Content)
		if content == "" {
			continue
		}
		switch t.Role {
		case model.RoleUser:
			b.WriteString("Người dùng: " + content + "\n")
		case model.RoleAssistant:
			b.WriteString("Trợ lý: " + content + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
