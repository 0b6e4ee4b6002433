package model

import (
	"context"
	"time"
)

type TurnRole string

const (
	RoleUser      TurnRole = "user"
	RoleAssistant TurnRole = "assistant"
	RoleThinking  TurnRole = "thinking"
	RoleSystem    TurnRole = "system"
)

// ChatTurn is one message of the conversation as kept by the UI layer.
type ChatTurn struct {
	ID        string    `json:"id"`
	Role      TurnRole  `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Interaction is what the pipeline remembers about a finished run.
type Interaction struct {
	Timestamp time.Time `json:"timestamp"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	MealPlan  *MealPlan `json:"mealPlan,omitempty"`
}

type InteractionRepository interface {
	// Save appends an interaction to the user's memory.
	Save(ctx context.Context, userID string, interaction Interaction) error

	// History returns the user's interactions, oldest first.
	History(ctx context.Context, userID string) ([]Interaction, error)

	// Clear removes all interactions of a user.
	Clear(ctx context.Context, userID string) error

	// Count returns the number of stored interactions.
	Count(ctx context.Context, userID string) (int, error)
}
