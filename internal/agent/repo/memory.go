// Package repo stores what the pipeline remembers about past interactions.
package repo

import (
	"context"
	"slices"
	"sync"

	"github.com/Chative-mealplan/server/internal/agent/model"
)

// MemoryInteractionRepository keeps interactions in process. It is used
// when no Redis is configured and in tests.
type MemoryInteractionRepository struct {
	mu    sync.RWMutex
	users map[string][]model.Interaction
}

func NewMemoryInteractionRepository() *MemoryInteractionRepository {
	return &MemoryInteractionRepository{users: make(map[string][]model.Interaction)}
}

func (r *MemoryInteractionRepository) Save(_ context.Context, userID string, interaction model.Interaction) error {
	r.mu.Lock()
	r.users[userID] = append(r.users[userID], interaction)
	r.mu.Unlock()
	return nil
}

func (r *MemoryInteractionRepository) History(_ context.Context, userID string) ([]model.Interaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := slices.Clone(r.users[userID])
	if out == nil {
		out = []model.Interaction{}
	}
	return out, nil
}

func (r *MemoryInteractionRepository) Clear(_ context.Context, userID string) error {
	r.mu.Lock()
	delete(r.users, userID)
	r.mu.Unlock()
	return nil
}

func (r *MemoryInteractionRepository) Count(_ context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID]), nil
}

var _ model.InteractionRepository = (*MemoryInteractionRepository)(nil)
