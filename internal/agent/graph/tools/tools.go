// Package tools exposes catalog lookups as eino tools.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/tool"

	"github.com/Chative-mealplan/server/internal/agent/model"
)

// MealTools are bound to one run's catalog.
type MealTools struct {
	Search  tool.InvokableTool
	Details tool.InvokableTool
}

func NewMealTools(catalog []model.MealCandidate) *MealTools {
	return &MealTools{
		Search:  createSearchMealTool(catalog),
		Details: createMealDetailsTool(catalog),
	}
}

// GetAllTools returns the tools in registration order.
func (m *MealTools) GetAllTools() []tool.BaseTool {
	return []tool.BaseTool{m.Search, m.Details}
}

// Invoke runs t with in encoded as JSON arguments and decodes the result
// into Out. Tool callbacks fire around the call.
func Invoke[Out any](ctx context.Context, t tool.InvokableTool, in any) (*Out, error) {
	info, err := t.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("tool info: %w", err)
	}
	args, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal %s arguments: %w", info.Name, err)
	}

	ctx = callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      info.Name,
		Type:      "MealTool",
		Component: components.ComponentOfTool,
	})
	ctx = callbacks.OnStart(ctx, &tool.CallbackInput{ArgumentsInJSON: string(args)})

	resp, err := t.InvokableRun(ctx, string(args))
	if err != nil {
		callbacks.OnError(ctx, err)
		return nil, fmt.Errorf("%s: %w", info.Name, err)
	}
	callbacks.OnEnd(ctx, &tool.CallbackOutput{Response: resp})

	var out Out
	if err := json.Unmarshal([]byte(resp), &out); err != nil {
		return nil, fmt.Errorf("unmarshal %s result: %w", info.Name, err)
	}
	return &out, nil
}
