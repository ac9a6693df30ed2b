package provider

import (
	"context"
	"encoding/json"
	"fmt"
)

const toolName = "create_quest"

// ToolCall is the primary provider. It forces a create_quest function call
// whose arguments are decoded directly.
type ToolCall struct {
	endpoint Endpoint
}

func NewToolCall(e Endpoint) *ToolCall {
	if e.Name == "" {
		e.Name = "openai"
	}
	return &ToolCall{endpoint: e}
}

func (p *ToolCall) Name() string { return p.endpoint.Name }

func (p *ToolCall) Attempt(ctx context.Context, req Request) (Selection, error) {
	choice := &toolChoice{Type: "function"}
	choice.Function.Name = toolName

	resp, err := p.endpoint.complete(ctx, chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User + "\n\nReturn your selections using the tool provided."},
		},
		Tools:      []chatTool{questTool(req.Stops)},
		ToolChoice: choice,
	})
	if err != nil {
		return Selection{}, err
	}

	calls := resp.Choices[0].Message.ToolCalls
	if len(calls) == 0 || calls[0].Function.Name != toolName {
		return Selection{}, fmt.Errorf("%w: no %s tool call", ErrMalformedResponse, toolName)
	}

	var w wireSelection
	if err := json.Unmarshal([]byte(calls[0].Function.Arguments), &w); err != nil {
		return Selection{}, fmt.Errorf("%w: tool arguments: %w", ErrMalformedResponse, err)
	}
	return w.selection()
}

func questTool(stops int) chatTool {
	return chatTool{
		Type: "function",
		Function: toolFunction{
			Name:        toolName,
			Description: "Create a curated quest with selected locations and food stop",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"locationIndices": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "integer"},
						"minItems":    stops,
						"maxItems":    stops,
						"description": fmt.Sprintf("Array of %d indices (1-based) from the available locations list, ordered for the best route", stops),
					},
					"foodStopIndex": map[string]any{
						"type":        "integer",
						"description": "Index (1-based) of the selected food stop",
					},
					"questTheme": map[string]any{
						"type":        "string",
						"description": "A catchy theme or title for this quest",
					},
					"questDescription": map[string]any{
						"type":        "string",
						"description": "A brief personalized description of why these locations were chosen",
					},
				},
				"required":             []string{"locationIndices", "foodStopIndex", "questTheme", "questDescription"},
				"additionalProperties": false,
			},
		},
	}
}
