package provider

import (
	"context"
	"encoding/json"
	"fmt"
)

const jsonOnlyInstruction = `Respond with ONLY a JSON object and nothing else, in exactly this shape:
{"locationIndices": [1, 2, 3, 4, 5], "foodStopIndex": 1, "questTheme": "...", "questDescription": "..."}`

// Text is the secondary provider for plain completion models. The model is
// told to answer with a bare JSON object, and the last such object in its
// output is used.
type Text struct {
	endpoint Endpoint
}

func NewText(e Endpoint) *Text {
	if e.Name == "" {
		e.Name = "dgx"
	}
	return &Text{endpoint: e}
}

func (p *Text) Name() string { return p.endpoint.Name }

func (p *Text) Attempt(ctx context.Context, req Request) (Selection, error) {
	temp := 0.2
	resp, err := p.endpoint.complete(ctx, chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User + "\n\n" + jsonOnlyInstruction},
		},
		Temperature: &temp,
	})
	if err != nil {
		return Selection{}, err
	}

	raw, ok := ExtractLastJSONObject(resp.Choices[0].Message.Content, "locationIndices", "foodStopIndex")
	if !ok {
		return Selection{}, fmt.Errorf("%w: no JSON object with the expected keys", ErrMalformedResponse)
	}

	var w wireSelection
	if err := json.Unmarshal(raw, &w); err != nil {
		return Selection{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return w.selection()
}
