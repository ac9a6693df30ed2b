package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Endpoint describes an OpenAI-compatible chat completions backend.
type Endpoint struct {
	Name   string
	URL    string
	APIKey string
	Model  string
	Client *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type toolChoice struct {
	Type     string `json:"type"`
	Function struct {
		Name string `json:"name"`
	} `json:"function"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Tools       []chatTool    `json:"tools,omitempty"`
	ToolChoice  *toolChoice   `json:"tool_choice,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

const (
	// maxErrorBody caps how much of a failed upstream response is kept.
	maxErrorBody = 2048
	// maxResponseBody caps a successful completion.
	maxResponseBody = 1 << 20
)

func (e Endpoint) client() *http.Client {
	if e.Client != nil {
		return e.Client
	}
	return http.DefaultClient
}

func (e Endpoint) complete(ctx context.Context, body chatRequest) (chatResponse, error) {
	var out chatResponse

	if body.Model == "" {
		body.Model = e.Model
	}
	if err := e.post(ctx, body, &out, maxResponseBody); err != nil {
		return out, err
	}
	if len(out.Choices) == 0 {
		return out, fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}
	return out, nil
}

// post sends body as JSON and decodes a 2xx reply of at most limit bytes
// into out. Other statuses come back as *StatusError.
func (e Endpoint) post(ctx context.Context, body, out any, limit int64) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: building request: %w", ErrProviderUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if e.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.APIKey)
	}

	resp, err := e.client().Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProviderUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Provider: e.Name,
			Status:   resp.StatusCode,
			Body:     strings.TrimSpace(string(snippet)),
		}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, limit)).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %w", ErrMalformedResponse, err)
	}
	return nil
}

// wireSelection is the argument shape shared by the tool call and the
// JSON-only text answer. Indices are decoded as floats because models
// sometimes emit 3.0 for 3.
type wireSelection struct {
	LocationIndices  []float64 `json:"locationIndices"`
	FoodStopIndex    float64   `json:"foodStopIndex"`
	QuestTheme       string    `json:"questTheme"`
	QuestDescription string    `json:"questDescription"`
}

func (w wireSelection) selection() (Selection, error) {
	if len(w.LocationIndices) == 0 {
		return Selection{}, fmt.Errorf("%w: locationIndices missing", ErrMalformedResponse)
	}
	sel := Selection{
		LocationIndices: make([]int, len(w.LocationIndices)),
		FoodStopIndex:   int(w.FoodStopIndex),
		Theme:           strings.TrimSpace(w.QuestTheme),
		Description:     strings.TrimSpace(w.QuestDescription),
	}
	for i, idx := range w.LocationIndices {
		sel.LocationIndices[i] = int(idx)
	}
	return sel, nil
}
