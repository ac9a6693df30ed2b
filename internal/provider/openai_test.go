package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeUpstream(t *testing.T, status int, body string, seen *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func endpoint(url string) Endpoint {
	return Endpoint{URL: url, APIKey: "secret", Model: "test-model", Client: &http.Client{Timeout: 5 * time.Second}}
}

func TestToolCallAttempt(t *testing.T) {
	var seen chatRequest
	srv := fakeUpstream(t, http.StatusOK, `{"choices":[{"message":{"tool_calls":[{"function":{
		"name":"create_quest",
		"arguments":"{\"locationIndices\":[3,1,2,5,4],\"foodStopIndex\":2,\"questTheme\":\"Bay Breeze\",\"questDescription\":\"Salt air.\"}"
	}}]}}]}`, &seen)

	p := NewToolCall(endpoint(srv.URL))
	sel, err := p.Attempt(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, "openai", p.Name())
	assert.Equal(t, []int{3, 1, 2, 5, 4}, sel.LocationIndices)
	assert.Equal(t, 2, sel.FoodStopIndex)
	assert.Equal(t, "Bay Breeze", sel.Theme)

	assert.Equal(t, "test-model", seen.Model)
	require.Len(t, seen.Tools, 1)
	assert.Equal(t, "create_quest", seen.Tools[0].Function.Name)
	require.NotNil(t, seen.ToolChoice)
	assert.Equal(t, "create_quest", seen.ToolChoice.Function.Name)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, "system", seen.Messages[0].Role)
	assert.Equal(t, "sys", seen.Messages[0].Content)
}

func TestToolCallErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"rate limited", 429, `{"error":"slow down"}`, ErrRateLimited},
		{"payment required", 402, `{}`, ErrBillingExhausted},
		{"server error", 503, `oops`, ErrProviderUnreachable},
		{"not json", 200, `<html>`, ErrMalformedResponse},
		{"no choices", 200, `{"choices":[]}`, ErrMalformedResponse},
		{"no tool call", 200, `{"choices":[{"message":{"content":"hi"}}]}`, ErrMalformedResponse},
		{"bad arguments", 200, `{"choices":[{"message":{"tool_calls":[{"function":{"name":"create_quest","arguments":"{oops"}}]}}]}`, ErrMalformedResponse},
		{"empty indices", 200, `{"choices":[{"message":{"tool_calls":[{"function":{"name":"create_quest","arguments":"{\"locationIndices\":[]}"}}]}}]}`, ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := fakeUpstream(t, tt.status, tt.body, nil)
			_, err := NewToolCall(endpoint(srv.URL)).Attempt(context.Background(), testRequest())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestToolCallUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewToolCall(endpoint(url)).Attempt(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrProviderUnreachable)
	assert.False(t, IsTerminal(err))
}

func TestTextAttempt(t *testing.T) {
	var seen chatRequest
	content := "Thinking about {\"locationIndices\":[1],\"foodStopIndex\":9}... final answer:\n" +
		"{\"locationIndices\":[2,3,4,5,6],\"foodStopIndex\":1.0,\"questTheme\":\"Fog City\",\"questDescription\":\"Layers.\"}"
	body, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
	})
	srv := fakeUpstream(t, http.StatusOK, string(body), &seen)

	p := NewText(endpoint(srv.URL))
	sel, err := p.Attempt(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, "dgx", p.Name())
	assert.Equal(t, []int{2, 3, 4, 5, 6}, sel.LocationIndices)
	assert.Equal(t, 1, sel.FoodStopIndex)
	assert.Equal(t, "Fog City", sel.Theme)
	assert.Empty(t, seen.Tools)
	assert.Contains(t, seen.Messages[1].Content, "user")
	assert.Contains(t, seen.Messages[1].Content, "ONLY a JSON object")
}

func TestTextNoJSON(t *testing.T) {
	srv := fakeUpstream(t, http.StatusOK, `{"choices":[{"message":{"content":"I would pick the bridge."}}]}`, nil)
	_, err := NewText(endpoint(srv.URL)).Attempt(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestChainOverHTTP(t *testing.T) {
	var seenSecondary chatRequest
	primary := fakeUpstream(t, http.StatusBadGateway, `bad gateway`, nil)
	secondary := fakeUpstream(t, http.StatusOK,
		`{"choices":[{"message":{"content":"{\"locationIndices\":[1,2,3,4,5],\"foodStopIndex\":1}"}}]}`, &seenSecondary)

	chain := NewChain(time.Second, NewToolCall(endpoint(primary.URL)), NewText(endpoint(secondary.URL)), Fallback{})
	sel, err := chain.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "dgx", sel.Source)
	assert.Equal(t, "sys", seenSecondary.Messages[0].Content)
	assert.Contains(t, seenSecondary.Messages[1].Content, "user")
}

func TestToolCallOversizedResponse(t *testing.T) {
	body := `{"choices":[{"message":{"content":"` + strings.Repeat("a", maxResponseBody) + `"}}]}`
	srv := fakeUpstream(t, http.StatusOK, body, nil)

	_, err := NewToolCall(endpoint(srv.URL)).Attempt(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrMalformedResponse)
}
