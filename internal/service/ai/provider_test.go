package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sortify-app/sortify/backend/internal/config"
	"github.com/sortify-app/sortify/backend/internal/model/chat"
)

func TestOpenAIProviderComplete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Hej!"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", srv.URL+"/v1/", "claude-test")
	text, err := p.Complete(context.Background(), Request{
		System:    "sys",
		Messages:  []chat.Message{{Role: chat.RoleUser, Content: "hej"}, {Role: chat.RoleAssistant, Content: "hallå"}},
		MaxTokens: 500,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hej!", text)

	assert.Equal(t, "claude-test", got["model"])
	assert.EqualValues(t, 500, got["max_tokens"])
	messages := got["messages"].([]any)
	require.Len(t, messages, 3)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "assistant", messages[2].(map[string]any)["role"])
}

func TestOpenAIProviderNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
	}))
	defer srv.Close()

	text, err := NewOpenAIProvider("k", srv.URL, "m").Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestOpenAIProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid x-api-key","type":"authentication_error"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIProvider("bad", srv.URL, "m").Complete(context.Background(), Request{})
	assert.Error(t, err)
}

func TestNewProviderSelection(t *testing.T) {
	p, err := NewProvider(context.Background(), config.AIConfig{})
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = NewProvider(context.Background(), config.AIConfig{
		AnthropicAPIKey:  "sk",
		AnthropicModel:   config.DefaultAnthropicModel,
		AnthropicBaseURL: "https://api.anthropic.com/v1/",
	})
	require.NoError(t, err)
	assert.Equal(t, "openai-compatible:"+config.DefaultAnthropicModel, p.Name())
}
