package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/OpenAgentsInc/commander-sub000/internal/ai"
	"github.com/OpenAgentsInc/commander-sub000/internal/ai/ollama"
	"github.com/OpenAgentsInc/commander-sub000/internal/config"
	"github.com/OpenAgentsInc/commander-sub000/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gemma3:1b", req["model"])
		assert.Equal(t, false, req["stream"])

		json.NewEncoder(w).Encode(map[string]any{
			"model": "gemma3:1b",
			"message": map[string]string{
				"role":    "assistant",
				"content": "Paris.",
			},
			"prompt_eval_count": 12,
			"eval_count":        3,
		})
	}))
	defer srv.Close()

	p := ollama.NewProvider(config.OllamaConfig{BaseURL: srv.URL, Model: "gemma3:1b"}, 5*time.Second)

	out, err := p.Complete(context.Background(), "", []models.ChatMessage{
		{Role: "user", Content: "What is the capital of France?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Paris.", out.Content)
	assert.Equal(t, 12, out.Usage.PromptTokens)
	assert.Equal(t, 3, out.Usage.CompletionTokens)
	assert.Equal(t, 15, out.Usage.TotalTokens)
}

func TestComplete_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := ollama.NewProvider(config.OllamaConfig{BaseURL: srv.URL, Model: "gemma3:1b"}, 5*time.Second)

	_, err := p.Complete(context.Background(), "gemma3:1b", []models.ChatMessage{{Role: "user", Content: "hi"}})
	require.ErrorIs(t, err, ai.ErrProviderUnavailable)
}

func TestComplete_EmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"model": "gemma3:1b", "message": map[string]string{"content": ""}})
	}))
	defer srv.Close()

	p := ollama.NewProvider(config.OllamaConfig{BaseURL: srv.URL, Model: "gemma3:1b"}, 5*time.Second)

	_, err := p.Complete(context.Background(), "gemma3:1b", []models.ChatMessage{{Role: "user", Content: "hi"}})
	require.ErrorIs(t, err, ai.ErrInvalidResponse)
}

func TestComplete_Unreachable(t *testing.T) {
	p := ollama.NewProvider(config.OllamaConfig{BaseURL: "http://127.0.0.1:1", Model: "gemma3:1b"}, time.Second)

	_, err := p.Complete(context.Background(), "gemma3:1b", []models.ChatMessage{{Role: "user", Content: "hi"}})
	require.Error(t, err)
}
