// Package models contains shared data models used across the DVM codebase.
package models

import "context"

// InferenceProvider is the core interface that all inference backends must
// implement. Never call a specific backend directly — always inject this
// interface.
type InferenceProvider interface {
	// Complete turns a chat prompt into completion text plus token usage.
	Complete(ctx context.Context, model string, messages []ChatMessage) (Completion, error)
	// Name returns the provider identifier (e.g., "ollama", "openai").
	Name() string
}

// ChatMessage is a single turn in a chat-style prompt.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage reports token accounting for one completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the output of an inference call.
type Completion struct {
	Content string `json:"content"`
	Model   string `json:"model"`
	Usage   Usage  `json:"usage"`
}
