// Package ai generates post drafts through an OpenAI-compatible provider.
package ai

import (
	"context"
	"time"
)

// DraftRequest describes the post an operator wants drafted.
type DraftRequest struct {
	Topic string `json:"topic"`
	Notes string `json:"notes,omitzero"`
	Tone  string `json:"tone,omitzero"`
}

// Draft is a generated post the operator can edit before publishing.
type Draft struct {
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt,omitzero"`
	Body        string    `json:"body"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Generator produces post drafts.
type Generator interface {
	GenerateDraft(ctx context.Context, req DraftRequest) (Draft, error)
}
