package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/inkwellhq/inkwell/internal/services/ai"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DraftGenerateInput represents the MCP tool input for AI draft generation.
type DraftGenerateInput struct {
	Topic string `json:"topic" jsonschema:"what the post should cover"`
	Notes string `json:"notes,omitempty" jsonschema:"optional talking points or source material"`
	Tone  string `json:"tone,omitempty" jsonschema:"optional tone, e.g. conversational or technical"`
}

// DraftGenerateResult represents the MCP tool output for AI draft generation.
type DraftGenerateResult struct {
	Title       string `json:"title" jsonschema:"suggested post title"`
	Excerpt     string `json:"excerpt" jsonschema:"suggested short summary"`
	Body        string `json:"body" jsonschema:"suggested markdown body"`
	GeneratedAt string `json:"generated_at" jsonschema:"generation time (RFC 3339)"`
}

// DraftGenerateTool defines the MCP tool schema for AI draft generation.
func DraftGenerateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "draft_generate",
		Description: "Generates a blog post draft from a topic; the draft is returned, not saved",
	}
}

// DraftGenerateHandler asks the configured generator for a post draft.
func DraftGenerateHandler(generator ai.Generator) mcp.ToolHandlerFor[DraftGenerateInput, DraftGenerateResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DraftGenerateInput) (*mcp.CallToolResult, DraftGenerateResult, error) {
		if generator == nil {
			return nil, DraftGenerateResult{}, fmt.Errorf("draft generation is not configured")
		}

		draft, err := generator.GenerateDraft(ctx, ai.DraftRequest{
			Topic: input.Topic,
			Notes: input.Notes,
			Tone:  input.Tone,
		})
		if err != nil {
			return nil, DraftGenerateResult{}, fmt.Errorf("draft generate failed: %w", err)
		}

		return nil, DraftGenerateResult{
			Title:       draft.Title,
			Excerpt:     draft.Excerpt,
			Body:        draft.Body,
			GeneratedAt: draft.GeneratedAt.UTC().Format(time.RFC3339),
		}, nil
	}
}
