package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/inkwellhq/inkwell/internal/platform/errors"
)

const defaultResponsesURL = "https://api.openai.com/v1/responses"

// OpenAIConfig configures the OpenAI-compatible draft generator.
type OpenAIConfig struct {
	// ResponsesURL overrides the responses endpoint, e.g. for a proxy or a
	// compatible provider. Defaults to the OpenAI API.
	ResponsesURL string
	APIKey       string
	Model        string
	HTTPClient   *http.Client
	Now          func() time.Time
}

type openAIGenerator struct {
	cfg OpenAIConfig
}

// NewOpenAIGenerator builds a Generator backed by an OpenAI-compatible
// responses endpoint.
func NewOpenAIGenerator(cfg OpenAIConfig) (Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	if strings.TrimSpace(cfg.ResponsesURL) == "" {
		cfg.ResponsesURL = defaultResponsesURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &openAIGenerator{cfg: cfg}, nil
}

const draftInstructions = `You draft blog posts. Respond with a single JSON object
with keys "title", "excerpt" and "body". The body is Markdown without a
leading title heading. Do not wrap the JSON in code fences.`

func (g *openAIGenerator) GenerateDraft(ctx context.Context, req DraftRequest) (Draft, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return Draft{}, apperrors.E(apperrors.KindInvalidInput, "draft topic is required")
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Write a blog post about: %s\n", topic)
	if tone := strings.TrimSpace(req.Tone); tone != "" {
		fmt.Fprintf(&prompt, "Tone: %s\n", tone)
	}
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		fmt.Fprintf(&prompt, "Notes from the author:\n%s\n", notes)
	}

	requestBody, err := json.Marshal(map[string]any{
		"model":        g.cfg.Model,
		"instructions": draftInstructions,
		"input":        prompt.String(),
	})
	if err != nil {
		return Draft{}, fmt.Errorf("marshal draft request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.ResponsesURL, bytes.NewReader(requestBody))
	if err != nil {
		return Draft{}, fmt.Errorf("build draft request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	// Credential material is sent only as an Authorization header and is never
	// echoed in errors or response payloads.
	httpReq.Header.Set("Authorization", "Bearer "+strings.TrimSpace(g.cfg.APIKey))

	res, err := g.cfg.HTTPClient.Do(httpReq)
	if err != nil {
		return Draft{}, apperrors.Wrap(apperrors.KindUnavailable, "draft request failed", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, err := io.ReadAll(io.LimitReader(res.Body, 4096))
		if err != nil {
			return Draft{}, fmt.Errorf("read draft error body: %w", err)
		}
		return Draft{}, apperrors.Wrap(apperrors.KindUnavailable, "draft provider error",
			fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(body))))
	}

	outputText, err := decodeOutputText(res.Body)
	if err != nil {
		return Draft{}, err
	}
	draft, err := parseDraft(outputText)
	if err != nil {
		return Draft{}, err
	}
	draft.GeneratedAt = g.cfg.Now().UTC()
	return draft, nil
}

func decodeOutputText(body io.Reader) (string, error) {
	var payload struct {
		OutputText string `json:"output_text"`
		Output     []struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode draft response: %w", err)
	}
	outputText := strings.TrimSpace(payload.OutputText)
	if outputText == "" {
		for _, item := range payload.Output {
			for _, content := range item.Content {
				if strings.TrimSpace(content.Text) != "" {
					outputText = strings.TrimSpace(content.Text)
					break
				}
			}
			if outputText != "" {
				break
			}
		}
	}
	if outputText == "" {
		return "", fmt.Errorf("draft response missing output text")
	}
	return outputText, nil
}

// parseDraft reads the model's JSON draft. Models sometimes wrap JSON in code
// fences despite instructions, so fences are stripped before decoding. Output
// that is not JSON at all becomes a body-only draft titled by its first line.
func parseDraft(outputText string) (Draft, error) {
	trimmed := strings.TrimSpace(outputText)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var draft Draft
	if err := json.Unmarshal([]byte(trimmed), &draft); err == nil {
		draft.Title = strings.TrimSpace(draft.Title)
		draft.Body = strings.TrimSpace(draft.Body)
		draft.Excerpt = strings.TrimSpace(draft.Excerpt)
		if draft.Title != "" && draft.Body != "" {
			return draft, nil
		}
	}

	line, rest, _ := strings.Cut(trimmed, "\n")
	title := strings.TrimSpace(strings.TrimLeft(line, "# "))
	body := strings.TrimSpace(rest)
	if body == "" {
		body = trimmed
	}
	if title == "" {
		return Draft{}, fmt.Errorf("draft output is empty")
	}
	return Draft{Title: title, Body: body}, nil
}
