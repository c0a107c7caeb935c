package server

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
	"github.com/inkwellhq/inkwell/internal/services/chat"
)

// PresenceClient toggles operator availability on the chat service.
type PresenceClient interface {
	SetPresence(ctx context.Context, bearerToken string, online bool) (chat.PresenceEvent, error)
}

// ChatPresenceClient calls the chat service's presence endpoint. Routing the
// toggle through the chat process keeps its hub broadcast intact.
type ChatPresenceClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewChatPresenceClient builds a presence client against the chat service.
func NewChatPresenceClient(baseURL string, httpClient *http.Client) *ChatPresenceClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &ChatPresenceClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
	}
}

// SetPresence forwards the operator's bearer token to the chat service.
func (c *ChatPresenceClient) SetPresence(ctx context.Context, bearerToken string, online bool) (chat.PresenceEvent, error) {
	body, err := json.Marshal(map[string]bool{"is_online": online})
	if err != nil {
		return chat.PresenceEvent{}, fmt.Errorf("marshal presence request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/live-chat/presence", bytes.NewReader(body))
	if err != nil {
		return chat.PresenceEvent{}, fmt.Errorf("build presence request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearerToken)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return chat.PresenceEvent{}, apperrors.Wrap(apperrors.KindUnavailable, "chat service unreachable", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		errBody, err := io.ReadAll(io.LimitReader(res.Body, 4096))
		if err != nil {
			return chat.PresenceEvent{}, fmt.Errorf("read presence error body: %w", err)
		}
		return chat.PresenceEvent{}, apperrors.Wrap(apperrors.KindUnavailable, "presence toggle rejected",
			fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(errBody))))
	}

	var event chat.PresenceEvent
	if err := json.NewDecoder(res.Body).Decode(&event); err != nil {
		return chat.PresenceEvent{}, fmt.Errorf("decode presence response: %w", err)
	}
	return event, nil
}
