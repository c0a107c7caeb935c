package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/inkwellhq/inkwell/internal/platform/authtoken"
	apperrors "github.com/inkwellhq/inkwell/internal/platform/errors"
	"github.com/inkwellhq/inkwell/internal/platform/httpx"
	"github.com/inkwellhq/inkwell/internal/platform/requestctx"
	"github.com/inkwellhq/inkwell/internal/services/chat"
	"github.com/inkwellhq/inkwell/internal/services/chat/visitor"
	"github.com/inkwellhq/inkwell/internal/services/gate"
)

const (
	maxFramePayloadBytes   = 16 * 1024
	maxFramesPerSecond     = 40
	maxDecodeErrorsPerConn = 3
)

type wsFrame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type wsErrorEnvelope struct {
	Error wsError `json:"error"`
}

type wsError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type presenceSetPayload struct {
	IsOnline bool `json:"is_online"`
}

type notificationStatePayload struct {
	Active       bool                   `json:"active"`
	Notification *chat.ChatNotification `json:"notification,omitempty"`
}

type checkBlockedResponse struct {
	Blocked bool `json:"blocked"`
}

type sendMessageRequest struct {
	Body string `json:"body"`
}

type wsPeer struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

func newWSPeer(encoder *json.Encoder) *wsPeer {
	return &wsPeer{encoder: encoder}
}

func (p *wsPeer) writeFrame(frame wsFrame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(frame)
}

// NewHandler creates the live-chat routes.
func NewHandler(service *chat.Service, hub *chat.Hub, accessGate *gate.Gate, tokens authtoken.Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("/live-chat/check-blocked", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		decision := accessGate.CheckAccess(r.Context(), httpx.ClientIP(r), gate.ActionChatCheckBlocked)
		if decision.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(decision.RetryAfter)))
		}
		// Always 200. An unreadable blocklist or exhausted rate budget must
		// never hide the widget from legitimate visitors.
		httpx.WriteJSON(w, http.StatusOK, checkBlockedResponse{Blocked: decision.Blocked})
	})

	mux.HandleFunc("/live-chat/presence", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			event, err := service.Presence(r.Context())
			if err != nil {
				httpx.WriteError(w, err)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, event)
		case http.MethodPut:
			operatorID, err := authtoken.Verify(tokens, authtoken.BearerToken(r))
			if err != nil {
				httpx.WriteError(w, err)
				return
			}
			var payload presenceSetPayload
			if err := httpx.DecodeJSON(r, &payload); err != nil {
				httpx.WriteError(w, err)
				return
			}
			ctx := requestctx.WithOperatorID(r.Context(), operatorID)
			event, err := service.SetPresence(ctx, payload.IsOnline)
			if err != nil {
				httpx.WriteError(w, err)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, event)
		default:
			w.Header().Set("Allow", "GET, PUT")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/live-chat/messages", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			visitorID := visitor.FromRequest(w, r)
			history, err := service.ConversationHistory(r.Context(), visitorID, 0)
			if err != nil {
				httpx.WriteError(w, err)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, map[string]any{"messages": history})
		case http.MethodPost:
			decision := accessGate.CheckAccess(r.Context(), httpx.ClientIP(r), gate.ActionChatMessage)
			if decision.Blocked {
				httpx.WriteError(w, apperrors.E(apperrors.KindForbidden, "address is blocked"))
				return
			}
			if !decision.Allowed {
				if decision.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(decision.RetryAfter)))
				}
				httpx.WriteJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
				return
			}
			var payload sendMessageRequest
			if err := httpx.DecodeJSON(r, &payload); err != nil {
				httpx.WriteError(w, err)
				return
			}
			visitorID := visitor.FromRequest(w, r)
			message, err := service.SubmitVisitorMessage(r.Context(), visitorID, payload.Body)
			if err != nil {
				httpx.WriteError(w, err)
				return
			}
			httpx.WriteJSON(w, http.StatusCreated, message)
		default:
			w.Header().Set("Allow", "GET, POST")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	wsHandler := websocket.Handler(func(conn *websocket.Conn) {
		handleWSConn(conn, service, hub, tokens)
	})
	mux.HandleFunc("/live-chat/ws", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		wsHandler.ServeHTTP(w, r)
	})

	return httpx.Chain(mux, httpx.RequestID("chat"), httpx.RecoverPanic())
}

func retryAfterSeconds(retryAfter time.Duration) int {
	seconds := int((retryAfter + time.Second - 1) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

// wsOperatorID resolves the operator identity for a websocket request.
// Browsers cannot set headers on websocket dials, so the token may also
// arrive as a query parameter.
func wsOperatorID(r *http.Request, tokens authtoken.Config) string {
	if r == nil {
		return ""
	}
	token := authtoken.BearerToken(r)
	if token == "" {
		token = strings.TrimSpace(r.URL.Query().Get("token"))
	}
	if token == "" {
		return ""
	}
	operatorID, err := authtoken.Verify(tokens, token)
	if err != nil {
		log.Printf("chat: websocket token rejected remote=%s: %v", r.RemoteAddr, err)
		return ""
	}
	return operatorID
}

func handleWSConn(conn *websocket.Conn, service *chat.Service, hub *chat.Hub, tokens authtoken.Config) {
	defer func() {
		_ = conn.Close()
	}()

	peer := newWSPeer(json.NewEncoder(conn))
	decoder := json.NewDecoder(conn)

	operatorID := ""
	ctx := context.Background()
	if request := conn.Request(); request != nil {
		ctx = request.Context()
		operatorID = wsOperatorID(request, tokens)
	}

	topics := []chat.Topic{chat.TopicPresence}
	var console *chat.Console
	if operatorID != "" {
		topics = append(topics, chat.TopicChat)
		console = chat.NewConsole()
		ctx = requestctx.WithOperatorID(ctx, operatorID)
	}
	sub := hub.Subscribe(topics...)

	// Snapshot before the stream so a reconnecting client converges even if
	// it missed updates while offline.
	if event, err := service.Presence(ctx); err == nil {
		_ = peer.writeFrame(wsFrame{Type: chat.FrameTypePresence, Payload: mustJSON(event)})
	} else {
		log.Printf("chat: presence snapshot failed: %v", err)
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for frame := range sub.Events() {
			if console != nil && frame.Type == chat.FrameTypeChatNotification {
				var notification chat.ChatNotification
				if err := json.Unmarshal(frame.Payload, &notification); err == nil {
					console.Apply(notification)
				}
			}
			if err := peer.writeFrame(wsFrame{Type: frame.Type, Payload: frame.Payload}); err != nil {
				return
			}
		}
	}()
	// Unsubscribing closes the event channel, which is what lets the writer
	// finish; the order matters or an idle hub would never release either.
	defer func() {
		hub.Unsubscribe(sub)
		<-writerDone
	}()

	windowStart := time.Now()
	framesInWindow := 0
	decodeErrors := 0

	for {
		var frame wsFrame
		if err := decoder.Decode(&frame); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			decodeErrors++
			_ = writeWSError(peer, "", "INVALID_ARGUMENT", "invalid frame payload")
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		if len(frame.Payload) > maxFramePayloadBytes {
			_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "payload too large")
			continue
		}

		now := time.Now()
		if now.Sub(windowStart) >= time.Second {
			windowStart = now
			framesInWindow = 0
		}
		framesInWindow++
		if framesInWindow > maxFramesPerSecond {
			_ = writeWSError(peer, frame.RequestID, "RESOURCE_EXHAUSTED", "rate limit exceeded")
			return
		}

		switch frame.Type {
		case "presence.get":
			event, err := service.Presence(ctx)
			if err != nil {
				_ = writeWSError(peer, frame.RequestID, "UNAVAILABLE", "presence lookup failed")
				continue
			}
			_ = peer.writeFrame(wsFrame{Type: chat.FrameTypePresence, RequestID: frame.RequestID, Payload: mustJSON(event)})
		case "presence.set":
			if operatorID == "" {
				_ = writeWSError(peer, frame.RequestID, "UNAUTHORIZED", "operator authentication required")
				continue
			}
			var payload presenceSetPayload
			if err := json.Unmarshal(frame.Payload, &payload); err != nil {
				_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "invalid presence payload")
				continue
			}
			if _, err := service.SetPresence(ctx, payload.IsOnline); err != nil {
				_ = writeWSError(peer, frame.RequestID, "UNAVAILABLE", "presence update failed")
				continue
			}
			// The update frame itself arrives through the subscription.
		case "notification.dismiss":
			if console == nil {
				_ = writeWSError(peer, frame.RequestID, "UNAUTHORIZED", "operator authentication required")
				continue
			}
			console.Dismiss()
			_ = peer.writeFrame(wsFrame{
				Type:      "notification.state",
				RequestID: frame.RequestID,
				Payload:   mustJSON(notificationStatePayload{Active: false}),
			})
		case "notification.get":
			if console == nil {
				_ = writeWSError(peer, frame.RequestID, "UNAUTHORIZED", "operator authentication required")
				continue
			}
			state := notificationStatePayload{}
			if current, ok := console.Current(); ok {
				state.Active = true
				state.Notification = &current
			}
			_ = peer.writeFrame(wsFrame{Type: "notification.state", RequestID: frame.RequestID, Payload: mustJSON(state)})
		default:
			_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "unsupported frame type")
		}
	}
}

func writeWSError(peer *wsPeer, requestID string, code string, message string) error {
	return peer.writeFrame(wsFrame{
		Type:      "chat.error",
		RequestID: requestID,
		Payload: mustJSON(wsErrorEnvelope{
			Error: wsError{Code: code, Message: message},
		}),
	})
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("failed to marshal websocket frame payload: %v", err)
		return nil
	}
	return b
}
