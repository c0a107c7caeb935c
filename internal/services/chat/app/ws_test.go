package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/websocket"

	"github.com/inkwellhq/inkwell/internal/services/chat"
)

func dialWS(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/live-chat/ws" + query
	conn, err := websocket.Dial(wsURL, "", srv.URL)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	var frame wsFrame
	if err := json.NewDecoder(conn).Decode(&frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return frame
}

func readFrameOfType(t *testing.T, conn *websocket.Conn, frameType string) wsFrame {
	t.Helper()
	for i := 0; i < 10; i++ {
		frame := readFrame(t, conn)
		if frame.Type == frameType {
			return frame
		}
	}
	t.Fatalf("no %s frame received", frameType)
	return wsFrame{}
}

func sendFrame(t *testing.T, conn *websocket.Conn, frame wsFrame) {
	t.Helper()
	if err := json.NewEncoder(conn).Encode(frame); err != nil {
		t.Fatalf("send frame: %v", err)
	}
}

func TestWSPresenceSnapshotOnConnect(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.handler)
	t.Cleanup(srv.Close)

	conn := dialWS(t, srv, "")
	frame := readFrameOfType(t, conn, chat.FrameTypePresence)

	var event chat.PresenceEvent
	if err := json.Unmarshal(frame.Payload, &event); err != nil {
		t.Fatalf("decode presence payload: %v", err)
	}
	if event.IsOnline {
		t.Fatal("expected offline snapshot")
	}
}

func TestWSPresenceChangeReachesWidget(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.handler)
	t.Cleanup(srv.Close)

	conn := dialWS(t, srv, "")
	readFrameOfType(t, conn, chat.FrameTypePresence) // snapshot

	request, err := http.NewRequest(http.MethodPut, srv.URL+"/live-chat/presence", strings.NewReader(`{"is_online":true}`))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	request.Header.Set("Authorization", "Bearer "+env.operatorToken(t))
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		t.Fatalf("put presence: %v", err)
	}
	_ = response.Body.Close()
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", response.StatusCode)
	}

	frame := readFrameOfType(t, conn, chat.FrameTypePresence)
	var event chat.PresenceEvent
	if err := json.Unmarshal(frame.Payload, &event); err != nil {
		t.Fatalf("decode presence payload: %v", err)
	}
	if !event.IsOnline {
		t.Fatal("expected online update")
	}
}

func TestWSOperatorSetsPresence(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.handler)
	t.Cleanup(srv.Close)

	conn := dialWS(t, srv, "?token="+env.operatorToken(t))
	readFrameOfType(t, conn, chat.FrameTypePresence) // snapshot

	sendFrame(t, conn, wsFrame{Type: "presence.set", Payload: json.RawMessage(`{"is_online":true}`)})

	frame := readFrameOfType(t, conn, chat.FrameTypePresence)
	var event chat.PresenceEvent
	if err := json.Unmarshal(frame.Payload, &event); err != nil {
		t.Fatalf("decode presence payload: %v", err)
	}
	if !event.IsOnline {
		t.Fatal("expected online update via websocket")
	}
}

func TestWSVisitorCannotSetPresence(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.handler)
	t.Cleanup(srv.Close)

	conn := dialWS(t, srv, "")
	readFrameOfType(t, conn, chat.FrameTypePresence) // snapshot

	sendFrame(t, conn, wsFrame{Type: "presence.set", Payload: json.RawMessage(`{"is_online":true}`)})

	frame := readFrameOfType(t, conn, "chat.error")
	var envelope wsErrorEnvelope
	if err := json.Unmarshal(frame.Payload, &envelope); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if envelope.Error.Code != "UNAUTHORIZED" {
		t.Fatalf("expected UNAUTHORIZED, got %q", envelope.Error.Code)
	}
}

func TestWSOperatorNotificationFlow(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.handler)
	t.Cleanup(srv.Close)

	conn := dialWS(t, srv, "?token="+env.operatorToken(t))
	readFrameOfType(t, conn, chat.FrameTypePresence) // snapshot

	response, err := http.Post(srv.URL+"/live-chat/messages", "application/json", strings.NewReader(`{"body":"anyone there?"}`))
	if err != nil {
		t.Fatalf("post message: %v", err)
	}
	_ = response.Body.Close()
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", response.StatusCode)
	}

	frame := readFrameOfType(t, conn, chat.FrameTypeChatNotification)
	var notification chat.ChatNotification
	if err := json.Unmarshal(frame.Payload, &notification); err != nil {
		t.Fatalf("decode notification: %v", err)
	}
	if notification.ChatID == "" {
		t.Fatal("expected chat id on notification")
	}
	if notification.Preview != "anyone there?" {
		t.Fatalf("unexpected preview %q", notification.Preview)
	}

	sendFrame(t, conn, wsFrame{Type: "notification.get", RequestID: "r1"})
	state := readFrameOfType(t, conn, "notification.state")
	var payload notificationStatePayload
	if err := json.Unmarshal(state.Payload, &payload); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if !payload.Active || payload.Notification == nil {
		t.Fatalf("expected active notification, got %+v", payload)
	}

	sendFrame(t, conn, wsFrame{Type: "notification.dismiss", RequestID: "r2"})
	state = readFrameOfType(t, conn, "notification.state")
	if err := json.Unmarshal(state.Payload, &payload); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if payload.Active {
		t.Fatal("expected dismissed notification state")
	}

	// A later message repopulates the banner; dismissal is not remembered.
	response, err = http.Post(srv.URL+"/live-chat/messages", "application/json", strings.NewReader(`{"body":"still waiting"}`))
	if err != nil {
		t.Fatalf("post second message: %v", err)
	}
	_ = response.Body.Close()
	readFrameOfType(t, conn, chat.FrameTypeChatNotification)

	sendFrame(t, conn, wsFrame{Type: "notification.get", RequestID: "r3"})
	state = readFrameOfType(t, conn, "notification.state")
	payload = notificationStatePayload{}
	if err := json.Unmarshal(state.Payload, &payload); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if !payload.Active {
		t.Fatal("expected banner to repopulate after dismissal")
	}
}

func TestWSRejectsUnknownFrameType(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.handler)
	t.Cleanup(srv.Close)

	conn := dialWS(t, srv, "")
	readFrameOfType(t, conn, chat.FrameTypePresence) // snapshot

	sendFrame(t, conn, wsFrame{Type: "bogus"})
	frame := readFrameOfType(t, conn, "chat.error")
	var envelope wsErrorEnvelope
	if err := json.Unmarshal(frame.Payload, &envelope); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if envelope.Error.Code != "INVALID_ARGUMENT" {
		t.Fatalf("expected INVALID_ARGUMENT, got %q", envelope.Error.Code)
	}
}

func TestWSDisconnectReleasesSubscription(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.handler)
	t.Cleanup(srv.Close)

	conn := dialWS(t, srv, "")
	readFrameOfType(t, conn, chat.FrameTypePresence) // snapshot
	if got := env.hub.SubscriberCount(); got != 1 {
		t.Fatalf("subscribers = %d, want 1", got)
	}

	if err := conn.Close(); err != nil {
		t.Fatalf("close websocket: %v", err)
	}

	// Teardown must not depend on further hub traffic to complete.
	deadline := time.Now().Add(2 * time.Second)
	for env.hub.SubscriberCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscription leaked after disconnect: subscribers=%d", env.hub.SubscriberCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
