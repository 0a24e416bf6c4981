package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestClient_SubscribeAndReceive(t *testing.T) {
	subscribed := make(chan SubscribeMessage, 1)
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub SubscribeMessage
		if err := json.Unmarshal(data, &sub); err == nil {
			subscribed <- sub
		}

		conn.WriteMessage(websocket.TextMessage, []byte("PONG"))
		conn.WriteMessage(websocket.TextMessage, []byte(`[{"event_type":"book","asset_id":"tok","bids":[{"price":"0.4","size":"1"}],"asks":[]}]`))

		// Hold the connection open until the client goes away.
		conn.ReadMessage()
	}))
	defer server.Close()

	received := make(chan []Message, 4)
	client := NewClient(func(messages []Message) { received <- messages }).
		WithURL("ws" + strings.TrimPrefix(server.URL, "http"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("expected connected")
	}
	if err := client.Subscribe([]string{"tok"}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	select {
	case sub := <-subscribed:
		if len(sub.AssetsIDs) != 1 || sub.AssetsIDs[0] != "tok" || sub.Type != "market" {
			t.Errorf("unexpected subscribe: %+v", sub)
		}
	case <-ctx.Done():
		t.Fatal("server never saw a subscribe")
	}

	select {
	case msgs := <-received:
		if len(msgs) != 1 || msgs[0].EventType != EventTypeBook {
			t.Errorf("unexpected messages: %+v", msgs)
		}
	case <-ctx.Done():
		t.Fatal("no message received")
	}
}

func TestClient_SubscribeWithoutConnection(t *testing.T) {
	if err := NewClient(nil).Subscribe([]string{"tok"}); err == nil {
		t.Error("expected error when not connected")
	}
}

func TestClient_MaxRetries(t *testing.T) {
	client := NewClient(nil).
		WithURL("ws://127.0.0.1:1").
		WithReconnectConfig(ReconnectConfig{InitialBackoff: time.Millisecond, MaxRetries: 2})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Connect(ctx); err == nil || !strings.Contains(err.Error(), "max retries") {
		t.Errorf("expected max retries error, got %v", err)
	}
}
