package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/trytobebee/snake_io/pkg/config"
	"github.com/trytobebee/snake_io/pkg/game"
	"github.com/trytobebee/snake_io/pkg/proto"
	"github.com/trytobebee/snake_io/pkg/scores"
)

func newTestServer(t *testing.T, opts ...func(*Server)) (*httptest.Server, *scores.Store) {
	t.Helper()
	store, err := scores.Open(context.Background())
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	settings := config.Default()
	settings.TickInterval = 10 * time.Millisecond
	settings.Seed = 1

	srv := NewServer(settings, store, io.Discard)
	for _, opt := range opts {
		opt(srv)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func dial(t *testing.T, ts *httptest.Server, subprotocol string) *websocket.Conn {
	t.Helper()
	d := websocket.Dialer{Subprotocols: []string{subprotocol}}
	conn, resp, err := d.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if got := resp.Header.Get("Sec-Websocket-Protocol"); got != subprotocol {
		t.Fatalf("Negotiated %q, want %q", got, subprotocol)
	}
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg ServerMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	return msg
}

func TestWebSocketJSONGameOver(t *testing.T) {
	ts, store := newTestServer(t)
	conn := dial(t, ts, protoJSON)

	msg := readJSON(t, conn)
	if msg.Type != "config" || msg.Config.Width != config.TileCount || msg.Config.TickMs != 10 {
		t.Fatalf("Expected config first, got %+v", msg)
	}

	msg = readJSON(t, conn)
	if msg.Type != "state" || msg.State.Snake[0] != (game.Point{X: 10, Y: 10}) {
		t.Fatalf("Expected initial state, got %+v", msg)
	}

	// Heading right from the centre the snake reaches the wall in ten ticks
	var over *game.GameOverEvent
	for i := 0; i < 50 && over == nil; i++ {
		msg = readJSON(t, conn)
		if msg.Type == "gameover" {
			over = msg.GameOver
		}
	}
	if over == nil {
		t.Fatal("No gameover message")
	}
	if over.Score != 0 || over.CrashPoint != (game.Point{X: config.TileCount, Y: 10}) {
		t.Errorf("Unexpected game over %+v", over)
	}

	msg = readJSON(t, conn)
	if msg.Type != "state" || msg.State.Status != game.Over {
		t.Errorf("Expected final over state, got %+v", msg)
	}

	sum, err := store.Summary(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sum.Games != 1 {
		t.Errorf("Expected 1 recorded game, got %d", sum.Games)
	}
}

func TestWebSocketJSONPause(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dial(t, ts, protoJSON)
	readJSON(t, conn)
	readJSON(t, conn)

	if err := conn.WriteJSON(ClientMessage{Action: "pause"}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		msg := readJSON(t, conn)
		if msg.Type == "state" && msg.State.Status == game.Paused {
			return
		}
	}
	t.Error("Never saw a paused state")
}

func TestWebSocketProtoTurn(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dial(t, ts, protoBinary)

	read := func() proto.ServerMessage {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		typ, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if typ != websocket.BinaryMessage {
			t.Fatalf("Expected a binary frame, got type %d", typ)
		}
		m, err := proto.UnmarshalServerMessage(data)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		return m
	}

	if m := read(); m.State == nil || m.State.Width != config.TileCount {
		t.Fatalf("Expected the initial state first, got %+v", m)
	}

	if err := conn.WriteMessage(websocket.BinaryMessage, proto.MarshalIntent(game.Turn(game.Down))); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		m := read()
		if m.State != nil && m.State.Direction == game.Down {
			if m.State.Snake[0].Y <= 10 {
				t.Errorf("Head %v should have moved down", m.State.Snake[0])
			}
			return
		}
	}
	t.Error("Turn never took effect")
}

func TestScoresEndpoint(t *testing.T) {
	ts, store := newTestServer(t)
	if _, err := store.Record(context.Background(), "abc", game.GameOverEvent{Score: 30, Length: 4}); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(ts.URL + "/api/scores")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Status %d", resp.StatusCode)
	}

	var body scoresResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Summary.Games != 1 || body.Summary.Best != 30 {
		t.Errorf("Unexpected summary %+v", body.Summary)
	}
	if len(body.Top) != 1 || body.Top[0].Session != "abc" {
		t.Errorf("Unexpected top list %+v", body.Top)
	}
	if body.Session != nil {
		t.Errorf("Session results without a session query: %+v", body.Session)
	}
}

func TestScoresEndpointSession(t *testing.T) {
	ts, store := newTestServer(t)
	ctx := context.Background()
	for _, r := range []struct {
		session string
		score   int
	}{{"abc", 10}, {"xyz", 50}, {"abc", 20}} {
		if _, err := store.Record(ctx, r.session, game.GameOverEvent{Score: r.score}); err != nil {
			t.Fatal(err)
		}
	}

	resp, err := http.Get(ts.URL + "/api/scores?session=abc")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body scoresResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Session) != 2 || body.Session[0].Score != 10 || body.Session[1].Score != 20 {
		t.Errorf("Expected the two games of abc in order, got %+v", body.Session)
	}
	if body.Summary.Games != 3 {
		t.Errorf("Summary should still cover every game, got %+v", body.Summary)
	}
}

func TestOneGamePerAddress(t *testing.T) {
	ts, _ := newTestServer(t, func(s *Server) { s.onePerIP = true })

	first := dial(t, ts, protoJSON)
	if msg := readJSON(t, first); msg.Type != "config" {
		t.Fatalf("Expected config on the first connection, got %+v", msg)
	}

	second := dial(t, ts, protoJSON)
	second.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := second.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("Expected a policy violation close, got %v", err)
	}
	t.Logf("second connection: %v", err)

	first.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	first.Close()

	// The address is released once the first handler has returned
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn := dial(t, ts, protoJSON)
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg ServerMessage
		err := conn.ReadJSON(&msg)
		conn.Close()
		if err == nil && msg.Type == "config" {
			return
		}
		if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
			t.Fatalf("Unexpected read result %+v, %v", msg, err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("Address was never released")
}

func TestIndexServed(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(b), "gameCanvas") {
		t.Error("Index page does not contain the canvas")
	}
}
