package main

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Seednode/memorybox/games"
)

func dialGame(t *testing.T, serverURL, gameID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(serverURL, "http") + gamePath + "/" + gameID + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected protocol switch, got %d", resp.StatusCode)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

// readUntil reads messages until match returns true, and returns every
// message read along the way, the matching one last.
func readUntil(t *testing.T, conn *websocket.Conn, match func(map[string]any) bool) []map[string]any {
	t.Helper()

	var seen []map[string]any
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	for {
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v (after %d messages)", err, len(seen))
		}
		seen = append(seen, msg)

		if match(msg) {
			return seen
		}
	}
}

func isType(kind string) func(map[string]any) bool {
	return func(msg map[string]any) bool {
		return msg["type"] == kind
	}
}

func isPhase(phase games.Phase) func(map[string]any) bool {
	return func(msg map[string]any) bool {
		return msg["type"] == "session" && msg["phase"] == phase.String()
	}
}

func countType(msgs []map[string]any, kind string) int {
	n := 0
	for _, m := range msgs {
		if m["type"] == kind {
			n++
		}
	}
	return n
}

func TestWebsocketRejectsInvalidCount(t *testing.T) {
	srv := newTestServer(t, testConfig())
	conn := dialGame(t, srv.URL, "Invalid1")

	first := readUntil(t, conn, isType("session"))
	if got := first[0]["phase"]; got != "idle" {
		t.Fatalf("expected a new game to be idle, got %v", got)
	}

	for _, raw := range []string{"9", "abc"} {
		if err := conn.WriteJSON(ClientMessage{Type: "start", Count: raw}); err != nil {
			t.Fatalf("write: %v", err)
		}

		msgs := readUntil(t, conn, isType("notify"))
		if len(msgs) != 1 {
			t.Fatalf("expected only a notification for %q, got %v", raw, msgs)
		}
		if got := msgs[0]["message"]; got != games.MessageInvalidCount.String() {
			t.Fatalf("expected invalid_count, got %v", got)
		}
	}
}

func TestWebsocketPlaysFullGame(t *testing.T) {
	srv := newTestServer(t, testConfig())
	conn := dialGame(t, srv.URL, "FullGame1")
	readUntil(t, conn, isType("session"))

	if err := conn.WriteJSON(ClientMessage{Type: "resize", Width: 900, Height: 600}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteJSON(ClientMessage{Type: "start", Count: "3"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	msgs := readUntil(t, conn, isPhase(games.PhaseAwaitingInput))
	if got := countType(msgs, "create"); got != 3 {
		t.Fatalf("expected 3 markers created, got %d", got)
	}
	if got := countType(msgs, "move"); got != 9 {
		t.Fatalf("expected 3 rounds of 3 moves, got %d", got)
	}
	for _, m := range msgs {
		if m["type"] != "move" {
			continue
		}
		if x := m["x"].(float64); x < 0 || x >= 900-games.MarkerWidth {
			t.Fatalf("marker moved outside the reported viewport: %v", m)
		}
	}

	last := msgs[len(msgs)-1]
	for _, raw := range last["markers"].([]any) {
		mk := raw.(map[string]any)
		if _, ok := mk["label"]; ok {
			t.Fatalf("expected hidden labels not to be sent, got %v", mk)
		}
	}

	for id := 1; id <= 3; id++ {
		if err := conn.WriteJSON(ClientMessage{Type: "click", ID: id}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	msgs = readUntil(t, conn, isType("notify"))
	if got := msgs[len(msgs)-1]["message"]; got != games.MessageVictory.String() {
		t.Fatalf("expected victory, got %v", got)
	}
	if got := countType(msgs, "label"); got != 3 {
		t.Fatalf("expected 3 labels revealed, got %d", got)
	}
	for _, m := range msgs {
		if m["type"] == "label" && (m["visible"] != true || m["label"] == "") {
			t.Fatalf("expected revealed label with text, got %v", m)
		}
	}
}

func TestWebsocketLateJoinerGetsSnapshot(t *testing.T) {
	cfg := testConfig()
	cfg.timeUnit = time.Hour
	srv := newTestServer(t, cfg)

	first := dialGame(t, srv.URL, "Snapshot1")
	readUntil(t, first, isType("session"))
	if err := first.WriteJSON(ClientMessage{Type: "start", Count: "4"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readUntil(t, first, isPhase(games.PhasePlacing))

	second := dialGame(t, srv.URL, "Snapshot1")
	msgs := readUntil(t, second, isType("session"))
	if got := msgs[0]["phase"]; got != "placing" {
		t.Fatalf("expected late joiner to see the placing game, got %v", got)
	}
	if got := msgs[0]["count"]; got != float64(4) {
		t.Fatalf("expected count 4, got %v", got)
	}
}

func TestReapClosesIdleHubs(t *testing.T) {
	cfg := testConfig()
	gm := newGameManager(0, games.RealClock())

	hub := gm.getHub(cfg, "Reaped01")
	if again := gm.getHub(cfg, "Reaped01"); again != hub {
		t.Fatalf("expected the same hub for the same game id")
	}
	if err := hub.machine.Start("3"); err != nil {
		t.Fatalf("start: %v", err)
	}

	if got := gm.reap(time.Now().Add(-time.Minute)); got != 0 {
		t.Fatalf("expected fresh hub to survive, reaped %d", got)
	}
	if got := gm.reap(time.Now().Add(time.Minute)); got != 1 {
		t.Fatalf("expected idle hub to be reaped, got %d", got)
	}

	select {
	case <-hub.quit:
	case <-time.After(5 * time.Second):
		t.Fatalf("expected reaped hub to shut down")
	}
	if got := hub.machine.Phase(); got != games.PhaseIdle {
		t.Fatalf("expected reaped game to be closed, got %s", got)
	}

	if fresh := gm.getHub(cfg, "Reaped01"); fresh == hub {
		t.Fatalf("expected a new hub after reaping")
	}
}

func TestNewGameIDsAreValid(t *testing.T) {
	gm := newGameManager(0, games.RealClock())

	seen := make(map[string]bool)
	for range 100 {
		id := gm.newGameID()
		if len(id) != 8 || !validGameID(id) {
			t.Fatalf("invalid game id %q", id)
		}
		seen[id] = true
	}
	if len(seen) < 99 {
		t.Fatalf("expected unique game ids, got %d distinct of 100", len(seen))
	}
}
