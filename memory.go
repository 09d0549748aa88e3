// Memorybox memory game
//
// A row of colored, numbered markers appears, is scattered around the play
// area a few times, then loses its numbers. The player clicks the markers
// back in their original left-to-right order.
//
// Features:
// - One game per URL: /path/:gameid (client) and /path/:gameid/ws (websocket)
// - The server runs the game; the browser only draws what it is told and
//   reports clicks, the size of its play area and the requested marker count
// - Any number of tabs can watch the same game; late joiners get a snapshot
// - Games auto-reaped after configurable idle timeout
// - Random 8-char game IDs via crypto/rand, with server-side collision check
// - In-browser QR button to share the current game, backed by go-qrcode

package main

import (
	"crypto/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/Seednode/memorybox/games"
)

const gamePath = "/memory"

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// Messages coming from clients
type ClientMessage struct {
	Type   string  `json:"type"`             // "start", "click", "resize"
	Count  string  `json:"count,omitempty"`  // start: raw text of the count field
	ID     int     `json:"id,omitempty"`     // click
	Width  float64 `json:"width,omitempty"`  // resize
	Height float64 `json:"height,omitempty"` // resize
}

// MarkerState is a marker as the client sees it. Label is only sent while
// the marker is revealed.
type MarkerState struct {
	ID       int     `json:"id"`
	Label    string  `json:"label,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Color    string  `json:"color"`
	Revealed bool    `json:"revealed"`
	Disabled bool    `json:"disabled"`
}

// SessionMessage carries the whole game; sent on connect and on every phase
// change.
type SessionMessage struct {
	Type            string        `json:"type"` // "session"
	Phase           games.Phase   `json:"phase"`
	Count           int           `json:"count"`
	Rounds          int           `json:"rounds"`
	RoundsCompleted int           `json:"rounds_completed"`
	Expected        int           `json:"expected"`
	Markers         []MarkerState `json:"markers"`
}

type CreateMessage struct {
	Type   string      `json:"type"` // "create"
	Marker MarkerState `json:"marker"`
}

type MoveMessage struct {
	Type string  `json:"type"` // "move"
	ID   int     `json:"id"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type LabelMessage struct {
	Type    string `json:"type"` // "label"
	ID      int    `json:"id"`
	Visible bool   `json:"visible"`
	Label   string `json:"label,omitempty"`
}

type DisableMessage struct {
	Type     string `json:"type"` // "disable"
	ID       int    `json:"id"`
	Disabled bool   `json:"disabled"`
}

// NotifyMessage is shown to the player as a short alert.
type NotifyMessage struct {
	Type    string        `json:"type"` // "notify"
	Message games.Message `json:"message"`
	Text    string        `json:"text"`
}

// SimpleMessage has no payload ("clear").
type SimpleMessage struct {
	Type string `json:"type"`
}

func markerState(m games.Marker) MarkerState {
	s := MarkerState{
		ID:       m.ID,
		X:        m.Position.X,
		Y:        m.Position.Y,
		Color:    m.Color.Hex(),
		Revealed: m.Revealed,
		Disabled: m.Disabled,
	}
	if m.Revealed {
		s.Label = m.Label
	}
	return s
}

func sessionMessage(s games.Session) SessionMessage {
	markers := make([]MarkerState, 0, len(s.Markers))
	for _, m := range s.Markers {
		markers = append(markers, markerState(m))
	}

	return SessionMessage{
		Type:            "session",
		Phase:           s.Phase,
		Count:           s.Count,
		Rounds:          s.Rounds,
		RoundsCompleted: s.RoundsCompleted,
		Expected:        s.Expected,
		Markers:         markers,
	}
}

type Client struct {
	id   string
	conn *websocket.Conn
	send chan any
}

type command struct {
	client *Client
	msg    ClientMessage
}

// Hub owns one game and the clients watching it. It is the game's Renderer
// and Notifier: every call is broadcast to the clients as JSON.
type Hub struct {
	id      string
	machine *games.Machine
	clients map[*Client]bool
	labels  map[int]string

	register chan *Client
	unreg    chan *Client
	commands chan command
	quit     chan struct{}
	closed   sync.Once

	mu sync.RWMutex

	createdAt  time.Time
	lastActive time.Time
}

func newHub(cfg *Config, gameID string, clock games.Clock) *Hub {
	now := time.Now()

	h := &Hub{
		id:         gameID,
		clients:    make(map[*Client]bool),
		labels:     make(map[int]string),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		commands:   make(chan command),
		quit:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
	}

	logger := cfg.logger.With().Str("game", gameID).Logger()

	h.machine = games.NewMachine(games.Options{
		Renderer: h,
		Notifier: h,
		Clock:    clock,
		Logger:   &logger,
		Viewport: games.Viewport{
			Width:  cfg.viewportWidth,
			Height: cfg.viewportHeight,
		},
		TimeUnit:      cfg.timeUnit,
		RoundInterval: cfg.scatterInterval,
		Rounds:        cfg.scatterRounds,
	})

	return h
}

func (h *Hub) run(cfg *Config) {
	for {
		select {
		case c := <-h.register:
			// The snapshot is queued under the game's lock, so no render
			// call can slip in between it and the client's first update.
			h.machine.View(func(s games.Session) {
				h.mu.Lock()
				defer h.mu.Unlock()

				h.lastActive = time.Now()
				h.clients[c] = true
				h.sendLocked(c, sessionMessage(s))
			})

			logf(cfg, "GAMES: Client %s joined %s", c.id, h.id)

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()

			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

			logf(cfg, "GAMES: Client %s left %s", c.id, h.id)

		case cmd := <-h.commands:
			h.mu.Lock()
			h.lastActive = time.Now()
			h.mu.Unlock()

			h.handleCommand(cfg, cmd)

		case <-h.quit:
			return
		}
	}
}

func (h *Hub) handleCommand(cfg *Config, cmd command) {
	msg := cmd.msg

	switch msg.Type {
	case "start":
		if err := h.machine.Start(msg.Count); err != nil {
			logf(cfg, "GAMES: Rejected marker count %q in %s", msg.Count, h.id)
			return
		}
		logf(cfg, "GAMES: Client %s started a game with %s markers in %s", cmd.client.id, strings.TrimSpace(msg.Count), h.id)

	case "click":
		switch h.machine.Click(msg.ID) {
		case games.OutcomeWon:
			logf(cfg, "GAMES: Game %s won", h.id)
		case games.OutcomeLost:
			logf(cfg, "GAMES: Game %s lost on marker %d", h.id, msg.ID)
		}

	case "resize":
		if msg.Width <= 0 || msg.Height <= 0 {
			return
		}
		h.machine.Resize(games.Viewport{Width: msg.Width, Height: msg.Height})
	}
}

// sendLocked assumes h.mu is held. Clients that cannot keep up are dropped.
func (h *Hub) sendLocked(c *Client, msg any) {
	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcastLocked(msg any) {
	for client := range h.clients {
		h.sendLocked(client, msg)
	}
}

func (h *Hub) broadcast(msg any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.broadcastLocked(msg)
}

func (h *Hub) CreateMarker(m games.Marker) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.labels[m.ID] = m.Label
	h.broadcastLocked(CreateMessage{
		Type:   "create",
		Marker: markerState(m),
	})
}

func (h *Hub) MoveMarker(id int, x, y float64) {
	h.broadcast(MoveMessage{
		Type: "move",
		ID:   id,
		X:    x,
		Y:    y,
	})
}

func (h *Hub) SetLabelVisible(id int, visible bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := LabelMessage{
		Type:    "label",
		ID:      id,
		Visible: visible,
	}
	if visible {
		msg.Label = h.labels[id]
	}

	h.broadcastLocked(msg)
}

func (h *Hub) SetDisabled(id int, disabled bool) {
	h.broadcast(DisableMessage{
		Type:     "disable",
		ID:       id,
		Disabled: disabled,
	})
}

func (h *Hub) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clear(h.labels)
	h.broadcastLocked(SimpleMessage{Type: "clear"})
}

func (h *Hub) PhaseChanged(s games.Session) {
	h.broadcast(sessionMessage(s))
}

func (h *Hub) Notify(msg games.Message) {
	h.broadcast(NotifyMessage{
		Type:    "notify",
		Message: msg,
		Text:    msg.Text(),
	})
}

// closeAll ends the game and disconnects all clients of this hub (used by
// reaper).
func (h *Hub) closeAll() {
	h.closed.Do(func() {
		h.machine.Close()

		h.mu.Lock()
		for c := range h.clients {
			close(c.send)
			delete(h.clients, c)
		}
		h.mu.Unlock()

		close(h.quit)
	})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// GameManager holds a set of hubs keyed by game ID, so each $path/$gameid
// is its own isolated game.
type GameManager struct {
	mu          sync.Mutex
	hubs        map[string]*Hub
	idleTimeout time.Duration
	clock       games.Clock
}

func newGameManager(idleTimeout time.Duration, clock games.Clock) *GameManager {
	gm := &GameManager{
		hubs:        make(map[string]*Hub),
		idleTimeout: idleTimeout,
		clock:       clock,
	}
	if idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

func (gm *GameManager) getHub(cfg *Config, gameID string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub
	}

	hub := newHub(cfg, gameID, gm.clock)
	gm.hubs[gameID] = hub
	go hub.run(cfg)
	return hub
}

// newGameID generates a crypto-random game ID and ensures it doesn't
// collide with existing games.
func (gm *GameManager) newGameID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	const max = byte(255 - (256 % len(letters)))

	for {
		out := make([]byte, 0, 8)
		buf := make([]byte, 16)

		for len(out) < cap(out) {
			if _, err := rand.Read(buf); err != nil {
				panic("crypto/rand failure: " + err.Error())
			}
			for _, b := range buf {
				if b <= max && len(out) < cap(out) {
					out = append(out, letters[int(b)%len(letters)])
				}
			}
		}
		id := string(out)

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reaperLoop periodically removes hubs that have been idle longer than idleTimeout.
func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	for range ticker.C {
		gm.reap(time.Now().Add(-gm.idleTimeout))
	}
}

// reap closes every hub last active before cutoff and reports how many.
func (gm *GameManager) reap(cutoff time.Time) int {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	reaped := 0
	for id, hub := range gm.hubs {
		hub.mu.RLock()
		last := hub.lastActive
		hub.mu.RUnlock()

		if last.Before(cutoff) {
			delete(gm.hubs, id)
			go hub.closeAll()
			reaped++
		}
	}
	return reaped
}

func validGameID(id string) bool {
	if id == "" || len(id) > 32 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if !validGameID(gameID) {
			http.Error(w, "invalid game id", http.StatusBadRequest)
			return
		}

		hub := gm.getHub(cfg, gameID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "GAMES: Upgrade failed for %s: %v", realIP(r), err)
			return
		}

		client := &Client{
			id:   uuid.NewString(),
			conn: conn,
			send: make(chan any, 64),
		}

		select {
		case hub.register <- client:
		case <-hub.quit:
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.quit:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "start", "click", "resize":
			select {
			case h.commands <- command{client: c, msg: msg}:
			case <-h.quit:
				return
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// serveQR generates a PNG QR code for the current game URL using go-qrcode.
func serveQR(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if !validGameID(gameID) {
			http.Error(w, "invalid game id", http.StatusBadRequest)
			return
		}

		// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + cfg.prefix + gamePath + "/" + gameID

		const qrSize = 320
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		securityHeaders(cfg, w)
		_, _ = w.Write(png)
	}
}

// redirectNewGame handles GET /path by generating a new random game ID
// (with server-side collision detection) and redirecting to /path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created game %s/%s for %s", path, gameID, realIP(r))
		http.Redirect(w, r, cfg.prefix+path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// registerMemoryGame sets up routes so that:
//   - $path                  → redirects to new random game (8-char ID)
//   - $path/:gameid          → HTML client
//   - $path/:gameid/ws       → WebSocket for that game
//   - $path/:gameid/qr       → PNG QR code for that game URL
func registerMemoryGame(cfg *Config, path string, mux *httprouter.Router, errs chan<- error) *GameManager {
	gm := newGameManager(cfg.sessionTimeout, games.RealClock())

	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))

	mux.GET(cfg.prefix+path+"/:gameid", serveGamePage(cfg, errs))

	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(cfg, gm))

	mux.GET(cfg.prefix+path+"/:gameid/qr", serveQR(cfg))

	return gm
}
