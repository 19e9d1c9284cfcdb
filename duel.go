// Regexduel
//
// Two players race to write a regular expression matching every target
// string hidden in a shared block of text. First to match them all wins.
//
// Features:
// - Anonymous matchmaking: join_game without a room id lands you in the
//   oldest waiting room, or a fresh one if none is open
// - Direct joins via shareable room URLs: /duel/:roomid
// - Rooms hold exactly two players; the game starts the moment the
//   second seat fills
// - Patterns are scored server-side against the challenge corpus; client
//   scores are never trusted
// - First completing update processed wins; the race between two
//   simultaneous completions is settled by arrival order, exactly once
// - Opponent keystrokes are relayed live to the other seat only
// - Disconnects remove the player; empty rooms are garbage-collected
// - Match history is persisted asynchronously, best-effort, via MySQL
// - In-browser QR button to share the current room, backed by go-qrcode

package main

import (
	"crypto/rand"
	_ "embed"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

type Client struct {
	id   string
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan any
	closed bool
}

// trySend queues msg for the write pump without ever blocking. Reports
// false when the buffer is full or the client is already gone.
func (c *Client) trySend(msg any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

type association struct {
	player *Player
	room   *Room
}

// Supervisor tracks which player and room each live connection belongs to,
// so a transport-level close can be turned into a room departure.
type Supervisor struct {
	mu    sync.Mutex
	conns map[string]association
}

func newSupervisor() *Supervisor {
	return &Supervisor{
		conns: make(map[string]association),
	}
}

func (s *Supervisor) associate(connID string, p *Player, room *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conns[connID] = association{player: p, room: room}
}

func (s *Supervisor) lookup(connID string) (*Player, *Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.conns[connID]
	return a.player, a.room, ok
}

func (s *Supervisor) drop(connID string) (*Player, *Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.conns[connID]
	if ok {
		delete(s.conns, connID)
	}
	return a.player, a.room, ok
}

// Duel wires the room registry, connection supervisor, scoring evaluator,
// and match recorder into one game instance.
type Duel struct {
	cfg       *Config
	challenge *Challenge
	evaluator Evaluator
	recorder  *Recorder
	registry  *Registry
	conns     *Supervisor
}

func newDuel(cfg *Config, challenge *Challenge, evaluator Evaluator, recorder *Recorder) *Duel {
	return &Duel{
		cfg:       cfg,
		challenge: challenge,
		evaluator: evaluator,
		recorder:  recorder,
		registry:  newRegistry(),
		conns:     newSupervisor(),
	}
}

// handleJoin processes "join_game" messages.
func (d *Duel) handleJoin(c *Client, msg ClientMessage) {
	if _, _, ok := d.conns.lookup(c.id); ok {
		c.trySend(ErrorMessage{Type: "error", Message: "Already in a room"})
		return
	}

	name := strings.TrimSpace(msg.DisplayName)
	if name == "" {
		name = generateDisplayName()
	}

	player := &Player{
		ID:          uuid.NewString(),
		DisplayName: name,
		client:      c,
	}
	d.recorder.userJoined(player)

	var err error
	if msg.RoomID != "" {
		err = d.joinRoom(msg.RoomID, player, c)
	} else {
		d.matchmake(player, c)
	}

	if err != nil {
		switch err {
		case errRoomNotFound:
			c.trySend(ErrorMessage{Type: "error", Message: "Room not found"})
		case errRoomFull:
			c.trySend(ErrorMessage{Type: "error", Message: "Room is full"})
		default:
			c.trySend(ErrorMessage{Type: "error", Message: "Failed to join game"})
		}
	}
}

// joinRoom routes a direct join to the requested room.
func (d *Duel) joinRoom(roomID string, p *Player, c *Client) error {
	reg := d.registry
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room := reg.rooms[roomID]
	if room == nil {
		return errRoomNotFound
	}

	return d.seatLocked(room, p, c)
}

// matchmake places the player in the oldest waiting room, creating a new
// one on a queue miss. Creation and the creator's seat happen under the
// registry lock as one unit, so no concurrent matchmaking request can
// observe the new room while it is still empty.
func (d *Duel) matchmake(p *Player, c *Client) {
	reg := d.registry
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room := reg.oldestWaitingLocked()
	if room == nil {
		room = reg.newRoomLocked(d.challenge)
		logf(d.cfg, "GAMES: Created room %s", room.id)
		d.recorder.roomCreated(room.id, p)
	}

	if err := d.seatLocked(room, p, c); err != nil {
		// the scan only returns rooms with a free seat, and the lock is
		// still held, so this branch means the scan and seat disagree
		c.trySend(ErrorMessage{Type: "error", Message: "Matchmaking failed"})
	}
}

// seatLocked admits a player into a room. Callers hold the registry lock;
// the room lock is taken here for the whole admission, including the
// game start when the second seat fills.
func (d *Duel) seatLocked(room *Room, p *Player, c *Client) error {
	room.mu.Lock()
	defer room.mu.Unlock()

	if len(room.players) >= maxPlayers {
		return errRoomFull
	}

	room.players = append(room.players, p)
	room.progress[p.ID] = &PlayerProgress{LastUpdated: time.Now()}
	d.conns.associate(c.id, p, room)

	room.sendLocked(p, RoomJoinedMessage{
		Type:        "room_joined",
		RoomID:      room.id,
		DisplayName: p.DisplayName,
		Room:        room.snapshotLocked(),
	})

	room.broadcastOthersLocked(p.ID, PlayerJoinedMessage{
		Type:        "player_joined",
		PlayerID:    p.ID,
		DisplayName: p.DisplayName,
		PlayerCount: len(room.players),
	})

	logf(d.cfg, "GAMES: Player %q joined room %s", p.DisplayName, room.id)

	if len(room.players) == maxPlayers && room.status == StatusWaiting {
		d.startLocked(room)
	}

	return nil
}

// startLocked flips a full waiting room to in_progress and tells both
// players. The broadcast carries the authoritative start time; clients
// derive their countdown from it.
func (d *Duel) startLocked(room *Room) {
	room.status = StatusInProgress
	room.startedAt = time.Now()
	room.matchID = uuid.NewString()

	players := room.playerInfosLocked()

	room.broadcastLocked(GameStartedMessage{
		Type:      "game_started",
		RoomID:    room.id,
		MatchID:   room.matchID,
		Challenge: room.challenge,
		Players:   players,
		StartTime: room.startedAt.UnixMilli(),
	})

	d.recorder.matchStarted(room.matchID, room.id, players)

	logf(d.cfg, "GAMES: Match %s started in room %s", room.matchID, room.id)
}

// updateProgress processes "update_progress" messages. The submitted
// pattern is scored server-side; the result is stored, relayed to the
// opponent, and, on completion, triggers the finish.
func (d *Duel) updateProgress(c *Client, pattern string) {
	p, room, ok := d.conns.lookup(c.id)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	// Updates before the start or after the finish are dropped without
	// an error; the latter is how the completion race is settled.
	if room.status != StatusInProgress {
		return
	}
	if room.memberLocked(p.ID) == nil {
		return
	}

	count, complete := d.evaluator.Evaluate(pattern, room.challenge.TargetText, room.challenge.TargetMatches)

	prog := room.progress[p.ID]
	prog.Pattern = pattern
	prog.MatchCount = count
	prog.IsComplete = complete
	prog.LastUpdated = time.Now()

	room.broadcastOthersLocked(p.ID, OpponentUpdateMessage{
		Type:        "opponent_update",
		PlayerID:    p.ID,
		DisplayName: p.DisplayName,
		Pattern:     pattern,
		MatchCount:  count,
		IsComplete:  complete,
	})

	if complete {
		d.finalizeLocked(room, p)
	}
}

// finalizeLocked ends the game with winner as the sole victor. The status
// check under the room lock is the linearization point: of two racing
// completions, only the first processed gets past it.
func (d *Duel) finalizeLocked(room *Room, winner *Player) {
	if room.status != StatusInProgress {
		return
	}

	room.status = StatusFinished
	room.winnerID = winner.ID
	duration := int(time.Since(room.startedAt).Seconds())

	room.broadcastLocked(GameFinishedMessage{
		Type:              "game_finished",
		RoomID:            room.id,
		WinnerID:          winner.ID,
		WinnerDisplayName: winner.DisplayName,
		Duration:          duration,
	})

	d.recorder.matchFinished(room.matchID, room.id, winner.ID, duration)

	logf(d.cfg, "GAMES: %q won match %s in room %s after %ds", winner.DisplayName, room.matchID, room.id, duration)
}

// disconnect converts a closed connection into a room departure. The room
// itself survives with one player, whatever its status; it is only removed
// once the last member is gone.
func (d *Duel) disconnect(c *Client) {
	defer c.shutdown()

	p, room, ok := d.conns.drop(c.id)
	if !ok {
		return
	}

	reg := d.registry
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room.mu.Lock()
	defer room.mu.Unlock()

	for i, member := range room.players {
		if member.ID == p.ID {
			room.players = append(room.players[:i], room.players[i+1:]...)
			break
		}
	}
	delete(room.progress, p.ID)
	p.client = nil

	if len(room.players) == 0 {
		reg.removeLocked(room.id)
		logf(d.cfg, "GAMES: Removed empty room %s", room.id)
		return
	}

	room.broadcastLocked(PlayerLeftMessage{
		Type:        "player_left",
		PlayerID:    p.ID,
		DisplayName: p.DisplayName,
		PlayerCount: len(room.players),
	})

	logf(d.cfg, "GAMES: Player %q left room %s", p.DisplayName, room.id)
}

var displayNameAdjectives = []string{"Swift", "Clever", "Regex", "Code", "Logic", "Binary", "Cyber", "Data"}
var displayNameNouns = []string{"Master", "Wizard", "Ninja", "Guru", "Expert", "Hacker", "Coder", "Pro"}

// generateDisplayName builds a throwaway name for players who join
// without one.
func generateDisplayName() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "Anonymous"
	}

	adjective := displayNameAdjectives[int(buf[0])%len(displayNameAdjectives)]
	noun := displayNameNouns[int(buf[1])%len(displayNameNouns)]
	num := (int(buf[2])<<8 | int(buf[3])) % 999

	return fmt.Sprintf("%s%s%d", adjective, noun, num+1)
}

func newConnID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	return hex.EncodeToString(buf)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// serveWS upgrades the connection and runs the read loop until the client
// goes away.
func serveWS(cfg *Config, d *Duel) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			id:   newConnID(),
			conn: conn,
			send: make(chan any, 8),
		}

		logf(cfg, "GAMES: Connection %s opened from %s", client.id, realIP(r))

		go client.writePump()
		client.readPump(d)
	}
}

func (c *Client) readPump(d *Duel) {
	defer func() {
		d.disconnect(c)
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "join_game":
			d.handleJoin(c, msg)
		case "update_progress":
			d.updateProgress(c, msg.Pattern)
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current room URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	roomID := ps.ByName("roomid")
	if roomID == "" {
		http.Error(w, "missing room id", http.StatusBadRequest)
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

	// We are at /.../:roomid/qr; strip trailing "/qr" to get the room URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// ---- Static file paths ----

//go:embed duel/index.html
var indexHTML []byte

//go:embed duel/app.css
var duelCSS []byte

//go:embed duel/app.js
var duelJS []byte

func getIndexHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(indexHTML)
	}
}

func getCssHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(duelCSS)
	}
}

func getJsHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(duelJS)
	}
}

// registerDuelGame sets up routes so that:
//   - $path              → HTML client (matchmaking mode)
//   - $path/:roomid      → HTML client joining that room
//   - $path/:roomid/qr   → PNG QR code for that room URL
//   - /ws                → WebSocket, shared by all rooms
func registerDuelGame(cfg *Config, d *Duel, path string, mux *httprouter.Router) {
	mux.GET(cfg.prefix+path, getIndexHandler(cfg))
	mux.GET(cfg.prefix+path+"/:roomid", getIndexHandler(cfg))
	mux.GET(cfg.prefix+path+"/:roomid/qr", qrHandler)

	// Shared assets (no roomid in route)
	mux.GET(cfg.prefix+"/assets/duel/app.css", getCssHandler(cfg))
	mux.GET(cfg.prefix+"/assets/duel/app.js", getJsHandler(cfg))

	// One websocket endpoint for every room; join_game picks the room
	mux.GET(cfg.prefix+"/ws", serveWS(cfg, d))
}
