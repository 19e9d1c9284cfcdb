package main

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type RoomStatus string

const (
	StatusWaiting    RoomStatus = "waiting"
	StatusInProgress RoomStatus = "in_progress"
	StatusFinished   RoomStatus = "finished"
)

const maxPlayers = 2

// Player holds the data we store server-side for one room member.
// Identity is immutable after creation; only the connection is cleared
// when the player drops.
type Player struct {
	ID          string
	DisplayName string
	client      *Client
}

// PlayerProgress tracks one player's latest submission within a room.
type PlayerProgress struct {
	Pattern     string
	MatchCount  int
	IsComplete  bool
	LastUpdated time.Time
}

// Room is the authoritative state of one two-player session. Every field
// below mu is guarded by it; all mutation goes through the session
// coordinator, which takes the lock for the full read-modify-write.
type Room struct {
	id        string
	seq       uint64 // creation ordinal, for FIFO matchmaking
	challenge *Challenge

	mu        sync.Mutex
	players   []*Player // join order, never more than maxPlayers
	progress  map[string]*PlayerProgress
	status    RoomStatus
	matchID   string
	startedAt time.Time
	winnerID  string
}

func (r *Room) memberLocked(playerID string) *Player {
	for _, p := range r.players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

func (r *Room) playerInfosLocked() []PlayerInfo {
	infos := make([]PlayerInfo, 0, len(r.players))
	for _, p := range r.players {
		infos = append(infos, PlayerInfo{
			PlayerID:    p.ID,
			DisplayName: p.DisplayName,
		})
	}
	return infos
}

func (r *Room) snapshotLocked() RoomSnapshot {
	snap := RoomSnapshot{
		RoomID:    r.id,
		Status:    r.status,
		Players:   r.playerInfosLocked(),
		Challenge: r.challenge,
	}
	if !r.startedAt.IsZero() {
		snap.StartTime = r.startedAt.UnixMilli()
	}
	return snap
}

// broadcastLocked sends msg to every connected member. A member whose send
// buffer is full is disconnected rather than allowed to stall the room.
func (r *Room) broadcastLocked(msg any) {
	for _, p := range r.players {
		r.sendLocked(p, msg)
	}
}

// broadcastOthersLocked sends msg to every connected member except senderID.
func (r *Room) broadcastOthersLocked(senderID string, msg any) {
	for _, p := range r.players {
		if p.ID == senderID {
			continue
		}
		r.sendLocked(p, msg)
	}
}

func (r *Room) sendLocked(p *Player, msg any) {
	if p.client == nil {
		return
	}

	if !p.client.trySend(msg) {
		p.client.shutdown()
		p.client = nil
	}
}

// Registry owns the id->room map. It is the only structure shared across
// rooms; everything else is room-local. Lock ordering is always
// registry.mu before room.mu, never the reverse.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
	seq   uint64
}

func newRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
	}
}

// newRoomLocked creates and registers an empty room. Callers must seat the
// first player before releasing reg.mu, so a concurrent matchmaking scan
// never observes a zero-player room.
func (reg *Registry) newRoomLocked(challenge *Challenge) *Room {
	reg.seq++
	room := &Room{
		id:        uuid.NewString(),
		seq:       reg.seq,
		challenge: challenge,
		progress:  make(map[string]*PlayerProgress),
		status:    StatusWaiting,
	}
	reg.rooms[room.id] = room
	return room
}

// oldestWaitingLocked returns the earliest-created room that is still
// waiting with a free seat, so players queued behind newer rooms are
// never starved.
func (reg *Registry) oldestWaitingLocked() *Room {
	var oldest *Room
	for _, room := range reg.rooms {
		room.mu.Lock()
		open := room.status == StatusWaiting && len(room.players) < maxPlayers
		room.mu.Unlock()

		if !open {
			continue
		}
		if oldest == nil || room.seq < oldest.seq {
			oldest = room
		}
	}
	return oldest
}

func (reg *Registry) get(roomID string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	return reg.rooms[roomID]
}

func (reg *Registry) removeLocked(roomID string) {
	delete(reg.rooms, roomID)
}

// snapshots returns copies of every room not yet finished, newest first.
func (reg *Registry) snapshots() []RoomSnapshot {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	type entry struct {
		seq  uint64
		snap RoomSnapshot
	}

	entries := make([]entry, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		room.mu.Lock()
		if room.status != StatusFinished {
			entries = append(entries, entry{seq: room.seq, snap: room.snapshotLocked()})
		}
		room.mu.Unlock()
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq > entries[j].seq
	})

	snaps := make([]RoomSnapshot, 0, len(entries))
	for _, e := range entries {
		snaps = append(snaps, e.snap)
	}

	return snaps
}
