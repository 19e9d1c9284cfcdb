package main

import (
	"testing"
)

func TestRegistrySnapshots(t *testing.T) {
	d := newTestDuel()

	// one full room in progress, one finished, one waiting solo
	_, _, activeRoom := startPair(t, d)

	f1, _, finishedRoom := startPair(t, d)
	d.updateProgress(f1, emailPattern)

	solo := newTestClient()
	d.handleJoin(solo, ClientMessage{Type: "join_game", DisplayName: "solo"})
	_, waitingRoom, _ := d.conns.lookup(solo.id)

	snaps := d.registry.snapshots()

	if len(snaps) != 2 {
		t.Fatalf("snapshots() returned %d rooms, want 2 (finished rooms excluded)", len(snaps))
	}
	for _, snap := range snaps {
		if snap.RoomID == finishedRoom.id {
			t.Error("snapshots() included a finished room")
		}
	}

	// newest first
	if snaps[0].RoomID != waitingRoom.id || snaps[1].RoomID != activeRoom.id {
		t.Errorf("snapshots() order = [%s, %s], want newest first [%s, %s]",
			snaps[0].RoomID, snaps[1].RoomID, waitingRoom.id, activeRoom.id)
	}

	if snaps[1].StartTime == 0 {
		t.Error("in-progress snapshot carries no start time")
	}
	if snaps[0].StartTime != 0 {
		t.Error("waiting snapshot carries a start time")
	}
}

func TestOldestWaitingSkipsUnavailableRooms(t *testing.T) {
	d := newTestDuel()
	reg := d.registry

	// full room, created first
	startPair(t, d)

	reg.mu.Lock()
	open := reg.oldestWaitingLocked()
	reg.mu.Unlock()
	if open != nil {
		t.Fatalf("oldestWaitingLocked() returned the started room %s", open.id)
	}

	solo := newTestClient()
	d.handleJoin(solo, ClientMessage{Type: "join_game", DisplayName: "solo"})
	_, waitingRoom, _ := d.conns.lookup(solo.id)

	reg.mu.Lock()
	open = reg.oldestWaitingLocked()
	reg.mu.Unlock()
	if open != waitingRoom {
		t.Errorf("oldestWaitingLocked() = %v, want the waiting room %s", open, waitingRoom.id)
	}
}

func TestRoomSnapshotCopiesPlayers(t *testing.T) {
	d := newTestDuel()
	c1, _, room := startPair(t, d)

	p1, _, _ := d.conns.lookup(c1.id)

	room.mu.Lock()
	snap := room.snapshotLocked()
	room.mu.Unlock()

	if len(snap.Players) != 2 {
		t.Fatalf("snapshot has %d players, want 2", len(snap.Players))
	}
	if snap.Players[0].PlayerID != p1.ID {
		t.Errorf("snapshot player order does not follow join order")
	}
	if snap.Challenge == nil {
		t.Error("snapshot is missing the challenge")
	}

	// mutating the snapshot must not reach the room
	snap.Players[0].DisplayName = "mallory"
	room.mu.Lock()
	name := room.players[0].DisplayName
	room.mu.Unlock()
	if name == "mallory" {
		t.Error("snapshot shares player storage with the room")
	}
}

func TestBroadcastDropsStuckClient(t *testing.T) {
	stuck := &Client{
		id:   newConnID(),
		send: make(chan any, 1),
	}
	stuck.send <- struct{}{} // fill the buffer

	p := &Player{ID: "p1", DisplayName: "stuck", client: stuck}
	room := &Room{
		id:       "r1",
		players:  []*Player{p},
		progress: map[string]*PlayerProgress{},
		status:   StatusWaiting,
	}

	room.mu.Lock()
	room.broadcastLocked(struct{}{})
	room.mu.Unlock()

	if p.client != nil {
		t.Error("stuck client was not detached from its player")
	}
	if !stuck.closed {
		t.Error("stuck client's send channel was not closed")
	}

	// a second broadcast must not panic on the closed channel
	room.mu.Lock()
	room.broadcastLocked(struct{}{})
	room.mu.Unlock()
}
