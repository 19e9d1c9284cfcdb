package main

import (
	"testing"
)

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder

	p := &Player{ID: "p1", DisplayName: "alice"}

	r.userJoined(p)
	r.roomCreated("12345678-0000-0000-0000-000000000000", p)
	r.matchStarted("m1", "r1", []PlayerInfo{{PlayerID: "p1"}, {PlayerID: "p2"}})
	r.matchFinished("m1", "r1", "p1", 42)
	r.roomStatus("r1", StatusFinished)
}

func TestEnqueueNeverBlocks(t *testing.T) {
	// no run() worker draining the queue
	r := &Recorder{
		cfg:   &Config{},
		queue: make(chan recordTask, 1),
	}

	for i := 0; i < 10; i++ {
		r.enqueue("test write", nil)
	}

	if len(r.queue) != 1 {
		t.Errorf("queue holds %d tasks, want 1 (overflow dropped)", len(r.queue))
	}
}
