package main

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Persisted records mirror the in-memory ids, so history rows can be
// correlated with logs. Persistence is advisory: gameplay never reads
// these tables.

type UserRecord struct {
	ID        string `gorm:"primaryKey;size:36"`
	Username  string `gorm:"index;size:64"`
	CreatedAt time.Time
}

func (UserRecord) TableName() string {
	return "users"
}

type RoomRecord struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"size:100"`
	CreatedBy string `gorm:"size:36"`
	Status    string `gorm:"size:16"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (RoomRecord) TableName() string {
	return "game_rooms"
}

type MatchRecord struct {
	ID         string `gorm:"primaryKey;size:36"`
	RoomID     string `gorm:"index;size:36"`
	Player1ID  string `gorm:"size:36"`
	Player2ID  string `gorm:"size:36"`
	WinnerID   string `gorm:"size:36"`
	Duration   int
	Status     string `gorm:"size:16"`
	StartedAt  time.Time
	FinishedAt *time.Time
}

func (MatchRecord) TableName() string {
	return "game_matches"
}

type recordTask struct {
	desc string
	fn   func(db *gorm.DB) error
}

const (
	recordQueueSize = 256
	recordAttempts  = 3
	recordBackoff   = time.Second
)

// Recorder hands match history to MySQL off the request path. Writes are
// queued, retried a few times, and dropped with a log line when the store
// stays unreachable; the in-memory registry remains the source of truth
// either way. A nil Recorder is valid and discards everything.
type Recorder struct {
	cfg   *Config
	db    *gorm.DB
	queue chan recordTask
}

func newRecorder(cfg *Config) (*Recorder, error) {
	if cfg.databaseDSN == "" {
		return nil, nil
	}

	db, err := gorm.Open(mysql.Open(cfg.databaseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&UserRecord{}, &RoomRecord{}, &MatchRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	r := &Recorder{
		cfg:   cfg,
		db:    db,
		queue: make(chan recordTask, recordQueueSize),
	}
	go r.run()

	return r, nil
}

func (r *Recorder) run() {
	for task := range r.queue {
		var err error
		for attempt := 1; attempt <= recordAttempts; attempt++ {
			if err = task.fn(r.db); err == nil {
				break
			}
			time.Sleep(recordBackoff * time.Duration(attempt))
		}
		if err != nil {
			logf(r.cfg, "STORE: Giving up on %s: %v", task.desc, err)
		}
	}
}

// enqueue never blocks the caller; when the queue is full the write is
// dropped and logged.
func (r *Recorder) enqueue(desc string, fn func(db *gorm.DB) error) {
	if r == nil {
		return
	}

	select {
	case r.queue <- recordTask{desc: desc, fn: fn}:
	default:
		logf(r.cfg, "STORE: Queue full, dropping %s", desc)
	}
}

func (r *Recorder) userJoined(p *Player) {
	rec := UserRecord{
		ID:       p.ID,
		Username: p.DisplayName,
	}
	r.enqueue("user insert", func(db *gorm.DB) error {
		return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error
	})
}

func (r *Recorder) roomCreated(roomID string, creator *Player) {
	rec := RoomRecord{
		ID:        roomID,
		Name:      "Match " + roomID[:8],
		CreatedBy: creator.ID,
		Status:    string(StatusWaiting),
	}
	r.enqueue("room insert", func(db *gorm.DB) error {
		return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error
	})
}

func (r *Recorder) matchStarted(matchID, roomID string, players []PlayerInfo) {
	rec := MatchRecord{
		ID:        matchID,
		RoomID:    roomID,
		Status:    "active",
		StartedAt: time.Now(),
	}
	if len(players) > 0 {
		rec.Player1ID = players[0].PlayerID
	}
	if len(players) > 1 {
		rec.Player2ID = players[1].PlayerID
	}

	r.enqueue("match insert", func(db *gorm.DB) error {
		return db.Create(&rec).Error
	})
	r.roomStatus(roomID, StatusInProgress)
}

func (r *Recorder) matchFinished(matchID, roomID, winnerID string, duration int) {
	finishedAt := time.Now()

	r.enqueue("match result update", func(db *gorm.DB) error {
		return db.Model(&MatchRecord{}).Where("id = ?", matchID).Updates(map[string]any{
			"winner_id":   winnerID,
			"duration":    duration,
			"status":      "finished",
			"finished_at": finishedAt,
		}).Error
	})
	r.roomStatus(roomID, StatusFinished)
}

func (r *Recorder) roomStatus(roomID string, status RoomStatus) {
	r.enqueue("room status update", func(db *gorm.DB) error {
		return db.Model(&RoomRecord{}).Where("id = ?", roomID).Update("status", string(status)).Error
	})
}
