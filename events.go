package main

// Messages coming from clients
type ClientMessage struct {
	Type        string `json:"type"`                  // "join_game", "update_progress"
	DisplayName string `json:"displayName,omitempty"` // join_game
	RoomID      string `json:"roomId,omitempty"`      // join_game
	Pattern     string `json:"pattern"`               // update_progress
}

// Messages sent to clients

// Sent to a single client when joining or matchmaking fails.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

type PlayerInfo struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
}

// RoomSnapshot is a point-in-time copy of room state, safe to hand to
// encoders after the room lock is released.
type RoomSnapshot struct {
	RoomID    string       `json:"roomId"`
	Status    RoomStatus   `json:"status"`
	Players   []PlayerInfo `json:"players"`
	Challenge *Challenge   `json:"challenge"`
	StartTime int64        `json:"startTime,omitempty"` // unix milliseconds
}

type RoomJoinedMessage struct {
	Type        string       `json:"type"` // "room_joined"
	RoomID      string       `json:"roomId"`
	DisplayName string       `json:"displayName"`
	Room        RoomSnapshot `json:"room"`
}

type PlayerJoinedMessage struct {
	Type        string `json:"type"` // "player_joined"
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	PlayerCount int    `json:"playerCount"`
}

type PlayerLeftMessage struct {
	Type        string `json:"type"` // "player_left"
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	PlayerCount int    `json:"playerCount"`
}

type GameStartedMessage struct {
	Type      string       `json:"type"` // "game_started"
	RoomID    string       `json:"roomId"`
	MatchID   string       `json:"matchId"`
	Challenge *Challenge   `json:"challenge"`
	Players   []PlayerInfo `json:"players"`
	StartTime int64        `json:"startTime"` // unix milliseconds
}

// Relayed to the opponent only, never echoed to the sender.
type OpponentUpdateMessage struct {
	Type        string `json:"type"` // "opponent_update"
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	Pattern     string `json:"pattern"`
	MatchCount  int    `json:"matchCount"`
	IsComplete  bool   `json:"isComplete"`
}

type GameFinishedMessage struct {
	Type              string `json:"type"` // "game_finished"
	RoomID            string `json:"roomId"`
	WinnerID          string `json:"winnerId"`
	WinnerDisplayName string `json:"winnerDisplayName"`
	Duration          int    `json:"duration"` // seconds
}
