package model

import "time"

// ConnID identifies one client connection. It doubles as the player identity
// for as long as that connection lives.
type ConnID string

// Player represents a participant in a room
type Player struct {
	ID          ConnID
	DisplayName string
	Score       int
	JoinedAt    time.Time
}

// PlayerScore is the public view of a player's score
type PlayerScore struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}
