package response

import "github.com/mcoot/wordduel/internal/model"

// Player represents a player in a room response
type Player struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Room is the read-only view of a room served over HTTP
type Room struct {
	Code         string   `json:"code"`
	Mode         string   `json:"mode"`
	Status       string   `json:"status"`
	Players      []Player `json:"players"`
	RoundCounter int      `json:"roundCounter"`
	RoundsToWin  int      `json:"roundsToWin"`
	LetterTime   int      `json:"letterTime"`
	WordTime     int      `json:"wordTime"`
}

// RoomFromSnapshot converts a session snapshot
func RoomFromSnapshot(snap model.SessionSnapshot) Room {
	players := make([]Player, len(snap.Players))
	for i, p := range snap.Players {
		players[i] = Player{Name: p.Name, Score: p.Score}
	}
	return Room{
		Code:         snap.GameID,
		Mode:         string(snap.Mode),
		Status:       string(snap.Status),
		Players:      players,
		RoundCounter: snap.RoundCounter,
		RoundsToWin:  snap.RoundsToWin,
		LetterTime:   snap.LetterTime,
		WordTime:     snap.WordTime,
	}
}

// Health is the health check response
type Health struct {
	Status string `json:"status"`
}
