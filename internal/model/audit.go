package model

import "time"

// GameOutcome is how a game left the registry
type GameOutcome string

const (
	OutcomeCompleted GameOutcome = "completed"
	OutcomeAbandoned GameOutcome = "abandoned"
)

// PlayerJoinRecord is written when a player creates or joins a room
type PlayerJoinRecord struct {
	GameID     string    `json:"gameId"`
	RoomCode   RoomCode  `json:"roomCode"`
	PlayerID   ConnID    `json:"playerId"`
	PlayerName string    `json:"playerName"`
	IsCreator  bool      `json:"isCreator"`
	JoinedAt   time.Time `json:"joinedAt"`
}

// GameStartRecord is written when the creator starts the game
type GameStartRecord struct {
	GameID      string    `json:"gameId"`
	RoomCode    RoomCode  `json:"roomCode"`
	Mode        GameMode  `json:"mode"`
	RoundsToWin int       `json:"roundsToWin"`
	LetterTime  int       `json:"letterTime"`
	WordTime    int       `json:"wordTime"`
	Players     []string  `json:"players"`
	StartedAt   time.Time `json:"startedAt"`
}

// RoundRecord is written when a round ends
type RoundRecord struct {
	GameID        string        `json:"gameId"`
	RoomCode      RoomCode      `json:"roomCode"`
	RoundNumber   int           `json:"roundNumber"`
	StartLetter   string        `json:"startLetter"`
	EndLetter     string        `json:"endLetter"`
	Words         []WordEntry   `json:"words"`
	Winner        string        `json:"winner,omitempty"`
	WinningWord   string        `json:"winningWord,omitempty"`
	WinningReason string        `json:"winningReason,omitempty"`
	Duration      time.Duration `json:"durationNs"`
	EndedAt       time.Time     `json:"endedAt"`
}

// GameCompletionRecord is written when a game finishes or is abandoned
type GameCompletionRecord struct {
	GameID      string        `json:"gameId"`
	RoomCode    RoomCode      `json:"roomCode"`
	Outcome     GameOutcome   `json:"outcome"`
	Winner      string        `json:"winner,omitempty"`
	Scores      []PlayerScore `json:"scores"`
	TotalRounds int           `json:"totalRounds"`
	Duration    time.Duration `json:"durationNs"`
	EndedAt     time.Time     `json:"endedAt"`
}
