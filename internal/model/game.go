package model

import "time"

// RoomCode is the short human-readable code players use to join a room
type RoomCode string

// GameMode selects the round variant played in a session
type GameMode string

const (
	ModeNormal       GameMode = "normal"        // Race: first valid word wins
	ModeBattleRoyale GameMode = "battle-royale" // Alternating turns under one letter pair
)

// ParseGameMode returns the mode for s, defaulting to normal for anything unrecognised
func ParseGameMode(s string) GameMode {
	if GameMode(s) == ModeBattleRoyale {
		return ModeBattleRoyale
	}
	return ModeNormal
}

// SessionStatus represents the lifecycle state of a session
type SessionStatus string

const (
	StatusWaiting  SessionStatus = "waiting"
	StatusPlaying  SessionStatus = "playing"
	StatusFinished SessionStatus = "finished"
)

// MaxPlayers is the capacity of every room
const MaxPlayers = 2

// SessionSettings are the per-room parameters chosen at creation
type SessionSettings struct {
	Mode              GameMode
	RoundsToWin       int
	LetterTimeSeconds int
	WordTimeSeconds   int
}

// Session is one game: two players, their scores and the active round
type Session struct {
	Code     RoomCode
	GameID   string // Stable identifier for audit records
	Settings SessionSettings
	Status   SessionStatus
	Players  []*Player

	// Accumulated for the whole game, never reset between rounds
	UsedWords       map[string]struct{}
	UsedLetterPairs map[LetterPair]struct{} // Battle-royale only

	RoundCounter int
	CurrentRound *Round
	CreatorID    ConnID

	CreatedAt time.Time
	StartedAt time.Time
}

// NewSession creates a waiting session with its creator as the first player
func NewSession(code RoomCode, gameID string, creator *Player, settings SessionSettings, now time.Time) *Session {
	return &Session{
		Code:            code,
		GameID:          gameID,
		Settings:        settings,
		Status:          StatusWaiting,
		Players:         []*Player{creator},
		UsedWords:       make(map[string]struct{}),
		UsedLetterPairs: make(map[LetterPair]struct{}),
		CreatorID:       creator.ID,
		CreatedAt:       now,
	}
}

// GetPlayer returns the player with the given ID, or nil if not present
func (s *Session) GetPlayer(id ConnID) *Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Opponent returns the other player in the room, or nil
func (s *Session) Opponent(id ConnID) *Player {
	for _, p := range s.Players {
		if p.ID != id {
			return p
		}
	}
	return nil
}

// IsFull returns true when the room is at capacity
func (s *Session) IsFull() bool {
	return len(s.Players) >= MaxPlayers
}

// IsWordUsed reports whether a normalized word was already accepted this game
func (s *Session) IsWordUsed(word string) bool {
	_, ok := s.UsedWords[word]
	return ok
}

// IsPairUsed reports whether the letter pair was already played this game
func (s *Session) IsPairUsed(pair LetterPair) bool {
	_, ok := s.UsedLetterPairs[pair]
	return ok
}

// Scores returns player scores in join order
func (s *Session) Scores() []PlayerScore {
	scores := make([]PlayerScore, len(s.Players))
	for i, p := range s.Players {
		scores[i] = PlayerScore{Name: p.DisplayName, Score: p.Score}
	}
	return scores
}

// GameWinner returns the first player whose score reached RoundsToWin, or nil
func (s *Session) GameWinner() *Player {
	for _, p := range s.Players {
		if p.Score >= s.Settings.RoundsToWin {
			return p
		}
	}
	return nil
}

// DisplayName returns the name of the given player, or fallback if unknown
func (s *Session) DisplayName(id ConnID, fallback string) string {
	if p := s.GetPlayer(id); p != nil {
		return p.DisplayName
	}
	return fallback
}

// Snapshot returns a read-only view of the session suitable for clients
func (s *Session) Snapshot() SessionSnapshot {
	players := make([]PlayerView, len(s.Players))
	for i, p := range s.Players {
		players[i] = PlayerView{ID: string(p.ID), Name: p.DisplayName, Score: p.Score}
	}
	return SessionSnapshot{
		GameID:       string(s.Code),
		Mode:         s.Settings.Mode,
		Status:       s.Status,
		Players:      players,
		RoundsToWin:  s.Settings.RoundsToWin,
		LetterTime:   s.Settings.LetterTimeSeconds,
		WordTime:     s.Settings.WordTimeSeconds,
		RoundCounter: s.RoundCounter,
		Creator:      string(s.CreatorID),
	}
}

// PlayerView is the client-facing view of a player
type PlayerView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// SessionSnapshot is the client-facing view of a session
type SessionSnapshot struct {
	GameID       string        `json:"gameId"`
	Mode         GameMode      `json:"gameType"`
	Status       SessionStatus `json:"status"`
	Players      []PlayerView  `json:"players"`
	RoundsToWin  int           `json:"roundsToWin"`
	LetterTime   int           `json:"letterTime"`
	WordTime     int           `json:"wordTime"`
	RoundCounter int           `json:"roundCounter"`
	Creator      string        `json:"creator"`
}
