package model

import (
	"fmt"
	"time"
)

// RoundPhase represents where a round is in its state machine
type RoundPhase string

const (
	PhaseLetterInput RoundPhase = "letter-input" // Choosers picking start/end letters
	PhaseWordInput   RoundPhase = "word-input"   // Letters revealed, words being submitted
	PhaseEnded       RoundPhase = "ended"
)

// LetterRole is the letter a player chooses in a round
type LetterRole string

const (
	RoleStart LetterRole = "start"
	RoleEnd   LetterRole = "end"
)

// LetterPair is an ordered (start, end) constraint on valid words.
// Letters are uppercase A-Z.
type LetterPair struct {
	Start rune
	End   rune
}

func (p LetterPair) String() string {
	return fmt.Sprintf("%c-%c", p.Start, p.End)
}

// WordEntry is one accepted word in a battle-royale round
type WordEntry struct {
	PlayerID ConnID `json:"-"`
	Player   string `json:"player"`
	Word     string `json:"word"`
}

// Round is one cycle of letter selection through word resolution
type Round struct {
	Number        int
	StartPlayerID ConnID
	EndPlayerID   ConnID

	StartLetter rune // 0 until chosen or assigned
	EndLetter   rune

	Phase    RoundPhase
	HasEnded bool // Latched by the first completion; later completions are no-ops

	WinnerID      ConnID // Empty for a draw
	WinningWord   string
	WinningReason string

	// Battle-royale turn state
	CurrentTurnID ConnID
	WordsLog      []WordEntry

	// Normal mode: players who passed this round
	Skipped map[ConnID]bool

	// Consecutive dead or repeated letter pairs in this round
	PairRetries int

	StartedAt time.Time
	EndedAt   time.Time
}

// NewRound creates a round in the letter-input phase
func NewRound(number int, startPlayer, endPlayer ConnID, now time.Time) *Round {
	return &Round{
		Number:        number,
		StartPlayerID: startPlayer,
		EndPlayerID:   endPlayer,
		Phase:         PhaseLetterInput,
		Skipped:       make(map[ConnID]bool),
		StartedAt:     now,
	}
}

// Pair returns the round's letter pair
func (r *Round) Pair() LetterPair {
	return LetterPair{Start: r.StartLetter, End: r.EndLetter}
}

// HasBothLetters returns true once both roles have a letter
func (r *Round) HasBothLetters() bool {
	return r.StartLetter != 0 && r.EndLetter != 0
}

// RoleOf returns the letter role of a player this round
func (r *Round) RoleOf(id ConnID) (LetterRole, bool) {
	switch id {
	case r.StartPlayerID:
		return RoleStart, true
	case r.EndPlayerID:
		return RoleEnd, true
	default:
		return "", false
	}
}

// ResetLetters clears both letters for another selection attempt with the same roles
func (r *Round) ResetLetters() {
	r.StartLetter = 0
	r.EndLetter = 0
	r.Phase = PhaseLetterInput
}

// LogWords returns a copy of the round's accepted words
func (r *Round) LogWords() []WordEntry {
	words := make([]WordEntry, len(r.WordsLog))
	copy(words, r.WordsLog)
	return words
}

// Duration returns how long the round ran, or zero if it has not ended
func (r *Round) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}
