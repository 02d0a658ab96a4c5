package model

// EventType names an outbound notification
type EventType string

const (
	// Connection events
	EventGameConfig EventType = "game-config"
	EventError      EventType = "error"

	// Room events
	EventGameCreated        EventType = "game-created"
	EventPlayerJoined       EventType = "player-joined"
	EventGameStarted        EventType = "game-started"
	EventPlayerDisconnected EventType = "player-disconnected"
	EventPlayerLeftLobby    EventType = "player-left-lobby"
	EventGameExited         EventType = "game-exited"

	// Round events
	EventRoundStarted    EventType = "round-started"
	EventLettersRevealed EventType = "letters-revealed"
	EventNoValidWords    EventType = "no-valid-words"
	EventCombinationUsed EventType = "combination-used"
	EventInvalidWord     EventType = "invalid-word"
	EventTurnUpdate      EventType = "turn-update"
	EventWordAccepted    EventType = "word-accepted"
	EventRoundEnded      EventType = "round-ended"
	EventGameEnded       EventType = "game-ended"

	// Voice signaling, relayed between the two players of a room
	EventVoiceOffer        EventType = "voice-offer"
	EventVoiceAnswer       EventType = "voice-answer"
	EventVoiceICECandidate EventType = "voice-ice-candidate"
	EventPlayerVoiceStatus EventType = "player-voice-status"
)

// GameCreatedPayload is sent to the creator of a new room
type GameCreatedPayload struct {
	GameID RoomCode        `json:"gameId"`
	Game   SessionSnapshot `json:"game"`
}

// RoomUpdatePayload carries the room state for joined/started events
type RoomUpdatePayload struct {
	Game SessionSnapshot `json:"game"`
}

// RoundStartedPayload tells one player which letter they choose
type RoundStartedPayload struct {
	Role        LetterRole `json:"role"`
	RoundNumber int        `json:"roundNumber"`
	LetterTime  int        `json:"letterTime"`
}

// LetterPairPayload carries a letter pair for reveal and retry notices
type LetterPairPayload struct {
	StartLetter string `json:"startLetter"`
	EndLetter   string `json:"endLetter"`
}

// NewLetterPairPayload builds a LetterPairPayload from a pair
func NewLetterPairPayload(pair LetterPair) LetterPairPayload {
	return LetterPairPayload{
		StartLetter: string(pair.Start),
		EndLetter:   string(pair.End),
	}
}

// InvalidWordPayload explains why a submission was rejected
type InvalidWordPayload struct {
	Reason string `json:"reason"`
}

// TurnUpdatePayload announces whose turn it is in battle-royale
type TurnUpdatePayload struct {
	CurrentTurn   string      `json:"currentTurn"`
	CurrentTurnID string      `json:"currentTurnId"`
	RoundWords    []WordEntry `json:"roundWords"`
}

// WordAcceptedPayload announces an accepted battle-royale word
type WordAcceptedPayload struct {
	Word       string      `json:"word"`
	Player     string      `json:"player"`
	RoundWords []WordEntry `json:"roundWords"`
}

// RoundEndedPayload reports the result of a round. Winner and Word are null for a draw.
type RoundEndedPayload struct {
	Winner        *string       `json:"winner"`
	Word          *string       `json:"word"`
	WinningReason string        `json:"winningReason,omitempty"`
	Scores        []PlayerScore `json:"scores"`
	RoundWords    []WordEntry   `json:"roundWords,omitempty"`
}

// GameEndedPayload reports the final result of a game
type GameEndedPayload struct {
	Winner string        `json:"winner"`
	Scores []PlayerScore `json:"scores"`
}

// MessagePayload carries a human-readable message
type MessagePayload struct {
	Message string `json:"message"`
}

// VoiceStatusPayload tells a room that a player toggled voice chat
type VoiceStatusPayload struct {
	SocketID string `json:"socketId"`
	Enabled  bool   `json:"enabled"`
}
