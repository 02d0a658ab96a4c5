package model

// IntentType names an inbound client event
type IntentType string

const (
	IntentCreateGame     IntentType = "create-game"
	IntentJoinGame       IntentType = "join-game"
	IntentStartGame      IntentType = "start-game"
	IntentSubmitLetter   IntentType = "submit-letter"
	IntentSubmitWord     IntentType = "submit-word"
	IntentSkipRound      IntentType = "skip-round"
	IntentStartNextRound IntentType = "start-next-round"
	IntentLeaveLobby     IntentType = "leave-lobby"
	IntentExitGame       IntentType = "exit-game"

	// Voice signaling, relayed to the opponent untouched
	IntentVoiceOffer        IntentType = "voice-offer"
	IntentVoiceAnswer       IntentType = "voice-answer"
	IntentVoiceICECandidate IntentType = "voice-ice-candidate"
	IntentVoiceEnabled      IntentType = "voice-enabled"
)

// CreateGameIntent asks for a new room. Zero numeric fields take the configured default.
type CreateGameIntent struct {
	PlayerName  string
	RoundsToWin int
	LetterTime  int
	WordTime    int
	Mode        GameMode
}

// JoinGameIntent asks to join an existing room
type JoinGameIntent struct {
	RoomCode   RoomCode
	PlayerName string
}
