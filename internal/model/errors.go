package model

import "errors"

// Common errors used across the application
var (
	// Room errors
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrAlreadyInRoom      = errors.New("connection is already in a room")
	ErrNotInRoom          = errors.New("connection is not in a room")
	ErrNotCreator         = errors.New("only the room creator can do this")
	ErrCannotStart        = errors.New("cannot start game")
	ErrNoRoomCode         = errors.New("could not allocate a room code")

	// Round errors
	ErrWrongPhase    = errors.New("round is not in the required phase")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrInvalidLetter = errors.New("invalid letter")
	ErrNotPlaying    = errors.New("game is not in progress")

	// Protocol errors
	ErrMalformedIntent = errors.New("malformed request")
	ErrUnknownIntent   = errors.New("unknown event")
	ErrRateLimited     = errors.New("too many requests")

	// Dictionary errors
	ErrDictionaryNotLoaded = errors.New("dictionary not loaded")
)

// ClientMessage returns the user-facing text for a client protocol error
func ClientMessage(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return "Game not found"
	case errors.Is(err, ErrRoomFull):
		return "Game is full"
	case errors.Is(err, ErrGameAlreadyStarted):
		return "Game already started"
	case errors.Is(err, ErrAlreadyInRoom):
		return "You are already in a game"
	case errors.Is(err, ErrNotInRoom):
		return "You are not in a game"
	case errors.Is(err, ErrNotCreator):
		return "Only the game creator can do that"
	case errors.Is(err, ErrCannotStart):
		return "Cannot start game"
	case errors.Is(err, ErrNoRoomCode):
		return "Could not create game, please try again"
	case errors.Is(err, ErrWrongPhase):
		return "That action is not available right now"
	case errors.Is(err, ErrNotYourTurn):
		return "Not your turn"
	case errors.Is(err, ErrInvalidLetter):
		return "Letter must be A-Z"
	case errors.Is(err, ErrNotPlaying):
		return "Game is not in progress"
	case errors.Is(err, ErrMalformedIntent):
		return "Malformed request"
	case errors.Is(err, ErrUnknownIntent):
		return "Unknown event"
	case errors.Is(err, ErrRateLimited):
		return "Too many requests"
	default:
		return "Internal server error"
	}
}
