package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mcoot/wordduel/internal/model"
)

// MaxNameLength caps display names, matching the client input limit
const MaxNameLength = 20

// Intent is a decoded inbound client event. The concrete type says which one.
type Intent interface {
	Kind() model.IntentType
}

// CreateGame asks for a new room
type CreateGame struct{ model.CreateGameIntent }

// JoinGame asks to join an existing room
type JoinGame struct{ model.JoinGameIntent }

// SubmitLetter carries a letter choice. The engine validates the letter itself.
type SubmitLetter struct{ Letter string }

// SubmitWord carries a word attempt
type SubmitWord struct{ Word string }

type (
	StartGame      struct{}
	SkipRound      struct{}
	StartNextRound struct{}
	LeaveLobby     struct{}
	ExitGame       struct{}
)

// VoiceSignal is an offer, answer or ICE candidate bound for the opponent.
// Fields are kept raw and forwarded as-is.
type VoiceSignal struct {
	Type   model.IntentType
	Fields map[string]json.RawMessage
}

// VoiceEnabled reports that the sender turned voice chat on or off
type VoiceEnabled struct{ Enabled bool }

func (CreateGame) Kind() model.IntentType     { return model.IntentCreateGame }
func (JoinGame) Kind() model.IntentType       { return model.IntentJoinGame }
func (StartGame) Kind() model.IntentType      { return model.IntentStartGame }
func (SubmitLetter) Kind() model.IntentType   { return model.IntentSubmitLetter }
func (SubmitWord) Kind() model.IntentType     { return model.IntentSubmitWord }
func (SkipRound) Kind() model.IntentType      { return model.IntentSkipRound }
func (StartNextRound) Kind() model.IntentType { return model.IntentStartNextRound }
func (LeaveLobby) Kind() model.IntentType     { return model.IntentLeaveLobby }
func (ExitGame) Kind() model.IntentType       { return model.IntentExitGame }
func (v VoiceSignal) Kind() model.IntentType  { return v.Type }
func (VoiceEnabled) Kind() model.IntentType   { return model.IntentVoiceEnabled }

// Event returns the outbound event the signal is relayed as
func (v VoiceSignal) Event() model.EventType {
	return model.EventType(v.Type)
}

// Relay returns the payload delivered to the opponent: the sender's fields
// with the target replaced by the sender.
func (v VoiceSignal) Relay(from model.ConnID) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(v.Fields)+1)
	for k, raw := range v.Fields {
		if k == "targetSocketId" {
			continue
		}
		out[k] = raw
	}
	sender, _ := json.Marshal(string(from))
	out["fromSocketId"] = sender
	return out
}

type createGameData struct {
	PlayerName  string  `json:"playerName"`
	RoundsToWin flexInt `json:"roundsToWin"`
	LetterTime  flexInt `json:"letterTime"`
	WordTime    flexInt `json:"wordTime"`
	GameType    string  `json:"gameType"`
	Mode        string  `json:"mode"`
}

type joinGameData struct {
	GameID     string `json:"gameId"`
	PlayerName string `json:"playerName"`
}

type letterData struct {
	Letter string `json:"letter"`
}

type wordData struct {
	Word string `json:"word"`
}

type voiceEnabledData struct {
	Enabled bool `json:"enabled"`
}

// Decode parses one inbound frame into an Intent. Unknown event names yield
// ErrUnknownIntent; undecodable frames yield ErrMalformedIntent.
func Decode(frame []byte) (Intent, error) {
	env, err := Parse(frame)
	if err != nil {
		return nil, err
	}

	switch model.IntentType(env.Event) {
	case model.IntentCreateGame:
		var d createGameData
		if err := decodeData(env.Data, &d); err != nil {
			return nil, err
		}
		mode := d.GameType
		if mode == "" {
			mode = d.Mode
		}
		return CreateGame{model.CreateGameIntent{
			PlayerName:  SanitizeName(d.PlayerName),
			RoundsToWin: int(d.RoundsToWin),
			LetterTime:  int(d.LetterTime),
			WordTime:    int(d.WordTime),
			Mode:        model.ParseGameMode(mode),
		}}, nil

	case model.IntentJoinGame:
		var d joinGameData
		if err := decodeData(env.Data, &d); err != nil {
			return nil, err
		}
		return JoinGame{model.JoinGameIntent{
			RoomCode:   NormalizeCode(d.GameID),
			PlayerName: SanitizeName(d.PlayerName),
		}}, nil

	case model.IntentSubmitLetter:
		var d letterData
		if err := decodeData(env.Data, &d); err != nil {
			return nil, err
		}
		return SubmitLetter{Letter: d.Letter}, nil

	case model.IntentSubmitWord:
		var d wordData
		if err := decodeData(env.Data, &d); err != nil {
			return nil, err
		}
		return SubmitWord{Word: d.Word}, nil

	case model.IntentStartGame:
		return StartGame{}, nil
	case model.IntentSkipRound:
		return SkipRound{}, nil
	case model.IntentStartNextRound:
		return StartNextRound{}, nil
	case model.IntentLeaveLobby:
		return LeaveLobby{}, nil
	case model.IntentExitGame:
		return ExitGame{}, nil

	case model.IntentVoiceOffer, model.IntentVoiceAnswer, model.IntentVoiceICECandidate:
		fields := map[string]json.RawMessage{}
		if err := decodeData(env.Data, &fields); err != nil {
			return nil, err
		}
		return VoiceSignal{Type: model.IntentType(env.Event), Fields: fields}, nil

	case model.IntentVoiceEnabled:
		var d voiceEnabledData
		if err := decodeData(env.Data, &d); err != nil {
			return nil, err
		}
		return VoiceEnabled{Enabled: d.Enabled}, nil
	}

	return nil, fmt.Errorf("%w: %q", model.ErrUnknownIntent, env.Event)
}

// SanitizeName trims a display name and caps its length
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) <= MaxNameLength {
		return name
	}
	runes := []rune(name)
	return strings.TrimSpace(string(runes[:MaxNameLength]))
}

// NormalizeCode uppercases a room code typed by a player
func NormalizeCode(code string) model.RoomCode {
	return model.RoomCode(strings.ToUpper(strings.TrimSpace(code)))
}

// flexInt accepts a JSON number or a numeric string. Anything else decodes to
// zero, which the engine treats as "use the default".
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	*f = 0
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		data = []byte(strings.TrimSpace(s))
	}

	n, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n > math.MaxInt32 || n < math.MinInt32 {
		return nil
	}
	*f = flexInt(n)
	return nil
}
