package cli

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Event is one frame received from the game socket
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Message returns the message field carried by error and notice events
func (e Event) Message() string {
	var m struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(e.Data, &m)
	return m.Message
}

// Terminal reports whether the event ends the player's session
func (e Event) Terminal() bool {
	switch e.Event {
	case "game-ended", "game-exited", "player-disconnected", "player-left-lobby":
		return true
	}
	return false
}

type eventScore struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type eventWord struct {
	Player string `json:"player"`
	Word   string `json:"word"`
}

type eventRoom struct {
	GameID      string       `json:"gameId"`
	Mode        string       `json:"gameType"`
	RoundsToWin int          `json:"roundsToWin"`
	Players     []eventScore `json:"players"`
}

// PrintEvent renders a socket event. In json mode every event is one line;
// in text mode voice signaling and the config greeting are only shown when
// verbose.
func (o *Output) PrintEvent(ev Event, verbose bool) {
	if o.format == "json" {
		data, _ := json.Marshal(ev)
		_, _ = fmt.Fprintln(o.w, string(data))
		return
	}

	switch ev.Event {
	case "game-created":
		var p struct {
			GameID string `json:"gameId"`
		}
		_ = json.Unmarshal(ev.Data, &p)
		o.printf("Room %s created. Share the code with your opponent.\n", p.GameID)

	case "player-joined", "game-started":
		var p struct {
			Game eventRoom `json:"game"`
		}
		_ = json.Unmarshal(ev.Data, &p)
		names := make([]string, len(p.Game.Players))
		for i, pl := range p.Game.Players {
			names[i] = pl.Name
		}
		if ev.Event == "player-joined" {
			o.printf("Players in %s: %s\n", p.Game.GameID, strings.Join(names, ", "))
		} else {
			o.printf("Game started (%s): first to %d rounds\n", p.Game.Mode, p.Game.RoundsToWin)
		}

	case "round-started":
		var p struct {
			Role        string `json:"role"`
			RoundNumber int    `json:"roundNumber"`
			LetterTime  int    `json:"letterTime"`
		}
		_ = json.Unmarshal(ev.Data, &p)
		o.printf("Round %d: choose the %s letter within %ds (letter X)\n", p.RoundNumber, strings.ToUpper(p.Role), p.LetterTime)

	case "letters-revealed":
		var p struct {
			StartLetter string `json:"startLetter"`
			EndLetter   string `json:"endLetter"`
		}
		_ = json.Unmarshal(ev.Data, &p)
		o.printf("Letters: %s...%s (word WORD)\n", p.StartLetter, p.EndLetter)

	case "no-valid-words", "combination-used":
		var p struct {
			StartLetter string `json:"startLetter"`
			EndLetter   string `json:"endLetter"`
		}
		_ = json.Unmarshal(ev.Data, &p)
		o.printf("No playable words for %s...%s, choose again\n", p.StartLetter, p.EndLetter)

	case "invalid-word":
		var p struct {
			Reason string `json:"reason"`
		}
		_ = json.Unmarshal(ev.Data, &p)
		o.printf("Rejected: %s\n", p.Reason)

	case "turn-update":
		var p struct {
			CurrentTurn string `json:"currentTurn"`
		}
		_ = json.Unmarshal(ev.Data, &p)
		o.printf("Turn: %s\n", p.CurrentTurn)

	case "word-accepted":
		var p eventWord
		_ = json.Unmarshal(ev.Data, &p)
		o.printf("%s played %s\n", p.Player, strings.ToUpper(p.Word))

	case "round-ended":
		var p struct {
			Winner        *string      `json:"winner"`
			Word          *string      `json:"word"`
			WinningReason string       `json:"winningReason"`
			Scores        []eventScore `json:"scores"`
		}
		_ = json.Unmarshal(ev.Data, &p)
		switch {
		case p.Winner != nil && p.Word != nil:
			o.printf("Round won by %s with %s", *p.Winner, strings.ToUpper(*p.Word))
		case p.Winner != nil:
			o.printf("Round won by %s", *p.Winner)
		default:
			o.printf("Round drawn")
		}
		if p.WinningReason != "" {
			o.printf(" (%s)", p.WinningReason)
		}
		o.printf("\n")
		o.printScores(p.Scores)

	case "game-ended":
		var p struct {
			Winner string       `json:"winner"`
			Scores []eventScore `json:"scores"`
		}
		_ = json.Unmarshal(ev.Data, &p)
		o.printf("Game over, %s wins!\n", p.Winner)
		o.printScores(p.Scores)

	case "error":
		o.printf("Error: %s\n", ev.Message())

	case "player-disconnected", "player-left-lobby", "game-exited":
		o.printf("%s\n", ev.Message())

	default:
		if verbose {
			o.printf("[%s] %s\n", ev.Event, string(ev.Data))
		}
	}
}

func (o *Output) printScores(scores []eventScore) {
	for _, s := range scores {
		o.printf("  %s: %d\n", s.Name, s.Score)
	}
}
