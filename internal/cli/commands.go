package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Command is an intent typed at the interactive prompt
type Command struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Encode renders the command as a socket frame
func (c Command) Encode() ([]byte, error) {
	return json.Marshal(c)
}

var errHelp = errors.New("help requested")

const helpText = `Commands:
  start          start the game (creator only)
  letter X       choose your letter for this round
  word WORD      submit a word
  skip           skip the current round
  next           start the next round (creator only)
  leave          leave the lobby before the game starts
  exit           leave a running game
  help           show this list`

// ParseCommand turns one input line into a Command. Blank lines yield a
// zero Command and no error.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, nil
	}

	name := strings.ToLower(fields[0])
	args := fields[1:]

	arg := func() (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("usage: %s <value>", name)
		}
		return args[0], nil
	}

	switch name {
	case "start":
		return Command{Event: "start-game"}, nil
	case "letter", "l":
		v, err := arg()
		if err != nil {
			return Command{}, err
		}
		return Command{Event: "submit-letter", Data: map[string]string{"letter": v}}, nil
	case "word", "w":
		v, err := arg()
		if err != nil {
			return Command{}, err
		}
		return Command{Event: "submit-word", Data: map[string]string{"word": v}}, nil
	case "skip":
		return Command{Event: "skip-round"}, nil
	case "next":
		return Command{Event: "start-next-round"}, nil
	case "leave":
		return Command{Event: "leave-lobby"}, nil
	case "exit", "quit":
		return Command{Event: "exit-game"}, nil
	case "help", "?":
		return Command{}, errHelp
	}
	return Command{}, fmt.Errorf("unknown command %q (type help)", fields[0])
}
