package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]any{
			"error": map[string]string{"message": err.Error()},
		})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintf(o.w, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.w, format, args...)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printf("Status: %s\n", v.Status)
	case GameOptions:
		o.printGameOptions(v)
	case Room:
		o.printRoom(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

// GameOptions mirrors the server's game configuration
type GameOptions struct {
	LetterTimeOptions []int `json:"letterTimeOptions"`
	DefaultLetterTime int   `json:"defaultLetterTime"`
	WordTimeOptions   []int `json:"wordTimeOptions"`
	DefaultWordTime   int   `json:"defaultWordTime"`
	RoundsOptions     []int `json:"roundsOptions"`
	DefaultRounds     int   `json:"defaultRounds"`
}

// Room response type
type Room struct {
	Code         string       `json:"code"`
	Mode         string       `json:"mode"`
	Status       string       `json:"status"`
	Players      []RoomPlayer `json:"players"`
	RoundCounter int          `json:"roundCounter"`
	RoundsToWin  int          `json:"roundsToWin"`
	LetterTime   int          `json:"letterTime"`
	WordTime     int          `json:"wordTime"`
}

// RoomPlayer is one player in a room response
type RoomPlayer struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func (o *Output) printGameOptions(g GameOptions) {
	o.printf("Rounds to win:   %s (default %d)\n", joinInts(g.RoundsOptions), g.DefaultRounds)
	o.printf("Letter time (s): %s (default %d)\n", joinInts(g.LetterTimeOptions), g.DefaultLetterTime)
	o.printf("Word time (s):   %s (default %d)\n", joinInts(g.WordTimeOptions), g.DefaultWordTime)
}

func (o *Output) printRoom(r Room) {
	o.printf("Room: %s\n", r.Code)
	o.printf("Mode: %s\n", r.Mode)
	o.printf("Status: %s\n", r.Status)
	o.printf("Round: %d (first to %d)\n", r.RoundCounter, r.RoundsToWin)
	o.printf("Timers: %ds letters, %ds words\n", r.LetterTime, r.WordTime)

	if len(r.Players) > 0 {
		o.printf("\nPlayers:\n")
		for _, p := range r.Players {
			o.printf("  %s: %d\n", p.Name, p.Score)
		}
	}
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
