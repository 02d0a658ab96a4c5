package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

const closeWait = time.Second

func newCreateCmd() *cobra.Command {
	var (
		rounds     int
		letterTime int
		wordTime   int
		mode       string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a room and play from the terminal",
		Long: `Create a new room and wait for an opponent to join with the printed code.

Once connected, type commands on stdin (type help for the list).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if mode != "normal" && mode != "battle-royale" {
				return fmt.Errorf("mode must be normal or battle-royale")
			}

			// Zero values let the server apply its defaults
			return runSession(cmd, Command{Event: "create-game", Data: map[string]any{
				"playerName":  cfg.Name,
				"roundsToWin": rounds,
				"letterTime":  letterTime,
				"wordTime":    wordTime,
				"gameType":    mode,
			}})
		},
	}

	cmd.Flags().StringVarP(&cfg.Name, "name", "n", cfg.Name, "Display name (env: WORDDUEL_NAME)")
	cmd.Flags().IntVar(&rounds, "rounds", 0, "Rounds needed to win (default: server default)")
	cmd.Flags().IntVar(&letterTime, "letter-time", 0, "Seconds to choose a letter (default: server default)")
	cmd.Flags().IntVar(&wordTime, "word-time", 0, "Seconds to find a word (default: server default)")
	cmd.Flags().StringVar(&mode, "mode", "normal", "Game mode: normal, battle-royale")

	return cmd
}

func newJoinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "join <code>",
		Short: "Join a room and play from the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, Command{Event: "join-game", Data: map[string]any{
				"gameId":     strings.ToUpper(strings.TrimSpace(args[0])),
				"playerName": cfg.Name,
			}})
		},
	}

	cmd.Flags().StringVarP(&cfg.Name, "name", "n", cfg.Name, "Display name (env: WORDDUEL_NAME)")

	return cmd
}

func runSession(cmd *cobra.Command, opening Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.WebSocketURL(), nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	s := &session{
		conn:    conn,
		out:     NewOutput(cfg.Output, cmd.OutOrStdout()),
		verbose: cfg.Verbose,
		done:    make(chan struct{}),
	}
	defer close(s.done)

	return s.run(ctx, opening, cmd.InOrStdin())
}

// session pumps server events to the output and typed commands to the
// server until the game ends or the user interrupts.
type session struct {
	conn    *websocket.Conn
	out     *Output
	verbose bool
	done    chan struct{}
}

func (s *session) run(ctx context.Context, opening Command, in io.Reader) error {
	events := make(chan Event)
	readErr := make(chan error, 1)
	go s.readLoop(events, readErr)

	if err := s.send(opening); err != nil {
		return err
	}

	lines := make(chan string)
	go s.scanLines(in, lines)

	joined := false
	for {
		select {
		case <-ctx.Done():
			s.close()
			return nil

		case err := <-readErr:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.out.PrintMessage("Disconnected")
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)

		case ev := <-events:
			s.out.PrintEvent(ev, s.verbose)
			switch ev.Event {
			case "game-created", "player-joined":
				joined = true
			case "error":
				if !joined {
					return errors.New(ev.Message())
				}
			}
			if ev.Terminal() {
				s.close()
				return nil
			}

		case line, ok := <-lines:
			if !ok {
				// Input closed: keep following the game
				lines = nil
				continue
			}
			if err := s.handleLine(line); err != nil {
				return err
			}
		}
	}
}

func (s *session) handleLine(line string) error {
	c, err := ParseCommand(line)
	switch {
	case errors.Is(err, errHelp):
		s.out.PrintMessage(helpText)
		return nil
	case err != nil:
		s.out.PrintError(err)
		return nil
	case c.Event == "":
		return nil
	}
	return s.send(c)
}

func (s *session) send(c Command) error {
	frame, err := c.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", c.Event, err)
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("failed to send %s: %w", c.Event, err)
	}
	return nil
}

func (s *session) readLoop(events chan<- Event, errs chan<- error) {
	for {
		var ev Event
		if err := s.conn.ReadJSON(&ev); err != nil {
			errs <- err
			return
		}
		select {
		case events <- ev:
		case <-s.done:
			return
		}
	}
}

func (s *session) scanLines(in io.Reader, lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-s.done:
			return
		}
	}
}

func (s *session) close() {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWait))
}
