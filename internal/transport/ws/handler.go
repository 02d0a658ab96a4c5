package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/protocol"
	"github.com/mcoot/wordduel/internal/services/game"
)

// Handler upgrades HTTP requests to websocket connections and feeds their
// intents to the engine
type Handler struct {
	hub      *Hub
	engine   game.EngineInterface
	config   model.GameConfig
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a websocket Handler. allowedOrigins holds the permitted
// Origin header values; "*" or an empty list allows any origin.
func NewHandler(hub *Hub, engine game.EngineInterface, config model.GameConfig, allowedOrigins []string, logger *slog.Logger) *Handler {
	return &Handler{
		hub:    hub,
		engine: engine,
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger.With(slog.String("component", "ws")),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.ToLower(strings.TrimRight(strings.TrimSpace(o), "/"))
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			set[o] = struct{}{}
		}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients send no Origin
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		_, ok := set[strings.ToLower(u.Scheme+"://"+u.Host)]
		return ok
	}
}

// ServeHTTP handles one websocket connection for its whole lifetime
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", slog.Any("error", err))
		return
	}

	client := NewClient(model.ConnID(uuid.NewString()), conn)
	h.hub.Register(client)
	go client.writePump()

	h.hub.NotifyOne(client.id, model.EventGameConfig, h.config)

	// The request context is cancelled once the handler returns, so intents
	// run on a detached context.
	ctx := context.WithoutCancel(r.Context())
	h.serve(ctx, client)

	h.engine.Disconnect(ctx, client.id)
	h.hub.Unregister(client)
}

func (h *Handler) serve(ctx context.Context, c *Client) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("panic in ws read pump",
				slog.String("conn_id", string(c.id)),
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	c.readPump(func(frame []byte) {
		h.handleFrame(ctx, c, frame)
	})
}

func (h *Handler) handleFrame(ctx context.Context, c *Client, frame []byte) {
	if !c.allow() {
		h.sendError(c, model.ErrRateLimited)
		return
	}

	intent, err := protocol.Decode(frame)
	if err != nil {
		h.sendError(c, err)
		return
	}

	if err := h.dispatch(ctx, c, intent); err != nil {
		h.sendError(c, err)
	}
}

func (h *Handler) dispatch(ctx context.Context, c *Client, intent protocol.Intent) error {
	switch in := intent.(type) {
	case protocol.CreateGame:
		_, err := h.engine.CreateGame(ctx, c.id, in.CreateGameIntent)
		return err
	case protocol.JoinGame:
		return h.engine.JoinGame(ctx, c.id, in.JoinGameIntent)
	case protocol.StartGame:
		return h.engine.StartGame(ctx, c.id)
	case protocol.SubmitLetter:
		return h.engine.SubmitLetter(ctx, c.id, in.Letter)
	case protocol.SubmitWord:
		return h.engine.SubmitWord(ctx, c.id, in.Word)
	case protocol.SkipRound:
		return h.engine.SkipRound(ctx, c.id)
	case protocol.StartNextRound:
		return h.engine.StartNextRound(ctx, c.id)
	case protocol.LeaveLobby:
		return h.engine.LeaveLobby(ctx, c.id)
	case protocol.ExitGame:
		return h.engine.ExitGame(ctx, c.id)
	case protocol.VoiceSignal:
		h.relayVoice(c, in)
		return nil
	case protocol.VoiceEnabled:
		if code, ok := h.hub.RoomOf(c.id); ok {
			h.hub.Notify(code, model.EventPlayerVoiceStatus, model.VoiceStatusPayload{
				SocketID: string(c.id),
				Enabled:  in.Enabled,
			})
		}
		return nil
	}
	return fmt.Errorf("%w: %s", model.ErrUnknownIntent, intent.Kind())
}

// relayVoice forwards a signaling message to the opponent. Without an
// opponent it is dropped silently.
func (h *Handler) relayVoice(c *Client, signal protocol.VoiceSignal) {
	opponent, ok := h.engine.Opponent(c.id)
	if !ok {
		return
	}
	h.hub.NotifyOne(opponent, signal.Event(), signal.Relay(c.id))
}

func (h *Handler) sendError(c *Client, err error) {
	level := slog.LevelDebug
	if errors.Is(err, model.ErrRateLimited) {
		level = slog.LevelWarn
	}
	h.logger.Log(context.Background(), level, "intent rejected",
		slog.String("conn_id", string(c.id)),
		slog.String("error", err.Error()))

	h.hub.NotifyOne(c.id, model.EventError, model.MessagePayload{Message: model.ClientMessage(err)})
}
