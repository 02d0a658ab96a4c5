package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/wordduel/internal/api/response"
	"github.com/mcoot/wordduel/internal/protocol"
	"github.com/mcoot/wordduel/internal/services/game"
	"github.com/mcoot/wordduel/internal/services/registry"
)

// RoomHandler serves read-only room snapshots
type RoomHandler struct {
	engine game.EngineInterface
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(engine game.EngineInterface) *RoomHandler {
	return &RoomHandler{engine: engine}
}

// Get handles GET /api/v1/rooms/{code}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := protocol.NormalizeCode(mux.Vars(r)["code"])
	if len(code) != registry.CodeLength {
		WriteError(w, NewInvalidRequestError("Room code must be 6 characters"))
		return
	}

	snap, err := h.engine.Snapshot(code)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromSnapshot(snap))
}
