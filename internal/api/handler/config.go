package handler

import (
	"net/http"

	"github.com/mcoot/wordduel/internal/api/response"
	"github.com/mcoot/wordduel/internal/model"
)

// ConfigHandler serves the game option lists and defaults
type ConfigHandler struct {
	config model.GameConfig
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(config model.GameConfig) *ConfigHandler {
	return &ConfigHandler{config: config}
}

// Get handles GET /api/config
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.config)
}
