package handler

import (
	"net/http"

	"github.com/mcoot/wordduel/internal/api/response"
	"github.com/mcoot/wordduel/internal/model"
)

// DictionaryStatus reports whether word lookups are available
type DictionaryStatus interface {
	IsLoaded() bool
}

// HealthHandler serves the health check
type HealthHandler struct {
	dictionary DictionaryStatus
}

// NewHealthHandler creates a new health handler. dictionary may be nil.
func NewHealthHandler(dictionary DictionaryStatus) *HealthHandler {
	return &HealthHandler{dictionary: dictionary}
}

// Get handles GET /api/v1/health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.dictionary != nil && !h.dictionary.IsLoaded() {
		WriteError(w, model.ErrDictionaryNotLoaded)
		return
	}
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}
