// Package server exposes the snippet table over a read-only HTTP API so
// host editors can fetch expansions.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/driquet/ezsnip/internal/engine"
	"github.com/driquet/ezsnip/internal/snippet"
)

// Snippets is the part of the engine the API serves.
type Snippets interface {
	Scopes() []string
	Triggers(scope string) ([]string, error)
	Get(scope, trigger string) (*snippet.Definition, bool)
	Expand(scope, trigger string) (engine.Expansion, error)
}

// SnippetInfo describes a snippet without expanding it.
type SnippetInfo struct {
	Trigger      string `json:"trigger"`
	Description  string `json:"description,omitempty"`
	Template     string `json:"template,omitempty"`
	Placeholders int    `json:"placeholders"`
}

type handler struct {
	snippets Snippets
}

// RegisterRoutes returns the HTTP handler of the API.
func RegisterRoutes(snippets Snippets) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := &handler{snippets: snippets}

	r.Get("/api/scopes", h.listScopes)
	r.Get("/api/scopes/{scope}/snippets", h.listSnippets)
	r.Get("/api/scopes/{scope}/snippets/{trigger}", h.getSnippet)
	r.Get("/api/scopes/{scope}/snippets/{trigger}/expand", h.expandSnippet)

	return r
}

func (h *handler) listScopes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.snippets.Scopes())
}

func (h *handler) listSnippets(w http.ResponseWriter, r *http.Request) {
	scope := chi.URLParam(r, "scope")
	triggers, err := h.snippets.Triggers(scope)
	if err != nil {
		writeError(w, err)
		return
	}

	infos := make([]SnippetInfo, 0, len(triggers))
	for _, trigger := range triggers {
		def, found := h.snippets.Get(scope, trigger)
		if !found {
			continue
		}
		infos = append(infos, SnippetInfo{
			Trigger:      def.Trigger,
			Description:  def.Description,
			Placeholders: len(def.Placeholders()),
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

func (h *handler) getSnippet(w http.ResponseWriter, r *http.Request) {
	scope, trigger := chi.URLParam(r, "scope"), chi.URLParam(r, "trigger")
	def, found := h.snippets.Get(scope, trigger)
	if !found {
		http.Error(w, "snippet not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, SnippetInfo{
		Trigger:      def.Trigger,
		Description:  def.Description,
		Template:     def.Template(),
		Placeholders: len(def.Placeholders()),
	})
}

func (h *handler) expandSnippet(w http.ResponseWriter, r *http.Request) {
	scope, trigger := chi.URLParam(r, "scope"), chi.URLParam(r, "trigger")
	exp, err := h.snippets.Expand(scope, trigger)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrScopeUnknown), errors.Is(err, engine.ErrSnippetUnknown):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		logrus.WithError(err).Error("request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("failed to encode response")
	}
}
