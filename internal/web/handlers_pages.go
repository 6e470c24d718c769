package web

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/smarttools/internal/core"
	"github.com/JonMunkholm/smarttools/internal/logging"
	"github.com/JonMunkholm/smarttools/internal/web/templates"
)

// handleDashboard renders the tool list and recent history. Landing on the
// dashboard leaves any open tool.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.ExitTool()

	s.render(w, r, templates.DashboardPage(core.All(), sess.History()))
}

// handleTool opens a tool with an empty batch.
func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	def, err := core.Lookup(chi.URLParam(r, "op"))
	if err != nil {
		respondError(w, r, err, http.StatusNotFound)
		return
	}

	sess := s.session(w, r)
	sess.EnterTool(def.Kind)

	s.render(w, r, templates.ToolPage(templates.ToolParams{
		Def:                def,
		DefaultRowsPerFile: s.cfg.Split.DefaultRowsPerFile,
		MaxFileSize:        humanize.Bytes(uint64(s.cfg.Upload.MaxFileSize)),
	}))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render failed", "error", err)
	}
}
