// Package web serves the exercise pages and the JSON API the pages call.
package web

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"valuecards/internal/engine"
	"valuecards/internal/fault"
	"valuecards/internal/mail"
	"valuecards/internal/model"
	"valuecards/internal/report"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Server wires the engine and delivery gateway to the HTTP surface.
type Server struct {
	engine  *engine.Engine
	mailer  *mail.Gateway
	baseURL string
	log     *zap.Logger
	tmpl    *template.Template
}

// NewServer builds the full HTTP handler: pages, JSON API and static assets.
func NewServer(eng *engine.Engine, mailer *mail.Gateway, baseURL string, log *zap.Logger) (http.Handler, error) {
	if log == nil {
		log = zap.NewNop()
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"humanizeTime": humanize.Time,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		engine:  eng,
		mailer:  mailer,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
		tmpl:    tmpl,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleLanding)
	mux.HandleFunc("POST /sessions", s.handleCreateSession)
	mux.HandleFunc("GET /exercise/{sessionID}/sort", s.handleSortPage)
	mux.HandleFunc("GET /exercise/{sessionID}/core", s.handleCorePage)
	mux.HandleFunc("GET /exercise/{sessionID}/finalize", s.handleFinalizePage)
	mux.HandleFunc("GET /values/{slug}", s.handleSummaryPage)
	mux.HandleFunc("GET /values/{slug}/report.pdf", s.handleReportDownload)

	mux.HandleFunc("POST /api/selections/{id}/priority", s.handleSetPriority)
	mux.HandleFunc("POST /api/selections/{id}/core", s.handleSetCore)
	mux.HandleFunc("POST /api/sessions/{id}/custom", s.handleAddCustom)
	mux.HandleFunc("POST /api/sessions/{id}/finalize", s.handleFinalize)
	mux.HandleFunc("POST /api/values/{slug}/reflections", s.handleSaveReflections)
	mux.HandleFunc("POST /api/email-report", s.handleEmailReport)
	mux.HandleFunc("POST /api/send-summary", s.handleSendSummary)

	mux.Handle("GET /static/", http.FileServerFS(staticFS))

	return chainMiddlewares(mux, s.withLogging, withRequestID), nil
}

// ─────────────────────────────────────────────
// View models
// ─────────────────────────────────────────────

// card is the page-facing projection of a selection; it is embedded into
// the page as JSON and mirrored by the client-side state.
type card struct {
	ID          string         `json:"id"`
	Label       string         `json:"label"`
	Description string         `json:"description"`
	Priority    model.Priority `json:"priority"`
	IsCore      bool           `json:"isCore"`
	IsCustom    bool           `json:"isCustom"`
}

func toCard(sel *model.Selection) card {
	return card{
		ID:          sel.ID,
		Label:       sel.DisplayLabel(),
		Description: sel.DisplayDescription(),
		Priority:    sel.Priority,
		IsCore:      sel.IsCore,
		IsCustom:    sel.IsCustom(),
	}
}

func toCards(selections []model.Selection) []card {
	out := make([]card, 0, len(selections))
	for i := range selections {
		out = append(out, toCard(&selections[i]))
	}
	return out
}

func countWhere(selections []model.Selection, pred func(*model.Selection) bool) int {
	n := 0
	for i := range selections {
		if pred(&selections[i]) {
			n++
		}
	}
	return n
}

func sortByLabel(cards []card) {
	sort.Slice(cards, func(i, j int) bool { return cards[i].Label < cards[j].Label })
}

// ─────────────────────────────────────────────
// Pages
// ─────────────────────────────────────────────

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, "landing", map[string]any{})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, _, err := s.engine.InitializeSession(r.Context())
	if err != nil {
		s.log.Error("initialize session", zap.Error(err))
		http.Error(w, "could not start a session", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/exercise/"+sess.ID+"/sort", http.StatusSeeOther)
}

func (s *Server) handleSortPage(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")
	if _, err := s.engine.Session(r.Context(), sessionID); err != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	selections, err := s.engine.Selections(r.Context(), sessionID)
	if err != nil {
		s.renderError(w, err)
		return
	}
	s.renderPage(w, "sort", map[string]any{
		"SessionID": sessionID,
		"Cards":     toCards(selections),
		"MaxHigh":   model.MaxHighValues,
	})
}

func (s *Server) handleCorePage(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")
	if _, err := s.engine.Session(r.Context(), sessionID); err != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	selections, err := s.engine.Selections(r.Context(), sessionID)
	if err != nil {
		s.renderError(w, err)
		return
	}

	high := make([]model.Selection, 0, len(selections))
	for i := range selections {
		if selections[i].Priority == model.PriorityHigh {
			high = append(high, selections[i])
		}
	}
	if len(high) < model.MinCoreValues {
		http.Redirect(w, r, "/exercise/"+sessionID+"/sort", http.StatusFound)
		return
	}

	cards := toCards(high)
	sortByLabel(cards)
	s.renderPage(w, "core", map[string]any{
		"SessionID": sessionID,
		"Cards":     cards,
		"MinCore":   model.MinCoreValues,
		"MaxCore":   model.MaxCoreValues,
	})
}

func (s *Server) handleFinalizePage(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")
	sess, err := s.engine.Session(r.Context(), sessionID)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	if sess.Finalized() {
		http.Redirect(w, r, "/values/"+*sess.Slug, http.StatusFound)
		return
	}

	selections, err := s.engine.Selections(r.Context(), sessionID)
	if err != nil {
		s.renderError(w, err)
		return
	}
	core := countWhere(selections, func(sel *model.Selection) bool { return sel.IsCore })
	if core < model.MinCoreValues {
		http.Redirect(w, r, "/exercise/"+sessionID+"/core", http.StatusFound)
		return
	}

	s.renderPage(w, "finalize", map[string]any{"SessionID": sessionID})
}

func (s *Server) handleSummaryPage(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	sess, err := s.engine.SessionBySlug(r.Context(), slug)
	if errors.Is(err, fault.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		s.renderPage(w, "notfound", map[string]any{})
		return
	}
	if err != nil {
		s.renderError(w, err)
		return
	}

	selections, err := s.engine.Selections(r.Context(), sess.ID)
	if err != nil {
		s.renderError(w, err)
		return
	}

	core, other := splitSummary(selections)
	data := map[string]any{
		"Slug":        slug,
		"UserName":    "",
		"Core":        core,
		"Other":       other,
		"IsNew":       r.URL.Query().Get("new") == "true",
		"ShareURL":    s.baseURL + "/values/" + slug,
		"BaseURL":     s.baseURL,
		"Prompts":     model.ReflectionPrompts,
		"Reflections": sess.Reflections,
	}
	if sess.UserName != nil {
		data["UserName"] = *sess.UserName
	}
	if sess.CompletedAt != nil {
		data["CompletedAgo"] = humanize.Time(*sess.CompletedAt)
	}
	s.renderPage(w, "summary", data)
}

func (s *Server) handleReportDownload(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	sess, err := s.engine.SessionBySlug(r.Context(), slug)
	if err != nil {
		s.renderError(w, err)
		return
	}
	selections, err := s.engine.Selections(r.Context(), sess.ID)
	if err != nil {
		s.renderError(w, err)
		return
	}

	coreSel, otherSel := splitSelections(selections)
	pdf, err := report.Render(sess.UserName, coreSel, otherSel, sess.Reflections)
	if err != nil {
		s.renderError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="values-report.pdf"`)
	w.Write(pdf)
}

// splitSelections partitions a session's selections into core values and
// the remaining high-priority ones, in stored order.
func splitSelections(selections []model.Selection) (core, other []model.Selection) {
	for i := range selections {
		switch {
		case selections[i].IsCore:
			core = append(core, selections[i])
		case selections[i].Priority == model.PriorityHigh:
			other = append(other, selections[i])
		}
	}
	return core, other
}

func splitSummary(selections []model.Selection) (core, other []card) {
	coreSel, otherSel := splitSelections(selections)
	core, other = toCards(coreSel), toCards(otherSel)
	sortByLabel(core)
	sortByLabel(other)
	return core, other
}

// ─────────────────────────────────────────────
// Rendering helpers
// ─────────────────────────────────────────────

func (s *Server) renderPage(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.log.Error("render page", zap.String("template", name), zap.Error(err))
	}
}

func (s *Server) renderError(w http.ResponseWriter, err error) {
	s.log.Error("page failure", zap.Error(err))
	http.Error(w, "something went wrong", statusFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, fault.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, fault.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, fault.ErrCapacity):
		return http.StatusConflict
	case errors.Is(err, fault.ErrDelivery):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
