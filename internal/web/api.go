package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"valuecards/internal/fault"
	"valuecards/internal/mail"
	"valuecards/internal/model"
	"valuecards/internal/report"
)

type setPriorityRequest struct {
	Priority string `json:"priority"`
}

type setCoreRequest struct {
	IsCore bool `json:"isCore"`
	// Description distinguishes absent (leave the override alone) from an
	// explicit empty string (clear it).
	Description *string `json:"description"`
}

type addCustomRequest struct {
	Label       string  `json:"label"`
	Description *string `json:"description"`
}

type finalizeRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type reflectionsRequest struct {
	Responses map[string]string `json:"responses"`
}

type emailReportRequest struct {
	ToEmail   string `json:"toEmail"`
	FromEmail string `json:"fromEmail"`
	FromName  string `json:"fromName"`
	ShareSlug string `json:"shareSlug"`
}

type sendSummaryRequest struct {
	Email                string              `json:"email"`
	Name                 string              `json:"name"`
	ShareURL             string              `json:"shareUrl"`
	CoreValues           []mail.SummaryValue `json:"coreValues"`
	OtherImportantValues []mail.SummaryValue `json:"otherImportantValues"`
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return false
	}
	return true
}

func (s *Server) handleSetPriority(w http.ResponseWriter, r *http.Request) {
	var req setPriorityRequest
	if !decode(w, r, &req) {
		return
	}
	sel, err := s.engine.SetPriority(r.Context(), r.PathValue("id"), model.Priority(req.Priority))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCard(sel))
}

func (s *Server) handleSetCore(w http.ResponseWriter, r *http.Request) {
	var req setCoreRequest
	if !decode(w, r, &req) {
		return
	}
	sel, err := s.engine.SetCoreMembership(r.Context(), r.PathValue("id"), req.IsCore, req.Description)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCard(sel))
}

func (s *Server) handleAddCustom(w http.ResponseWriter, r *http.Request) {
	var req addCustomRequest
	if !decode(w, r, &req) {
		return
	}
	sel, err := s.engine.AddCustomSelection(r.Context(), r.PathValue("id"), req.Label, req.Description)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCard(sel))
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	var req finalizeRequest
	if !decode(w, r, &req) {
		return
	}

	var name, email *string
	if trimmed := strings.TrimSpace(req.Name); trimmed != "" {
		name = &trimmed
	}
	if trimmed := strings.TrimSpace(req.Email); trimmed != "" {
		if !mail.ValidEmail(trimmed) {
			s.writeError(w, fault.ErrValidation)
			return
		}
		email = &trimmed
	}

	sess, err := s.engine.FinalizeSession(r.Context(), r.PathValue("id"), name, email)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"slug": *sess.Slug})
}

func (s *Server) handleSaveReflections(w http.ResponseWriter, r *http.Request) {
	var req reflectionsRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.engine.SaveReflections(r.Context(), r.PathValue("slug"), req.Responses); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleEmailReport(w http.ResponseWriter, r *http.Request) {
	var req emailReportRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ToEmail == "" || req.FromEmail == "" || req.FromName == "" || req.ShareSlug == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "All fields are required."})
		return
	}
	if !mail.ValidEmail(req.ToEmail) || !mail.ValidEmail(req.FromEmail) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Please enter valid email addresses."})
		return
	}

	sess, err := s.engine.SessionBySlug(r.Context(), req.ShareSlug)
	if err != nil {
		s.writeError(w, err)
		return
	}
	selections, err := s.engine.Selections(r.Context(), sess.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	core, other := splitSelections(selections)
	pdf, err := report.Render(sess.UserName, core, other, sess.Reflections)
	if err != nil {
		s.writeError(w, err)
		return
	}

	id, err := s.mailer.SendReport(r.Context(), req.ToEmail, req.FromEmail, req.FromName, pdf)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.log.Info("report emailed",
		zap.String("slug", req.ShareSlug),
		zap.String("message_id", id))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "messageId": id})
}

func (s *Server) handleSendSummary(w http.ResponseWriter, r *http.Request) {
	var req sendSummaryRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Email == "" || req.ShareURL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email and shareUrl are required"})
		return
	}

	var name *string
	if req.Name != "" {
		name = &req.Name
	}
	id, err := s.mailer.SendSummary(r.Context(), req.Email, name, req.ShareURL, req.CoreValues, req.OtherImportantValues)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "messageId": id})
}
