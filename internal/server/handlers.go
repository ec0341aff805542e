package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/docsift/docsift/internal/models"
	"go.uber.org/zap"
)

// scoreRequest is the body for POST /api/v1/score: one document's candidates
// plus the intent to rank them against.
type scoreRequest struct {
	DocumentPath string                    `json:"document_path"`
	Persona      string                    `json:"persona"`
	Job          string                    `json:"job"`
	Sections     []models.SectionCandidate `json:"sections"`
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DocumentPath == "" {
		s.respondError(w, http.StatusBadRequest, "document_path is required")
		return
	}
	intent := models.Intent{Persona: req.Persona, Job: req.Job}
	s.logger.Debug("score request",
		zap.String("document", req.DocumentPath),
		zap.Int("sections", len(req.Sections)))

	scored, err := s.scorer.ScoreDocument(r.Context(), req.DocumentPath, intent, req.Sections)
	if err != nil {
		s.logger.Error("scoring failed", zap.String("document", req.DocumentPath), zap.Error(err))
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, scored)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.respondError(w, http.StatusServiceUnavailable, "run history not configured")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	runs, err := s.runs.ListRuns(r.Context(), limit)
	if err != nil {
		s.logger.Error("list runs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, runs)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
