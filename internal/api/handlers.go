// internal/api/handlers.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	apperrors "citypulse/internal/common/errors"
	"citypulse/internal/models"
)

type analyzeRequest struct {
	Question string `json:"question"`
}

type switchModeRequest struct {
	Mode       string `json:"mode"`
	DatafileID string `json:"datafile_id"`
}

type errorBody struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// demoQueries is the canned question set served to the dashboard. One per
// analysis category plus a couple of mixed prompts.
var demoQueries = []string{
	"Which neighborhoods have the highest emergency stress right now?",
	"Where is homeless shelter pressure the worst?",
	"What disaster events hit the city this week?",
	"Generate an insurance risk report for San Francisco",
	"Which neighborhoods have the most 311 infrastructure complaints?",
	"How many police calls came in over the last 24 hours?",
	"Show me fire and EMS activity by neighborhood",
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.NewInvalidRequestError("request body must be JSON with a question field"))
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), req.Question)
	if err != nil {
		stdErr := apperrors.AsStandard(err)
		s.logger.Error("analyze request failed", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"question":  req.Question,
		})
		writeError(w, stdErr)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	dbStatus := "connected"
	code := http.StatusOK
	if err := s.db.Ping(ctx); err != nil {
		status = "degraded"
		dbStatus = "unavailable"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]interface{}{
		"status":    status,
		"database":  dbStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleSchema(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, models.CitySchema())
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	schema := models.CitySchema()
	tables := make([]string, 0, len(schema.Tables))
	for _, t := range schema.Tables {
		tables = append(tables, t.Name)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"mode":                s.modes.Mode(),
		"datafile_id":         s.modes.DatafileID(),
		"provider_configured": s.cfg.Provider.Enabled(),
		"api_key_configured":  s.cfg.Provider.APIKey != "",
		"table_count":         len(tables),
		"tables":              tables,
		"version":             s.cfg.App.Version,
	})
}

func (s *Server) handleSwitchMode(w http.ResponseWriter, r *http.Request) {
	var req switchModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.NewInvalidRequestError("request body must be JSON with a mode field"))
		return
	}

	if err := s.modes.SwitchMode(req.Mode, req.DatafileID); err != nil {
		writeError(w, apperrors.NewInvalidRequestError("mode must be playground or direct"))
		return
	}

	s.logger.Info("generation mode switched", map[string]interface{}{
		"mode":       req.Mode,
		"datafileId": req.DatafileID,
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"mode":        s.modes.Mode(),
		"datafile_id": s.modes.DatafileID(),
	})
}

func (s *Server) handleDemoQueries(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"queries": demoQueries,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
}

func writeError(w http.ResponseWriter, stdErr *apperrors.StandardError) {
	writeJSON(w, apperrors.HTTPStatus(stdErr.Code), errorEnvelope{
		Error: errorBody{
			Code:   string(stdErr.Code),
			Detail: apperrors.PublicDetail(stdErr),
		},
	})
}
