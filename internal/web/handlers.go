package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"netdiag/internal/config"
	"netdiag/internal/models"
)

type scanRequest struct {
	Targets []string `json:"targets"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// intParam reads a non-negative integer query parameter, falling back to def
// when it is absent.
func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}
	return n, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": s.now().UTC(),
	})
}

// handleScan runs an on-demand scan of the posted targets, or of the
// configured targets when none are given.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	targets := req.Targets
	if targets == nil {
		targets = s.config.Load().Targets
	}
	if len(targets) == 0 {
		writeError(w, http.StatusBadRequest, "No targets provided")
		return
	}
	for _, t := range targets {
		if err := config.ValidateTarget(t); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	cycle := s.scanner.RunScan(r.Context(), targets)
	if cycle.Empty() {
		writeError(w, http.StatusServiceUnavailable, "scan produced no results")
		return
	}
	writeJSON(w, http.StatusOK, models.NewResultsResponse(cycle))
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	cycle := s.cache.Get()
	resp := models.NewResultsResponse(cycle)
	if cycle.Empty() {
		resp.Timestamp = s.now().UTC()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHostHistory(w http.ResponseWriter, r *http.Request) {
	host := chi.URLParam(r, "host")
	hours, err := intParam(r, "hours", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	since := s.now().Add(-time.Duration(hours) * time.Hour)
	history, err := s.db.Query(r.Context(), host, since)
	if err != nil {
		s.logger.Error("history query failed", zap.String("host", host), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	if history == nil {
		history = []models.HistoryRecord{}
	}
	writeJSON(w, http.StatusOK, models.HistoryResponse{Host: host, Hours: hours, History: history})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.config.Load().Document())
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var p config.Patch
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid config: "+err.Error())
		return
	}

	cfg, err := s.config.Update(p)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Info("config updated", zap.Any("config", cfg.Document()))
	writeJSON(w, http.StatusOK, cfg.Document())
}

// handleStats handles /api/stats requests
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	hours, err := intParam(r, "hours", 24)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := s.db.GetStats(r.Context(), hours)
	if err != nil {
		s.logger.Error("stats query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "stats unavailable")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(stats))
}

// handleOutages handles /api/outages requests
func (s *Server) handleOutages(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "days", 7)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outages, err := s.db.GetOutages(r.Context(), days)
	if err != nil {
		s.logger.Error("outage query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "outages unavailable")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(outages))
}

// handleHeatmap handles /api/heatmap requests
func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "days", 30)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	heatmapData, err := s.db.GetHeatmapData(r.Context(), days)
	if err != nil {
		s.logger.Error("heatmap query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "heatmap unavailable")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(heatmapData))
}

// handlePatterns handles /api/patterns requests
func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	// Get daily patterns for specific hour
	if r.URL.Query().Get("hour") == "" {
		writeError(w, http.StatusBadRequest, "hour parameter required")
		return
	}
	hour, err := intParam(r, "hour", 0)
	if err != nil || hour > 23 {
		writeError(w, http.StatusBadRequest, "hour must be between 0 and 23")
		return
	}

	patterns, err := s.db.GetPatterns(r.Context(), hour)
	if err != nil {
		s.logger.Error("pattern query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "patterns unavailable")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(patterns))
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
