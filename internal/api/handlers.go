package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Kakaur/tensr-signal-agent/internal/pipeline"
	"github.com/Kakaur/tensr-signal-agent/internal/profile"
	"github.com/Kakaur/tensr-signal-agent/internal/signal"
	"github.com/Kakaur/tensr-signal-agent/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var tiers []signal.Tier
	for _, t := range splitParam(q["tier"]) {
		tiers = append(tiers, signal.Tier(strings.ToUpper(t)))
	}
	filter := storage.SignalFilter{
		Region:  q.Get("region"),
		Domains: splitParam(q["domain"]),
		Tiers:   tiers,
	}

	signals, err := s.signals.LatestSignals(r.Context(), filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("list signals")
		writeError(w, http.StatusInternalServerError, "failed to load signals")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"signals": signals,
		"total":   len(signals),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.signals.Summary(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("load summary")
		writeError(w, http.StatusInternalServerError, "failed to load summary")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, lastRunAt := s.status()
	running := s.runner.Gate().Running()
	if running {
		status = "running"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"running":     running,
		"last_status": status,
		"last_run_at": lastRunAt,
	})
}

func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := s.runs.ListBatches(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list batches")
		writeError(w, http.StatusInternalServerError, "failed to list batches")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"batches": batches})
}

func (s *Server) handleDeleteBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RunID string `json:"run_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	runID, err := uuid.Parse(strings.TrimSpace(req.RunID))
	if err != nil {
		writeError(w, http.StatusBadRequest, "run_id must be a valid UUID")
		return
	}
	if s.runner.Gate().Running() {
		writeError(w, http.StatusConflict, "a pipeline run is in progress")
		return
	}

	deleted, err := s.runs.DeleteBatch(r.Context(), runID)
	if err != nil {
		s.logger.Error().Err(err).Str("run_id", runID.String()).Msg("delete batch")
		writeError(w, http.StatusInternalServerError, "failed to delete batch")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":       runID.String(),
		"runs_deleted": deleted,
	})
}

func (s *Server) handleDeleteAllBatches(w http.ResponseWriter, r *http.Request) {
	if s.runner.Gate().Running() {
		writeError(w, http.StatusConflict, "a pipeline run is in progress")
		return
	}

	deleted, err := s.runs.DeleteAllBatches(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("delete all batches")
		writeError(w, http.StatusInternalServerError, "failed to delete batches")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs_deleted": deleted})
}

type runRequest struct {
	ProfilePath    string   `json:"profile_path"`
	ProfilePaths   []string `json:"profile_paths"`
	RunAllProfiles bool     `json:"run_all_profiles"`
}

func (s *Server) resolveRunRefs(req runRequest) ([]pipeline.ProfileRef, error) {
	var paths []string
	switch {
	case req.RunAllProfiles:
		infos, err := s.profiles.List()
		if err != nil {
			return nil, err
		}
		for _, info := range infos {
			paths = append(paths, info.Path)
		}
		if len(paths) == 0 {
			return nil, errors.New("no saved profiles found")
		}
	case len(req.ProfilePaths) > 0:
		paths = req.ProfilePaths
	case req.ProfilePath != "":
		paths = []string{req.ProfilePath}
	}

	if len(paths) == 0 {
		def := profile.Default()
		return []pipeline.ProfileRef{{Path: "default", Profile: def}}, nil
	}

	refs := make([]pipeline.ProfileRef, 0, len(paths))
	for _, path := range paths {
		p, err := s.profiles.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load profile %s: %w", path, err)
		}
		refs = append(refs, pipeline.ProfileRef{Path: path, Profile: p})
	}
	return refs, nil
}

// handleRunPipeline streams run progress as server-sent events. The
// connection stays open for the duration of the run so the dashboard
// can show live per-profile progress.
func (s *Server) handleRunPipeline(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	// An empty body means "run the default profile".
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	refs, err := s.resolveRunRefs(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Reject before opening the stream; the gate inside RunProfiles
	// still catches the race between this check and acquisition.
	if s.runner.Gate().Running() {
		s.setStatus("rejected")
		writeError(w, http.StatusConflict, "a pipeline run is already in progress")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	emit := func(event map[string]any) {
		payload, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}

	s.setStatus("running")
	results, err := s.runner.RunProfiles(r.Context(), refs, func(message string) {
		emit(map[string]any{"type": "progress", "message": message})
	})
	if err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			s.setStatus("rejected")
			emit(map[string]any{"type": "error", "message": "a pipeline run is already in progress"})
			return
		}
		s.setStatus("failed")
		s.logger.Error().Err(err).Msg("pipeline run failed")
		emit(map[string]any{"type": "error", "message": err.Error()})
		return
	}

	s.setStatus("completed")
	summaries := make([]map[string]any, 0, len(results))
	for _, res := range results {
		summaries = append(summaries, map[string]any{
			"run_id":       res.RunID.String(),
			"profile_path": res.ProfilePath,
			"signal_count": res.SignalCount,
			"under_target": res.UnderTarget,
			"warning":      res.Warning,
			"rejected":     res.Rejected,
			"excluded":     res.Excluded,
			"tier_counts":  res.TierCounts,
		})
	}
	emit(map[string]any{"type": "complete", "results": summaries})
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	infos, err := s.profiles.List()
	if err != nil {
		s.logger.Error().Err(err).Msg("list profiles")
		writeError(w, http.StatusInternalServerError, "failed to list profiles")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": infos})
}

func (s *Server) handleDefaultProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, profile.Default())
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var p profile.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid profile body")
		return
	}

	p.Normalize(time.Now().UTC())
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	path, err := s.profiles.Save(p)
	if err != nil {
		s.logger.Error().Err(err).Msg("save profile")
		writeError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"profile_path": path,
		"profile":      p,
	})
}

func splitParam(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
