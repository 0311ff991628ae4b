package app

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smartfarm/agridrone/internal/mission"
	"github.com/smartfarm/agridrone/internal/storage"
)

const defaultMissionDuration = 10 * time.Minute

// server exposes the mission control surface over HTTP: starting and
// stopping missions, live status and report retrieval.
type server struct {
	config       *Config
	orchestrator *mission.Orchestrator
	store        storage.Store
	sink         *sinkSwitch
	logger       *slog.Logger
}

func newServer(config *Config, orchestrator *mission.Orchestrator, store storage.Store, sink *sinkSwitch, logger *slog.Logger) *server {
	return &server{
		config:       config,
		orchestrator: orchestrator,
		store:        store,
		sink:         sink,
		logger:       logger,
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /mission/start", s.handleStart)
	mux.HandleFunc("POST /mission/stop", s.handleStop)
	mux.HandleFunc("GET /mission/report", s.handleReport)
	mux.HandleFunc("GET /missions", s.handleMissions)
	mux.HandleFunc("GET /missions/{id}", s.handleMission)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

type startRequest struct {
	Duration string `json:"duration"`
}

type startResponse struct {
	MissionID int64  `json:"mission_id"`
	Duration  string `json:"duration"`
}

func (s *server) handleStart(w http.ResponseWriter, r *http.Request) {
	duration := defaultMissionDuration
	if r.Body != nil && r.ContentLength != 0 {
		var req startRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Duration != "" {
			d, err := time.ParseDuration(req.Duration)
			if err != nil || d < 0 {
				s.writeError(w, http.StatusBadRequest, "invalid mission duration")
				return
			}
			duration = d
		}
	}

	// A rejected start must leave no trace: no mission row, and the
	// active mission's sink untouched.
	if s.orchestrator.Status().MissionActive {
		s.writeError(w, http.StatusConflict, "mission already active")
		return
	}

	missionID, err := s.store.CreateMission(r.Context(), time.Now().UTC(),
		s.config.Field.Width, s.config.Field.Height, s.config.Field.ZoneSize, s.config)
	if err != nil {
		s.logger.Error("failed to create mission", slog.Any("error", err))
		s.writeError(w, http.StatusInternalServerError, "failed to create mission")
		return
	}

	prev := s.sink.Swap(storage.NewMissionSink(s.store, missionID))

	if err = s.orchestrator.Start(duration); err != nil {
		s.sink.Set(prev)
		if endErr := s.store.EndMission(r.Context(), missionID, time.Now(), false); endErr != nil {
			s.logger.Warn("closing unused mission", slog.Int64("missionID", missionID), slog.Any("error", endErr))
		}

		if errors.Is(err, mission.ErrMissionActive) {
			s.writeError(w, http.StatusConflict, "mission already active")
			return
		}
		s.logger.Error("failed to start mission", slog.Any("error", err))
		s.writeError(w, http.StatusInternalServerError, "failed to start mission")
		return
	}

	s.logger.Info("mission started",
		slog.Int64("missionID", missionID),
		slog.Duration("duration", duration))

	s.writeJSON(w, http.StatusAccepted, startResponse{
		MissionID: missionID,
		Duration:  duration.String(),
	})
}

func (s *server) handleStop(w http.ResponseWriter, r *http.Request) {
	if err := s.orchestrator.Stop(); err != nil {
		if errors.Is(err, mission.ErrNoActiveMission) {
			s.writeError(w, http.StatusConflict, "no active mission")
			return
		}
		s.logger.Error("failed to stop mission", slog.Any("error", err))
		s.writeError(w, http.StatusInternalServerError, "failed to stop mission")
		return
	}

	s.logger.Info("mission stopped")
	s.writeJSON(w, http.StatusOK, s.orchestrator.Status())
}

type reportResponse struct {
	*mission.Summary
	Completed string `json:"completed"`
	Elapsed   string `json:"elapsed"`
}

func (s *server) handleReport(w http.ResponseWriter, r *http.Request) {
	summary := s.orchestrator.Report()
	if summary == nil {
		s.writeError(w, http.StatusNotFound, "no mission report available")
		return
	}

	s.writeJSON(w, http.StatusOK, reportResponse{
		Summary:   summary,
		Completed: humanize.Time(summary.EndTime),
		Elapsed:   summary.Duration.Round(time.Second).String(),
	})
}

func (s *server) handleMissions(w http.ResponseWriter, r *http.Request) {
	missions, err := s.store.Missions(r.Context())
	if err != nil {
		s.logger.Error("failed to list missions", slog.Any("error", err))
		s.writeError(w, http.StatusInternalServerError, "failed to list missions")
		return
	}
	s.writeJSON(w, http.StatusOK, missions)
}

type missionResponse struct {
	Mission *storage.Mission      `json:"mission"`
	Summary *mission.Summary      `json:"summary,omitempty"`
	Scans   []mission.ScanRecord  `json:"scans"`
	Sprays  []mission.SprayRecord `json:"sprays"`
}

func (s *server) handleMission(w http.ResponseWriter, r *http.Request) {
	missionID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid mission id")
		return
	}

	m, err := s.store.Mission(r.Context(), missionID)
	if err != nil {
		s.logger.Error("failed to load mission", slog.Any("error", err))
		s.writeError(w, http.StatusInternalServerError, "failed to load mission")
		return
	}
	if m == nil {
		s.writeError(w, http.StatusNotFound, "mission not found")
		return
	}

	summary, err := s.store.Summary(r.Context(), missionID)
	if err != nil {
		s.logger.Error("failed to load summary", slog.Any("error", err))
		s.writeError(w, http.StatusInternalServerError, "failed to load mission")
		return
	}

	scans, err := s.store.Scans(r.Context(), missionID)
	if err != nil {
		s.logger.Error("failed to load scans", slog.Any("error", err))
		s.writeError(w, http.StatusInternalServerError, "failed to load mission")
		return
	}

	sprays, err := s.store.Sprays(r.Context(), missionID)
	if err != nil {
		s.logger.Error("failed to load sprays", slog.Any("error", err))
		s.writeError(w, http.StatusInternalServerError, "failed to load mission")
		return
	}

	s.writeJSON(w, http.StatusOK, missionResponse{
		Mission: m,
		Summary: summary,
		Scans:   scans,
		Sprays:  sprays,
	})
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.orchestrator.Status())
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", slog.Any("error", err))
	}
}

func (s *server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
