package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goodtune/screenbreak/internal/platform"
	"github.com/goodtune/screenbreak/internal/usage"
)

const (
	defaultTrendDays = 7
	maxTrendDays     = 366
	maxBodyBytes     = 1 << 16
)

// UsageSummaryResponse is returned by GET /usage-summary.
type UsageSummaryResponse struct {
	TodayUsageMinutes float64       `json:"todayUsageMinutes"`
	Entries           []usage.Entry `json:"entries"`
	Error             string        `json:"error,omitempty"`
}

// SessionsResponse is returned by GET /sessions.
type SessionsResponse struct {
	Date     string          `json:"date"`
	Sessions []usage.Session `json:"sessions"`
}

// TrendResponse is returned by GET /trend.
type TrendResponse struct {
	Days []usage.DayTotal `json:"days"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	Date                         string                        `json:"date"`
	TodayUsageMinutes            float64                       `json:"todayUsageMinutes"`
	DailyGoalMinutes             float64                       `json:"dailyGoalMinutes"`
	InterventionThresholdMinutes float64                       `json:"interventionThresholdMinutes"`
	Status                       string                        `json:"status"`
	Platforms                    map[platform.Platform]float64 `json:"platforms"`
	LastNotifiedAt               *time.Time                    `json:"lastNotifiedAt,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUsageSummary runs an evaluation cycle and reports today's usage.
func (s *Server) handleUsageSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.config.CycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.CycleTimeout)
		defer cancel()
	}

	summary := s.evaluator.RunCycle(ctx)

	entries := summary.Entries
	if entries == nil {
		entries = []usage.Entry{}
	}

	if summary.Err != nil {
		s.logger.Error().Err(summary.Err).Msg("Usage evaluation failed")
		writeJSON(w, http.StatusInternalServerError, UsageSummaryResponse{
			TodayUsageMinutes: 0,
			Entries:           []usage.Entry{},
			Error:             summary.Err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, UsageSummaryResponse{
		TodayUsageMinutes: summary.TodayUsageMinutes,
		Entries:           entries,
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.GetLog(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load settings")
		writeError(w, http.StatusInternalServerError, "Failed to load settings")
		return
	}

	writeJSON(w, http.StatusOK, doc.Settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch usage.SettingsPatch

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	settings, err := s.store.UpdateSettings(r.Context(), patch)
	if err != nil {
		if errors.Is(err, usage.ErrInvalidSettings) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error().Err(err).Msg("Failed to update settings")
		writeError(w, http.StatusInternalServerError, "Failed to update settings")
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	loc := s.clock.Location()

	date := r.URL.Query().Get("date")
	if date == "" {
		date = usage.Today(s.clock)
	} else if _, err := time.ParseInLocation(usage.DateLayout, date, loc); err != nil {
		writeError(w, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
		return
	}

	doc, err := s.store.GetLog(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load usage log")
		writeError(w, http.StatusInternalServerError, "Failed to load usage log")
		return
	}

	writeJSON(w, http.StatusOK, SessionsResponse{
		Date:     date,
		Sessions: usage.SessionsForDate(doc.Entries, date, loc, s.config.SessionGap),
	})
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	days := defaultTrendDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxTrendDays {
			writeError(w, http.StatusBadRequest, "days must be between 1 and 366")
			return
		}
		days = n
	}

	doc, err := s.store.GetLog(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load usage log")
		writeError(w, http.StatusInternalServerError, "Failed to load usage log")
		return
	}

	writeJSON(w, http.StatusOK, TrendResponse{
		Days: usage.WeeklyTrend(doc.Entries, usage.Today(s.clock), s.clock.Location(), days),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.GetLog(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load usage log")
		writeError(w, http.StatusInternalServerError, "Failed to load usage log")
		return
	}

	loc := s.clock.Location()
	today := usage.Today(s.clock)
	minutes := usage.DailyTotalMinutes(doc.Entries, today, loc)

	writeJSON(w, http.StatusOK, StatusResponse{
		Date:                         today,
		TodayUsageMinutes:            minutes,
		DailyGoalMinutes:             doc.DailyGoalMinutes,
		InterventionThresholdMinutes: doc.InterventionThresholdMinutes,
		Status:                       usage.GoalStatus(minutes, doc.DailyGoalMinutes),
		Platforms:                    usage.PlatformTotals(doc.Entries, today, loc),
		LastNotifiedAt:               doc.LastNotifiedAt,
	})
}
