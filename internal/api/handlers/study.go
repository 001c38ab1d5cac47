package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/catalyst-alpha/internal/contracts"
	"github.com/wonny/catalyst-alpha/internal/eventstudy"
	"github.com/wonny/catalyst-alpha/internal/marketdata"
	"github.com/wonny/catalyst-alpha/internal/study"
	"github.com/wonny/catalyst-alpha/pkg/logger"
)

// StudyRunner executes a study
type StudyRunner interface {
	Run(ctx context.Context, req study.Request) (*study.Result, error)
}

// RunReader reads persisted runs
type RunReader interface {
	GetRun(ctx context.Context, runID string) (*contracts.StudyRun, error)
	ListRuns(ctx context.Context, limit int) ([]contracts.StudyRun, error)
	ListResults(ctx context.Context, runID string) ([]contracts.ResultRecord, error)
}

// StudyHandler handles event study endpoints
// ⭐ SSOT: 스터디 API 핸들러는 이 구조체에서만
type StudyHandler struct {
	runner StudyRunner
	runs   RunReader
	logger *logger.Logger
}

// NewStudyHandler creates a new study handler. runs may be nil when no database is configured.
func NewStudyHandler(runner StudyRunner, runs RunReader, log *logger.Logger) *StudyHandler {
	return &StudyHandler{
		runner: runner,
		runs:   runs,
		logger: log,
	}
}

// EventRequest is one event in a study request
type EventRequest struct {
	Ticker       string `json:"ticker"`
	EventDate    string `json:"event_date"` // YYYY-MM-DD
	QualityScore string `json:"quality_score"`
	CatalystType string `json:"catalyst_type"`
	TrialID      string `json:"trial_id,omitempty"`
}

// RunStudyRequest represents a study run request
type RunStudyRequest struct {
	Events  []EventRequest    `json:"events"`
	Tickers []string          `json:"tickers,omitempty"`
	From    string            `json:"from,omitempty"` // Optional: YYYY-MM-DD
	To      string            `json:"to,omitempty"`   // Optional: YYYY-MM-DD
	Config  eventstudy.Config `json:"config"`          // fields left out keep their defaults
	GroupBy string            `json:"group_by,omitempty"`
	Persist bool              `json:"persist,omitempty"`
}

func (req RunStudyRequest) toStudyRequest() (study.Request, error) {
	out := study.Request{
		Tickers: req.Tickers,
		Config:  req.Config,
		GroupBy: study.GroupBy(req.GroupBy),
		Persist: req.Persist,
	}

	var err error
	if req.From != "" {
		if out.From, err = time.Parse(contracts.DateLayout, req.From); err != nil {
			return study.Request{}, fmt.Errorf("invalid 'from' date format (expected YYYY-MM-DD)")
		}
	}
	if req.To != "" {
		if out.To, err = time.Parse(contracts.DateLayout, req.To); err != nil {
			return study.Request{}, fmt.Errorf("invalid 'to' date format (expected YYYY-MM-DD)")
		}
	}

	out.Events = make([]contracts.EventDescriptor, 0, len(req.Events))
	for i, e := range req.Events {
		date, err := time.Parse(contracts.DateLayout, e.EventDate)
		if err != nil {
			return study.Request{}, fmt.Errorf("events[%d]: invalid event_date %q", i, e.EventDate)
		}
		ev, err := contracts.NewEventDescriptor(e.Ticker, date, e.QualityScore, e.CatalystType)
		if err != nil {
			return study.Request{}, fmt.Errorf("events[%d]: %v", i, err)
		}
		out.Events = append(out.Events, ev.WithTrialID(e.TrialID))
	}

	return out, nil
}

// RunStudy runs an event study synchronously
// POST /api/studies
func (h *StudyHandler) RunStudy(w http.ResponseWriter, r *http.Request) {
	body := RunStudyRequest{Config: eventstudy.DefaultConfig()}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(body.Events) == 0 {
		respondError(w, http.StatusBadRequest, "at least one event is required")
		return
	}

	req, err := body.toStudyRequest()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.runner.Run(r.Context(), req)
	if err != nil {
		status := studyErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.WithError(err).Error("Study run failed")
			respondError(w, status, "Study run failed")
			return
		}
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// ListRuns returns recent persisted runs
// GET /api/studies?limit=20
func (h *StudyHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if !h.requireRuns(w) {
		return
	}

	runs, err := h.runs.ListRuns(r.Context(), parseIntParam(r, "limit", 20))
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetRun returns one persisted run header
// GET /api/studies/{runID}
func (h *StudyHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	if !h.requireRuns(w) {
		return
	}
	runID := mux.Vars(r)["runID"]

	run, err := h.runs.GetRun(r.Context(), runID)
	if err != nil {
		h.respondRunError(w, runID, err)
		return
	}

	respondJSON(w, http.StatusOK, run)
}

// GetResults returns the per-event records of a persisted run
// GET /api/studies/{runID}/results
func (h *StudyHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	if !h.requireRuns(w) {
		return
	}
	runID := mux.Vars(r)["runID"]

	records, err := h.runs.ListResults(r.Context(), runID)
	if err != nil {
		h.respondRunError(w, runID, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":  runID,
		"records": records,
		"count":   len(records),
	})
}

// GetSummary returns the grouped means of a persisted run
// GET /api/studies/{runID}/summary?by=quality_score
func (h *StudyHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	if !h.requireRuns(w) {
		return
	}
	runID := mux.Vars(r)["runID"]

	by, err := study.ParseGroupBy(r.URL.Query().Get("by"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid group (valid: quality_score, catalyst_type)")
		return
	}

	records, err := h.runs.ListResults(r.Context(), runID)
	if err != nil {
		h.respondRunError(w, runID, err)
		return
	}

	summary, err := study.Summarize(records, by)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":   runID,
		"group_by": by,
		"summary":  summary,
	})
}

func (h *StudyHandler) requireRuns(w http.ResponseWriter) bool {
	if h.runs == nil {
		respondError(w, http.StatusServiceUnavailable, "Result storage is not configured")
		return false
	}
	return true
}

func (h *StudyHandler) respondRunError(w http.ResponseWriter, runID string, err error) {
	if errors.Is(err, marketdata.ErrRunNotFound) {
		respondError(w, http.StatusNotFound, "run not found: "+runID)
		return
	}
	h.logger.WithError(err).WithField("run_id", runID).Error("Failed to read run")
	respondError(w, http.StatusInternalServerError, "Failed to retrieve run")
}

// studyErrorStatus maps service errors to HTTP status codes
func studyErrorStatus(err error) int {
	switch {
	case errors.Is(err, eventstudy.ErrInvalidConfig),
		errors.Is(err, study.ErrInvalidRequest),
		errors.Is(err, study.ErrInvalidGroupBy),
		errors.Is(err, contracts.ErrInvalidEvent):
		return http.StatusBadRequest
	case errors.Is(err, study.ErrNoBenchmarkPrices):
		return http.StatusUnprocessableEntity
	case errors.Is(err, study.ErrPersistenceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
