package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"lc_accountability/internal/api/middleware"
	"lc_accountability/internal/app/service"
	"lc_accountability/internal/common"
	"lc_accountability/internal/domain/model"
	"lc_accountability/internal/domain/repository"
)

// ReportSource returns the latest stats report and can force a new one.
type ReportSource interface {
	Current(ctx context.Context) (*model.ReportSnapshot, error)
	RefreshWithLock(ctx context.Context) (*model.ReportSnapshot, error)
}

const (
	defaultOutcomeLimit = 20
	maxOutcomeLimit     = 200
)

type ReportHandler struct {
	reports      ReportSource
	users        repository.UserRepository
	outcomes     repository.OutcomeRepository // nil without DATABASE_URL
	solves       service.SolveCounter
	minGap       time.Duration
	lookbackDays int
	now          func() time.Time
}

func NewReportHandler(
	reports ReportSource,
	users repository.UserRepository,
	outcomes repository.OutcomeRepository,
	solves service.SolveCounter,
	minGap time.Duration,
	lookbackDays int,
) *ReportHandler {
	return &ReportHandler{
		reports:      reports,
		users:        users,
		outcomes:     outcomes,
		solves:       solves,
		minGap:       minGap,
		lookbackDays: lookbackDays,
		now:          time.Now,
	}
}

func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/report", h.getReport)
	r.With(middleware.AdminOnly).Post("/report/refresh", h.refreshReport)
	r.Get("/users/{username}/stats", h.getUserStats)
	r.Get("/users/{username}/outcomes", h.getUserOutcomes)
}

func (h *ReportHandler) getReport(w http.ResponseWriter, r *http.Request) {
	snap, err := h.reports.Current(r.Context())
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, snap)
}

func (h *ReportHandler) refreshReport(w http.ResponseWriter, r *http.Request) {
	snap, err := h.reports.RefreshWithLock(r.Context())
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, snap)
}

type userStatsResponse struct {
	model.UserStats
	Name         string       `json:"name"`
	MinQuestions int          `json:"min_questions"`
	Shortfall    int          `json:"shortfall"`
	Window       model.Window `json:"window"`
}

func (h *ReportHandler) getUserStats(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	days := h.lookbackDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			common.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid days %q", raw))
			return
		}
		days = n
	}

	user, err := h.users.FindByLeetCodeID(r.Context(), username)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	end := h.now().UTC()
	window := model.Window{Start: end.AddDate(0, 0, -days), End: end}
	record, err := h.solves.ComputeUniqueSolves(r.Context(), user.LeetCodeID, window, h.minGap)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	stats := model.StatsFromRecord(record)
	common.RespondWithJSON(w, http.StatusOK, userStatsResponse{
		UserStats:    stats,
		Name:         user.Name,
		MinQuestions: user.MinQuestions,
		Shortfall:    service.Shortfall(user.MinQuestions, stats.TotalQuestions),
		Window:       window,
	})
}

// getUserOutcomes lists the user's journaled decisions, newest first.
func (h *ReportHandler) getUserOutcomes(w http.ResponseWriter, r *http.Request) {
	if h.outcomes == nil {
		common.RespondWithDomainError(w, fmt.Errorf("outcome journal is not configured: %w", common.ErrServiceUnavailable))
		return
	}
	limit := defaultOutcomeLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxOutcomeLimit {
			common.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid limit %q", raw))
			return
		}
		limit = n
	}

	user, err := h.users.FindByLeetCodeID(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	records, err := h.outcomes.ListByUser(r.Context(), user.LeetCodeID, limit)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	if records == nil {
		records = []repository.OutcomeRecord{}
	}
	common.RespondWithJSON(w, http.StatusOK, records)
}
