package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/lorrc/service-desk-insights/internal/adapters/primary/http/middleware"
	"github.com/lorrc/service-desk-insights/internal/adapters/primary/validation"
	"github.com/lorrc/service-desk-insights/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-insights/internal/core/errors"
	"github.com/lorrc/service-desk-insights/internal/core/ports"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
)

// AdminHandler exposes snapshot status and reload to operators. Routes
// are expected behind JWTMiddleware and RequireAdmin.
type AdminHandler struct {
	snapshotService ports.SnapshotService
	errorHandler    *ErrorHandler
	logger          *slog.Logger
}

func NewAdminHandler(snapshotService ports.SnapshotService, errorHandler *ErrorHandler, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		snapshotService: snapshotService,
		errorHandler:    errorHandler,
		logger:          logger.With("handler", "admin"),
	}
}

func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/snapshot", h.HandleSnapshotStatus)
	r.Post("/snapshot/reload", h.HandleReload)
	r.Get("/ingest-runs", h.HandleListRuns)
}

// IngestRunDTO is the API shape of a recorded snapshot build.
type IngestRunDTO struct {
	ID          uuid.UUID  `json:"id"`
	SnapshotID  *uuid.UUID `json:"snapshotId,omitempty"`
	Source      string     `json:"source"`
	FromCache   bool       `json:"fromCache"`
	RecordCount int        `json:"recordCount"`
	TicketCount int        `json:"ticketCount"`
	StartedAt   time.Time  `json:"startedAt"`
	FinishedAt  time.Time  `json:"finishedAt"`
	DurationMS  int64      `json:"durationMs"`
	Succeeded   bool       `json:"succeeded"`
	Error       string     `json:"error,omitempty"`
}

func toIngestRunDTO(run domain.IngestRun) IngestRunDTO {
	return IngestRunDTO{
		ID:          run.ID,
		SnapshotID:  run.SnapshotID,
		Source:      run.Source,
		FromCache:   run.FromCache,
		RecordCount: run.RecordCount,
		TicketCount: run.TicketCount,
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
		DurationMS:  run.Duration().Milliseconds(),
		Succeeded:   run.Succeeded(),
		Error:       run.Error,
	}
}

// SnapshotStatusResponse describes the loaded snapshot and the last build.
type SnapshotStatusResponse struct {
	Loaded    bool                 `json:"loaded"`
	Snapshot  *domain.SnapshotInfo `json:"snapshot,omitempty"`
	LatestRun *IngestRunDTO        `json:"latestRun,omitempty"`
}

// HandleSnapshotStatus handles GET /admin/snapshot
func (h *AdminHandler) HandleSnapshotStatus(w http.ResponseWriter, r *http.Request) {
	var response SnapshotStatusResponse

	if snap, err := h.snapshotService.Current(); err == nil {
		info := snap.Info()
		response.Loaded = true
		response.Snapshot = &info
	} else if !errors.Is(err, apperrors.ErrSnapshotNotLoaded) {
		h.errorHandler.Handle(w, r, err)
		return
	}

	run, err := h.snapshotService.LatestRun(r.Context())
	switch {
	case err == nil:
		dto := toIngestRunDTO(*run)
		response.LatestRun = &dto
	case errors.Is(err, apperrors.ErrNoIngestRuns):
	default:
		h.logger.WarnContext(r.Context(), "failed to read latest ingest run", "error", err)
	}

	WriteJSON(w, http.StatusOK, response)
}

// HandleReload handles POST /admin/snapshot/reload. It waits for the
// rebuild; a failed rebuild leaves the previous snapshot serving.
func (h *AdminHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	subject := ""
	if claims, ok := mw.GetClaims(r.Context()); ok {
		subject = claims.Subject
	}
	h.logger.InfoContext(r.Context(), "snapshot reload requested", "requested_by", subject)

	snap, err := h.snapshotService.Reload(r.Context())
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteSuccess(w, snap.Info())
}

// HandleListRuns handles GET /admin/ingest-runs
func (h *AdminHandler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := validation.ParseLimit(r, maxRunsLimit)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	if limit == 0 {
		limit = defaultRunsLimit
	}

	runs, err := h.snapshotService.RecentRuns(r.Context(), limit)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	dtos := make([]IngestRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toIngestRunDTO(run)
	}
	WriteList(w, dtos)
}
