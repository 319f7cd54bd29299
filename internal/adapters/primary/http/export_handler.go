package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/service-desk-insights/internal/adapters/primary/validation"
	"github.com/lorrc/service-desk-insights/internal/core/ports"
)

// ExportHandler serves CSV downloads.
type ExportHandler struct {
	exportService ports.ExportService
	errorHandler  *ErrorHandler
	logger        *slog.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(exportService ports.ExportService, errorHandler *ErrorHandler, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
		errorHandler:  errorHandler,
		logger:        logger.With("handler", "export"),
	}
}

// RegisterRoutes sets up the routing for the export endpoints.
func (h *ExportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard.csv", h.HandleDashboardCSV)
	r.Get("/tickets.csv", h.HandleTicketsCSV)
}

// HandleDashboardCSV handles GET /export/dashboard.csv
func (h *ExportHandler) HandleDashboardCSV(w http.ResponseWriter, r *http.Request) {
	filters, err := validation.ParseFilterSelection(r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	export, err := h.exportService.DashboardCSV(r.Context(), filters)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	h.logger.InfoContext(r.Context(), "dashboard exported", "file", export.FileName, "bytes", len(export.Data))
	WriteCSV(w, export.FileName, export.Data)
}

// HandleTicketsCSV handles GET /export/tickets.csv. Paging parameters are
// accepted but the export always holds every matching row.
func (h *ExportHandler) HandleTicketsCSV(w http.ResponseWriter, r *http.Request) {
	params, err := parseTicketQuery(r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	export, err := h.exportService.TicketsCSV(r.Context(), params)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	h.logger.InfoContext(r.Context(), "tickets exported", "file", export.FileName, "bytes", len(export.Data))
	WriteCSV(w, export.FileName, export.Data)
}
