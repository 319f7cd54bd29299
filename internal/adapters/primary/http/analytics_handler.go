package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/service-desk-insights/internal/adapters/primary/validation"
	"github.com/lorrc/service-desk-insights/internal/core/ports"
)

// maxBreakdownLimit caps the "limit" parameter of ranked breakdowns
const maxBreakdownLimit = 100

// AnalyticsHandler serves the dashboard queries.
type AnalyticsHandler struct {
	analyticsService ports.AnalyticsService
	errorHandler     *ErrorHandler
	logger           *slog.Logger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(
	analyticsService ports.AnalyticsService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		errorHandler:     errorHandler,
		logger:           logger.With("handler", "analytics"),
	}
}

// Router sets up a new chi Router for the analytics routes.
func (h *AnalyticsHandler) Router() http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes sets up the routing for all analytics endpoints.
func (h *AnalyticsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.HandleDashboard)
	r.Get("/kpis", h.HandleKPIs)
	r.Get("/trends/{kind}", h.HandleTrend)
	r.Get("/breakdowns/{kind}", h.HandleBreakdown)
	r.Get("/leaderboards", h.HandleLeaderboard)
	r.Get("/tickets", h.HandleListTickets)
	r.Get("/tickets/{ticketID}", h.HandleGetTicket)
}

// HandleDashboard handles GET /dashboard
func (h *AnalyticsHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	filters, err := validation.ParseFilterSelection(r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	dashboard, err := h.analyticsService.Dashboard(r.Context(), filters)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteJSON(w, http.StatusOK, dashboard)
}

// HandleKPIs handles GET /kpis
func (h *AnalyticsHandler) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	filters, err := validation.ParseFilterSelection(r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	report, err := h.analyticsService.KPIs(r.Context(), filters)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteJSON(w, http.StatusOK, report)
}

// HandleTrend handles GET /trends/{kind}
func (h *AnalyticsHandler) HandleTrend(w http.ResponseWriter, r *http.Request) {
	filters, err := validation.ParseFilterSelection(r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	kind := ports.TrendKind(chi.URLParam(r, "kind"))
	series, err := h.analyticsService.Trend(r.Context(), kind, filters)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteSuccess(w, series)
}

// HandleBreakdown handles GET /breakdowns/{kind}
func (h *AnalyticsHandler) HandleBreakdown(w http.ResponseWriter, r *http.Request) {
	filters, err := validation.ParseFilterSelection(r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	limit, err := validation.ParseLimit(r, maxBreakdownLimit)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	kind := ports.BreakdownKind(chi.URLParam(r, "kind"))
	rows, err := h.analyticsService.Breakdown(r.Context(), kind, filters, limit)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteSuccess(w, rows)
}

// HandleLeaderboard handles GET /leaderboards
func (h *AnalyticsHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	filters, err := validation.ParseFilterSelection(r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	query, err := validation.ParseLeaderboardQuery(r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	rows, err := h.analyticsService.Leaderboard(r.Context(), filters, query)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteList(w, rows)
}

// HandleListTickets handles GET /tickets
func (h *AnalyticsHandler) HandleListTickets(w http.ResponseWriter, r *http.Request) {
	params, err := parseTicketQuery(r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	page, err := h.analyticsService.Tickets(r.Context(), params)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WritePaginated(w, page.Rows, page.Page, page.PageSize, page.Total, page.TotalPages)
}

// HandleGetTicket handles GET /tickets/{ticketID}
func (h *AnalyticsHandler) HandleGetTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.analyticsService.Ticket(r.Context(), chi.URLParam(r, "ticketID"))
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteJSON(w, http.StatusOK, ticket)
}

// parseTicketQuery reads filters, drill-down and table parameters and
// reports every invalid field at once.
func parseTicketQuery(r *http.Request) (ports.TicketQueryParams, error) {
	filters, filterErr := validation.ParseFilterSelection(r)
	drill, drillErr := validation.ParseDrillDown(r)
	table, tableErr := validation.ParseTableQuery(r)

	if err := validation.Merge(filterErr, drillErr, tableErr); err != nil {
		return ports.TicketQueryParams{}, err
	}
	return ports.TicketQueryParams{
		Filters:   filters,
		DrillDown: drill,
		Table:     table,
	}, nil
}
