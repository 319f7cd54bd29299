package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lorrc/service-desk-insights/internal/core/analytics"
	"github.com/lorrc/service-desk-insights/internal/core/domain"
	"github.com/lorrc/service-desk-insights/internal/core/ports"
)

// Export sections, used in file names.
const (
	SectionDashboard = "Dashboard"
	SectionTickets   = "Tickets"
)

const notAvailable = "N/A"

// ExportFileName builds "ITSM_<section>_<dateRange>_<YYYY-MM-DD>.csv".
func ExportFileName(section string, dateRange analytics.DateRange, now time.Time) string {
	if dateRange == "" {
		dateRange = analytics.RangeAll
	}
	return fmt.Sprintf("ITSM_%s_%s_%s.csv", section, dateRange, now.Format("2006-01-02"))
}

// ExportService renders dashboard data as CSV documents.
type ExportService struct {
	snapshots ports.SnapshotService
	riskBasis analytics.RiskAgeBasis
	clock     func() time.Time
}

var _ ports.ExportService = (*ExportService)(nil)

// NewExportService creates a new export service
func NewExportService(
	snapshots ports.SnapshotService,
	riskBasis analytics.RiskAgeBasis,
	clock func() time.Time,
) *ExportService {
	if clock == nil {
		clock = time.Now
	}
	return &ExportService{
		snapshots: snapshots,
		riskBasis: riskBasis,
		clock:     clock,
	}
}

// DashboardCSV renders the filters, KPIs, SLA tracking and ticket details
// as three-column Section,Value,Details rows.
func (s *ExportService) DashboardCSV(ctx context.Context, f analytics.FilterSelection) (*ports.CSVExport, error) {
	v, err := currentView(s.snapshots, s.riskBasis, s.clock)
	if err != nil {
		return nil, err
	}
	tickets := analytics.FilterTickets(v.all, f, v.now)
	kpis := analytics.CalculateKPIs(tickets)

	rows := [][]string{
		{"=== DASHBOARD SUMMARY ===", "", ""},
		{"Export Date", v.now.Format("2006-01-02 15:04:05"), ""},
		{"Date Range Filter", orAll(string(f.DateRange)), customRange(f)},
		{"Status Filter", orAll(f.TicketStatus), ""},
		{"Priority Filter", orAll(f.Priority), ""},
		{"Region Filter", orAll(f.Region), ""},
		{"Assignment Group Filter", orAll(f.AssignmentGroup), ""},
		{"Assigned To Filter", orAll(f.AssignedTo), ""},
		{"", "", ""},
		{"=== KEY PERFORMANCE INDICATORS ===", "", ""},
		{"Total Tickets", strconv.Itoa(kpis.TotalTickets), ""},
		{"Backlog Tickets", strconv.Itoa(kpis.BacklogTickets), ""},
		{"Reopen Rate", kpis.ReopenRate + "%", ""},
		{"Mean Time To Resolution (MTTR)", kpis.MTTR + " hours", ""},
		{fmt.Sprintf("High-Hop Tickets (>=%d)", domain.HighHopThreshold), strconv.Itoa(kpis.HighHopTickets), ""},
		{"SLA Met Rate", kpis.SLAMetRate + "%", ""},
		{"", "", ""},
		{"=== SLA TRACKING ===", "", ""},
		{"Priority", "Met Rate", "Met | Breached"},
	}
	for _, r := range analytics.SLATracking(tickets) {
		rows = append(rows, []string{
			string(r.Priority),
			r.MetRate + "%",
			fmt.Sprintf("%d | %d", r.Met, r.Breached),
		})
	}

	rows = append(rows,
		[]string{"", "", ""},
		[]string{"=== TICKET DETAILS ===", "", ""},
		[]string{"Ticket ID", "Title", "Priority | Status | Assigned To | Group | Region | Business Unit | Created | Age | SLA Status | Resolved"},
	)
	for _, t := range tickets {
		details := []string{
			string(t.Priority), t.Status, t.Assignee, t.AssignmentGroup,
			strings.ToUpper(string(t.Region)), t.BusinessUnit, t.Created,
			strconv.Itoa(t.AgeDays), string(t.SLAStatus), orNA(t.Resolved),
		}
		rows = append(rows, []string{t.TicketID, t.Title, strings.Join(details, " | ")})
	}

	data, err := writeCSV([]string{"Section", "Value", "Details"}, rows)
	if err != nil {
		return nil, err
	}
	return &ports.CSVExport{
		FileName: ExportFileName(SectionDashboard, f.DateRange, v.now),
		Data:     data,
	}, nil
}

var ticketColumns = []string{
	"Ticket ID", "Title", "Priority", "Status", "Assigned To", "Assignment Group",
	"Region", "Business Unit", "Created", "Age", "Resolved", "Resolved By",
	"SLA Status", "Reopen Count", "Reassignment Count",
}

// TicketsCSV renders every row of the ticket table, search and sort
// applied, without paging.
func (s *ExportService) TicketsCSV(ctx context.Context, params ports.TicketQueryParams) (*ports.CSVExport, error) {
	v, err := currentView(s.snapshots, s.riskBasis, s.clock)
	if err != nil {
		return nil, err
	}
	tickets, err := v.selectTickets(params)
	if err != nil {
		return nil, err
	}

	tickets = analytics.SearchAndSort(tickets, params.Table)
	rows := make([][]string, 0, len(tickets))
	for _, t := range tickets {
		rows = append(rows, []string{
			t.TicketID,
			t.Title,
			string(t.Priority),
			t.Status,
			t.Assignee,
			t.AssignmentGroup,
			t.Region.DisplayName(),
			t.BusinessUnit,
			t.Created,
			fmt.Sprintf("%dd", t.AgeDays),
			orNA(t.Resolved),
			orNA(t.Resolver),
			string(t.SLAStatus),
			optionalInt(t.ReopenCount),
			optionalInt(t.ReassignmentCount),
		})
	}

	data, err := writeCSV(ticketColumns, rows)
	if err != nil {
		return nil, err
	}
	return &ports.CSVExport{
		FileName: ExportFileName(SectionTickets, params.Filters.DateRange, v.now),
		Data:     data,
	}, nil
}

func writeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}

func orAll(v string) string {
	if v == "" {
		return analytics.All
	}
	return v
}

func orNA(v string) string {
	if v == "" {
		return notAvailable
	}
	return v
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func customRange(f analytics.FilterSelection) string {
	if f.DateRange != analytics.RangeCustom {
		return ""
	}
	return f.CustomStartDate + " to " + f.CustomEndDate
}
