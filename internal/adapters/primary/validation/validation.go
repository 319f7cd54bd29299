package validation

import (
	"errors"
	"net/http"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/lorrc/service-desk-insights/internal/core/analytics"
	"github.com/lorrc/service-desk-insights/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-insights/internal/core/errors"
)

var calendarDateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Validator validates request data
type Validator struct {
	errors *apperrors.ValidationErrors
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{
		errors: apperrors.NewValidationErrors(),
	}
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return v.errors.HasErrors()
}

// Errors returns the validation errors
func (v *Validator) Errors() *apperrors.ValidationErrors {
	return v.errors
}

// Err returns the validation errors as an error, or nil when there are none
func (v *Validator) Err() error {
	if v.HasErrors() {
		return v.errors
	}
	return nil
}

// RequiredIf validates that a string is not empty if condition is true
func (v *Validator) RequiredIf(field, value string, condition bool, message string) *Validator {
	if condition && strings.TrimSpace(value) == "" {
		v.errors.Add(field, message)
	}
	return v
}

// Range validates integer is within range
func (v *Validator) Range(field string, value, min, max int) *Validator {
	if value < min || value > max {
		v.errors.Add(field, "Must be between "+strconv.Itoa(min)+" and "+strconv.Itoa(max))
	}
	return v
}

// OneOf validates value is one of the allowed values
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value == "" {
		return v // Empty means "not set"
	}

	if slices.Contains(allowed, value) {
		return v
	}

	v.errors.Add(field, "Must be one of: "+strings.Join(allowed, ", "))
	return v
}

// Matches validates value matches a regex pattern
func (v *Validator) Matches(field, value string, pattern *regexp.Regexp, message string) *Validator {
	if value != "" && !pattern.MatchString(value) {
		v.errors.Add(field, message)
	}
	return v
}

// Custom adds a custom validation
func (v *Validator) Custom(field string, valid bool, message string) *Validator {
	if !valid {
		v.errors.Add(field, message)
	}
	return v
}

// Int parses an optional integer field. A blank value yields def.
func (v *Validator) Int(field, value string, def int) int {
	if value == "" {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		v.errors.Add(field, "Must be an integer")
		return def
	}
	return n
}

// ParseFilterSelection reads the dashboard filters from the query string.
// Missing parameters default to "all". Priority and region are matched
// case-insensitively and returned in their canonical form.
func ParseFilterSelection(r *http.Request) (analytics.FilterSelection, error) {
	q := r.URL.Query()
	v := NewValidator()

	f := analytics.DefaultFilters()
	if dr := q.Get("dateRange"); dr != "" {
		f.DateRange = analytics.DateRange(dr)
	}
	v.OneOf("dateRange", string(f.DateRange), dateRangeNames())

	f.TicketStatus = orAll(strings.ToLower(q.Get("ticketStatus")))
	v.OneOf("ticketStatus", f.TicketStatus, []string{analytics.All, analytics.StatusFilterOpen, analytics.StatusFilterClosed})

	f.Priority = canonical(q.Get("priority"), priorityNames())
	v.OneOf("priority", f.Priority, append([]string{analytics.All}, priorityNames()...))

	f.Region = canonical(q.Get("region"), regionNames())
	v.OneOf("region", f.Region, append([]string{analytics.All}, regionNames()...))

	if group := strings.TrimSpace(q.Get("assignmentGroup")); group != "" {
		f.AssignmentGroup = group
	}
	if assignee := strings.TrimSpace(q.Get("assignedTo")); assignee != "" {
		f.AssignedTo = assignee
	}

	if f.DateRange == analytics.RangeCustom {
		f.CustomStartDate = strings.TrimSpace(q.Get("customStartDate"))
		f.CustomEndDate = strings.TrimSpace(q.Get("customEndDate"))
		validateCustomRange(v, f)
	}

	if err := v.Err(); err != nil {
		return analytics.FilterSelection{}, err
	}
	return f, nil
}

func validateCustomRange(v *Validator, f analytics.FilterSelection) {
	v.RequiredIf("customStartDate", f.CustomStartDate, true, "Required when dateRange is custom")
	v.RequiredIf("customEndDate", f.CustomEndDate, true, "Required when dateRange is custom")
	v.Matches("customStartDate", f.CustomStartDate, calendarDateRegex, "Must be a date in YYYY-MM-DD format")
	v.Matches("customEndDate", f.CustomEndDate, calendarDateRegex, "Must be a date in YYYY-MM-DD format")
	if v.HasErrors() {
		return
	}

	start, startOK := domain.ParseCalendarDate(f.CustomStartDate, nil)
	end, endOK := domain.ParseCalendarDate(f.CustomEndDate, nil)
	v.Custom("customStartDate", startOK, "Must be a valid calendar date")
	v.Custom("customEndDate", endOK, "Must be a valid calendar date")
	if startOK && endOK {
		v.Custom("customEndDate", !end.Before(start), "Must not be before customStartDate")
	}
}

// ParseDrillDown reads an optional chart drill-down. It returns nil when
// no dimension is given.
func ParseDrillDown(r *http.Request) (*analytics.DrillDown, error) {
	q := r.URL.Query()
	dimension := q.Get("dimension")
	if dimension == "" {
		return nil, nil
	}

	v := NewValidator()
	names := make([]string, len(analytics.Dimensions))
	for i, d := range analytics.Dimensions {
		names[i] = string(d)
	}
	v.OneOf("dimension", dimension, names)

	priority := canonical(q.Get("drillPriority"), priorityNames())
	if priority == analytics.All {
		priority = ""
	}
	d := &analytics.DrillDown{
		Dimension: analytics.Dimension(dimension),
		Value:     q.Get("value"),
		Priority:  priority,
	}
	v.RequiredIf("value", d.Value, true, "Required when dimension is set")
	v.OneOf("drillPriority", d.Priority, priorityNames())

	if err := v.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

// ParseTableQuery reads search, sort and paging for the ticket table.
func ParseTableQuery(r *http.Request) (analytics.TableQuery, error) {
	q := r.URL.Query()
	v := NewValidator()

	t := analytics.TableQuery{
		Search:    strings.TrimSpace(q.Get("search")),
		SortKey:   q.Get("sort"),
		Direction: analytics.SortDirection(strings.ToLower(q.Get("dir"))),
	}
	v.OneOf("sort", t.SortKey, analytics.SortableColumns)
	v.OneOf("dir", string(t.Direction), []string{string(analytics.SortAsc), string(analytics.SortDesc)})

	t.Page = v.Int("page", q.Get("page"), 1)
	v.Custom("page", t.Page >= 1, "Must be at least 1")

	t.PageSize = v.Int("pageSize", q.Get("pageSize"), analytics.DefaultPageSize)
	v.Custom("pageSize", slices.Contains(analytics.PageSizes, t.PageSize), "Must be one of: "+joinInts(analytics.PageSizes))

	if err := v.Err(); err != nil {
		return analytics.TableQuery{}, err
	}
	return t, nil
}

// ParseLeaderboardQuery reads mode, sort column and direction.
func ParseLeaderboardQuery(r *http.Request) (analytics.LeaderboardQuery, error) {
	q := r.URL.Query()
	v := NewValidator()

	lq := analytics.LeaderboardQuery{
		Mode:      analytics.LeaderboardMode(q.Get("mode")),
		SortKey:   analytics.LeaderboardSortKey(q.Get("sort")),
		Direction: analytics.SortDirection(strings.ToLower(q.Get("dir"))),
	}
	v.OneOf("mode", string(lq.Mode), []string{string(analytics.ModeResolver), string(analytics.ModeAssignee)})
	v.OneOf("sort", string(lq.SortKey), []string{
		string(analytics.SortByTotal), string(analytics.SortBySLAMetRate), string(analytics.SortByReopened),
		string(analytics.SortByHighHop), string(analytics.SortByName),
	})
	v.OneOf("dir", string(lq.Direction), []string{string(analytics.SortAsc), string(analytics.SortDesc)})

	if err := v.Err(); err != nil {
		return analytics.LeaderboardQuery{}, err
	}
	return lq, nil
}

// ParseLimit reads an optional "limit" parameter in [1, max]. Zero means
// "not set".
func ParseLimit(r *http.Request, max int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}

	v := NewValidator()
	limit := v.Int("limit", raw, 0)
	if !v.HasErrors() {
		v.Range("limit", limit, 1, max)
	}
	if err := v.Err(); err != nil {
		return 0, err
	}
	return limit, nil
}

// Merge combines the field errors of several parsers into one
// ValidationErrors. Any other error is returned as is.
func Merge(errs ...error) error {
	merged := apperrors.NewValidationErrors()
	for _, err := range errs {
		if err == nil {
			continue
		}
		var verrs *apperrors.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for field, messages := range verrs.Errors {
			for _, m := range messages {
				merged.Add(field, m)
			}
		}
	}
	if merged.HasErrors() {
		return merged
	}
	return nil
}

func dateRangeNames() []string {
	names := make([]string, len(analytics.FilterRanges))
	for i, dr := range analytics.FilterRanges {
		names[i] = string(dr)
	}
	return names
}

func priorityNames() []string {
	names := make([]string, len(domain.Priorities))
	for i, p := range domain.Priorities {
		names[i] = string(p)
	}
	return names
}

func regionNames() []string {
	names := make([]string, len(domain.Regions))
	for i, r := range domain.Regions {
		names[i] = string(r)
	}
	return names
}

// canonical maps value onto the matching entry of allowed, ignoring case.
// "all" and blank become analytics.All; unknown values pass through for
// OneOf to reject.
func canonical(value string, allowed []string) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, analytics.All) {
		return analytics.All
	}
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return a
		}
	}
	return value
}

func orAll(v string) string {
	if v == "" {
		return analytics.All
	}
	return v
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, n := range values {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
