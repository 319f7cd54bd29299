package analytics

import (
	"slices"
	"strings"
	"time"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
)

// Granularity is the bucket width of a time series.
type Granularity string

const (
	Hourly  Granularity = "hourly"
	Daily   Granularity = "daily"
	Monthly Granularity = "monthly"
)

// customHourlySpan is the widest observed span a custom range may cover
// and still be drawn hour by hour.
const customHourlySpan = 48 * time.Hour

// Bucket key layouts in UTC. Keys sort lexicographically in time order.
const (
	hourlyKeyLayout  = "2006-01-02T15"
	dailyKeyLayout   = "2006-01-02"
	monthlyKeyLayout = "2006-01"
)

// TrendPoint is one bucket of a time series. FullDate is the fixed-width
// sort key, Date the display label.
type TrendPoint struct {
	Date     string  `json:"date"`
	FullDate string  `json:"fullDate"`
	Value    float64 `json:"value"`
}

// SelectGranularity picks the bucket width for a date range. A custom
// range is drawn hourly when its observed instants span less than 48h.
func SelectGranularity(hint DateRange, instants []time.Time) Granularity {
	switch hint {
	case RangeToday:
		return Hourly
	case RangeAll:
		return Monthly
	case RangeCustom:
		if len(instants) == 0 {
			return Daily
		}
		lo, hi := instants[0], instants[0]
		for _, t := range instants[1:] {
			if t.Before(lo) {
				lo = t
			}
			if t.After(hi) {
				hi = t
			}
		}
		if hi.Sub(lo) < customHourlySpan {
			return Hourly
		}
		return Daily
	default:
		return Daily
	}
}

// BucketKey renders the UTC bucket key of t.
func BucketKey(t time.Time, g Granularity) string {
	t = t.UTC()
	switch g {
	case Hourly:
		return t.Format(hourlyKeyLayout)
	case Monthly:
		return t.Format(monthlyKeyLayout)
	default:
		return t.Format(dailyKeyLayout)
	}
}

// GranularityOfKey infers the granularity from a bucket key's shape.
func GranularityOfKey(key string) Granularity {
	switch {
	case strings.Contains(key, "T"):
		return Hourly
	case len(key) == len(monthlyKeyLayout):
		return Monthly
	default:
		return Daily
	}
}

func bucketLabel(t time.Time, g Granularity) string {
	t = t.UTC()
	switch g {
	case Hourly:
		return t.Truncate(time.Hour).Format("15:04")
	case Monthly:
		return t.Format("Jan 2006")
	default:
		return t.Format("Jan 2, 2006")
	}
}

type sample struct {
	at    time.Time
	value float64
}

type bucket struct {
	first time.Time
	sum   float64
	count int
}

// series buckets samples and emits points sorted by key. When mean is
// set the value is the one-decimal average of the samples, otherwise
// the sample count.
func series(samples []sample, hint DateRange, mean bool) []TrendPoint {
	instants := make([]time.Time, len(samples))
	for i, s := range samples {
		instants[i] = s.at
	}
	g := SelectGranularity(hint, instants)

	buckets := make(map[string]*bucket)
	for _, s := range samples {
		key := BucketKey(s.at, g)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{first: s.at}
			buckets[key] = b
		}
		b.sum += s.value
		b.count++
	}

	points := make([]TrendPoint, 0, len(buckets))
	for key, b := range buckets {
		value := float64(b.count)
		if mean {
			value = domain.RoundTo(b.sum/float64(b.count), 1)
		}
		points = append(points, TrendPoint{
			Date:     bucketLabel(b.first, g),
			FullDate: key,
			Value:    value,
		})
	}
	slices.SortFunc(points, func(a, b TrendPoint) int {
		return strings.Compare(a.FullDate, b.FullDate)
	})
	return points
}

// InflowTrend counts tickets by creation bucket.
func InflowTrend(tickets []domain.Ticket, hint DateRange) []TrendPoint {
	samples := make([]sample, 0, len(tickets))
	for _, t := range tickets {
		if t.HasCreatedTime() {
			samples = append(samples, sample{at: t.CreatedTime, value: 1})
		}
	}
	return series(samples, hint, false)
}

// BacklogTrend counts open tickets by creation bucket.
func BacklogTrend(tickets []domain.Ticket, hint DateRange) []TrendPoint {
	samples := make([]sample, 0, len(tickets))
	for _, t := range tickets {
		if t.IsOpen() && t.HasCreatedTime() {
			samples = append(samples, sample{at: t.CreatedTime, value: 1})
		}
	}
	return series(samples, hint, false)
}

// MTTRTrend averages resolution hours by resolution bucket. Only tickets
// with both a parseable resolution timestamp and a duration count.
func MTTRTrend(tickets []domain.Ticket, hint DateRange) []TrendPoint {
	samples := make([]sample, 0, len(tickets))
	for _, t := range tickets {
		if t.HasResolvedAtTime() && t.ResolvedHours != nil {
			samples = append(samples, sample{at: t.ResolvedAtTime, value: *t.ResolvedHours})
		}
	}
	return series(samples, hint, true)
}

// ReopenWeeks is the number of trailing weeks in the reopen trend.
const ReopenWeeks = 4

// ReopenWeekPoint is the reopen rate of one trailing week. W1 is the
// most recent seven days.
type ReopenWeekPoint struct {
	Week     string  `json:"week"`
	Rate     float64 `json:"rate"`
	Reopened int     `json:"reopened"`
	Total    int     `json:"total"`
}

// ReopenWeekLabels lists the week labels in order.
var ReopenWeekLabels = []string{"W1", "W2", "W3", "W4"}

// reopenWeekIndex returns the 0-based trailing week of t relative to now,
// or -1 when t is in the future or older than ReopenWeeks weeks.
func reopenWeekIndex(t domain.Ticket, now time.Time) int {
	if !t.HasCreatedTime() {
		return -1
	}
	elapsed := now.Sub(t.CreatedTime)
	if elapsed < 0 {
		return -1
	}
	week := int(elapsed/(24*time.Hour)) / 7
	if week >= ReopenWeeks {
		return -1
	}
	return week
}

// ReopenTrend computes the reopen rate for each of the last four weeks.
func ReopenTrend(tickets []domain.Ticket, now time.Time) []ReopenWeekPoint {
	points := make([]ReopenWeekPoint, ReopenWeeks)
	for i := range points {
		points[i].Week = ReopenWeekLabels[i]
	}

	for _, t := range tickets {
		w := reopenWeekIndex(t, now)
		if w < 0 {
			continue
		}
		points[w].Total++
		if t.IsReopened() {
			points[w].Reopened++
		}
	}

	for i := range points {
		points[i].Rate = domain.RoundTo(percent(points[i].Reopened, points[i].Total), 1)
	}
	return points
}
