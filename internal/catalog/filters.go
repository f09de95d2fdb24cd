package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/mazeed/internal/models"
	"github.com/desertthunder/mazeed/internal/shared"
)

// DateRange limits items by publish date.
type DateRange string

const (
	DateAll     DateRange = "all"
	Date30Days  DateRange = "30days"
	Date90Days  DateRange = "90days"
	Date6Months DateRange = "6months"
	DateYear    DateRange = "year"
)

// ContentType limits items to reels or everything else.
type ContentType string

const (
	TypeAll   ContentType = "all"
	TypeReels ContentType = "reels"
	TypePosts ContentType = "posts"
)

// Performance buckets items by play count.
type Performance string

const (
	PerformanceAll    Performance = "all"
	PerformanceHigh   Performance = "high"
	PerformanceMedium Performance = "medium"
	PerformanceLow    Performance = "low"
)

// Play count boundaries of the performance buckets.
const (
	HighPlays   = 1_000_000
	MediumPlays = 500_000
)

// months returns how far back the range reaches.
func (d DateRange) months() int {
	switch d {
	case Date30Days:
		return 1
	case Date90Days:
		return 3
	case Date6Months:
		return 6
	case DateYear:
		return 12
	default:
		return 0
	}
}

// Label is the heading shown above filtered results.
func (d DateRange) Label() string {
	switch d {
	case Date30Days:
		return "Last 30 Days"
	case Date90Days:
		return "Last 90 Days"
	case Date6Months:
		return "Last 6 Months"
	case DateYear:
		return "Last Year"
	default:
		return "All Time"
	}
}

// Filters is the active filter set. The zero value matches everything.
type Filters struct {
	DateRange   DateRange
	ContentType ContentType
	Performance Performance
}

// ParseFilters validates filter names from user input. Empty strings mean "all".
func ParseFilters(dateRange, contentType, performance string) (Filters, error) {
	f := Filters{
		DateRange:   DateRange(strings.ToLower(dateRange)),
		ContentType: ContentType(strings.ToLower(contentType)),
		Performance: Performance(strings.ToLower(performance)),
	}

	switch f.DateRange {
	case "", DateAll, Date30Days, Date90Days, Date6Months, DateYear:
	default:
		return Filters{}, fmt.Errorf("%w: date range %q", shared.ErrInvalidFlag, dateRange)
	}
	switch f.ContentType {
	case "", TypeAll, TypeReels, TypePosts:
	default:
		return Filters{}, fmt.Errorf("%w: content type %q", shared.ErrInvalidFlag, contentType)
	}
	switch f.Performance {
	case "", PerformanceAll, PerformanceHigh, PerformanceMedium, PerformanceLow:
	default:
		return Filters{}, fmt.Errorf("%w: performance %q", shared.ErrInvalidFlag, performance)
	}
	return f, nil
}

// Reset clears every filter.
func (f *Filters) Reset() {
	*f = Filters{}
}

// ActiveCount is the number of filters not set to "all".
func (f Filters) ActiveCount() int {
	n := 0
	if f.DateRange != "" && f.DateRange != DateAll {
		n++
	}
	if f.ContentType != "" && f.ContentType != TypeAll {
		n++
	}
	if f.Performance != "" && f.Performance != PerformanceAll {
		n++
	}
	return n
}

// Match reports whether item passes every filter relative to now.
func (f Filters) Match(item models.ContentItem, now time.Time) bool {
	if m := f.DateRange.months(); m > 0 {
		if item.PublishedAt.Before(now.AddDate(0, -m, 0)) {
			return false
		}
	}

	switch f.ContentType {
	case TypeReels:
		if !item.IsReel() {
			return false
		}
	case TypePosts:
		if item.IsReel() {
			return false
		}
	}

	switch f.Performance {
	case PerformanceHigh:
		return item.PlayCount > HighPlays
	case PerformanceMedium:
		return item.PlayCount > MediumPlays && item.PlayCount <= HighPlays
	case PerformanceLow:
		return item.PlayCount <= MediumPlays
	}
	return true
}

// Apply returns the items that match, preserving order.
func (f Filters) Apply(items []models.ContentItem, now time.Time) []models.ContentItem {
	out := make([]models.ContentItem, 0, len(items))
	for _, item := range items {
		if f.Match(item, now) {
			out = append(out, item)
		}
	}
	return out
}

// FormatCount abbreviates large counts: 1.2M, 3.4K.
func FormatCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
