package service

import (
	"time"

	"github.com/dnlabs/credit-gateway/internal/core/domain"
)

// DefaultDayLayout renders labels such as "Mar 7".
const DefaultDayLayout = "Jan 2"

// BucketOptions controls Bucketize. Zero values select a 30-day window,
// UTC and DefaultDayLayout.
type BucketOptions struct {
	WindowDays int
	Now        time.Time
	Location   *time.Location
	Layout     string
}

type calendarDay struct {
	year  int
	month time.Month
	day   int
}

func dayOf(t time.Time) calendarDay {
	y, m, d := t.Date()
	return calendarDay{y, m, d}
}

// Bucketize folds usage entries into WindowDays daily buckets ending on the
// calendar day of Now. Entries outside the window are dropped. Every entry
// adds its cost to CreditsUsed, so admin top-ups (negative cost) lower the
// figure for their day.
func Bucketize(entries []domain.UsageLogEntry, opts BucketOptions) []domain.UsageBucket {
	days := opts.WindowDays
	if days <= 0 {
		days = domain.DefaultUsageWindowDays
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	layout := opts.Layout
	if layout == "" {
		layout = DefaultDayLayout
	}

	now := opts.Now.In(loc)
	first := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -(days - 1))

	buckets := make([]domain.UsageBucket, days)
	index := make(map[calendarDay]int, days)
	for i := range buckets {
		day := first.AddDate(0, 0, i)
		buckets[i].Date = day.Format(layout)
		index[dayOf(day)] = i
	}

	for _, e := range entries {
		i, ok := index[dayOf(e.Timestamp.In(loc))]
		if !ok {
			continue
		}
		buckets[i].CallCount++
		buckets[i].CreditsUsed += e.Cost
	}
	return buckets
}
