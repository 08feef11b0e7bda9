// Package timeframe holds the clock and date helpers shared by the statistics queries.
package timeframe

import (
	"time"
)

// DayFormat is the bucket label used for daily series, matching SQLite's strftime('%Y-%m-%d').
const DayFormat = "2006-01-02"

// DateStat is one bucket of a time series.
type DateStat struct {
	Date  string  `json:"date"`
	Count float64 `json:"count"`
}

type TimeProvider interface {
	Now(loc *time.Location) time.Time
}

// DefaultTimeProvider reads the system clock.
type DefaultTimeProvider struct{}

func (p *DefaultTimeProvider) Now(loc *time.Location) time.Time {
	return time.Now().In(loc)
}

// FixedTimeProvider always returns the same instant. Tests use it.
type FixedTimeProvider struct {
	At time.Time
}

func (p *FixedTimeProvider) Now(loc *time.Location) time.Time {
	return p.At.In(loc)
}

// SubDays returns t moved back by n calendar days, keeping the wall clock time.
func SubDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, -n)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DailyBuckets returns the labels of the trailing `days` UTC days ending with the day of now,
// oldest first.
func DailyBuckets(now time.Time, days int) []string {
	if days <= 0 {
		return []string{}
	}
	today := StartOfDay(now.UTC())
	labels := make([]string, 0, days)
	for i := days - 1; i >= 0; i-- {
		labels = append(labels, SubDays(today, i).Format(DayFormat))
	}
	return labels
}

// BuildDailySeries lays raw per-day results onto the trailing window, filling gaps with zero.
// Rows whose date falls outside the window are dropped.
func BuildDailySeries(now time.Time, days int, raw []DateStat) []DateStat {
	byDate := make(map[string]float64, len(raw))
	for _, r := range raw {
		byDate[r.Date] += r.Count
	}

	labels := DailyBuckets(now, days)
	series := make([]DateStat, len(labels))
	for i, label := range labels {
		series[i] = DateStat{Date: label, Count: byDate[label]}
	}
	return series
}
