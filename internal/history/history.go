// Package history keeps each fund's officially realized daily returns,
// refreshed incrementally from the NAV feed.
package history

import (
	"sort"

	"github.com/wonny/fundwatch/internal/contracts"
)

// Series maps a YYYY-MM-DD date to the day's official % return
type Series map[string]float64

// NavHistory maps a fund name to its Series (nav_history.json)
type NavHistory map[string]Series

// Latest returns the most recent date of the series, "" when empty
func (s Series) Latest() string {
	latest := ""
	for date := range s {
		if date > latest {
			latest = date
		}
	}
	return latest
}

// DatesDesc returns the dates newest first
func (s Series) DatesDesc() []string {
	dates := make([]string, 0, len(s))
	for date := range s {
		dates = append(dates, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

// Series returns the fund's series, creating it when absent
func (h NavHistory) Series(fund string) Series {
	s, ok := h[fund]
	if !ok {
		s = make(Series)
		h[fund] = s
	}
	return s
}

// Has reports whether the fund has a value for date
func (h NavHistory) Has(fund, date string) bool {
	_, ok := h[fund][date]
	return ok
}

// Add records a value only when the date is absent. It reports whether it inserted.
func (h NavHistory) Add(fund, date string, pct float64) bool {
	s := h.Series(fund)
	if _, ok := s[date]; ok {
		return false
	}
	s[date] = pct
	return true
}

// Merge adds records whose date is absent from series and returns how many were
// inserted. Existing dates are never overwritten; a blank change is stored as 0.
func Merge(series Series, records []contracts.NavRecord) int {
	inserted := 0
	for _, r := range records {
		if r.Date == "" {
			continue
		}
		if _, ok := series[r.Date]; ok {
			continue
		}
		series[r.Date] = r.ChangePct
		inserted++
	}
	return inserted
}

// Stats summarizes a series. The streak walks dates newest first: its
// direction is the sign of the most recent day and it extends over strictly
// same-signed days; a flat day never extends. Fewer than two dates give a
// streak of 0 with direction none.
func Stats(series Series) contracts.HistoryStats {
	stats := contracts.HistoryStats{StreakDirection: contracts.StreakNone}

	dates := series.DatesDesc()
	if len(dates) == 0 {
		return stats
	}

	stats.MostRecentDate = dates[0]
	stats.MostRecentReturn = series[dates[0]]

	if len(dates) < 2 {
		return stats
	}

	first := series[dates[0]]
	switch {
	case first > 0:
		stats.StreakDirection = contracts.StreakUp
	case first < 0:
		stats.StreakDirection = contracts.StreakDown
	default:
		stats.StreakDirection = contracts.StreakFlat
	}

	stats.StreakLength = 1
	for _, date := range dates[1:] {
		v := series[date]
		if (stats.StreakDirection == contracts.StreakUp && v > 0) ||
			(stats.StreakDirection == contracts.StreakDown && v < 0) {
			stats.StreakLength++
			continue
		}
		break
	}

	return stats
}
