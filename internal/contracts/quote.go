package contracts

import "math"

// IsFinite reports whether v is neither NaN nor ±Inf.
// Feed numbers must pass this before they reach decimal math or JSON.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Quote is one security's normalized realtime quote
type Quote struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	ChangePct float64 `json:"change_pct"` // percent change vs previous close
	AsOf      string  `json:"as_of"`      // YYYY-MM-DD, empty if the feed sent no timestamp
}

// QuoteSnapshot is one round trip worth of quotes keyed by security code.
// Securities the feed could not price are absent.
type QuoteSnapshot map[string]Quote

// NavRecord is one official NAV history row
type NavRecord struct {
	Date      string  `json:"date"`
	NAV       float64 `json:"nav"`
	ChangePct float64 `json:"change_pct"`
	HasChange bool    `json:"has_change"` // false when the feed left the daily change blank
}

// NavPoint is a dated value from the NAV adapter (a % change or a NAV)
type NavPoint struct {
	Value float64 `json:"value"`
	Date  string  `json:"date"`
}
