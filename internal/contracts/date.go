package contracts

import "time"

// DateLayout is the canonical YYYY-MM-DD form of every date key.
// Keys in this form sort chronologically as plain strings.
const DateLayout = "2006-01-02"

// DateOf formats t as a date key in t's own location
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}
