package tencent

import (
	"strconv"
	"strings"
	"time"

	"github.com/wonny/fundwatch/internal/contracts"
)

// Field positions in a "~"-separated quote record
const (
	fieldName      = 1
	fieldPrice     = 3
	fieldPrevClose = 4
	fieldTimestamp = 30
	minFields      = fieldTimestamp + 1
)

// ParseQuotes parses a feed payload of `v_<code>="f0~f1~...";` records.
// Malformed records, records with too few fields and records whose previous
// close is not positive are dropped individually.
func ParseQuotes(body string) contracts.QuoteSnapshot {
	snapshot := make(contracts.QuoteSnapshot)

	for _, record := range strings.Split(body, ";") {
		quote, ok := parseRecord(record)
		if !ok {
			continue
		}
		snapshot[quote.Code] = quote
	}

	return snapshot
}

func parseRecord(record string) (contracts.Quote, bool) {
	eq := strings.Index(record, `="`)
	if eq < 0 {
		return contracts.Quote{}, false
	}

	key := strings.TrimSpace(record[:eq])
	code := key[strings.LastIndex(key, "_")+1:]
	if code == "" {
		return contracts.Quote{}, false
	}

	payload := strings.Trim(strings.TrimSpace(record[eq+2:]), `"`)
	fields := strings.Split(payload, "~")
	if len(fields) < minFields {
		return contracts.Quote{}, false
	}

	price, ok := parseFinite(fields[fieldPrice])
	if !ok {
		return contracts.Quote{}, false
	}
	prevClose, ok := parseFinite(fields[fieldPrevClose])
	if !ok || prevClose <= 0 {
		return contracts.Quote{}, false
	}

	pct := (price - prevClose) / prevClose * 100
	if !contracts.IsFinite(pct) {
		return contracts.Quote{}, false
	}

	return contracts.Quote{
		Code:      code,
		Name:      strings.ReplaceAll(fields[fieldName], " ", ""),
		ChangePct: pct,
		AsOf:      parseTimestamp(fields[fieldTimestamp]),
	}, true
}

// parseFinite parses a price field. "NaN" and "Inf" parse as floats but are garbage here.
func parseFinite(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || !contracts.IsFinite(v) {
		return 0, false
	}
	return v, true
}

// parseTimestamp extracts YYYY-MM-DD from "20240105150003" or "2024/01/05 16:08:02"
func parseTimestamp(raw string) string {
	digits := make([]byte, 0, 14)
	for i := 0; i < len(raw) && len(digits) < 8; i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			digits = append(digits, raw[i])
		}
	}
	if len(digits) < 8 {
		return ""
	}

	t, err := time.Parse("20060102", string(digits))
	if err != nil {
		return ""
	}
	return contracts.DateOf(t)
}
