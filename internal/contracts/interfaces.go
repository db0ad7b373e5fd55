package contracts

import (
	"context"
)

// QuoteSource fetches realtime quotes for a batch of security codes
// ⭐ SSOT: quote adapter interface
type QuoteSource interface {
	FetchQuotes(ctx context.Context, codes []string) (QuoteSnapshot, error)
}

// NavSource fetches official NAV history records, most recent first
// ⭐ SSOT: NAV adapter interface
type NavSource interface {
	FetchHistory(ctx context.Context, fundCode string, limit int) ([]NavRecord, error)
}

// Notifier delivers a push notification. Delivery is best-effort:
// implementations log and swallow failures.
type Notifier interface {
	Send(ctx context.Context, title, body string)
}
