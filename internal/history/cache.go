package history

import (
	"context"
	"fmt"

	"github.com/wonny/fundwatch/internal/blobstore"
	"github.com/wonny/fundwatch/internal/contracts"
	"github.com/wonny/fundwatch/pkg/logger"
)

// DefaultLimit is the NAV page size requested per refresh
const DefaultLimit = 20

// Cache persists NavHistory in the blob store and refreshes it from a NavSource
// ⭐ SSOT: nav_history.json 갱신은 여기서만
type Cache struct {
	store  blobstore.Store
	source contracts.NavSource
	limit  int
	logger *logger.Logger
}

// NewCache creates a history cache
func NewCache(store blobstore.Store, source contracts.NavSource, limit int, log *logger.Logger) *Cache {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Cache{store: store, source: source, limit: limit, logger: log}
}

// Load reads nav_history.json; missing means empty
func (c *Cache) Load(ctx context.Context) (NavHistory, string, error) {
	h := make(NavHistory)
	token, err := blobstore.ReadJSON(ctx, c.store, blobstore.KeyNavHistory, &h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load nav history: %w", err)
	}
	if h == nil {
		h = make(NavHistory)
	}
	return h, token, nil
}

// Save writes nav_history.json and returns the new token
func (c *Cache) Save(ctx context.Context, h NavHistory, token, message string) (string, error) {
	newToken, err := blobstore.WriteJSON(ctx, c.store, blobstore.KeyNavHistory, h, token, message)
	if err != nil {
		return "", fmt.Errorf("failed to save nav history: %w", err)
	}
	return newToken, nil
}

// Refresh fetches history for every fund with a code whose latest known date
// is before today (at most one fetch per fund), merges absent dates and saves
// when anything was inserted. It returns the merged history and the number of
// inserted dates per fund. A failed fetch skips that fund.
func (c *Cache) Refresh(ctx context.Context, funds []contracts.Fund, today string) (NavHistory, map[string]int, error) {
	h, token, err := c.Load(ctx)
	if err != nil {
		return nil, nil, err
	}

	inserted := make(map[string]int)
	total := 0

	for _, fund := range funds {
		if fund.Code == "" {
			continue
		}

		series := h.Series(fund.Name)
		if latest := series.Latest(); latest != "" && latest >= today {
			continue
		}

		records, err := c.source.FetchHistory(ctx, fund.Code, c.limit)
		if err != nil {
			c.logger.WithFields(map[string]interface{}{
				"fund":  fund.Name,
				"code":  fund.Code,
				"error": err.Error(),
			}).Warn("NAV history fetch failed")
			continue
		}

		if n := Merge(series, records); n > 0 {
			inserted[fund.Name] = n
			total += n
		}
	}

	if total == 0 {
		return h, inserted, nil
	}

	if _, err := c.Save(ctx, h, token, "Auto Update "+today); err != nil {
		return nil, nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"funds":    len(inserted),
		"inserted": total,
	}).Info("NAV history refreshed")

	return h, inserted, nil
}
