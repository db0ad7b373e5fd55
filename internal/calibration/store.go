package calibration

import (
	"context"
	"fmt"
	"sort"

	"github.com/wonny/fundwatch/internal/blobstore"
)

// DateLog maps a date to per-fund values. history.json holds raw estimates,
// factor_history.json the factors produced by that date's calibration.
type DateLog map[string]map[string]float64

// Latest returns the most recent date key, "" when empty
func (l DateLog) Latest() string {
	latest := ""
	for date := range l {
		if date > latest {
			latest = date
		}
	}
	return latest
}

// Dates returns the date keys in ascending order
func (l DateLog) Dates() []string {
	dates := make([]string, 0, len(l))
	for date := range l {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// LatestFor returns the most recent date holding a value for fund, "" when none
func (l DateLog) LatestFor(fund string) string {
	latest := ""
	for date, entry := range l {
		if _, ok := entry[fund]; ok && date > latest {
			latest = date
		}
	}
	return latest
}

// Has reports whether the log holds a value for (date, fund)
func (l DateLog) Has(date, fund string) bool {
	_, ok := l[date][fund]
	return ok
}

// Store persists the raw snapshot log and the calibration log
// ⭐ SSOT: history.json / factor_history.json 저장은 여기서만
type Store struct {
	blobs blobstore.Store
}

// NewStore creates a calibration log store
func NewStore(blobs blobstore.Store) *Store {
	return &Store{blobs: blobs}
}

func (s *Store) load(ctx context.Context, key string) (DateLog, string, error) {
	log := make(DateLog)
	token, err := blobstore.ReadJSON(ctx, s.blobs, key, &log)
	if err != nil {
		return nil, "", err
	}
	if log == nil {
		log = make(DateLog)
	}
	return log, token, nil
}

// Snapshots reads the raw snapshot log
func (s *Store) Snapshots(ctx context.Context) (DateLog, string, error) {
	return s.load(ctx, blobstore.KeySnapshots)
}

// Factors reads the calibration log
func (s *Store) Factors(ctx context.Context) (DateLog, string, error) {
	return s.load(ctx, blobstore.KeyFactors)
}

// PutSnapshot replaces the raw estimates of date
func (s *Store) PutSnapshot(ctx context.Context, date string, raws map[string]float64) error {
	log, token, err := s.Snapshots(ctx)
	if err != nil {
		return err
	}

	log[date] = raws
	if _, err := blobstore.WriteJSON(ctx, s.blobs, blobstore.KeySnapshots, log, token, "Snapshot "+date); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", date, err)
	}
	return nil
}

// MergeFactors merges per-fund factors into the entry of date; other funds of
// the same date are kept
func (s *Store) MergeFactors(ctx context.Context, date string, factors map[string]float64) error {
	log, token, err := s.Factors(ctx)
	if err != nil {
		return err
	}

	entry, ok := log[date]
	if !ok {
		entry = make(map[string]float64, len(factors))
		log[date] = entry
	}
	for fund, factor := range factors {
		entry[fund] = factor
	}

	if _, err := blobstore.WriteJSON(ctx, s.blobs, blobstore.KeyFactors, log, token, "Factor Log "+date); err != nil {
		return fmt.Errorf("failed to save factor log %s: %w", date, err)
	}
	return nil
}
