package portfolio

import (
	"context"
	"fmt"

	"github.com/wonny/fundwatch/internal/blobstore"
	"github.com/wonny/fundwatch/internal/contracts"
	"github.com/wonny/fundwatch/pkg/logger"
)

// Repository reads and writes funds.json through the blob store
// ⭐ SSOT: funds.json 저장/조회는 여기서만
type Repository struct {
	store  blobstore.Store
	logger *logger.Logger
}

// NewRepository creates a new funds repository
func NewRepository(store blobstore.Store, log *logger.Logger) *Repository {
	return &Repository{store: store, logger: log}
}

// Load reads the portfolio. A missing funds.json is an empty portfolio.
func (r *Repository) Load(ctx context.Context) (*Portfolio, error) {
	funds := make(map[string]contracts.Fund)
	token, err := blobstore.ReadJSON(ctx, r.store, blobstore.KeyFunds, &funds)
	if err != nil {
		return nil, fmt.Errorf("failed to load funds: %w", err)
	}
	return New(funds, token), nil
}

// Save writes the portfolio with its token and refreshes the token.
// A stale token fails with blobstore.ErrConflict.
func (r *Repository) Save(ctx context.Context, p *Portfolio, message string) error {
	token, err := blobstore.WriteJSON(ctx, r.store, blobstore.KeyFunds, p.Funds, p.Token, message)
	if err != nil {
		return fmt.Errorf("failed to save funds: %w", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"funds":   len(p.Funds),
		"message": message,
	}).Info("Funds saved")

	p.Token = token
	return nil
}

// Update applies a patch to one fund and saves. A non-empty token must match
// the stored one; an empty token uses the token just read.
func (r *Repository) Update(ctx context.Context, name, token string, pt Patch) (*Portfolio, error) {
	p, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	if token != "" {
		p.Token = token
	}

	if _, err := p.Apply(name, pt); err != nil {
		return nil, err
	}

	if err := r.Save(ctx, p, "Update Config"); err != nil {
		return nil, err
	}
	return p, nil
}
