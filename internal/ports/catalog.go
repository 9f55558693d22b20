package ports

import (
	"context"

	"avgrunnen/internal/domain"
)

// CatalogSource loads the card universe of a pool. An empty result is an
// error, never a legitimately empty pool.
type CatalogSource interface {
	Load(ctx context.Context, pool domain.Pool) ([]domain.Card, error)
}
