package repository

import (
	"context"
	"strings"

	"cart-service/internal/domain/delivery"
	"cart-service/internal/infra"
	"cart-service/internal/infra/db"
	"cart-service/internal/pkg/pgconv"

	"github.com/jackc/pgx/v5/pgtype"
)

// LocationPricingRepository resolves a destination to its pickup-point
// pricing row. An unresolved destination is reported as (nil, nil), which
// the pricing engine turns into a manual-pricing quote.
type LocationPricingRepository struct {
	db db.DBTX
}

func NewLocationPricingRepository(pool db.DBTX) *LocationPricingRepository {
	return &LocationPricingRepository{db: pool}
}

func (r *LocationPricingRepository) Resolve(ctx context.Context, destination string) (*delivery.DestinationPricing, error) {
	row := r.db.QueryRow(ctx, `
		SELECT base_cost_cents, free_threshold_cents, lead_time
		FROM pvz_prices
		WHERE lower(city) = lower($1)`,
		strings.TrimSpace(destination),
	)

	var (
		baseCost      pgtype.Int8
		freeThreshold int64
		leadTime      string
	)
	if err := row.Scan(&baseCost, &freeThreshold, &leadTime); err != nil {
		if pgconv.IsNoRows(err) {
			return nil, nil
		}
		return nil, infra.WrapRepoErr("failed to resolve location pricing", err)
	}

	return &delivery.DestinationPricing{
		BaseCostCents:      pgconv.Int64PtrFromPgtype(baseCost),
		FreeThresholdCents: freeThreshold,
		LeadTime:           leadTime,
	}, nil
}
