package repository

import (
	"context"

	"cart-service/internal/infra"
	"cart-service/internal/infra/db"
	"cart-service/internal/pkg/pgconv"
	"cart-service/internal/usecase/readmodel"

	"github.com/google/uuid"
)

type ProductRepository struct {
	db db.DBTX
}

func NewProductRepository(pool db.DBTX) *ProductRepository {
	return &ProductRepository{db: pool}
}

func (r *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*readmodel.ProductRM, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, price_cents, stock
		FROM products
		WHERE id = $1`,
		id,
	)

	var rm readmodel.ProductRM
	if err := row.Scan(&rm.ID, &rm.Name, &rm.PriceCents, &rm.Stock); err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("product not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to get product", err)
	}

	return &rm, nil
}
