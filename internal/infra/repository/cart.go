package repository

import (
	"context"
	"time"

	"cart-service/internal/domain/cart"
	"cart-service/internal/infra"
	"cart-service/internal/infra/db"
	"cart-service/internal/pkg/pgconv"

	"github.com/google/uuid"
)

type CartRepository struct{}

func NewCartRepository() *CartRepository {
	return &CartRepository{}
}

func (r *CartRepository) FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*cart.Cart, error) {
	row := dbtx.QueryRow(ctx, `
		SELECT id, version, updated_at
		FROM carts
		WHERE id = $1`,
		id,
	)

	var (
		cartID    uuid.UUID
		version   int64
		updatedAt time.Time
	)
	if err := row.Scan(&cartID, &version, &updatedAt); err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("cart not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to get cart", err)
	}

	items, err := r.findItems(ctx, dbtx, cartID)
	if err != nil {
		return nil, err
	}

	return cart.Reconstruct(cartID, version, updatedAt, items), nil
}

func (r *CartRepository) findItems(ctx context.Context, dbtx db.DBTX, cartID uuid.UUID) ([]*cart.Item, error) {
	rows, err := dbtx.Query(ctx, `
		SELECT id, product_id, product_name, quantity, unit_price_cents, option_ids
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY created_at, id`,
		cartID,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list cart items", err)
	}
	defer rows.Close()

	var items []*cart.Item
	for rows.Next() {
		var (
			id, productID  uuid.UUID
			productName    string
			quantity       int32
			unitPriceCents int64
			optionIDs      []int32
		)
		if err := rows.Scan(&id, &productID, &productName, &quantity, &unitPriceCents, &optionIDs); err != nil {
			return nil, infra.WrapRepoErr("failed to scan cart item", err)
		}
		items = append(items, cart.NewItem(id, productID, productName, quantity, unitPriceCents, optionIDs))
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate cart items", err)
	}

	return items, nil
}

// Save persists the aggregate's change set. The version bump is a
// compare-and-swap on the previous version: zero rows affected means a
// concurrent writer won and the caller must treat the cart as stale.
func (r *CartRepository) Save(ctx context.Context, tx db.DBTX, c *cart.Cart, expectedVersion int64) error {
	tag, err := tx.Exec(ctx, `
		UPDATE carts
		SET version = $3, updated_at = $4
		WHERE id = $1 AND version = $2`,
		c.ID(), expectedVersion, c.Version(), c.UpdatedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to bump cart version", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("cart version changed concurrently", nil, infra.KindConflict)
	}

	changes := c.Changes()
	for _, item := range changes.Changed {
		_, err := tx.Exec(ctx, `
			INSERT INTO cart_items (id, cart_id, product_id, product_name, quantity, unit_price_cents, option_ids, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE
			SET quantity = EXCLUDED.quantity, option_ids = EXCLUDED.option_ids`,
			item.ID(), c.ID(), item.ProductID(), item.ProductName(), item.Quantity(), item.UnitPriceCents(), item.OptionIDs(), c.UpdatedAt(),
		)
		if err != nil {
			return infra.WrapRepoErr("failed to upsert cart item", err)
		}
	}
	for _, itemID := range changes.Removed {
		_, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, itemID, c.ID())
		if err != nil {
			return infra.WrapRepoErr("failed to delete cart item", err)
		}
	}

	return nil
}
