package readmodel

import (
	"time"

	"cart-service/internal/domain/delivery"

	"github.com/google/uuid"
)

type CartItemView struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	ProductName    string    `json:"product_name"`
	Quantity       int32     `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	OptionIDs      []int32   `json:"option_ids"`
	LineTotalCents int64     `json:"line_total_cents"`
}

// CartView is the cart.full response shape.
type CartView struct {
	ID            uuid.UUID       `json:"id"`
	Version       int64           `json:"version"`
	UpdatedAt     time.Time       `json:"updated_at"`
	SubtotalCents int64           `json:"subtotal_cents"`
	TotalQuantity int64           `json:"total_quantity"`
	Items         []CartItemView  `json:"items"`
	DeliveryQuote *delivery.Quote `json:"delivery_quote,omitempty"`
}

// CartSummaryView is the cart.summary shape: aggregate counts and totals
// only, no line items.
type CartSummaryView struct {
	ID            uuid.UUID       `json:"id"`
	Version       int64           `json:"version"`
	UpdatedAt     time.Time       `json:"updated_at"`
	SubtotalCents int64           `json:"subtotal_cents"`
	TotalQuantity int64           `json:"total_quantity"`
	ItemCount     int             `json:"item_count"`
	DeliveryQuote *delivery.Quote `json:"delivery_quote,omitempty"`
}

// CartDeltaView is the cart.delta shape: only the lines an accepted
// mutation changed or removed, plus current totals.
type CartDeltaView struct {
	ID            uuid.UUID       `json:"id"`
	Version       int64           `json:"version"`
	UpdatedAt     time.Time       `json:"updated_at"`
	SubtotalCents int64           `json:"subtotal_cents"`
	TotalQuantity int64           `json:"total_quantity"`
	ChangedItems  []CartItemView  `json:"changed_items"`
	RemovedItems  []uuid.UUID     `json:"removed_items"`
	DeliveryQuote *delivery.Quote `json:"delivery_quote,omitempty"`
}

type BatchOperationResult struct {
	Index  int    `json:"index"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// BatchOutcomeView wraps per-operation results of a non-atomic batch with
// the cart state after the batch ran.
type BatchOutcomeView struct {
	Results []BatchOperationResult `json:"results"`
	Cart    any                    `json:"cart"`
}
