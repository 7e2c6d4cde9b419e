//go:build unit

package delivery_test

import (
	"testing"

	"cart-service/internal/domain/delivery"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *delivery.Engine {
	t.Helper()
	e := delivery.NewEngine()
	require.NoError(t, e.Register(delivery.NewCourier(0)))
	require.NoError(t, e.Register(delivery.NewPickupPoint(0, 150)))
	return e
}

func destination(baseCost int64, threshold int64) *delivery.DestinationPricing {
	return &delivery.DestinationPricing{
		BaseCostCents:      &baseCost,
		FreeThresholdCents: threshold,
		LeadTime:           "2-3 days",
	}
}

func TestEngine(t *testing.T) {
	t.Run("unknown method", func(t *testing.T) {
		e := newEngine(t)
		_, err := e.Quote("drone", delivery.CartSnapshot{}, nil)
		assert.ErrorIs(t, err, delivery.ErrUnknownMethod)
	})

	t.Run("duplicate registration", func(t *testing.T) {
		e := newEngine(t)
		assert.ErrorIs(t, e.Register(delivery.NewCourier(0)), delivery.ErrDuplicateMethod)
	})

	t.Run("methods lists registered codes", func(t *testing.T) {
		e := newEngine(t)
		assert.ElementsMatch(t, []string{"courier", "pickup_point"}, e.Methods())
	})
}

func TestStrategyQuote(t *testing.T) {
	snap := delivery.CartSnapshot{SubtotalCents: 4000, ItemQuantity: 4}

	t.Run("unresolved destination requires manual pricing", func(t *testing.T) {
		e := newEngine(t)
		q, err := e.Quote("courier", snap, nil)
		require.NoError(t, err)

		assert.True(t, q.RequiresManualPricing)
		assert.Nil(t, q.CostCents)
		assert.Equal(t, "unresolved_location", q.Trace["rule"])
	})

	t.Run("subtotal at threshold is free", func(t *testing.T) {
		e := newEngine(t)
		q, err := e.Quote("courier", delivery.CartSnapshot{SubtotalCents: 5000, ItemQuantity: 2}, destination(300, 5000))
		require.NoError(t, err)

		require.NotNil(t, q.CostCents)
		assert.Equal(t, int64(0), *q.CostCents)
		assert.True(t, q.IsFree)
		assert.Equal(t, delivery.MessageFree, *q.Message)
		assert.Equal(t, "free_threshold", q.Trace["rule"])
	})

	t.Run("subtotal below threshold pays per item", func(t *testing.T) {
		e := newEngine(t)
		q, err := e.Quote("courier", delivery.CartSnapshot{SubtotalCents: 3000, ItemQuantity: 3}, destination(300, 5000))
		require.NoError(t, err)

		require.NotNil(t, q.CostCents)
		assert.Equal(t, int64(900), *q.CostCents)
		assert.False(t, q.IsFree)
		assert.Equal(t, "per_item", q.Trace["rule"])
		assert.Equal(t, "2-3 days", q.Term)
	})

	t.Run("pickup point charges flat rate plus surcharge", func(t *testing.T) {
		e := newEngine(t)
		q, err := e.Quote("pickup_point", delivery.CartSnapshot{SubtotalCents: 3000, ItemQuantity: 3}, destination(300, 5000))
		require.NoError(t, err)

		require.NotNil(t, q.CostCents)
		assert.Equal(t, int64(450), *q.CostCents)
		assert.Equal(t, "flat_rate", q.Trace["rule"])
	})

	t.Run("missing base cost escalates to manager", func(t *testing.T) {
		e := newEngine(t)
		dest := &delivery.DestinationPricing{FreeThresholdCents: 5000, LeadTime: "5 days"}
		q, err := e.Quote("courier", snap, dest)
		require.NoError(t, err)

		assert.True(t, q.RequiresManualPricing)
		assert.Nil(t, q.CostCents)
		assert.Equal(t, delivery.MessageManual, *q.Message)
		assert.Equal(t, "no_base_cost", q.Trace["rule"])
	})

	t.Run("default threshold applies when location has none", func(t *testing.T) {
		e := delivery.NewEngine()
		require.NoError(t, e.Register(delivery.NewCourier(3500)))

		q, err := e.Quote("courier", snap, destination(300, 0))
		require.NoError(t, err)

		assert.True(t, q.IsFree)
		assert.Equal(t, int64(3500), q.Trace["effective_threshold_cents"])
	})

	t.Run("zero thresholds mean no free tier", func(t *testing.T) {
		e := newEngine(t)
		q, err := e.Quote("courier", delivery.CartSnapshot{SubtotalCents: 1_000_000, ItemQuantity: 1}, destination(300, 0))
		require.NoError(t, err)

		assert.False(t, q.IsFree)
		require.NotNil(t, q.CostCents)
		assert.Equal(t, int64(300), *q.CostCents)
	})

	t.Run("quotes are pure", func(t *testing.T) {
		e := newEngine(t)
		dest := destination(300, 5000)

		q1, err := e.Quote("courier", snap, dest)
		require.NoError(t, err)
		q2, err := e.Quote("courier", snap, dest)
		require.NoError(t, err)

		assert.Equal(t, q1, q2)
	})
}
