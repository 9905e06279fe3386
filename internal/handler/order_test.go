package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stagegate/ticketing/internal/model"
)

func TestCartTotal(t *testing.T) {
	assert.Equal(t, uint32(0), cartTotal(nil))
	assert.Equal(t, uint32(4000), cartTotal([]model.CartEntry{
		{SeatID: 1, PriceCents: 1500},
		{SeatID: 2, PriceCents: 2500},
	}))
}

// Confirm only writes reservations for carts that still sum to the
// total the order snapshotted at creation time; anything added or
// removed since then must be rejected before the seats are written.
func TestCartMatchesOrder(t *testing.T) {
	snapshot := []model.CartEntry{{SeatID: 1, PriceCents: 1500}}
	orderTotal := cartTotal(snapshot)

	t.Run("unchanged cart", func(t *testing.T) {
		assert.True(t, cartMatchesOrder(orderTotal, snapshot))
	})

	t.Run("seats added after order creation", func(t *testing.T) {
		grown := append([]model.CartEntry{}, snapshot...)
		for id := uint64(2); id <= 6; id++ {
			grown = append(grown, model.CartEntry{SeatID: id, PriceCents: 1500})
		}
		assert.False(t, cartMatchesOrder(orderTotal, grown),
			"a cart grown after checkout must not confirm at the old price")
	})

	t.Run("seat removed after order creation", func(t *testing.T) {
		assert.False(t, cartMatchesOrder(orderTotal, nil))
	})
}
