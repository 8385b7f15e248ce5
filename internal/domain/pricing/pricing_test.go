//go:build unit

package pricing_test

import (
	"testing"

	"parkgate/internal/domain/order"
	"parkgate/internal/domain/pricing"
	"parkgate/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrice(t *testing.T) {
	const base = int64(10000) // 100.00 per visitor

	t.Run("discount table", func(t *testing.T) {
		cases := []struct {
			name       string
			typ        order.Type
			visitors   int
			prepaid    bool
			payNow     int64
			atEntrance int64
		}{
			{
				name:       "solo preorder gets the preorder discount",
				typ:        order.TypeSoloPreorder,
				visitors:   1,
				payNow:     8500,
				atEntrance: 8500,
			},
			{
				name:       "family preorder gets the preorder discount",
				typ:        order.TypeFamilyPreorder,
				visitors:   4,
				payNow:     34000,
				atEntrance: 34000,
			},
			{
				name:       "solo occasional pays full price",
				typ:        order.TypeSoloOccasional,
				visitors:   1,
				payNow:     10000,
				atEntrance: 10000,
			},
			{
				name:       "family occasional pays full price",
				typ:        order.TypeFamilyOccasional,
				visitors:   3,
				payNow:     30000,
				atEntrance: 30000,
			},
			{
				name:       "group preorder without prepay",
				typ:        order.TypeGroupPreorder,
				visitors:   20,
				payNow:     150000,
				atEntrance: 150000,
			},
			{
				name:       "group preorder stacks the prepaid discount",
				typ:        order.TypeGroupPreorder,
				visitors:   20,
				prepaid:    true,
				payNow:     132000, // 0.88 * 0.75 * 20 * 10000
				atEntrance: 150000,
			},
			{
				name:       "group walk-in",
				typ:        order.TypeGroupOccasional,
				visitors:   10,
				payNow:     90000,
				atEntrance: 90000,
			},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				q, err := pricing.Price(tc.typ, tc.visitors, base, tc.prepaid)
				require.NoError(t, err)
				assert.Equal(t, tc.payNow, q.PayNowCents)
				assert.Equal(t, tc.atEntrance, q.AtEntranceCents)
			})
		}
	})

	t.Run("prepaid flag is ignored outside group preorders", func(t *testing.T) {
		q, err := pricing.Price(order.TypeSoloPreorder, 2, base, true)
		require.NoError(t, err)
		assert.Equal(t, int64(17000), q.PayNowCents)
		assert.Equal(t, q.AtEntranceCents, q.PayNowCents)
	})

	t.Run("validation", func(t *testing.T) {
		cases := []struct {
			name     string
			typ      order.Type
			visitors int
		}{
			{name: "zero visitors", typ: order.TypeSoloPreorder, visitors: 0},
			{name: "negative visitors", typ: order.TypeSoloPreorder, visitors: -5},
			{name: "unknown order type", typ: order.Type("vip_preorder"), visitors: 1},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := pricing.Price(tc.typ, tc.visitors, base, false)
				require.Error(t, err)
				assert.ErrorIs(t, err, errs.ErrInvalidInput)
			})
		}
	})

	t.Run("integer arithmetic truncates toward zero", func(t *testing.T) {
		// 85% of 99 cents is 84.15; the gate charges whole cents.
		q, err := pricing.Price(order.TypeSoloPreorder, 1, 99, false)
		require.NoError(t, err)
		assert.Equal(t, int64(84), q.PayNowCents)
	})
}
