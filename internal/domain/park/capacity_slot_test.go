//go:build unit

package park_test

import (
	"testing"

	"parkgate/internal/domain/order"
	"parkgate/internal/domain/park"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSlot(t *testing.T, maxCapacity, reservedFloor int) *park.CapacitySlot {
	t.Helper()
	vs, err := order.NewVisitSlot(uuid.New(), "2026-07-14", "10:00")
	require.NoError(t, err)
	s, err := park.NewCapacitySlot(vs, maxCapacity, reservedFloor)
	require.NoError(t, err)
	return s
}

func TestCapacitySlotReserve(t *testing.T) {
	t.Run("preorder share is capacity minus floor", func(t *testing.T) {
		s := newSlot(t, 50, 10)
		assert.Equal(t, 40, s.PreorderCapacity())
		assert.Equal(t, 40, s.FreeReserved())
	})

	t.Run("fills up to the preorder share and no further", func(t *testing.T) {
		s := newSlot(t, 50, 10)
		require.NoError(t, s.Reserve(35))
		require.NoError(t, s.Reserve(5))
		assert.Equal(t, 0, s.FreeReserved())

		err := s.Reserve(1)
		assert.ErrorIs(t, err, park.ErrNoReservedCapacity)
		assert.Equal(t, 40, s.Reserved())
	})

	t.Run("oversized request fails without partial effect", func(t *testing.T) {
		s := newSlot(t, 50, 10)
		require.NoError(t, s.Reserve(38))
		err := s.Reserve(6)
		assert.ErrorIs(t, err, park.ErrNoReservedCapacity)
		assert.Equal(t, 38, s.Reserved())
	})

	t.Run("non-positive visitors", func(t *testing.T) {
		s := newSlot(t, 50, 10)
		assert.ErrorIs(t, s.Reserve(0), order.ErrInvalidVisitors)
		assert.ErrorIs(t, s.Reserve(-3), order.ErrInvalidVisitors)
	})
}

func TestCapacitySlotRelease(t *testing.T) {
	t.Run("returns spots", func(t *testing.T) {
		s := newSlot(t, 50, 10)
		require.NoError(t, s.Reserve(40))
		s.Release(10)
		assert.Equal(t, 30, s.Reserved())
		assert.Equal(t, 10, s.FreeReserved())
	})

	t.Run("clamps at zero", func(t *testing.T) {
		s := newSlot(t, 50, 10)
		require.NoError(t, s.Reserve(5))
		s.Release(20)
		assert.Equal(t, 0, s.Reserved())
	})
}

func TestCapacitySlotOccupancy(t *testing.T) {
	t.Run("walk-ins are bounded by max capacity only", func(t *testing.T) {
		s := newSlot(t, 50, 10)
		// The whole preorder share is taken, yet the gate still admits
		// up to the park maximum.
		require.NoError(t, s.Reserve(40))
		require.NoError(t, s.Occupy(50))

		err := s.Occupy(1)
		assert.ErrorIs(t, err, park.ErrParkFull)
		assert.Equal(t, 0, s.FreeOccupancy())
	})

	t.Run("vacate clamps at zero", func(t *testing.T) {
		s := newSlot(t, 50, 10)
		require.NoError(t, s.Occupy(3))
		s.Vacate(10)
		assert.Equal(t, 0, s.Occupied())
	})
}

func TestCapacitySlotZero(t *testing.T) {
	s := newSlot(t, 50, 10)
	require.NoError(t, s.Reserve(40))
	require.NoError(t, s.Occupy(25))

	s.Zero()
	assert.Equal(t, 0, s.Reserved())
	assert.Equal(t, 0, s.Occupied())
	assert.Equal(t, 40, s.FreeReserved())
}

func TestCapacitySlotValidation(t *testing.T) {
	vs, err := order.NewVisitSlot(uuid.New(), "2026-07-14", "10:00")
	require.NoError(t, err)

	cases := []struct {
		name          string
		maxCapacity   int
		reservedFloor int
	}{
		{name: "zero capacity", maxCapacity: 0, reservedFloor: 0},
		{name: "negative floor", maxCapacity: 50, reservedFloor: -1},
		{name: "floor above capacity", maxCapacity: 50, reservedFloor: 51},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := park.NewCapacitySlot(vs, tc.maxCapacity, tc.reservedFloor)
			assert.ErrorIs(t, err, park.ErrInvalidCapacity)
		})
	}
}
