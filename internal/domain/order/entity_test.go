//go:build unit

package order_test

import (
	"testing"
	"time"

	"parkgate/internal/domain/order"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSlot(t *testing.T) order.VisitSlot {
	t.Helper()
	slot, err := order.NewVisitSlot(uuid.New(), "2026-07-14", "10:00")
	require.NoError(t, err)
	return slot
}

func testContact(t *testing.T) order.Contact {
	t.Helper()
	c, err := order.NewContact("Dana", "dana@example.com", "")
	require.NoError(t, err)
	return c
}

func TestNewAdmitted(t *testing.T) {
	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

	t.Run("creates a preorder waiting for its reminder", func(t *testing.T) {
		o, err := order.NewAdmitted(testSlot(t), order.TypeFamilyPreorder, 4, testContact(t), 34000, 34000, now)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, o.ID())
		assert.Equal(t, order.StatusWaitNotify, o.Status())
		assert.Equal(t, 4, o.Visitors())
		assert.False(t, o.Paid())
		assert.Nil(t, o.EnqueuedAt())
		assert.Equal(t, now, o.CreatedAt())
		assert.Equal(t, now, o.StatusChangedAt())
	})

	t.Run("rejects occasional types", func(t *testing.T) {
		_, err := order.NewAdmitted(testSlot(t), order.TypeSoloOccasional, 1, testContact(t), 10000, 10000, now)
		assert.ErrorIs(t, err, order.ErrNotPreorder)
	})

	t.Run("rejects non-positive visitors", func(t *testing.T) {
		_, err := order.NewAdmitted(testSlot(t), order.TypeSoloPreorder, 0, testContact(t), 0, 0, now)
		assert.ErrorIs(t, err, order.ErrInvalidVisitors)
	})
}

func TestNewQueued(t *testing.T) {
	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

	o, err := order.NewQueued(testSlot(t), order.TypeGroupPreorder, 20, testContact(t), 150000, 150000, now)
	require.NoError(t, err)

	assert.Equal(t, order.StatusInWaitingList, o.Status())
	require.NotNil(t, o.EnqueuedAt())
	assert.Equal(t, now, *o.EnqueuedAt())
}

func TestNewWalkIn(t *testing.T) {
	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

	t.Run("creates an occasional order", func(t *testing.T) {
		o, err := order.NewWalkIn(testSlot(t), order.TypeSoloOccasional, 1, testContact(t), 10000, now)
		require.NoError(t, err)
		assert.Equal(t, order.StatusOccasional, o.Status())
		assert.Equal(t, o.PriceCents(), o.EntranceCents())
	})

	t.Run("rejects preorder types", func(t *testing.T) {
		_, err := order.NewWalkIn(testSlot(t), order.TypeSoloPreorder, 1, testContact(t), 10000, now)
		assert.ErrorIs(t, err, order.ErrNotOccasional)
	})
}

func TestTransition(t *testing.T) {
	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)

	t.Run("happy path walks the whole lifecycle", func(t *testing.T) {
		o, err := order.NewAdmitted(testSlot(t), order.TypeSoloPreorder, 1, testContact(t), 8500, 8500, now)
		require.NoError(t, err)

		for _, next := range []order.Status{
			order.StatusNotified,
			order.StatusConfirmed,
			order.StatusInPark,
			order.StatusCompleted,
		} {
			require.NoError(t, o.Transition(next, later))
			assert.Equal(t, next, o.Status())
			assert.Equal(t, later, o.StatusChangedAt())
		}
		assert.True(t, o.Status().IsTerminal())
	})

	t.Run("rejected transition leaves the order untouched", func(t *testing.T) {
		o, err := order.NewAdmitted(testSlot(t), order.TypeSoloPreorder, 1, testContact(t), 8500, 8500, now)
		require.NoError(t, err)

		err = o.Transition(order.StatusInPark, later)
		assert.ErrorIs(t, err, order.ErrInvalidTransition)
		assert.Equal(t, order.StatusWaitNotify, o.Status())
		assert.Equal(t, now, o.StatusChangedAt())
	})

	t.Run("terminal states allow nothing", func(t *testing.T) {
		o, err := order.NewAdmitted(testSlot(t), order.TypeSoloPreorder, 1, testContact(t), 8500, 8500, now)
		require.NoError(t, err)
		require.NoError(t, o.Transition(order.StatusCancelled, later))

		err = o.Transition(order.StatusConfirmed, later)
		assert.ErrorIs(t, err, order.ErrInvalidTransition)
	})
}

func TestStatusTable(t *testing.T) {
	t.Run("reservation-holding states", func(t *testing.T) {
		holding := []order.Status{
			order.StatusWaitNotify,
			order.StatusNotified,
			order.StatusConfirmed,
			order.StatusNotifiedWaitingList,
		}
		for _, s := range holding {
			assert.True(t, s.HoldsReservation(), "%s should hold a reservation", s)
		}

		free := []order.Status{
			order.StatusInWaitingList,
			order.StatusInPark,
			order.StatusOccasional,
			order.StatusCompleted,
			order.StatusCancelled,
			order.StatusTimePassed,
			order.StatusIrrelevant,
		}
		for _, s := range free {
			assert.False(t, s.HoldsReservation(), "%s should not hold a reservation", s)
		}
	})

	t.Run("terminal states", func(t *testing.T) {
		for _, s := range []order.Status{
			order.StatusCompleted,
			order.StatusCancelled,
			order.StatusTimePassed,
			order.StatusIrrelevant,
		} {
			assert.True(t, s.IsTerminal(), "%s should be terminal", s)
		}
		assert.False(t, order.StatusConfirmed.IsTerminal())
	})

	t.Run("unknown status is invalid", func(t *testing.T) {
		assert.False(t, order.Status("pending").IsValid())
		assert.True(t, order.StatusWaitNotify.IsValid())
	})

	t.Run("waiting list promotion path", func(t *testing.T) {
		assert.True(t, order.CanTransition(order.StatusInWaitingList, order.StatusNotifiedWaitingList))
		assert.True(t, order.CanTransition(order.StatusNotifiedWaitingList, order.StatusConfirmed))
		assert.True(t, order.CanTransition(order.StatusNotifiedWaitingList, order.StatusIrrelevant))
		assert.False(t, order.CanTransition(order.StatusInWaitingList, order.StatusConfirmed))
	})
}

func TestVisitSlot(t *testing.T) {
	parkID := uuid.New()

	t.Run("valid slot", func(t *testing.T) {
		slot, err := order.NewVisitSlot(parkID, "2026-07-14", "10:00")
		require.NoError(t, err)
		assert.Equal(t, "2026-07-14", slot.Day())
		assert.Equal(t, "10:00", slot.Start())
		assert.Equal(t, time.Date(2026, 7, 14, 10, 0, 0, 0, time.UTC), slot.VisitTime())
	})

	t.Run("key is stable across equal slots", func(t *testing.T) {
		a, err := order.NewVisitSlot(parkID, "2026-07-14", "10:00")
		require.NoError(t, err)
		b, err := order.NewVisitSlot(parkID, "2026-07-14", "10:00")
		require.NoError(t, err)
		assert.Equal(t, a.Key(), b.Key())
	})

	t.Run("past detection includes the opening instant", func(t *testing.T) {
		slot, err := order.NewVisitSlot(parkID, "2026-07-14", "10:00")
		require.NoError(t, err)
		assert.False(t, slot.IsPast(time.Date(2026, 7, 14, 9, 59, 0, 0, time.UTC)))
		assert.True(t, slot.IsPast(time.Date(2026, 7, 14, 10, 0, 0, 0, time.UTC)))
	})

	t.Run("validation", func(t *testing.T) {
		_, err := order.NewVisitSlot(uuid.Nil, "2026-07-14", "10:00")
		assert.Error(t, err)
		_, err = order.NewVisitSlot(parkID, "14/07/2026", "10:00")
		assert.Error(t, err)
		_, err = order.NewVisitSlot(parkID, "2026-07-14", "25:00")
		assert.Error(t, err)
	})
}

func TestContact(t *testing.T) {
	t.Run("trims whitespace", func(t *testing.T) {
		c, err := order.NewContact("  Dana ", " dana@example.com ", " 555-0100 ")
		require.NoError(t, err)
		assert.Equal(t, "Dana", c.Name())
		assert.Equal(t, "dana@example.com", c.Email())
		assert.Equal(t, "555-0100", c.Phone())
	})

	t.Run("validation", func(t *testing.T) {
		_, err := order.NewContact("", "dana@example.com", "")
		assert.Error(t, err)
		_, err = order.NewContact("Dana", "not-an-email", "")
		assert.Error(t, err)
	})
}
