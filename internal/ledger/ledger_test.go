//go:build unit

package ledger_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"parkgate/internal/domain/order"
	"parkgate/internal/domain/park"
	"parkgate/internal/infra"
	"parkgate/internal/ledger"
	"parkgate/internal/pkg/clock"
	"parkgate/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSlotStore struct {
	mu       sync.Mutex
	rows     map[string]*park.CapacitySlot
	failSave bool
	saves    int
	frees    []int
}

func newFakeSlotStore() *fakeSlotStore {
	return &fakeSlotStore{rows: make(map[string]*park.CapacitySlot)}
}

func (f *fakeSlotStore) LoadSlot(_ context.Context, slot order.VisitSlot) (*park.CapacitySlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[slot.Key()]
	if !ok {
		return nil, infra.WrapRepoErr(discard(), infra.KindNotFound, "slot not found", nil)
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSlotStore) SaveSlot(_ context.Context, s *park.CapacitySlot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.failSave {
		return infra.WrapRepoErr(discard(), infra.KindUnavailable, "save failed", nil)
	}
	cp := *s
	f.rows[s.Slot().Key()] = &cp
	f.frees = append(f.frees, cp.FreeReserved())
	return nil
}

func (f *fakeSlotStore) freeHistory() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.frees))
	copy(out, f.frees)
	return out
}

type recordingPromoter struct {
	mu    sync.Mutex
	calls []order.VisitSlot
}

func (r *recordingPromoter) PromoteFreed(_ context.Context, slot order.VisitSlot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, slot)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPark(t *testing.T, maxCapacity, reservedFloor int) *park.Park {
	t.Helper()
	p, err := park.NewPark(uuid.New(), "Test Park", 10000, maxCapacity, reservedFloor, true)
	require.NoError(t, err)
	return p
}

func slotFor(t *testing.T, p *park.Park) order.VisitSlot {
	t.Helper()
	slot, err := order.NewVisitSlot(p.ID(), "2026-07-14", "10:00")
	require.NoError(t, err)
	return slot
}

func testClock() *clock.FakeClock {
	return clock.NewFakeClock(time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC))
}

func TestTryReserve(t *testing.T) {
	ctx := context.Background()

	t.Run("admits while the preorder share lasts, then queues", func(t *testing.T) {
		p := testPark(t, 50, 10)
		slot := slotFor(t, p)
		led := ledger.New(newFakeSlotStore(), testClock())

		d, err := led.TryReserve(ctx, p, slot, 35)
		require.NoError(t, err)
		assert.Equal(t, ledger.Admitted, d)

		d, err = led.TryReserve(ctx, p, slot, 5)
		require.NoError(t, err)
		assert.Equal(t, ledger.Admitted, d)

		// Share exhausted (40 of 40): the next preorder goes to the
		// waiting list, not through the floor.
		d, err = led.TryReserve(ctx, p, slot, 1)
		require.NoError(t, err)
		assert.Equal(t, ledger.Queued, d)
	})

	t.Run("rejects a past slot", func(t *testing.T) {
		p := testPark(t, 50, 10)
		slot := slotFor(t, p)
		clk := testClock()
		clk.Set(time.Date(2026, 7, 14, 10, 0, 0, 0, time.UTC))
		led := ledger.New(newFakeSlotStore(), clk)

		d, err := led.TryReserve(ctx, p, slot, 2)
		require.NoError(t, err)
		assert.Equal(t, ledger.Rejected, d)
	})

	t.Run("rejects an unavailable park", func(t *testing.T) {
		p, err := park.NewPark(uuid.New(), "Closed Park", 10000, 50, 10, false)
		require.NoError(t, err)
		slot := slotFor(t, p)
		led := ledger.New(newFakeSlotStore(), testClock())

		d, err := led.TryReserve(ctx, p, slot, 2)
		require.NoError(t, err)
		assert.Equal(t, ledger.Rejected, d)
	})

	t.Run("rolls the counter back when the save fails", func(t *testing.T) {
		p := testPark(t, 50, 10)
		slot := slotFor(t, p)
		store := newFakeSlotStore()
		led := ledger.New(store, testClock())

		store.failSave = true
		d, err := led.TryReserve(ctx, p, slot, 5)
		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrStorageUnavailable)
		assert.Equal(t, ledger.Rejected, d)

		// The rolled-back spots are usable once storage recovers.
		store.failSave = false
		d, err = led.TryReserve(ctx, p, slot, 40)
		require.NoError(t, err)
		assert.Equal(t, ledger.Admitted, d)
	})

	t.Run("concurrent requests never oversell the share", func(t *testing.T) {
		p := testPark(t, 50, 10)
		slot := slotFor(t, p)
		led := ledger.New(newFakeSlotStore(), testClock())

		const workers = 60
		results := make(chan ledger.Decision, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				d, err := led.TryReserve(ctx, p, slot, 1)
				assert.NoError(t, err)
				results <- d
			}()
		}
		wg.Wait()
		close(results)

		admitted, queued := 0, 0
		for d := range results {
			switch d {
			case ledger.Admitted:
				admitted++
			case ledger.Queued:
				queued++
			}
		}
		assert.Equal(t, 40, admitted)
		assert.Equal(t, 20, queued)

		snap, err := led.Snapshot(ctx, slot)
		require.NoError(t, err)
		assert.Equal(t, 0, snap.FreeReserved())
	})

	t.Run("concurrent saves reach the store in counter order", func(t *testing.T) {
		// Out-of-order saves would let a crash restore a stale counter.
		p := testPark(t, 100, 0)
		slot := slotFor(t, p)
		store := newFakeSlotStore()
		led := ledger.New(store, testClock())

		const workers = 30
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				d, err := led.TryReserve(ctx, p, slot, 1)
				assert.NoError(t, err)
				assert.Equal(t, ledger.Admitted, d)
			}()
		}
		wg.Wait()

		history := store.freeHistory()
		require.Len(t, history, workers)
		for i := 1; i < len(history); i++ {
			assert.Less(t, history[i], history[i-1])
		}
		assert.Equal(t, 100-workers, history[len(history)-1])
	})
}

func TestRelease(t *testing.T) {
	ctx := context.Background()

	t.Run("frees spots and pings the promoter", func(t *testing.T) {
		p := testPark(t, 50, 10)
		slot := slotFor(t, p)
		led := ledger.New(newFakeSlotStore(), testClock())
		promoter := &recordingPromoter{}
		led.SetPromoter(promoter)

		d, err := led.TryReserve(ctx, p, slot, 40)
		require.NoError(t, err)
		require.Equal(t, ledger.Admitted, d)

		require.NoError(t, led.Release(ctx, slot, 10))

		free, err := led.FreeReserved(ctx, slot)
		require.NoError(t, err)
		assert.Equal(t, 10, free)
		assert.Equal(t, []order.VisitSlot{slot}, promoter.calls)
	})

	t.Run("restores the counter when the save fails", func(t *testing.T) {
		p := testPark(t, 50, 10)
		slot := slotFor(t, p)
		store := newFakeSlotStore()
		led := ledger.New(store, testClock())
		promoter := &recordingPromoter{}
		led.SetPromoter(promoter)

		d, err := led.TryReserve(ctx, p, slot, 40)
		require.NoError(t, err)
		require.Equal(t, ledger.Admitted, d)

		store.failSave = true
		err = led.Release(ctx, slot, 10)
		assert.ErrorIs(t, err, errs.ErrStorageUnavailable)

		free, err := led.FreeReserved(ctx, slot)
		require.NoError(t, err)
		assert.Equal(t, 0, free)
		assert.Empty(t, promoter.calls, "promotion must not run on a failed release")
	})
}

func TestCheckInCheckOut(t *testing.T) {
	ctx := context.Background()

	t.Run("occupancy is bounded by max capacity, not the floor", func(t *testing.T) {
		p := testPark(t, 50, 10)
		slot := slotFor(t, p)
		led := ledger.New(newFakeSlotStore(), testClock())

		// Fully reserved share; the gate still admits to the maximum.
		d, err := led.TryReserve(ctx, p, slot, 40)
		require.NoError(t, err)
		require.Equal(t, ledger.Admitted, d)

		require.NoError(t, led.CheckIn(ctx, p, slot, 50))
		err = led.CheckIn(ctx, p, slot, 1)
		assert.ErrorIs(t, err, errs.ErrCapacityRejected)

		require.NoError(t, led.CheckOut(ctx, slot, 20))
		require.NoError(t, led.CheckIn(ctx, p, slot, 20))
	})

	t.Run("unavailable park admits nobody", func(t *testing.T) {
		p, err := park.NewPark(uuid.New(), "Closed Park", 10000, 50, 10, false)
		require.NoError(t, err)
		led := ledger.New(newFakeSlotStore(), testClock())

		err = led.CheckIn(ctx, p, slotFor(t, p), 1)
		assert.ErrorIs(t, err, errs.ErrCapacityRejected)
	})
}

func TestZeroPastSlots(t *testing.T) {
	ctx := context.Background()
	p := testPark(t, 50, 10)
	clk := testClock()
	led := ledger.New(newFakeSlotStore(), clk)

	past, err := order.NewVisitSlot(p.ID(), "2026-07-02", "10:00")
	require.NoError(t, err)
	future, err := order.NewVisitSlot(p.ID(), "2026-07-20", "10:00")
	require.NoError(t, err)

	d, err := led.TryReserve(ctx, p, past, 30)
	require.NoError(t, err)
	require.Equal(t, ledger.Admitted, d)
	d, err = led.TryReserve(ctx, p, future, 25)
	require.NoError(t, err)
	require.Equal(t, ledger.Admitted, d)

	clk.Set(time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC))
	led.ZeroPastSlots(ctx)

	snap, err := led.Snapshot(ctx, past)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Reserved())

	snap, err = led.Snapshot(ctx, future)
	require.NoError(t, err)
	assert.Equal(t, 25, snap.Reserved())
}

func TestLookupUnknownSlot(t *testing.T) {
	led := ledger.New(newFakeSlotStore(), testClock())
	slot, err := order.NewVisitSlot(uuid.New(), "2026-07-14", "10:00")
	require.NoError(t, err)

	_, err = led.Snapshot(context.Background(), slot)
	assert.ErrorIs(t, err, errs.ErrSlotNotFound)
}
