// Package ledger is the single source of truth for slot capacity. All
// reserve/release/check-in decisions go through it; counters for one slot
// are linearized behind a per-slot lock while different slots proceed in
// parallel. The lock covers both the in-memory mutation and the save, so
// the persisted counter history of a slot is monotone and a restart
// restores the latest written state. A failed save rolls the mutation
// back before the lock is dropped.
package ledger

import (
	"context"
	"sync"

	"parkgate/internal/domain/order"
	"parkgate/internal/domain/park"
	"parkgate/internal/infra"
	"parkgate/internal/pkg/clock"
	"parkgate/internal/pkg/errs"
	"parkgate/internal/pkg/lock"
)

// Decision is the admission outcome for a reservation attempt.
type Decision int

const (
	Admitted Decision = iota
	Queued
	Rejected
)

func (d Decision) String() string {
	switch d {
	case Admitted:
		return "admitted"
	case Queued:
		return "queued"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// SlotStore is the persistence boundary for capacity slots.
type SlotStore interface {
	LoadSlot(ctx context.Context, slot order.VisitSlot) (*park.CapacitySlot, error)
	SaveSlot(ctx context.Context, s *park.CapacitySlot) error
}

// Promoter is asked, after every release, whether a queued entry can take
// the freed capacity. Wired after construction to break the ledger ↔
// dispatcher cycle.
type Promoter interface {
	PromoteFreed(ctx context.Context, slot order.VisitSlot)
}

type Ledger struct {
	store    SlotStore
	clock    clock.Clock
	locks    *lock.KeyedMutex
	mu       sync.Mutex // guards slots map
	slots    map[string]*park.CapacitySlot
	promoter Promoter
}

func New(store SlotStore, clk clock.Clock) *Ledger {
	return &Ledger{
		store: store,
		clock: clk,
		locks: lock.NewKeyedMutex(),
		slots: make(map[string]*park.CapacitySlot),
	}
}

func (l *Ledger) SetPromoter(p Promoter) {
	l.promoter = p
}

// TryReserve decides admission for a preorder: Admitted reserves the spots
// atomically, Queued means the caller must enqueue the order on the
// waiting list, Rejected means the slot is in the past or the park is
// unavailable.
func (l *Ledger) TryReserve(ctx context.Context, p *park.Park, slot order.VisitSlot, visitors int) (Decision, error) {
	if visitors <= 0 {
		return Rejected, errs.Mark(order.ErrInvalidVisitors, errs.ErrInvalidInput)
	}
	if !p.Available() || slot.IsPast(l.clock.Now()) {
		return Rejected, nil
	}

	s, err := l.slotState(ctx, slot, p.MaxCapacity(), p.ReservedFloor())
	if err != nil {
		return Rejected, err
	}

	err = l.update(ctx, s,
		func() error { return s.Reserve(visitors) },
		func() { s.Release(visitors) },
	)
	switch {
	case err == nil:
		return Admitted, nil
	case errs.Is(err, errs.ErrStorageUnavailable):
		return Rejected, err
	default:
		return Queued, nil
	}
}

// Reserve takes spots for a waiting-list promotion. Unlike TryReserve it
// never queues: either the capacity is there or the promotion is off.
func (l *Ledger) Reserve(ctx context.Context, slot order.VisitSlot, visitors int) (bool, error) {
	s, err := l.lookup(ctx, slot)
	if err != nil {
		return false, err
	}

	err = l.update(ctx, s,
		func() error { return s.Reserve(visitors) },
		func() { s.Release(visitors) },
	)
	switch {
	case err == nil:
		return true, nil
	case errs.Is(err, errs.ErrStorageUnavailable):
		return false, err
	default:
		return false, nil
	}
}

// Release frees reserved spots and is the single trigger point for
// waiting-list promotion on that slot.
func (l *Ledger) Release(ctx context.Context, slot order.VisitSlot, visitors int) error {
	s, err := l.lookup(ctx, slot)
	if err != nil {
		return err
	}

	if err := l.update(ctx, s,
		func() error { s.Release(visitors); return nil },
		func() { _ = s.Reserve(visitors) },
	); err != nil {
		return err
	}

	if l.promoter != nil {
		l.promoter.PromoteFreed(ctx, slot)
	}
	return nil
}

// CheckIn admits visitors through the gate. Occupancy is bounded by the
// park maximum only; the reserved-entries floor does not apply here.
func (l *Ledger) CheckIn(ctx context.Context, p *park.Park, slot order.VisitSlot, visitors int) error {
	if !p.Available() {
		return errs.ErrCapacityRejected
	}
	s, err := l.slotState(ctx, slot, p.MaxCapacity(), p.ReservedFloor())
	if err != nil {
		return err
	}

	err = l.update(ctx, s,
		func() error { return s.Occupy(visitors) },
		func() { s.Vacate(visitors) },
	)
	if err != nil {
		if errs.Is(err, errs.ErrStorageUnavailable) {
			return err
		}
		return errs.Mark(err, errs.ErrCapacityRejected)
	}
	return nil
}

// CheckOut releases occupancy when a visit completes.
func (l *Ledger) CheckOut(ctx context.Context, slot order.VisitSlot, visitors int) error {
	s, err := l.lookup(ctx, slot)
	if err != nil {
		return err
	}

	return l.update(ctx, s,
		func() error { s.Vacate(visitors); return nil },
		func() { _ = s.Occupy(visitors) },
	)
}

// RollbackReserve undoes an admission whose order could not be persisted.
// Deliberately promotion-free: nothing was ever observably freed.
func (l *Ledger) RollbackReserve(ctx context.Context, slot order.VisitSlot, visitors int) {
	s, err := l.lookup(ctx, slot)
	if err != nil {
		return
	}
	// The release stands even if the save fails; the next successful save
	// writes the corrected counter.
	_ = l.update(ctx, s,
		func() error { s.Release(visitors); return nil },
		func() {},
	)
}

// FreeReserved reports the preorder capacity currently free on a slot.
func (l *Ledger) FreeReserved(ctx context.Context, slot order.VisitSlot) (int, error) {
	s, err := l.lookup(ctx, slot)
	if err != nil {
		return 0, err
	}
	key := slot.Key()
	l.locks.Lock(key)
	free := s.FreeReserved()
	l.locks.Unlock(key)
	return free, nil
}

// Snapshot returns a copy of the slot's counters for availability queries.
func (l *Ledger) Snapshot(ctx context.Context, slot order.VisitSlot) (park.CapacitySlot, error) {
	s, err := l.lookup(ctx, slot)
	if err != nil {
		return park.CapacitySlot{}, err
	}
	key := slot.Key()
	l.locks.Lock(key)
	snap := *s
	l.locks.Unlock(key)
	return snap, nil
}

// ZeroPastSlots resets counters of every cached slot whose visit time is
// behind now. Slot rows are never deleted. Called by the day-rollover job.
func (l *Ledger) ZeroPastSlots(ctx context.Context) {
	now := l.clock.Now()

	l.mu.Lock()
	past := make([]*park.CapacitySlot, 0)
	for _, s := range l.slots {
		if s.Slot().IsPast(now) {
			past = append(past, s)
		}
	}
	l.mu.Unlock()

	for _, s := range past {
		_ = l.update(ctx, s,
			func() error { s.Zero(); return nil },
			func() {},
		)
	}
}

// slotState returns the live state for a slot, creating it lazily from the
// park configuration. The store load happens outside any slot lock; the
// first loader to register wins.
func (l *Ledger) slotState(ctx context.Context, slot order.VisitSlot, maxCapacity, reservedFloor int) (*park.CapacitySlot, error) {
	l.mu.Lock()
	if s, ok := l.slots[slot.Key()]; ok {
		l.mu.Unlock()
		return s, nil
	}
	l.mu.Unlock()

	loaded, err := l.store.LoadSlot(ctx, slot)
	if err != nil {
		if !infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, errs.ErrStorageUnavailable)
		}
		loaded, err = park.NewCapacitySlot(slot, maxCapacity, reservedFloor)
		if err != nil {
			return nil, err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.slots[slot.Key()]; ok {
		return s, nil
	}
	l.slots[slot.Key()] = loaded
	return loaded, nil
}

// lookup resolves a slot that must already exist (cached or persisted).
func (l *Ledger) lookup(ctx context.Context, slot order.VisitSlot) (*park.CapacitySlot, error) {
	l.mu.Lock()
	if s, ok := l.slots[slot.Key()]; ok {
		l.mu.Unlock()
		return s, nil
	}
	l.mu.Unlock()

	loaded, err := l.store.LoadSlot(ctx, slot)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrSlotNotFound
		}
		return nil, errs.Mark(err, errs.ErrStorageUnavailable)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.slots[slot.Key()]; ok {
		return s, nil
	}
	l.slots[slot.Key()] = loaded
	return loaded, nil
}

// update applies mutate and saves the slot while the per-slot lock is
// held, so saves for one slot reach the store in mutation order. A failed
// save runs undo before the lock is dropped, leaving memory and store
// agreeing on the prior state.
func (l *Ledger) update(ctx context.Context, s *park.CapacitySlot, mutate func() error, undo func()) error {
	key := s.Slot().Key()
	l.locks.Lock(key)
	defer l.locks.Unlock(key)

	if err := mutate(); err != nil {
		return err
	}
	snap := *s
	if err := l.store.SaveSlot(ctx, &snap); err != nil {
		undo()
		return errs.Mark(err, errs.ErrStorageUnavailable)
	}
	return nil
}
