package park

import (
	"errors"

	"parkgate/internal/domain/order"
)

var (
	ErrNoReservedCapacity = errors.New("insufficient preorder capacity")
	ErrParkFull           = errors.New("park is at maximum occupancy")
)

// CapacitySlot carries the counters for one (park, day, time slot) bucket.
// The methods enforce the two capacity invariants:
//
//	currentReserved ≤ maxCapacity − reservedFloor
//	currentOccupied ≤ maxCapacity
//
// The slot itself is not safe for concurrent use; the ledger serializes
// access per slot.
type CapacitySlot struct {
	slot            order.VisitSlot
	maxCapacity     int
	reservedFloor   int
	currentReserved int
	currentOccupied int
}

func NewCapacitySlot(slot order.VisitSlot, maxCapacity, reservedFloor int) (*CapacitySlot, error) {
	if maxCapacity <= 0 || reservedFloor < 0 || reservedFloor > maxCapacity {
		return nil, ErrInvalidCapacity
	}
	return &CapacitySlot{slot: slot, maxCapacity: maxCapacity, reservedFloor: reservedFloor}, nil
}

func ReconstructCapacitySlot(slot order.VisitSlot, maxCapacity, reservedFloor, currentReserved, currentOccupied int) *CapacitySlot {
	return &CapacitySlot{
		slot:            slot,
		maxCapacity:     maxCapacity,
		reservedFloor:   reservedFloor,
		currentReserved: currentReserved,
		currentOccupied: currentOccupied,
	}
}

func (s *CapacitySlot) Slot() order.VisitSlot { return s.slot }
func (s *CapacitySlot) MaxCapacity() int      { return s.maxCapacity }
func (s *CapacitySlot) ReservedFloor() int    { return s.reservedFloor }
func (s *CapacitySlot) Reserved() int         { return s.currentReserved }
func (s *CapacitySlot) Occupied() int         { return s.currentOccupied }

// PreorderCapacity is the portion of the slot open to reservations; the
// floor stays held back for walk-ins.
func (s *CapacitySlot) PreorderCapacity() int {
	return s.maxCapacity - s.reservedFloor
}

func (s *CapacitySlot) FreeReserved() int {
	return s.PreorderCapacity() - s.currentReserved
}

func (s *CapacitySlot) FreeOccupancy() int {
	return s.maxCapacity - s.currentOccupied
}

// Reserve admits visitors against the preorder share.
func (s *CapacitySlot) Reserve(visitors int) error {
	if visitors <= 0 {
		return order.ErrInvalidVisitors
	}
	if s.currentReserved+visitors > s.PreorderCapacity() {
		return ErrNoReservedCapacity
	}
	s.currentReserved += visitors
	return nil
}

// Release returns reserved spots on cancellation or expiry. Clamped at
// zero: releasing more than reserved indicates a caller bug upstream, not
// something to corrupt counters over.
func (s *CapacitySlot) Release(visitors int) {
	s.currentReserved -= visitors
	if s.currentReserved < 0 {
		s.currentReserved = 0
	}
}

// Occupy checks visitors in. Walk-ins draw from the reserved floor plus any
// residual capacity, so only total occupancy is checked.
func (s *CapacitySlot) Occupy(visitors int) error {
	if visitors <= 0 {
		return order.ErrInvalidVisitors
	}
	if s.currentOccupied+visitors > s.maxCapacity {
		return ErrParkFull
	}
	s.currentOccupied += visitors
	return nil
}

func (s *CapacitySlot) Vacate(visitors int) {
	s.currentOccupied -= visitors
	if s.currentOccupied < 0 {
		s.currentOccupied = 0
	}
}

// Zero resets both counters at day rollover. The slot row survives.
func (s *CapacitySlot) Zero() {
	s.currentReserved = 0
	s.currentOccupied = 0
}
