package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidVisitors   = errors.New("visitor count must be positive")
	ErrInvalidOrderType  = errors.New("unknown order type")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotPreorder       = errors.New("order type is not a preorder")
	ErrNotOccasional     = errors.New("order type is not occasional")
)

// Order is the aggregate the engine owns exclusively: once created it is
// mutated only through Transition and MarkPaid, and only by the command
// layer or the deadline scheduler.
type Order struct {
	id              uuid.UUID
	slot            VisitSlot
	orderType       Type
	visitors        int
	contact         Contact
	status          Status
	paid            bool
	priceCents      int64
	entranceCents   int64
	enqueuedAt      *time.Time
	createdAt       time.Time
	statusChangedAt time.Time
}

func newOrder(slot VisitSlot, typ Type, visitors int, contact Contact, priceCents, entranceCents int64, status Status, now time.Time) (*Order, error) {
	if !typ.IsValid() {
		return nil, ErrInvalidOrderType
	}
	if visitors <= 0 {
		return nil, ErrInvalidVisitors
	}
	return &Order{
		id:              uuid.New(),
		slot:            slot,
		orderType:       typ,
		visitors:        visitors,
		contact:         contact,
		status:          status,
		priceCents:      priceCents,
		entranceCents:   entranceCents,
		createdAt:       now,
		statusChangedAt: now,
	}, nil
}

// NewAdmitted creates a preorder that won a reserved spot.
func NewAdmitted(slot VisitSlot, typ Type, visitors int, contact Contact, priceCents, entranceCents int64, now time.Time) (*Order, error) {
	if !typ.IsPreorder() {
		return nil, ErrNotPreorder
	}
	return newOrder(slot, typ, visitors, contact, priceCents, entranceCents, StatusWaitNotify, now)
}

// NewQueued creates a preorder parked on the waiting list.
func NewQueued(slot VisitSlot, typ Type, visitors int, contact Contact, priceCents, entranceCents int64, now time.Time) (*Order, error) {
	if !typ.IsPreorder() {
		return nil, ErrNotPreorder
	}
	o, err := newOrder(slot, typ, visitors, contact, priceCents, entranceCents, StatusInWaitingList, now)
	if err != nil {
		return nil, err
	}
	enqueued := now
	o.enqueuedAt = &enqueued
	return o, nil
}

// NewWalkIn creates an occasional order for a visitor standing at the gate.
func NewWalkIn(slot VisitSlot, typ Type, visitors int, contact Contact, priceCents int64, now time.Time) (*Order, error) {
	if typ.IsPreorder() {
		return nil, ErrNotOccasional
	}
	return newOrder(slot, typ, visitors, contact, priceCents, priceCents, StatusOccasional, now)
}

func Reconstruct(
	id uuid.UUID,
	slot VisitSlot,
	typ Type,
	visitors int,
	contact Contact,
	status Status,
	paid bool,
	priceCents, entranceCents int64,
	enqueuedAt *time.Time,
	createdAt, statusChangedAt time.Time,
) *Order {
	return &Order{
		id:              id,
		slot:            slot,
		orderType:       typ,
		visitors:        visitors,
		contact:         contact,
		status:          status,
		paid:            paid,
		priceCents:      priceCents,
		entranceCents:   entranceCents,
		enqueuedAt:      enqueuedAt,
		createdAt:       createdAt,
		statusChangedAt: statusChangedAt,
	}
}

// Transition moves the order to the target status if the lifecycle allows
// it; otherwise the order is left untouched and ErrInvalidTransition is
// returned with the offending pair attached.
func (o *Order) Transition(to Status, now time.Time) error {
	if !CanTransition(o.status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.status, to)
	}
	o.status = to
	o.statusChangedAt = now
	return nil
}

func (o *Order) MarkPaid() {
	o.paid = true
}

func (o *Order) ID() uuid.UUID              { return o.id }
func (o *Order) Slot() VisitSlot            { return o.slot }
func (o *Order) ParkID() uuid.UUID          { return o.slot.ParkID() }
func (o *Order) OrderType() Type            { return o.orderType }
func (o *Order) Visitors() int              { return o.visitors }
func (o *Order) Contact() Contact           { return o.contact }
func (o *Order) Status() Status             { return o.status }
func (o *Order) Paid() bool                 { return o.paid }
func (o *Order) PriceCents() int64          { return o.priceCents }
func (o *Order) EntranceCents() int64       { return o.entranceCents }
func (o *Order) EnqueuedAt() *time.Time     { return o.enqueuedAt }
func (o *Order) CreatedAt() time.Time       { return o.createdAt }
func (o *Order) StatusChangedAt() time.Time { return o.statusChangedAt }
