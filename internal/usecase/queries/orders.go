package queries

import (
	"context"
	"time"

	"parkgate/internal/domain/order"
	"parkgate/internal/domain/park"
	"parkgate/internal/infra"
	"parkgate/internal/ledger"
	"parkgate/internal/pkg/errs"

	"github.com/google/uuid"
)

type OrderReader interface {
	Load(ctx context.Context, id uuid.UUID) (*order.Order, error)
	ListByPark(ctx context.Context, parkID uuid.UUID) ([]*order.Order, error)
}

// ParkReader sits in front of the park configuration; the production
// implementation is a redis read-through cache, parks change rarely.
type ParkReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*park.Park, error)
}

type OrderView struct {
	ID              uuid.UUID  `json:"id"`
	ParkID          uuid.UUID  `json:"parkId"`
	Day             string     `json:"day"`
	Slot            string     `json:"slot"`
	OrderType       string     `json:"orderType"`
	Visitors        int        `json:"visitors"`
	Status          string     `json:"status"`
	Paid            bool       `json:"paid"`
	PriceCents      int64      `json:"priceCents"`
	EntranceCents   int64      `json:"entranceCents"`
	ContactName     string     `json:"contactName"`
	ContactEmail    string     `json:"contactEmail"`
	EnqueuedAt      *time.Time `json:"enqueuedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	StatusChangedAt time.Time  `json:"statusChangedAt"`
}

type AvailabilityView struct {
	ParkID        uuid.UUID `json:"parkId"`
	Day           string    `json:"day"`
	Slot          string    `json:"slot"`
	MaxCapacity   int       `json:"maxCapacity"`
	ReservedFloor int       `json:"reservedFloor"`
	FreePreorder  int       `json:"freePreorder"`
	FreeWalkIn    int       `json:"freeWalkIn"`
}

type OrderQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*OrderView, error)
	ListByPark(ctx context.Context, parkID uuid.UUID) ([]*OrderView, error)
	Availability(ctx context.Context, parkID uuid.UUID, day, slot string) (*AvailabilityView, error)
}

type orderQueriesImpl struct {
	orders OrderReader
	parks  ParkReader
	ledger *ledger.Ledger
}

func NewOrderQueries(orders OrderReader, parks ParkReader, led *ledger.Ledger) OrderQueries {
	return &orderQueriesImpl{orders: orders, parks: parks, ledger: led}
}

func (q *orderQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*OrderView, error) {
	o, err := q.orders.Load(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrOrderNotFound
		}
		return nil, errs.Mark(err, errs.ErrStorageUnavailable)
	}
	return toOrderView(o), nil
}

func (q *orderQueriesImpl) ListByPark(ctx context.Context, parkID uuid.UUID) ([]*OrderView, error) {
	orders, err := q.orders.ListByPark(ctx, parkID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrStorageUnavailable)
	}

	out := make([]*OrderView, len(orders))
	for i, o := range orders {
		out[i] = toOrderView(o)
	}
	return out, nil
}

func toOrderView(o *order.Order) *OrderView {
	return &OrderView{
		ID:              o.ID(),
		ParkID:          o.ParkID(),
		Day:             o.Slot().Day(),
		Slot:            o.Slot().Start(),
		OrderType:       o.OrderType().String(),
		Visitors:        o.Visitors(),
		Status:          o.Status().String(),
		Paid:            o.Paid(),
		PriceCents:      o.PriceCents(),
		EntranceCents:   o.EntranceCents(),
		ContactName:     o.Contact().Name(),
		ContactEmail:    o.Contact().Email(),
		EnqueuedAt:      o.EnqueuedAt(),
		CreatedAt:       o.CreatedAt(),
		StatusChangedAt: o.StatusChangedAt(),
	}
}

func (q *orderQueriesImpl) Availability(ctx context.Context, parkID uuid.UUID, day, slotStart string) (*AvailabilityView, error) {
	slot, err := order.NewVisitSlot(parkID, day, slotStart)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrInvalidInput)
	}

	p, err := q.parks.FindByID(ctx, parkID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrParkNotFound
		}
		return nil, errs.Mark(err, errs.ErrStorageUnavailable)
	}

	view := &AvailabilityView{
		ParkID:        parkID,
		Day:           day,
		Slot:          slotStart,
		MaxCapacity:   p.MaxCapacity(),
		ReservedFloor: p.ReservedFloor(),
	}

	snap, err := q.ledger.Snapshot(ctx, slot)
	if err != nil {
		if errs.Is(err, errs.ErrSlotNotFound) {
			// No activity on the slot yet: everything is free.
			view.FreePreorder = p.MaxCapacity() - p.ReservedFloor()
			view.FreeWalkIn = p.MaxCapacity()
			return view, nil
		}
		return nil, err
	}

	view.FreePreorder = snap.FreeReserved()
	view.FreeWalkIn = snap.FreeOccupancy()
	return view, nil
}
