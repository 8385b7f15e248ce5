package commands

import (
	"context"
	"log/slog"
	"time"

	"parkgate/internal/deadline"
	"parkgate/internal/domain/order"
	"parkgate/internal/domain/park"
	"parkgate/internal/domain/pricing"
	"parkgate/internal/infra"
	"parkgate/internal/ledger"
	"parkgate/internal/pkg/clock"
	"parkgate/internal/pkg/config"
	"parkgate/internal/pkg/errs"
	"parkgate/internal/pkg/lock"
	"parkgate/internal/waitlist"

	"github.com/google/uuid"
)

// Outcome is the admission result returned to the session.
type Outcome string

const (
	OutcomeAdmitted Outcome = "admitted"
	OutcomeQueued   Outcome = "queued"
	OutcomeRejected Outcome = "rejected"
)

type PlaceOrderCommand struct {
	ParkID    uuid.UUID
	Day       string
	Slot      string
	OrderType order.Type
	Visitors  int
	Name      string
	Email     string
	Phone     string
	Prepaid   bool
}

type ConfirmOrderCommand struct {
	OrderID uuid.UUID
	// PayNow claims the stacked prepaid discount on a group preorder.
	PayNow bool
}

type PlaceOrderResult struct {
	Outcome Outcome
	OrderID uuid.UUID
	Status  order.Status
	Quote   pricing.Quote
}

// OrderCommands is the session-facing dispatcher surface: one operation
// per inbound command kind.
type OrderCommands interface {
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (*PlaceOrderResult, error)
	PlaceWalkIn(ctx context.Context, cmd PlaceOrderCommand) (*PlaceOrderResult, error)
	ConfirmOrder(ctx context.Context, cmd ConfirmOrderCommand) error
	CancelOrder(ctx context.Context, orderID uuid.UUID) error
	CheckIn(ctx context.Context, orderID uuid.UUID) error
	CheckOut(ctx context.Context, orderID uuid.UUID) error
}

// Engine routes commands to the ledger, the lifecycle and the waiting
// list. It also receives deadline expiries (deadline.Handler) and freed
// capacity (ledger.Promoter), so timer-driven and user-driven transitions
// share one code path. Transitions for the same order are serialized on a
// per-order lock.
type Engine struct {
	orders     OrderStore
	parks      ParkStore
	ledger     *ledger.Ledger
	waitlist   *waitlist.Manager
	sched      *deadline.Scheduler
	notifier   Notifier
	clock      clock.Clock
	logger     *slog.Logger
	cfg        config.EngineConfig
	orderLocks *lock.KeyedMutex
}

func NewEngine(
	orders OrderStore,
	parks ParkStore,
	led *ledger.Ledger,
	wl *waitlist.Manager,
	notifier Notifier,
	clk clock.Clock,
	logger *slog.Logger,
	cfg config.EngineConfig,
) *Engine {
	return &Engine{
		orders:     orders,
		parks:      parks,
		ledger:     led,
		waitlist:   wl,
		notifier:   notifier,
		clock:      clk,
		logger:     logger,
		cfg:        cfg,
		orderLocks: lock.NewKeyedMutex(),
	}
}

// SetScheduler wires the deadline scheduler after construction; scheduler
// and engine reference each other.
func (e *Engine) SetScheduler(s *deadline.Scheduler) {
	e.sched = s
}

func (e *Engine) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (*PlaceOrderResult, error) {
	if !cmd.OrderType.IsPreorder() {
		return nil, errs.Mark(order.ErrNotPreorder, errs.ErrInvalidInput)
	}
	slot, contact, err := e.parseTarget(cmd)
	if err != nil {
		return nil, err
	}

	p, err := e.findPark(ctx, cmd.ParkID)
	if err != nil {
		return nil, err
	}
	quote, err := pricing.Price(cmd.OrderType, cmd.Visitors, p.BasePriceCents(), cmd.Prepaid)
	if err != nil {
		return nil, err
	}

	decision, err := e.ledger.TryReserve(ctx, p, slot, cmd.Visitors)
	if err != nil {
		return nil, err
	}
	now := e.clock.Now()

	switch decision {
	case ledger.Rejected:
		return &PlaceOrderResult{Outcome: OutcomeRejected, Quote: quote}, nil

	case ledger.Admitted:
		o, err := order.NewAdmitted(slot, cmd.OrderType, cmd.Visitors, contact, quote.PayNowCents, quote.AtEntranceCents, now)
		if err != nil {
			e.ledger.RollbackReserve(ctx, slot, cmd.Visitors)
			return nil, errs.Mark(err, errs.ErrInvalidInput)
		}
		if err := e.orders.Save(ctx, o); err != nil {
			e.ledger.RollbackReserve(ctx, slot, cmd.Visitors)
			return nil, storageErr(err)
		}

		visitAt := slot.VisitTime()
		remindAt := visitAt.Add(-e.cfg.ReminderLead)
		if remindAt.Before(now) {
			remindAt = now
		}
		e.sched.Schedule(o.ID(), deadline.KindReminder, remindAt)
		e.sched.Schedule(o.ID(), deadline.KindVisit, visitAt)

		return &PlaceOrderResult{Outcome: OutcomeAdmitted, OrderID: o.ID(), Status: o.Status(), Quote: quote}, nil

	default: // ledger.Queued
		o, err := order.NewQueued(slot, cmd.OrderType, cmd.Visitors, contact, quote.PayNowCents, quote.AtEntranceCents, now)
		if err != nil {
			return nil, errs.Mark(err, errs.ErrInvalidInput)
		}
		if err := e.orders.Save(ctx, o); err != nil {
			return nil, storageErr(err)
		}
		e.waitlist.Enqueue(slot, waitlist.Entry{OrderID: o.ID(), Visitors: cmd.Visitors, EnqueuedAt: now})
		e.sched.Schedule(o.ID(), deadline.KindVisit, slot.VisitTime())

		return &PlaceOrderResult{Outcome: OutcomeQueued, OrderID: o.ID(), Status: o.Status(), Quote: quote}, nil
	}
}

/// PlaceWalkIn admits an occasional visitor at the gate: the order enters
// the lifecycle at occasional and is checked in immediately.
func (e *Engine) PlaceWalkIn(ctx context.Context, cmd PlaceOrderCommand) (*PlaceOrderResult, error) {
	if cmd.OrderType.IsPreorder() {
		return nil, errs.Mark(order.ErrNotOccasional, errs.ErrInvalidInput)
	}
	slot, contact, err := e.parseTarget(cmd)
	if err != nil {
		return nil, err
	}

	p, err := e.findPark(ctx, cmd.ParkID)
	if err != nil {
		return nil, err
	}
	quote, err := pricing.Price(cmd.OrderType, cmd.Visitors, p.BasePriceCents(), false)
	if err != nil {
		return nil, err
	}

	if err := e.ledger.CheckIn(ctx, p, slot, cmd.Visitors); err != nil {
		if errs.Is(err, errs.ErrCapacityRejected) {
			return &PlaceOrderResult{Outcome: OutcomeRejected, Quote: quote}, nil
		}
		return nil, err
	}

	now := e.clock.Now()
	o, err := order.NewWalkIn(slot, cmd.OrderType, cmd.Visitors, contact, quote.PayNowCents, now)
	if err != nil {
		_ = e.ledger.CheckOut(ctx, slot, cmd.Visitors)
		return nil, errs.Mark(err, errs.ErrInvalidInput)
	}
	_ = o.Transition(order.StatusInPark, now)

	if err := e.orders.Save(ctx, o); err != nil {
		_ = e.ledger.CheckOut(ctx, slot, cmd.Visitors)
		return nil, storageErr(err)
	}
	return &PlaceOrderResult{Outcome: OutcomeAdmitted, OrderID: o.ID(), Status: o.Status(), Quote: quote}, nil
}

func (e *Engine) ConfirmOrder(ctx context.Context, cmd ConfirmOrderCommand) error {
	e.orderLocks.Lock(cmd.OrderID.String())
	defer e.orderLocks.Unlock(cmd.OrderID.String())

	o, err := e.loadOrder(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	wasOffer := o.Status() == order.StatusNotifiedWaitingList

	if err := o.Transition(order.StatusConfirmed, e.clock.Now()); err != nil {
		return errs.Mark(err, errs.ErrInvalidTransition)
	}
	if cmd.PayNow && o.OrderType() == order.TypeGroupPreorder {
		o.MarkPaid()
	}
	if err := e.orders.Save(ctx, o); err != nil {
		return storageErr(err)
	}

	// The user beat the window; a racing expiry now finds the order
	// confirmed and no-ops.
	if wasOffer {
		e.sched.Cancel(o.ID(), deadline.KindOffer)
	} else {
		e.sched.Cancel(o.ID(), deadline.KindConfirm)
	}
	return nil
}

func (e *Engine) CancelOrder(ctx context.Context, orderID uuid.UUID) error {
	e.orderLocks.Lock(orderID.String())
	defer e.orderLocks.Unlock(orderID.String())

	o, err := e.loadOrder(ctx, orderID)
	if err != nil {
		return err
	}
	wasQueued := o.Status() == order.StatusInWaitingList
	held := o.Status().HoldsReservation()

	if err := o.Transition(order.StatusCancelled, e.clock.Now()); err != nil {
		return errs.Mark(err, errs.ErrInvalidTransition)
	}
	if err := e.orders.Save(ctx, o); err != nil {
		return storageErr(err)
	}

	e.sched.CancelAll(o.ID())
	if wasQueued {
		e.waitlist.Remove(o.Slot(), o.ID())
	}
	if held {
		if err := e.ledger.Release(ctx, o.Slot(), o.Visitors()); err != nil {
			return err
		}
	}
	e.notify(ctx, NotifyCancellationConfirmed, o, nil)
	return nil
}

func (e *Engine) CheckIn(ctx context.Context, orderID uuid.UUID) error {
	e.orderLocks.Lock(orderID.String())
	defer e.orderLocks.Unlock(orderID.String())

	o, err := e.loadOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if o.Status() != order.StatusConfirmed {
		return errs.Mark(order.ErrInvalidTransition, errs.ErrInvalidTransition)
	}

	p, err := e.findPark(ctx, o.ParkID())
	if err != nil {
		return err
	}
	if err := e.ledger.CheckIn(ctx, p, o.Slot(), o.Visitors()); err != nil {
		return err
	}

	_ = o.Transition(order.StatusInPark, e.clock.Now())
	if err := e.orders.Save(ctx, o); err != nil {
		_ = e.ledger.CheckOut(ctx, o.Slot(), o.Visitors())
		return storageErr(err)
	}
	e.sched.Cancel(o.ID(), deadline.KindVisit)
	return nil
}

func (e *Engine) CheckOut(ctx context.Context, orderID uuid.UUID) error {
	e.orderLocks.Lock(orderID.String())
	defer e.orderLocks.Unlock(orderID.String())

	o, err := e.loadOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if err := o.Transition(order.StatusCompleted, e.clock.Now()); err != nil {
		return errs.Mark(err, errs.ErrInvalidTransition)
	}
	if err := e.orders.Save(ctx, o); err != nil {
		return storageErr(err)
	}
	return e.ledger.CheckOut(ctx, o.Slot(), o.Visitors())
}

// HandleExpiry applies a deadline that elapsed without a matching user
// action. A status that no longer matches the deadline kind means the
// user won the race: the expiry is a no-op, never an error.
func (e *Engine) HandleExpiry(ctx context.Context, orderID uuid.UUID, kind deadline.Kind) error {
	e.orderLocks.Lock(orderID.String())
	defer e.orderLocks.Unlock(orderID.String())

	o, err := e.loadOrder(ctx, orderID)
	if err != nil {
		if errs.Is(err, errs.ErrOrderNotFound) {
			return nil // archived meanwhile
		}
		return err
	}
	now := e.clock.Now()

	switch kind {
	case deadline.KindReminder:
		if o.Status() != order.StatusWaitNotify {
			return nil
		}
		if err := o.Transition(order.StatusNotified, now); err != nil {
			return err
		}
		if err := e.orders.Save(ctx, o); err != nil {
			return storageErr(err)
		}
		confirmBy := now.Add(e.cfg.ConfirmWindow)
		e.sched.Schedule(o.ID(), deadline.KindConfirm, confirmBy)
		e.notify(ctx, NotifyReminder, o, nil)
		e.notify(ctx, NotifyConfirmOrCancel, o, &confirmBy)
		return nil

	case deadline.KindConfirm:
		if o.Status() != order.StatusNotified {
			return nil
		}
		if err := e.expire(ctx, o, order.StatusCancelled, now, true); err != nil {
			return err
		}
		e.notify(ctx, NotifyCancellationConfirmed, o, nil)
		return nil

	case deadline.KindOffer:
		if o.Status() != order.StatusNotifiedWaitingList {
			return nil
		}
		// The promotion held capacity through the offer window; give it
		// back so the next queued entry gets its chance.
		return e.expire(ctx, o, order.StatusIrrelevant, now, true)

	case deadline.KindVisit:
		switch o.Status() {
		case order.StatusWaitNotify, order.StatusNotified, order.StatusConfirmed, order.StatusNotifiedWaitingList:
			return e.expire(ctx, o, order.StatusTimePassed, now, true)
		case order.StatusInWaitingList:
			if err := e.expire(ctx, o, order.StatusTimePassed, now, false); err != nil {
				return err
			}
			e.waitlist.Remove(o.Slot(), o.ID())
			return nil
		default:
			return nil
		}

	default:
		return errs.Newf("unknown deadline kind %q", kind)
	}
}

// PromoteFreed walks the slot's waiting list after a release, promoting
// every entry that fits the capacity freed so far. Promotion reserves the
// spots immediately so the offer cannot be raced away by new preorders.
func (e *Engine) PromoteFreed(ctx context.Context, slot order.VisitSlot) {
	for {
		free, err := e.ledger.FreeReserved(ctx, slot)
		if err != nil || free <= 0 {
			return
		}
		entry, ok := e.waitlist.PopFit(slot, free)
		if !ok {
			return
		}
		if !e.promote(ctx, slot, entry) {
			return
		}
	}
}

func (e *Engine) promote(ctx context.Context, slot order.VisitSlot, entry waitlist.Entry) bool {
	e.orderLocks.Lock(entry.OrderID.String())
	defer e.orderLocks.Unlock(entry.OrderID.String())

	o, err := e.loadOrder(ctx, entry.OrderID)
	if err != nil {
		if errs.Is(err, errs.ErrOrderNotFound) {
			return true // stale entry, keep promoting
		}
		e.waitlist.Enqueue(slot, entry)
		return false
	}
	if o.Status() != order.StatusInWaitingList {
		return true
	}

	ok, err := e.ledger.Reserve(ctx, slot, entry.Visitors)
	if err != nil || !ok {
		e.waitlist.Enqueue(slot, entry)
		return false
	}

	now := e.clock.Now()
	if err := o.Transition(order.StatusNotifiedWaitingList, now); err != nil {
		e.ledger.RollbackReserve(ctx, slot, entry.Visitors)
		return true
	}
	if err := e.orders.Save(ctx, o); err != nil {
		e.ledger.RollbackReserve(ctx, slot, entry.Visitors)
		e.waitlist.Enqueue(slot, entry)
		return false
	}

	offerBy := now.Add(e.cfg.OfferWindow)
	e.sched.Schedule(o.ID(), deadline.KindOffer, offerBy)
	e.notify(ctx, NotifyWaitlistOffer, o, &offerBy)
	return true
}

// Restore rebuilds the deadline heap and the waiting lists from stored
// order state after a restart.
func (e *Engine) Restore(ctx context.Context) error {
	active, err := e.orders.ListActive(ctx)
	if err != nil {
		return storageErr(err)
	}

	for _, o := range active {
		visitAt := o.Slot().VisitTime()
		switch o.Status() {
		case order.StatusWaitNotify:
			remindAt := visitAt.Add(-e.cfg.ReminderLead)
			e.sched.Schedule(o.ID(), deadline.KindReminder, remindAt)
			e.sched.Schedule(o.ID(), deadline.KindVisit, visitAt)
		case order.StatusNotified:
			e.sched.Schedule(o.ID(), deadline.KindConfirm, o.StatusChangedAt().Add(e.cfg.ConfirmWindow))
			e.sched.Schedule(o.ID(), deadline.KindVisit, visitAt)
		case order.StatusConfirmed:
			e.sched.Schedule(o.ID(), deadline.KindVisit, visitAt)
		case order.StatusInWaitingList:
			enqueuedAt := o.CreatedAt()
			if o.EnqueuedAt() != nil {
				enqueuedAt = *o.EnqueuedAt()
			}
			e.waitlist.Enqueue(o.Slot(), waitlist.Entry{OrderID: o.ID(), Visitors: o.Visitors(), EnqueuedAt: enqueuedAt})
			e.sched.Schedule(o.ID(), deadline.KindVisit, visitAt)
		case order.StatusNotifiedWaitingList:
			e.sched.Schedule(o.ID(), deadline.KindOffer, o.StatusChangedAt().Add(e.cfg.OfferWindow))
			e.sched.Schedule(o.ID(), deadline.KindVisit, visitAt)
		}
	}

	e.logger.Info("engine state restored", slog.Int("active_orders", len(active)))
	return nil
}

// expire moves o to a terminal status and, when the order held reserved
// capacity, releases it (which in turn triggers promotion).
func (e *Engine) expire(ctx context.Context, o *order.Order, to order.Status, now time.Time, release bool) error {
	if err := o.Transition(to, now); err != nil {
		return err
	}
	if err := e.orders.Save(ctx, o); err != nil {
		return storageErr(err)
	}
	e.sched.CancelAll(o.ID())
	if release {
		return e.ledger.Release(ctx, o.Slot(), o.Visitors())
	}
	return nil
}

func (e *Engine) parseTarget(cmd PlaceOrderCommand) (order.VisitSlot, order.Contact, error) {
	slot, err := order.NewVisitSlot(cmd.ParkID, cmd.Day, cmd.Slot)
	if err != nil {
		return order.VisitSlot{}, order.Contact{}, errs.Mark(err, errs.ErrInvalidInput)
	}
	contact, err := order.NewContact(cmd.Name, cmd.Email, cmd.Phone)
	if err != nil {
		return order.VisitSlot{}, order.Contact{}, errs.Mark(err, errs.ErrInvalidInput)
	}
	return slot, contact, nil
}

func (e *Engine) findPark(ctx context.Context, id uuid.UUID) (*park.Park, error) {
	p, err := e.parks.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrParkNotFound
		}
		return nil, storageErr(err)
	}
	return p, nil
}

func (e *Engine) loadOrder(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	o, err := e.orders.Load(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrOrderNotFound
		}
		return nil, storageErr(err)
	}
	return o, nil
}

// notify hands the payload to the notification collaborator. Delivery
// failures are logged, not surfaced: the lifecycle transition already
// happened and must not be rolled back over a lost email.
func (e *Engine) notify(ctx context.Context, kind NotificationKind, o *order.Order, deadlineAt *time.Time) {
	n := Notification{
		Kind:            kind,
		OrderID:         o.ID(),
		Recipient:       o.Contact().Email(),
		ParkID:          o.ParkID(),
		VisitTime:       o.Slot().VisitTime(),
		Visitors:        o.Visitors(),
		PayNowCents:     o.PriceCents(),
		AtEntranceCents: o.EntranceCents(),
		Deadline:        deadlineAt,
	}
	if err := e.notifier.Notify(ctx, n); err != nil {
		e.logger.Warn("notification delivery failed",
			slog.String("kind", string(kind)),
			slog.String("order_id", o.ID().String()),
			slog.String("error", err.Error()),
		)
	}
}

func storageErr(err error) error {
	return errs.Mark(err, errs.ErrStorageUnavailable)
}
