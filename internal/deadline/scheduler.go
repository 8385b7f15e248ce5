// Package deadline tracks per-order expiring deadlines on a min-heap and
// fires lifecycle transitions through the same entry point user commands
// use. The heap is rebuilt from stored order state on startup, so a
// restart never silently drops a pending cancellation or promotion.
package deadline

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"
	"time"

	"parkgate/internal/pkg/clock"

	"github.com/google/uuid"
)

type Kind string

const (
	// KindReminder fires 24h before the visit: wait_notify -> notified.
	KindReminder Kind = "reminder"
	// KindConfirm ends the 2h confirmation window: notified -> cancelled.
	KindConfirm Kind = "confirm_window"
	// KindOffer ends the 1h waiting-list offer window:
	// notified_waiting_list -> irrelevant.
	KindOffer Kind = "offer_window"
	// KindVisit fires at visit time: any unconsummated state -> time_passed.
	KindVisit Kind = "visit_time"
)

// Handler applies the expiry transition. It must treat a stale expiry (the
// user acted first) as a no-op, which is how a cancel racing with the
// firing wins the tie.
type Handler interface {
	HandleExpiry(ctx context.Context, orderID uuid.UUID, kind Kind) error
}

type entry struct {
	orderID   uuid.UUID
	kind      Kind
	fireAt    time.Time
	attempt   int
	cancelled bool
	index     int
}

type entryHeap []*entry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].fireAt.Before(h[j].fireAt) }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *entryHeap) Push(x any)         { e := x.(*entry); e.index = len(*h); *h = append(*h, e) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

type Scheduler struct {
	clock     clock.Clock
	handler   Handler
	logger    *slog.Logger
	retryBase time.Duration
	retryMax  int

	mu    sync.Mutex
	heap  entryHeap
	index map[string]*entry
	wake  chan struct{}
}

func New(clk clock.Clock, handler Handler, logger *slog.Logger, retryBase time.Duration, retryMax int) *Scheduler {
	s := &Scheduler{
		clock:     clk,
		handler:   handler,
		logger:    logger,
		retryBase: retryBase,
		retryMax:  retryMax,
		index:     make(map[string]*entry),
		wake:      make(chan struct{}, 1),
	}
	heap.Init(&s.heap)
	return s
}

func key(orderID uuid.UUID, kind Kind) string {
	return orderID.String() + "|" + string(kind)
}

// Schedule registers (or replaces) the deadline for (orderID, kind).
func (s *Scheduler) Schedule(orderID uuid.UUID, kind Kind, fireAt time.Time) {
	s.push(orderID, kind, fireAt, 0)
}

func (s *Scheduler) push(orderID uuid.UUID, kind Kind, fireAt time.Time, attempt int) {
	s.mu.Lock()
	k := key(orderID, kind)
	if old, ok := s.index[k]; ok {
		old.cancelled = true
		delete(s.index, k)
	}
	e := &entry{orderID: orderID, kind: kind, fireAt: fireAt, attempt: attempt}
	heap.Push(&s.heap, e)
	s.index[k] = e
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Cancel withdraws a pending deadline. A cancel that races with the firing
// wins: the fired handler finds the order already transitioned and no-ops.
func (s *Scheduler) Cancel(orderID uuid.UUID, kind Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(orderID, kind)
	if e, ok := s.index[k]; ok {
		e.cancelled = true
		delete(s.index, k)
	}
}

// CancelAll withdraws every pending deadline for the order.
func (s *Scheduler) CancelAll(orderID uuid.UUID) {
	for _, kind := range []Kind{KindReminder, KindConfirm, KindOffer, KindVisit} {
		s.Cancel(orderID, kind)
	}
}

// Pending reports whether a deadline is registered for (orderID, kind).
func (s *Scheduler) Pending(orderID uuid.UUID, kind Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[key(orderID, kind)]
	return ok
}

// Run drives the heap until ctx is done. Intended for an fx OnStart
// goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		e, wait := s.next()
		if e != nil {
			s.dispatch(ctx, e)
			continue
		}

		var timer <-chan time.Time
		if wait > 0 {
			timer = time.After(wait)
		}
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		case <-timer:
		}
	}
}

// FireDue pops and dispatches every entry due at the clock's current time.
// Returns the number fired. Run uses the same path; tests drive it
// directly with a fake clock.
func (s *Scheduler) FireDue(ctx context.Context) int {
	fired := 0
	for {
		e, _ := s.next()
		if e == nil {
			return fired
		}
		s.dispatch(ctx, e)
		fired++
	}
}

// next pops the earliest due entry, discarding cancelled ones. When
// nothing is due it returns the wait until the next fire (zero means the
// heap is empty: block on wake).
func (s *Scheduler) next() (*entry, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	for s.heap.Len() > 0 {
		head := s.heap[0]
		if head.cancelled {
			heap.Pop(&s.heap)
			continue
		}
		if head.fireAt.After(now) {
			return nil, head.fireAt.Sub(now)
		}
		heap.Pop(&s.heap)
		delete(s.index, key(head.orderID, head.kind))
		return head, 0
	}
	return nil, 0
}

// dispatch applies the expiry. A failed fire goes straight back on the
// heap with exponential backoff capped at retryBase<<retryMax, so one
// order's retries never hold up the rest of the queue. A deadline
// transition is never dropped: a missed automatic cancellation or
// promotion would leak capacity.
func (s *Scheduler) dispatch(ctx context.Context, e *entry) {
	err := s.handler.HandleExpiry(ctx, e.orderID, e.kind)
	if err == nil {
		return
	}

	shift := e.attempt
	if shift > s.retryMax {
		shift = s.retryMax
	}
	retryAt := s.clock.Now().Add(s.retryBase << shift)
	s.logger.Error("deadline expiry failed, rescheduling",
		slog.String("order_id", e.orderID.String()),
		slog.String("kind", string(e.kind)),
		slog.Int("attempt", e.attempt+1),
		slog.Time("retry_at", retryAt),
		slog.String("error", err.Error()),
	)
	s.push(e.orderID, e.kind, retryAt, e.attempt+1)
}
