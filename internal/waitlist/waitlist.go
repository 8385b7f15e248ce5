// Package waitlist keeps the per-slot queues of orders that could not be
// admitted. Queues live in memory and are rebuilt on startup from orders
// whose status is still in_waiting_list.
package waitlist

import (
	"sort"
	"sync"
	"time"

	"parkgate/internal/domain/order"

	"github.com/google/uuid"
)

// Entry is one queued order. Ordering is strictly by enqueue time.
type Entry struct {
	OrderID    uuid.UUID
	Visitors   int
	EnqueuedAt time.Time
}

type Manager struct {
	mu         sync.Mutex
	queues     map[string][]Entry
	strictFIFO bool
}

// New creates a manager. With strictFIFO set, an oversized head entry
// blocks the queue; otherwise the first entry that fits the free capacity
// is promoted and the head keeps its turn for the next release.
func New(strictFIFO bool) *Manager {
	return &Manager{
		queues:     make(map[string][]Entry),
		strictFIFO: strictFIFO,
	}
}

// Enqueue inserts the entry in enqueue-time order. Re-inserting after a
// failed promotion therefore restores the entry's original position.
func (m *Manager) Enqueue(slot order.VisitSlot, e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := slot.Key()
	q := m.queues[key]
	i := sort.Search(len(q), func(i int) bool {
		return q[i].EnqueuedAt.After(e.EnqueuedAt)
	})
	q = append(q, Entry{})
	copy(q[i+1:], q[i:])
	q[i] = e
	m.queues[key] = q
}

// PopFit removes and returns the first entry whose visitor count fits the
// free capacity. Entries ahead of it that do not fit stay where they are.
func (m *Manager) PopFit(slot order.VisitSlot, free int) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := slot.Key()
	q := m.queues[key]
	for i, e := range q {
		if e.Visitors > free {
			if m.strictFIFO {
				return Entry{}, false
			}
			continue
		}
		m.queues[key] = append(q[:i], q[i+1:]...)
		return e, true
	}
	return Entry{}, false
}

// Remove drops the entry for an order that was cancelled or expired while
// still queued.
func (m *Manager) Remove(slot order.VisitSlot, orderID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := slot.Key()
	q := m.queues[key]
	for i, e := range q {
		if e.OrderID == orderID {
			m.queues[key] = append(q[:i], q[i+1:]...)
			return true
		}
	}
	return false
}

func (m *Manager) Len(slot order.VisitSlot) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues[slot.Key()])
}
