package commands

import (
	"context"
	"time"

	"parkgate/internal/domain/order"
	"parkgate/internal/domain/park"

	"github.com/google/uuid"
)

// OrderStore is the persistence boundary for orders. Implementations fail
// with an infra.RepositoryError; connectivity loss surfaces as
// KindUnavailable/KindDBFailure.
type OrderStore interface {
	Load(ctx context.Context, id uuid.UUID) (*order.Order, error)
	Save(ctx context.Context, o *order.Order) error
	// ListActive returns every order in a non-terminal status, used to
	// rebuild deadlines and waiting lists after a restart.
	ListActive(ctx context.Context) ([]*order.Order, error)
}

type ParkStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*park.Park, error)
}

type NotificationKind string

const (
	NotifyReminder              NotificationKind = "reminder"
	NotifyConfirmOrCancel       NotificationKind = "confirm_or_cancel"
	NotifyWaitlistOffer         NotificationKind = "waitlist_offer"
	NotifyCancellationConfirmed NotificationKind = "cancellation_confirmed"
)

// Notification is the outbound boundary payload; delivery and formatting
// belong to the collaborator behind Notifier.
type Notification struct {
	Kind            NotificationKind
	OrderID         uuid.UUID
	Recipient       string
	ParkID          uuid.UUID
	VisitTime       time.Time
	Visitors        int
	PayNowCents     int64
	AtEntranceCents int64
	Deadline        *time.Time
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
