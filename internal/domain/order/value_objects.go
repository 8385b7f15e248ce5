package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	dayLayout  = "2006-01-02"
	slotLayout = "15:04"
)

// VisitSlot identifies one capacity bucket: a park, a calendar day and a
// time-of-day slot. It doubles as the ledger and waiting-list key.
type VisitSlot struct {
	parkID uuid.UUID
	day    string
	start  string
}

func NewVisitSlot(parkID uuid.UUID, day, start string) (VisitSlot, error) {
	if parkID == uuid.Nil {
		return VisitSlot{}, errors.New("park id is required")
	}
	if _, err := time.Parse(dayLayout, day); err != nil {
		return VisitSlot{}, fmt.Errorf("invalid visit day %q: %w", day, err)
	}
	if _, err := time.Parse(slotLayout, start); err != nil {
		return VisitSlot{}, fmt.Errorf("invalid time slot %q: %w", start, err)
	}
	return VisitSlot{parkID: parkID, day: day, start: start}, nil
}

func (v VisitSlot) ParkID() uuid.UUID { return v.parkID }
func (v VisitSlot) Day() string       { return v.day }
func (v VisitSlot) Start() string     { return v.start }

func (v VisitSlot) Key() string {
	return v.parkID.String() + "|" + v.day + "|" + v.start
}

// VisitTime is the slot's opening instant in UTC.
func (v VisitSlot) VisitTime() time.Time {
	t, _ := time.Parse(dayLayout+" "+slotLayout, v.day+" "+v.start)
	return t
}

func (v VisitSlot) IsPast(now time.Time) bool {
	return !now.Before(v.VisitTime())
}

func (v VisitSlot) IsZero() bool {
	return v.parkID == uuid.Nil
}

// Contact is where lifecycle notifications for the order are sent.
type Contact struct {
	name  string
	email string
	phone string
}

func NewContact(name, email, phone string) (Contact, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return Contact{}, errors.New("contact name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return Contact{}, fmt.Errorf("invalid contact email %q", email)
	}
	return Contact{name: name, email: email, phone: strings.TrimSpace(phone)}, nil
}

func (c Contact) Name() string  { return c.name }
func (c Contact) Email() string { return c.email }
func (c Contact) Phone() string { return c.phone }
