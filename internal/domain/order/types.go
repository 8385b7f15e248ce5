package order

// Status is the externally visible lifecycle state of an order. Every
// mutation goes through Order.Transition, which consults AllowedTransitions;
// there is no other way to move an order between states.
type Status string

const (
	StatusWaitNotify          Status = "wait_notify"
	StatusNotified            Status = "notified"
	StatusConfirmed           Status = "confirmed"
	StatusInPark              Status = "in_park"
	StatusCompleted           Status = "completed"
	StatusCancelled           Status = "cancelled"
	StatusTimePassed          Status = "time_passed"
	StatusInWaitingList       Status = "in_waiting_list"
	StatusNotifiedWaitingList Status = "notified_waiting_list"
	StatusIrrelevant          Status = "irrelevant"
	StatusOccasional          Status = "occasional"
)

func (s Status) String() string {
	return string(s)
}

// AllowedTransitions encodes the lifecycle as data, one entry per source
// state. Terminal states map to an empty slice.
var AllowedTransitions = map[Status][]Status{
	StatusWaitNotify:          {StatusNotified, StatusCancelled, StatusTimePassed},
	StatusNotified:            {StatusConfirmed, StatusCancelled, StatusTimePassed},
	StatusConfirmed:           {StatusInPark, StatusCancelled, StatusTimePassed},
	StatusInPark:              {StatusCompleted},
	StatusInWaitingList:       {StatusNotifiedWaitingList, StatusCancelled, StatusTimePassed, StatusIrrelevant},
	StatusNotifiedWaitingList: {StatusConfirmed, StatusCancelled, StatusIrrelevant, StatusTimePassed},
	StatusOccasional:          {StatusInPark},
	StatusCompleted:           {},
	StatusCancelled:           {},
	StatusTimePassed:          {},
	StatusIrrelevant:          {},
}

func CanTransition(from, to Status) bool {
	for _, next := range AllowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	next, ok := AllowedTransitions[s]
	return ok && len(next) == 0
}

func (s Status) IsValid() bool {
	_, ok := AllowedTransitions[s]
	return ok
}

// HoldsReservation reports whether an order in this state counts against
// the slot's reserved capacity. Queued orders never reserved anything;
// promoted waiting-list orders hold their spot through the offer window.
func (s Status) HoldsReservation() bool {
	switch s {
	case StatusWaitNotify, StatusNotified, StatusConfirmed, StatusNotifiedWaitingList:
		return true
	default:
		return false
	}
}

// Type combines party kind and booking mode.
type Type string

const (
	TypeSoloPreorder     Type = "solo_preorder"
	TypeFamilyPreorder   Type = "family_preorder"
	TypeGroupPreorder    Type = "group_preorder"
	TypeSoloOccasional   Type = "solo_occasional"
	TypeFamilyOccasional Type = "family_occasional"
	TypeGroupOccasional  Type = "group_occasional"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case TypeSoloPreorder, TypeFamilyPreorder, TypeGroupPreorder,
		TypeSoloOccasional, TypeFamilyOccasional, TypeGroupOccasional:
		return true
	default:
		return false
	}
}

func (t Type) IsPreorder() bool {
	switch t {
	case TypeSoloPreorder, TypeFamilyPreorder, TypeGroupPreorder:
		return true
	default:
		return false
	}
}

func (t Type) IsGroup() bool {
	return t == TypeGroupPreorder || t == TypeGroupOccasional
}
