// Package pricing computes order prices from the fixed park discount table.
// It is a pure function of the order attributes: no state, no I/O.
package pricing

import (
	"parkgate/internal/domain/order"
	"parkgate/internal/pkg/errs"
)

// Fixed discount multipliers, expressed in percent to keep the arithmetic
// in integers.
const (
	preorderPct      = 85  // solo/family preorder
	occasionalPct    = 100 // solo/family occasional
	groupPreorderPct = 75  // group preorder, guide exempt
	prepaidPct       = 88  // stacked on group preorder when prepaid
	groupWalkInPct   = 90  // group occasional, guide pays
)

// Quote is the result of pricing one order. For group preorders PayNowCents
// carries the prepaid price and AtEntranceCents the pay-at-the-gate price,
// so the caller can present the choice; for every other type the two are
// equal.
type Quote struct {
	PayNowCents     int64
	AtEntranceCents int64
}

// Price applies the discount table to an order. basePriceCents is the
// park's per-visitor base price. Fails only on a non-positive visitor count
// or an unknown order type.
func Price(typ order.Type, visitors int, basePriceCents int64, prepaid bool) (Quote, error) {
	if visitors <= 0 {
		return Quote{}, errs.Mark(order.ErrInvalidVisitors, errs.ErrInvalidInput)
	}

	gross := basePriceCents * int64(visitors)

	switch typ {
	case order.TypeSoloPreorder, order.TypeFamilyPreorder:
		p := pct(gross, preorderPct)
		return Quote{PayNowCents: p, AtEntranceCents: p}, nil

	case order.TypeSoloOccasional, order.TypeFamilyOccasional:
		p := pct(gross, occasionalPct)
		return Quote{PayNowCents: p, AtEntranceCents: p}, nil

	case order.TypeGroupPreorder:
		atEntrance := pct(gross, groupPreorderPct)
		payNow := atEntrance
		if prepaid {
			payNow = pct(atEntrance, prepaidPct)
		}
		return Quote{PayNowCents: payNow, AtEntranceCents: atEntrance}, nil

	case order.TypeGroupOccasional:
		p := pct(gross, groupWalkInPct)
		return Quote{PayNowCents: p, AtEntranceCents: p}, nil

	default:
		return Quote{}, errs.Mark(order.ErrInvalidOrderType, errs.ErrInvalidInput)
	}
}

func pct(amount int64, percent int64) int64 {
	return amount * percent / 100
}
