package response

import (
	"parkgate/internal/usecase/commands"
	"parkgate/internal/usecase/queries"

	"github.com/google/uuid"
)

type PlaceOrderResponse struct {
	Outcome         string    `json:"outcome"`
	OrderID         uuid.UUID `json:"orderId"`
	Status          string    `json:"status"`
	PayNowCents     int64     `json:"payNowCents"`
	AtEntranceCents int64     `json:"atEntranceCents"`
}

func FromPlaceOrderResult(r *commands.PlaceOrderResult) *PlaceOrderResponse {
	return &PlaceOrderResponse{
		Outcome:         string(r.Outcome),
		OrderID:         r.OrderID,
		Status:          r.Status.String(),
		PayNowCents:     r.Quote.PayNowCents,
		AtEntranceCents: r.Quote.AtEntranceCents,
	}
}

type OrderResponse = queries.OrderView

type AvailabilityResponse = queries.AvailabilityView
