package request

import (
	"parkgate/internal/domain/order"
	"parkgate/internal/usecase/commands"

	"github.com/google/uuid"
)

type PlaceOrderRequest struct {
	ParkID    uuid.UUID `json:"park_id" binding:"required"`
	Day       string    `json:"day" binding:"required"`
	Slot      string    `json:"slot" binding:"required"`
	OrderType string    `json:"order_type" binding:"required"`
	Visitors  int       `json:"visitors" binding:"required"`
	Name      string    `json:"name" binding:"required"`
	Email     string    `json:"email" binding:"required"`
	Phone     string    `json:"phone,omitempty"`
	Prepaid   bool      `json:"prepaid,omitempty"`
}

func (r PlaceOrderRequest) ToCommand() commands.PlaceOrderCommand {
	return commands.PlaceOrderCommand{
		ParkID:    r.ParkID,
		Day:       r.Day,
		Slot:      r.Slot,
		OrderType: order.Type(r.OrderType),
		Visitors:  r.Visitors,
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		Prepaid:   r.Prepaid,
	}
}

type ConfirmOrderRequest struct {
	PayNow bool `json:"pay_now,omitempty"`
}
