package api

import (
	"errors"
	"net/http"

	reqdto "parkgate/internal/handler/dto/request"
	resdto "parkgate/internal/handler/dto/response"
	"parkgate/internal/handler/httperr"
	"parkgate/internal/pkg/errs"
	"parkgate/internal/usecase/commands"
	"parkgate/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrderHandler struct {
	commands commands.OrderCommands
	queries  queries.OrderQueries
}

func NewOrderHandler(cmds commands.OrderCommands, qrys queries.OrderQueries) *OrderHandler {
	return &OrderHandler{
		commands: cmds,
		queries:  qrys,
	}
}

func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req reqdto.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format")
		return
	}

	result, err := h.commands.PlaceOrder(c.Request.Context(), req.ToCommand())
	if err != nil {
		h.writeCommandError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Outcome == commands.OutcomeRejected {
		// Rejection is an answer, not a server failure.
		status = http.StatusConflict
	}
	c.JSON(status, resdto.FromPlaceOrderResult(result))
}

func (h *OrderHandler) PlaceWalkIn(c *gin.Context) {
	var req reqdto.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format")
		return
	}

	result, err := h.commands.PlaceWalkIn(c.Request.Context(), req.ToCommand())
	if err != nil {
		h.writeCommandError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Outcome == commands.OutcomeRejected {
		status = http.StatusConflict
	}
	c.JSON(status, resdto.FromPlaceOrderResult(result))
}

func (h *OrderHandler) ConfirmOrder(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}

	var req reqdto.ConfirmOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format")
		return
	}

	if err := h.commands.ConfirmOrder(c.Request.Context(), commands.ConfirmOrderCommand{
		OrderID: id,
		PayNow:  req.PayNow,
	}); err != nil {
		h.writeCommandError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}

	if err := h.commands.CancelOrder(c.Request.Context(), id); err != nil {
		h.writeCommandError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *OrderHandler) CheckIn(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}

	if err := h.commands.CheckIn(c.Request.Context(), id); err != nil {
		h.writeCommandError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *OrderHandler) CheckOut(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}

	if err := h.commands.CheckOut(c.Request.Context(), id); err != nil {
		h.writeCommandError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}

	view, err := h.queries.GetByID(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrOrderNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Order not found")
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		}
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *OrderHandler) GetAvailability(c *gin.Context) {
	parkID, err := uuid.Parse(c.Param("parkId"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid park ID format")
		return
	}

	day := c.Query("day")
	slot := c.Query("slot")
	if day == "" || slot == "" {
		httperr.AbortWithError(c, http.StatusBadRequest, errs.ErrInvalidInput, "day and slot query parameters are required")
		return
	}

	view, err := h.queries.Availability(c.Request.Context(), parkID, day, slot)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrInvalidInput):
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid day or slot format")
		case errors.Is(err, errs.ErrParkNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Park not found")
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		}
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *OrderHandler) GetParkOrders(c *gin.Context) {
	parkID, err := uuid.Parse(c.Param("parkId"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid park ID format")
		return
	}

	views, err := h.queries.ListByPark(c.Request.Context(), parkID)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *OrderHandler) orderID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid order ID format")
		return uuid.Nil, false
	}
	return id, true
}

func (h *OrderHandler) writeCommandError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid order data")
	case errors.Is(err, errs.ErrOrderNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Order not found")
	case errors.Is(err, errs.ErrParkNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Park not found")
	case errors.Is(err, errs.ErrInvalidTransition):
		httperr.AbortWithError(c, http.StatusConflict, err, "Order is not in a state that allows this operation")
	case errors.Is(err, errs.ErrCapacityRejected):
		httperr.AbortWithError(c, http.StatusConflict, err, "No capacity for the requested slot")
	case errors.Is(err, errs.ErrStorageUnavailable):
		httperr.AbortWithError(c, http.StatusServiceUnavailable, err, "Service temporarily unavailable")
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
	}
}
