package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"

	"ticket-wallet/security"
	"ticket-wallet/services"
)

type TicketHandler struct {
	ticketService *services.TicketService
	scheduler     *services.RotationScheduler
}

func NewTicketHandler(ticketService *services.TicketService, scheduler *services.RotationScheduler) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
		scheduler:     scheduler,
	}
}

// GetEvents returns the static event catalog.
func (h *TicketHandler) GetEvents(c echo.Context) error {
	return c.JSON(http.StatusOK, h.ticketService.Events(c.Request().Context()))
}

// GetTicketTypes returns the purchasable ticket types.
func (h *TicketHandler) GetTicketTypes(c echo.Context) error {
	return c.JSON(http.StatusOK, h.ticketService.TicketTypes(c.Request().Context()))
}

// GetTicketHistory returns the caller's tickets, newest QR first.
func (h *TicketHandler) GetTicketHistory(c echo.Context) error {
	tickets, err := h.ticketService.ListTicketsForUser(c.Request().Context(), security.UserID(c))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, tickets)
}

// PurchaseTicket issues a ticket once the (simulated) payment flow has
// signalled acceptance.
func (h *TicketHandler) PurchaseTicket(c echo.Context) error {
	var req struct {
		EventID      string `json:"event_id"`
		AttendeeName string `json:"attendee_name"`
		TicketType   string `json:"ticket_type"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	ticket, err := h.ticketService.Purchase(c.Request().Context(), security.UserID(c), req.EventID, req.AttendeeName, req.TicketType)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, ticket)
}

// RotateQR manually refreshes the ticket's QR value.
func (h *TicketHandler) RotateQR(c echo.Context) error {
	var req struct {
		TicketID string `json:"ticket_id"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	ticket, err := h.ticketService.RotateQR(c.Request().Context(), req.TicketID, security.UserID(c))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, ticket)
}

// InitiateTransfer issues (or re-returns) the ticket's transfer code.
func (h *TicketHandler) InitiateTransfer(c echo.Context) error {
	var req struct {
		TicketID string `json:"ticket_id"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	code, err := h.ticketService.InitiateTransfer(c.Request().Context(), req.TicketID, security.UserID(c))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"transfer_code": code})
}

// CancelTransfer withdraws a pending transfer.
func (h *TicketHandler) CancelTransfer(c echo.Context) error {
	var req struct {
		TicketID string `json:"ticket_id"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	ticket, err := h.ticketService.CancelTransfer(c.Request().Context(), req.TicketID, security.UserID(c))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, ticket)
}

// RedeemTransfer consumes a transfer code and hands the ticket to the
// caller.
func (h *TicketHandler) RedeemTransfer(c echo.Context) error {
	var req struct {
		Code string `json:"code"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	ticket, err := h.ticketService.RedeemTransfer(c.Request().Context(), req.Code, security.UserID(c))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, ticket)
}

// WatchTicket marks a ticket as displayed, arming its scheduled QR
// rotation.
func (h *TicketHandler) WatchTicket(c echo.Context) error {
	var req struct {
		TicketID string `json:"ticket_id"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	if err := h.scheduler.Subscribe(req.TicketID, security.UserID(c), nil, nil); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Watching ticket"})
}

// UnwatchTicket cancels the scheduled rotation when the display is torn
// down.
func (h *TicketHandler) UnwatchTicket(c echo.Context) error {
	var req struct {
		TicketID string `json:"ticket_id"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	h.scheduler.Unsubscribe(req.TicketID)
	return c.NoContent(http.StatusNoContent)
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func writeServiceError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrInvalidOrUsedCode),
		errors.Is(err, services.ErrUnknownUser):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrNoPendingTransfer),
		errors.Is(err, services.ErrSelfRedemption):
		status = http.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}
