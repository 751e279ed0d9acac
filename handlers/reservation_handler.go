package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"ticket-booking/services"
)

type ReservationHandler struct {
	reservations *services.ReservationService
}

func NewReservationHandler(reservations *services.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations}
}

// Reserve places a hold against ticket-type capacity.
func (h *ReservationHandler) Reserve(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		TicketTypeID string `json:"ticket_type_id"`
		Quantity     int    `json:"quantity"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	reservation, err := h.reservations.Reserve(e.Request.Context(), e.Auth.Id, req.TicketTypeID, req.Quantity)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusCreated, reservation)
}

// Cancel releases an active hold back to the ledger.
func (h *ReservationHandler) Cancel(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	reservationID := e.Request.PathValue("id")
	if err := h.reservations.Cancel(e.Request.Context(), reservationID, e.Auth.Id); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]string{"status": "cancelled"})
}

// Get returns one hold for its owner.
func (h *ReservationHandler) Get(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	reservation, err := h.reservations.Get(e.Request.Context(), e.Request.PathValue("id"))
	if err != nil {
		return apiError(err)
	}
	if reservation.UserID != e.Auth.Id {
		return apis.NewForbiddenError("Access denied", nil)
	}

	return e.JSON(http.StatusOK, reservation)
}

// History lists the caller's recent holds.
func (h *ReservationHandler) History(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	reservations, err := h.reservations.History(e.Request.Context(), e.Auth.Id, 20)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, reservations)
}

// Availability reports remaining sellable capacity for a ticket type.
func (h *ReservationHandler) Availability(e *core.RequestEvent) error {
	ticketTypeID := e.Request.PathValue("ticketTypeId")

	remaining, err := h.reservations.Availability(e.Request.Context(), ticketTypeID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"ticket_type_id": ticketTypeID,
		"remaining":      remaining,
	})
}
