package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"ticket-booking/models"
	"ticket-booking/utils"
)

// TicketService issues the purchased units of a paid order: one ticket
// row per unit, each with a globally unique code and a signed redemption
// payload. Issuance is idempotent per (order, ticket type) pair.
type TicketService struct {
	signingKey []byte
}

func NewTicketService(signingKey string) *TicketService {
	return &TicketService{signingKey: []byte(signingKey)}
}

// Issue creates quantity tickets for the order through tx. When tickets
// for this (order, ticket type) pair already exist the existing set is
// returned unchanged, so retried payment outcomes never duplicate units.
// Must run inside the payment-success transaction.
func (s *TicketService) Issue(ctx context.Context, tx Store, orderID, ticketTypeID string, quantity int) ([]models.Ticket, error) {
	existing, err := tx.TicketsByOrderAndType(ctx, orderID, ticketTypeID)
	if err != nil {
		return nil, fmt.Errorf("lookup issued tickets: %w", err)
	}
	if len(existing) > 0 {
		return existing, nil
	}

	tickets := make([]models.Ticket, 0, quantity)
	for i := 0; i < quantity; i++ {
		code, err := utils.GenerateCode(16)
		if err != nil {
			return nil, fmt.Errorf("generate ticket code: %w", err)
		}

		ticket := models.Ticket{
			OrderID:      orderID,
			TicketTypeID: ticketTypeID,
			Code:         code,
			Payload:      s.redemptionPayload(orderID, ticketTypeID, code),
			Status:       models.TicketActive,
		}
		if err := tx.CreateTicket(ctx, &ticket); err != nil {
			return nil, fmt.Errorf("create ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

// redemptionPayload binds order, ticket type, and code together with an
// HMAC so the redemption scanner can verify a ticket offline.
func (s *TicketService) redemptionPayload(orderID, ticketTypeID, code string) string {
	mac := hmac.New(sha256.New, s.signingKey)
	fmt.Fprintf(mac, "%s|%s|%s", orderID, ticketTypeID, code)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPayload checks a redemption payload against its ticket fields.
func (s *TicketService) VerifyPayload(orderID, ticketTypeID, code, payload string) bool {
	expected := s.redemptionPayload(orderID, ticketTypeID, code)
	return hmac.Equal([]byte(expected), []byte(payload))
}
