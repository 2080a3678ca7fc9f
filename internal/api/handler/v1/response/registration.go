package response

import (
	"time"

	"github.com/felicity-events/felicity-api/internal/domain"
)

type TicketResponse struct {
	TicketID  string                    `json:"ticket_id"`
	QRPayload string                    `json:"qr_payload"`
	EventID   uint                      `json:"event_id"`
	Status    domain.RegistrationStatus `json:"status"`
}

type CheckInResponse struct {
	Message      string              `json:"message"`
	Registration domain.Registration `json:"registration"`
}

// AlreadyMarkedResponse reports a duplicate scan with the original mark
// time so the gate staff can see when the ticket was first used.
type AlreadyMarkedResponse struct {
	Message  string     `json:"message"`
	MarkedAt *time.Time `json:"marked_at,omitempty"`
}
