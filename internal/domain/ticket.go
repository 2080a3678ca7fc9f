package domain

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"
)

// NewTicketID builds a ticket identifier of the form
// FEL-<unix-millis>-<4 random digits>. The random suffix guards against
// collisions within the same millisecond; the database enforces
// uniqueness regardless.
func NewTicketID(now time.Time) string {
	return fmt.Sprintf("FEL-%d-%04d", now.UnixMilli(), rand.Intn(10000))
}

// TicketPayload is the data encoded into the ticket QR code. Rendering
// the code itself happens client side.
type TicketPayload struct {
	TicketID      string `json:"ticketId"`
	EventID       uint   `json:"eventId"`
	ParticipantID uint   `json:"participantId"`
	Timestamp     int64  `json:"timestamp"`
	Type          string `json:"type"`
}

const ticketPayloadType = "FELICITY_TICKET"

// NewTicketPayload builds the QR payload for an issued ticket.
func NewTicketPayload(ticketID string, eventID, participantID uint, now time.Time) TicketPayload {
	return TicketPayload{
		TicketID:      ticketID,
		EventID:       eventID,
		ParticipantID: participantID,
		Timestamp:     now.UnixMilli(),
		Type:          ticketPayloadType,
	}
}

// Encode serializes the payload to the JSON string stored alongside the
// registration.
func (p TicketPayload) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("json.Marshal -> %w", err)
	}
	return string(b), nil
}

// DecodeTicketPayload parses a scanned QR payload and rejects anything
// that is not a felicity ticket.
func DecodeTicketPayload(raw string) (TicketPayload, error) {
	var p TicketPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return TicketPayload{}, fmt.Errorf("json.Unmarshal -> %w", err)
	}
	if p.Type != ticketPayloadType {
		return TicketPayload{}, fmt.Errorf("unexpected payload type %q", p.Type)
	}
	return p, nil
}
