package domain

import (
	"errors"
	"time"
)

var (
	ErrAttendanceAlreadyMarked  = errors.New("attendance already marked")
	ErrTicketAlreadyIssued      = errors.New("ticket already issued")
	ErrInvalidPaymentTransition = errors.New("invalid payment status transition")
)

type RegistrationStatus string

const (
	RegistrationConfirmed RegistrationStatus = "CONFIRMED"
	RegistrationPending   RegistrationStatus = "PENDING"
	RegistrationRejected  RegistrationStatus = "REJECTED"
	RegistrationCancelled RegistrationStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentNotRequired PaymentStatus = "NOT_REQUIRED"
	PaymentPending     PaymentStatus = "PENDING"
	PaymentApproved    PaymentStatus = "APPROVED"
	PaymentRejected    PaymentStatus = "REJECTED"
)

// CanTransitionTo encodes the one-way payment lifecycle: PENDING may move
// to APPROVED or REJECTED, nothing else moves.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return s == PaymentPending && (next == PaymentApproved || next == PaymentRejected)
}

// MerchandiseOrder is the purchase attached to a merchandise registration.
type MerchandiseOrder struct {
	ItemID    uint    `json:"item_id"`
	ItemName  string  `json:"item_name"`
	Size      string  `json:"size,omitempty"`
	Color     string  `json:"color,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
}

type Attendance struct {
	Marked   bool       `json:"marked"`
	MarkedAt *time.Time `json:"marked_at,omitempty"`
	MarkedBy uint       `json:"marked_by,omitempty"`
}

type Registration struct {
	ID              uint               `json:"id"`
	EventID         uint               `json:"event_id"`
	ParticipantID   uint               `json:"participant_id"`
	Status          RegistrationStatus `json:"status"`
	PaymentStatus   PaymentStatus      `json:"payment_status"`
	PaymentProofURL string             `json:"payment_proof_url,omitempty"`
	RejectionReason string             `json:"rejection_reason,omitempty"`
	FormResponses   map[string]string  `json:"form_responses,omitempty"`
	Order           *MerchandiseOrder  `json:"order,omitempty"`
	TicketID        string             `json:"ticket_id,omitempty"`
	QRPayload       string             `json:"qr_payload,omitempty"`
	Attendance      Attendance         `json:"attendance"`
	RegisteredAt    time.Time          `json:"registered_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// Confirm marks the registration CONFIRMED and attaches the ticket. A
// ticket is assigned exactly once.
func (r *Registration) Confirm(ticketID, qrPayload string) error {
	if r.TicketID != "" {
		return ErrTicketAlreadyIssued
	}
	r.Status = RegistrationConfirmed
	r.TicketID = ticketID
	r.QRPayload = qrPayload
	return nil
}

// MarkAttendance records check-in. Marking twice fails and the caller can
// report the original mark time from the struct.
func (r *Registration) MarkAttendance(now time.Time, organizerID uint) error {
	if r.Attendance.Marked {
		return ErrAttendanceAlreadyMarked
	}
	r.Attendance = Attendance{Marked: true, MarkedAt: &now, MarkedBy: organizerID}
	return nil
}
