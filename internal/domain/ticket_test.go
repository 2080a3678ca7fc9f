package domain

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTicketID(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	id := NewTicketID(now)

	assert.Regexp(t, regexp.MustCompile(`^FEL-1772359200000-\d{4}$`), id)
}

func TestTicketPayload_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	payload := NewTicketPayload("FEL-1-0001", 42, 7, now)

	encoded, err := payload.Encode()
	require.NoError(t, err)
	assert.Contains(t, encoded, `"type":"FELICITY_TICKET"`)

	decoded, err := DecodeTicketPayload(encoded)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestDecodeTicketPayload(t *testing.T) {
	t.Run("rejects malformed JSON", func(t *testing.T) {
		_, err := DecodeTicketPayload("not-json")

		assert.Error(t, err)
	})

	t.Run("rejects foreign payloads", func(t *testing.T) {
		_, err := DecodeTicketPayload(`{"ticketId":"x","type":"SOMETHING_ELSE"}`)

		assert.Error(t, err)
	})
}

func TestRegistration_Confirm(t *testing.T) {
	reg := Registration{Status: RegistrationPending}

	require.NoError(t, reg.Confirm("FEL-1-0001", `{"type":"FELICITY_TICKET"}`))
	assert.Equal(t, RegistrationConfirmed, reg.Status)
	assert.Equal(t, "FEL-1-0001", reg.TicketID)

	err := reg.Confirm("FEL-1-0002", "")
	assert.ErrorIs(t, err, ErrTicketAlreadyIssued)
	assert.Equal(t, "FEL-1-0001", reg.TicketID, "first ticket sticks")
}

func TestRegistration_MarkAttendance(t *testing.T) {
	now := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	reg := Registration{Status: RegistrationConfirmed}

	require.NoError(t, reg.MarkAttendance(now, 9))
	assert.True(t, reg.Attendance.Marked)
	assert.Equal(t, now, *reg.Attendance.MarkedAt)
	assert.Equal(t, uint(9), reg.Attendance.MarkedBy)

	err := reg.MarkAttendance(now.Add(time.Minute), 9)
	assert.ErrorIs(t, err, ErrAttendanceAlreadyMarked)
	assert.Equal(t, now, *reg.Attendance.MarkedAt, "original mark time preserved")
}

func TestPaymentStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, PaymentPending.CanTransitionTo(PaymentApproved))
	assert.True(t, PaymentPending.CanTransitionTo(PaymentRejected))
	assert.False(t, PaymentApproved.CanTransitionTo(PaymentRejected))
	assert.False(t, PaymentRejected.CanTransitionTo(PaymentApproved))
	assert.False(t, PaymentNotRequired.CanTransitionTo(PaymentApproved))
}
