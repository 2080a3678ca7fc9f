package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrAlreadyRegistered    = errors.New("participant already registered for event")
	ErrTicketIDTaken        = errors.New("ticket id already assigned")
	ErrPaymentNotPending    = errors.New("payment is not pending")
	ErrAttendanceMarked     = errors.New("attendance already marked")
)

type Registration struct {
	ID uint `gorm:"primaryKey"`

	EventID       uint `gorm:"not null;uniqueIndex:uni_registrations_event_participant"`
	ParticipantID uint `gorm:"not null;uniqueIndex:uni_registrations_event_participant;index"`

	Status        string `gorm:"not null"` // "CONFIRMED", "PENDING", "REJECTED"
	PaymentStatus string `gorm:"not null"` // "NOT_REQUIRED", "PENDING", "APPROVED", "REJECTED"

	PaymentProofURL string
	RejectionReason string

	FormResponses map[string]string `gorm:"serializer:json"`
	Order         *OrderInfo        `gorm:"serializer:json"`

	TicketID  *string `gorm:"uniqueIndex:uni_registrations_ticket_id"`
	QRPayload string

	AttendanceMarked   bool `gorm:"not null;default:false"`
	AttendanceMarkedAt *time.Time
	AttendanceMarkedBy uint

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// OrderInfo is the merchandise purchase stored as a JSON column on the
// registration row.
type OrderInfo struct {
	ItemID    uint    `json:"item_id"`
	ItemName  string  `json:"item_name"`
	Size      string  `json:"size,omitempty"`
	Color     string  `json:"color,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
}

type RegistrationDAO struct {
	db *gorm.DB
}

func NewRegistrationDAO(db *gorm.DB) *RegistrationDAO {
	return &RegistrationDAO{
		db: db,
	}
}

func mapRegistrationInsertErr(err error) error {
	if isUniqueViolation(err, `unique constraint "uni_registrations_event_participant"`) {
		return ErrAlreadyRegistered
	}
	if isUniqueViolation(err, `unique constraint "uni_registrations_ticket_id"`) {
		return ErrTicketIDTaken
	}
	return err
}

// InsertConfirmed creates a normal-event registration: the capacity
// counter, the form lock and the row land in one transaction so the
// limit can never be oversubscribed.
func (d *RegistrationDAO) InsertConfirmed(ctx context.Context, registration Registration) (Registration, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := incrementRegistrations(tx, registration.EventID); err != nil {
			return err
		}
		if err := lockForm(tx, registration.EventID); err != nil {
			return err
		}
		if err := tx.Create(&registration).Error; err != nil {
			return mapRegistrationInsertErr(err)
		}

		return nil
	})
	if err != nil {
		return Registration{}, err
	}

	return registration, nil
}

// InsertPending creates a merchandise order awaiting payment approval.
// Stock and the capacity counter stay untouched until approval.
func (d *RegistrationDAO) InsertPending(ctx context.Context, registration Registration) (Registration, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForm(tx, registration.EventID); err != nil {
			return err
		}
		if err := tx.Create(&registration).Error; err != nil {
			return mapRegistrationInsertErr(err)
		}

		return nil
	})
	if err != nil {
		return Registration{}, err
	}

	return registration, nil
}

func (d *RegistrationDAO) FindByID(ctx context.Context, id uint) (Registration, error) {
	var registration Registration

	result := d.db.WithContext(ctx).First(&registration, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Registration{}, ErrRegistrationNotFound
		}

		return Registration{}, result.Error
	}

	return registration, nil
}

func (d *RegistrationDAO) FindByEventAndParticipant(ctx context.Context, eventID, participantID uint) (Registration, error) {
	var registration Registration

	result := d.db.WithContext(ctx).
		First(&registration, "event_id = ? AND participant_id = ?", eventID, participantID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Registration{}, ErrRegistrationNotFound
		}

		return Registration{}, result.Error
	}

	return registration, nil
}

func (d *RegistrationDAO) FindByParticipant(ctx context.Context, participantID uint) ([]Registration, error) {
	var registrations []Registration

	result := d.db.WithContext(ctx).
		Where("participant_id = ?", participantID).
		Order("created_at DESC").
		Find(&registrations)
	if result.Error != nil {
		return nil, result.Error
	}

	return registrations, nil
}

func (d *RegistrationDAO) FindByEvent(ctx context.Context, eventID uint) ([]Registration, error) {
	var registrations []Registration

	result := d.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at").
		Find(&registrations)
	if result.Error != nil {
		return nil, result.Error
	}

	return registrations, nil
}

// UpdatePaymentProof attaches or replaces the proof while the payment is
// still pending. Re-upload before a decision is allowed.
func (d *RegistrationDAO) UpdatePaymentProof(ctx context.Context, id uint, proofURL string) error {
	result := d.db.WithContext(ctx).
		Model(&Registration{}).
		Where("id = ? AND payment_status = ?", id, "PENDING").
		Update("payment_proof_url", proofURL)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPaymentNotPending
	}

	return nil
}

// SettlePayment flips a pending payment to its final status without
// touching stock or tickets. Used for flat-fee registrations where the
// ticket was issued up front.
func (d *RegistrationDAO) SettlePayment(ctx context.Context, id uint, status string) error {
	result := d.db.WithContext(ctx).
		Model(&Registration{}).
		Where("id = ? AND payment_status = ?", id, "PENDING").
		Update("payment_status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPaymentNotPending
	}

	return nil
}

// ApproveOrder settles a merchandise payment: stock is re-checked and
// decremented, the capacity counter bumped and the registration
// confirmed with its ticket, all in one transaction. The pending-status
// predicate keeps a concurrent reject from racing the approval.
func (d *RegistrationDAO) ApproveOrder(ctx context.Context, id, itemID uint, quantity int, ticketID, qrPayload string) (Registration, error) {
	var registration Registration

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := decrementStock(tx, itemID, quantity); err != nil {
			return err
		}

		var eventID uint
		if err := tx.Model(&Registration{}).Where("id = ?", id).Pluck("event_id", &eventID).Error; err != nil {
			return err
		}
		if eventID == 0 {
			return ErrRegistrationNotFound
		}

		if err := incrementRegistrations(tx, eventID); err != nil {
			return err
		}

		result := tx.Model(&Registration{}).
			Where("id = ? AND payment_status = ?", id, "PENDING").
			Updates(map[string]interface{}{
				"status":         "CONFIRMED",
				"payment_status": "APPROVED",
				"ticket_id":      ticketID,
				"qr_payload":     qrPayload,
			})
		if result.Error != nil {
			return mapRegistrationInsertErr(result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrPaymentNotPending
		}

		return tx.First(&registration, id).Error
	})
	if err != nil {
		return Registration{}, err
	}

	return registration, nil
}

// RejectOrder declines a pending payment with a reason. One-way, like
// approval.
func (d *RegistrationDAO) RejectOrder(ctx context.Context, id uint, reason string) (Registration, error) {
	var registration Registration

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Registration{}).
			Where("id = ? AND payment_status = ?", id, "PENDING").
			Updates(map[string]interface{}{
				"status":           "REJECTED",
				"payment_status":   "REJECTED",
				"rejection_reason": reason,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPaymentNotPending
		}

		return tx.First(&registration, id).Error
	})
	if err != nil {
		return Registration{}, err
	}

	return registration, nil
}

// MarkAttendance flips the flag only if it is still unset, so two
// concurrent scans produce exactly one mark.
func (d *RegistrationDAO) MarkAttendance(ctx context.Context, id, organizerID uint, at time.Time) error {
	result := d.db.WithContext(ctx).
		Model(&Registration{}).
		Where("id = ? AND attendance_marked = false", id).
		Updates(map[string]interface{}{
			"attendance_marked":    true,
			"attendance_marked_at": at,
			"attendance_marked_by": organizerID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAttendanceMarked
	}

	return nil
}

// TrendingEventIDs ranks events by registrations created since the given
// time, most first.
func (d *RegistrationDAO) TrendingEventIDs(ctx context.Context, since time.Time, limit int) ([]uint, error) {
	var ids []uint

	result := d.db.WithContext(ctx).
		Model(&Registration{}).
		Select("event_id").
		Where("created_at >= ? AND status <> ?", since, "REJECTED").
		Group("event_id").
		Order("COUNT(*) DESC").
		Limit(limit).
		Pluck("event_id", &ids)
	if result.Error != nil {
		return nil, result.Error
	}

	return ids, nil
}

// EventCounts aggregates the analytics numbers for one event.
type EventCounts struct {
	Registrations   int
	Attendance      int
	PendingPayments int
}

func (d *RegistrationDAO) CountsByEvent(ctx context.Context, eventID uint) (EventCounts, error) {
	var counts EventCounts

	row := d.db.WithContext(ctx).
		Model(&Registration{}).
		Select(
			"COUNT(*) FILTER (WHERE status <> 'REJECTED') AS registrations",
			"COUNT(*) FILTER (WHERE attendance_marked) AS attendance",
			"COUNT(*) FILTER (WHERE payment_status = 'PENDING') AS pending_payments",
		).
		Where("event_id = ?", eventID).
		Row()
	if err := row.Scan(&counts.Registrations, &counts.Attendance, &counts.PendingPayments); err != nil {
		return EventCounts{}, err
	}

	return counts, nil
}
