package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/repository/dao"
)

var (
	ErrRegistrationNotFound = dao.ErrRegistrationNotFound
	ErrAlreadyRegistered    = dao.ErrAlreadyRegistered
	ErrPaymentNotPending    = dao.ErrPaymentNotPending
	ErrAttendanceMarked     = dao.ErrAttendanceMarked
)

type RegistrationDAO interface {
	InsertConfirmed(ctx context.Context, registration dao.Registration) (dao.Registration, error)
	InsertPending(ctx context.Context, registration dao.Registration) (dao.Registration, error)
	FindByID(ctx context.Context, id uint) (dao.Registration, error)
	FindByEventAndParticipant(ctx context.Context, eventID, participantID uint) (dao.Registration, error)
	FindByParticipant(ctx context.Context, participantID uint) ([]dao.Registration, error)
	FindByEvent(ctx context.Context, eventID uint) ([]dao.Registration, error)
	UpdatePaymentProof(ctx context.Context, id uint, proofURL string) error
	SettlePayment(ctx context.Context, id uint, status string) error
	ApproveOrder(ctx context.Context, id, itemID uint, quantity int, ticketID, qrPayload string) (dao.Registration, error)
	RejectOrder(ctx context.Context, id uint, reason string) (dao.Registration, error)
	MarkAttendance(ctx context.Context, id, organizerID uint, at time.Time) error
	TrendingEventIDs(ctx context.Context, since time.Time, limit int) ([]uint, error)
	CountsByEvent(ctx context.Context, eventID uint) (dao.EventCounts, error)
}

type RegistrationRepository struct {
	dao RegistrationDAO
}

func NewRegistrationRepository(dao RegistrationDAO) *RegistrationRepository {
	return &RegistrationRepository{
		dao: dao,
	}
}

// CreateConfirmed persists a confirmed normal-event registration, bumping
// the event's capacity counter atomically.
func (r *RegistrationRepository) CreateConfirmed(ctx context.Context, registration domain.Registration) (domain.Registration, error) {
	created, err := r.dao.InsertConfirmed(ctx, registrationDomainToDao(registration))
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.InsertConfirmed -> %w", err)
	}

	return registrationDaoToDomain(created), nil
}

// CreatePending persists a merchandise order awaiting payment approval.
func (r *RegistrationRepository) CreatePending(ctx context.Context, registration domain.Registration) (domain.Registration, error) {
	created, err := r.dao.InsertPending(ctx, registrationDomainToDao(registration))
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.InsertPending -> %w", err)
	}

	return registrationDaoToDomain(created), nil
}

func (r *RegistrationRepository) FindByID(ctx context.Context, id uint) (domain.Registration, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return registrationDaoToDomain(found), nil
}

func (r *RegistrationRepository) FindByEventAndParticipant(ctx context.Context, eventID, participantID uint) (domain.Registration, error) {
	found, err := r.dao.FindByEventAndParticipant(ctx, eventID, participantID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.FindByEventAndParticipant -> %w", err)
	}

	return registrationDaoToDomain(found), nil
}

func (r *RegistrationRepository) FindByParticipant(ctx context.Context, participantID uint) ([]domain.Registration, error) {
	found, err := r.dao.FindByParticipant(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByParticipant -> %w", err)
	}

	return registrationsDaoToDomain(found), nil
}

func (r *RegistrationRepository) FindByEvent(ctx context.Context, eventID uint) ([]domain.Registration, error) {
	found, err := r.dao.FindByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByEvent -> %w", err)
	}

	return registrationsDaoToDomain(found), nil
}

func (r *RegistrationRepository) UpdatePaymentProof(ctx context.Context, id uint, proofURL string) error {
	if err := r.dao.UpdatePaymentProof(ctx, id, proofURL); err != nil {
		return fmt.Errorf("r.dao.UpdatePaymentProof -> %w", err)
	}

	return nil
}

func (r *RegistrationRepository) SettlePayment(ctx context.Context, id uint, status domain.PaymentStatus) error {
	if err := r.dao.SettlePayment(ctx, id, string(status)); err != nil {
		return fmt.Errorf("r.dao.SettlePayment -> %w", err)
	}

	return nil
}

func (r *RegistrationRepository) ApproveOrder(ctx context.Context, id, itemID uint, quantity int, ticketID, qrPayload string) (domain.Registration, error) {
	approved, err := r.dao.ApproveOrder(ctx, id, itemID, quantity, ticketID, qrPayload)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.ApproveOrder -> %w", err)
	}

	return registrationDaoToDomain(approved), nil
}

func (r *RegistrationRepository) RejectOrder(ctx context.Context, id uint, reason string) (domain.Registration, error) {
	rejected, err := r.dao.RejectOrder(ctx, id, reason)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.RejectOrder -> %w", err)
	}

	return registrationDaoToDomain(rejected), nil
}

func (r *RegistrationRepository) MarkAttendance(ctx context.Context, id, organizerID uint, at time.Time) error {
	if err := r.dao.MarkAttendance(ctx, id, organizerID, at); err != nil {
		return fmt.Errorf("r.dao.MarkAttendance -> %w", err)
	}

	return nil
}

func (r *RegistrationRepository) TrendingEventIDs(ctx context.Context, since time.Time, limit int) ([]uint, error) {
	ids, err := r.dao.TrendingEventIDs(ctx, since, limit)
	if err != nil {
		return nil, fmt.Errorf("r.dao.TrendingEventIDs -> %w", err)
	}

	return ids, nil
}

// EventCounts mirrors the per-event aggregate the analytics view needs.
type EventCounts struct {
	Registrations   int
	Attendance      int
	PendingPayments int
}

func (r *RegistrationRepository) CountsByEvent(ctx context.Context, eventID uint) (EventCounts, error) {
	counts, err := r.dao.CountsByEvent(ctx, eventID)
	if err != nil {
		return EventCounts{}, fmt.Errorf("r.dao.CountsByEvent -> %w", err)
	}

	return EventCounts(counts), nil
}

func registrationDomainToDao(reg domain.Registration) dao.Registration {
	var ticketID *string
	if reg.TicketID != "" {
		ticketID = &reg.TicketID
	}

	var order *dao.OrderInfo
	if reg.Order != nil {
		order = &dao.OrderInfo{
			ItemID:    reg.Order.ItemID,
			ItemName:  reg.Order.ItemName,
			Size:      reg.Order.Size,
			Color:     reg.Order.Color,
			Quantity:  reg.Order.Quantity,
			UnitPrice: reg.Order.UnitPrice,
			Total:     reg.Order.Total,
		}
	}

	return dao.Registration{
		ID:              reg.ID,
		EventID:         reg.EventID,
		ParticipantID:   reg.ParticipantID,
		Status:          string(reg.Status),
		PaymentStatus:   string(reg.PaymentStatus),
		PaymentProofURL: reg.PaymentProofURL,
		RejectionReason: reg.RejectionReason,
		FormResponses:   reg.FormResponses,
		Order:           order,
		TicketID:        ticketID,
		QRPayload:       reg.QRPayload,
	}
}

func registrationDaoToDomain(reg dao.Registration) domain.Registration {
	var ticketID string
	if reg.TicketID != nil {
		ticketID = *reg.TicketID
	}

	var order *domain.MerchandiseOrder
	if reg.Order != nil {
		order = &domain.MerchandiseOrder{
			ItemID:    reg.Order.ItemID,
			ItemName:  reg.Order.ItemName,
			Size:      reg.Order.Size,
			Color:     reg.Order.Color,
			Quantity:  reg.Order.Quantity,
			UnitPrice: reg.Order.UnitPrice,
			Total:     reg.Order.Total,
		}
	}

	return domain.Registration{
		ID:              reg.ID,
		EventID:         reg.EventID,
		ParticipantID:   reg.ParticipantID,
		Status:          domain.RegistrationStatus(reg.Status),
		PaymentStatus:   domain.PaymentStatus(reg.PaymentStatus),
		PaymentProofURL: reg.PaymentProofURL,
		RejectionReason: reg.RejectionReason,
		FormResponses:   reg.FormResponses,
		Order:           order,
		TicketID:        ticketID,
		QRPayload:       reg.QRPayload,
		Attendance: domain.Attendance{
			Marked:   reg.AttendanceMarked,
			MarkedAt: reg.AttendanceMarkedAt,
			MarkedBy: reg.AttendanceMarkedBy,
		},
		RegisteredAt: reg.CreatedAt,
		UpdatedAt:    reg.UpdatedAt,
	}
}

func registrationsDaoToDomain(regs []dao.Registration) []domain.Registration {
	out := make([]domain.Registration, 0, len(regs))
	for _, reg := range regs {
		out = append(out, registrationDaoToDomain(reg))
	}

	return out
}
