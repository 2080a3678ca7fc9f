package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/repository"
)

var (
	ErrRegistrationNotFound     = repository.ErrRegistrationNotFound
	ErrAlreadyRegistered        = repository.ErrAlreadyRegistered
	ErrPaymentNotPending        = repository.ErrPaymentNotPending
	ErrRegistrationLimitReached = repository.ErrEventFull
	ErrInsufficientStock        = repository.ErrNoStock

	ErrEventNotOpen             = errors.New("event is not open for registration")
	ErrDeadlinePassed           = errors.New("registration deadline has passed")
	ErrNotEligible              = errors.New("participant is not eligible for this event")
	ErrWrongEventType           = errors.New("operation does not match event type")
	ErrItemNotFound             = errors.New("merchandise item not found")
	ErrPurchaseLimitExceeded    = errors.New("quantity exceeds purchase limit")
	ErrNoPaymentProof           = errors.New("no payment proof uploaded")
	ErrNotRegistrationOwner     = errors.New("registration belongs to another participant")
	ErrRegistrationNotConfirmed = errors.New("registration is not confirmed")
	ErrInvalidTicket            = errors.New("ticket is not valid for this event")
)

type RegistrationEventRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Event, error)
	UpdateStatus(ctx context.Context, id uint, from, to domain.EventStatus) error
}

type RegistrationRepo interface {
	CreateConfirmed(ctx context.Context, registration domain.Registration) (domain.Registration, error)
	CreatePending(ctx context.Context, registration domain.Registration) (domain.Registration, error)
	FindByID(ctx context.Context, id uint) (domain.Registration, error)
	FindByEventAndParticipant(ctx context.Context, eventID, participantID uint) (domain.Registration, error)
	FindByParticipant(ctx context.Context, participantID uint) ([]domain.Registration, error)
	FindByEvent(ctx context.Context, eventID uint) ([]domain.Registration, error)
	UpdatePaymentProof(ctx context.Context, id uint, proofURL string) error
	SettlePayment(ctx context.Context, id uint, status domain.PaymentStatus) error
	ApproveOrder(ctx context.Context, id, itemID uint, quantity int, ticketID, qrPayload string) (domain.Registration, error)
	RejectOrder(ctx context.Context, id uint, reason string) (domain.Registration, error)
	MarkAttendance(ctx context.Context, id, organizerID uint, at time.Time) error
}

type RegistrationUserRepository interface {
	FindParticipantByUserID(ctx context.Context, userID uint) (domain.Participant, error)
	FindByID(ctx context.Context, id uint) (domain.User, error)
}

// TicketMailer delivers the ticket email after a registration is
// confirmed.
type TicketMailer interface {
	SendTicket(ctx context.Context, to string, event domain.Event, registration domain.Registration) error
}

type RegistrationService struct {
	repo      RegistrationRepo
	eventRepo RegistrationEventRepository
	userRepo  RegistrationUserRepository
	mailer    TicketMailer
}

func NewRegistrationService(repo RegistrationRepo, eventRepo RegistrationEventRepository, userRepo RegistrationUserRepository, mailer TicketMailer) *RegistrationService {
	return &RegistrationService{
		repo:      repo,
		eventRepo: eventRepo,
		userRepo:  userRepo,
		mailer:    mailer,
	}
}

// loadOpenEvent fetches the event, settles its status, and runs the
// registration preconditions shared by both event types: type match,
// open status, no duplicate, deadline, capacity, eligibility. Checks
// run in that order so the caller sees the most specific failure.
func (s *RegistrationService) loadOpenEvent(ctx context.Context, eventID, participantID uint, eventType domain.EventType) (domain.Event, domain.Participant, error) {
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return domain.Event{}, domain.Participant{}, fmt.Errorf("s.eventRepo.FindByID -> %w", err)
	}

	old := event.Status
	if event.Reconcile(time.Now()) {
		if uErr := s.eventRepo.UpdateStatus(ctx, event.ID, old, event.Status); uErr != nil &&
			!errors.Is(uErr, repository.ErrStatusConflict) {
			zap.L().Warn("persisting event status failed", zap.Uint("event_id", event.ID), zap.Error(uErr))
		}
	}

	if event.Type != eventType {
		return domain.Event{}, domain.Participant{}, ErrWrongEventType
	}
	if !event.IsOpenForRegistration() {
		return domain.Event{}, domain.Participant{}, ErrEventNotOpen
	}

	if _, err = s.repo.FindByEventAndParticipant(ctx, eventID, participantID); err == nil {
		return domain.Event{}, domain.Participant{}, ErrAlreadyRegistered
	} else if !errors.Is(err, repository.ErrRegistrationNotFound) {
		return domain.Event{}, domain.Participant{}, fmt.Errorf("s.repo.FindByEventAndParticipant -> %w", err)
	}

	if time.Now().After(event.RegistrationDeadline) {
		return domain.Event{}, domain.Participant{}, ErrDeadlinePassed
	}
	if event.IsFull() {
		return domain.Event{}, domain.Participant{}, ErrRegistrationLimitReached
	}

	participant, err := s.userRepo.FindParticipantByUserID(ctx, participantID)
	if err != nil {
		return domain.Event{}, domain.Participant{}, fmt.Errorf("s.userRepo.FindParticipantByUserID -> %w", err)
	}
	if !event.Eligibility.Accepts(participant.ParticipantType) {
		return domain.Event{}, domain.Participant{}, ErrNotEligible
	}

	return event, participant, nil
}

// Register signs a participant up for a normal event. The registration is
// confirmed immediately and a ticket issued; a nonzero fee leaves the
// payment pending until the organizer approves the proof.
func (s *RegistrationService) Register(ctx context.Context, participantID, eventID uint, formResponses map[string]string) (domain.Registration, error) {
	event, participant, err := s.loadOpenEvent(ctx, eventID, participantID, domain.EventTypeNormal)
	if err != nil {
		return domain.Registration{}, err
	}

	now := time.Now()
	ticketID := domain.NewTicketID(now)
	payload, err := domain.NewTicketPayload(ticketID, eventID, participantID, now).Encode()
	if err != nil {
		return domain.Registration{}, err
	}

	registration := domain.Registration{
		EventID:       eventID,
		ParticipantID: participantID,
		FormResponses: formResponses,
		PaymentStatus: domain.PaymentNotRequired,
	}
	if event.RegistrationFee > 0 {
		registration.PaymentStatus = domain.PaymentPending
	}
	if err = registration.Confirm(ticketID, payload); err != nil {
		return domain.Registration{}, err
	}

	created, err := s.repo.CreateConfirmed(ctx, registration)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.repo.CreateConfirmed -> %w", err)
	}

	s.mailTicket(participant.Email, event, created)

	return created, nil
}

// OrderMerchandise places a pending order for a merchandise event. No
// stock moves and no ticket is issued until the organizer approves the
// payment.
func (s *RegistrationService) OrderMerchandise(ctx context.Context, participantID, eventID uint, itemName, size, color string, quantity int, formResponses map[string]string) (domain.Registration, error) {
	event, _, err := s.loadOpenEvent(ctx, eventID, participantID, domain.EventTypeMerchandise)
	if err != nil {
		return domain.Registration{}, err
	}

	item := event.FindMerchandiseItem(itemName, size, color)
	if item == nil {
		return domain.Registration{}, ErrItemNotFound
	}
	if quantity < 1 || quantity > event.PurchaseLimitPerUser {
		return domain.Registration{}, ErrPurchaseLimitExceeded
	}
	if item.Stock < quantity {
		return domain.Registration{}, ErrInsufficientStock
	}

	registration := domain.Registration{
		EventID:       eventID,
		ParticipantID: participantID,
		Status:        domain.RegistrationPending,
		PaymentStatus: domain.PaymentPending,
		FormResponses: formResponses,
		Order: &domain.MerchandiseOrder{
			ItemID:    item.ID,
			ItemName:  item.Name,
			Size:      item.Size,
			Color:     item.Color,
			Quantity:  quantity,
			UnitPrice: item.Price,
			Total:     item.Price * float64(quantity),
		},
	}

	created, err := s.repo.CreatePending(ctx, registration)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.repo.CreatePending -> %w", err)
	}

	return created, nil
}

// UploadPaymentProof attaches the payment screenshot to the caller's
// registration. Replacing the proof is allowed while the payment is
// still pending.
func (s *RegistrationService) UploadPaymentProof(ctx context.Context, participantID, registrationID uint, proofURL string) (domain.Registration, error) {
	registration, err := s.repo.FindByID(ctx, registrationID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if registration.ParticipantID != participantID {
		return domain.Registration{}, ErrNotRegistrationOwner
	}

	if err = s.repo.UpdatePaymentProof(ctx, registrationID, proofURL); err != nil {
		return domain.Registration{}, fmt.Errorf("s.repo.UpdatePaymentProof -> %w", err)
	}

	registration.PaymentProofURL = proofURL

	return registration, nil
}

// loadOwnedRegistration resolves a registration together with its event
// and verifies the organizer owns that event.
func (s *RegistrationService) loadOwnedRegistration(ctx context.Context, organizerID, registrationID uint) (domain.Registration, domain.Event, error) {
	registration, err := s.repo.FindByID(ctx, registrationID)
	if err != nil {
		return domain.Registration{}, domain.Event{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	event, err := s.eventRepo.FindByID(ctx, registration.EventID)
	if err != nil {
		return domain.Registration{}, domain.Event{}, fmt.Errorf("s.eventRepo.FindByID -> %w", err)
	}
	if event.OrganizerID != organizerID {
		return domain.Registration{}, domain.Event{}, ErrNotEventOwner
	}

	return registration, event, nil
}

// ApprovePayment settles a pending payment. For merchandise orders this
// re-checks stock, decrements it and issues the ticket atomically; for
// paid normal events only the payment flips, the ticket already exists.
func (s *RegistrationService) ApprovePayment(ctx context.Context, organizerID, registrationID uint) (domain.Registration, error) {
	registration, event, err := s.loadOwnedRegistration(ctx, organizerID, registrationID)
	if err != nil {
		return domain.Registration{}, err
	}
	if registration.PaymentStatus != domain.PaymentPending {
		return domain.Registration{}, ErrPaymentNotPending
	}
	if registration.PaymentProofURL == "" {
		return domain.Registration{}, ErrNoPaymentProof
	}

	if registration.Order == nil {
		if err = s.repo.SettlePayment(ctx, registrationID, domain.PaymentApproved); err != nil {
			return domain.Registration{}, fmt.Errorf("s.repo.SettlePayment -> %w", err)
		}
		registration.PaymentStatus = domain.PaymentApproved
		return registration, nil
	}

	now := time.Now()
	ticketID := domain.NewTicketID(now)
	payload, err := domain.NewTicketPayload(ticketID, registration.EventID, registration.ParticipantID, now).Encode()
	if err != nil {
		return domain.Registration{}, err
	}

	approved, err := s.repo.ApproveOrder(ctx, registrationID, registration.Order.ItemID, registration.Order.Quantity, ticketID, payload)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.repo.ApproveOrder -> %w", err)
	}

	if user, uErr := s.userRepo.FindByID(ctx, approved.ParticipantID); uErr == nil {
		s.mailTicket(user.Email, event, approved)
	}

	return approved, nil
}

// RejectPayment declines a pending payment with a reason the participant
// will see.
func (s *RegistrationService) RejectPayment(ctx context.Context, organizerID, registrationID uint, reason string) (domain.Registration, error) {
	registration, _, err := s.loadOwnedRegistration(ctx, organizerID, registrationID)
	if err != nil {
		return domain.Registration{}, err
	}
	if registration.PaymentStatus != domain.PaymentPending {
		return domain.Registration{}, ErrPaymentNotPending
	}

	if registration.Order == nil {
		if err = s.repo.SettlePayment(ctx, registrationID, domain.PaymentRejected); err != nil {
			return domain.Registration{}, fmt.Errorf("s.repo.SettlePayment -> %w", err)
		}
		registration.PaymentStatus = domain.PaymentRejected
		registration.RejectionReason = reason
		return registration, nil
	}

	rejected, err := s.repo.RejectOrder(ctx, registrationID, reason)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.repo.RejectOrder -> %w", err)
	}

	return rejected, nil
}

// CheckIn validates a scanned ticket and marks attendance. Re-scanning a
// ticket returns ErrAttendanceAlreadyMarked along with the registration
// carrying the original mark, so the gate can show when it happened.
func (s *RegistrationService) CheckIn(ctx context.Context, organizerID, eventID uint, qrPayload string) (domain.Registration, error) {
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.eventRepo.FindByID -> %w", err)
	}
	if event.OrganizerID != organizerID {
		return domain.Registration{}, ErrNotEventOwner
	}

	payload, err := domain.DecodeTicketPayload(qrPayload)
	if err != nil {
		return domain.Registration{}, ErrInvalidTicket
	}
	if payload.EventID != eventID {
		return domain.Registration{}, ErrInvalidTicket
	}

	registration, err := s.repo.FindByEventAndParticipant(ctx, eventID, payload.ParticipantID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.repo.FindByEventAndParticipant -> %w", err)
	}
	if registration.TicketID != payload.TicketID {
		return domain.Registration{}, ErrInvalidTicket
	}

	return s.markAttendance(ctx, registration, organizerID)
}

// CheckInManual marks attendance by registration ID, the desk path for
// participants without a scannable ticket.
func (s *RegistrationService) CheckInManual(ctx context.Context, organizerID, eventID, registrationID uint) (domain.Registration, error) {
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.eventRepo.FindByID -> %w", err)
	}
	if event.OrganizerID != organizerID {
		return domain.Registration{}, ErrNotEventOwner
	}

	registration, err := s.repo.FindByID(ctx, registrationID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if registration.EventID != eventID {
		return domain.Registration{}, ErrRegistrationNotFound
	}

	return s.markAttendance(ctx, registration, organizerID)
}

func (s *RegistrationService) markAttendance(ctx context.Context, registration domain.Registration, organizerID uint) (domain.Registration, error) {
	if registration.Status != domain.RegistrationConfirmed {
		return domain.Registration{}, ErrRegistrationNotConfirmed
	}

	now := time.Now()
	if err := s.repo.MarkAttendance(ctx, registration.ID, organizerID, now); err != nil {
		if errors.Is(err, repository.ErrAttendanceMarked) {
			marked, mErr := s.repo.FindByID(ctx, registration.ID)
			if mErr != nil {
				return domain.Registration{}, fmt.Errorf("s.repo.FindByID -> %w", mErr)
			}
			return marked, domain.ErrAttendanceAlreadyMarked
		}

		return domain.Registration{}, fmt.Errorf("s.repo.MarkAttendance -> %w", err)
	}

	registration.Attendance = domain.Attendance{Marked: true, MarkedAt: &now, MarkedBy: organizerID}

	return registration, nil
}

// GetMyRegistrations lists the caller's registrations newest first.
func (s *RegistrationService) GetMyRegistrations(ctx context.Context, participantID uint) ([]domain.Registration, error) {
	registrations, err := s.repo.FindByParticipant(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByParticipant -> %w", err)
	}

	return registrations, nil
}

// GetTicket returns the caller's confirmed registration for an event,
// ticket and QR payload included.
func (s *RegistrationService) GetTicket(ctx context.Context, participantID, eventID uint) (domain.Registration, error) {
	registration, err := s.repo.FindByEventAndParticipant(ctx, eventID, participantID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.repo.FindByEventAndParticipant -> %w", err)
	}
	if registration.Status != domain.RegistrationConfirmed {
		return domain.Registration{}, ErrRegistrationNotConfirmed
	}

	return registration, nil
}

// ListEventRegistrations returns all registrations for an event the
// organizer owns.
func (s *RegistrationService) ListEventRegistrations(ctx context.Context, organizerID, eventID uint) ([]domain.Registration, error) {
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.eventRepo.FindByID -> %w", err)
	}
	if event.OrganizerID != organizerID {
		return nil, ErrNotEventOwner
	}

	registrations, err := s.repo.FindByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByEvent -> %w", err)
	}

	return registrations, nil
}

func (s *RegistrationService) mailTicket(email string, event domain.Event, registration domain.Registration) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := s.mailer.SendTicket(ctx, email, event, registration); err != nil {
			zap.L().Warn("sending ticket email failed",
				zap.Uint("registration_id", registration.ID),
				zap.Error(err),
			)
		}
	}()
}
