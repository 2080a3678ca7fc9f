package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/repository"
)

// fakeEventRepo implements RegistrationEventRepository and EventRepository
// for tests.
type fakeEventRepo struct {
	byID   map[uint]domain.Event
	nextID uint
}

func newFakeEventRepo(events ...domain.Event) *fakeEventRepo {
	f := &fakeEventRepo{byID: make(map[uint]domain.Event), nextID: 1}
	for _, e := range events {
		if e.ID >= f.nextID {
			f.nextID = e.ID + 1
		}
		f.byID[e.ID] = e
	}
	return f
}

func (f *fakeEventRepo) Create(ctx context.Context, event domain.Event) (domain.Event, error) {
	event.ID = f.nextID
	f.nextID++
	f.byID[event.ID] = event
	return event, nil
}

func (f *fakeEventRepo) FindByID(ctx context.Context, id uint) (domain.Event, error) {
	e, ok := f.byID[id]
	if !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}
	return e, nil
}

func (f *fakeEventRepo) FindVisible(ctx context.Context, eventType domain.EventType, statuses []domain.EventStatus) ([]domain.Event, error) {
	var out []domain.Event
	for _, e := range f.byID {
		if e.Status == domain.EventDraft {
			continue
		}
		if eventType != "" && e.Type != eventType {
			continue
		}
		if len(statuses) > 0 {
			found := false
			for _, s := range statuses {
				if e.Status == s {
					found = true
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeEventRepo) FindByOrganizer(ctx context.Context, organizerID uint) ([]domain.Event, error) {
	var out []domain.Event
	for _, e := range f.byID {
		if e.OrganizerID == organizerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) FindAll(ctx context.Context) ([]domain.Event, error) {
	var out []domain.Event
	for _, e := range f.byID {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeEventRepo) Update(ctx context.Context, event domain.Event) (domain.Event, error) {
	if _, ok := f.byID[event.ID]; !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}
	f.byID[event.ID] = event
	return event, nil
}

func (f *fakeEventRepo) UpdateStatus(ctx context.Context, id uint, from, to domain.EventStatus) error {
	e, ok := f.byID[id]
	if !ok {
		return repository.ErrEventNotFound
	}
	if e.Status != from {
		return repository.ErrStatusConflict
	}
	e.Status = to
	f.byID[id] = e
	return nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrEventNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeRegistrationRepo implements RegistrationRepo for tests.
type fakeRegistrationRepo struct {
	byID        map[uint]domain.Registration
	nextID      uint
	trendingIDs []uint
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{byID: make(map[uint]domain.Registration), nextID: 1}
}

func (f *fakeRegistrationRepo) insert(r domain.Registration) (domain.Registration, error) {
	for _, existing := range f.byID {
		if existing.EventID == r.EventID && existing.ParticipantID == r.ParticipantID {
			return domain.Registration{}, repository.ErrAlreadyRegistered
		}
	}
	r.ID = f.nextID
	f.nextID++
	r.RegisteredAt = time.Now()
	f.byID[r.ID] = r
	return r, nil
}

func (f *fakeRegistrationRepo) CreateConfirmed(ctx context.Context, r domain.Registration) (domain.Registration, error) {
	return f.insert(r)
}

func (f *fakeRegistrationRepo) CreatePending(ctx context.Context, r domain.Registration) (domain.Registration, error) {
	return f.insert(r)
}

func (f *fakeRegistrationRepo) FindByID(ctx context.Context, id uint) (domain.Registration, error) {
	r, ok := f.byID[id]
	if !ok {
		return domain.Registration{}, repository.ErrRegistrationNotFound
	}
	return r, nil
}

func (f *fakeRegistrationRepo) FindByEventAndParticipant(ctx context.Context, eventID, participantID uint) (domain.Registration, error) {
	for _, r := range f.byID {
		if r.EventID == eventID && r.ParticipantID == participantID {
			return r, nil
		}
	}
	return domain.Registration{}, repository.ErrRegistrationNotFound
}

func (f *fakeRegistrationRepo) FindByParticipant(ctx context.Context, participantID uint) ([]domain.Registration, error) {
	var out []domain.Registration
	for _, r := range f.byID {
		if r.ParticipantID == participantID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRegistrationRepo) FindByEvent(ctx context.Context, eventID uint) ([]domain.Registration, error) {
	var out []domain.Registration
	for _, r := range f.byID {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRegistrationRepo) UpdatePaymentProof(ctx context.Context, id uint, proofURL string) error {
	r, ok := f.byID[id]
	if !ok {
		return repository.ErrRegistrationNotFound
	}
	if r.PaymentStatus != domain.PaymentPending {
		return repository.ErrPaymentNotPending
	}
	r.PaymentProofURL = proofURL
	f.byID[id] = r
	return nil
}

func (f *fakeRegistrationRepo) SettlePayment(ctx context.Context, id uint, status domain.PaymentStatus) error {
	r, ok := f.byID[id]
	if !ok {
		return repository.ErrRegistrationNotFound
	}
	if r.PaymentStatus != domain.PaymentPending {
		return repository.ErrPaymentNotPending
	}
	r.PaymentStatus = status
	f.byID[id] = r
	return nil
}

func (f *fakeRegistrationRepo) ApproveOrder(ctx context.Context, id, itemID uint, quantity int, ticketID, qrPayload string) (domain.Registration, error) {
	r, ok := f.byID[id]
	if !ok {
		return domain.Registration{}, repository.ErrRegistrationNotFound
	}
	if r.PaymentStatus != domain.PaymentPending {
		return domain.Registration{}, repository.ErrPaymentNotPending
	}
	r.Status = domain.RegistrationConfirmed
	r.PaymentStatus = domain.PaymentApproved
	r.TicketID = ticketID
	r.QRPayload = qrPayload
	f.byID[id] = r
	return r, nil
}

func (f *fakeRegistrationRepo) RejectOrder(ctx context.Context, id uint, reason string) (domain.Registration, error) {
	r, ok := f.byID[id]
	if !ok {
		return domain.Registration{}, repository.ErrRegistrationNotFound
	}
	if r.PaymentStatus != domain.PaymentPending {
		return domain.Registration{}, repository.ErrPaymentNotPending
	}
	r.Status = domain.RegistrationRejected
	r.PaymentStatus = domain.PaymentRejected
	r.RejectionReason = reason
	f.byID[id] = r
	return r, nil
}

func (f *fakeRegistrationRepo) MarkAttendance(ctx context.Context, id, organizerID uint, at time.Time) error {
	r, ok := f.byID[id]
	if !ok {
		return repository.ErrRegistrationNotFound
	}
	if r.Attendance.Marked {
		return repository.ErrAttendanceMarked
	}
	r.Attendance = domain.Attendance{Marked: true, MarkedAt: &at, MarkedBy: organizerID}
	f.byID[id] = r
	return nil
}

func (f *fakeRegistrationRepo) TrendingEventIDs(ctx context.Context, since time.Time, limit int) ([]uint, error) {
	return f.trendingIDs, nil
}

func (f *fakeRegistrationRepo) CountsByEvent(ctx context.Context, eventID uint) (repository.EventCounts, error) {
	counts := repository.EventCounts{}
	for _, r := range f.byID {
		if r.EventID != eventID {
			continue
		}
		counts.Registrations++
		if r.Attendance.Marked {
			counts.Attendance++
		}
		if r.PaymentStatus == domain.PaymentPending {
			counts.PendingPayments++
		}
	}
	return counts, nil
}

// fakeUserRepo implements the user-facing repository interfaces the
// services consume.
type fakeUserRepo struct {
	users        map[uint]domain.User
	participants map[uint]domain.Participant
	organizers   map[uint]domain.Organizer
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:        make(map[uint]domain.User),
		participants: make(map[uint]domain.Participant),
		organizers:   make(map[uint]domain.Organizer),
	}
}

func (f *fakeUserRepo) addParticipant(p domain.Participant) {
	f.users[p.ID] = p.User
	f.participants[p.ID] = p
}

func (f *fakeUserRepo) addOrganizer(o domain.Organizer) {
	f.users[o.ID] = o.User
	f.organizers[o.ID] = o
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uint) (domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) FindParticipantByUserID(ctx context.Context, userID uint) (domain.Participant, error) {
	p, ok := f.participants[userID]
	if !ok {
		return domain.Participant{}, repository.ErrUserNotFound
	}
	return p, nil
}

func (f *fakeUserRepo) FindOrganizerByUserID(ctx context.Context, userID uint) (domain.Organizer, error) {
	o, ok := f.organizers[userID]
	if !ok {
		return domain.Organizer{}, repository.ErrUserNotFound
	}
	return o, nil
}

// fakeMailer implements TicketMailer and CredentialsMailer.
type fakeMailer struct {
	mu          sync.Mutex
	tickets     []string
	credentials []string
}

func (f *fakeMailer) SendTicket(ctx context.Context, to string, event domain.Event, registration domain.Registration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tickets = append(f.tickets, to)
	return nil
}

func (f *fakeMailer) SendCredentials(ctx context.Context, to, organizerName, email, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credentials = append(f.credentials, to+":"+email+":"+password)
	return nil
}

func openEvent(id uint, eventType domain.EventType) domain.Event {
	now := time.Now()
	return domain.Event{
		ID:                   id,
		Name:                 "Test Event",
		Type:                 eventType,
		OrganizerID:          100,
		Eligibility:          domain.EligibilityAll,
		RegistrationDeadline: now.Add(24 * time.Hour),
		StartDate:            now.Add(48 * time.Hour),
		EndDate:              now.Add(72 * time.Hour),
		Status:               domain.EventPublished,
		PurchaseLimitPerUser: 2,
	}
}

func participantFixture(id uint, pType domain.ParticipantType) domain.Participant {
	return domain.Participant{
		User: domain.User{
			ID:    id,
			Email: "participant@example.com",
			Role:  domain.RoleParticipant,
		},
		FirstName:       "Asha",
		LastName:        "Rao",
		ParticipantType: pType,
	}
}

func newRegistrationFixture(t *testing.T, event domain.Event) (*RegistrationService, *fakeRegistrationRepo, *fakeEventRepo, *fakeUserRepo) {
	t.Helper()

	regRepo := newFakeRegistrationRepo()
	eventRepo := newFakeEventRepo(event)
	userRepo := newFakeUserRepo()
	userRepo.addParticipant(participantFixture(1, domain.ParticipantIIIT))

	svc := NewRegistrationService(regRepo, eventRepo, userRepo, &fakeMailer{})
	return svc, regRepo, eventRepo, userRepo
}

func TestRegistrationService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("free event confirms with ticket", func(t *testing.T) {
		svc, _, _, _ := newRegistrationFixture(t, openEvent(1, domain.EventTypeNormal))

		reg, err := svc.Register(ctx, 1, 1, map[string]string{"team": "solo"})

		require.NoError(t, err)
		assert.Equal(t, domain.RegistrationConfirmed, reg.Status)
		assert.Equal(t, domain.PaymentNotRequired, reg.PaymentStatus)
		assert.NotEmpty(t, reg.TicketID)
		assert.NotEmpty(t, reg.QRPayload)
	})

	t.Run("paid event leaves payment pending", func(t *testing.T) {
		event := openEvent(1, domain.EventTypeNormal)
		event.RegistrationFee = 250
		svc, _, _, _ := newRegistrationFixture(t, event)

		reg, err := svc.Register(ctx, 1, 1, nil)

		require.NoError(t, err)
		assert.Equal(t, domain.RegistrationConfirmed, reg.Status)
		assert.Equal(t, domain.PaymentPending, reg.PaymentStatus)
		assert.NotEmpty(t, reg.TicketID, "ticket issued even before payment settles")
	})

	t.Run("merchandise event rejects direct registration", func(t *testing.T) {
		svc, _, _, _ := newRegistrationFixture(t, openEvent(1, domain.EventTypeMerchandise))

		_, err := svc.Register(ctx, 1, 1, nil)

		assert.ErrorIs(t, err, ErrWrongEventType)
	})

	t.Run("type mismatch outranks later precondition failures", func(t *testing.T) {
		event := openEvent(1, domain.EventTypeMerchandise)
		event.RegistrationDeadline = time.Now().Add(-time.Hour)
		svc, _, _, _ := newRegistrationFixture(t, event)

		_, err := svc.Register(ctx, 1, 1, nil)

		assert.ErrorIs(t, err, ErrWrongEventType)
	})

	t.Run("duplicate registration", func(t *testing.T) {
		svc, _, _, _ := newRegistrationFixture(t, openEvent(1, domain.EventTypeNormal))

		_, err := svc.Register(ctx, 1, 1, nil)
		require.NoError(t, err)

		_, err = svc.Register(ctx, 1, 1, nil)
		assert.ErrorIs(t, err, ErrAlreadyRegistered)
	})

	t.Run("draft event is not open", func(t *testing.T) {
		event := openEvent(1, domain.EventTypeNormal)
		event.Status = domain.EventDraft
		svc, _, _, _ := newRegistrationFixture(t, event)

		_, err := svc.Register(ctx, 1, 1, nil)

		assert.ErrorIs(t, err, ErrEventNotOpen)
	})

	t.Run("past deadline", func(t *testing.T) {
		event := openEvent(1, domain.EventTypeNormal)
		event.RegistrationDeadline = time.Now().Add(-time.Hour)
		svc, _, _, _ := newRegistrationFixture(t, event)

		_, err := svc.Register(ctx, 1, 1, nil)

		assert.ErrorIs(t, err, ErrDeadlinePassed)
	})

	t.Run("full event", func(t *testing.T) {
		event := openEvent(1, domain.EventTypeNormal)
		limit := 1
		event.RegistrationLimit = &limit
		event.CurrentRegistrations = 1
		svc, _, _, _ := newRegistrationFixture(t, event)

		_, err := svc.Register(ctx, 1, 1, nil)

		assert.ErrorIs(t, err, ErrRegistrationLimitReached)
	})

	t.Run("eligibility mismatch", func(t *testing.T) {
		event := openEvent(1, domain.EventTypeNormal)
		event.Eligibility = domain.EligibilityNonIIITOnly
		svc, _, _, _ := newRegistrationFixture(t, event)

		_, err := svc.Register(ctx, 1, 1, nil)

		assert.ErrorIs(t, err, ErrNotEligible)
	})

	t.Run("event past end date completes and closes registration", func(t *testing.T) {
		event := openEvent(1, domain.EventTypeNormal)
		event.StartDate = time.Now().Add(-2 * time.Hour)
		event.EndDate = time.Now().Add(-time.Hour)
		svc, _, eventRepo, _ := newRegistrationFixture(t, event)

		_, err := svc.Register(ctx, 1, 1, nil)

		assert.ErrorIs(t, err, ErrEventNotOpen)
		stored, _ := eventRepo.FindByID(ctx, 1)
		assert.Equal(t, domain.EventCompleted, stored.Status)
	})
}

func TestRegistrationService_OrderMerchandise(t *testing.T) {
	ctx := context.Background()

	merchEvent := func() domain.Event {
		event := openEvent(1, domain.EventTypeMerchandise)
		event.Merchandise = []domain.MerchandiseItem{
			{ID: 10, EventID: 1, Name: "T-Shirt", Size: "M", Stock: 3, Price: 499},
		}
		return event
	}

	t.Run("creates pending order without touching stock", func(t *testing.T) {
		svc, _, eventRepo, _ := newRegistrationFixture(t, merchEvent())

		reg, err := svc.OrderMerchandise(ctx, 1, 1, "T-Shirt", "M", "", 2, nil)

		require.NoError(t, err)
		assert.Equal(t, domain.RegistrationPending, reg.Status)
		assert.Equal(t, domain.PaymentPending, reg.PaymentStatus)
		require.NotNil(t, reg.Order)
		assert.Equal(t, float64(998), reg.Order.Total)
		assert.Empty(t, reg.TicketID, "no ticket before approval")

		stored, _ := eventRepo.FindByID(ctx, 1)
		assert.Equal(t, 3, stored.Merchandise[0].Stock)
	})

	t.Run("normal event rejects orders before any other check", func(t *testing.T) {
		event := openEvent(1, domain.EventTypeNormal)
		event.RegistrationDeadline = time.Now().Add(-time.Hour)
		svc, _, _, _ := newRegistrationFixture(t, event)

		_, err := svc.OrderMerchandise(ctx, 1, 1, "T-Shirt", "M", "", 1, nil)

		assert.ErrorIs(t, err, ErrWrongEventType)
	})

	t.Run("unknown item", func(t *testing.T) {
		svc, _, _, _ := newRegistrationFixture(t, merchEvent())

		_, err := svc.OrderMerchandise(ctx, 1, 1, "Hoodie", "", "", 1, nil)

		assert.ErrorIs(t, err, ErrItemNotFound)
	})

	t.Run("quantity above purchase limit", func(t *testing.T) {
		svc, _, _, _ := newRegistrationFixture(t, merchEvent())

		_, err := svc.OrderMerchandise(ctx, 1, 1, "T-Shirt", "M", "", 3, nil)

		assert.ErrorIs(t, err, ErrPurchaseLimitExceeded)
	})

	t.Run("insufficient stock", func(t *testing.T) {
		event := merchEvent()
		event.Merchandise[0].Stock = 1
		svc, _, _, _ := newRegistrationFixture(t, event)

		_, err := svc.OrderMerchandise(ctx, 1, 1, "T-Shirt", "M", "", 2, nil)

		assert.ErrorIs(t, err, ErrInsufficientStock)
	})
}

func TestRegistrationService_PaymentLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("upload requires ownership", func(t *testing.T) {
		event := openEvent(1, domain.EventTypeNormal)
		event.RegistrationFee = 100
		svc, _, _, _ := newRegistrationFixture(t, event)

		reg, err := svc.Register(ctx, 1, 1, nil)
		require.NoError(t, err)

		_, err = svc.UploadPaymentProof(ctx, 2, reg.ID, "/uploads/proof.png")
		assert.ErrorIs(t, err, ErrNotRegistrationOwner)
	})

	t.Run("approve without proof fails", func(t *testing.T) {
		event := openEvent(1, domain.EventTypeNormal)
		event.RegistrationFee = 100
		svc, _, _, _ := newRegistrationFixture(t, event)

		reg, err := svc.Register(ctx, 1, 1, nil)
		require.NoError(t, err)

		_, err = svc.ApprovePayment(ctx, 100, reg.ID)
		assert.ErrorIs(t, err, ErrNoPaymentProof)
	})

	t.Run("approve flat fee flips payment only", func(t *testing.T) {
		event := openEvent(1, domain.EventTypeNormal)
		event.RegistrationFee = 100
		svc, _, _, _ := newRegistrationFixture(t, event)

		reg, err := svc.Register(ctx, 1, 1, nil)
		require.NoError(t, err)
		originalTicket := reg.TicketID

		_, err = svc.UploadPaymentProof(ctx, 1, reg.ID, "/uploads/proof.png")
		require.NoError(t, err)

		approved, err := svc.ApprovePayment(ctx, 100, reg.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentApproved, approved.PaymentStatus)
		assert.Equal(t, originalTicket, approved.TicketID)
	})

	t.Run("approve requires event ownership", func(t *testing.T) {
		event := openEvent(1, domain.EventTypeNormal)
		event.RegistrationFee = 100
		svc, _, _, _ := newRegistrationFixture(t, event)

		reg, err := svc.Register(ctx, 1, 1, nil)
		require.NoError(t, err)

		_, err = svc.ApprovePayment(ctx, 999, reg.ID)
		assert.ErrorIs(t, err, ErrNotEventOwner)
	})

	t.Run("approve merchandise order issues ticket", func(t *testing.T) {
		event := openEvent(1, domain.EventTypeMerchandise)
		event.Merchandise = []domain.MerchandiseItem{
			{ID: 10, EventID: 1, Name: "T-Shirt", Stock: 3, Price: 499},
		}
		svc, _, _, _ := newRegistrationFixture(t, event)

		reg, err := svc.OrderMerchandise(ctx, 1, 1, "T-Shirt", "", "", 1, nil)
		require.NoError(t, err)

		_, err = svc.UploadPaymentProof(ctx, 1, reg.ID, "/uploads/proof.png")
		require.NoError(t, err)

		approved, err := svc.ApprovePayment(ctx, 100, reg.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RegistrationConfirmed, approved.Status)
		assert.Equal(t, domain.PaymentApproved, approved.PaymentStatus)
		assert.NotEmpty(t, approved.TicketID)
	})

	t.Run("double approval fails", func(t *testing.T) {
		event := openEvent(1, domain.EventTypeNormal)
		event.RegistrationFee = 100
		svc, _, _, _ := newRegistrationFixture(t, event)

		reg, err := svc.Register(ctx, 1, 1, nil)
		require.NoError(t, err)
		_, err = svc.UploadPaymentProof(ctx, 1, reg.ID, "/uploads/proof.png")
		require.NoError(t, err)
		_, err = svc.ApprovePayment(ctx, 100, reg.ID)
		require.NoError(t, err)

		_, err = svc.ApprovePayment(ctx, 100, reg.ID)
		assert.ErrorIs(t, err, ErrPaymentNotPending)
	})

	t.Run("reject records reason", func(t *testing.T) {
		event := openEvent(1, domain.EventTypeMerchandise)
		event.Merchandise = []domain.MerchandiseItem{
			{ID: 10, EventID: 1, Name: "T-Shirt", Stock: 3, Price: 499},
		}
		svc, _, _, _ := newRegistrationFixture(t, event)

		reg, err := svc.OrderMerchandise(ctx, 1, 1, "T-Shirt", "", "", 1, nil)
		require.NoError(t, err)

		rejected, err := svc.RejectPayment(ctx, 100, reg.ID, "blurry screenshot")
		require.NoError(t, err)
		assert.Equal(t, domain.RegistrationRejected, rejected.Status)
		assert.Equal(t, domain.PaymentRejected, rejected.PaymentStatus)
		assert.Equal(t, "blurry screenshot", rejected.RejectionReason)
	})
}

func TestRegistrationService_CheckIn(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*RegistrationService, domain.Registration) {
		t.Helper()
		svc, _, _, _ := newRegistrationFixture(t, openEvent(1, domain.EventTypeNormal))
		reg, err := svc.Register(ctx, 1, 1, nil)
		require.NoError(t, err)
		return svc, reg
	}

	t.Run("marks attendance once", func(t *testing.T) {
		svc, reg := setup(t)

		marked, err := svc.CheckIn(ctx, 100, 1, reg.QRPayload)

		require.NoError(t, err)
		assert.True(t, marked.Attendance.Marked)
		assert.Equal(t, uint(100), marked.Attendance.MarkedBy)
	})

	t.Run("second scan reports original mark", func(t *testing.T) {
		svc, reg := setup(t)

		first, err := svc.CheckIn(ctx, 100, 1, reg.QRPayload)
		require.NoError(t, err)

		second, err := svc.CheckIn(ctx, 100, 1, reg.QRPayload)
		assert.ErrorIs(t, err, domain.ErrAttendanceAlreadyMarked)
		require.NotNil(t, second.Attendance.MarkedAt)
		assert.Equal(t, first.Attendance.MarkedAt.Unix(), second.Attendance.MarkedAt.Unix())
	})

	t.Run("rejects garbage payloads", func(t *testing.T) {
		svc, _ := setup(t)

		_, err := svc.CheckIn(ctx, 100, 1, "not-a-ticket")

		assert.ErrorIs(t, err, ErrInvalidTicket)
	})

	t.Run("rejects tickets from other events", func(t *testing.T) {
		svc, _ := setup(t)
		payload, _ := domain.NewTicketPayload("FEL-1-0001", 2, 1, time.Now()).Encode()

		_, err := svc.CheckIn(ctx, 100, 1, payload)

		assert.ErrorIs(t, err, ErrInvalidTicket)
	})

	t.Run("only the event owner can scan", func(t *testing.T) {
		svc, reg := setup(t)

		_, err := svc.CheckIn(ctx, 999, 1, reg.QRPayload)

		assert.ErrorIs(t, err, ErrNotEventOwner)
	})

	t.Run("manual check-in by registration ID", func(t *testing.T) {
		svc, reg := setup(t)

		marked, err := svc.CheckInManual(ctx, 100, 1, reg.ID)

		require.NoError(t, err)
		assert.True(t, marked.Attendance.Marked)

		_, err = svc.CheckInManual(ctx, 100, 1, reg.ID)
		assert.ErrorIs(t, err, domain.ErrAttendanceAlreadyMarked)
	})

	t.Run("manual check-in rejects registrations of other events", func(t *testing.T) {
		svc, regRepo, eventRepo, _ := newRegistrationFixture(t, openEvent(1, domain.EventTypeNormal))
		other := openEvent(2, domain.EventTypeNormal)
		other.OrganizerID = 100
		_, err := eventRepo.Create(ctx, other)
		require.NoError(t, err)
		foreign, err := regRepo.CreateConfirmed(ctx, domain.Registration{
			EventID:       2,
			ParticipantID: 1,
			Status:        domain.RegistrationConfirmed,
		})
		require.NoError(t, err)

		_, err = svc.CheckInManual(ctx, 100, 1, foreign.ID)

		assert.ErrorIs(t, err, ErrRegistrationNotFound)
	})
}

func TestRegistrationService_GetTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("returns confirmed ticket", func(t *testing.T) {
		svc, _, _, _ := newRegistrationFixture(t, openEvent(1, domain.EventTypeNormal))
		reg, err := svc.Register(ctx, 1, 1, nil)
		require.NoError(t, err)

		ticket, err := svc.GetTicket(ctx, 1, 1)

		require.NoError(t, err)
		assert.Equal(t, reg.TicketID, ticket.TicketID)
	})

	t.Run("pending order has no ticket", func(t *testing.T) {
		event := openEvent(1, domain.EventTypeMerchandise)
		event.Merchandise = []domain.MerchandiseItem{
			{ID: 10, EventID: 1, Name: "T-Shirt", Stock: 3, Price: 499},
		}
		svc, _, _, _ := newRegistrationFixture(t, event)
		_, err := svc.OrderMerchandise(ctx, 1, 1, "T-Shirt", "", "", 1, nil)
		require.NoError(t, err)

		_, err = svc.GetTicket(ctx, 1, 1)

		assert.ErrorIs(t, err, ErrRegistrationNotConfirmed)
	})
}
