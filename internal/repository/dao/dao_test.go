package dao_test

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/felicity-events/felicity-api/internal/db"
	"github.com/felicity-events/felicity-api/internal/repository/dao"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("could not construct docker pool: %s", err)
	}
	if err = pool.Client.Ping(); err != nil {
		log.Fatalf("could not connect to docker: %s", err)
	}

	resource, err := pool.Run("postgres", "16-alpine", []string{
		"POSTGRES_USER=felicity",
		"POSTGRES_PASSWORD=secret",
		"POSTGRES_DB=felicity_test",
	})
	if err != nil {
		log.Fatalf("could not start postgres: %s", err)
	}
	_ = resource.Expire(180)

	databaseURL := fmt.Sprintf(
		"postgres://felicity:secret@%s/felicity_test?sslmode=disable",
		resource.GetHostPort("5432/tcp"),
	)

	pool.MaxWait = 120 * time.Second
	if err = pool.Retry(func() error {
		testDB, err = db.OpenPostgresWithURL(databaseURL)
		return err
	}); err != nil {
		log.Fatalf("could not connect to postgres: %s", err)
	}

	code := m.Run()

	if err = pool.Purge(resource); err != nil {
		log.Fatalf("could not purge postgres: %s", err)
	}

	os.Exit(code)
}

func requireDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testDB == nil {
		t.Skip("database tests skipped in short mode")
	}
	return testDB
}

func insertParticipant(t *testing.T, userDAO *dao.UserDAO, email string) dao.Participant {
	t.Helper()

	participant, err := userDAO.InsertParticipant(context.Background(),
		dao.User{Email: email, Password: "hash", Role: "participant"},
		dao.Participant{FirstName: "Asha", LastName: "Rao", ParticipantType: "IIIT"},
	)
	require.NoError(t, err)
	return participant
}

func insertEvent(t *testing.T, eventDAO *dao.EventDAO, event dao.Event) dao.Event {
	t.Helper()

	now := time.Now()
	if event.Name == "" {
		event.Name = "Test Event"
	}
	if event.Type == "" {
		event.Type = "NORMAL"
	}
	if event.Eligibility == "" {
		event.Eligibility = "ALL"
	}
	if event.Status == "" {
		event.Status = "PUBLISHED"
	}
	if event.RegistrationDeadline.IsZero() {
		event.RegistrationDeadline = now.Add(24 * time.Hour)
	}
	if event.StartDate.IsZero() {
		event.StartDate = now.Add(48 * time.Hour)
	}
	if event.EndDate.IsZero() {
		event.EndDate = now.Add(72 * time.Hour)
	}
	if event.PurchaseLimitPerUser == 0 {
		event.PurchaseLimitPerUser = 1
	}

	created, err := eventDAO.Insert(context.Background(), event)
	require.NoError(t, err)
	return created
}

func strPtr(s string) *string { return &s }

func TestUserDAO_UniqueConstraints(t *testing.T) {
	ctx := context.Background()
	userDAO := dao.NewUserDAO(requireDB(t))

	insertParticipant(t, userDAO, "unique@students.iiit.ac.in")

	t.Run("duplicate email", func(t *testing.T) {
		_, err := userDAO.InsertParticipant(ctx,
			dao.User{Email: "unique@students.iiit.ac.in", Password: "hash", Role: "participant"},
			dao.Participant{FirstName: "Asha", ParticipantType: "IIIT"},
		)

		assert.ErrorIs(t, err, dao.ErrUserEmailExists)
	})

	t.Run("duplicate organizer name", func(t *testing.T) {
		_, err := userDAO.InsertOrganizer(ctx,
			dao.User{Email: "club1@clubs.iiit.ac.in", Password: "hash", Role: "organizer"},
			dao.Organizer{Name: "Literary Society"},
		)
		require.NoError(t, err)

		_, err = userDAO.InsertOrganizer(ctx,
			dao.User{Email: "club2@clubs.iiit.ac.in", Password: "hash", Role: "organizer"},
			dao.Organizer{Name: "Literary Society"},
		)
		assert.ErrorIs(t, err, dao.ErrOrganizerNameExists)

		_, err = userDAO.FindByID(ctx, 999999)
		assert.ErrorIs(t, err, dao.ErrUserNotFound)
	})

	t.Run("password update needs an existing user", func(t *testing.T) {
		err := userDAO.UpdatePassword(ctx, 999999, "newhash")

		assert.ErrorIs(t, err, dao.ErrUserNotFound)
	})
}

func TestEventDAO_StatusPredicate(t *testing.T) {
	ctx := context.Background()
	eventDAO := dao.NewEventDAO(requireDB(t))

	event := insertEvent(t, eventDAO, dao.Event{OrganizerID: 1})

	require.NoError(t, eventDAO.UpdateStatus(ctx, event.ID, "PUBLISHED", "ONGOING"))

	err := eventDAO.UpdateStatus(ctx, event.ID, "PUBLISHED", "CLOSED")
	assert.ErrorIs(t, err, dao.ErrStatusConflict)

	found, err := eventDAO.FindByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "ONGOING", found.Status)
}

func TestRegistrationDAO_CapacityAndDuplicates(t *testing.T) {
	ctx := context.Background()
	database := requireDB(t)
	userDAO := dao.NewUserDAO(database)
	eventDAO := dao.NewEventDAO(database)
	regDAO := dao.NewRegistrationDAO(database)

	limit := 2
	event := insertEvent(t, eventDAO, dao.Event{OrganizerID: 1, RegistrationLimit: &limit})
	first := insertParticipant(t, userDAO, "cap-one@students.iiit.ac.in")
	second := insertParticipant(t, userDAO, "cap-two@students.iiit.ac.in")
	third := insertParticipant(t, userDAO, "cap-three@students.iiit.ac.in")

	created, err := regDAO.InsertConfirmed(ctx, dao.Registration{
		EventID:       event.ID,
		ParticipantID: first.UserID,
		Status:        "CONFIRMED",
		PaymentStatus: "NOT_REQUIRED",
		TicketID:      strPtr("FEL-CAP-0001"),
	})
	require.NoError(t, err)

	t.Run("duplicate registration rolls back", func(t *testing.T) {
		_, err := regDAO.InsertConfirmed(ctx, dao.Registration{
			EventID:       event.ID,
			ParticipantID: first.UserID,
			Status:        "CONFIRMED",
			PaymentStatus: "NOT_REQUIRED",
			TicketID:      strPtr("FEL-CAP-0002"),
		})

		assert.ErrorIs(t, err, dao.ErrAlreadyRegistered)

		found, err := eventDAO.FindByID(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, found.CurrentRegistrations, "failed insert must not consume capacity")
	})

	t.Run("capacity enforced in the database", func(t *testing.T) {
		_, err := regDAO.InsertConfirmed(ctx, dao.Registration{
			EventID:       event.ID,
			ParticipantID: second.UserID,
			Status:        "CONFIRMED",
			PaymentStatus: "NOT_REQUIRED",
			TicketID:      strPtr("FEL-CAP-0003"),
		})
		require.NoError(t, err)

		_, err = regDAO.InsertConfirmed(ctx, dao.Registration{
			EventID:       event.ID,
			ParticipantID: third.UserID,
			Status:        "CONFIRMED",
			PaymentStatus: "NOT_REQUIRED",
			TicketID:      strPtr("FEL-CAP-0004"),
		})
		assert.ErrorIs(t, err, dao.ErrEventFull)
	})

	t.Run("first registration locks the form", func(t *testing.T) {
		found, err := eventDAO.FindByID(ctx, event.ID)
		require.NoError(t, err)
		assert.True(t, found.FormLocked)
	})

	t.Run("attendance marks exactly once", func(t *testing.T) {
		require.NoError(t, regDAO.MarkAttendance(ctx, created.ID, 1, time.Now()))

		err := regDAO.MarkAttendance(ctx, created.ID, 1, time.Now())
		assert.ErrorIs(t, err, dao.ErrAttendanceMarked)
	})
}

func TestRegistrationDAO_ConcurrentRegistration(t *testing.T) {
	ctx := context.Background()
	database := requireDB(t)
	userDAO := dao.NewUserDAO(database)
	eventDAO := dao.NewEventDAO(database)
	regDAO := dao.NewRegistrationDAO(database)

	t.Run("one slot admits exactly one of the racers", func(t *testing.T) {
		limit := 1
		event := insertEvent(t, eventDAO, dao.Event{OrganizerID: 1, RegistrationLimit: &limit})

		const racers = 6
		participants := make([]dao.Participant, racers)
		for i := range participants {
			participants[i] = insertParticipant(t, userDAO, fmt.Sprintf("racer-%d@students.iiit.ac.in", i))
		}

		errs := make([]error, racers)
		var wg sync.WaitGroup
		for i := 0; i < racers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = regDAO.InsertConfirmed(ctx, dao.Registration{
					EventID:       event.ID,
					ParticipantID: participants[i].UserID,
					Status:        "CONFIRMED",
					PaymentStatus: "NOT_REQUIRED",
					TicketID:      strPtr(fmt.Sprintf("FEL-RACE-%04d", i)),
				})
			}(i)
		}
		wg.Wait()

		won := 0
		for _, err := range errs {
			if err == nil {
				won++
			} else {
				assert.ErrorIs(t, err, dao.ErrEventFull)
			}
		}
		assert.Equal(t, 1, won)

		found, err := eventDAO.FindByID(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, found.CurrentRegistrations)
	})

	t.Run("unique index arbitrates simultaneous duplicates", func(t *testing.T) {
		event := insertEvent(t, eventDAO, dao.Event{OrganizerID: 1})
		racer := insertParticipant(t, userDAO, "double-click@students.iiit.ac.in")

		const attempts = 4
		errs := make([]error, attempts)
		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = regDAO.InsertConfirmed(ctx, dao.Registration{
					EventID:       event.ID,
					ParticipantID: racer.UserID,
					Status:        "CONFIRMED",
					PaymentStatus: "NOT_REQUIRED",
					TicketID:      strPtr(fmt.Sprintf("FEL-DUP-%04d", i)),
				})
			}(i)
		}
		wg.Wait()

		won := 0
		for _, err := range errs {
			if err == nil {
				won++
			} else {
				assert.ErrorIs(t, err, dao.ErrAlreadyRegistered)
			}
		}
		assert.Equal(t, 1, won)

		found, err := eventDAO.FindByID(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, found.CurrentRegistrations, "losing attempts must roll back their increment")
	})
}

func TestRegistrationDAO_OrderSettlement(t *testing.T) {
	ctx := context.Background()
	database := requireDB(t)
	userDAO := dao.NewUserDAO(database)
	eventDAO := dao.NewEventDAO(database)
	regDAO := dao.NewRegistrationDAO(database)

	event := insertEvent(t, eventDAO, dao.Event{
		Type:        "MERCHANDISE",
		OrganizerID: 1,
		Merchandise: []dao.MerchandiseItem{{Name: "Hoodie", Size: "M", Stock: 3, Price: 499}},
	})
	item := event.Merchandise[0]
	buyer := insertParticipant(t, userDAO, "buyer@students.iiit.ac.in")

	pending, err := regDAO.InsertPending(ctx, dao.Registration{
		EventID:       event.ID,
		ParticipantID: buyer.UserID,
		Status:        "PENDING",
		PaymentStatus: "PENDING",
		Order: &dao.OrderInfo{
			ItemID: item.ID, ItemName: item.Name, Size: item.Size,
			Quantity: 2, UnitPrice: item.Price, Total: 998,
		},
	})
	require.NoError(t, err)

	t.Run("approval decrements stock and issues the ticket", func(t *testing.T) {
		approved, err := regDAO.ApproveOrder(ctx, pending.ID, item.ID, 2, "FEL-ORD-0001", `{"ticket_id":"FEL-ORD-0001"}`)

		require.NoError(t, err)
		assert.Equal(t, "CONFIRMED", approved.Status)
		assert.Equal(t, "APPROVED", approved.PaymentStatus)
		require.NotNil(t, approved.TicketID)
		assert.Equal(t, "FEL-ORD-0001", *approved.TicketID)

		found, err := eventDAO.FindByID(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, found.Merchandise[0].Stock)
		assert.Equal(t, 1, found.CurrentRegistrations)
	})

	t.Run("settled payments are final", func(t *testing.T) {
		_, err := regDAO.ApproveOrder(ctx, pending.ID, item.ID, 1, "FEL-ORD-0002", "{}")
		assert.ErrorIs(t, err, dao.ErrPaymentNotPending)

		_, err = regDAO.RejectOrder(ctx, pending.ID, "too late")
		assert.ErrorIs(t, err, dao.ErrPaymentNotPending)
	})

	t.Run("approval fails without stock", func(t *testing.T) {
		other := insertParticipant(t, userDAO, "buyer2@students.iiit.ac.in")
		secondOrder, err := regDAO.InsertPending(ctx, dao.Registration{
			EventID:       event.ID,
			ParticipantID: other.UserID,
			Status:        "PENDING",
			PaymentStatus: "PENDING",
			Order: &dao.OrderInfo{
				ItemID: item.ID, ItemName: item.Name, Size: item.Size,
				Quantity: 2, UnitPrice: item.Price, Total: 998,
			},
		})
		require.NoError(t, err)

		_, err = regDAO.ApproveOrder(ctx, secondOrder.ID, item.ID, 2, "FEL-ORD-0003", "{}")
		assert.ErrorIs(t, err, dao.ErrNoStock)
	})
}
