package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(status EventStatus) Event {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return Event{
		ID:                   1,
		Name:                 "Hackathon",
		Type:                 EventTypeNormal,
		OrganizerID:          7,
		Eligibility:          EligibilityAll,
		RegistrationDeadline: now.Add(-time.Hour),
		StartDate:            now,
		EndDate:              now.Add(8 * time.Hour),
		Status:               status,
	}
}

func TestEvent_Validate(t *testing.T) {
	t.Run("valid event passes", func(t *testing.T) {
		event := testEvent(EventDraft)

		require.NoError(t, event.Validate())
	})

	t.Run("end before start", func(t *testing.T) {
		event := testEvent(EventDraft)
		event.EndDate = event.StartDate.Add(-time.Hour)

		assert.ErrorIs(t, event.Validate(), ErrEndBeforeStart)
	})

	t.Run("deadline after start", func(t *testing.T) {
		event := testEvent(EventDraft)
		event.RegistrationDeadline = event.StartDate.Add(time.Minute)

		assert.ErrorIs(t, event.Validate(), ErrDeadlineAfterStart)
	})

	t.Run("zero registration limit", func(t *testing.T) {
		event := testEvent(EventDraft)
		limit := 0
		event.RegistrationLimit = &limit

		assert.ErrorIs(t, event.Validate(), ErrInvalidLimit)
	})
}

func TestEvent_Reconcile(t *testing.T) {
	t.Run("published becomes ongoing at start", func(t *testing.T) {
		event := testEvent(EventPublished)

		changed := event.Reconcile(event.StartDate.Add(time.Minute))

		assert.True(t, changed)
		assert.Equal(t, EventOngoing, event.Status)
	})

	t.Run("published before start stays published", func(t *testing.T) {
		event := testEvent(EventPublished)

		changed := event.Reconcile(event.StartDate.Add(-time.Minute))

		assert.False(t, changed)
		assert.Equal(t, EventPublished, event.Status)
	})

	t.Run("end date wins over start date", func(t *testing.T) {
		event := testEvent(EventPublished)

		changed := event.Reconcile(event.EndDate.Add(time.Hour))

		assert.True(t, changed)
		assert.Equal(t, EventCompleted, event.Status)
	})

	t.Run("ongoing completes at end", func(t *testing.T) {
		event := testEvent(EventOngoing)

		changed := event.Reconcile(event.EndDate)

		assert.True(t, changed)
		assert.Equal(t, EventCompleted, event.Status)
	})

	t.Run("draft never moves", func(t *testing.T) {
		event := testEvent(EventDraft)

		changed := event.Reconcile(event.EndDate.Add(time.Hour))

		assert.False(t, changed)
		assert.Equal(t, EventDraft, event.Status)
	})

	t.Run("closed never moves", func(t *testing.T) {
		event := testEvent(EventClosed)

		changed := event.Reconcile(event.EndDate.Add(time.Hour))

		assert.False(t, changed)
		assert.Equal(t, EventClosed, event.Status)
	})
}

func TestEvent_IsFull(t *testing.T) {
	event := testEvent(EventPublished)
	assert.False(t, event.IsFull(), "no limit means unlimited")

	limit := 2
	event.RegistrationLimit = &limit
	event.CurrentRegistrations = 1
	assert.False(t, event.IsFull())

	event.CurrentRegistrations = 2
	assert.True(t, event.IsFull())
}

func TestEligibility_Accepts(t *testing.T) {
	assert.True(t, EligibilityAll.Accepts(ParticipantIIIT))
	assert.True(t, EligibilityAll.Accepts(ParticipantNonIIIT))
	assert.True(t, EligibilityIIITOnly.Accepts(ParticipantIIIT))
	assert.False(t, EligibilityIIITOnly.Accepts(ParticipantNonIIIT))
	assert.False(t, EligibilityNonIIITOnly.Accepts(ParticipantIIIT))
	assert.True(t, EligibilityNonIIITOnly.Accepts(ParticipantNonIIIT))
}

func TestEvent_FindMerchandiseItem(t *testing.T) {
	event := testEvent(EventPublished)
	event.Type = EventTypeMerchandise
	event.Merchandise = []MerchandiseItem{
		{ID: 1, Name: "T-Shirt", Size: "M", Color: "Black", Stock: 10, Price: 499},
		{ID: 2, Name: "T-Shirt", Size: "L", Color: "Black", Stock: 5, Price: 499},
		{ID: 3, Name: "Mug", Stock: 20, Price: 199},
	}

	t.Run("matches on name size and color", func(t *testing.T) {
		item := event.FindMerchandiseItem("T-Shirt", "L", "Black")

		require.NotNil(t, item)
		assert.Equal(t, uint(2), item.ID)
	})

	t.Run("empty size matches any", func(t *testing.T) {
		item := event.FindMerchandiseItem("T-Shirt", "", "")

		require.NotNil(t, item)
		assert.Equal(t, uint(1), item.ID)
	})

	t.Run("unknown item", func(t *testing.T) {
		assert.Nil(t, event.FindMerchandiseItem("Hoodie", "", ""))
	})
}

func TestEvent_ApplyUpdate(t *testing.T) {
	strPtr := func(s string) *string { return &s }
	intPtr := func(i int) *int { return &i }

	t.Run("draft is fully editable", func(t *testing.T) {
		event := testEvent(EventDraft)
		newStart := event.StartDate.Add(24 * time.Hour)
		newEnd := event.EndDate.Add(24 * time.Hour)

		err := event.ApplyUpdate(EventUpdate{
			Name:      strPtr("Renamed"),
			StartDate: &newStart,
			EndDate:   &newEnd,
		})

		require.NoError(t, err)
		assert.Equal(t, "Renamed", event.Name)
		assert.Equal(t, newStart, event.StartDate)
	})

	t.Run("draft edit is revalidated", func(t *testing.T) {
		event := testEvent(EventDraft)
		badEnd := event.StartDate.Add(-time.Hour)

		err := event.ApplyUpdate(EventUpdate{EndDate: &badEnd})

		assert.ErrorIs(t, err, ErrEndBeforeStart)
	})

	t.Run("published allows description", func(t *testing.T) {
		event := testEvent(EventPublished)

		err := event.ApplyUpdate(EventUpdate{Description: strPtr("new details")})

		require.NoError(t, err)
		assert.Equal(t, "new details", event.Description)
	})

	t.Run("published rejects name change silently ignores it", func(t *testing.T) {
		event := testEvent(EventPublished)

		err := event.ApplyUpdate(EventUpdate{Name: strPtr("Renamed")})

		require.NoError(t, err)
		assert.Equal(t, "Hackathon", event.Name)
	})

	t.Run("published rejects deadline decrease", func(t *testing.T) {
		event := testEvent(EventPublished)
		earlier := event.RegistrationDeadline.Add(-time.Hour)

		err := event.ApplyUpdate(EventUpdate{RegistrationDeadline: &earlier})

		assert.ErrorIs(t, err, ErrDeadlineDecreased)
	})

	t.Run("published rejects limit decrease", func(t *testing.T) {
		event := testEvent(EventPublished)
		event.RegistrationLimit = intPtr(100)

		err := event.ApplyUpdate(EventUpdate{RegistrationLimit: intPtr(50)})

		assert.ErrorIs(t, err, ErrLimitDecreased)
	})

	t.Run("published allows limit increase", func(t *testing.T) {
		event := testEvent(EventPublished)
		event.RegistrationLimit = intPtr(100)

		err := event.ApplyUpdate(EventUpdate{RegistrationLimit: intPtr(150)})

		require.NoError(t, err)
		assert.Equal(t, 150, *event.RegistrationLimit)
	})

	t.Run("completed allows nothing", func(t *testing.T) {
		event := testEvent(EventCompleted)

		err := event.ApplyUpdate(EventUpdate{Description: strPtr("too late")})

		assert.ErrorIs(t, err, ErrEventNotEditable)
	})
}
