package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/repository"
)

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, repository.ErrUserNotFound
}

func (f *fakeUserRepo) CreateParticipant(ctx context.Context, participant domain.Participant) (domain.Participant, error) {
	for _, u := range f.users {
		if u.Email == participant.Email {
			return domain.Participant{}, repository.ErrUserEmailExists
		}
	}
	participant.ID = uint(len(f.users) + 1)
	participant.Role = domain.RoleParticipant
	f.addParticipant(participant)
	return participant, nil
}

func (f *fakeUserRepo) UpdateParticipant(ctx context.Context, participant domain.Participant) (domain.Participant, error) {
	if _, ok := f.participants[participant.ID]; !ok {
		return domain.Participant{}, repository.ErrUserNotFound
	}
	f.addParticipant(participant)
	return participant, nil
}

func (f *fakeUserRepo) UpdateOrganizerProfile(ctx context.Context, organizer domain.Organizer) (domain.Organizer, error) {
	if _, ok := f.organizers[organizer.ID]; !ok {
		return domain.Organizer{}, repository.ErrUserNotFound
	}
	f.addOrganizer(organizer)
	return organizer, nil
}

func TestAuthService_SignupAndLogin(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo()
	svc := NewAuthService(repo)

	participant := participantFixture(0, domain.ParticipantIIIT)
	participant.Email = "asha@students.iiit.ac.in"
	participant.Password = "hunter2hunter2"

	created, err := svc.SignupParticipant(ctx, participant)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2hunter2", created.Password, "password is stored hashed")

	t.Run("login with the right password", func(t *testing.T) {
		user, err := svc.Login(ctx, "asha@students.iiit.ac.in", "hunter2hunter2")

		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
	})

	t.Run("login with the wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "asha@students.iiit.ac.in", "nope")

		assert.ErrorIs(t, err, ErrWrongPassword)
	})

	t.Run("login with an unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, "ghost@example.com", "whatever")

		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("duplicate signup", func(t *testing.T) {
		_, err := svc.SignupParticipant(ctx, participant)

		assert.ErrorIs(t, err, ErrUserEmailExists)
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo()
	svc := NewAuthService(repo)

	participant := participantFixture(0, domain.ParticipantIIIT)
	participant.Email = "asha@students.iiit.ac.in"
	participant.Password = "oldpassword1"
	created, err := svc.SignupParticipant(ctx, participant)
	require.NoError(t, err)

	t.Run("wrong current password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, created.ID, "wrong", "newpassword1")

		assert.ErrorIs(t, err, ErrWrongPassword)
	})

	t.Run("rotates and old password stops working", func(t *testing.T) {
		require.NoError(t, svc.ChangePassword(ctx, created.ID, "oldpassword1", "newpassword1"))

		_, err := svc.Login(ctx, "asha@students.iiit.ac.in", "oldpassword1")
		assert.ErrorIs(t, err, ErrWrongPassword)

		_, err = svc.Login(ctx, "asha@students.iiit.ac.in", "newpassword1")
		assert.NoError(t, err)
	})
}

func TestUserService_ToggleFollowOrganizer(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo()
	repo.addParticipant(participantFixture(1, domain.ParticipantIIIT))
	repo.addOrganizer(organizerFixture(100, "Robotics Club"))
	svc := NewUserService(repo)

	following, err := svc.ToggleFollowOrganizer(ctx, 1, 100)
	require.NoError(t, err)
	assert.True(t, following)

	following, err = svc.ToggleFollowOrganizer(ctx, 1, 100)
	require.NoError(t, err)
	assert.False(t, following)

	_, err = svc.ToggleFollowOrganizer(ctx, 1, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
