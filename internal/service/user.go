package service

import (
	"context"
	"fmt"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/repository"
)

var ErrUserNotFound = repository.ErrUserNotFound

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindParticipantByUserID(ctx context.Context, userID uint) (domain.Participant, error)
	FindOrganizerByUserID(ctx context.Context, userID uint) (domain.Organizer, error)
	FindAllOrganizers(ctx context.Context) ([]domain.Organizer, error)
	UpdateParticipant(ctx context.Context, participant domain.Participant) (domain.Participant, error)
	UpdateOrganizerProfile(ctx context.Context, organizer domain.Organizer) (domain.Organizer, error)
}

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{
		repo: repo,
	}
}

func (s *UserService) GetUser(ctx context.Context, id uint) (domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return user, nil
}

func (s *UserService) GetParticipant(ctx context.Context, userID uint) (domain.Participant, error) {
	participant, err := s.repo.FindParticipantByUserID(ctx, userID)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("s.repo.FindParticipantByUserID -> %w", err)
	}

	return participant, nil
}

func (s *UserService) GetOrganizer(ctx context.Context, userID uint) (domain.Organizer, error) {
	organizer, err := s.repo.FindOrganizerByUserID(ctx, userID)
	if err != nil {
		return domain.Organizer{}, fmt.Errorf("s.repo.FindOrganizerByUserID -> %w", err)
	}

	return organizer, nil
}

func (s *UserService) ListOrganizers(ctx context.Context) ([]domain.Organizer, error) {
	organizers, err := s.repo.FindAllOrganizers(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAllOrganizers -> %w", err)
	}

	return organizers, nil
}

// UpdateParticipantProfile applies a partial profile update, including
// onboarding completion with interest selection.
func (s *UserService) UpdateParticipantProfile(ctx context.Context, participant domain.Participant) (domain.Participant, error) {
	updated, err := s.repo.UpdateParticipant(ctx, participant)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("s.repo.UpdateParticipant -> %w", err)
	}

	return updated, nil
}

// ToggleFollowOrganizer flips the follow state and reports whether the
// participant follows the organizer afterwards.
func (s *UserService) ToggleFollowOrganizer(ctx context.Context, participantID, organizerID uint) (bool, error) {
	if _, err := s.repo.FindOrganizerByUserID(ctx, organizerID); err != nil {
		return false, fmt.Errorf("s.repo.FindOrganizerByUserID -> %w", err)
	}

	participant, err := s.repo.FindParticipantByUserID(ctx, participantID)
	if err != nil {
		return false, fmt.Errorf("s.repo.FindParticipantByUserID -> %w", err)
	}

	following := participant.ToggleFollow(organizerID)

	if _, err = s.repo.UpdateParticipant(ctx, participant); err != nil {
		return false, fmt.Errorf("s.repo.UpdateParticipant -> %w", err)
	}

	return following, nil
}

func (s *UserService) UpdateOrganizerProfile(ctx context.Context, organizer domain.Organizer) (domain.Organizer, error) {
	updated, err := s.repo.UpdateOrganizerProfile(ctx, organizer)
	if err != nil {
		return domain.Organizer{}, fmt.Errorf("s.repo.UpdateOrganizerProfile -> %w", err)
	}

	return updated, nil
}
