package repository

import (
	"context"
	"fmt"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/repository/dao"
)

var (
	ErrUserEmailExists     = dao.ErrUserEmailExists
	ErrUserNotFound        = dao.ErrUserNotFound
	ErrOrganizerNameExists = dao.ErrOrganizerNameExists
)

type UserDAO interface {
	Insert(ctx context.Context, user dao.User) (dao.User, error)
	FindByID(ctx context.Context, id uint) (dao.User, error)
	FindByEmail(ctx context.Context, email string) (dao.User, error)
	InsertParticipant(ctx context.Context, user dao.User, participant dao.Participant) (dao.Participant, error)
	InsertOrganizer(ctx context.Context, user dao.User, organizer dao.Organizer) (dao.Organizer, error)
	FindParticipantByUserID(ctx context.Context, userID uint) (dao.Participant, error)
	FindOrganizerByUserID(ctx context.Context, userID uint) (dao.Organizer, error)
	FindAllOrganizers(ctx context.Context) ([]dao.Organizer, error)
	UpdateParticipant(ctx context.Context, participant dao.Participant) (dao.Participant, error)
	UpdateOrganizerProfile(ctx context.Context, organizer dao.Organizer) (dao.Organizer, error)
	UpdatePassword(ctx context.Context, userID uint, hashedPassword string) error
	DeleteOrganizer(ctx context.Context, userID uint) error
}

type UserRepository struct {
	dao UserDAO
}

func NewUserRepository(dao UserDAO) *UserRepository {
	return &UserRepository{
		dao: dao,
	}
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	created, err := r.dao.Insert(ctx, dao.User{
		Email:    user.Email,
		Password: user.Password,
		Role:     string(user.Role),
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *UserRepository) CreateParticipant(ctx context.Context, participant domain.Participant) (domain.Participant, error) {
	daoUser := dao.User{
		Email:    participant.Email,
		Password: participant.Password,
		Role:     string(domain.RoleParticipant),
	}

	daoParticipant := dao.Participant{
		FirstName:          participant.FirstName,
		LastName:           participant.LastName,
		ParticipantType:    string(participant.ParticipantType),
		CollegeName:        participant.CollegeName,
		ContactNumber:      participant.ContactNumber,
		Interests:          participant.Interests,
		FollowedOrganizers: participant.FollowedOrganizers,
		OnboardingComplete: participant.OnboardingComplete,
	}

	created, err := r.dao.InsertParticipant(ctx, daoUser, daoParticipant)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("r.dao.InsertParticipant -> %w", err)
	}

	return r.participantDaoToDomain(created), nil
}

func (r *UserRepository) CreateOrganizer(ctx context.Context, organizer domain.Organizer) (domain.Organizer, error) {
	daoUser := dao.User{
		Email:    organizer.Email,
		Password: organizer.Password,
		Role:     string(domain.RoleOrganizer),
	}

	daoOrganizer := dao.Organizer{
		Name:           organizer.Name,
		Category:       organizer.Category,
		Description:    organizer.Description,
		ContactEmail:   organizer.ContactEmail,
		ContactNumber:  organizer.ContactNumber,
		DiscordWebhook: organizer.DiscordWebhook,
	}

	created, err := r.dao.InsertOrganizer(ctx, daoUser, daoOrganizer)
	if err != nil {
		return domain.Organizer{}, fmt.Errorf("r.dao.InsertOrganizer -> %w", err)
	}

	return r.organizerDaoToDomain(created), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (domain.User, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	found, err := r.dao.FindByEmail(ctx, email)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByEmail -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *UserRepository) FindParticipantByUserID(ctx context.Context, userID uint) (domain.Participant, error) {
	found, err := r.dao.FindParticipantByUserID(ctx, userID)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("r.dao.FindParticipantByUserID -> %w", err)
	}

	return r.participantDaoToDomain(found), nil
}

func (r *UserRepository) FindOrganizerByUserID(ctx context.Context, userID uint) (domain.Organizer, error) {
	found, err := r.dao.FindOrganizerByUserID(ctx, userID)
	if err != nil {
		return domain.Organizer{}, fmt.Errorf("r.dao.FindOrganizerByUserID -> %w", err)
	}

	return r.organizerDaoToDomain(found), nil
}

func (r *UserRepository) FindAllOrganizers(ctx context.Context) ([]domain.Organizer, error) {
	found, err := r.dao.FindAllOrganizers(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAllOrganizers -> %w", err)
	}

	organizers := make([]domain.Organizer, 0, len(found))
	for _, o := range found {
		organizers = append(organizers, r.organizerDaoToDomain(o))
	}

	return organizers, nil
}

func (r *UserRepository) UpdateParticipant(ctx context.Context, participant domain.Participant) (domain.Participant, error) {
	updated, err := r.dao.UpdateParticipant(ctx, dao.Participant{
		UserID:             participant.ID,
		FirstName:          participant.FirstName,
		LastName:           participant.LastName,
		CollegeName:        participant.CollegeName,
		ContactNumber:      participant.ContactNumber,
		Interests:          participant.Interests,
		FollowedOrganizers: participant.FollowedOrganizers,
		OnboardingComplete: participant.OnboardingComplete,
	})
	if err != nil {
		return domain.Participant{}, fmt.Errorf("r.dao.UpdateParticipant -> %w", err)
	}

	return r.participantDaoToDomain(updated), nil
}

func (r *UserRepository) UpdateOrganizerProfile(ctx context.Context, organizer domain.Organizer) (domain.Organizer, error) {
	updated, err := r.dao.UpdateOrganizerProfile(ctx, dao.Organizer{
		UserID:         organizer.ID,
		Category:       organizer.Category,
		Description:    organizer.Description,
		ContactEmail:   organizer.ContactEmail,
		ContactNumber:  organizer.ContactNumber,
		DiscordWebhook: organizer.DiscordWebhook,
	})
	if err != nil {
		return domain.Organizer{}, fmt.Errorf("r.dao.UpdateOrganizerProfile -> %w", err)
	}

	return r.organizerDaoToDomain(updated), nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID uint, hashedPassword string) error {
	if err := r.dao.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return fmt.Errorf("r.dao.UpdatePassword -> %w", err)
	}

	return nil
}

func (r *UserRepository) DeleteOrganizer(ctx context.Context, userID uint) error {
	if err := r.dao.DeleteOrganizer(ctx, userID); err != nil {
		return fmt.Errorf("r.dao.DeleteOrganizer -> %w", err)
	}

	return nil
}

func (r *UserRepository) daoToDomain(u dao.User) domain.User {
	return domain.User{
		ID:        u.ID,
		Email:     u.Email,
		Password:  u.Password,
		Role:      domain.Role(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (r *UserRepository) participantDaoToDomain(p dao.Participant) domain.Participant {
	return domain.Participant{
		User:               r.daoToDomain(p.User),
		FirstName:          p.FirstName,
		LastName:           p.LastName,
		ParticipantType:    domain.ParticipantType(p.ParticipantType),
		CollegeName:        p.CollegeName,
		ContactNumber:      p.ContactNumber,
		Interests:          p.Interests,
		FollowedOrganizers: p.FollowedOrganizers,
		OnboardingComplete: p.OnboardingComplete,
	}
}

func (r *UserRepository) organizerDaoToDomain(o dao.Organizer) domain.Organizer {
	return domain.Organizer{
		User:           r.daoToDomain(o.User),
		Name:           o.Name,
		Category:       o.Category,
		Description:    o.Description,
		ContactEmail:   o.ContactEmail,
		ContactNumber:  o.ContactNumber,
		DiscordWebhook: o.DiscordWebhook,
	}
}
