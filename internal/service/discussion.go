package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/repository"
)

var (
	ErrMessageNotFound  = repository.ErrMessageNotFound
	ErrNotBoardMember   = errors.New("user cannot post on this event board")
	ErrNotMessageAuthor = errors.New("message belongs to another user")
	ErrParentMissing    = errors.New("parent message not found on this board")
	ErrMessageDeleted   = errors.New("message has been deleted")
)

type DiscussionRepo interface {
	Create(ctx context.Context, message domain.DiscussionMessage) (domain.DiscussionMessage, error)
	FindByID(ctx context.Context, id uint) (domain.DiscussionMessage, error)
	FindByEvent(ctx context.Context, eventID uint) ([]domain.DiscussionMessage, error)
	SetPinned(ctx context.Context, id uint, pinned bool) error
	SoftDelete(ctx context.Context, id uint) error
	UpdateReactions(ctx context.Context, id uint, reactions map[string][]uint) error
}

type DiscussionEventRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Event, error)
}

type DiscussionRegistrationRepository interface {
	FindByEventAndParticipant(ctx context.Context, eventID, participantID uint) (domain.Registration, error)
}

type DiscussionUserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindParticipantByUserID(ctx context.Context, userID uint) (domain.Participant, error)
	FindOrganizerByUserID(ctx context.Context, userID uint) (domain.Organizer, error)
}

// BoardBroadcaster pushes a new message to everyone watching the board
// live. Implementations must not block.
type BoardBroadcaster interface {
	BroadcastMessage(eventID uint, message domain.DiscussionMessage)
}

type DiscussionService struct {
	repo        DiscussionRepo
	eventRepo   DiscussionEventRepository
	regRepo     DiscussionRegistrationRepository
	userRepo    DiscussionUserRepository
	broadcaster BoardBroadcaster
}

func NewDiscussionService(repo DiscussionRepo, eventRepo DiscussionEventRepository, regRepo DiscussionRegistrationRepository, userRepo DiscussionUserRepository, broadcaster BoardBroadcaster) *DiscussionService {
	return &DiscussionService{
		repo:        repo,
		eventRepo:   eventRepo,
		regRepo:     regRepo,
		userRepo:    userRepo,
		broadcaster: broadcaster,
	}
}

// resolveAuthor checks board membership and builds the author identity:
// admins and the owning organizer always post, participants need a
// confirmed registration.
func (s *DiscussionService) resolveAuthor(ctx context.Context, eventID, userID uint) (domain.MessageAuthor, error) {
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return domain.MessageAuthor{}, fmt.Errorf("s.eventRepo.FindByID -> %w", err)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return domain.MessageAuthor{}, fmt.Errorf("s.userRepo.FindByID -> %w", err)
	}

	switch user.Role {
	case domain.RoleAdmin:
		return domain.MessageAuthor{UserID: userID, Kind: domain.RoleAdmin, Name: "Felicity Admin"}, nil

	case domain.RoleOrganizer:
		if event.OrganizerID != userID {
			return domain.MessageAuthor{}, ErrNotBoardMember
		}
		organizer, oErr := s.userRepo.FindOrganizerByUserID(ctx, userID)
		if oErr != nil {
			return domain.MessageAuthor{}, fmt.Errorf("s.userRepo.FindOrganizerByUserID -> %w", oErr)
		}
		return domain.MessageAuthor{UserID: userID, Kind: domain.RoleOrganizer, Name: organizer.Name}, nil

	default:
		registration, rErr := s.regRepo.FindByEventAndParticipant(ctx, eventID, userID)
		if rErr != nil || registration.Status != domain.RegistrationConfirmed {
			return domain.MessageAuthor{}, ErrNotBoardMember
		}
		participant, pErr := s.userRepo.FindParticipantByUserID(ctx, userID)
		if pErr != nil {
			return domain.MessageAuthor{}, fmt.Errorf("s.userRepo.FindParticipantByUserID -> %w", pErr)
		}
		name := participant.FirstName
		if participant.LastName != "" {
			name += " " + participant.LastName
		}
		return domain.MessageAuthor{UserID: userID, Kind: domain.RoleParticipant, Name: name}, nil
	}
}

// PostMessage adds a message (or a reply, when parentID is set) to the
// event board and broadcasts it to live watchers.
func (s *DiscussionService) PostMessage(ctx context.Context, eventID, userID uint, content string, parentID *uint) (domain.DiscussionMessage, error) {
	author, err := s.resolveAuthor(ctx, eventID, userID)
	if err != nil {
		return domain.DiscussionMessage{}, err
	}

	if parentID != nil {
		parent, pErr := s.repo.FindByID(ctx, *parentID)
		if pErr != nil || parent.EventID != eventID {
			return domain.DiscussionMessage{}, ErrParentMissing
		}
	}

	created, err := s.repo.Create(ctx, domain.DiscussionMessage{
		EventID:  eventID,
		Author:   author,
		Content:  content,
		ParentID: parentID,
	})
	if err != nil {
		return domain.DiscussionMessage{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	s.broadcaster.BroadcastMessage(eventID, created)

	return created, nil
}

// ListMessages returns the board, pinned first then newest. Deleted
// messages come back blanked but present so reply threads keep shape.
func (s *DiscussionService) ListMessages(ctx context.Context, eventID uint) ([]domain.DiscussionMessage, error) {
	if _, err := s.eventRepo.FindByID(ctx, eventID); err != nil {
		return nil, fmt.Errorf("s.eventRepo.FindByID -> %w", err)
	}

	messages, err := s.repo.FindByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByEvent -> %w", err)
	}

	return messages, nil
}

// PinMessage toggles the pin. Only the owning organizer or an admin may
// pin.
func (s *DiscussionService) PinMessage(ctx context.Context, userID, messageID uint, pinned bool) error {
	message, err := s.repo.FindByID(ctx, messageID)
	if err != nil {
		return fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if err = s.requireModerator(ctx, message.EventID, userID); err != nil {
		return err
	}

	if err = s.repo.SetPinned(ctx, messageID, pinned); err != nil {
		return fmt.Errorf("s.repo.SetPinned -> %w", err)
	}

	return nil
}

// DeleteMessage soft-deletes. Authors delete their own messages; the
// owning organizer and admins delete anything.
func (s *DiscussionService) DeleteMessage(ctx context.Context, userID, messageID uint) error {
	message, err := s.repo.FindByID(ctx, messageID)
	if err != nil {
		return fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if message.Author.UserID != userID {
		if err = s.requireModerator(ctx, message.EventID, userID); err != nil {
			return ErrNotMessageAuthor
		}
	}

	if err = s.repo.SoftDelete(ctx, messageID); err != nil {
		return fmt.Errorf("s.repo.SoftDelete -> %w", err)
	}

	return nil
}

// ToggleReaction flips the caller's emoji reaction on a message and
// reports the resulting state.
func (s *DiscussionService) ToggleReaction(ctx context.Context, userID, messageID uint, emoji string) (domain.DiscussionMessage, bool, error) {
	message, err := s.repo.FindByID(ctx, messageID)
	if err != nil {
		return domain.DiscussionMessage{}, false, fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if message.Deleted {
		return domain.DiscussionMessage{}, false, ErrMessageDeleted
	}

	if _, err = s.resolveAuthor(ctx, message.EventID, userID); err != nil {
		return domain.DiscussionMessage{}, false, err
	}

	reacted := message.ToggleReaction(emoji, userID)

	if err = s.repo.UpdateReactions(ctx, messageID, message.Reactions); err != nil {
		return domain.DiscussionMessage{}, false, fmt.Errorf("s.repo.UpdateReactions -> %w", err)
	}

	return message, reacted, nil
}

func (s *DiscussionService) requireModerator(ctx context.Context, eventID, userID uint) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("s.userRepo.FindByID -> %w", err)
	}
	if user.Role == domain.RoleAdmin {
		return nil
	}

	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("s.eventRepo.FindByID -> %w", err)
	}
	if user.Role == domain.RoleOrganizer && event.OrganizerID == userID {
		return nil
	}

	return ErrNotBoardMember
}
