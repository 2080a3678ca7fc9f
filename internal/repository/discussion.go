package repository

import (
	"context"
	"fmt"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/repository/dao"
)

var ErrMessageNotFound = dao.ErrMessageNotFound

type DiscussionDAO interface {
	Insert(ctx context.Context, message dao.DiscussionMessage) (dao.DiscussionMessage, error)
	FindByID(ctx context.Context, id uint) (dao.DiscussionMessage, error)
	FindByEvent(ctx context.Context, eventID uint) ([]dao.DiscussionMessage, error)
	SetPinned(ctx context.Context, id uint, pinned bool) error
	SoftDelete(ctx context.Context, id uint) error
	UpdateReactions(ctx context.Context, id uint, reactions map[string][]uint) error
}

type DiscussionRepository struct {
	dao DiscussionDAO
}

func NewDiscussionRepository(dao DiscussionDAO) *DiscussionRepository {
	return &DiscussionRepository{
		dao: dao,
	}
}

func (r *DiscussionRepository) Create(ctx context.Context, message domain.DiscussionMessage) (domain.DiscussionMessage, error) {
	created, err := r.dao.Insert(ctx, dao.DiscussionMessage{
		EventID:    message.EventID,
		AuthorID:   message.Author.UserID,
		AuthorKind: string(message.Author.Kind),
		AuthorName: message.Author.Name,
		Content:    message.Content,
		ParentID:   message.ParentID,
		Pinned:     message.Pinned,
		Reactions:  message.Reactions,
	})
	if err != nil {
		return domain.DiscussionMessage{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return messageDaoToDomain(created), nil
}

func (r *DiscussionRepository) FindByID(ctx context.Context, id uint) (domain.DiscussionMessage, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.DiscussionMessage{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return messageDaoToDomain(found), nil
}

func (r *DiscussionRepository) FindByEvent(ctx context.Context, eventID uint) ([]domain.DiscussionMessage, error) {
	found, err := r.dao.FindByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByEvent -> %w", err)
	}

	messages := make([]domain.DiscussionMessage, 0, len(found))
	for _, m := range found {
		messages = append(messages, messageDaoToDomain(m))
	}

	return messages, nil
}

func (r *DiscussionRepository) SetPinned(ctx context.Context, id uint, pinned bool) error {
	if err := r.dao.SetPinned(ctx, id, pinned); err != nil {
		return fmt.Errorf("r.dao.SetPinned -> %w", err)
	}

	return nil
}

func (r *DiscussionRepository) SoftDelete(ctx context.Context, id uint) error {
	if err := r.dao.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.SoftDelete -> %w", err)
	}

	return nil
}

func (r *DiscussionRepository) UpdateReactions(ctx context.Context, id uint, reactions map[string][]uint) error {
	if err := r.dao.UpdateReactions(ctx, id, reactions); err != nil {
		return fmt.Errorf("r.dao.UpdateReactions -> %w", err)
	}

	return nil
}

func messageDaoToDomain(m dao.DiscussionMessage) domain.DiscussionMessage {
	return domain.DiscussionMessage{
		ID:      m.ID,
		EventID: m.EventID,
		Author: domain.MessageAuthor{
			UserID: m.AuthorID,
			Kind:   domain.Role(m.AuthorKind),
			Name:   m.AuthorName,
		},
		Content:   m.Content,
		ParentID:  m.ParentID,
		Pinned:    m.Pinned,
		Deleted:   m.Deleted,
		Reactions: m.Reactions,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
