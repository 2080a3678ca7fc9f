package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrMessageNotFound = errors.New("message not found")

type DiscussionMessage struct {
	ID uint `gorm:"primaryKey"`

	EventID    uint   `gorm:"not null;index"`
	AuthorID   uint   `gorm:"not null"`
	AuthorKind string `gorm:"not null"` // "participant", "organizer", or "admin"
	AuthorName string `gorm:"not null"`

	Content  string `gorm:"not null"`
	ParentID *uint  `gorm:"index"`
	Pinned   bool   `gorm:"not null;default:false"`
	Deleted  bool   `gorm:"not null;default:false"`

	Reactions map[string][]uint `gorm:"serializer:json"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type DiscussionDAO struct {
	db *gorm.DB
}

func NewDiscussionDAO(db *gorm.DB) *DiscussionDAO {
	return &DiscussionDAO{
		db: db,
	}
}

func (d *DiscussionDAO) Insert(ctx context.Context, message DiscussionMessage) (DiscussionMessage, error) {
	result := d.db.WithContext(ctx).Create(&message)
	if result.Error != nil {
		return DiscussionMessage{}, result.Error
	}

	return message, nil
}

func (d *DiscussionDAO) FindByID(ctx context.Context, id uint) (DiscussionMessage, error) {
	var message DiscussionMessage

	result := d.db.WithContext(ctx).First(&message, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return DiscussionMessage{}, ErrMessageNotFound
		}

		return DiscussionMessage{}, result.Error
	}

	return message, nil
}

// FindByEvent returns the board in display order: pinned messages first,
// then newest first.
func (d *DiscussionDAO) FindByEvent(ctx context.Context, eventID uint) ([]DiscussionMessage, error) {
	var messages []DiscussionMessage

	result := d.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("pinned DESC, created_at DESC").
		Find(&messages)
	if result.Error != nil {
		return nil, result.Error
	}

	return messages, nil
}

func (d *DiscussionDAO) SetPinned(ctx context.Context, id uint, pinned bool) error {
	result := d.db.WithContext(ctx).
		Model(&DiscussionMessage{}).
		Where("id = ?", id).
		Update("pinned", pinned)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}

	return nil
}

// SoftDelete blanks the content but keeps the row so replies stay
// anchored.
func (d *DiscussionDAO) SoftDelete(ctx context.Context, id uint) error {
	result := d.db.WithContext(ctx).
		Model(&DiscussionMessage{}).
		Where("id = ? AND deleted = false", id).
		Updates(map[string]interface{}{
			"deleted": true,
			"content": "",
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}

	return nil
}

func (d *DiscussionDAO) UpdateReactions(ctx context.Context, id uint, reactions map[string][]uint) error {
	result := d.db.WithContext(ctx).
		Model(&DiscussionMessage{}).
		Where("id = ?", id).
		Update("reactions", reactions)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}

	return nil
}
