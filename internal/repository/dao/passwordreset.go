package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrResetRequestNotFound = errors.New("password reset request not found")
	ErrResetNotPending      = errors.New("password reset request already resolved")
)

type PasswordResetRequest struct {
	ID uint `gorm:"primaryKey"`

	OrganizerID uint   `gorm:"not null;index"`
	Reason      string
	Status      string `gorm:"not null"` // "PENDING", "APPROVED", "REJECTED"

	ResolvedBy uint
	ResolvedAt *time.Time

	CreatedAt time.Time `gorm:"not null"`
}

type PasswordResetDAO struct {
	db *gorm.DB
}

func NewPasswordResetDAO(db *gorm.DB) *PasswordResetDAO {
	return &PasswordResetDAO{
		db: db,
	}
}

func (d *PasswordResetDAO) Insert(ctx context.Context, request PasswordResetRequest) (PasswordResetRequest, error) {
	result := d.db.WithContext(ctx).Create(&request)
	if result.Error != nil {
		return PasswordResetRequest{}, result.Error
	}

	return request, nil
}

func (d *PasswordResetDAO) FindByID(ctx context.Context, id uint) (PasswordResetRequest, error) {
	var request PasswordResetRequest

	result := d.db.WithContext(ctx).First(&request, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return PasswordResetRequest{}, ErrResetRequestNotFound
		}

		return PasswordResetRequest{}, result.Error
	}

	return request, nil
}

func (d *PasswordResetDAO) FindPending(ctx context.Context) ([]PasswordResetRequest, error) {
	var requests []PasswordResetRequest

	result := d.db.WithContext(ctx).
		Where("status = ?", "PENDING").
		Order("created_at").
		Find(&requests)
	if result.Error != nil {
		return nil, result.Error
	}

	return requests, nil
}

// Resolve settles a pending request one way. A resolved request never
// flips back, enforced by the status predicate.
func (d *PasswordResetDAO) Resolve(ctx context.Context, id, adminID uint, status string, at time.Time) error {
	result := d.db.WithContext(ctx).
		Model(&PasswordResetRequest{}).
		Where("id = ? AND status = ?", id, "PENDING").
		Updates(map[string]interface{}{
			"status":      status,
			"resolved_by": adminID,
			"resolved_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrResetNotPending
	}

	return nil
}
