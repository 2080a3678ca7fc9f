package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserEmailExists     = errors.New("user already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrOrganizerNameExists = errors.New("organizer name already exists")
)

type User struct {
	ID uint `gorm:"primaryKey"`

	Email    string `gorm:"unique;not null"`
	Password string `gorm:"not null"`

	Role string `gorm:"not null"` // "participant", "organizer", or "admin"

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Participant struct {
	UserID uint `gorm:"primaryKey"`
	User   User `gorm:"foreignKey:UserID"`

	FirstName          string `gorm:"not null"`
	LastName           string
	ParticipantType    string `gorm:"not null"` // "IIIT" or "NON_IIIT"
	CollegeName        string
	ContactNumber      string
	Interests          []string `gorm:"serializer:json"`
	FollowedOrganizers []uint   `gorm:"serializer:json"`
	OnboardingComplete bool     `gorm:"not null;default:false"`
}

type Organizer struct {
	UserID uint `gorm:"primaryKey"`
	User   User `gorm:"foreignKey:UserID"`

	Name           string `gorm:"unique;not null"`
	Category       string
	Description    string
	ContactEmail   string
	ContactNumber  string
	DiscordWebhook string
}

type UserDAO struct {
	db *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{
		db: db,
	}
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgerrcode.UniqueViolation &&
		strings.Contains(pgErr.Message, constraint)
}

func (d *UserDAO) Insert(ctx context.Context, user User) (User, error) {
	result := d.db.WithContext(ctx).Create(&user)
	if result.Error != nil {
		if isUniqueViolation(result.Error, `unique constraint "uni_users_email"`) {
			return User{}, ErrUserEmailExists
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) InsertParticipant(ctx context.Context, user User, participant Participant) (Participant, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			if isUniqueViolation(err, `unique constraint "uni_users_email"`) {
				return ErrUserEmailExists
			}
			return err
		}

		participant.UserID = user.ID
		participant.User = user

		return tx.Create(&participant).Error
	})
	if err != nil {
		return Participant{}, err
	}

	return participant, nil
}

func (d *UserDAO) InsertOrganizer(ctx context.Context, user User, organizer Organizer) (Organizer, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			if isUniqueViolation(err, `unique constraint "uni_users_email"`) {
				return ErrUserEmailExists
			}
			return err
		}

		organizer.UserID = user.ID
		organizer.User = user

		if err := tx.Create(&organizer).Error; err != nil {
			if isUniqueViolation(err, `unique constraint "uni_organizers_name"`) {
				return ErrOrganizerNameExists
			}
			return err
		}

		return nil
	})
	if err != nil {
		return Organizer{}, err
	}

	return organizer, nil
}

func (d *UserDAO) FindByID(ctx context.Context, id uint) (User, error) {
	var user User

	result := d.db.WithContext(ctx).First(&user, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) FindByEmail(ctx context.Context, email string) (User, error) {
	var user User

	result := d.db.WithContext(ctx).First(&user, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) FindParticipantByUserID(ctx context.Context, userID uint) (Participant, error) {
	var participant Participant

	result := d.db.WithContext(ctx).Preload("User").First(&participant, "user_id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Participant{}, ErrUserNotFound
		}

		return Participant{}, result.Error
	}

	return participant, nil
}

func (d *UserDAO) FindOrganizerByUserID(ctx context.Context, userID uint) (Organizer, error) {
	var organizer Organizer

	result := d.db.WithContext(ctx).Preload("User").First(&organizer, "user_id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Organizer{}, ErrUserNotFound
		}

		return Organizer{}, result.Error
	}

	return organizer, nil
}

func (d *UserDAO) FindAllOrganizers(ctx context.Context) ([]Organizer, error) {
	var organizers []Organizer

	result := d.db.WithContext(ctx).Preload("User").Order("name").Find(&organizers)
	if result.Error != nil {
		return nil, result.Error
	}

	return organizers, nil
}

func (d *UserDAO) UpdateParticipant(ctx context.Context, participant Participant) (Participant, error) {
	result := d.db.WithContext(ctx).
		Model(&Participant{}).
		Where("user_id = ?", participant.UserID).
		Updates(map[string]interface{}{
			"first_name":          participant.FirstName,
			"last_name":           participant.LastName,
			"college_name":        participant.CollegeName,
			"contact_number":      participant.ContactNumber,
			"interests":           participant.Interests,
			"followed_organizers": participant.FollowedOrganizers,
			"onboarding_complete": participant.OnboardingComplete,
		})
	if result.Error != nil {
		return Participant{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Participant{}, ErrUserNotFound
	}

	return d.FindParticipantByUserID(ctx, participant.UserID)
}

func (d *UserDAO) UpdateOrganizerProfile(ctx context.Context, organizer Organizer) (Organizer, error) {
	result := d.db.WithContext(ctx).
		Model(&Organizer{}).
		Where("user_id = ?", organizer.UserID).
		Updates(map[string]interface{}{
			"category":        organizer.Category,
			"description":     organizer.Description,
			"contact_email":   organizer.ContactEmail,
			"contact_number":  organizer.ContactNumber,
			"discord_webhook": organizer.DiscordWebhook,
		})
	if result.Error != nil {
		return Organizer{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Organizer{}, ErrUserNotFound
	}

	return d.FindOrganizerByUserID(ctx, organizer.UserID)
}

func (d *UserDAO) UpdatePassword(ctx context.Context, userID uint, hashedPassword string) error {
	result := d.db.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", userID).
		Update("password", hashedPassword)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// DeleteOrganizer removes the organizer account together with its events
// and their registrations.
func (d *UserDAO) DeleteOrganizer(ctx context.Context, userID uint) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var eventIDs []uint
		if err := tx.Model(&Event{}).Where("organizer_id = ?", userID).Pluck("id", &eventIDs).Error; err != nil {
			return err
		}

		if len(eventIDs) > 0 {
			if err := tx.Where("event_id IN ?", eventIDs).Delete(&Registration{}).Error; err != nil {
				return err
			}
			if err := tx.Where("event_id IN ?", eventIDs).Delete(&DiscussionMessage{}).Error; err != nil {
				return err
			}
			if err := tx.Where("event_id IN ?", eventIDs).Delete(&FormField{}).Error; err != nil {
				return err
			}
			if err := tx.Where("event_id IN ?", eventIDs).Delete(&MerchandiseItem{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", eventIDs).Delete(&Event{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("organizer_id = ?", userID).Delete(&PasswordResetRequest{}).Error; err != nil {
			return err
		}

		result := tx.Where("user_id = ?", userID).Delete(&Organizer{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrUserNotFound
		}

		return tx.Delete(&User{}, userID).Error
	})
}
