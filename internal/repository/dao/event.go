package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrEventNotFound  = errors.New("event not found")
	ErrEventFull      = errors.New("event registration limit reached")
	ErrNoStock        = errors.New("insufficient stock")
	ErrStatusConflict = errors.New("event status changed concurrently")
)

type Event struct {
	ID uint `gorm:"primaryKey"`

	Name        string `gorm:"not null"`
	Description string
	Type        string `gorm:"not null"` // "NORMAL" or "MERCHANDISE"
	OrganizerID uint   `gorm:"not null;index"`
	Venue       string
	Eligibility string `gorm:"not null"`

	RegistrationDeadline time.Time `gorm:"not null"`
	StartDate            time.Time `gorm:"not null"`
	EndDate              time.Time `gorm:"not null"`

	RegistrationLimit    *int
	CurrentRegistrations int     `gorm:"not null;default:0"`
	RegistrationFee      float64 `gorm:"not null;default:0"`

	Status string   `gorm:"not null;index"`
	Tags   []string `gorm:"serializer:json"`

	PurchaseLimitPerUser int  `gorm:"not null;default:1"`
	FormLocked           bool `gorm:"not null;default:false"`

	FormFields  []FormField       `gorm:"foreignKey:EventID"`
	Merchandise []MerchandiseItem `gorm:"foreignKey:EventID"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type FormField struct {
	ID      uint `gorm:"primaryKey"`
	EventID uint `gorm:"not null;index"`

	FieldName   string   `gorm:"not null"`
	FieldLabel  string   `gorm:"not null"`
	FieldType   string   `gorm:"not null"`
	Required    bool     `gorm:"not null;default:false"`
	Options     []string `gorm:"serializer:json"`
	Placeholder string
	SortOrder   int `gorm:"not null;default:0"`
}

type MerchandiseItem struct {
	ID      uint `gorm:"primaryKey"`
	EventID uint `gorm:"not null;index"`

	Name  string `gorm:"not null"`
	Size  string
	Color string
	Stock int     `gorm:"not null;default:0"`
	Price float64 `gorm:"not null;default:0"`
}

type EventDAO struct {
	db *gorm.DB
}

func NewEventDAO(db *gorm.DB) *EventDAO {
	return &EventDAO{
		db: db,
	}
}

func (d *EventDAO) Insert(ctx context.Context, event Event) (Event, error) {
	result := d.db.WithContext(ctx).Create(&event)
	if result.Error != nil {
		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) FindByID(ctx context.Context, id uint) (Event, error) {
	var event Event

	result := d.db.WithContext(ctx).
		Preload("FormFields", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order") }).
		Preload("Merchandise").
		First(&event, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, result.Error
	}

	return event, nil
}

// FindVisible lists events participants can see, with optional filters.
// DRAFT events never appear here.
func (d *EventDAO) FindVisible(ctx context.Context, eventType string, statuses []string) ([]Event, error) {
	var events []Event

	query := d.db.WithContext(ctx).
		Preload("Merchandise").
		Where("status <> ?", "DRAFT")
	if eventType != "" {
		query = query.Where("type = ?", eventType)
	}
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	result := query.Order("start_date").Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}

	return events, nil
}

func (d *EventDAO) FindByOrganizer(ctx context.Context, organizerID uint) ([]Event, error) {
	var events []Event

	result := d.db.WithContext(ctx).
		Preload("FormFields", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order") }).
		Preload("Merchandise").
		Where("organizer_id = ?", organizerID).
		Order("created_at DESC").
		Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}

	return events, nil
}

func (d *EventDAO) FindAll(ctx context.Context) ([]Event, error) {
	var events []Event

	result := d.db.WithContext(ctx).Order("created_at DESC").Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}

	return events, nil
}

// Update replaces the event row and its form fields. Merchandise stock is
// deliberately untouched here; stock only moves through DecrementStock.
func (d *EventDAO) Update(ctx context.Context, event Event) (Event, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Event{}).Where("id = ?", event.ID).Updates(map[string]interface{}{
			"name":                  event.Name,
			"description":           event.Description,
			"venue":                 event.Venue,
			"eligibility":           event.Eligibility,
			"registration_deadline": event.RegistrationDeadline,
			"start_date":            event.StartDate,
			"end_date":              event.EndDate,
			"registration_limit":    event.RegistrationLimit,
			"registration_fee":      event.RegistrationFee,
			"tags":                  event.Tags,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrEventNotFound
		}

		if event.FormFields != nil {
			if err := tx.Where("event_id = ?", event.ID).Delete(&FormField{}).Error; err != nil {
				return err
			}
			for i := range event.FormFields {
				event.FormFields[i].ID = 0
				event.FormFields[i].EventID = event.ID
			}
			if len(event.FormFields) > 0 {
				if err := tx.Create(&event.FormFields).Error; err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return Event{}, err
	}

	return d.FindByID(ctx, event.ID)
}

// UpdateStatus moves the event from one status to another. The old status
// is part of the predicate so concurrent transitions cannot clobber each
// other.
func (d *EventDAO) UpdateStatus(ctx context.Context, id uint, from, to string) error {
	result := d.db.WithContext(ctx).
		Model(&Event{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusConflict
	}

	return nil
}

func (d *EventDAO) Delete(ctx context.Context, id uint) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&Registration{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", id).Delete(&DiscussionMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", id).Delete(&FormField{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", id).Delete(&MerchandiseItem{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&Event{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrEventNotFound
		}

		return nil
	})
}

// incrementRegistrations bumps the counter only while capacity remains,
// closing the check-then-act race on the registration limit.
func incrementRegistrations(tx *gorm.DB, eventID uint) error {
	result := tx.Model(&Event{}).
		Where("id = ? AND (registration_limit IS NULL OR current_registrations < registration_limit)", eventID).
		Update("current_registrations", gorm.Expr("current_registrations + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventFull
	}

	return nil
}

// decrementStock takes quantity off the item only if enough remains.
func decrementStock(tx *gorm.DB, itemID uint, quantity int) error {
	result := tx.Model(&MerchandiseItem{}).
		Where("id = ? AND stock >= ?", itemID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNoStock
	}

	return nil
}

// lockForm freezes the registration form once the first registration lands.
func lockForm(tx *gorm.DB, eventID uint) error {
	return tx.Model(&Event{}).
		Where("id = ? AND form_locked = false", eventID).
		Update("form_locked", true).Error
}
