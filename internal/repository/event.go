package repository

import (
	"context"
	"fmt"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/repository/dao"
)

var (
	ErrEventNotFound  = dao.ErrEventNotFound
	ErrEventFull      = dao.ErrEventFull
	ErrNoStock        = dao.ErrNoStock
	ErrStatusConflict = dao.ErrStatusConflict
)

type EventDAO interface {
	Insert(ctx context.Context, event dao.Event) (dao.Event, error)
	FindByID(ctx context.Context, id uint) (dao.Event, error)
	FindVisible(ctx context.Context, eventType string, statuses []string) ([]dao.Event, error)
	FindByOrganizer(ctx context.Context, organizerID uint) ([]dao.Event, error)
	FindAll(ctx context.Context) ([]dao.Event, error)
	Update(ctx context.Context, event dao.Event) (dao.Event, error)
	UpdateStatus(ctx context.Context, id uint, from, to string) error
	Delete(ctx context.Context, id uint) error
}

type EventRepository struct {
	dao EventDAO
}

func NewEventRepository(dao EventDAO) *EventRepository {
	return &EventRepository{
		dao: dao,
	}
}

func (r *EventRepository) Create(ctx context.Context, event domain.Event) (domain.Event, error) {
	created, err := r.dao.Insert(ctx, eventDomainToDao(event))
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return eventDaoToDomain(created), nil
}

func (r *EventRepository) FindByID(ctx context.Context, id uint) (domain.Event, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return eventDaoToDomain(found), nil
}

func (r *EventRepository) FindVisible(ctx context.Context, eventType domain.EventType, statuses []domain.EventStatus) ([]domain.Event, error) {
	daoStatuses := make([]string, 0, len(statuses))
	for _, s := range statuses {
		daoStatuses = append(daoStatuses, string(s))
	}

	found, err := r.dao.FindVisible(ctx, string(eventType), daoStatuses)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindVisible -> %w", err)
	}

	return eventsDaoToDomain(found), nil
}

func (r *EventRepository) FindByOrganizer(ctx context.Context, organizerID uint) ([]domain.Event, error) {
	found, err := r.dao.FindByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByOrganizer -> %w", err)
	}

	return eventsDaoToDomain(found), nil
}

func (r *EventRepository) FindAll(ctx context.Context) ([]domain.Event, error) {
	found, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	return eventsDaoToDomain(found), nil
}

func (r *EventRepository) Update(ctx context.Context, event domain.Event) (domain.Event, error) {
	updated, err := r.dao.Update(ctx, eventDomainToDao(event))
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return eventDaoToDomain(updated), nil
}

func (r *EventRepository) UpdateStatus(ctx context.Context, id uint, from, to domain.EventStatus) error {
	if err := r.dao.UpdateStatus(ctx, id, string(from), string(to)); err != nil {
		return fmt.Errorf("r.dao.UpdateStatus -> %w", err)
	}

	return nil
}

func (r *EventRepository) Delete(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func eventDomainToDao(e domain.Event) dao.Event {
	fields := make([]dao.FormField, 0, len(e.FormFields))
	for _, f := range e.FormFields {
		fields = append(fields, dao.FormField{
			ID:          f.ID,
			EventID:     f.EventID,
			FieldName:   f.FieldName,
			FieldLabel:  f.FieldLabel,
			FieldType:   f.FieldType,
			Required:    f.Required,
			Options:     f.Options,
			Placeholder: f.Placeholder,
			SortOrder:   f.Order,
		})
	}

	items := make([]dao.MerchandiseItem, 0, len(e.Merchandise))
	for _, m := range e.Merchandise {
		items = append(items, dao.MerchandiseItem{
			ID:      m.ID,
			EventID: m.EventID,
			Name:    m.Name,
			Size:    m.Size,
			Color:   m.Color,
			Stock:   m.Stock,
			Price:   m.Price,
		})
	}

	return dao.Event{
		ID:                   e.ID,
		Name:                 e.Name,
		Description:          e.Description,
		Type:                 string(e.Type),
		OrganizerID:          e.OrganizerID,
		Venue:                e.Venue,
		Eligibility:          string(e.Eligibility),
		RegistrationDeadline: e.RegistrationDeadline,
		StartDate:            e.StartDate,
		EndDate:              e.EndDate,
		RegistrationLimit:    e.RegistrationLimit,
		CurrentRegistrations: e.CurrentRegistrations,
		RegistrationFee:      e.RegistrationFee,
		Status:               string(e.Status),
		Tags:                 e.Tags,
		PurchaseLimitPerUser: e.PurchaseLimitPerUser,
		FormLocked:           e.FormLocked,
		FormFields:           fields,
		Merchandise:          items,
	}
}

func eventDaoToDomain(e dao.Event) domain.Event {
	fields := make([]domain.FormField, 0, len(e.FormFields))
	for _, f := range e.FormFields {
		fields = append(fields, domain.FormField{
			ID:          f.ID,
			EventID:     f.EventID,
			FieldName:   f.FieldName,
			FieldLabel:  f.FieldLabel,
			FieldType:   f.FieldType,
			Required:    f.Required,
			Options:     f.Options,
			Placeholder: f.Placeholder,
			Order:       f.SortOrder,
		})
	}

	items := make([]domain.MerchandiseItem, 0, len(e.Merchandise))
	for _, m := range e.Merchandise {
		items = append(items, domain.MerchandiseItem{
			ID:      m.ID,
			EventID: m.EventID,
			Name:    m.Name,
			Size:    m.Size,
			Color:   m.Color,
			Stock:   m.Stock,
			Price:   m.Price,
		})
	}

	return domain.Event{
		ID:                   e.ID,
		Name:                 e.Name,
		Description:          e.Description,
		Type:                 domain.EventType(e.Type),
		OrganizerID:          e.OrganizerID,
		Venue:                e.Venue,
		Eligibility:          domain.Eligibility(e.Eligibility),
		RegistrationDeadline: e.RegistrationDeadline,
		StartDate:            e.StartDate,
		EndDate:              e.EndDate,
		RegistrationLimit:    e.RegistrationLimit,
		CurrentRegistrations: e.CurrentRegistrations,
		RegistrationFee:      e.RegistrationFee,
		Status:               domain.EventStatus(e.Status),
		Tags:                 e.Tags,
		PurchaseLimitPerUser: e.PurchaseLimitPerUser,
		FormLocked:           e.FormLocked,
		FormFields:           fields,
		Merchandise:          items,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
}

func eventsDaoToDomain(events []dao.Event) []domain.Event {
	out := make([]domain.Event, 0, len(events))
	for _, e := range events {
		out = append(out, eventDaoToDomain(e))
	}

	return out
}
