package request

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/felicity-events/felicity-api/internal/domain"
)

type FormFieldRequest struct {
	FieldName   string   `json:"field_name"`
	FieldLabel  string   `json:"field_label"`
	FieldType   string   `json:"field_type"`
	Required    bool     `json:"required"`
	Options     []string `json:"options"`
	Placeholder string   `json:"placeholder"`
	Order       int      `json:"order"`
}

func (req *FormFieldRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.FieldName, validation.Required),
		validation.Field(&req.FieldLabel, validation.Required),
		validation.Field(&req.FieldType, validation.Required,
			validation.In("text", "textarea", "select", "checkbox", "file", "number", "email", "tel")),
	)
}

type MerchandiseItemRequest struct {
	Name  string  `json:"name"`
	Size  string  `json:"size"`
	Color string  `json:"color"`
	Stock int     `json:"stock"`
	Price float64 `json:"price"`
}

func (req *MerchandiseItemRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required),
		validation.Field(&req.Stock, validation.Min(0)),
		validation.Field(&req.Price, validation.Min(float64(0))),
	)
}

type CreateEventRequest struct {
	Name                 string                   `json:"name"`
	Description          string                   `json:"description"`
	Type                 string                   `json:"type"`
	Venue                string                   `json:"venue"`
	Eligibility          string                   `json:"eligibility"`
	RegistrationDeadline time.Time                `json:"registration_deadline"`
	StartDate            time.Time                `json:"start_date"`
	EndDate              time.Time                `json:"end_date"`
	RegistrationLimit    *int                     `json:"registration_limit"`
	RegistrationFee      float64                  `json:"registration_fee"`
	Tags                 []string                 `json:"tags"`
	FormFields           []FormFieldRequest       `json:"form_fields"`
	Merchandise          []MerchandiseItemRequest `json:"merchandise"`
	PurchaseLimitPerUser int                      `json:"purchase_limit_per_user"`
}

func (req *CreateEventRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 200)),
		validation.Field(&req.Type, validation.Required, validation.In("NORMAL", "MERCHANDISE")),
		validation.Field(&req.Eligibility, validation.Required, validation.In("All", "IIIT Only", "Non-IIIT Only")),
		validation.Field(&req.RegistrationDeadline, validation.Required),
		validation.Field(&req.StartDate, validation.Required),
		validation.Field(&req.EndDate, validation.Required),
		validation.Field(&req.RegistrationFee, validation.Min(float64(0))),
	)
	if err != nil {
		return err
	}

	for i := range req.FormFields {
		if err = req.FormFields[i].Validate(); err != nil {
			return err
		}
	}
	for i := range req.Merchandise {
		if err = req.Merchandise[i].Validate(); err != nil {
			return err
		}
	}

	return nil
}

// ToDomain builds the domain event. Date-ordering invariants are checked
// by the service via domain.Event.Validate.
func (req *CreateEventRequest) ToDomain(organizerID uint) domain.Event {
	fields := make([]domain.FormField, 0, len(req.FormFields))
	for _, f := range req.FormFields {
		fields = append(fields, domain.FormField{
			FieldName:   f.FieldName,
			FieldLabel:  f.FieldLabel,
			FieldType:   f.FieldType,
			Required:    f.Required,
			Options:     f.Options,
			Placeholder: f.Placeholder,
			Order:       f.Order,
		})
	}

	items := make([]domain.MerchandiseItem, 0, len(req.Merchandise))
	for _, m := range req.Merchandise {
		items = append(items, domain.MerchandiseItem{
			Name:  m.Name,
			Size:  m.Size,
			Color: m.Color,
			Stock: m.Stock,
			Price: m.Price,
		})
	}

	return domain.Event{
		Name:                 req.Name,
		Description:          req.Description,
		Type:                 domain.EventType(req.Type),
		OrganizerID:          organizerID,
		Venue:                req.Venue,
		Eligibility:          domain.Eligibility(req.Eligibility),
		RegistrationDeadline: req.RegistrationDeadline,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		RegistrationLimit:    req.RegistrationLimit,
		RegistrationFee:      req.RegistrationFee,
		Tags:                 req.Tags,
		FormFields:           fields,
		Merchandise:          items,
		PurchaseLimitPerUser: req.PurchaseLimitPerUser,
	}
}

// CloseEventRequest picks the terminal status an early close settles
// into.
type CloseEventRequest struct {
	Status string `json:"status"`
}

func (req *CloseEventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Status, validation.Required, validation.In("CLOSED", "COMPLETED")),
	)
}

type UpdateEventRequest struct {
	Name                 *string            `json:"name"`
	Description          *string            `json:"description"`
	Venue                *string            `json:"venue"`
	Eligibility          *string            `json:"eligibility"`
	RegistrationDeadline *time.Time         `json:"registration_deadline"`
	StartDate            *time.Time         `json:"start_date"`
	EndDate              *time.Time         `json:"end_date"`
	RegistrationLimit    *int               `json:"registration_limit"`
	RegistrationFee      *float64           `json:"registration_fee"`
	Tags                 []string           `json:"tags"`
	FormFields           []FormFieldRequest `json:"form_fields"`
}

func (req *UpdateEventRequest) Validate() error {
	if req.Eligibility != nil {
		if err := validation.Validate(*req.Eligibility, validation.In("All", "IIIT Only", "Non-IIIT Only")); err != nil {
			return err
		}
	}
	for i := range req.FormFields {
		if err := req.FormFields[i].Validate(); err != nil {
			return err
		}
	}

	return nil
}

func (req *UpdateEventRequest) ToDomain() domain.EventUpdate {
	update := domain.EventUpdate{
		Name:                 req.Name,
		Description:          req.Description,
		Venue:                req.Venue,
		RegistrationDeadline: req.RegistrationDeadline,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		RegistrationLimit:    req.RegistrationLimit,
		RegistrationFee:      req.RegistrationFee,
		Tags:                 req.Tags,
	}
	if req.Eligibility != nil {
		eligibility := domain.Eligibility(*req.Eligibility)
		update.Eligibility = &eligibility
	}
	if req.FormFields != nil {
		fields := make([]domain.FormField, 0, len(req.FormFields))
		for _, f := range req.FormFields {
			fields = append(fields, domain.FormField{
				FieldName:   f.FieldName,
				FieldLabel:  f.FieldLabel,
				FieldType:   f.FieldType,
				Required:    f.Required,
				Options:     f.Options,
				Placeholder: f.Placeholder,
				Order:       f.Order,
			})
		}
		update.FormFields = fields
	}

	return update
}
