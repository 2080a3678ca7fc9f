package domain

import (
	"errors"
	"time"
)

var (
	ErrEndBeforeStart     = errors.New("event end date must be after start date")
	ErrDeadlineAfterStart = errors.New("registration deadline must be before event start date")
	ErrInvalidLimit       = errors.New("registration limit must be at least 1")
	ErrEventNotEditable   = errors.New("event can no longer be edited")
	ErrDeadlineDecreased  = errors.New("cannot decrease registration deadline")
	ErrLimitDecreased     = errors.New("cannot decrease registration limit")
)

type EventType string

const (
	EventTypeNormal      EventType = "NORMAL"
	EventTypeMerchandise EventType = "MERCHANDISE"
)

func (t EventType) IsValid() bool {
	return t == EventTypeNormal || t == EventTypeMerchandise
}

type Eligibility string

const (
	EligibilityAll         Eligibility = "All"
	EligibilityIIITOnly    Eligibility = "IIIT Only"
	EligibilityNonIIITOnly Eligibility = "Non-IIIT Only"
)

func (e Eligibility) IsValid() bool {
	switch e {
	case EligibilityAll, EligibilityIIITOnly, EligibilityNonIIITOnly:
		return true
	}
	return false
}

// Accepts reports whether a participant of the given type may register
// under this eligibility class.
func (e Eligibility) Accepts(t ParticipantType) bool {
	switch e {
	case EligibilityIIITOnly:
		return t == ParticipantIIIT
	case EligibilityNonIIITOnly:
		return t != ParticipantIIIT
	}
	return true
}

type EventStatus string

const (
	EventDraft     EventStatus = "DRAFT"
	EventPublished EventStatus = "PUBLISHED"
	EventOngoing   EventStatus = "ONGOING"
	EventCompleted EventStatus = "COMPLETED"
	EventClosed    EventStatus = "CLOSED"
)

func (s EventStatus) IsValid() bool {
	switch s {
	case EventDraft, EventPublished, EventOngoing, EventCompleted, EventClosed:
		return true
	}
	return false
}

// IsTerminal reports whether no further automatic transition can occur.
func (s EventStatus) IsTerminal() bool {
	return s == EventCompleted || s == EventClosed
}

type FormField struct {
	ID          uint     `json:"id"`
	EventID     uint     `json:"event_id"`
	FieldName   string   `json:"field_name"`
	FieldLabel  string   `json:"field_label"`
	FieldType   string   `json:"field_type"` // text, textarea, select, checkbox, file, number, email, tel
	Required    bool     `json:"required"`
	Options     []string `json:"options,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Order       int      `json:"order"`
}

type MerchandiseItem struct {
	ID      uint    `json:"id"`
	EventID uint    `json:"event_id"`
	Name    string  `json:"name"`
	Size    string  `json:"size,omitempty"`
	Color   string  `json:"color,omitempty"`
	Stock   int     `json:"stock"`
	Price   float64 `json:"price"`
}

type Event struct {
	ID                   uint              `json:"id"`
	Name                 string            `json:"name"`
	Description          string            `json:"description"`
	Type                 EventType         `json:"type"`
	OrganizerID          uint              `json:"organizer_id"`
	Venue                string            `json:"venue,omitempty"`
	Eligibility          Eligibility       `json:"eligibility"`
	RegistrationDeadline time.Time         `json:"registration_deadline"`
	StartDate            time.Time         `json:"start_date"`
	EndDate              time.Time         `json:"end_date"`
	RegistrationLimit    *int              `json:"registration_limit,omitempty"` // nil = unlimited
	CurrentRegistrations int               `json:"current_registrations"`
	RegistrationFee      float64           `json:"registration_fee"`
	Status               EventStatus       `json:"status"`
	Tags                 []string          `json:"tags"`
	FormFields           []FormField       `json:"form_fields,omitempty"`
	Merchandise          []MerchandiseItem `json:"merchandise,omitempty"`
	PurchaseLimitPerUser int               `json:"purchase_limit_per_user,omitempty"`
	FormLocked           bool              `json:"form_locked"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// Validate checks the date-ordering and limit invariants that must hold
// at creation time.
func (e *Event) Validate() error {
	if e.EndDate.Before(e.StartDate) {
		return ErrEndBeforeStart
	}
	if e.RegistrationDeadline.After(e.StartDate) {
		return ErrDeadlineAfterStart
	}
	if e.RegistrationLimit != nil && *e.RegistrationLimit < 1 {
		return ErrInvalidLimit
	}
	return nil
}

// Reconcile derives the effective status from the stored status and the
// current time, mutating the event in place. It reports whether the
// status changed so callers can persist the result. DRAFT and CLOSED
// never move; the end-date check wins, so an event whose start and end
// have both passed settles at COMPLETED.
func (e *Event) Reconcile(now time.Time) bool {
	if e.Status == EventDraft || e.Status == EventClosed || e.Status == EventCompleted {
		return false
	}

	old := e.Status
	if e.Status == EventPublished && !now.Before(e.StartDate) {
		e.Status = EventOngoing
	}
	if (e.Status == EventPublished || e.Status == EventOngoing) && !now.Before(e.EndDate) {
		e.Status = EventCompleted
	}

	return e.Status != old
}

// IsOpenForRegistration assumes Reconcile has already been applied.
func (e *Event) IsOpenForRegistration() bool {
	return e.Status == EventPublished || e.Status == EventOngoing
}

// IsFull reports whether the registration limit has been reached.
// An unset limit means unlimited capacity.
func (e *Event) IsFull() bool {
	return e.RegistrationLimit != nil && e.CurrentRegistrations >= *e.RegistrationLimit
}

// FindMerchandiseItem resolves an item by name with optional size/color
// narrowing. Empty size or color matches any.
func (e *Event) FindMerchandiseItem(name, size, color string) *MerchandiseItem {
	for i := range e.Merchandise {
		item := &e.Merchandise[i]
		if item.Name != name {
			continue
		}
		if size != "" && item.Size != size {
			continue
		}
		if color != "" && item.Color != color {
			continue
		}
		return item
	}
	return nil
}

// EventUpdate carries the optional fields of an event edit. Nil pointers
// mean "leave unchanged".
type EventUpdate struct {
	Name                 *string
	Description          *string
	Venue                *string
	Eligibility          *Eligibility
	RegistrationDeadline *time.Time
	StartDate            *time.Time
	EndDate              *time.Time
	RegistrationLimit    *int
	RegistrationFee      *float64
	Tags                 []string
	FormFields           []FormField
}

// ApplyUpdate enforces the per-status edit policy: a DRAFT event is fully
// editable, a PUBLISHED event allows only description, deadline (increase
// only) and registration limit (increase only), anything later allows
// nothing. The result is re-validated for DRAFT edits.
func (e *Event) ApplyUpdate(u EventUpdate) error {
	switch e.Status {
	case EventDraft:
		if u.Name != nil {
			e.Name = *u.Name
		}
		if u.Description != nil {
			e.Description = *u.Description
		}
		if u.Venue != nil {
			e.Venue = *u.Venue
		}
		if u.Eligibility != nil {
			e.Eligibility = *u.Eligibility
		}
		if u.RegistrationDeadline != nil {
			e.RegistrationDeadline = *u.RegistrationDeadline
		}
		if u.StartDate != nil {
			e.StartDate = *u.StartDate
		}
		if u.EndDate != nil {
			e.EndDate = *u.EndDate
		}
		if u.RegistrationLimit != nil {
			e.RegistrationLimit = u.RegistrationLimit
		}
		if u.RegistrationFee != nil {
			e.RegistrationFee = *u.RegistrationFee
		}
		if u.Tags != nil {
			e.Tags = u.Tags
		}
		if u.FormFields != nil {
			e.FormFields = u.FormFields
		}
		return e.Validate()

	case EventPublished:
		if u.RegistrationDeadline != nil && u.RegistrationDeadline.Before(e.RegistrationDeadline) {
			return ErrDeadlineDecreased
		}
		if u.RegistrationLimit != nil && e.RegistrationLimit != nil && *u.RegistrationLimit < *e.RegistrationLimit {
			return ErrLimitDecreased
		}
		if u.Description != nil {
			e.Description = *u.Description
		}
		if u.RegistrationDeadline != nil {
			e.RegistrationDeadline = *u.RegistrationDeadline
		}
		if u.RegistrationLimit != nil {
			e.RegistrationLimit = u.RegistrationLimit
		}
		return nil

	default:
		return ErrEventNotEditable
	}
}

// EventStats accompanies an event in organizer-facing listings.
type EventStats struct {
	Registrations int     `json:"registrations"`
	Attendance    int     `json:"attendance"`
	Revenue       float64 `json:"revenue"`
}

// EventAnalytics is the organizer analytics view for a single event.
type EventAnalytics struct {
	TotalRegistrations int     `json:"total_registrations"`
	TotalAttendance    int     `json:"total_attendance"`
	PendingPayments    int     `json:"pending_payments"`
	Revenue            float64 `json:"revenue"`
	RegistrationLimit  *int    `json:"registration_limit,omitempty"`
	AttendanceRate     float64 `json:"attendance_rate"`
}
