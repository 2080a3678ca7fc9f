package response

import "github.com/felicity-events/felicity-api/internal/domain"

// ProvisionOrganizerResponse returns the generated login email. The
// password travels only through the credentials email.
type ProvisionOrganizerResponse struct {
	Organizer  domain.Organizer `json:"organizer"`
	LoginEmail string           `json:"login_email"`
}
