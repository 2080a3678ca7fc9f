package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

type UpdateParticipantRequest struct {
	FirstName          *string  `json:"first_name"`
	LastName           *string  `json:"last_name"`
	CollegeName        *string  `json:"college_name"`
	ContactNumber      *string  `json:"contact_number"`
	Interests          []string `json:"interests"`
	OnboardingComplete *bool    `json:"onboarding_complete"`
}

func (req *UpdateParticipantRequest) Validate() error {
	if req.FirstName != nil {
		if err := validation.Validate(*req.FirstName, validation.Required, validation.Length(1, 100)); err != nil {
			return err
		}
	}

	return nil
}

type UpdateOrganizerProfileRequest struct {
	Category       *string `json:"category"`
	Description    *string `json:"description"`
	ContactEmail   *string `json:"contact_email"`
	ContactNumber  *string `json:"contact_number"`
	DiscordWebhook *string `json:"discord_webhook"`
}

func (req *UpdateOrganizerProfileRequest) Validate() error {
	if req.ContactEmail != nil && *req.ContactEmail != "" {
		if err := validation.Validate(*req.ContactEmail, is.Email); err != nil {
			return err
		}
	}
	if req.DiscordWebhook != nil && *req.DiscordWebhook != "" {
		if err := validation.Validate(*req.DiscordWebhook, is.URL); err != nil {
			return err
		}
	}

	return nil
}
