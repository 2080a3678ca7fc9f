package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

type ProvisionOrganizerRequest struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	Description   string `json:"description"`
	ContactEmail  string `json:"contact_email"`
	ContactNumber string `json:"contact_number"`
}

func (req *ProvisionOrganizerRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.ContactEmail, validation.Required, is.Email),
	)
}

type PasswordResetRequest struct {
	Reason string `json:"reason"`
}

func (req *PasswordResetRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Reason, validation.Length(0, 500)),
	)
}
