package request

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
)

type RegisterRequest struct {
	FormResponses map[string]string `json:"form_responses"`
}

type OrderMerchandiseRequest struct {
	ItemName      string            `json:"item_name"`
	Size          string            `json:"size"`
	Color         string            `json:"color"`
	Quantity      int               `json:"quantity"`
	FormResponses map[string]string `json:"form_responses"`
}

func (req *OrderMerchandiseRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.ItemName, validation.Required),
		validation.Field(&req.Quantity, validation.Required, validation.Min(1)),
	)
}

type RejectPaymentRequest struct {
	Reason string `json:"reason"`
}

func (req *RejectPaymentRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Reason, validation.Required, validation.Length(1, 500)),
	)
}

// CheckInRequest carries either a scanned QR payload or, for manual desk
// check-ins, the registration ID.
type CheckInRequest struct {
	QRPayload      string `json:"qr_payload"`
	RegistrationID uint   `json:"registration_id"`
}

func (req *CheckInRequest) Validate() error {
	if (req.QRPayload == "") == (req.RegistrationID == 0) {
		return errors.New("exactly one of qr_payload or registration_id is required")
	}
	return nil
}
