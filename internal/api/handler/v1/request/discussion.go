package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type PostMessageRequest struct {
	Content  string `json:"content"`
	ParentID *uint  `json:"parent_id"`
}

func (req *PostMessageRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Content, validation.Required, validation.Length(1, 2000)),
	)
}

type PinMessageRequest struct {
	Pinned bool `json:"pinned"`
}

type ReactionRequest struct {
	Emoji string `json:"emoji"`
}

func (req *ReactionRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Emoji, validation.Required, validation.Length(1, 16)),
	)
}
