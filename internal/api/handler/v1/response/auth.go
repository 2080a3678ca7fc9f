package response

import "github.com/felicity-events/felicity-api/internal/domain"

type LoginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type SignupResponse struct {
	Token       string             `json:"token"`
	Participant domain.Participant `json:"participant"`
}
