package domain

import "time"

type ResetRequestStatus string

const (
	ResetPending  ResetRequestStatus = "PENDING"
	ResetApproved ResetRequestStatus = "APPROVED"
	ResetRejected ResetRequestStatus = "REJECTED"
)

// PasswordResetRequest is an organizer's admin-mediated password reset.
// Resolution is one-way: a resolved request never returns to PENDING.
type PasswordResetRequest struct {
	ID          uint               `json:"id"`
	OrganizerID uint               `json:"organizer_id"`
	Reason      string             `json:"reason,omitempty"`
	Status      ResetRequestStatus `json:"status"`
	ResolvedBy  uint               `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time         `json:"resolved_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}
