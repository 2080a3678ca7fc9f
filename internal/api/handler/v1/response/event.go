package response

import "github.com/felicity-events/felicity-api/internal/domain"

// EventWithStats pairs an event with its registration numbers for the
// organizer dashboard.
type EventWithStats struct {
	Event domain.Event      `json:"event"`
	Stats domain.EventStats `json:"stats"`
}

type PublishEventResponse struct {
	Message string       `json:"message"`
	Event   domain.Event `json:"event"`
}

type FollowResponse struct {
	OrganizerID uint `json:"organizer_id"`
	Following   bool `json:"following"`
}
