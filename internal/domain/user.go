package domain

import "time"

type Role string

const (
	RoleParticipant Role = "participant"
	RoleOrganizer   Role = "organizer"
	RoleAdmin       Role = "admin"
)

func (r Role) IsValid() bool {
	return r == RoleParticipant || r == RoleOrganizer || r == RoleAdmin
}

type User struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ParticipantType string

const (
	ParticipantIIIT    ParticipantType = "IIIT"
	ParticipantNonIIIT ParticipantType = "NON_IIIT"
)

func (t ParticipantType) IsValid() bool {
	return t == ParticipantIIIT || t == ParticipantNonIIIT
}

type Participant struct {
	User
	FirstName          string          `json:"first_name"`
	LastName           string          `json:"last_name"`
	ParticipantType    ParticipantType `json:"participant_type"`
	CollegeName        string          `json:"college_name,omitempty"`
	ContactNumber      string          `json:"contact_number,omitempty"`
	Interests          []string        `json:"interests"`
	FollowedOrganizers []uint          `json:"followed_organizers"`
	OnboardingComplete bool            `json:"onboarding_complete"`
}

// Follows reports whether the participant follows the given organizer.
func (p *Participant) Follows(organizerID uint) bool {
	for _, id := range p.FollowedOrganizers {
		if id == organizerID {
			return true
		}
	}
	return false
}

// ToggleFollow adds or removes the organizer from the follow list and
// reports whether the participant follows it afterwards.
func (p *Participant) ToggleFollow(organizerID uint) bool {
	for i, id := range p.FollowedOrganizers {
		if id == organizerID {
			p.FollowedOrganizers = append(p.FollowedOrganizers[:i], p.FollowedOrganizers[i+1:]...)
			return false
		}
	}
	p.FollowedOrganizers = append(p.FollowedOrganizers, organizerID)
	return true
}

type Organizer struct {
	User
	Name           string `json:"name"`
	Category       string `json:"category,omitempty"`
	Description    string `json:"description,omitempty"`
	ContactEmail   string `json:"contact_email,omitempty"`
	ContactNumber  string `json:"contact_number,omitempty"`
	DiscordWebhook string `json:"-"`
}

type Admin struct {
	User
}
