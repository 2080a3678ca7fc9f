package domain

import "time"

// MessageAuthor identifies who wrote a discussion message. Kind is one of
// the Role constants; organizer messages render with the club name.
type MessageAuthor struct {
	UserID uint   `json:"user_id"`
	Kind   Role   `json:"kind"`
	Name   string `json:"name"`
}

type DiscussionMessage struct {
	ID        uint              `json:"id"`
	EventID   uint              `json:"event_id"`
	Author    MessageAuthor     `json:"author"`
	Content   string            `json:"content"`
	ParentID  *uint             `json:"parent_id,omitempty"`
	Pinned    bool              `json:"pinned"`
	Deleted   bool              `json:"deleted"`
	Reactions map[string][]uint `json:"reactions,omitempty"` // emoji -> user ids
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ToggleReaction adds the user's reaction for the emoji, or removes it if
// already present. Reports whether the reaction is set afterwards.
func (m *DiscussionMessage) ToggleReaction(emoji string, userID uint) bool {
	if m.Reactions == nil {
		m.Reactions = make(map[string][]uint)
	}
	users := m.Reactions[emoji]
	for i, id := range users {
		if id == userID {
			users = append(users[:i], users[i+1:]...)
			if len(users) == 0 {
				delete(m.Reactions, emoji)
			} else {
				m.Reactions[emoji] = users
			}
			return false
		}
	}
	m.Reactions[emoji] = append(users, userID)
	return true
}
