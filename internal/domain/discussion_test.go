package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiscussionMessage_ToggleReaction(t *testing.T) {
	msg := DiscussionMessage{}

	assert.True(t, msg.ToggleReaction("🔥", 1))
	assert.True(t, msg.ToggleReaction("🔥", 2))
	assert.Equal(t, []uint{1, 2}, msg.Reactions["🔥"])

	assert.False(t, msg.ToggleReaction("🔥", 1), "second toggle removes")
	assert.Equal(t, []uint{2}, msg.Reactions["🔥"])

	assert.False(t, msg.ToggleReaction("🔥", 2))
	_, ok := msg.Reactions["🔥"]
	assert.False(t, ok, "empty emoji buckets are dropped")
}

func TestParticipant_ToggleFollow(t *testing.T) {
	p := Participant{}

	assert.True(t, p.ToggleFollow(5))
	assert.True(t, p.Follows(5))

	assert.True(t, p.ToggleFollow(9))
	assert.Equal(t, []uint{5, 9}, p.FollowedOrganizers)

	assert.False(t, p.ToggleFollow(5))
	assert.False(t, p.Follows(5))
	assert.Equal(t, []uint{9}, p.FollowedOrganizers)
}
