package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"splitchat/internal/app/user"
)

func testRoom(capacity int) *Room {
	return &Room{
		ID:              "room-1",
		Code:            "ABC234",
		Name:            "Trip to Lisbon",
		OwnerID:         "owner",
		MaxParticipants: capacity,
		Active:          true,
		CreatedAt:       time.Now(),
	}
}

func TestAddParticipant(t *testing.T) {
	r := testRoom(5)
	now := time.Now()

	r.AddParticipant(user.User{ID: "u1", FirstName: "Ada"}, now)
	require.Len(t, r.Participants, 1)
	assert.True(t, r.Participants[0].Online)
	assert.Equal(t, now, r.Participants[0].JoinedAt)

	// Re-adding refreshes in place rather than duplicating.
	later := now.Add(time.Minute)
	r.AddParticipant(user.User{ID: "u1", FirstName: "Ada", Avatar: "new.png"}, later)
	require.Len(t, r.Participants, 1)
	assert.Equal(t, now, r.Participants[0].JoinedAt)
	assert.Equal(t, later, r.Participants[0].LastSeen)
	assert.Equal(t, "new.png", r.Participants[0].User.Avatar)
}

func TestRemoveParticipantKeepsOrder(t *testing.T) {
	r := testRoom(5)
	now := time.Now()
	r.AddParticipant(user.User{ID: "u1"}, now)
	r.AddParticipant(user.User{ID: "u2"}, now)
	r.AddParticipant(user.User{ID: "u3"}, now)

	r.RemoveParticipant("u2")
	require.Len(t, r.Participants, 2)
	assert.Equal(t, "u1", r.Participants[0].User.ID)
	assert.Equal(t, "u3", r.Participants[1].User.ID)

	r.RemoveParticipant("missing") // no-op
	assert.Len(t, r.Participants, 2)
}

func TestIsFull(t *testing.T) {
	r := testRoom(2)
	now := time.Now()
	assert.False(t, r.IsFull())

	r.AddParticipant(user.User{ID: "u1"}, now)
	r.AddParticipant(user.User{ID: "u2"}, now)
	assert.True(t, r.IsFull())

	// Refreshing an existing member never counts against capacity.
	r.AddParticipant(user.User{ID: "u1"}, now)
	assert.Len(t, r.Participants, 2)
}

func TestAnyOnline(t *testing.T) {
	r := testRoom(5)
	now := time.Now()
	r.AddParticipant(user.User{ID: "u1"}, now)
	r.AddParticipant(user.User{ID: "u2"}, now)
	assert.True(t, r.AnyOnline())

	r.Participants[0].Online = false
	r.Participants[1].Online = false
	assert.False(t, r.AnyOnline())
}

func TestLastSeenWithin(t *testing.T) {
	r := testRoom(5)
	now := time.Now()
	r.AddParticipant(user.User{ID: "u1"}, now.Add(-time.Hour))
	r.Participants[0].Online = false

	assert.False(t, r.LastSeenWithin(now.Add(-30*time.Minute)))
	assert.True(t, r.LastSeenWithin(now.Add(-2*time.Hour)))
}
