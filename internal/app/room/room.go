/*
Package room implements the Room Store: room metadata, the participant
roster, the shareable code index, and the active-room index.
*/
package room

import (
	"time"

	"splitchat/internal/app/user"
)

const (
	// MinCapacity and MaxCapacity bound how many participants a room may hold.
	MinCapacity = 2
	MaxCapacity = 100

	// DefaultCapacity applies when a create request leaves capacity unset.
	DefaultCapacity = 50
)

// Participant is a user's membership record within a room. Online is
// advisory soft presence: a participant stays on the roster when they drop
// offline and is only removed by an explicit leave being swept as stale, or
// by room deletion.
type Participant struct {
	User     user.User `json:"user"`
	JoinedAt time.Time `json:"joinedAt"`
	Online   bool      `json:"online"`
	LastSeen time.Time `json:"lastSeen"`
}

// Room is a named, coded, capacity-bounded conversation scope. Participants
// keep insertion order and are unique by user id.
type Room struct {
	ID              string        `json:"id"`
	Code            string        `json:"code"`
	Name            string        `json:"name"`
	OwnerID         string        `json:"ownerId"`
	MaxParticipants int           `json:"maxParticipants"`
	Active          bool          `json:"active"`
	CreatedAt       time.Time     `json:"createdAt"`
	Participants    []Participant `json:"participants"`
}

// FindParticipant returns a pointer into the roster for userID, or nil.
func (r *Room) FindParticipant(userID string) *Participant {
	for i := range r.Participants {
		if r.Participants[i].User.ID == userID {
			return &r.Participants[i]
		}
	}
	return nil
}

// AddParticipant appends a new online participant. Existing members are
// refreshed in place instead of duplicated.
func (r *Room) AddParticipant(u user.User, now time.Time) {
	if p := r.FindParticipant(u.ID); p != nil {
		p.User = u
		p.Online = true
		p.LastSeen = now
		return
	}

	r.Participants = append(r.Participants, Participant{
		User:     u,
		JoinedAt: now,
		Online:   true,
		LastSeen: now,
	})
}

// RemoveParticipant drops userID from the roster, preserving order.
func (r *Room) RemoveParticipant(userID string) {
	for i := range r.Participants {
		if r.Participants[i].User.ID == userID {
			r.Participants = append(r.Participants[:i], r.Participants[i+1:]...)
			return
		}
	}
}

// IsFull reports whether the roster has reached capacity.
func (r *Room) IsFull() bool {
	return r.MaxParticipants > 0 && len(r.Participants) >= r.MaxParticipants
}

// AnyOnline reports whether at least one participant is currently online.
func (r *Room) AnyOnline() bool {
	for i := range r.Participants {
		if r.Participants[i].Online {
			return true
		}
	}
	return false
}

// LastSeenWithin reports whether any participant was seen after cutoff.
func (r *Room) LastSeenWithin(cutoff time.Time) bool {
	for i := range r.Participants {
		if r.Participants[i].LastSeen.After(cutoff) {
			return true
		}
	}
	return false
}
