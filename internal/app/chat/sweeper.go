/*
Package chat contains the room coordination engine.

This file defines the Sweeper: the periodic janitor that reconciles state no
event-driven path cleans up, namely identity mappings whose connection entry
already expired, stale offline participants, and rooms with no recent
presence at all.
*/
package chat

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"splitchat/internal/app/room"
	"splitchat/internal/app/session"
	"splitchat/internal/pkg/logx"
)

// Sweeper runs the eviction pass on a fixed interval.
type Sweeper struct {
	coordinator *Coordinator
	sessions    *session.Registry
	rooms       *room.Store

	interval time.Duration

	// inactivityWindow is how long a participant may stay offline before
	// being purged, and how long a room may sit without presence before
	// being flipped inactive.
	inactivityWindow time.Duration

	logger zerolog.Logger
}

// NewSweeper wires the sweeper to the coordinator and its stores.
func NewSweeper(coordinator *Coordinator, sessions *session.Registry, rooms *room.Store, interval, inactivityWindow time.Duration) *Sweeper {
	return &Sweeper{
		coordinator:      coordinator,
		sessions:         sessions,
		rooms:            rooms,
		interval:         interval,
		inactivityWindow: inactivityWindow,
		logger:           logx.Logger().With().Str("component", "Sweeper").Logger(),
	}
}

// Run loops until ctx is cancelled. Meant for a dedicated goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("Sweeper started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one full pass. A failure on one room never blocks the rest.
func (s *Sweeper) Sweep(ctx context.Context) {
	if customErr := s.sessions.SweepExpired(ctx); customErr != nil {
		s.logger.Warn().Msg("Session sweep failed; will retry next interval")
	}

	roomIDs, customErr := s.rooms.ActiveRoomIDs(ctx)
	if customErr != nil {
		s.logger.Warn().Msg("Could not list active rooms; will retry next interval")
		return
	}

	cutoff := time.Now().Add(-s.inactivityWindow)
	for _, roomID := range roomIDs {
		s.sweepRoom(ctx, roomID, cutoff)
	}
}

// sweepRoom purges long-offline participants and retires the room when
// nobody is online and nobody has been seen within the window. Runs under
// the room's serialization lock so it cannot race a concurrent join.
func (s *Sweeper) sweepRoom(ctx context.Context, roomID string, cutoff time.Time) {
	s.coordinator.lockRoom(roomID)
	defer s.coordinator.unlockRoom(roomID)

	r, customErr := s.rooms.GetByID(ctx, roomID)
	if customErr != nil {
		// Deleted since listing; the active index self-corrects on the next
		// deletion or listing path, nothing to do here.
		return
	}
	if !r.Active {
		return
	}

	var purged []room.Participant
	for _, p := range r.Participants {
		if !p.Online && p.LastSeen.Before(cutoff) {
			purged = append(purged, p)
		}
	}
	for _, p := range purged {
		r.RemoveParticipant(p.User.ID)
	}

	if !r.AnyOnline() && !r.LastSeenWithin(cutoff) {
		r.Active = false
		if customErr := s.rooms.Save(ctx, r); customErr != nil {
			return
		}
		if customErr := s.rooms.SetActive(ctx, r.ID, false); customErr != nil {
			return
		}
		s.coordinator.dropChannel(r.ID)
		s.logger.Info().Str("room_id", r.ID).Str("room_code", r.Code).Msg("Room retired for inactivity")
		return
	}

	if len(purged) == 0 {
		return
	}

	if customErr := s.rooms.Save(ctx, r); customErr != nil {
		return
	}
	for _, p := range purged {
		s.coordinator.broadcast(r.ID, EventUserLeft, UserEventPayload{RoomID: r.ID, Participant: p})
		s.logger.Info().Str("room_id", r.ID).Str("user_id", p.User.ID).Msg("Purged stale participant")
	}
}
