/*
Package typing implements the ephemeral typing-indicator tracker.

A live key means "currently typing"; the TTL is the cancellation mechanism,
so a flag that is never refreshed self-heals into "stopped typing" with no
reconciliation pass. The tracker is a UX signal only and never authoritative
for membership.
*/
package typing

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"splitchat/internal/app/store"
	"splitchat/internal/pkg/logx"
)

const flagKeyPrefix = "typing:"

// Tracker is the Redis-backed typing-flag tracker.
type Tracker struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewTracker builds a Tracker whose flags expire after ttl (a few seconds).
func NewTracker(rdb *redis.Client, ttl time.Duration) *Tracker {
	return &Tracker{
		rdb:    rdb,
		ttl:    ttl,
		logger: logx.Logger().With().Str("component", "TypingTracker").Logger(),
	}
}

func flagKey(roomID, userID string) string {
	return flagKeyPrefix + roomID + ":" + userID
}

// Set marks the user as typing in the room, refreshing the TTL.
func (t *Tracker) Set(ctx context.Context, roomID, userID string) error {
	return t.rdb.Set(ctx, flagKey(roomID, userID), "1", t.ttl).Err()
}

// Clear proactively removes the flag ahead of its natural expiry.
func (t *Tracker) Clear(ctx context.Context, roomID, userID string) error {
	return t.rdb.Del(ctx, flagKey(roomID, userID)).Err()
}

// Active returns the user ids currently typing in the room.
func (t *Tracker) Active(ctx context.Context, roomID string) ([]string, error) {
	keys, err := store.ScanKeys(ctx, t.rdb, flagKeyPrefix+roomID+":*")
	if err != nil {
		return nil, err
	}

	prefix := flagKeyPrefix + roomID + ":"
	userIDs := make([]string, 0, len(keys))
	for _, key := range keys {
		userIDs = append(userIDs, strings.TrimPrefix(key, prefix))
	}
	return userIDs, nil
}

// ClearUser removes the user's flags in every room; part of full logout
// cleanup.
func (t *Tracker) ClearUser(ctx context.Context, userID string) error {
	keys, err := store.ScanKeys(ctx, t.rdb, flagKeyPrefix+"*:"+userID)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return t.rdb.Del(ctx, keys...).Err()
}
