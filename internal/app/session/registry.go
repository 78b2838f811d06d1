/*
Package session implements the Session Registry: the bidirectional, TTL-bounded
binding between a durable user identity and the ephemeral connection currently
speaking for it.

Three key families live in the keyed store, all expiring after the session TTL:

	session:conn:<connID>  -> JSON session payload (identity, names, avatar, current room)
	session:user:<userID>  -> connID of the single live connection
	activity:<userID>      -> RFC 3339 instant refreshed by the ping path

Absence of the user mapping means "not connected" regardless of any
Participant.Online flag, which is advisory and reconciled on reconnect.
*/
package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"splitchat/internal/app/store"
	"splitchat/internal/app/user"
	"splitchat/internal/pkg/errs"
	"splitchat/internal/pkg/logx"
)

const (
	connKeyPrefix     = "session:conn:"
	userKeyPrefix     = "session:user:"
	activityKeyPrefix = "activity:"
)

// Session is the per-connection payload stored under session:conn:<connID>.
type Session struct {
	User user.User `json:"user"`

	// RoomID is the room this session is currently bound to, empty when idle.
	RoomID string `json:"roomId,omitempty"`
}

// Registry is the Redis-backed session registry.
type Registry struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRegistry builds a Registry whose entries expire after ttl.
func NewRegistry(rdb *redis.Client, ttl time.Duration) *Registry {
	return &Registry{
		rdb:    rdb,
		ttl:    ttl,
		logger: logx.Logger().With().Str("component", "SessionRegistry").Logger(),
	}
}

func connKey(connID string) string { return connKeyPrefix + connID }
func userKey(userID string) string { return userKeyPrefix + userID }
func activityKey(userID string) string { return activityKeyPrefix + userID }

// storeErr logs a backing-store failure at high severity and maps it to the
// generic transient rejection. The registry never crashes the coordinator.
func (r *Registry) storeErr(err error, op string) *errs.CustomError {
	r.logger.Error().Err(err).Str("op", op).Msg("Keyed store operation failed")
	return errs.NewError(errs.ErrStoreUnavailable)
}

// Authenticate binds connID to the identity, overwriting any prior binding
// for the same identity. It returns the displaced connection id (empty when
// none) so the caller can disconnect the orphaned connection.
func (r *Registry) Authenticate(ctx context.Context, connID string, u user.User) (string, *errs.CustomError) {
	displaced, err := r.rdb.Get(ctx, userKey(u.ID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", r.storeErr(err, "authenticate.lookup")
	}
	if displaced == connID {
		displaced = ""
	}

	payload, err := json.Marshal(Session{User: u})
	if err != nil {
		return "", r.storeErr(err, "authenticate.marshal")
	}

	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, connKey(connID), payload, r.ttl)
	pipe.Set(ctx, userKey(u.ID), connID, r.ttl)
	if displaced != "" {
		pipe.Del(ctx, connKey(displaced))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return "", r.storeErr(err, "authenticate.write")
	}

	return displaced, nil
}

// LookupByConnection returns the session bound to connID, or nil when absent.
func (r *Registry) LookupByConnection(ctx context.Context, connID string) (*Session, *errs.CustomError) {
	payload, err := r.rdb.Get(ctx, connKey(connID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, r.storeErr(err, "lookupByConnection")
	}

	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, r.storeErr(err, "lookupByConnection.unmarshal")
	}
	return &sess, nil
}

// LookupByIdentity returns the live connection id for the identity, or empty
// when the identity is not connected.
func (r *Registry) LookupByIdentity(ctx context.Context, userID string) (string, *errs.CustomError) {
	connID, err := r.rdb.Get(ctx, userKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", r.storeErr(err, "lookupByIdentity")
	}
	return connID, nil
}

// SetCurrentRoom records (or clears, with roomID == "") the room the
// identity's live session is bound to. A disconnected identity is a no-op.
func (r *Registry) SetCurrentRoom(ctx context.Context, userID, roomID string) *errs.CustomError {
	connID, customErr := r.LookupByIdentity(ctx, userID)
	if customErr != nil {
		return customErr
	}
	if connID == "" {
		return nil
	}

	sess, customErr := r.LookupByConnection(ctx, connID)
	if customErr != nil {
		return customErr
	}
	if sess == nil {
		return nil
	}

	sess.RoomID = roomID
	payload, err := json.Marshal(sess)
	if err != nil {
		return r.storeErr(err, "setCurrentRoom.marshal")
	}

	// KeepTTL: the room move must not extend the session lifetime.
	if err := r.rdb.Set(ctx, connKey(connID), payload, redis.KeepTTL).Err(); err != nil {
		return r.storeErr(err, "setCurrentRoom.write")
	}
	return nil
}

// Disconnect removes the connection-keyed entry and, when the identity index
// still points at this connection, the identity-keyed entry too. Idempotent.
func (r *Registry) Disconnect(ctx context.Context, connID string) *errs.CustomError {
	sess, customErr := r.LookupByConnection(ctx, connID)
	if customErr != nil {
		return customErr
	}

	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, connKey(connID))
	if _, err := pipe.Exec(ctx); err != nil {
		return r.storeErr(err, "disconnect")
	}

	if sess == nil {
		return nil
	}

	// Only drop the identity mapping if it still points here; a newer
	// authentication may already own it.
	current, err := r.rdb.Get(ctx, userKey(sess.User.ID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return r.storeErr(err, "disconnect.lookup")
	}
	if current == connID {
		if err := r.rdb.Del(ctx, userKey(sess.User.ID)).Err(); err != nil {
			return r.storeErr(err, "disconnect.unindex")
		}
	}
	return nil
}

// FullLogoutCleanup removes every session artifact for the identity: the
// identity mapping, the activity record, and any connection-keyed entries
// still naming the identity, even stale ones a partial disconnect left
// behind. Typing flags are cleared by the coordinator alongside this call.
func (r *Registry) FullLogoutCleanup(ctx context.Context, userID string) *errs.CustomError {
	if err := r.rdb.Del(ctx, userKey(userID), activityKey(userID)).Err(); err != nil {
		return r.storeErr(err, "fullLogout.unindex")
	}

	keys, err := store.ScanKeys(ctx, r.rdb, connKeyPrefix+"*")
	if err != nil {
		return r.storeErr(err, "fullLogout.scan")
	}

	for _, key := range keys {
		payload, err := r.rdb.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return r.storeErr(err, "fullLogout.read")
		}

		var sess Session
		if json.Unmarshal(payload, &sess) != nil {
			continue
		}
		if sess.User.ID != userID {
			continue
		}
		if err := r.rdb.Del(ctx, key).Err(); err != nil {
			return r.storeErr(err, "fullLogout.delete")
		}
	}
	return nil
}

// SweepExpired drops identity mappings whose connection entry has already
// expired, leaving the identity cleanly "not connected".
func (r *Registry) SweepExpired(ctx context.Context) *errs.CustomError {
	keys, err := store.ScanKeys(ctx, r.rdb, userKeyPrefix+"*")
	if err != nil {
		return r.storeErr(err, "sweep.scan")
	}

	dropped := 0
	for _, key := range keys {
		connID, err := r.rdb.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return r.storeErr(err, "sweep.read")
		}

		exists, err := r.rdb.Exists(ctx, connKey(connID)).Result()
		if err != nil {
			return r.storeErr(err, "sweep.check")
		}
		if exists == 0 {
			if err := r.rdb.Del(ctx, key).Err(); err != nil {
				return r.storeErr(err, "sweep.delete")
			}
			dropped++
		}
	}

	if dropped > 0 {
		r.logger.Info().Int("dropped", dropped).Msg("Removed dangling identity mappings")
	}
	return nil
}

// TouchActivity refreshes the identity's liveness timestamp.
func (r *Registry) TouchActivity(ctx context.Context, userID string) *errs.CustomError {
	stamp := time.Now().UTC().Format(time.RFC3339Nano)
	if err := r.rdb.Set(ctx, activityKey(userID), stamp, r.ttl).Err(); err != nil {
		return r.storeErr(err, "touchActivity")
	}
	return nil
}
