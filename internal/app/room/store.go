package room

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"splitchat/internal/pkg/errs"
	"splitchat/internal/pkg/logx"
	"splitchat/internal/pkg/randx"
)

// Key layout:
//
//	room:<id>        -> JSON room document, roster included
//	roomcode:<CODE>  -> room id (claimed with SETNX, released on delete)
//	rooms:active     -> set of active room ids
const (
	roomKeyPrefix = "room:"
	codeKeyPrefix = "roomcode:"
	activeSetKey  = "rooms:active"
)

// Store is the Redis-backed room store. Roster read-modify-write cycles are
// not atomic here; the coordinator serializes all mutations for a given room
// behind its per-room lock.
type Store struct {
	rdb    *redis.Client
	logger zerolog.Logger
}

// NewStore builds a room Store on the shared Redis client.
func NewStore(rdb *redis.Client) *Store {
	return &Store{
		rdb:    rdb,
		logger: logx.Logger().With().Str("component", "RoomStore").Logger(),
	}
}

func roomKey(id string) string   { return roomKeyPrefix + id }
func codeKey(code string) string { return codeKeyPrefix + randx.NormalizeRoomCode(code) }

func (s *Store) storeErr(err error, op string) *errs.CustomError {
	s.logger.Error().Err(err).Str("op", op).Msg("Keyed store operation failed")
	return errs.NewError(errs.ErrStoreUnavailable)
}

// Create persists a new room, claiming its code atomically. A code already
// held by another room yields ErrRoomCodeExists; the caller regenerates and
// retries.
func (s *Store) Create(ctx context.Context, r *Room) *errs.CustomError {
	claimed, err := s.rdb.SetNX(ctx, codeKey(r.Code), r.ID, 0).Result()
	if err != nil {
		return s.storeErr(err, "create.claimCode")
	}
	if !claimed {
		return errs.NewError(errs.ErrRoomCodeExists)
	}

	if customErr := s.Save(ctx, r); customErr != nil {
		// Give the code back so the failed create leaves nothing behind.
		s.rdb.Del(ctx, codeKey(r.Code))
		return customErr
	}

	if err := s.rdb.SAdd(ctx, activeSetKey, r.ID).Err(); err != nil {
		return s.storeErr(err, "create.index")
	}
	return nil
}

// Save writes the full room document.
func (s *Store) Save(ctx context.Context, r *Room) *errs.CustomError {
	payload, err := json.Marshal(r)
	if err != nil {
		return s.storeErr(err, "save.marshal")
	}
	if err := s.rdb.Set(ctx, roomKey(r.ID), payload, 0).Err(); err != nil {
		return s.storeErr(err, "save.write")
	}
	return nil
}

// GetByID loads a room, or returns ErrRoomNotFound.
func (s *Store) GetByID(ctx context.Context, id string) (*Room, *errs.CustomError) {
	payload, err := s.rdb.Get(ctx, roomKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errs.NewError(errs.ErrRoomNotFound)
	}
	if err != nil {
		return nil, s.storeErr(err, "getByID")
	}

	var r Room
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, s.storeErr(err, "getByID.unmarshal")
	}
	return &r, nil
}

// GetByCode resolves a (case-insensitive) code to its room.
func (s *Store) GetByCode(ctx context.Context, code string) (*Room, *errs.CustomError) {
	id, err := s.rdb.Get(ctx, codeKey(code)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, errs.NewError(errs.ErrRoomNotFound)
	}
	if err != nil {
		return nil, s.storeErr(err, "getByCode")
	}
	return s.GetByID(ctx, id)
}

// SetActive flips the room's active flag, keeping the active index in step.
// Inactive rooms stay queryable by id and code until deleted.
func (s *Store) SetActive(ctx context.Context, id string, active bool) *errs.CustomError {
	r, customErr := s.GetByID(ctx, id)
	if customErr != nil {
		return customErr
	}

	r.Active = active
	if customErr := s.Save(ctx, r); customErr != nil {
		return customErr
	}

	var err error
	if active {
		err = s.rdb.SAdd(ctx, activeSetKey, id).Err()
	} else {
		err = s.rdb.SRem(ctx, activeSetKey, id).Err()
	}
	if err != nil {
		return s.storeErr(err, "setActive.index")
	}
	return nil
}

// Delete hard-deletes the room: document, code index and active-index
// membership all go, releasing the id and code for reuse.
func (s *Store) Delete(ctx context.Context, id string) *errs.CustomError {
	r, customErr := s.GetByID(ctx, id)
	if customErr != nil {
		return customErr
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, roomKey(id))
	pipe.Del(ctx, codeKey(r.Code))
	pipe.SRem(ctx, activeSetKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return s.storeErr(err, "delete")
	}
	return nil
}

// ActiveRoomIDs returns the ids in the active index; the sweeper iterates
// this rather than scanning every room document.
func (s *Store) ActiveRoomIDs(ctx context.Context) ([]string, *errs.CustomError) {
	ids, err := s.rdb.SMembers(ctx, activeSetKey).Result()
	if err != nil {
		return nil, s.storeErr(err, "activeRoomIDs")
	}
	return ids, nil
}
