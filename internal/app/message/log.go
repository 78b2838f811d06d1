package message

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"splitchat/internal/pkg/errs"
	"splitchat/internal/pkg/logx"
	"splitchat/internal/pkg/randx"
)

// Key layout:
//
//	msg:<id>            -> JSON message, TTL = retention horizon
//	room:<roomID>:msgs  -> ZSET of message ids scored by insertion sequence
//	room:<roomID>:msgseq -> INCR counter feeding the sequence
//
// Retention is the substrate's own expiry on the message keys; the index may
// briefly name expired ids, which reads skip. The sequence score makes the
// index itself the reverse-chronological order with insertion tie-break,
// because sequence numbers are assigned under the room's serialization lock
// at the same instant as the creation timestamp.
const (
	msgKeyPrefix   = "msg:"
	indexKeySuffix = ":msgs"
	seqKeySuffix   = ":msgseq"
	roomKeyPrefix  = "room:"
)

// MediaRemover is the narrow slice of the object storage service the log
// needs for cascade cleanup. Removal is best-effort: failures are logged and
// swallowed, never surfaced to the owning delete.
type MediaRemover interface {
	DeleteByURL(ctx context.Context, url string) error
}

// Log is the Redis-backed message log.
type Log struct {
	rdb       *redis.Client
	retention time.Duration
	media     MediaRemover
	logger    zerolog.Logger
}

// NewLog builds a Log. media may be nil when no storage service is wired
// (media cleanup then becomes a no-op).
func NewLog(rdb *redis.Client, retention time.Duration, media MediaRemover) *Log {
	return &Log{
		rdb:       rdb,
		retention: retention,
		media:     media,
		logger:    logx.Logger().With().Str("component", "MessageLog").Logger(),
	}
}

func msgKey(id string) string       { return msgKeyPrefix + id }
func indexKey(roomID string) string { return roomKeyPrefix + roomID + indexKeySuffix }
func seqKey(roomID string) string   { return roomKeyPrefix + roomID + seqKeySuffix }

func (l *Log) storeErr(err error, op string) *errs.CustomError {
	l.logger.Error().Err(err).Str("op", op).Msg("Keyed store operation failed")
	return errs.NewError(errs.ErrStoreUnavailable)
}

// Append assigns id, sequence and creation timestamp, persists the message
// and indexes it. The caller holds the room's serialization lock, so sequence
// order is arrival order.
func (l *Log) Append(ctx context.Context, m *Message) *errs.CustomError {
	seq, err := l.rdb.Incr(ctx, seqKey(m.RoomID)).Result()
	if err != nil {
		return l.storeErr(err, "append.seq")
	}

	if m.ID == "" {
		m.ID = randx.NewID()
	}
	m.Seq = seq
	m.CreatedAt = time.Now()

	payload, err := json.Marshal(m)
	if err != nil {
		return l.storeErr(err, "append.marshal")
	}

	pipe := l.rdb.TxPipeline()
	pipe.Set(ctx, msgKey(m.ID), payload, l.retention)
	pipe.ZAdd(ctx, indexKey(m.RoomID), redis.Z{Score: float64(seq), Member: m.ID})
	// The index and counter outlive individual messages by one retention
	// window past the last append.
	pipe.Expire(ctx, indexKey(m.RoomID), l.retention)
	pipe.Expire(ctx, seqKey(m.RoomID), l.retention)
	if _, err := pipe.Exec(ctx); err != nil {
		return l.storeErr(err, "append.write")
	}
	return nil
}

// Get loads one message by id.
func (l *Log) Get(ctx context.Context, id string) (*Message, *errs.CustomError) {
	payload, err := l.rdb.Get(ctx, msgKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errs.NewError(errs.ErrMessageNotFound)
	}
	if err != nil {
		return nil, l.storeErr(err, "get")
	}

	var m Message
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, l.storeErr(err, "get.unmarshal")
	}
	return &m, nil
}

// ListByRoom returns up to limit messages newest-first, starting at offset.
// Ids whose message key has already expired are skipped.
func (l *Log) ListByRoom(ctx context.Context, roomID string, limit, offset int) ([]*Message, *errs.CustomError) {
	if limit <= 0 {
		return nil, nil
	}

	ids, err := l.rdb.ZRevRange(ctx, indexKey(roomID), int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, l.storeErr(err, "list.range")
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = msgKey(id)
	}

	values, err := l.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, l.storeErr(err, "list.fetch")
	}

	messages := make([]*Message, 0, len(values))
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue // expired out from under the index
		}
		var m Message
		if json.Unmarshal([]byte(raw), &m) != nil {
			continue
		}
		messages = append(messages, &m)
	}
	return messages, nil
}

// Count returns the number of indexed messages for the room.
func (l *Log) Count(ctx context.Context, roomID string) (int64, *errs.CustomError) {
	n, err := l.rdb.ZCard(ctx, indexKey(roomID)).Result()
	if err != nil {
		return 0, l.storeErr(err, "count")
	}
	return n, nil
}

// Latest returns the newest message in the room, or nil when the log is empty.
func (l *Log) Latest(ctx context.Context, roomID string) (*Message, *errs.CustomError) {
	messages, customErr := l.ListByRoom(ctx, roomID, 1, 0)
	if customErr != nil {
		return nil, customErr
	}
	if len(messages) == 0 {
		return nil, nil
	}
	return messages[0], nil
}

// Update rewrites an edited message in place, preserving its TTL so an edit
// does not extend retention.
func (l *Log) Update(ctx context.Context, m *Message) *errs.CustomError {
	payload, err := json.Marshal(m)
	if err != nil {
		return l.storeErr(err, "update.marshal")
	}
	if err := l.rdb.Set(ctx, msgKey(m.ID), payload, redis.KeepTTL).Err(); err != nil {
		return l.storeErr(err, "update.write")
	}
	return nil
}

// DeleteOne removes a message permanently and, for media kinds, fires the
// best-effort storage cleanup.
func (l *Log) DeleteOne(ctx context.Context, id string) *errs.CustomError {
	m, customErr := l.Get(ctx, id)
	if customErr != nil {
		return customErr
	}

	pipe := l.rdb.TxPipeline()
	pipe.Del(ctx, msgKey(id))
	pipe.ZRem(ctx, indexKey(m.RoomID), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return l.storeErr(err, "deleteOne")
	}

	l.removeMedia(m)
	return nil
}

// PurgeRoom deletes every message in the room plus the index and sequence
// counter, collecting media references for best-effort cleanup.
func (l *Log) PurgeRoom(ctx context.Context, roomID string) *errs.CustomError {
	ids, err := l.rdb.ZRange(ctx, indexKey(roomID), 0, -1).Result()
	if err != nil {
		return l.storeErr(err, "purge.range")
	}

	var mediaURLs []string
	for _, id := range ids {
		m, customErr := l.Get(ctx, id)
		if customErr == nil && m.MediaURL != "" {
			mediaURLs = append(mediaURLs, m.MediaURL)
		}
	}

	pipe := l.rdb.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, msgKey(id))
	}
	pipe.Del(ctx, indexKey(roomID))
	pipe.Del(ctx, seqKey(roomID))
	if _, err := pipe.Exec(ctx); err != nil {
		return l.storeErr(err, "purge.delete")
	}

	for _, url := range mediaURLs {
		l.removeMediaURL(url)
	}
	return nil
}

// removeMedia triggers the storage cascade for media messages.
func (l *Log) removeMedia(m *Message) {
	if m.MediaURL == "" || (m.Kind != KindImage && m.Kind != KindFile) {
		return
	}
	l.removeMediaURL(m.MediaURL)
}

// removeMediaURL deletes one stored object in the background. The owning
// message operation has already succeeded; a failure here only logs.
func (l *Log) removeMediaURL(url string) {
	if l.media == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := l.media.DeleteByURL(ctx, url); err != nil {
			l.logger.Warn().Err(err).Str("media_url", url).Msg("Best-effort media cleanup failed")
		}
	}()
}
