package room

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"splitchat/internal/app/user"
	"splitchat/internal/pkg/errs"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available at localhost:6379: %v", err)
	}

	require.NoError(t, client.FlushDB(ctx).Err())
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return client
}

func storedRoom(code string) *Room {
	r := &Room{
		ID:              "room-" + code,
		Code:            code,
		Name:            "Trip to Lisbon",
		OwnerID:         "owner",
		MaxParticipants: 10,
		Active:          true,
		CreatedAt:       time.Now(),
	}
	r.AddParticipant(user.User{ID: "owner", FirstName: "Ada"}, time.Now())
	return r
}

func TestCreateAndGet(t *testing.T) {
	store := NewStore(newTestClient(t))
	ctx := context.Background()

	r := storedRoom("ABC234")
	require.Nil(t, store.Create(ctx, r))

	got, customErr := store.GetByID(ctx, r.ID)
	require.Nil(t, customErr)
	assert.Equal(t, r.Code, got.Code)
	assert.Len(t, got.Participants, 1)

	got, customErr = store.GetByCode(ctx, "ABC234")
	require.Nil(t, customErr)
	assert.Equal(t, r.ID, got.ID)
}

func TestGetByCodeIsCaseInsensitive(t *testing.T) {
	store := NewStore(newTestClient(t))
	ctx := context.Background()

	require.Nil(t, store.Create(ctx, storedRoom("ABC234")))

	got, customErr := store.GetByCode(ctx, "abc234")
	require.Nil(t, customErr)
	assert.Equal(t, "ABC234", got.Code)
}

func TestCreateDuplicateCode(t *testing.T) {
	store := NewStore(newTestClient(t))
	ctx := context.Background()

	require.Nil(t, store.Create(ctx, storedRoom("ABC234")))

	dup := storedRoom("ABC234")
	dup.ID = "room-other"
	customErr := store.Create(ctx, dup)
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrRoomCodeExists, customErr.Code)
}

func TestGetMissing(t *testing.T) {
	store := NewStore(newTestClient(t))
	ctx := context.Background()

	_, customErr := store.GetByID(ctx, "nope")
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrRoomNotFound, customErr.Code)

	_, customErr = store.GetByCode(ctx, "ZZZZZZ")
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrRoomNotFound, customErr.Code)
}

func TestSetActive(t *testing.T) {
	store := NewStore(newTestClient(t))
	ctx := context.Background()

	r := storedRoom("ABC234")
	require.Nil(t, store.Create(ctx, r))

	ids, customErr := store.ActiveRoomIDs(ctx)
	require.Nil(t, customErr)
	assert.Contains(t, ids, r.ID)

	require.Nil(t, store.SetActive(ctx, r.ID, false))

	ids, customErr = store.ActiveRoomIDs(ctx)
	require.Nil(t, customErr)
	assert.NotContains(t, ids, r.ID)

	// The room stays resolvable by id and code while inactive.
	got, customErr := store.GetByCode(ctx, r.Code)
	require.Nil(t, customErr)
	assert.False(t, got.Active)

	require.Nil(t, store.SetActive(ctx, r.ID, true))
	ids, _ = store.ActiveRoomIDs(ctx)
	assert.Contains(t, ids, r.ID)
}

func TestDeleteReleasesCode(t *testing.T) {
	store := NewStore(newTestClient(t))
	ctx := context.Background()

	r := storedRoom("ABC234")
	require.Nil(t, store.Create(ctx, r))
	require.Nil(t, store.Delete(ctx, r.ID))

	_, customErr := store.GetByID(ctx, r.ID)
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrRoomNotFound, customErr.Code)

	ids, _ := store.ActiveRoomIDs(ctx)
	assert.NotContains(t, ids, r.ID)

	// The code is immediately reusable by a new room.
	fresh := storedRoom("ABC234")
	fresh.ID = "room-fresh"
	require.Nil(t, store.Create(ctx, fresh))
}
