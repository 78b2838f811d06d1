package session

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"splitchat/internal/app/user"
)

// newTestClient dials the local Redis test database, skipping the test when
// no instance is reachable.
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

func testUser(id string) user.User {
	return user.User{ID: id, FirstName: "Ada", LastName: "Lovelace"}
}

func TestAuthenticateAndLookup(t *testing.T) {
	rdb := newTestClient(t)
	reg := NewRegistry(rdb, time.Hour)
	ctx := context.Background()

	displaced, customErr := reg.Authenticate(ctx, "conn-1", testUser("u1"))
	require.Nil(t, customErr)
	assert.Empty(t, displaced)

	sess, customErr := reg.LookupByConnection(ctx, "conn-1")
	require.Nil(t, customErr)
	require.NotNil(t, sess)
	assert.Equal(t, "u1", sess.User.ID)
	assert.Empty(t, sess.RoomID)

	connID, customErr := reg.LookupByIdentity(ctx, "u1")
	require.Nil(t, customErr)
	assert.Equal(t, "conn-1", connID)
}

func TestAuthenticateDisplacesOlderConnection(t *testing.T) {
	rdb := newTestClient(t)
	reg := NewRegistry(rdb, time.Hour)
	ctx := context.Background()

	_, customErr := reg.Authenticate(ctx, "conn-1", testUser("u1"))
	require.Nil(t, customErr)

	displaced, customErr := reg.Authenticate(ctx, "conn-2", testUser("u1"))
	require.Nil(t, customErr)
	assert.Equal(t, "conn-1", displaced)

	// The displaced connection's entry is gone; the identity points at the
	// newer connection.
	sess, customErr := reg.LookupByConnection(ctx, "conn-1")
	require.Nil(t, customErr)
	assert.Nil(t, sess)

	connID, customErr := reg.LookupByIdentity(ctx, "u1")
	require.Nil(t, customErr)
	assert.Equal(t, "conn-2", connID)
}

func TestAuthenticateSameConnectionTwice(t *testing.T) {
	rdb := newTestClient(t)
	reg := NewRegistry(rdb, time.Hour)
	ctx := context.Background()

	_, customErr := reg.Authenticate(ctx, "conn-1", testUser("u1"))
	require.Nil(t, customErr)

	displaced, customErr := reg.Authenticate(ctx, "conn-1", testUser("u1"))
	require.Nil(t, customErr)
	assert.Empty(t, displaced)

	sess, customErr := reg.LookupByConnection(ctx, "conn-1")
	require.Nil(t, customErr)
	require.NotNil(t, sess)
}

func TestSetCurrentRoom(t *testing.T) {
	rdb := newTestClient(t)
	reg := NewRegistry(rdb, time.Hour)
	ctx := context.Background()

	_, customErr := reg.Authenticate(ctx, "conn-1", testUser("u1"))
	require.Nil(t, customErr)

	require.Nil(t, reg.SetCurrentRoom(ctx, "u1", "room-9"))

	sess, customErr := reg.LookupByConnection(ctx, "conn-1")
	require.Nil(t, customErr)
	require.NotNil(t, sess)
	assert.Equal(t, "room-9", sess.RoomID)

	// Clearing works the same way.
	require.Nil(t, reg.SetCurrentRoom(ctx, "u1", ""))
	sess, _ = reg.LookupByConnection(ctx, "conn-1")
	assert.Empty(t, sess.RoomID)

	// Disconnected identities are a silent no-op.
	require.Nil(t, reg.SetCurrentRoom(ctx, "ghost", "room-9"))
}

func TestDisconnect(t *testing.T) {
	rdb := newTestClient(t)
	reg := NewRegistry(rdb, time.Hour)
	ctx := context.Background()

	_, customErr := reg.Authenticate(ctx, "conn-1", testUser("u1"))
	require.Nil(t, customErr)

	require.Nil(t, reg.Disconnect(ctx, "conn-1"))

	sess, customErr := reg.LookupByConnection(ctx, "conn-1")
	require.Nil(t, customErr)
	assert.Nil(t, sess)

	connID, customErr := reg.LookupByIdentity(ctx, "u1")
	require.Nil(t, customErr)
	assert.Empty(t, connID)

	// Disconnecting again is fine.
	require.Nil(t, reg.Disconnect(ctx, "conn-1"))
}

func TestDisconnectLeavesNewerBindingAlone(t *testing.T) {
	rdb := newTestClient(t)
	reg := NewRegistry(rdb, time.Hour)
	ctx := context.Background()

	_, customErr := reg.Authenticate(ctx, "conn-1", testUser("u1"))
	require.Nil(t, customErr)
	_, customErr = reg.Authenticate(ctx, "conn-2", testUser("u1"))
	require.Nil(t, customErr)

	// The old connection tears down after the new one took over; the identity
	// mapping must survive.
	require.Nil(t, reg.Disconnect(ctx, "conn-1"))

	connID, customErr := reg.LookupByIdentity(ctx, "u1")
	require.Nil(t, customErr)
	assert.Equal(t, "conn-2", connID)
}

func TestFullLogoutCleanup(t *testing.T) {
	rdb := newTestClient(t)
	reg := NewRegistry(rdb, time.Hour)
	ctx := context.Background()

	_, customErr := reg.Authenticate(ctx, "conn-1", testUser("u1"))
	require.Nil(t, customErr)
	require.Nil(t, reg.TouchActivity(ctx, "u1"))

	// A second user must be untouched by u1's logout.
	_, customErr = reg.Authenticate(ctx, "conn-2", testUser("u2"))
	require.Nil(t, customErr)

	require.Nil(t, reg.FullLogoutCleanup(ctx, "u1"))

	sess, _ := reg.LookupByConnection(ctx, "conn-1")
	assert.Nil(t, sess)
	connID, _ := reg.LookupByIdentity(ctx, "u1")
	assert.Empty(t, connID)
	exists, err := rdb.Exists(ctx, "activity:u1").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	other, _ := reg.LookupByConnection(ctx, "conn-2")
	require.NotNil(t, other)
	assert.Equal(t, "u2", other.User.ID)
}

func TestSweepExpired(t *testing.T) {
	rdb := newTestClient(t)
	reg := NewRegistry(rdb, time.Hour)
	ctx := context.Background()

	_, customErr := reg.Authenticate(ctx, "conn-1", testUser("u1"))
	require.Nil(t, customErr)
	_, customErr = reg.Authenticate(ctx, "conn-2", testUser("u2"))
	require.Nil(t, customErr)

	// Simulate the connection entry expiring out from under the identity
	// mapping.
	require.NoError(t, rdb.Del(ctx, "session:conn:conn-1").Err())

	require.Nil(t, reg.SweepExpired(ctx))

	connID, _ := reg.LookupByIdentity(ctx, "u1")
	assert.Empty(t, connID)
	connID, _ = reg.LookupByIdentity(ctx, "u2")
	assert.Equal(t, "conn-2", connID)
}

func TestTouchActivity(t *testing.T) {
	rdb := newTestClient(t)
	reg := NewRegistry(rdb, time.Hour)
	ctx := context.Background()

	require.Nil(t, reg.TouchActivity(ctx, "u1"))

	ttl, err := rdb.TTL(ctx, "activity:u1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Minute)
}
