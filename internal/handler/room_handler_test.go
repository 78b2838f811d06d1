package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"splitchat/internal/app/room"
	"splitchat/internal/app/user"
	"splitchat/internal/pkg/errs"
	"splitchat/internal/pkg/resp"
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

func previewRouter(t *testing.T) (*chi.Mux, *room.Store) {
	t.Helper()
	rooms := room.NewStore(newTestClient(t))

	r := chi.NewRouter()
	r.Get("/api/rooms/{code}", HandleGetRoomByCode(&AppDeps{Rooms: rooms}))
	return r, rooms
}

func TestGetRoomByCode(t *testing.T) {
	router, rooms := previewRouter(t)

	stored := &room.Room{
		ID:              "room-1",
		Code:            "ABC234",
		Name:            "Trip to Lisbon",
		OwnerID:         "u1",
		MaxParticipants: 10,
		Active:          true,
		CreatedAt:       time.Now(),
	}
	stored.AddParticipant(user.User{ID: "u1", FirstName: "Ada", Email: "ada@example.com"}, time.Now())
	require.Nil(t, rooms.Create(context.Background(), stored))

	// Lowercase lookup resolves the same room.
	req := httptest.NewRequest(http.MethodGet, "/api/rooms/abc234", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope resp.JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Zero(t, envelope.Code)

	raw, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var preview RoomPreview
	require.NoError(t, json.Unmarshal(raw, &preview))

	assert.Equal(t, "room-1", preview.ID)
	assert.Equal(t, "ABC234", preview.Code)
	assert.Equal(t, 1, preview.ParticipantCount)

	// The preview must not leak participant contact details.
	assert.NotContains(t, rec.Body.String(), "ada@example.com")
}

func TestGetRoomByCodeNotFound(t *testing.T) {
	router, _ := previewRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/ZZZZZZ", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var envelope resp.JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, errs.ErrRoomNotFound, envelope.Code)
}

func TestGetRoomByCodeMalformed(t *testing.T) {
	router, _ := previewRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/not-a-code", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
