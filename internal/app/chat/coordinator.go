/*
Package chat contains the room coordination engine.

This file defines the Coordinator: the state machine that receives every
inbound connection event, enforces the room and session invariants against
the backing stores, and fans outbound events to the connections bound to each
room. Mutations for one room id or one identity are serialized behind keyed
mutexes; operations on different keys run fully in parallel. Broadcasts are
fire-and-forget.
*/
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"splitchat/internal/app/message"
	"splitchat/internal/app/room"
	"splitchat/internal/app/session"
	"splitchat/internal/app/typing"
	"splitchat/internal/app/user"
	"splitchat/internal/pkg/auth/identity"
	"splitchat/internal/pkg/errs"
	"splitchat/internal/pkg/logx"
	"splitchat/internal/pkg/randx"
)

const (
	// opTimeout bounds one coordinator operation against the backing store.
	opTimeout = 10 * time.Second

	// backlogLimit is how many recent messages a join delivers.
	backlogLimit = 50

	// maxCodeAttempts bounds code regeneration on uniqueness collisions.
	maxCodeAttempts = 5

	// EditWindow is how long after creation a message may still be edited.
	EditWindow = 15 * time.Minute
)

// Coordinator drives the room/session protocol.
type Coordinator struct {
	sessions *session.Registry
	rooms    *room.Store
	messages *message.Log
	typing   *typing.Tracker

	identitySecret string

	// mu guards the connection registry and the per-room channels.
	mu       sync.RWMutex
	clients  map[string]*Client
	channels map[string]map[string]*Client

	// roomLocks and userLocks linearize mutations per room id and per
	// identity. Lock order when both are held: room before user.
	roomLocks *keyedMutex
	userLocks *keyedMutex

	draining atomic.Bool
	inflight sync.WaitGroup

	logger zerolog.Logger
}

// NewCoordinator wires the coordinator to its stores.
func NewCoordinator(
	sessions *session.Registry,
	rooms *room.Store,
	messages *message.Log,
	typingTracker *typing.Tracker,
	identitySecret string,
) *Coordinator {
	return &Coordinator{
		sessions:       sessions,
		rooms:          rooms,
		messages:       messages,
		typing:         typingTracker,
		identitySecret: identitySecret,
		clients:        make(map[string]*Client),
		channels:       make(map[string]map[string]*Client),
		roomLocks:      newKeyedMutex(),
		userLocks:      newKeyedMutex(),
		logger:         logx.Logger().With().Str("component", "Coordinator").Logger(),
	}
}

// Register adds a freshly upgraded connection to the registry.
func (c *Coordinator) Register(cl *Client) {
	c.mu.Lock()
	c.clients[cl.ID] = cl
	c.mu.Unlock()
}

// Dispatch runs one inbound event. Every rejection goes back to the
// requesting connection only, as a single error event.
func (c *Coordinator) Dispatch(cl *Client, event Event) {
	if c.draining.Load() {
		cl.SendError(errs.NewError(errs.ErrStoreUnavailable))
		return
	}

	c.inflight.Add(1)
	defer c.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var customErr *errs.CustomError
	switch event.Type {
	case EventAuthenticate:
		customErr = withPayload(cl, event, func(p AuthenticatePayload) *errs.CustomError {
			return c.handleAuthenticate(ctx, cl, p)
		})
	case EventLogout:
		customErr = c.handleLogout(ctx, cl)
	case EventRoomCreate:
		customErr = withPayload(cl, event, func(p RoomCreatePayload) *errs.CustomError {
			return c.handleRoomCreate(ctx, cl, p)
		})
	case EventRoomJoin:
		customErr = withPayload(cl, event, func(p RoomJoinPayload) *errs.CustomError {
			return c.handleRoomJoin(ctx, cl, p)
		})
	case EventRoomLeave:
		customErr = withPayload(cl, event, func(p RoomRefPayload) *errs.CustomError {
			return c.handleRoomLeave(ctx, cl, p)
		})
	case EventRoomDelete:
		customErr = withPayload(cl, event, func(p RoomRefPayload) *errs.CustomError {
			return c.handleRoomDelete(ctx, cl, p)
		})
	case EventMessageSend:
		customErr = withPayload(cl, event, func(p MessageSendPayload) *errs.CustomError {
			return c.handleMessageSend(ctx, cl, p)
		})
	case EventMessageEdit:
		customErr = withPayload(cl, event, func(p MessageEditPayload) *errs.CustomError {
			return c.handleMessageEdit(ctx, cl, p)
		})
	case EventMessageDelete:
		customErr = withPayload(cl, event, func(p MessageDeletePayload) *errs.CustomError {
			return c.handleMessageDelete(ctx, cl, p)
		})
	case EventMediaUploaded:
		customErr = withPayload(cl, event, func(p MediaUploadedPayload) *errs.CustomError {
			return c.handleMediaUploaded(ctx, cl, p)
		})
	case EventTyping:
		customErr = withPayload(cl, event, func(p TypingPayload) *errs.CustomError {
			return c.handleTyping(ctx, cl, p)
		})
	case EventPing:
		customErr = c.handlePing(ctx, cl)
	case EventDisconnect:
		// Courteous variant of just dropping the socket; same cleanup path
		// the read pump takes on connection loss, and just as idempotent.
		c.Disconnect(cl.ID, "client requested disconnect")
	default:
		c.logger.Warn().Str("event_type", string(event.Type)).Msg("Unsupported inbound event")
		customErr = errs.NewError(errs.ErrInvalidParams)
	}

	if customErr != nil {
		cl.SendError(customErr)
	}
}

// withPayload unmarshals the event payload into P and runs fn.
func withPayload[P any](cl *Client, event Event, fn func(P) *errs.CustomError) *errs.CustomError {
	var p P
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			cl.logger.Warn().Err(err).Str("event_type", string(event.Type)).Msg("Invalid event payload")
			return errs.NewError(errs.ErrInvalidParams)
		}
	}
	return fn(p)
}

// requireSession resolves the connection's session or rejects as
// unauthenticated. Registry unavailability also reads as "not authenticated"
// to the caller, per the failure contract.
func (c *Coordinator) requireSession(ctx context.Context, connID string) (*session.Session, *errs.CustomError) {
	sess, customErr := c.sessions.LookupByConnection(ctx, connID)
	if customErr != nil {
		return nil, customErr
	}
	if sess == nil {
		return nil, errs.NewError(errs.ErrNotAuthenticated)
	}
	return sess, nil
}

// --- Session operations ---

func (c *Coordinator) handleAuthenticate(ctx context.Context, cl *Client, p AuthenticatePayload) *errs.CustomError {
	ident, err := identity.VerifyToken(p.Token, c.identitySecret)
	if err != nil {
		c.logger.Warn().Err(err).Str("conn_id", cl.ID).Msg("Identity token rejected")
		return errs.NewError(errs.ErrIdentityTokenInvalid)
	}

	first, last := user.SplitDisplayName(ident.DisplayName)
	u := user.User{
		ID:        ident.UserID,
		FirstName: first,
		LastName:  last,
		Avatar:    ident.Avatar,
		Email:     ident.Email,
	}

	c.userLocks.Lock(u.ID)
	displaced, customErr := c.sessions.Authenticate(ctx, cl.ID, u)
	c.userLocks.Unlock(u.ID)
	if customErr != nil {
		return customErr
	}

	if displaced != "" {
		c.mu.Lock()
		old := c.clients[displaced]
		delete(c.clients, displaced)
		for _, members := range c.channels {
			delete(members, displaced)
		}
		c.mu.Unlock()

		if old != nil {
			old.Kick("Signed in from a new connection.")
		}
	}

	c.sessions.TouchActivity(ctx, u.ID)
	cl.SendEvent(EventAuthenticated, AuthenticatedPayload{User: u})
	return nil
}

func (c *Coordinator) handleLogout(ctx context.Context, cl *Client) *errs.CustomError {
	sess, customErr := c.requireSession(ctx, cl.ID)
	if customErr != nil {
		return customErr
	}

	// The client may already be tearing its connection down, so the leave is
	// proactive rather than waiting for the disconnect path.
	if sess.RoomID != "" {
		c.leaveRoom(ctx, cl.ID, sess, sess.RoomID, true)
	}

	userID := sess.User.ID
	c.userLocks.Lock(userID)
	customErr = c.sessions.FullLogoutCleanup(ctx, userID)
	c.userLocks.Unlock(userID)
	if customErr != nil {
		return customErr
	}

	if err := c.typing.ClearUser(ctx, userID); err != nil {
		c.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to clear typing flags on logout")
	}

	c.removeClient(cl.ID)
	cl.Close()
	return nil
}

func (c *Coordinator) handlePing(ctx context.Context, cl *Client) *errs.CustomError {
	sess, customErr := c.requireSession(ctx, cl.ID)
	if customErr != nil {
		return customErr
	}

	if customErr := c.sessions.TouchActivity(ctx, sess.User.ID); customErr != nil {
		return customErr
	}

	cl.SendEvent(EventPong, nil)
	return nil
}

// Disconnect is the terminal transition for a connection: mark its
// participant offline (when it had a room), tell the room, and clean the
// registry. Called from the read pump on any connection loss; idempotent.
func (c *Coordinator) Disconnect(connID, reason string) {
	c.inflight.Add(1)
	defer c.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	cl := c.removeClient(connID)

	sess, customErr := c.sessions.LookupByConnection(ctx, connID)
	if customErr == nil && sess != nil && sess.RoomID != "" {
		c.markOffline(ctx, sess, sess.RoomID)
	}

	if sess != nil {
		c.userLocks.Lock(sess.User.ID)
		defer c.userLocks.Unlock(sess.User.ID)
	}
	if customErr := c.sessions.Disconnect(ctx, connID); customErr != nil {
		c.logger.Warn().Str("conn_id", connID).Msg("Registry cleanup failed on disconnect; sweeper will retry")
	}

	if cl != nil {
		cl.Close()
	}

	c.logger.Info().Str("conn_id", connID).Str("reason", reason).Msg("Connection closed")
}

// markOffline flips the participant's presence without removing them, and
// tells the rest of the room.
func (c *Coordinator) markOffline(ctx context.Context, sess *session.Session, roomID string) {
	c.roomLocks.Lock(roomID)
	defer c.roomLocks.Unlock(roomID)

	r, customErr := c.rooms.GetByID(ctx, roomID)
	if customErr != nil {
		return
	}

	p := r.FindParticipant(sess.User.ID)
	if p == nil {
		return
	}

	p.Online = false
	p.LastSeen = time.Now()
	if customErr := c.rooms.Save(ctx, r); customErr != nil {
		return
	}

	c.broadcast(roomID, EventUserOffline, UserEventPayload{RoomID: roomID, Participant: *p})
}

// --- Room operations ---

func (c *Coordinator) handleRoomCreate(ctx context.Context, cl *Client, p RoomCreatePayload) *errs.CustomError {
	sess, customErr := c.requireSession(ctx, cl.ID)
	if customErr != nil {
		return customErr
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}

	capacity := p.MaxParticipants
	if capacity == 0 {
		capacity = room.DefaultCapacity
	}
	if capacity < room.MinCapacity || capacity > room.MaxCapacity {
		return errs.NewError(errs.ErrRoomCapacityInvalid, room.MinCapacity, room.MaxCapacity)
	}

	// Leaving any previous room first keeps "one room per identity" true.
	if sess.RoomID != "" {
		c.leaveRoom(ctx, cl.ID, sess, sess.RoomID, false)
	}

	now := time.Now()
	r := &room.Room{
		ID:              randx.NewID(),
		Name:            name,
		OwnerID:         sess.User.ID,
		MaxParticipants: capacity,
		Active:          true,
		CreatedAt:       now,
	}
	r.AddParticipant(sess.User, now)

	// Collision on the shared code is the only expected failure; regenerate
	// and retry a bounded number of times.
	created := false
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := randx.RoomCode()
		if err != nil {
			return errs.NewError(errs.ErrUnknown, err)
		}
		r.Code = code

		customErr = c.rooms.Create(ctx, r)
		if customErr == nil {
			created = true
			break
		}
		if customErr.Code != errs.ErrRoomCodeExists {
			return customErr
		}
	}
	if !created {
		c.logger.Error().Int("attempts", maxCodeAttempts).Msg("Exhausted room code generation attempts")
		return errs.NewError(errs.ErrRoomCodeExists)
	}

	c.userLocks.Lock(sess.User.ID)
	customErr = c.sessions.SetCurrentRoom(ctx, sess.User.ID, r.ID)
	c.userLocks.Unlock(sess.User.ID)
	if customErr != nil {
		return customErr
	}

	c.joinChannel(r.ID, cl)
	cl.SendEvent(EventRoomCreated, RoomCreatedPayload{Room: r})
	c.postSystemNotice(ctx, r.ID, fmt.Sprintf("%s created the room", sess.User.DisplayName()))

	c.logger.Info().Str("room_id", r.ID).Str("room_code", r.Code).Str("owner_id", r.OwnerID).Msg("Room created")
	return nil
}

func (c *Coordinator) handleRoomJoin(ctx context.Context, cl *Client, p RoomJoinPayload) *errs.CustomError {
	sess, customErr := c.requireSession(ctx, cl.ID)
	if customErr != nil {
		return customErr
	}

	code := randx.NormalizeRoomCode(p.Code)
	if !randx.IsValidRoomCode(code) {
		return errs.NewError(errs.ErrRoomNotFound)
	}

	target, customErr := c.rooms.GetByCode(ctx, code)
	if customErr != nil {
		return customErr
	}

	// Implicitly leave any other room before taking the target room's lock,
	// so two cross-joining users can never hold each other's locks.
	if sess.RoomID != "" && sess.RoomID != target.ID {
		c.leaveRoom(ctx, cl.ID, sess, sess.RoomID, false)
	}

	c.roomLocks.Lock(target.ID)
	defer c.roomLocks.Unlock(target.ID)

	// Reload under the lock; the room may have changed or vanished since the
	// unlocked code lookup.
	r, customErr := c.rooms.GetByID(ctx, target.ID)
	if customErr != nil {
		return customErr
	}
	if !r.Active {
		return errs.NewError(errs.ErrRoomInactive)
	}

	rejoin := r.FindParticipant(sess.User.ID) != nil
	if !rejoin && r.IsFull() {
		return errs.NewError(errs.ErrRoomIsFull)
	}

	now := time.Now()
	r.AddParticipant(sess.User, now)
	if customErr := c.rooms.Save(ctx, r); customErr != nil {
		return customErr
	}

	c.userLocks.Lock(sess.User.ID)
	customErr = c.sessions.SetCurrentRoom(ctx, sess.User.ID, r.ID)
	c.userLocks.Unlock(sess.User.ID)
	if customErr != nil {
		return customErr
	}

	c.joinChannel(r.ID, cl)

	backlog, customErr := c.messages.ListByRoom(ctx, r.ID, backlogLimit, 0)
	if customErr != nil {
		return customErr
	}
	cl.SendEvent(EventRoomJoined, RoomJoinedPayload{Room: r, Messages: backlog})

	joined := *r.FindParticipant(sess.User.ID)
	if rejoin {
		c.broadcast(r.ID, EventUserOnline, UserEventPayload{RoomID: r.ID, Participant: joined}, cl.ID)
	} else {
		c.broadcast(r.ID, EventUserJoined, UserEventPayload{RoomID: r.ID, Participant: joined}, cl.ID)
		c.postSystemNotice(ctx, r.ID, fmt.Sprintf("%s joined the room", sess.User.DisplayName()))
	}
	return nil
}

func (c *Coordinator) handleRoomLeave(ctx context.Context, cl *Client, p RoomRefPayload) *errs.CustomError {
	sess, customErr := c.sessions.LookupByConnection(ctx, cl.ID)
	if customErr != nil || sess == nil || sess.RoomID != p.RoomID {
		// Leaving a room you are not in is a no-op, not an error.
		return nil
	}

	c.leaveRoom(ctx, cl.ID, sess, p.RoomID, false)
	return nil
}

// leaveRoom marks the participant offline (membership survives; only an
// explicit sweep or room deletion removes the record), unbinds the session,
// and tells the room.
func (c *Coordinator) leaveRoom(ctx context.Context, connID string, sess *session.Session, roomID string, withNotice bool) {
	c.roomLocks.Lock(roomID)

	r, customErr := c.rooms.GetByID(ctx, roomID)
	if customErr == nil {
		if p := r.FindParticipant(sess.User.ID); p != nil {
			p.Online = false
			p.LastSeen = time.Now()
			if customErr := c.rooms.Save(ctx, r); customErr == nil {
				c.broadcast(roomID, EventUserLeft, UserEventPayload{RoomID: roomID, Participant: *p}, connID)
			}
		}
	}
	c.roomLocks.Unlock(roomID)

	c.userLocks.Lock(sess.User.ID)
	c.sessions.SetCurrentRoom(ctx, sess.User.ID, "")
	c.userLocks.Unlock(sess.User.ID)
	sess.RoomID = ""

	c.typing.Clear(ctx, roomID, sess.User.ID)
	c.leaveChannel(roomID, connID)

	if withNotice {
		c.postSystemNotice(ctx, roomID, fmt.Sprintf("%s left the room", sess.User.DisplayName()))
	}
}

func (c *Coordinator) handleRoomDelete(ctx context.Context, cl *Client, p RoomRefPayload) *errs.CustomError {
	sess, customErr := c.requireSession(ctx, cl.ID)
	if customErr != nil {
		return customErr
	}

	c.roomLocks.Lock(p.RoomID)
	defer c.roomLocks.Unlock(p.RoomID)

	r, customErr := c.rooms.GetByID(ctx, p.RoomID)
	if customErr != nil {
		return customErr
	}
	if r.OwnerID != sess.User.ID {
		return errs.NewError(errs.ErrNotRoomOwner)
	}

	// Purge the log first (with its best-effort media cascade); a failure
	// here leaves the room intact for a retry.
	if customErr := c.messages.PurgeRoom(ctx, r.ID); customErr != nil {
		return customErr
	}

	for i := range r.Participants {
		pid := r.Participants[i].User.ID
		c.userLocks.Lock(pid)
		c.sessions.SetCurrentRoom(ctx, pid, "")
		c.userLocks.Unlock(pid)
	}

	if customErr := c.rooms.Delete(ctx, r.ID); customErr != nil {
		return customErr
	}

	// Everyone in the channel hears the deletion, requester included, then
	// the channel itself goes away.
	c.broadcast(r.ID, EventRoomDeleted, RoomDeletedPayload{RoomID: r.ID})
	c.dropChannel(r.ID)

	c.logger.Info().Str("room_id", r.ID).Str("room_code", r.Code).Msg("Room deleted")
	return nil
}

// --- Message operations ---

// requireMembership checks the session's current room against the claimed
// room id, defending against spoofed ids.
func (c *Coordinator) requireMembership(ctx context.Context, connID, roomID string) (*session.Session, *errs.CustomError) {
	sess, customErr := c.requireSession(ctx, connID)
	if customErr != nil {
		return nil, customErr
	}
	if roomID == "" || sess.RoomID != roomID {
		return nil, errs.NewError(errs.ErrNotInRoom)
	}
	return sess, nil
}

func (c *Coordinator) handleMessageSend(ctx context.Context, cl *Client, p MessageSendPayload) *errs.CustomError {
	sess, customErr := c.requireMembership(ctx, cl.ID, p.RoomID)
	if customErr != nil {
		return customErr
	}

	content := strings.TrimSpace(p.Content)
	if content == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if len(content) > message.MaxContentLength {
		return errs.NewError(errs.ErrMessageContentTooLong)
	}

	m := &message.Message{
		RoomID:  p.RoomID,
		Sender:  sess.User,
		Kind:    message.KindText,
		Content: content,
	}

	c.roomLocks.Lock(p.RoomID)
	customErr = c.messages.Append(ctx, m)
	c.roomLocks.Unlock(p.RoomID)
	if customErr != nil {
		return customErr
	}

	// Sending is an implicit stop-typing.
	c.typing.Clear(ctx, p.RoomID, sess.User.ID)

	// The sender hears the broadcast too; their view updates from the
	// authoritative copy.
	c.broadcast(p.RoomID, EventMessageNew, MessagePayload{Message: m})
	return nil
}

func (c *Coordinator) handleMessageEdit(ctx context.Context, cl *Client, p MessageEditPayload) *errs.CustomError {
	sess, customErr := c.requireSession(ctx, cl.ID)
	if customErr != nil {
		return customErr
	}

	content := strings.TrimSpace(p.Content)
	if content == "" || len(content) > message.MaxContentLength {
		return errs.NewError(errs.ErrInvalidParams)
	}

	m, customErr := c.messages.Get(ctx, p.MessageID)
	if customErr != nil {
		return customErr
	}
	if m.Sender.ID != sess.User.ID {
		return errs.NewError(errs.ErrNotMessageSender)
	}
	if m.Kind != message.KindText {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if time.Since(m.CreatedAt) > EditWindow {
		return errs.NewError(errs.ErrEditWindowExpired)
	}
	if _, customErr := c.requireMembership(ctx, cl.ID, m.RoomID); customErr != nil {
		return customErr
	}

	c.roomLocks.Lock(m.RoomID)
	defer c.roomLocks.Unlock(m.RoomID)

	now := time.Now()
	m.Content = content
	m.Edited = true
	m.EditedAt = &now
	if customErr := c.messages.Update(ctx, m); customErr != nil {
		return customErr
	}

	c.broadcast(m.RoomID, EventMessageEdited, MessagePayload{Message: m})
	return nil
}

func (c *Coordinator) handleMessageDelete(ctx context.Context, cl *Client, p MessageDeletePayload) *errs.CustomError {
	sess, customErr := c.requireSession(ctx, cl.ID)
	if customErr != nil {
		return customErr
	}

	m, customErr := c.messages.Get(ctx, p.MessageID)
	if customErr != nil {
		return customErr
	}
	if m.Sender.ID != sess.User.ID {
		return errs.NewError(errs.ErrNotMessageSender)
	}

	c.roomLocks.Lock(m.RoomID)
	customErr = c.messages.DeleteOne(ctx, m.ID)
	c.roomLocks.Unlock(m.RoomID)
	if customErr != nil {
		return customErr
	}

	c.broadcast(m.RoomID, EventMessageRemoved, MessageRemovedPayload{MessageID: m.ID, RoomID: m.RoomID})
	return nil
}

func (c *Coordinator) handleMediaUploaded(ctx context.Context, cl *Client, p MediaUploadedPayload) *errs.CustomError {
	sess, customErr := c.requireMembership(ctx, cl.ID, p.RoomID)
	if customErr != nil {
		return customErr
	}
	if p.URL == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}

	kind := message.KindFile
	if strings.HasPrefix(p.ContentType, "image/") {
		kind = message.KindImage
	}

	m := &message.Message{
		RoomID:    p.RoomID,
		Sender:    sess.User,
		Kind:      kind,
		Content:   strings.TrimSpace(p.Caption),
		MediaURL:  p.URL,
		FileName:  p.FileName,
		FileSize:  p.FileSize,
		MediaType: p.ContentType,
	}

	c.roomLocks.Lock(p.RoomID)
	customErr = c.messages.Append(ctx, m)
	c.roomLocks.Unlock(p.RoomID)
	if customErr != nil {
		return customErr
	}

	c.broadcast(p.RoomID, EventMessageNew, MessagePayload{Message: m})
	return nil
}

func (c *Coordinator) handleTyping(ctx context.Context, cl *Client, p TypingPayload) *errs.CustomError {
	sess, customErr := c.requireMembership(ctx, cl.ID, p.RoomID)
	if customErr != nil {
		return customErr
	}

	var err error
	if p.IsTyping {
		err = c.typing.Set(ctx, p.RoomID, sess.User.ID)
	} else {
		err = c.typing.Clear(ctx, p.RoomID, sess.User.ID)
	}
	if err != nil {
		// Typing is a UX signal; a store hiccup here is not worth a rejection.
		c.logger.Warn().Err(err).Str("room_id", p.RoomID).Msg("Typing flag update failed")
		return nil
	}

	c.broadcast(p.RoomID, EventTypingUpdate, TypingUpdatePayload{
		RoomID:   p.RoomID,
		UserID:   sess.User.ID,
		IsTyping: p.IsTyping,
	}, cl.ID)
	return nil
}

// --- Channel management and broadcast ---

func (c *Coordinator) joinChannel(roomID string, cl *Client) {
	c.mu.Lock()
	defer c.mu.Unlock()

	members, ok := c.channels[roomID]
	if !ok {
		members = make(map[string]*Client)
		c.channels[roomID] = members
	}
	members[cl.ID] = cl
}

func (c *Coordinator) leaveChannel(roomID, connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if members, ok := c.channels[roomID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(c.channels, roomID)
		}
	}
}

// dropChannel forces every connection out of the room's channel.
func (c *Coordinator) dropChannel(roomID string) {
	c.mu.Lock()
	delete(c.channels, roomID)
	c.mu.Unlock()
}

// removeClient takes a connection out of the registry and every channel.
func (c *Coordinator) removeClient(connID string) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	cl := c.clients[connID]
	delete(c.clients, connID)
	for roomID, members := range c.channels {
		delete(members, connID)
		if len(members) == 0 {
			delete(c.channels, roomID)
		}
	}
	return cl
}

// broadcast fans an event to every connection in the room's channel except
// the listed ones. Enqueueing never blocks; slow receivers drop frames.
func (c *Coordinator) broadcast(roomID string, eventType EventType, payload any, except ...string) {
	event, err := NewEvent(eventType, payload)
	if err != nil {
		c.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("Failed to build broadcast event")
		return
	}
	frame, err := json.Marshal(event)
	if err != nil {
		c.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("Failed to marshal broadcast event")
		return
	}

	skip := make(map[string]struct{}, len(except))
	for _, id := range except {
		skip[id] = struct{}{}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for connID, member := range c.channels[roomID] {
		if _, ok := skip[connID]; ok {
			continue
		}
		member.enqueue(frame)
	}
}

// postSystemNotice appends a system message to the room's log and broadcasts
// it. The caller must not hold the room lock.
func (c *Coordinator) postSystemNotice(ctx context.Context, roomID, text string) {
	m := message.NewSystemNotice(roomID, text)

	c.roomLocks.Lock(roomID)
	customErr := c.messages.Append(ctx, m)
	c.roomLocks.Unlock(roomID)
	if customErr != nil {
		c.logger.Warn().Str("room_id", roomID).Msg("Failed to append system notice")
		return
	}

	c.broadcast(roomID, EventMessageNew, MessagePayload{Message: m})
}

// lockRoom exposes the per-room serialization to the sweeper, which must not
// race a concurrent join when it flips a room inactive.
func (c *Coordinator) lockRoom(roomID string)   { c.roomLocks.Lock(roomID) }
func (c *Coordinator) unlockRoom(roomID string) { c.roomLocks.Unlock(roomID) }

// Shutdown drains in-flight operations, then closes every connection.
// Mutations in progress finish; nothing is aborted mid-roster-update.
func (c *Coordinator) Shutdown() {
	c.logger.Info().Msg("Coordinator draining...")
	c.draining.Store(true)
	c.inflight.Wait()

	c.mu.Lock()
	for _, cl := range c.clients {
		cl.Close()
	}
	c.clients = make(map[string]*Client)
	c.channels = make(map[string]map[string]*Client)
	c.mu.Unlock()

	c.logger.Info().Msg("Coordinator shutdown complete")
}
