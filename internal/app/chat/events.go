/*
Package chat contains the room coordination engine: the per-connection client,
the coordinator state machine that enforces room/session invariants, and the
background eviction sweeper.

This file defines the wire protocol: a JSON envelope of {type, payload} in
both directions, with the payload shapes for every event. Timestamps cross
the wire as absolute RFC 3339 instants, the same form they are stored in.
*/
package chat

import (
	"encoding/json"
	"fmt"

	"splitchat/internal/app/message"
	"splitchat/internal/app/room"
	"splitchat/internal/app/user"
)

// EventType names one protocol event.
type EventType string

// Inbound events.
const (
	EventAuthenticate  EventType = "authenticate"
	EventLogout        EventType = "logout"
	EventRoomCreate    EventType = "room:create"
	EventRoomJoin      EventType = "room:join"
	EventRoomLeave     EventType = "room:leave"
	EventRoomDelete    EventType = "room:delete"
	EventMessageSend   EventType = "message:send"
	EventMessageEdit   EventType = "message:edit"
	EventMessageDelete EventType = "message:delete"
	EventMediaUploaded EventType = "media:uploaded"
	EventTyping        EventType = "typing"
	EventPing          EventType = "ping"
	EventDisconnect    EventType = "disconnect"
)

// Outbound events.
const (
	EventAuthenticated  EventType = "authenticated"
	EventRoomCreated    EventType = "room:created"
	EventRoomJoined     EventType = "room:joined"
	EventRoomDeleted    EventType = "room:deleted"
	EventMessageNew     EventType = "message:new"
	EventMessageEdited  EventType = "message:edited"
	EventMessageRemoved EventType = "message:deleted"
	EventUserJoined     EventType = "user:joined"
	EventUserLeft       EventType = "user:left"
	EventUserOnline     EventType = "user:online"
	EventUserOffline    EventType = "user:offline"
	EventTypingUpdate   EventType = "typing"
	EventPong           EventType = "pong"
	EventError          EventType = "error"
)

// Event is the envelope every frame travels in.
type Event struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEvent marshals payload into an envelope.
func NewEvent(eventType EventType, payload any) (Event, error) {
	if payload == nil {
		return Event{Type: eventType}, nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return Event{Type: eventType, Payload: raw}, nil
}

// Inbound payloads.

type AuthenticatePayload struct {
	// Token is the identity provider token carrying id, name, avatar, email.
	Token string `json:"token"`
}

type RoomCreatePayload struct {
	Name            string `json:"name"`
	MaxParticipants int    `json:"maxParticipants,omitempty"`
}

type RoomJoinPayload struct {
	Code string `json:"code"`
}

type RoomRefPayload struct {
	RoomID string `json:"roomId"`
}

type MessageSendPayload struct {
	RoomID  string `json:"roomId"`
	Content string `json:"content"`
}

type MessageEditPayload struct {
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
}

type MessageDeletePayload struct {
	MessageID string `json:"messageId"`
}

type MediaUploadedPayload struct {
	RoomID      string `json:"roomId"`
	URL         string `json:"url"`
	FileName    string `json:"fileName"`
	FileSize    int64  `json:"fileSize"`
	ContentType string `json:"contentType"`
	Caption     string `json:"caption,omitempty"`
}

type TypingPayload struct {
	RoomID   string `json:"roomId"`
	IsTyping bool   `json:"isTyping"`
}

// Outbound payloads.

type AuthenticatedPayload struct {
	User user.User `json:"user"`
}

type RoomCreatedPayload struct {
	Room *room.Room `json:"room"`
}

// RoomJoinedPayload carries the full room plus the recent backlog,
// newest-first; clients render it oldest-first.
type RoomJoinedPayload struct {
	Room     *room.Room         `json:"room"`
	Messages []*message.Message `json:"messages"`
}

type RoomDeletedPayload struct {
	RoomID string `json:"roomId"`
}

type MessagePayload struct {
	Message *message.Message `json:"message"`
}

type MessageRemovedPayload struct {
	MessageID string `json:"messageId"`
	RoomID    string `json:"roomId"`
}

type UserEventPayload struct {
	RoomID      string           `json:"roomId"`
	Participant room.Participant `json:"participant"`
}

type TypingUpdatePayload struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
