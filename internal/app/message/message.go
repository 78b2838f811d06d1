/*
Package message implements the per-room append-only Message Log.
*/
package message

import (
	"time"

	"splitchat/internal/app/user"
)

// Kind classifies what a message carries.
type Kind string

const (
	KindText         Kind = "text"
	KindImage        Kind = "image"
	KindFile         Kind = "file"
	KindSystemNotice Kind = "system"
)

// SystemSenderID is the reserved sender identity for system notices.
const SystemSenderID = "system"

// MaxContentLength caps user-supplied message content.
const MaxContentLength = 5000

// Message is one entry in a room's log. Edits mutate Content in place and
// never reorder; Seq fixes the position permanently at append time.
type Message struct {
	ID     string `json:"id"`
	RoomID string `json:"roomId"`

	// Seq is the room-local insertion sequence; it is the index order and the
	// tie-break for identical creation timestamps.
	Seq int64 `json:"seq"`

	Sender  user.User `json:"sender"`
	Kind    Kind      `json:"kind"`
	Content string    `json:"content"`

	// Media fields are set for image and file kinds.
	MediaURL  string `json:"mediaUrl,omitempty"`
	FileName  string `json:"fileName,omitempty"`
	FileSize  int64  `json:"fileSize,omitempty"`
	MediaType string `json:"mediaType,omitempty"`

	CreatedAt time.Time  `json:"createdAt"`
	Edited    bool       `json:"edited,omitempty"`
	EditedAt  *time.Time `json:"editedAt,omitempty"`
}

// SystemUser is the reserved sender for system notices.
var SystemUser = user.User{ID: SystemSenderID, FirstName: "System"}

// NewSystemNotice builds an unsaved system message for a room.
func NewSystemNotice(roomID, content string) *Message {
	return &Message{
		RoomID:  roomID,
		Sender:  SystemUser,
		Kind:    KindSystemNotice,
		Content: content,
	}
}
