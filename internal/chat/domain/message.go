package domain

import (
	"errors"
	"strings"
	"time"
)

// MessageKind discriminates regular chat messages from join notices.
type MessageKind string

const (
	// KindRegular normal chat message
	KindRegular MessageKind = "regular"
	// KindJoin synthesized when a session first speaks in a room
	KindJoin MessageKind = "join"
)

// MaxContentLength is the hard cap on message content, counted in runes.
const MaxContentLength = 2000

// Message definition one row in the backend message store
type Message struct {
	ID          string      `bson:"_id" json:"id"`
	Content     string      `bson:"content" json:"content"`
	SenderID    string      `bson:"sender_id" json:"sender_id"`
	UserNumber  int         `bson:"user_number" json:"user_number"`
	CreatedAt   time.Time   `bson:"created_at" json:"created_at"`
	RoomID      string      `bson:"room_id" json:"room_id"`
	Kind        MessageKind `bson:"kind" json:"kind"`
	Provisional bool        `bson:"-" json:"provisional"`
}

// ErrContentTooLong content exceeded MaxContentLength after trimming
var ErrContentTooLong = errors.New("message content exceeds 2000 characters")

// ErrContentEmpty nothing left after trimming
var ErrContentEmpty = errors.New("message content is empty")

var markupEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// PrepareContent trims, validates and escapes user input before any write.
// Rejection here means no optimistic entry is created and no network call
// happens.
func PrepareContent(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrContentEmpty
	}
	if len([]rune(trimmed)) > MaxContentLength {
		return "", ErrContentTooLong
	}
	return markupEscaper.Replace(trimmed), nil
}

// IsJoin check message kind
func (m Message) IsJoin() bool {
	return m.Kind == KindJoin
}

// SameSend reports whether other is the confirmed copy of this provisional
// message: same sender, same content. Within a room that pair identifies a
// logical send.
func (m Message) SameSend(other Message) bool {
	return m.SenderID == other.SenderID && m.Content == other.Content
}
