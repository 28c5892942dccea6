// Package model contains the core domain entities of the chat message service.
// These models represent the core business objects and are independent of external concerns.
package model

import (
	"strings"
	"time"

	apperrors "github.com/edgard/chatmessages/internal/errors"
)

// Message is a single chat message as accepted by the pipeline. It is
// immutable: every field is read through an accessor and WithMetadata returns
// a copy.
type Message struct {
	id          string
	sessionID   string
	content     string
	timestamp   time.Time
	sender      SenderType
	metadata    MessageMetadata
	hasMetadata bool
}

// NewMessage validates the fields and builds a Message without metadata.
// The timestamp is normalised to UTC.
func NewMessage(id, sessionID, content string, timestamp time.Time, sender SenderType) (Message, error) {
	if strings.TrimSpace(id) == "" {
		return Message{}, apperrors.NewInvalidEntityError("message_id cannot be empty")
	}
	if strings.TrimSpace(sessionID) == "" {
		return Message{}, apperrors.NewInvalidEntityError("session_id cannot be empty")
	}
	if strings.TrimSpace(content) == "" {
		return Message{}, apperrors.NewInvalidEntityError("content cannot be empty")
	}
	if !sender.Valid() {
		return Message{}, apperrors.NewInvalidEntityError("sender must be one of user, system")
	}

	return Message{
		id:        id,
		sessionID: sessionID,
		content:   content,
		timestamp: timestamp.UTC(),
		sender:    sender,
	}, nil
}

// WithMetadata returns a copy of m carrying md. m itself is unchanged.
func (m Message) WithMetadata(md MessageMetadata) Message {
	m.metadata = md
	m.hasMetadata = true
	return m
}

func (m Message) ID() string {
	return m.id
}

func (m Message) SessionID() string {
	return m.sessionID
}

func (m Message) Content() string {
	return m.content
}

func (m Message) Timestamp() time.Time {
	return m.timestamp
}

func (m Message) Sender() SenderType {
	return m.sender
}

// Metadata returns the attached metadata and whether there is any.
func (m Message) Metadata() (MessageMetadata, bool) {
	return m.metadata, m.hasMetadata
}

func (m Message) IsFromUser() bool {
	return m.sender == SenderUser
}

func (m Message) IsFromSystem() bool {
	return m.sender == SenderSystem
}
