// Package store defines the storage port (interface) for the application.
// This port defines how the application interacts with persistent storage.
package store

import (
	"context"

	"github.com/edgard/chatmessages/internal/domain/model"
)

// MessageRepository is what the message use cases need from storage.
// An empty sender means no sender filter.
type MessageRepository interface {
	// Save persists msg atomically and returns the stored entity. A taken
	// message_id yields a DuplicateKeyError.
	Save(ctx context.Context, msg model.Message) (model.Message, error)

	// GetBySession returns one page of a session ordered by timestamp, then
	// insertion order.
	GetBySession(ctx context.Context, sessionID string, limit, offset int, sender string) ([]model.Message, error)

	// CountBySession counts every match, ignoring pagination.
	CountBySession(ctx context.Context, sessionID string, sender string) (int, error)
}

// MessageStore extends MessageRepository with the operations used by
// health checks and scheduled tasks.
type MessageStore interface {
	MessageRepository

	Ping(ctx context.Context) error

	// ListUnprocessed returns up to limit messages without metadata, oldest first.
	ListUnprocessed(ctx context.Context, limit int) ([]model.Message, error)

	// UpdateMetadata stores md for messageID if the row has none yet and
	// reports whether a row was updated.
	UpdateMetadata(ctx context.Context, messageID string, md model.MessageMetadata) (bool, error)

	RunMaintenance(ctx context.Context) error
}
