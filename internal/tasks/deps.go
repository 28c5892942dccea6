// Package tasks implements the scheduled background jobs of the service.
package tasks

import (
	"log/slog"

	"github.com/edgard/chatmessages/internal/domain/model"
	"github.com/edgard/chatmessages/internal/port/store"
)

// MessageProcessor computes metadata for a stored message.
type MessageProcessor interface {
	Process(msg model.Message) model.Message
}

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger    *slog.Logger
	Store     store.MessageStore
	Processor MessageProcessor
	// BatchSize bounds each backfill read. Zero uses the store's default.
	BatchSize int
}
