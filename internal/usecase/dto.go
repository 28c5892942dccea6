// Package usecase implements the create and list operations of the message
// pipeline on top of the domain services and the storage port.
package usecase

import (
	"time"

	"github.com/samber/lo"

	"github.com/edgard/chatmessages/internal/domain/model"
)

// CreateMessageInput is the raw input of the create operation. A zero
// Timestamp means "now".
type CreateMessageInput struct {
	MessageID string
	SessionID string
	Content   string
	Timestamp time.Time
	Sender    string
}

// GetMessagesInput is the raw input of the list operation. A zero Limit
// selects the default page size; an empty Sender disables the filter.
type GetMessagesInput struct {
	SessionID string
	Limit     int
	Offset    int
	Sender    string
}

// MessageDTO is a message as returned to callers. Metadata is nil when the
// stored message has none.
type MessageDTO struct {
	MessageID string         `json:"message_id"`
	SessionID string         `json:"session_id"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Sender    string         `json:"sender"`
	Metadata  map[string]any `json:"metadata"`
}

// MessagePage is one page of a session listing.
type MessagePage struct {
	Items  []MessageDTO `json:"items"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
	Total  int          `json:"total"`
}

func toDTO(msg model.Message) MessageDTO {
	dto := MessageDTO{
		MessageID: msg.ID(),
		SessionID: msg.SessionID(),
		Content:   msg.Content(),
		Timestamp: msg.Timestamp(),
		Sender:    msg.Sender().String(),
	}
	if md, ok := msg.Metadata(); ok {
		dto.Metadata = md.ToMap()
	}
	return dto
}

func toDTOs(messages []model.Message) []MessageDTO {
	return lo.Map(messages, func(msg model.Message, _ int) MessageDTO {
		return toDTO(msg)
	})
}
