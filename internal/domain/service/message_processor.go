package service

import (
	"time"

	"github.com/edgard/chatmessages/internal/domain/model"
)

// MessageProcessor attaches derived metadata to messages.
type MessageProcessor struct {
	now func() time.Time
}

// NewMessageProcessor returns a processor stamping processed_at from now.
// A nil clock means time.Now.
func NewMessageProcessor(now func() time.Time) *MessageProcessor {
	if now == nil {
		now = time.Now
	}
	return &MessageProcessor{now: now}
}

// Process returns a copy of msg with freshly computed metadata.
func (p *MessageProcessor) Process(msg model.Message) model.Message {
	return msg.WithMetadata(model.MetadataFromContent(msg.Content(), p.now().UTC()))
}
