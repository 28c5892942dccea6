package usecase

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/edgard/chatmessages/internal/domain/model"
	apperrors "github.com/edgard/chatmessages/internal/errors"
	"github.com/edgard/chatmessages/internal/port/store"
)

// ContentFilter validates and normalises message content.
type ContentFilter interface {
	Filter(content string) (string, error)
}

// MessageProcessor enriches a message with derived metadata.
type MessageProcessor interface {
	Process(msg model.Message) model.Message
}

// CreateMessageUseCase runs the ingestion pipeline for one message.
type CreateMessageUseCase struct {
	repo      store.MessageRepository
	filter    ContentFilter
	processor MessageProcessor
	logger    *slog.Logger
	now       func() time.Time
}

func NewCreateMessageUseCase(repo store.MessageRepository, filter ContentFilter, processor MessageProcessor, logger *slog.Logger) *CreateMessageUseCase {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &CreateMessageUseCase{
		repo:      repo,
		filter:    filter,
		processor: processor,
		logger:    logger.With("component", "create_message"),
		now:       time.Now,
	}
}

// Execute validates, enriches and stores a message. Each step runs only if
// the previous one succeeded; nothing is written unless validation passes.
func (uc *CreateMessageUseCase) Execute(ctx context.Context, in CreateMessageInput) (MessageDTO, error) {
	sender, err := model.ParseSenderType(in.Sender)
	if err != nil {
		return MessageDTO{}, err
	}

	content, err := uc.filter.Filter(in.Content)
	if err != nil {
		return MessageDTO{}, err
	}

	ts := in.Timestamp
	if ts.IsZero() {
		ts = uc.now().UTC()
	}

	msg, err := model.NewMessage(in.MessageID, in.SessionID, content, ts, sender)
	if err != nil {
		return MessageDTO{}, err
	}

	msg = uc.processor.Process(msg)

	saved, err := uc.repo.Save(ctx, msg)
	if err != nil {
		if apperrors.IsDuplicateKey(err) {
			return MessageDTO{}, apperrors.NewDuplicateMessageError(in.MessageID, err)
		}
		uc.logger.ErrorContext(ctx, "Failed to save message",
			"message_id", in.MessageID, "session_id", in.SessionID, "error", err)
		return MessageDTO{}, asStorageError("failed to save message", err)
	}

	uc.logger.DebugContext(ctx, "Message created", "message_id", saved.ID(), "session_id", saved.SessionID())
	return toDTO(saved), nil
}

// asStorageError keeps typed application errors as they are and classifies
// anything else as a storage failure.
func asStorageError(message string, err error) error {
	if apperrors.Code(err) != apperrors.CodeUnknown {
		return err
	}
	return apperrors.NewStorageError(message, err)
}
