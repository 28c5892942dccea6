package usecase

import (
	"context"
	"io"
	"log/slog"
	"strings"

	apperrors "github.com/edgard/chatmessages/internal/errors"
	"github.com/edgard/chatmessages/internal/port/store"
)

// Page size bounds used when Pagination leaves them unset.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Pagination bounds the page size of GetMessagesUseCase.
type Pagination struct {
	DefaultLimit int
	MaxLimit     int
}

// GetMessagesUseCase lists a session's messages.
type GetMessagesUseCase struct {
	repo       store.MessageRepository
	pagination Pagination
	logger     *slog.Logger
}

func NewGetMessagesUseCase(repo store.MessageRepository, pagination Pagination, logger *slog.Logger) *GetMessagesUseCase {
	if pagination.MaxLimit <= 0 {
		pagination.MaxLimit = MaxLimit
	}
	if pagination.DefaultLimit <= 0 {
		pagination.DefaultLimit = DefaultLimit
	}
	pagination.DefaultLimit = min(pagination.DefaultLimit, pagination.MaxLimit)
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &GetMessagesUseCase{
		repo:       repo,
		pagination: pagination,
		logger:     logger.With("component", "get_messages"),
	}
}

// Execute validates the filters before touching storage, then returns one
// page plus the total number of matches.
func (uc *GetMessagesUseCase) Execute(ctx context.Context, in GetMessagesInput) (MessagePage, error) {
	if strings.TrimSpace(in.SessionID) == "" {
		return MessagePage{}, apperrors.NewInvalidFilterError("session_id cannot be empty")
	}
	if in.Limit < 0 {
		return MessagePage{}, apperrors.NewInvalidFilterError("limit must be positive")
	}
	if in.Offset < 0 {
		return MessagePage{}, apperrors.NewInvalidFilterError("offset must be non-negative")
	}

	limit := in.Limit
	if limit == 0 {
		limit = uc.pagination.DefaultLimit
	}
	limit = min(limit, uc.pagination.MaxLimit)

	total := -1
	if in.Sender != "" {
		sessionTotal, err := uc.repo.CountBySession(ctx, in.SessionID, "")
		if err != nil {
			return MessagePage{}, uc.storageFailure(ctx, in, err)
		}
		if sessionTotal > 0 {
			senderTotal, err := uc.repo.CountBySession(ctx, in.SessionID, in.Sender)
			if err != nil {
				return MessagePage{}, uc.storageFailure(ctx, in, err)
			}
			if senderTotal == 0 {
				return MessagePage{}, apperrors.NewInvalidSenderForSessionError(in.Sender, in.SessionID)
			}
			total = senderTotal
		} else {
			total = 0
		}
	}

	messages, err := uc.repo.GetBySession(ctx, in.SessionID, limit, in.Offset, in.Sender)
	if err != nil {
		return MessagePage{}, uc.storageFailure(ctx, in, err)
	}

	if total < 0 {
		total, err = uc.repo.CountBySession(ctx, in.SessionID, in.Sender)
		if err != nil {
			return MessagePage{}, uc.storageFailure(ctx, in, err)
		}
	}

	return MessagePage{
		Items:  toDTOs(messages),
		Limit:  limit,
		Offset: in.Offset,
		Total:  total,
	}, nil
}

func (uc *GetMessagesUseCase) storageFailure(ctx context.Context, in GetMessagesInput, err error) error {
	uc.logger.ErrorContext(ctx, "Failed to list messages", "session_id", in.SessionID, "error", err)
	return asStorageError("failed to list messages", err)
}
