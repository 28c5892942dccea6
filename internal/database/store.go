package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edgard/chatmessages/internal/domain/model"
	apperrors "github.com/edgard/chatmessages/internal/errors"
	"github.com/edgard/chatmessages/internal/port/store"
)

const (
	defaultUnprocessedBatch = 100
	maxUnprocessedBatch     = 1000
)

// sqlxStore provides an implementation of the MessageStore interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a new MessageStore backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) store.MessageStore {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
		now:    time.Now,
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return apperrors.NewStorageError("database is unreachable", err)
	}
	return nil
}

// Save inserts msg in its own transaction and returns the row as stored.
func (s *sqlxStore) Save(ctx context.Context, msg model.Message) (model.Message, error) {
	if err := ctx.Err(); err != nil {
		return model.Message{}, apperrors.NewStorageError("failed to save message", err)
	}

	row := newMessageRow(msg, s.now().UTC())

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for saving message",
			"message_id", row.MessageID, "error", err)
		return model.Message{}, apperrors.NewStorageError("failed to begin transaction", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
				}
			}
		}
	}()

	query := tx.Rebind(`
        INSERT INTO messages (message_id, session_id, content, timestamp, sender,
                              word_count, character_count, processed_at, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        RETURNING ` + messageColumns)

	var saved messageRow
	err = tx.QueryRowxContext(ctx, query,
		row.MessageID, row.SessionID, row.Content, row.Timestamp, row.Sender,
		row.WordCount, row.CharacterCount, row.ProcessedAt, row.CreatedAt,
	).StructScan(&saved)
	switch {
	case err != nil && isUniqueViolation(err):
		s.logger.WarnContext(ctx, "Duplicate message_id rejected", "message_id", row.MessageID)
		return model.Message{}, apperrors.NewDuplicateKeyError(
			fmt.Sprintf("message_id %q already exists", row.MessageID), err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Error saving message",
			"message_id", row.MessageID, "session_id", row.SessionID, "error", err)
		return model.Message{}, apperrors.NewStorageError("failed to save message", err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "message_id", row.MessageID, "error", err)
		if isUniqueViolation(err) {
			return model.Message{}, apperrors.NewDuplicateKeyError(
				fmt.Sprintf("message_id %q already exists", row.MessageID), err)
		}
		return model.Message{}, apperrors.NewStorageError("failed to commit transaction", err)
	}
	// Successfully committed, set tx to nil to avoid rollback
	tx = nil

	out, err := saved.toModel()
	if err != nil {
		return model.Message{}, apperrors.NewStorageError("failed to read saved message", err)
	}

	s.logger.DebugContext(ctx, "Message saved successfully",
		"message_id", row.MessageID, "session_id", row.SessionID, "row_id", saved.ID)
	return out, nil
}

// GetBySession returns one page of a session's messages, oldest first.
func (s *sqlxStore) GetBySession(ctx context.Context, sessionID string, limit, offset int, sender string) ([]model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewStorageError("failed to query messages", err)
	}

	query := `SELECT ` + messageColumns + ` FROM messages WHERE session_id = ?`
	args := []any{sessionID}
	if sender != "" {
		query += ` AND sender = ?`
		args = append(args, sender)
	}
	query += ` ORDER BY timestamp ASC, id ASC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	var rows []messageRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...)
	if err != nil {
		s.logQueryError(ctx, "Error fetching session messages", err, "session_id", sessionID, "limit", limit, "offset", offset)
		return nil, apperrors.NewStorageError("failed to query messages", err)
	}

	messages, err := hydrate(rows)
	if err != nil {
		s.logger.ErrorContext(ctx, "Stored message failed to hydrate", "session_id", sessionID, "error", err)
		return nil, apperrors.NewStorageError("failed to read stored messages", err)
	}

	s.logger.DebugContext(ctx, "Fetched session messages", "session_id", sessionID, "count", len(messages))
	return messages, nil
}

// CountBySession counts every message of a session matching sender.
func (s *sqlxStore) CountBySession(ctx context.Context, sessionID string, sender string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, apperrors.NewStorageError("failed to count messages", err)
	}

	query := `SELECT COUNT(*) FROM messages WHERE session_id = ?`
	args := []any{sessionID}
	if sender != "" {
		query += ` AND sender = ?`
		args = append(args, sender)
	}

	var count int
	if err := s.db.GetContext(ctx, &count, s.db.Rebind(query), args...); err != nil {
		s.logQueryError(ctx, "Error counting session messages", err, "session_id", sessionID)
		return 0, apperrors.NewStorageError("failed to count messages", err)
	}
	return count, nil
}

// ListUnprocessed returns up to limit messages that have no metadata.
func (s *sqlxStore) ListUnprocessed(ctx context.Context, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = defaultUnprocessedBatch
	} else if limit > maxUnprocessedBatch {
		limit = maxUnprocessedBatch
	}

	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewStorageError("failed to query unprocessed messages", err)
	}

	query := s.db.Rebind(`SELECT ` + messageColumns + ` FROM messages
        WHERE word_count IS NULL OR character_count IS NULL
        ORDER BY timestamp ASC, id ASC
        LIMIT ?`)

	var rows []messageRow
	if err := s.db.SelectContext(ctx, &rows, query, limit); err != nil {
		s.logQueryError(ctx, "Error fetching unprocessed messages", err, "limit", limit)
		return nil, apperrors.NewStorageError("failed to query unprocessed messages", err)
	}

	messages, err := hydrate(rows)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read stored messages", err)
	}
	return messages, nil
}

// UpdateMetadata sets metadata on a message that has none yet.
func (s *sqlxStore) UpdateMetadata(ctx context.Context, messageID string, md model.MessageMetadata) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, apperrors.NewStorageError("failed to update metadata", err)
	}

	processedAt := nullStoredTime{Time: md.ProcessedAt(), Valid: !md.ProcessedAt().IsZero()}
	query := s.db.Rebind(`UPDATE messages
        SET word_count = ?, character_count = ?, processed_at = ?
        WHERE message_id = ? AND (word_count IS NULL OR character_count IS NULL)`)

	result, err := s.db.ExecContext(ctx, query, md.WordCount(), md.CharacterCount(), processedAt, messageID)
	if err != nil {
		s.logQueryError(ctx, "Error updating message metadata", err, "message_id", messageID)
		return false, apperrors.NewStorageError("failed to update metadata", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.NewStorageError("failed to read affected rows", err)
	}
	return affected > 0, nil
}

// RunMaintenance compacts the database and refreshes planner statistics.
func (s *sqlxStore) RunMaintenance(ctx context.Context) error {
	// Check if context is already done
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting maintenance", "error", ctx.Err())
		return ctx.Err()
	}

	var statements []string
	switch s.db.DriverName() {
	case DriverPostgres:
		statements = []string{"VACUUM ANALYZE messages"}
	default:
		// Must run outside a transaction in SQLite
		statements = []string{"VACUUM", "ANALYZE"}
	}

	s.logger.InfoContext(ctx, "Starting database maintenance...", "driver", s.db.DriverName())
	for _, stmt := range statements {
		_, err := s.db.ExecContext(ctx, stmt)

		switch {
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
			s.logger.WarnContext(ctx, "Maintenance statement timed out or was cancelled", "statement", stmt, "error", err)
			return fmt.Errorf("database maintenance (%s) timed out: %w", stmt, err)

		case err != nil:
			s.logger.ErrorContext(ctx, "Database maintenance failed", "statement", stmt, "error", err)
			return apperrors.NewStorageError(fmt.Sprintf("failed to execute %s", stmt), err)
		}
	}

	s.logger.InfoContext(ctx, "Database maintenance completed successfully")
	return nil
}

func (s *sqlxStore) logQueryError(ctx context.Context, msg string, err error, args ...any) {
	args = append(args, "error", err)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logger.WarnContext(ctx, msg+" (context done)", args...)
		return
	}
	s.logger.ErrorContext(ctx, msg, args...)
}

func hydrate(rows []messageRow) ([]model.Message, error) {
	messages := make([]model.Message, 0, len(rows))
	for _, row := range rows {
		msg, err := row.toModel()
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}
