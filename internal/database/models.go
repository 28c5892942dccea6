package database

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/edgard/chatmessages/internal/domain/model"
)

// storedTimeLayout is fixed-width so that lexical order of the stored text
// equals chronological order.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z"

// storedTime is a UTC instant persisted as storedTimeLayout text.
type storedTime time.Time

func (t storedTime) Value() (driver.Value, error) {
	return time.Time(t).UTC().Format(storedTimeLayout), nil
}

func (t *storedTime) Scan(src any) error {
	parsed, err := parseStoredTime(src)
	if err != nil {
		return err
	}
	*t = storedTime(parsed)
	return nil
}

// nullStoredTime is the nullable variant of storedTime.
type nullStoredTime struct {
	Time  time.Time
	Valid bool
}

func (t nullStoredTime) Value() (driver.Value, error) {
	if !t.Valid {
		return nil, nil
	}
	return t.Time.UTC().Format(storedTimeLayout), nil
}

func (t *nullStoredTime) Scan(src any) error {
	if src == nil {
		t.Time, t.Valid = time.Time{}, false
		return nil
	}
	parsed, err := parseStoredTime(src)
	if err != nil {
		return err
	}
	t.Time, t.Valid = parsed, true
	return nil
}

func parseStoredTime(src any) (time.Time, error) {
	var text string
	switch v := src.(type) {
	case string:
		text = v
	case []byte:
		text = string(v)
	case time.Time:
		return v.UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("cannot scan %T into timestamp", src)
	}

	parsed, err := time.Parse(time.RFC3339Nano, text)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored timestamp %q: %w", text, err)
	}
	return parsed.UTC(), nil
}

// messageRow is one row of the messages table.
type messageRow struct {
	ID             int64          `db:"id"`
	MessageID      string         `db:"message_id"`
	SessionID      string         `db:"session_id"`
	Content        string         `db:"content"`
	Timestamp      storedTime     `db:"timestamp"`
	Sender         string         `db:"sender"`
	WordCount      sql.NullInt64  `db:"word_count"`
	CharacterCount sql.NullInt64  `db:"character_count"`
	ProcessedAt    nullStoredTime `db:"processed_at"`
	CreatedAt      storedTime     `db:"created_at"`
}

const messageColumns = `id, message_id, session_id, content, timestamp, sender,
	word_count, character_count, processed_at, created_at`

func newMessageRow(msg model.Message, createdAt time.Time) messageRow {
	row := messageRow{
		MessageID: msg.ID(),
		SessionID: msg.SessionID(),
		Content:   msg.Content(),
		Timestamp: storedTime(msg.Timestamp()),
		Sender:    msg.Sender().String(),
		CreatedAt: storedTime(createdAt),
	}
	if md, ok := msg.Metadata(); ok {
		row.WordCount = sql.NullInt64{Int64: int64(md.WordCount()), Valid: true}
		row.CharacterCount = sql.NullInt64{Int64: int64(md.CharacterCount()), Valid: true}
		row.ProcessedAt = nullStoredTime{Time: md.ProcessedAt(), Valid: !md.ProcessedAt().IsZero()}
	}
	return row
}

// toModel hydrates the row. Metadata is attached only when both counts are
// present.
func (r messageRow) toModel() (model.Message, error) {
	sender, err := model.ParseSenderType(r.Sender)
	if err != nil {
		return model.Message{}, fmt.Errorf("row %d: %w", r.ID, err)
	}

	msg, err := model.NewMessage(r.MessageID, r.SessionID, r.Content, time.Time(r.Timestamp), sender)
	if err != nil {
		return model.Message{}, fmt.Errorf("row %d: %w", r.ID, err)
	}

	if r.WordCount.Valid && r.CharacterCount.Valid {
		var processedAt time.Time
		if r.ProcessedAt.Valid {
			processedAt = r.ProcessedAt.Time
		}
		md, err := model.NewMessageMetadata(int(r.WordCount.Int64), int(r.CharacterCount.Int64), processedAt)
		if err != nil {
			return model.Message{}, fmt.Errorf("row %d: %w", r.ID, err)
		}
		msg = msg.WithMetadata(md)
	}

	return msg, nil
}
