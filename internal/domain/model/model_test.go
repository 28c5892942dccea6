package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chatmessages/internal/domain/model"
	apperrors "github.com/edgard/chatmessages/internal/errors"
)

func TestParseSenderType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    model.SenderType
		wantErr bool
	}{
		{input: "user", want: model.SenderUser},
		{input: "system", want: model.SenderSystem},
		{input: "bot", wantErr: true},
		{input: "User", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := model.ParseSenderType(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperrors.CodeInvalidSender, apperrors.Code(err))
				return
			}
			require.NoError(t, err)
			if got != tt.want {
				t.Errorf("ParseSenderType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMetadataFromContent(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))

	tests := []struct {
		name      string
		content   string
		wantWords int
		wantChars int
	}{
		{name: "empty", content: "", wantWords: 0, wantChars: 0},
		{name: "single word", content: "hello", wantWords: 1, wantChars: 5},
		{name: "two words", content: "Hello world", wantWords: 2, wantChars: 11},
		{name: "repeated whitespace", content: "a  b\t\nc", wantWords: 3, wantChars: 7},
		{name: "multibyte", content: "olá mundo", wantWords: 2, wantChars: 9},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			md := model.MetadataFromContent(tt.content, now)
			assert.Equal(t, tt.wantWords, md.WordCount())
			assert.Equal(t, tt.wantChars, md.CharacterCount())
			assert.Equal(t, time.UTC, md.ProcessedAt().Location())
			assert.True(t, md.ProcessedAt().Equal(now))
		})
	}
}

func TestNewMessageMetadata(t *testing.T) {
	t.Parallel()

	_, err := model.NewMessageMetadata(-1, 0, time.Now())
	require.Error(t, err)
	_, err = model.NewMessageMetadata(0, -1, time.Now())
	require.Error(t, err)

	md, err := model.NewMessageMetadata(2, 11, time.Time{})
	require.NoError(t, err)
	m := md.ToMap()
	assert.Equal(t, 2, m[model.MetadataWordCount])
	assert.Equal(t, 11, m[model.MetadataCharacterCount])
	assert.Nil(t, m[model.MetadataProcessedAt])
}

func TestNewMessage(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		id        string
		sessionID string
		content   string
		sender    model.SenderType
		wantErr   bool
	}{
		{name: "valid", id: "m1", sessionID: "s1", content: "hello", sender: model.SenderUser},
		{name: "empty id", id: "", sessionID: "s1", content: "hello", sender: model.SenderUser, wantErr: true},
		{name: "blank session", id: "m1", sessionID: "  ", content: "hello", sender: model.SenderUser, wantErr: true},
		{name: "blank content", id: "m1", sessionID: "s1", content: " \t ", sender: model.SenderUser, wantErr: true},
		{name: "bad sender", id: "m1", sessionID: "s1", content: "hello", sender: model.SenderType("bot"), wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			msg, err := model.NewMessage(tt.id, tt.sessionID, tt.content, ts, tt.sender)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperrors.CodeInvalidEntity, apperrors.Code(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, msg.ID())
			assert.Equal(t, tt.sessionID, msg.SessionID())
			assert.Equal(t, tt.content, msg.Content())
			assert.Equal(t, tt.sender, msg.Sender())
			assert.True(t, msg.Timestamp().Equal(ts))
			_, ok := msg.Metadata()
			assert.False(t, ok)
		})
	}
}

func TestWithMetadataDoesNotMutate(t *testing.T) {
	t.Parallel()

	msg, err := model.NewMessage("m1", "s1", "Hello world", time.Now(), model.SenderSystem)
	require.NoError(t, err)

	enriched := msg.WithMetadata(model.MetadataFromContent(msg.Content(), time.Now()))

	_, ok := msg.Metadata()
	assert.False(t, ok, "original must stay without metadata")

	md, ok := enriched.Metadata()
	require.True(t, ok)
	assert.Equal(t, 2, md.WordCount())
	assert.Equal(t, msg.ID(), enriched.ID())
	assert.True(t, enriched.IsFromSystem())
	assert.False(t, enriched.IsFromUser())
}
