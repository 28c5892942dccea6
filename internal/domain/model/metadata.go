package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Keys of the plain map produced by MessageMetadata.ToMap.
const (
	MetadataWordCount      = "word_count"
	MetadataCharacterCount = "character_count"
	MetadataProcessedAt    = "processed_at"
)

// MessageMetadata holds statistics derived from a message's content.
// Values are immutable once constructed.
type MessageMetadata struct {
	wordCount      int
	characterCount int
	processedAt    time.Time
}

// NewMessageMetadata builds metadata from stored or computed values.
func NewMessageMetadata(wordCount, characterCount int, processedAt time.Time) (MessageMetadata, error) {
	if wordCount < 0 {
		return MessageMetadata{}, fmt.Errorf("word count must be non-negative, got %d", wordCount)
	}
	if characterCount < 0 {
		return MessageMetadata{}, fmt.Errorf("character count must be non-negative, got %d", characterCount)
	}
	if !processedAt.IsZero() {
		processedAt = processedAt.UTC()
	}
	return MessageMetadata{
		wordCount:      wordCount,
		characterCount: characterCount,
		processedAt:    processedAt,
	}, nil
}

// MetadataFromContent computes metadata for content. Words are runs of
// non-whitespace; characters are counted in code points.
func MetadataFromContent(content string, processedAt time.Time) MessageMetadata {
	return MessageMetadata{
		wordCount:      len(strings.Fields(content)),
		characterCount: utf8.RuneCountInString(content),
		processedAt:    processedAt.UTC(),
	}
}

func (m MessageMetadata) WordCount() int {
	return m.wordCount
}

func (m MessageMetadata) CharacterCount() int {
	return m.characterCount
}

// ProcessedAt is zero when the stored row never recorded it.
func (m MessageMetadata) ProcessedAt() time.Time {
	return m.processedAt
}

// ToMap renders the metadata as a plain key-value map.
func (m MessageMetadata) ToMap() map[string]any {
	out := map[string]any{
		MetadataWordCount:      m.wordCount,
		MetadataCharacterCount: m.characterCount,
		MetadataProcessedAt:    nil,
	}
	if !m.processedAt.IsZero() {
		out[MetadataProcessedAt] = m.processedAt
	}
	return out
}
