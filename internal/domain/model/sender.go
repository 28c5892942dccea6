package model

import (
	apperrors "github.com/edgard/chatmessages/internal/errors"
)

// SenderType identifies who authored a message.
type SenderType string

const (
	SenderUser   SenderType = "user"
	SenderSystem SenderType = "system"
)

// SenderTypes lists every valid sender.
var SenderTypes = []SenderType{SenderUser, SenderSystem}

// ParseSenderType converts raw input into a SenderType. Matching is exact
// and case-sensitive.
func ParseSenderType(s string) (SenderType, error) {
	sender := SenderType(s)
	if !sender.Valid() {
		return "", apperrors.NewInvalidSenderError(s)
	}
	return sender, nil
}

// Valid reports whether s is a member of the enumeration.
func (s SenderType) Valid() bool {
	switch s {
	case SenderUser, SenderSystem:
		return true
	default:
		return false
	}
}

func (s SenderType) String() string {
	return string(s)
}
