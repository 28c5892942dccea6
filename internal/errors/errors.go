// Package errors defines the application error types shared by the message
// pipeline, the storage layer and the HTTP transport.
package errors

import (
	"errors"
	"fmt"
)

// Standard error codes for the application.
const (
	CodeUnknown                 = "UNKNOWN"
	CodeInvalidSender           = "INVALID_SENDER"
	CodeInvalidContent          = "INVALID_CONTENT"
	CodeInvalidEntity           = "INVALID_ENTITY"
	CodeInvalidFilter           = "INVALID_FILTER"
	CodeInvalidSenderForSession = "INVALID_SENDER_FOR_SESSION"
	CodeDuplicateMessage        = "DUPLICATE_MESSAGE"
	CodeDuplicateKey            = "DUPLICATE_KEY"
	CodeStorage                 = "STORAGE"
	CodeConfig                  = "CONFIG"
)

// Sentinel kinds for use with errors.Is.
var (
	ErrValidation       = errors.New("validation error")
	ErrDuplicateMessage = errors.New("duplicate message")
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrStorage          = errors.New("storage error")
	ErrConfig           = errors.New("configuration error")
)

// ApplicationError is the interface that all our custom errors implement.
type ApplicationError interface {
	error
	Code() string
	Unwrap() error
}

// Error represents a basic application error.
type Error struct {
	code    string
	message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}

	return e.message
}

func (e *Error) Code() string {
	return e.code
}

func (e *Error) Message() string {
	return e.message
}

func (e *Error) Unwrap() error {
	return e.err
}

// Code returns the code of the first ApplicationError in err's chain,
// or CodeUnknown if it doesn't have one.
func Code(err error) string {
	var appErr ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}

	return CodeUnknown
}

// Message returns the client-facing message of the first application error
// in err's chain, without the wrapped cause.
func Message(err error) string {
	var msg interface{ Message() string }
	if errors.As(err, &msg) {
		return msg.Message()
	}

	return ""
}

// IsValidation reports whether err belongs to the validation family.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsDuplicateKey reports whether err is a storage uniqueness violation.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, ErrDuplicateKey)
}

// IsDuplicateMessage reports whether err is a rejected duplicate message.
func IsDuplicateMessage(err error) bool {
	return errors.Is(err, ErrDuplicateMessage)
}

// IsStorage reports whether err is a storage failure.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}

// ValidationError is returned when input is rejected before any I/O.
// Its code tells which rule failed.
type ValidationError struct {
	base Error
}

func (e *ValidationError) Error() string {
	return e.base.Error()
}

func (e *ValidationError) Code() string {
	return e.base.Code()
}

func (e *ValidationError) Message() string {
	return e.base.Message()
}

func (e *ValidationError) Unwrap() error {
	return e.base.Unwrap()
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(code, message string, cause error) error {
	return &ValidationError{
		base: Error{
			code:    code,
			message: message,
			err:     cause,
		},
	}
}

func NewInvalidSenderError(sender string) error {
	return newValidationError(CodeInvalidSender, fmt.Sprintf("invalid sender type: %q", sender), nil)
}

func NewInvalidContentError(message string) error {
	return newValidationError(CodeInvalidContent, message, nil)
}

func NewInvalidEntityError(message string) error {
	return newValidationError(CodeInvalidEntity, message, nil)
}

func NewInvalidFilterError(message string) error {
	return newValidationError(CodeInvalidFilter, message, nil)
}

func NewInvalidSenderForSessionError(sender, sessionID string) error {
	return newValidationError(CodeInvalidSenderForSession,
		fmt.Sprintf("no messages from sender %q in session %q", sender, sessionID), nil)
}

// DuplicateMessageError is what callers of the create pipeline see when the
// message_id is already taken.
type DuplicateMessageError struct {
	base      Error
	messageID string
}

func (e *DuplicateMessageError) Error() string {
	return e.base.Error()
}

func (e *DuplicateMessageError) Code() string {
	return e.base.Code()
}

func (e *DuplicateMessageError) Message() string {
	return e.base.Message()
}

func (e *DuplicateMessageError) Unwrap() error {
	return e.base.Unwrap()
}

func (e *DuplicateMessageError) Is(target error) bool {
	return target == ErrDuplicateMessage
}

// MessageID returns the rejected identifier.
func (e *DuplicateMessageError) MessageID() string {
	return e.messageID
}

func NewDuplicateMessageError(messageID string, cause error) error {
	return &DuplicateMessageError{
		base: Error{
			code:    CodeDuplicateMessage,
			message: fmt.Sprintf("message with id %q already exists", messageID),
			err:     cause,
		},
		messageID: messageID,
	}
}

// DuplicateKeyError is raised by the storage layer on a uniqueness violation.
type DuplicateKeyError struct {
	base Error
}

func (e *DuplicateKeyError) Error() string {
	return e.base.Error()
}

func (e *DuplicateKeyError) Code() string {
	return e.base.Code()
}

func (e *DuplicateKeyError) Message() string {
	return e.base.Message()
}

func (e *DuplicateKeyError) Unwrap() error {
	return e.base.Unwrap()
}

func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

func NewDuplicateKeyError(message string, cause error) error {
	return &DuplicateKeyError{
		base: Error{
			code:    CodeDuplicateKey,
			message: message,
			err:     cause,
		},
	}
}

type StorageError struct {
	base Error
}

func (e *StorageError) Error() string {
	return e.base.Error()
}

func (e *StorageError) Code() string {
	return e.base.Code()
}

func (e *StorageError) Message() string {
	return e.base.Message()
}

func (e *StorageError) Unwrap() error {
	return e.base.Unwrap()
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func NewStorageError(message string, cause error) error {
	return &StorageError{
		base: Error{
			code:    CodeStorage,
			message: message,
			err:     cause,
		},
	}
}

type ConfigError struct {
	base Error
}

func (e *ConfigError) Error() string {
	return e.base.Error()
}

func (e *ConfigError) Code() string {
	return e.base.Code()
}

func (e *ConfigError) Message() string {
	return e.base.Message()
}

func (e *ConfigError) Unwrap() error {
	return e.base.Unwrap()
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

func NewConfigError(message string, cause error) error {
	return &ConfigError{
		base: Error{
			code:    CodeConfig,
			message: message,
			err:     cause,
		},
	}
}
