package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/edgard/chatmessages/internal/domain/model"
	apperrors "github.com/edgard/chatmessages/internal/errors"
	"github.com/edgard/chatmessages/internal/usecase"
)

const maxRequestBodyBytes = 1 << 20

// Accepted timestamp layouts. Values without a zone are taken as UTC.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// MessageCreator runs the create pipeline.
type MessageCreator interface {
	Execute(ctx context.Context, in usecase.CreateMessageInput) (usecase.MessageDTO, error)
}

// MessageLister runs the list operation.
type MessageLister interface {
	Execute(ctx context.Context, in usecase.GetMessagesInput) (usecase.MessagePage, error)
}

type createMessageRequest struct {
	MessageID string `json:"message_id" validate:"required"`
	SessionID string `json:"session_id" validate:"required"`
	Content   string `json:"content"    validate:"required"`
	Timestamp string `json:"timestamp"`
	Sender    string `json:"sender"     validate:"required"`
}

// MessageHandler serves the /api/v1/messages routes.
type MessageHandler struct {
	create   MessageCreator
	list     MessageLister
	validate *validator.Validate
	metrics  *Metrics
	maxLimit int
	logger   *slog.Logger
}

func NewMessageHandler(create MessageCreator, list MessageLister, maxLimit int, metrics *Metrics, logger *slog.Logger) *MessageHandler {
	if maxLimit <= 0 {
		maxLimit = usecase.MaxLimit
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &MessageHandler{
		create:   create,
		list:     list,
		validate: validate,
		metrics:  metrics,
		maxLimit: maxLimit,
		logger:   logger.With("component", "http"),
	}
}

// Create handles POST /api/v1/messages.
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMessageRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err := dec.Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			h.reject(w, http.StatusUnprocessableEntity, CodeValidationError, "request validation failed",
				fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type))
			return
		}
		h.reject(w, http.StatusBadRequest, CodeInvalidFormat, "request body is not valid JSON", err.Error())
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.reject(w, http.StatusUnprocessableEntity, CodeValidationError, "request validation failed", validationDetails(err))
		return
	}

	var ts time.Time
	if req.Timestamp != "" {
		parsed, ok := parseTimestamp(req.Timestamp)
		if !ok {
			h.reject(w, http.StatusUnprocessableEntity, CodeValidationError, "request validation failed",
				"timestamp must be an ISO 8601 date-time")
			return
		}
		ts = parsed
	}

	dto, err := h.create.Execute(r.Context(), usecase.CreateMessageInput{
		MessageID: req.MessageID,
		SessionID: req.SessionID,
		Content:   req.Content,
		Timestamp: ts,
		Sender:    req.Sender,
	})
	if err != nil {
		if statusFor(err) < http.StatusInternalServerError {
			h.metrics.messageRejected(apperrors.Code(err))
		}
		writeAppError(w, r, h.logger, err)
		return
	}

	h.metrics.messageCreated()
	writeSuccess(w, http.StatusCreated, dto)
}

// List handles GET /api/v1/messages/{session_id}.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := usecase.GetMessagesInput{
		SessionID: chi.URLParam(r, "session_id"),
		Sender:    q.Get("sender"),
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > h.maxLimit {
			writeError(w, http.StatusUnprocessableEntity, CodeValidationError, "request validation failed",
				fmt.Sprintf("limit must be an integer between 1 and %d", h.maxLimit))
			return
		}
		in.Limit = limit
	}

	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			writeError(w, http.StatusUnprocessableEntity, CodeValidationError, "request validation failed",
				"offset must be a non-negative integer")
			return
		}
		in.Offset = offset
	}

	if in.Sender != "" && !model.SenderType(in.Sender).Valid() {
		writeError(w, http.StatusUnprocessableEntity, CodeValidationError, "request validation failed",
			"sender must be one of: user, system")
		return
	}

	page, err := h.list.Execute(r.Context(), in)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, page)
}

func (h *MessageHandler) reject(w http.ResponseWriter, status int, code, message, details string) {
	h.metrics.messageRejected(code)
	writeError(w, status, code, message, details)
}

func parseTimestamp(raw string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func validationDetails(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
