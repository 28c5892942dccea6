package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	apperrors "github.com/edgard/chatmessages/internal/errors"
)

// statusFor maps an application error to its HTTP status.
func statusFor(err error) int {
	switch {
	case apperrors.IsValidation(err):
		return http.StatusBadRequest
	case apperrors.IsDuplicateMessage(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeAppError renders err in the error envelope. Server-side failures are
// logged and their message is never sent to the client.
func writeAppError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"code", apperrors.Code(err),
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		writeError(w, status, CodeInternalError, "an unexpected error occurred", "")
		return
	}

	message := apperrors.Message(err)
	if message == "" {
		message = err.Error()
	}
	writeError(w, status, apperrors.Code(err), message, "")
}
