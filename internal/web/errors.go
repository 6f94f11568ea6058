package web

// errors.go turns handler errors into JSON bodies. The status comes from
// the ledger sentinel; message, action and code come from core.MapError so
// the CLI and the API report the same support codes. The technical error
// travels in "error" so ledger.Client can tell the sentinels apart.

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/ledgerimport/internal/core"
	"github.com/JonMunkholm/ledgerimport/internal/ledger"
	"github.com/JonMunkholm/ledgerimport/internal/logging"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// errBadRequest marks malformed path parameters or bodies.
var errBadRequest = errors.New("bad request")

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, ledger.ErrItemExists), errors.Is(err, ledger.ErrAlreadyUploaded):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrItemNotFound), errors.Is(err, ledger.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrHashMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusServiceUnavailable
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes its JSON form.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.NewUserError(err).User

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		logger.Error("request error", args...)
	} else {
		logger.Info("request rejected", args...)
	}

	detail := err.Error()
	if status == http.StatusInternalServerError {
		detail = "internal error"
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, status, ErrorResponse{
		Error:   detail,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}
