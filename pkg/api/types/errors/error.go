// Package errors shapes error payloads of the cdrd REST API and maps
// persistence-layer failures onto HTTP status codes.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/carestack/cdr/pkg/domain"
	domerr "github.com/carestack/cdr/pkg/domain/errors"
)

type ErrorResponse struct {
	Message ErrorMessage `json:"message"`
}

type ErrorMessage struct {
	Reason string `json:"reason"`
	Advice string `json:"advice,omitempty"`
	// Issues carries detected-issue texts when a write was rejected by
	// validation.
	Issues []string `json:"issues,omitempty"`
	Cause  error    `json:"-"`
}

func (em *ErrorMessage) UnmarshalJSON(bytes []byte) error {
	f := new(struct {
		Reason *string  `json:"reason"`
		Advice *string  `json:"advice,omitempty"`
		Issues []string `json:"issues,omitempty"`
	})
	if err := json.Unmarshal(bytes, f); err != nil {
		return err
	}

	if f.Reason == nil {
		return fmt.Errorf(`required field missing: "reason"`)
	}
	em.Reason = *f.Reason

	if f.Advice != nil {
		em.Advice = *f.Advice
	}
	em.Issues = f.Issues

	return nil
}

func (e ErrorMessage) String() string {
	lines := []string{e.Reason}
	if e.Advice != "" {
		lines = append(lines, e.Advice)
	}
	lines = append(lines, e.Issues...)
	if e.Cause != nil {
		lines = append(lines, fmt.Sprint(" caused by:", e.Cause.Error()))
	}
	return strings.Join(lines, "\n")
}

func (e ErrorMessage) Error() string {
	return e.String()
}

func (e ErrorMessage) Unwrap() error {
	return e.Cause
}

type ErrorMessageOption func(in *ErrorMessage) *ErrorMessage

func WithAdvice(advice string) ErrorMessageOption {
	return func(in *ErrorMessage) *ErrorMessage {
		if advice != "" {
			in.Advice = advice
		}
		return in
	}
}

func WithError(err error) ErrorMessageOption {
	return func(in *ErrorMessage) *ErrorMessage {
		if err != nil {
			in.Cause = err
		}
		return in
	}
}

func NewErrorMessage(code int, reason string, opts ...ErrorMessageOption) *echo.HTTPError {
	msg := ErrorMessage{Reason: reason}
	for _, opt := range opts {
		msg = *opt(&msg)
	}

	return echo.NewHTTPError(code, msg).SetInternal(msg)
}

func NotFound() *echo.HTTPError {
	return NewErrorMessage(http.StatusNotFound, "not found")
}

func BadRequest(advice string, err error) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusBadRequest,
		"bad request",
		WithAdvice(advice),
		WithError(err),
	)
}

func Unauthorized(advice string) *echo.HTTPError {
	return NewErrorMessage(http.StatusUnauthorized, "unauthorized", WithAdvice(advice))
}

func Forbidden(advice string) *echo.HTTPError {
	return NewErrorMessage(http.StatusForbidden, "forbidden", WithAdvice(advice))
}

func Conflict(advice string, err error) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusConflict,
		"conflict",
		WithAdvice(advice),
		WithError(err),
	)
}

func InternalServerError(err error) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusInternalServerError,
		"unexpected error",
		WithAdvice("ask your system admin."),
		WithError(err),
	)
}

// FromPersistence translates a storage failure into its HTTP rendering.
func FromPersistence(err error) *echo.HTTPError {
	var issues domain.DetectedIssueError
	if errors.As(err, &issues) {
		texts := make([]string, len(issues.Issues))
		for nth, i := range issues.Issues {
			texts[nth] = fmt.Sprintf("[%s] %s", i.Priority, i.Text)
		}
		msg := ErrorMessage{Reason: "rejected by validation", Issues: texts, Cause: err}
		return echo.NewHTTPError(http.StatusUnprocessableEntity, msg).SetInternal(msg)
	}

	switch {
	case errors.Is(err, domerr.ErrMissing):
		return NotFound()
	case errors.Is(err, domerr.ErrTooMuch):
		return Conflict("the request matches more records than allowed", err)
	case errors.Is(err, domerr.ErrFormalConstraint):
		return BadRequest("the request violates a contract of the storage layer", err)
	case errors.Is(err, domerr.ErrReadOnly):
		return Forbidden("the record is system-protected")
	default:
		return InternalServerError(err)
	}
}
