/*
Package errs defines the application's error type and business error codes.

Expected business outcomes (room not found, room full, unauthorized delete)
are values of CustomError rather than thrown failures; genuine backing-store
faults map to the 5xxx range and are the only errors logged at high severity.
*/
package errs

import (
	"fmt"
	"net/http"
	"strings"

	"splitchat/internal/pkg/logx"
)

// CustomError is the error type used across the server. It carries a stable
// business code, a client-safe message, and the HTTP status used when the
// error travels over a REST response.
type CustomError struct {
	Code    int
	Message string
	Status  int
}

// Error implements the error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// NewError builds a *CustomError from a registered code. Optional details are
// applied printf-style when the registered message is a template. Unknown
// codes degrade to ErrUnknown so callers always get a presentable error.
func NewError(code int, details ...any) *CustomError {
	template, ok := errorMap[code]
	if !ok {
		logx.Error(
			fmt.Errorf("error code %d has no errorMap entry", code),
			"Unknown error code requested",
		)
		unknown := errorMap[ErrUnknown]
		return &unknown
	}

	customErr := template

	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	if len(details) > 0 {
		if code == ErrUnknown {
			if cause, ok := details[0].(error); ok {
				logx.Error(cause, "Wrapping underlying failure as ErrUnknown")
			}
		} else if strings.Contains(customErr.Message, "%") {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		}
	}

	return &customErr
}

// IsConflict reports whether the error carries one of the conflict codes
// (duplicate code, full/inactive room, ownership or edit-window violations).
func IsConflict(err *CustomError) bool {
	if err == nil {
		return false
	}
	switch err.Code {
	case ErrRoomCodeExists, ErrRoomIsFull, ErrRoomInactive,
		ErrNotRoomOwner, ErrNotMessageSender, ErrEditWindowExpired:
		return true
	}
	return false
}

// IsNotFound reports whether the error is one of the absence codes.
func IsNotFound(err *CustomError) bool {
	if err == nil {
		return false
	}
	switch err.Code {
	case ErrRoomNotFound, ErrMessageNotFound, ErrSessionNotFound:
		return true
	}
	return false
}
