package errs

import "net/http"

// errorMap registers the client-facing message and HTTP status for every
// error code. A zero Status means 200 with a non-zero business code, which is
// how business rejections travel on the WebSocket-first surface.
var errorMap = map[int]CustomError{
	// 1xxx: General request handling errors.
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Request body is not valid JSON.", Status: http.StatusBadRequest},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrFormParseFailed:       {Code: ErrFormParseFailed, Message: "Failed to process uploaded data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Room and message business outcomes.
	ErrRoomNotFound:          {Code: ErrRoomNotFound, Message: "Room not found.", Status: http.StatusNotFound},
	ErrRoomCodeExists:        {Code: ErrRoomCodeExists, Message: "Room code already exists.", Status: http.StatusConflict},
	ErrRoomIsFull:            {Code: ErrRoomIsFull, Message: "This room is full.", Status: http.StatusConflict},
	ErrRoomInactive:          {Code: ErrRoomInactive, Message: "This room is no longer active.", Status: http.StatusConflict},
	ErrRoomCapacityInvalid:   {Code: ErrRoomCapacityInvalid, Message: "Room capacity must be between %d and %d.", Status: http.StatusBadRequest},
	ErrNotRoomOwner:          {Code: ErrNotRoomOwner, Message: "Only the room creator can do that.", Status: http.StatusConflict},
	ErrNotInRoom:             {Code: ErrNotInRoom, Message: "You are not in this room.", Status: http.StatusConflict},
	ErrMessageNotFound:       {Code: ErrMessageNotFound, Message: "Message not found.", Status: http.StatusNotFound},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long.", Status: http.StatusBadRequest},
	ErrNotMessageSender:      {Code: ErrNotMessageSender, Message: "You can only change your own messages.", Status: http.StatusConflict},
	ErrEditWindowExpired:     {Code: ErrEditWindowExpired, Message: "This message can no longer be edited.", Status: http.StatusConflict},

	// 3xxx: Session and identity errors.
	ErrNotAuthenticated:     {Code: ErrNotAuthenticated, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrIdentityTokenInvalid: {Code: ErrIdentityTokenInvalid, Message: "Your sign-in is invalid or expired.", Status: http.StatusUnauthorized},
	ErrSessionNotFound:      {Code: ErrSessionNotFound, Message: "Session not found.", Status: http.StatusNotFound},

	// 4xxx: External collaborator errors.
	ErrFileStorageFailed: {Code: ErrFileStorageFailed, Message: "File upload failed. Please try again.", Status: http.StatusBadGateway},
	ErrFileSizeTooLarge:  {Code: ErrFileSizeTooLarge, Message: "File is too large.", Status: http.StatusBadRequest},
	ErrFileTypeInvalid:   {Code: ErrFileTypeInvalid, Message: "This file type is not supported.", Status: http.StatusBadRequest},
	ErrExtractionFailed:  {Code: ErrExtractionFailed, Message: "Could not read the bill. Please try another photo.", Status: http.StatusBadGateway},

	// 5xxx: Internal system errors.
	ErrUnknown:          {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrStoreUnavailable: {Code: ErrStoreUnavailable, Message: "Service temporarily unavailable. Please try again.", Status: http.StatusServiceUnavailable},
}
