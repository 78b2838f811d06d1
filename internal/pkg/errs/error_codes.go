/*
Package errs defines the application's error type and business error codes.

Codes are grouped by concern: 1xxx request handling, 2xxx room and message
business outcomes, 3xxx session and identity, 4xxx external collaborators,
5xxx internal/backing-store failures.
*/
package errs

// 1xxx: General request handling errors.
const (
	// ErrInvalidParams indicates request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates an unsupported Content-Type header.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates a malformed JSON request body.
	ErrInvalidJSONFormat = 1003

	// ErrRequestEntityTooLarge indicates the request body exceeded the size limit.
	ErrRequestEntityTooLarge = 1004

	// ErrFormParseFailed indicates multipart form data could not be parsed.
	ErrFormParseFailed = 1005

	// ErrRateLimitExceeded indicates the caller exceeded a request rate limit.
	ErrRateLimitExceeded = 1006
)

// 2xxx: Room and message business outcomes.
const (
	// ErrRoomNotFound indicates no room exists for the given id or code.
	ErrRoomNotFound = 2101

	// ErrRoomCodeExists indicates a room code collision during creation.
	ErrRoomCodeExists = 2102

	// ErrRoomIsFull indicates the room has reached its participant capacity.
	ErrRoomIsFull = 2103

	// ErrRoomInactive indicates the room exists but is no longer joinable.
	ErrRoomInactive = 2104

	// ErrRoomCapacityInvalid indicates a capacity outside the allowed bounds.
	ErrRoomCapacityInvalid = 2105

	// ErrNotRoomOwner indicates a delete attempt by someone other than the creator.
	ErrNotRoomOwner = 2106

	// ErrNotInRoom indicates the session is not currently bound to the target room.
	ErrNotInRoom = 2107

	// ErrMessageNotFound indicates no message exists for the given id.
	ErrMessageNotFound = 2201

	// ErrMessageContentTooLong indicates message content exceeded the length limit.
	ErrMessageContentTooLong = 2202

	// ErrNotMessageSender indicates an edit/delete attempt on another user's message.
	ErrNotMessageSender = 2203

	// ErrEditWindowExpired indicates an edit attempt after the allowed window.
	ErrEditWindowExpired = 2204
)

// 3xxx: Session and identity errors.
const (
	// ErrNotAuthenticated indicates the connection has not completed authenticate.
	ErrNotAuthenticated = 3001

	// ErrIdentityTokenInvalid indicates the identity provider token failed verification.
	ErrIdentityTokenInvalid = 3002

	// ErrSessionNotFound indicates no live session exists for the connection or identity.
	ErrSessionNotFound = 3003
)

// 4xxx: External collaborator errors.
const (
	// ErrFileStorageFailed indicates the object storage upload failed.
	ErrFileStorageFailed = 4001

	// ErrFileSizeTooLarge indicates an upload exceeding the per-file size limit.
	ErrFileSizeTooLarge = 4002

	// ErrFileTypeInvalid indicates an upload with a disallowed file type.
	ErrFileTypeInvalid = 4003

	// ErrExtractionFailed indicates the bill extraction service returned an error.
	ErrExtractionFailed = 4004
)

// 5xxx: Internal system errors.
const (
	// ErrUnknown is the catch-all for unclassified internal failures.
	ErrUnknown = 5000

	// ErrStoreUnavailable indicates the keyed store was unreachable or erroring.
	ErrStoreUnavailable = 5001
)
