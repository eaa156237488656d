package errors

import "errors"

// This package defines a centralized set of sentinel errors for the application.
// Services wrap them with fmt.Errorf("%w") and the API layer uses errors.Is() to
// map them to HTTP responses.

var (
	// ErrNotFound signifies that a requested resource could not be located.
	// This is typically mapped to a 404 Not Found HTTP status.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation signifies that input data provided by a client failed
	// business rule validation.
	// This is typically mapped to a 400 Bad Request HTTP status.
	ErrValidation = errors.New("validation failed")

	// ErrConflict signifies that an operation could not be completed because
	// it conflicts with the current state of a resource.
	// This is typically mapped to a 409 Conflict HTTP status.
	ErrConflict = errors.New("resource conflict")

	// ErrPermission signifies that the caller is not authorized to perform the
	// requested action.
	// This is typically mapped to a 403 Forbidden HTTP status.
	ErrPermission = errors.New("permission denied")

	// ErrInternal signifies an unexpected error on the server.
	// This is typically mapped to a 500 Internal Server Error HTTP status.
	ErrInternal = errors.New("internal server error")

	// ErrRateLimited signifies that the completion endpoint refused the request
	// because too many requests were made. Mapped to 429 Too Many Requests.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrUsageLimit signifies that the account behind the completion endpoint
	// ran out of credits. Mapped to 402 Payment Required.
	ErrUsageLimit = errors.New("usage limit reached")

	// ErrUpstream signifies a network failure or an unclassified non-2xx
	// response from the completion endpoint.
	ErrUpstream = errors.New("upstream request failed")
)
