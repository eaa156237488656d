package repository

import "errors"

// ErrNotFound is returned when a lookup for a single conversation finds
// nothing. The service layer translates it to the domain-level ErrNotFound.
var ErrNotFound = errors.New("repository: not found")
