package store

import "errors"

// ErrNotFound is returned when an update or delete matches no row.
var ErrNotFound = errors.New("not found")
