package database

import "errors"

var (
	// ErrShortCodeExists is returned when an attempt is made to create
	// a new shortened URL with a short code that is already held by an
	// active record. The uniqueness check is enforced by the storage
	// layer, so concurrent inserts of the same code cannot both succeed.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrURLNotFound is returned when an attempt is made to retrieve
	// a URL using a short code that doesn't exist or has been deactivated.
	ErrURLNotFound = errors.New("url not found")
)
