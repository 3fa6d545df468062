package database

import "time"

// CreateURLParams carries the fields persisted when a new shortened URL
// is inserted. Fields not listed here (id, click count, timestamps,
// active flag) are assigned by the storage layer.
type CreateURLParams struct {
	ShortCode   string
	OriginalURL string
	CustomAlias string
	ExpiresAt   *time.Time
}
