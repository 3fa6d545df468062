package models

import "time"

// URL represents a shortened URL and its associated metadata.
type URL struct {
	// ID is the unique identifier for the shortened URL record.
	ID int64
	// ShortCode is the short code or custom alias associated with the original URL.
	ShortCode string
	// OriginalURL is the original, full-length URL that the short code points to.
	OriginalURL string
	// CustomAlias is set when the short code was chosen by the caller
	// rather than generated.
	CustomAlias string
	// ClickCount tracks the number of times the shortened URL has been resolved.
	ClickCount int64
	// CreatedAt is the timestamp indicating when the shortened URL was created.
	CreatedAt time.Time
	// UpdatedAt is the timestamp indicating when the record was last modified.
	UpdatedAt time.Time
	// LastAccessed is the timestamp of the most recent successful resolution,
	// or nil if the URL has never been visited.
	LastAccessed *time.Time
	// ExpiresAt is the optional expiry deadline. Once passed, the URL
	// resolves as expired even though the record is kept.
	ExpiresAt *time.Time
	// IsActive is false once the URL has been soft-deleted.
	IsActive bool
}

// Expired reports whether the URL has an expiry deadline in the past
// relative to now.
func (u *URL) Expired(now time.Time) bool {
	return u.ExpiresAt != nil && u.ExpiresAt.Before(now)
}
