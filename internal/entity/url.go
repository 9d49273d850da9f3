// Package entity defines the entities and errors shared by the application layers.
// It includes the URL struct, which represents a shortened URL with its metadata,
// and the sentinel errors the delivery layer maps to HTTP responses.
package entity

import (
	"errors"
	"time"
)

var (
	// ErrInvalidURL is returned when a submitted URL is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid url")
	// ErrShortCodeExists is returned when attempting to save a URL with a short code that already exists.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrURLNotFound is returned when a URL with the specified short code cannot be found.
	ErrURLNotFound = errors.New("url not found")
)

// URL represents a shortened URL.
type URL struct {
	ID          int64     // ID is the unique identifier of the URL assigned by the store.
	ShortCode   string    // ShortCode is the generated code used to shorten the original URL.
	OriginalURL string    // OriginalURL is the full URL that the short code resolves to.
	AccessCount int64     // AccessCount is the number of times the short code has been resolved.
	CreatedAt   time.Time // CreatedAt is the timestamp when the URL was created.
	UpdatedAt   time.Time // UpdatedAt is the timestamp when the URL was last updated.
}
