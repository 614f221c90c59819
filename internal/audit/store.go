// Package audit persists a durable trail of document mutations. The trail
// survives restarts and is queryable from the admin API.
package audit

import (
	"context"
	"time"
)

// Entry is a single recorded document mutation.
type Entry struct {
	ID         int64     `json:"id"`
	Action     string    `json:"action"`
	Collection string    `json:"collection"`
	Document   string    `json:"document_name"`
	Detail     string    `json:"detail,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Store defines the interface for persisting and querying the audit trail.
type Store interface {
	// Append records a document mutation.
	Append(ctx context.Context, action, collection, document, detail string) error

	// GetByDocument retrieves all entries for a specific document, oldest first.
	GetByDocument(ctx context.Context, collection, document string) ([]Entry, error)

	// GetRecent retrieves the most recent entries, newest first.
	GetRecent(ctx context.Context, limit int) ([]Entry, error)

	// GetRange retrieves entries within a time range, oldest first.
	GetRange(ctx context.Context, start, end time.Time) ([]Entry, error)

	// CountByAction returns entry counts grouped by action.
	CountByAction(ctx context.Context) (map[string]int64, error)

	// Close closes the store and releases resources.
	Close() error
}
