package storage

import "context"

// Storage persists the subscriber list. Emails are stored as given; callers
// normalize them first. Listing preserves insertion order.
type Storage interface {
	ListSubscribers(ctx context.Context) ([]string, error)
	// AddSubscriber appends email unless already present and reports whether
	// it was added.
	AddSubscriber(ctx context.Context, email string) (bool, error)

	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases any resources (no-op for in-memory).
	Close() error
}
