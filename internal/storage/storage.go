// Package storage defines the persistence interface and its implementations.
package storage

import "context"

// Storage is the interface for all persistence operations: digest
// subscriptions and per-chat announcement dedup.
type Storage interface {
	Subscribe(ctx context.Context, chatID int64) error
	Unsubscribe(ctx context.Context, chatID int64) error
	IsSubscribed(ctx context.Context, chatID int64) (bool, error)
	ListSubscribers(ctx context.Context) ([]int64, error)

	MarkAnnounced(ctx context.Context, chatID int64, eventID string) error
	IsAnnounced(ctx context.Context, chatID int64, eventID string) (bool, error)

	Close() error
}
