// Package storage holds the fast-path state kept beside Postgres: incremental unread
// counters and the user roster cache.
// Implementations: redis.Client, memory.Client (single instance without Redis).
package storage

import (
	"context"

	"vio-chat-service/internal/models"
)

// UnreadCounter keeps unread[viewer][counterparty] between full rescans.
type UnreadCounter interface {
	Incr(ctx context.Context, viewer, counterparty string) error
	// Decr never drops below zero.
	Decr(ctx context.Context, viewer, counterparty string) error
	Reset(ctx context.Context, viewer, counterparty string) error
	// Counts reports seeded=false until Replace has run for the viewer; the counters
	// cannot be trusted then, even if increments have landed.
	Counts(ctx context.Context, viewer string) (counts map[string]int, seeded bool, err error)
	// Replace swaps the viewer's counters for the result of a rescan and marks them seeded.
	Replace(ctx context.Context, viewer string, counts map[string]int) error
}

// UserCache keeps display names and photos for message rendering.
type UserCache interface {
	GetUser(ctx context.Context, uid string) (models.UserSummary, bool, error)
	PutUsers(ctx context.Context, users ...models.UserSummary) error
	InvalidateUser(ctx context.Context, uid string) error
}

// Store is implemented by every backend.
type Store interface {
	UnreadCounter
	UserCache
	Close() error
}
