package port

import "context"

type IdempotencyStore interface {
	// Acquire claims key, returns false if another request already holds it
	Acquire(ctx context.Context, key string) (bool, error)

	// Release frees key so the same submission can be retried
	Release(ctx context.Context, key string) error
}
