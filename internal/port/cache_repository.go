package port

import "context"

type CacheRepository interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ClearIdempotency drops the key so a failed operation can be retried
	ClearIdempotency(ctx context.Context, key string) error
}
