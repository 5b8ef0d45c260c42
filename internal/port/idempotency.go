package port

import "context"

// IdempotencyGuard records client-supplied request keys so that a retried
// order submission is rejected instead of creating a second order.
type IdempotencyGuard interface {
	// Register claims the key, returning false if it was already claimed.
	Register(ctx context.Context, key string) (bool, error)
}
