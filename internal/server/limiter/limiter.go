// Package limiter throttles verification attempts per (requester, target)
// pair. Two implementations exist: Redis, shared across server processes,
// and an in-process sliding window for single-node deployments.
package limiter

import "context"

// Limiter decides whether one more attempt under key is allowed. Every call
// counts as an attempt.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// VerifyKey is the limiter key for code submissions by requesterID against
// targetID.
func VerifyKey(requesterID, targetID string) string {
	return "verify:" + requesterID + ":" + targetID
}
