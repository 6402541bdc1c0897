// Package market owns the prediction-market core: the market lifecycle
// state machine, the voting engine that keeps denormalized vote counters
// consistent with the vote rows, and the accuracy leaderboard.
package market

import (
	"context"

	"gorm.io/gorm"
)

// Identity is a verified external (Moltbook) identity.
type Identity struct {
	ID    string
	Name  string
	Karma int64
}

// IdentityVerifier verifies an external credential and returns the identity
// behind it. Network failure and a rejected credential are both verification
// failures; the engine does not distinguish them.
type IdentityVerifier interface {
	Verify(ctx context.Context, apiKey string) (Identity, error)
}

// Publisher receives best-effort cross-post messages after a market-create
// transaction has committed. Implementations must never block the caller.
type Publisher interface {
	Enqueue(title, body string)
}

// Service is the market engine. All mutation goes through it; listing and
// leaderboard queries are read-only.
type Service struct {
	db        *gorm.DB
	verifier  IdentityVerifier
	publisher Publisher
	votes     keyedMutex
}

// NewService wires the engine. verifier and publisher may be nil when
// Moltbook integration is disabled.
func NewService(db *gorm.DB, verifier IdentityVerifier, publisher Publisher) *Service {
	return &Service{db: db, verifier: verifier, publisher: publisher}
}
