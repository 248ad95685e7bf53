package entity

import "time"

// Challenge is the durable record of an issued one-time code. The plaintext
// code never reaches the store; only its keyed hash is persisted.
//
// Invariant: at most one unverified, unexpired challenge per (user, channel)
// is authoritative. Issuing a new code invalidates prior ones.
type Challenge struct {
	ID          uint64
	UserID      string
	Channel     Channel
	Destination string
	CodeHash    string
	ExpiresAt   time.Time
	Verified    bool
	Attempts    int32
	CreatedAt   time.Time
}

// IsExpired reports whether the challenge expired relative to now.
func (c Challenge) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// CacheEntry is the process-local shadow of an in-flight code. It holds the
// plaintext for the fast verification path and is never authoritative; the
// durable store wins on disagreement.
type CacheEntry struct {
	Code        string
	Destination string
	ExpiresAt   time.Time
	Attempts    int32
	Status      CacheStatus
	Delivered   bool
	LastSentAt  time.Time
}

// UserVerification is the per-user verification state as recorded by the
// durable store.
type UserVerification struct {
	UserID         string
	EmailVerified  bool
	MobileVerified bool
	FullyVerified  bool
}
