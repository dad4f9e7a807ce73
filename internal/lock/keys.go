// Package lock wraps the Redis coordination store behind the small set
// of atomic primitives the reservation engine needs: set-if-absent
// acquisition with a TTL, owner-checked release and batched reads.  The
// store makes no durability claim; the database stays the source of
// truth and callers must tolerate keys disappearing at TTL.
package lock

// Key-space conventions.  Every transient key the engine writes lives
// under one of these prefixes so operators can inspect and reason about
// the store.
const (
	seatKeyPrefix = "lock:seat:"
	idemKeyPrefix = "idem:reservation:"

	// ReaperKey is the leader lock serializing the expiration reaper
	// across replicas.
	ReaperKey = "lock:cron:reservations-cleanup"
)

// SeatKey returns the lock key announcing an in-progress reservation of
// the given seat.  The value stored under it is the owning user's ID.
func SeatKey(seatID string) string { return seatKeyPrefix + seatID }

// IdemKey returns the idempotency key for a (user, client key) pair.
func IdemKey(userID, clientKey string) string {
	return idemKeyPrefix + userID + ":" + clientKey
}
