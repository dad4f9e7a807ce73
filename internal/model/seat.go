package model

// Seat status values.  LOCKED is declared in the schema enum but is
// never written to the database: it is a computed view produced by the
// read path when an AVAILABLE seat has a live lock key in the
// coordination store.  The only persisted transition is
// AVAILABLE → SOLD; a SOLD seat never becomes AVAILABLE again.
const (
	SeatAvailable = "AVAILABLE"
	SeatLocked    = "LOCKED"
	SeatSold      = "SOLD"
)

// Seat describes a physical seat in the room of a session.  Seats are
// uniquely identified by their session, row and number.
//
// Fields:
//  ID        – primary key identifier (UUID string).
//  SessionID – session to which this seat belongs.
//  Row       – letter or string designating the row.
//  Number    – number of the seat within the row.
//  Status    – persisted state (AVAILABLE or SOLD; LOCKED is computed).
type Seat struct {
	ID        string `json:"id"`         // seats.id
	SessionID string `json:"session_id"` // seats.session_id
	Row       string `json:"row"`        // seats.row
	Number    uint32 `json:"number"`     // seats.number
	Status    string `json:"status"`     // seats.status
}
