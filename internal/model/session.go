package model

import "time"

// Session describes a single screening of a movie in a room.  Every
// seat sold by the system belongs to exactly one session, and the
// session's price is the amount charged when a reservation for one of
// its seats is confirmed.
//
// Fields:
//  ID        – primary key identifier (UUID string).
//  MovieID   – identifier of the movie being screened.
//  Room      – name or number of the room.
//  Price     – ticket price as a decimal string (numeric(10,2)), ≥ 1.
//  StartsAt  – when the screening starts; must be in the future at creation.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Session struct {
	ID        string    `json:"id"`         // sessions.id
	MovieID   string    `json:"movie_id"`   // sessions.movie_id
	Room      string    `json:"room"`       // sessions.room
	Price     string    `json:"price"`      // sessions.price
	StartsAt  time.Time `json:"starts_at"`  // sessions.starts_at
	CreatedAt time.Time `json:"created_at"` // sessions.created_at
	UpdatedAt time.Time `json:"updated_at"` // sessions.updated_at
}
