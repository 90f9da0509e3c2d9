package model

import "time"

// Seat is one bookable place in the coach.  Seats are generated once from
// the configured row layout and are identified by ID everywhere inside the
// service; SeatNumber is only the display order shown to passengers.
//
// Fields:
//  ID         – stable identifier, equal to the seat number assigned at
//               generation so it survives a reset.
//  SeatNumber – 1..N, unique, display order.
//  RowNumber  – 1..R, row the seat belongs to.
//  IsBooked   – whether the seat is taken.
//  BookedBy   – user holding the seat; nil exactly when IsBooked is false.
//  UpdatedAt  – last state change.
type Seat struct {
	ID         uint64    `json:"id"`          // seats.id
	SeatNumber int       `json:"seat_number"` // seats.seat_number
	RowNumber  int       `json:"row_number"`  // seats.row_num
	IsBooked   bool      `json:"is_booked"`   // seats.is_booked
	BookedBy   *uint64   `json:"booked_by"`   // seats.booked_by (nullable)
	UpdatedAt  time.Time `json:"updated_at"`  // seats.updated_at
}

// Available reports whether the seat can be handed out.
func (s Seat) Available() bool { return !s.IsBooked }

// OwnedBy reports whether the seat is booked by userID.
func (s Seat) OwnedBy(userID uint64) bool {
	return s.IsBooked && s.BookedBy != nil && *s.BookedBy == userID
}
