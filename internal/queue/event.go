// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/predator49/train-reservation/internal/model"
)

// SeatEventsQueue is the default durable queue for seat events.
const SeatEventsQueue = "seats.events"

// SeatEventType is the kind of committed change an event describes.
type SeatEventType string

const (
	SeatsBooked    SeatEventType = "seats.booked"
	SeatsCancelled SeatEventType = "seats.cancelled"
	SeatsReset     SeatEventType = "seats.reset"
)

// SeatEvent is published after a booking, cancellation or reset commits.
// It carries enough for downstream consumers to audit the change without
// querying the seats table.
type SeatEvent struct {
	EventID     string        `json:"event_id"`
	Type        SeatEventType `json:"type"`
	Reference   string        `json:"reference"`
	UserID      uint64        `json:"user_id"`
	SeatIDs     []uint64      `json:"seat_ids"`
	SeatNumbers []int         `json:"seat_numbers"`
	OccurredAt  string        `json:"occurred_at"`
}

// NewSeatEvent builds an event for the given seats, stamped with a fresh
// event id and the current UTC time.
func NewSeatEvent(typ SeatEventType, reference string, userID uint64, seats []model.Seat) SeatEvent {
	ev := SeatEvent{
		EventID:     uuid.NewString(),
		Type:        typ,
		Reference:   reference,
		UserID:      userID,
		SeatIDs:     make([]uint64, 0, len(seats)),
		SeatNumbers: make([]int, 0, len(seats)),
		OccurredAt:  time.Now().UTC().Format(time.RFC3339),
	}
	for _, s := range seats {
		ev.SeatIDs = append(ev.SeatIDs, s.ID)
		ev.SeatNumbers = append(ev.SeatNumbers, s.SeatNumber)
	}
	return ev
}
