// Package booking validates and commits seat bookings, cancellations and
// resets against the seat store.
package booking

import (
	"context"
	"fmt"
	"sort"

	"github.com/predator49/train-reservation/internal/model"
)

// Kind distinguishes a booking from a cancellation.
type Kind int

const (
	KindBook Kind = iota
	KindCancel
)

func (k Kind) String() string {
	if k == KindCancel {
		return "cancel"
	}
	return "book"
}

// State of a transaction.
//
//	Proposed -> Validating -> Committed
//	                       -> Rejected
type State int

const (
	StateProposed State = iota
	StateValidating
	StateCommitted
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateProposed:
		return "proposed"
	case StateValidating:
		return "validating"
	case StateCommitted:
		return "committed"
	case StateRejected:
		return "rejected"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Transaction applies one booking or cancellation request. The seat ids
// were typically chosen from a stale snapshot, so Execute re-reads every
// seat inside the store transaction before writing.
type Transaction struct {
	kind      Kind
	seatIDs   []uint64
	requester uint64
	maxSeats  int

	state State
	err   error
	seats []model.Seat
}

// NewBooking proposes booking seatIDs for requester.
func NewBooking(seatIDs []uint64, requester uint64, maxSeats int) (*Transaction, error) {
	return newTransaction(KindBook, seatIDs, requester, maxSeats)
}

// NewCancellation proposes releasing seatIDs held by requester.
func NewCancellation(seatIDs []uint64, requester uint64, maxSeats int) (*Transaction, error) {
	return newTransaction(KindCancel, seatIDs, requester, maxSeats)
}

func newTransaction(kind Kind, seatIDs []uint64, requester uint64, maxSeats int) (*Transaction, error) {
	if requester == 0 {
		return nil, &ValidationError{Reason: "requester is required"}
	}
	if len(seatIDs) == 0 {
		return nil, &ValidationError{Reason: "seat_ids must not be empty"}
	}
	seen := make(map[uint64]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		if id == 0 {
			return nil, &ValidationError{Reason: "seat ids must be positive"}
		}
		if _, dup := seen[id]; dup {
			return nil, &ValidationError{Reason: fmt.Sprintf("duplicate seat id %d", id)}
		}
		seen[id] = struct{}{}
	}
	ids := append([]uint64(nil), seatIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return &Transaction{
		kind:      kind,
		seatIDs:   ids,
		requester: requester,
		maxSeats:  maxSeats,
		state:     StateProposed,
	}, nil
}

func (t *Transaction) Kind() Kind        { return t.kind }
func (t *Transaction) State() State      { return t.state }
func (t *Transaction) SeatIDs() []uint64 { return t.seatIDs }
func (t *Transaction) Requester() uint64 { return t.requester }

// Err is the reason the transaction was rejected, if it was.
func (t *Transaction) Err() error { return t.err }

// Seats returns the seats as written by a committed transaction, ordered by
// seat number.
func (t *Transaction) Seats() []model.Seat { return t.seats }

// Execute validates the request against live state and commits it. Either
// every seat transitions or none does. On failure the transaction is
// Rejected and the error is a *RejectedError, ErrConflict or a
// *StorageError.
func (t *Transaction) Execute(ctx context.Context, store Store) error {
	if t.state != StateProposed {
		return fmt.Errorf("booking: %s transaction already %s", t.kind, t.state)
	}
	t.state = StateValidating

	if t.maxSeats > 0 && len(t.seatIDs) > t.maxSeats {
		return t.reject(&RejectedError{Reason: ReasonCountExceeded, SeatIDs: t.seatIDs})
	}

	change := SeatChange{}
	if t.kind == KindBook {
		by := t.requester
		change = SeatChange{IsBooked: true, BookedBy: &by}
	}

	var written []model.Seat
	err := store.WithinTx(ctx, func(tx StoreTx) error {
		found, err := tx.FindByIDs(ctx, t.seatIDs)
		if err != nil {
			return storageErr("find seats", err)
		}
		if rej := t.check(found); rej != nil {
			return rej
		}
		if err := tx.UpdateMany(ctx, t.seatIDs, change); err != nil {
			return storageErr("update seats", err)
		}
		written = applyChange(found, change)
		return nil
	})
	if err != nil {
		return t.reject(storageErr("commit", err))
	}

	t.state = StateCommitted
	t.seats = written
	return nil
}

func (t *Transaction) reject(err error) error {
	t.state = StateRejected
	t.err = err
	return err
}

// check returns the first failing precondition: missing seats, then seats
// already booked (book) or not held by the requester (cancel).
func (t *Transaction) check(found []model.Seat) *RejectedError {
	byID := make(map[uint64]model.Seat, len(found))
	for _, s := range found {
		byID[s.ID] = s
	}

	var missing []uint64
	for _, id := range t.seatIDs {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return &RejectedError{Reason: ReasonNotFound, SeatIDs: missing}
	}

	rej := &RejectedError{}
	for _, id := range t.seatIDs {
		s := byID[id]
		switch t.kind {
		case KindBook:
			if s.IsBooked {
				rej.Reason = ReasonAlreadyBooked
				rej.SeatIDs = append(rej.SeatIDs, s.ID)
				rej.SeatNumbers = append(rej.SeatNumbers, s.SeatNumber)
			}
		case KindCancel:
			if !s.OwnedBy(t.requester) {
				rej.Reason = ReasonNotOwned
				rej.SeatIDs = append(rej.SeatIDs, s.ID)
				rej.SeatNumbers = append(rej.SeatNumbers, s.SeatNumber)
			}
		}
	}
	if len(rej.SeatIDs) > 0 {
		return rej
	}
	return nil
}

func applyChange(seats []model.Seat, change SeatChange) []model.Seat {
	out := make([]model.Seat, len(seats))
	for i, s := range seats {
		s.IsBooked = change.IsBooked
		s.BookedBy = nil
		if change.BookedBy != nil {
			by := *change.BookedBy
			s.BookedBy = &by
		}
		out[i] = s
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeatNumber < out[j].SeatNumber })
	return out
}
