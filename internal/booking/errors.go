package booking

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed requests. They are reported to the
	// caller verbatim.
	ErrValidation = errors.New("invalid booking request")
	// ErrRejected marks a transaction that failed a precondition.
	ErrRejected = errors.New("booking rejected")
	// ErrConflict marks a commit that lost a race with another writer.
	// The caller should refetch and retry.
	ErrConflict = errors.New("seat state changed, refresh and retry")
	// ErrStorage marks an underlying store failure.
	ErrStorage = errors.New("seat storage failure")
)

// ValidationError describes a malformed request.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid booking request: " + e.Reason }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Reason is the failing precondition of a rejected transaction.
type Reason string

const (
	ReasonNotFound      Reason = "not found"
	ReasonAlreadyBooked Reason = "already booked"
	ReasonNotOwned      Reason = "not owned"
	ReasonCountExceeded Reason = "count exceeded"
)

// RejectedError is returned when validation inside the transaction fails.
// SeatIDs lists the offending seats; SeatNumbers is filled when the seats
// exist.
type RejectedError struct {
	Reason      Reason
	SeatIDs     []uint64
	SeatNumbers []int
}

func (e *RejectedError) Error() string {
	if len(e.SeatIDs) == 0 {
		return fmt.Sprintf("booking rejected: %s", e.Reason)
	}
	return fmt.Sprintf("booking rejected: %s: seats %v", e.Reason, e.SeatIDs)
}

// Is matches ErrRejected. An already booked seat is also a conflict, and an
// oversized request is also a validation failure.
func (e *RejectedError) Is(target error) bool {
	switch target {
	case ErrRejected:
		return true
	case ErrConflict:
		return e.Reason == ReasonAlreadyBooked
	case ErrValidation:
		return e.Reason == ReasonCountExceeded
	}
	return false
}

// StorageError wraps a store failure. The transaction has been rolled back.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("seat storage: %s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// storageErr wraps err unless it already carries a booking classification.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrRejected) ||
		errors.Is(err, ErrStorage) || errors.Is(err, ErrValidation) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
