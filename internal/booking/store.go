package booking

import (
	"context"

	"github.com/predator49/train-reservation/internal/model"
	"github.com/predator49/train-reservation/internal/queue"
)

// SeatChange is the field update applied to every seat of a commit.
type SeatChange struct {
	IsBooked bool
	BookedBy *uint64
}

// Store is the persistent seat map.
//
// WithinTx runs fn inside one transaction at an isolation level that
// prevents two overlapping callers from both committing. The transaction
// commits when fn returns nil and rolls back otherwise; fn's error is
// returned unchanged.
type Store interface {
	LoadAll(ctx context.Context) ([]model.Seat, error)
	WithinTx(ctx context.Context, fn func(tx StoreTx) error) error
}

// StoreTx is the view of the seat map inside an active transaction.
type StoreTx interface {
	// LoadAll returns every seat ordered by seat number.
	LoadAll(ctx context.Context) ([]model.Seat, error)
	// FindByIDs returns the existing seats among ids, locking them for the
	// rest of the transaction. Missing ids are simply absent.
	FindByIDs(ctx context.Context, ids []uint64) ([]model.Seat, error)
	// UpdateMany applies change to every id or returns an error. A store
	// that detects a concurrent change returns ErrConflict.
	UpdateMany(ctx context.Context, ids []uint64, change SeatChange) error
	DeleteAll(ctx context.Context) error
	BulkInsert(ctx context.Context, seats []model.Seat) error
}

// Publisher receives an event after every commit.
type Publisher interface {
	Publish(ctx context.Context, ev queue.SeatEvent) error
}

// SnapshotCache holds a recent copy of the seat map for reads. It is never
// consulted by a transaction.
//
// Invalidate advances the generation. Fill stores seats only while the
// generation still equals gen, so a copy loaded before a commit is never
// written back after that commit's Invalidate.
type SnapshotCache interface {
	Get(ctx context.Context) ([]model.Seat, bool, error)
	Generation(ctx context.Context) (int64, error)
	Fill(ctx context.Context, gen int64, seats []model.Seat) (bool, error)
	Invalidate(ctx context.Context) error
}
