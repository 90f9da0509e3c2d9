package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/predator49/train-reservation/internal/model"
)

// memStore is an in-memory Store. Transactions are serialized and work on a
// private copy that replaces the live map only when fn succeeds.
type memStore struct {
	mu    sync.Mutex
	seats map[uint64]model.Seat

	// failures injected into the next transactions
	findErr   error
	updateErr error
	insertErr error

	// beforeTx runs before each transaction takes the lock
	beforeTx func()
	// afterLoad runs once LoadAll has read the map, before it returns
	afterLoad func()

	txCount int
}

func newMemStore(seats ...model.Seat) *memStore {
	m := &memStore{seats: map[uint64]model.Seat{}}
	for _, s := range seats {
		m.seats[s.ID] = s
	}
	return m
}

func (m *memStore) LoadAll(ctx context.Context) ([]model.Seat, error) {
	m.mu.Lock()
	seats := sorted(m.seats)
	hook := m.afterLoad
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	return seats, nil
}

func (m *memStore) WithinTx(ctx context.Context, fn func(tx StoreTx) error) error {
	if m.beforeTx != nil {
		m.beforeTx()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCount++

	tx := &memTx{store: m, seats: make(map[uint64]model.Seat, len(m.seats))}
	for id, s := range m.seats {
		tx.seats[id] = s
	}
	if err := fn(tx); err != nil {
		return err
	}
	m.seats = tx.seats
	return nil
}

// get returns a copy of one live seat.
func (m *memStore) get(id uint64) model.Seat {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seats[id]
}

func (m *memStore) transactions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.txCount
}

type memTx struct {
	store *memStore
	seats map[uint64]model.Seat
}

func (t *memTx) LoadAll(ctx context.Context) ([]model.Seat, error) {
	return sorted(t.seats), nil
}

func (t *memTx) FindByIDs(ctx context.Context, ids []uint64) ([]model.Seat, error) {
	if t.store.findErr != nil {
		return nil, t.store.findErr
	}
	var out []model.Seat
	for _, id := range ids {
		if s, ok := t.seats[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (t *memTx) UpdateMany(ctx context.Context, ids []uint64, change SeatChange) error {
	if t.store.updateErr != nil {
		return t.store.updateErr
	}
	for _, id := range ids {
		s, ok := t.seats[id]
		if !ok || s.IsBooked == change.IsBooked {
			return ErrConflict
		}
		s.IsBooked = change.IsBooked
		s.BookedBy = change.BookedBy
		t.seats[id] = s
	}
	return nil
}

func (t *memTx) DeleteAll(ctx context.Context) error {
	t.seats = map[uint64]model.Seat{}
	return nil
}

func (t *memTx) BulkInsert(ctx context.Context, seats []model.Seat) error {
	if t.store.insertErr != nil {
		return t.store.insertErr
	}
	now := time.Now().UTC().Truncate(time.Second)
	for _, s := range seats {
		s.UpdatedAt = now
		if _, dup := t.seats[s.ID]; dup {
			return fmt.Errorf("duplicate seat %d: %w", s.ID, ErrConflict)
		}
		t.seats[s.ID] = s
	}
	return nil
}

func sorted(m map[uint64]model.Seat) []model.Seat {
	out := make([]model.Seat, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeatNumber < out[j].SeatNumber })
	return out
}

var errDiskGone = errors.New("disk gone")
