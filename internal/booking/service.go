package booking

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"github.com/predator49/train-reservation/internal/allocator"
	"github.com/predator49/train-reservation/internal/layout"
	"github.com/predator49/train-reservation/internal/model"
	"github.com/predator49/train-reservation/internal/queue"
)

const defaultAutoAttempts = 3

// Result is a committed booking or cancellation.
type Result struct {
	Reference string       `json:"reference"`
	Seats     []model.Seat `json:"seats"`
}

// Service is the entry point used by the HTTP layer.
type Service struct {
	store        Store
	layout       layout.Config
	maxSeats     int
	autoAttempts int
	publisher    Publisher
	cache        SnapshotCache
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sends a SeatEvent after every commit.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithSnapshotCache serves seat map reads from c.
func WithSnapshotCache(c SnapshotCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithMaxSeatsPerBooking lowers the per-request seat limit. Values outside
// 1..allocator.MaxCount are ignored.
func WithMaxSeatsPerBooking(n int) Option {
	return func(s *Service) {
		if n >= 1 && n <= allocator.MaxCount {
			s.maxSeats = n
		}
	}
}

// WithAutoAttempts sets how many times BookCount re-allocates after losing
// a race.
func WithAutoAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.autoAttempts = n
		}
	}
}

// NewService wires the booking core to store using the seat layout cfg.
func NewService(store Store, cfg layout.Config, opts ...Option) *Service {
	s := &Service{
		store:        store,
		layout:       cfg,
		maxSeats:     allocator.MaxCount,
		autoAttempts: defaultAutoAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxSeatsPerBooking is the largest request the service accepts.
func (s *Service) MaxSeatsPerBooking() int { return s.maxSeats }

// Snapshot returns the full seat map ordered by seat number. An empty store
// is seeded from the layout first.
func (s *Service) Snapshot(ctx context.Context) ([]model.Seat, error) {
	if s.cache == nil {
		return s.load(ctx)
	}
	seats, ok, err := s.cache.Get(ctx)
	if err != nil {
		log.Printf("booking: snapshot cache read failed: %v", err)
	} else if ok {
		return seats, nil
	}

	// read the generation before the store so a commit in between is seen
	gen, genErr := s.cache.Generation(ctx)
	if genErr != nil {
		log.Printf("booking: snapshot cache generation failed: %v", genErr)
	}
	seats, err = s.load(ctx)
	if err != nil {
		return nil, err
	}
	if genErr == nil {
		if _, err := s.cache.Fill(ctx, gen, seats); err != nil {
			log.Printf("booking: snapshot cache write failed: %v", err)
		}
	}
	return seats, nil
}

// load reads the live seat map, bypassing the cache.
func (s *Service) load(ctx context.Context) ([]model.Seat, error) {
	seats, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, storageErr("load seats", err)
	}
	if len(seats) > 0 {
		return seats, nil
	}
	return s.seed(ctx)
}

func (s *Service) seed(ctx context.Context) ([]model.Seat, error) {
	fresh, err := layout.Generate(s.layout)
	if err != nil {
		return nil, err
	}
	var seats []model.Seat
	err = s.store.WithinTx(ctx, func(tx StoreTx) error {
		existing, err := tx.LoadAll(ctx)
		if err != nil {
			return storageErr("load seats", err)
		}
		if len(existing) > 0 {
			seats = existing
			return nil
		}
		if err := tx.BulkInsert(ctx, fresh); err != nil {
			return storageErr("insert seats", err)
		}
		seats, err = tx.LoadAll(ctx)
		if err != nil {
			return storageErr("load seats", err)
		}
		return nil
	})
	if errors.Is(err, ErrConflict) {
		// another request seeded first
		seats, err = s.store.LoadAll(ctx)
		if err != nil {
			return nil, storageErr("load seats", err)
		}
		return seats, nil
	}
	if err != nil {
		return nil, storageErr("seed seats", err)
	}
	log.Printf("booking: seeded %d seats", len(seats))
	return seats, nil
}

// Allocate proposes count seats from the current seat map. The proposal is
// not binding.
func (s *Service) Allocate(ctx context.Context, count int) (allocator.Proposal, error) {
	if count < 1 || count > s.maxSeats {
		return allocator.Proposal{}, allocator.ErrInvalidCount
	}
	seats, err := s.Snapshot(ctx)
	if err != nil {
		return allocator.Proposal{}, err
	}
	return allocator.Propose(seats, count)
}

// Book books seatIDs for userID.
func (s *Service) Book(ctx context.Context, userID uint64, seatIDs []uint64) (*Result, error) {
	tx, err := NewBooking(seatIDs, userID, s.maxSeats)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, tx, queue.SeatsBooked)
}

// BookCount allocates count seats against the live seat map and books them.
// A lost race re-allocates against fresh state a bounded number of times.
func (s *Service) BookCount(ctx context.Context, userID uint64, count int) (*Result, error) {
	if count < 1 || count > s.maxSeats {
		return nil, allocator.ErrInvalidCount
	}
	var lastErr error
	for attempt := 1; attempt <= s.autoAttempts; attempt++ {
		seats, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		ids, err := allocator.Allocate(seats, count)
		if err != nil {
			return nil, err
		}
		res, err := s.Book(ctx, userID, ids)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
		log.Printf("booking: auto allocation attempt %d for user %d lost a race: %v", attempt, userID, err)
		lastErr = err
	}
	return nil, lastErr
}

// Cancel releases seatIDs held by userID.
func (s *Service) Cancel(ctx context.Context, userID uint64, seatIDs []uint64) (*Result, error) {
	tx, err := NewCancellation(seatIDs, userID, s.maxSeats)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, tx, queue.SeatsCancelled)
}

// SeatsOf returns the seats booked by userID ordered by seat number.
func (s *Service) SeatsOf(ctx context.Context, userID uint64) ([]model.Seat, error) {
	seats, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	var mine []model.Seat
	for _, st := range seats {
		if st.OwnedBy(userID) {
			mine = append(mine, st)
		}
	}
	return mine, nil
}

// Reset regenerates the seat map on behalf of userID.
func (s *Service) Reset(ctx context.Context, userID uint64) ([]model.Seat, error) {
	seats, err := Reset(ctx, s.store, s.layout)
	if err != nil {
		return nil, err
	}
	log.Printf("booking: seat map reset by user %d", userID)
	s.afterCommit(ctx, queue.NewSeatEvent(queue.SeatsReset, uuid.NewString(), userID, nil))
	return seats, nil
}

func (s *Service) run(ctx context.Context, tx *Transaction, typ queue.SeatEventType) (*Result, error) {
	if err := tx.Execute(ctx, s.store); err != nil {
		return nil, err
	}
	res := &Result{Reference: uuid.NewString(), Seats: tx.Seats()}
	s.afterCommit(ctx, queue.NewSeatEvent(typ, res.Reference, tx.Requester(), res.Seats))
	return res, nil
}

// afterCommit drops the cached snapshot and publishes ev. Neither failure
// affects the committed result.
func (s *Service) afterCommit(ctx context.Context, ev queue.SeatEvent) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			log.Printf("booking: snapshot cache invalidate failed: %v", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, ev); err != nil {
			log.Printf("booking: publish %s failed: %v", ev.Type, err)
		}
	}
}
