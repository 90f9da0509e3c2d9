package booking

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/predator49/train-reservation/internal/allocator"
	"github.com/predator49/train-reservation/internal/model"
	"github.com/predator49/train-reservation/internal/queue"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, ev queue.SeatEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context) ([]model.Seat, bool, error) {
	args := m.Called(ctx)
	seats, _ := args.Get(0).([]model.Seat)
	return seats, args.Bool(1), args.Error(2)
}

func (m *mockCache) Generation(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCache) Fill(ctx context.Context, gen int64, seats []model.Seat) (bool, error) {
	args := m.Called(ctx, gen, seats)
	return args.Bool(0), args.Error(1)
}

func (m *mockCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func numbers(seats []model.Seat) []int {
	out := make([]int, len(seats))
	for i, s := range seats {
		out[i] = s.SeatNumber
	}
	return out
}

func TestSnapshotSeedsEmptyStore(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, testLayout)

	seats, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, seats, 80)
	for _, s := range seats {
		assert.False(t, s.IsBooked)
		assert.False(t, s.UpdatedAt.IsZero())
	}

	again, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, seats, again)
	assert.Equal(t, 1, store.transactions())
}

func TestSnapshotServedFromCache(t *testing.T) {
	cached := []model.Seat{{ID: 1, SeatNumber: 1, RowNumber: 1}}
	cache := new(mockCache)
	cache.On("Get", mock.Anything).Return(cached, true, nil).Once()

	store := newMemStore()
	svc := NewService(store, testLayout, WithSnapshotCache(cache))

	seats, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cached, seats)
	assert.Equal(t, 0, store.transactions())
	cache.AssertExpectations(t)
}

func TestSnapshotFillsCacheOnMiss(t *testing.T) {
	store := seededStore(t)
	cache := new(mockCache)
	cache.On("Get", mock.Anything).Return(nil, false, nil).Once()
	cache.On("Generation", mock.Anything).Return(int64(3), nil).Once()
	cache.On("Fill", mock.Anything, int64(3), mock.MatchedBy(func(s []model.Seat) bool { return len(s) == 80 })).Return(true, nil).Once()

	svc := NewService(store, testLayout, WithSnapshotCache(cache))
	_, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	cache.AssertExpectations(t)
}

func TestBookInvalidatesCacheAndPublishes(t *testing.T) {
	store := seededStore(t)
	cache := new(mockCache)
	cache.On("Invalidate", mock.Anything).Return(nil).Once()
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(ev queue.SeatEvent) bool {
		return ev.Type == queue.SeatsBooked && ev.UserID == alice &&
			assert.ObjectsAreEqual([]uint64{4, 5}, ev.SeatIDs) && ev.EventID != ""
	})).Return(nil).Once()

	svc := NewService(store, testLayout, WithSnapshotCache(cache), WithPublisher(pub))
	res, err := svc.Book(context.Background(), alice, []uint64{5, 4})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Reference)
	assert.Equal(t, []int{4, 5}, numbers(res.Seats))

	cache.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestPublishFailureDoesNotFailBooking(t *testing.T) {
	store := seededStore(t)
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	svc := NewService(store, testLayout, WithPublisher(pub))
	_, err := svc.Book(context.Background(), alice, []uint64{1})
	require.NoError(t, err)
	assert.True(t, store.get(1).OwnedBy(alice))
}

func TestRejectedBookingPublishesNothing(t *testing.T) {
	store := seededStore(t)
	bookAs(t, store, bob, 1)
	pub := new(mockPublisher)

	svc := NewService(store, testLayout, WithPublisher(pub))
	_, err := svc.Book(context.Background(), alice, []uint64{1})
	assert.ErrorIs(t, err, ErrConflict)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestBookCountScenario(t *testing.T) {
	svc := NewService(newMemStore(), testLayout)
	ctx := context.Background()

	first, err := svc.BookCount(ctx, alice, 7)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, numbers(first.Seats))

	second, err := svc.BookCount(ctx, bob, 7)
	require.NoError(t, err)
	assert.Equal(t, []int{8, 9, 10, 11, 12, 13, 14}, numbers(second.Seats))

	third, err := svc.BookCount(ctx, alice, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{15, 16, 17}, numbers(third.Seats))

	mine, err := svc.SeatsOf(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, mine, 10)
}

func TestBookCountRetriesAfterLostRace(t *testing.T) {
	store := seededStore(t)
	raced := false
	store.beforeTx = func() {
		if raced {
			return
		}
		raced = true
		store.beforeTx = nil
		bookAs(t, store, bob, 1)
	}

	svc := NewService(store, testLayout)
	res, err := svc.BookCount(context.Background(), alice, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, numbers(res.Seats))
	assert.True(t, store.get(1).OwnedBy(bob))
}

func TestBookCountGivesUpAfterAttempts(t *testing.T) {
	store := seededStore(t)
	store.updateErr = ErrConflict

	svc := NewService(store, testLayout, WithAutoAttempts(2))
	_, err := svc.BookCount(context.Background(), alice, 2)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 2, store.transactions())
}

func TestCountLimits(t *testing.T) {
	svc := NewService(seededStore(t), testLayout, WithMaxSeatsPerBooking(4))
	assert.Equal(t, 4, svc.MaxSeatsPerBooking())

	_, err := svc.Allocate(context.Background(), 5)
	assert.ErrorIs(t, err, allocator.ErrInvalidCount)
	_, err = svc.BookCount(context.Background(), alice, 0)
	assert.ErrorIs(t, err, allocator.ErrInvalidCount)

	_, err = svc.Book(context.Background(), alice, []uint64{1, 2, 3, 4, 5})
	var rej *RejectedError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, ReasonCountExceeded, rej.Reason)

	p, err := svc.Allocate(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, p.SeatNumbers)
}

func TestCancelNotOwnedThroughService(t *testing.T) {
	svc := NewService(seededStore(t), testLayout)
	ctx := context.Background()
	_, err := svc.Book(ctx, bob, []uint64{30})
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, alice, []uint64{30})
	var rej *RejectedError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, ReasonNotOwned, rej.Reason)

	res, err := svc.Cancel(ctx, bob, []uint64{30})
	require.NoError(t, err)
	assert.False(t, res.Seats[0].IsBooked)
}

func TestResetRoundTrip(t *testing.T) {
	store := seededStore(t)
	bookAs(t, store, alice, 1, 2, 3)
	bookAs(t, store, bob, 40)

	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(ev queue.SeatEvent) bool {
		return ev.Type == queue.SeatsReset && ev.UserID == bob
	})).Return(nil).Once()

	svc := NewService(store, testLayout, WithPublisher(pub))
	seats, err := svc.Reset(context.Background(), bob)
	require.NoError(t, err)
	assert.Len(t, seats, 80)
	for _, s := range seats {
		assert.False(t, s.UpdatedAt.IsZero(), "seat %d has no stored timestamp", s.SeatNumber)
	}

	loaded, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 80)
	assert.Equal(t, loaded, seats)
	for i, s := range loaded {
		assert.Equal(t, i+1, s.SeatNumber)
		assert.False(t, s.IsBooked)
		assert.Nil(t, s.BookedBy)
	}
	pub.AssertExpectations(t)
}

func TestResetFailureKeepsPreviousState(t *testing.T) {
	store := seededStore(t)
	bookAs(t, store, alice, 7)
	store.insertErr = errDiskGone

	_, err := Reset(context.Background(), store, testLayout)
	assert.ErrorIs(t, err, ErrStorage)

	loaded, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, loaded, 80)
	assert.True(t, store.get(7).OwnedBy(alice))
}

// genCache is a SnapshotCache with the same generation rules as the Redis
// implementation.
type genCache struct {
	mu    sync.Mutex
	gen   int64
	seats []model.Seat
	ok    bool
}

func (c *genCache) Get(ctx context.Context) ([]model.Seat, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seats, c.ok, nil
}

func (c *genCache) Generation(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, nil
}

func (c *genCache) Fill(ctx context.Context, gen int64, seats []model.Seat) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false, nil
	}
	c.seats, c.ok = seats, true
	return true, nil
}

func (c *genCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.seats, c.ok = nil, false
	return nil
}

func TestSnapshotNotCachedAcrossConcurrentCommit(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	cache := &genCache{}
	svc := NewService(store, testLayout, WithSnapshotCache(cache))

	var once sync.Once
	store.afterLoad = func() {
		once.Do(func() {
			_, err := svc.Book(ctx, alice, []uint64{1})
			require.NoError(t, err)
		})
	}

	// this read loaded the map before the booking committed
	stale, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.False(t, stale[0].IsBooked)

	_, cached, _ := cache.Get(ctx)
	assert.False(t, cached, "pre-commit map must not be cached")

	fresh, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, fresh[0].OwnedBy(alice))

	again, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, fresh, again)
}

func TestSnapshotSkipsFillWhenGenerationUnreadable(t *testing.T) {
	store := seededStore(t)
	cache := new(mockCache)
	cache.On("Get", mock.Anything).Return(nil, false, nil).Once()
	cache.On("Generation", mock.Anything).Return(int64(0), errors.New("redis down")).Once()

	svc := NewService(store, testLayout, WithSnapshotCache(cache))
	seats, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, seats, 80)
	cache.AssertNotCalled(t, "Fill", mock.Anything, mock.Anything, mock.Anything)
	cache.AssertExpectations(t)
}
