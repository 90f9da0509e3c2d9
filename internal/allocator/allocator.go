// Package allocator picks which seats to hand out for a requested count.
//
// The search is a greedy heuristic tried in priority order:
//
//  1. the first run of consecutive free seats inside a single row,
//     lowest row first, lowest starting seat number first;
//  2. the first such run in the merged seats of a row and the row after it;
//  3. the best scoring window over all free seats sorted by seat number.
//
// It is not globally optimal. A different scan order can find groupings
// this one misses, so a step 3 result is a good effort, not the best
// possible arrangement. Proposals are advisory; the booking transaction
// re-checks availability before anything is written.
package allocator

import (
	"errors"
	"sort"

	"github.com/predator49/train-reservation/internal/model"
)

// MaxCount is the largest number of seats one request may ask for.
const MaxCount = 7

var (
	ErrInvalidCount = errors.New("requested count must be between 1 and 7")
	ErrNotAvailable = errors.New("not enough seats available")
)

// Strategy names the step that produced a proposal.
type Strategy string

const (
	StrategySameRow  Strategy = "same_row"
	StrategyCrossRow Strategy = "adjacent_rows"
	StrategyCluster  Strategy = "best_effort"
)

// Scoring weights for the best-effort window search.
const (
	weightRowStreak = 20000
	weightAdjacent  = 10000
	penaltyGap      = 5000
	penaltySpread   = 2000
	penaltyRow      = 15000
	bonusCleanRows  = 50000
)

// Proposal is the allocator's suggestion. SeatIDs and SeatNumbers are
// parallel and ordered by seat number.
type Proposal struct {
	SeatIDs     []uint64 `json:"seat_ids"`
	SeatNumbers []int    `json:"seat_numbers"`
	Strategy    Strategy `json:"strategy"`
}

// Allocate returns the ids of count free seats chosen from snapshot.
func Allocate(snapshot []model.Seat, count int) ([]uint64, error) {
	p, err := Propose(snapshot, count)
	if err != nil {
		return nil, err
	}
	return p.SeatIDs, nil
}

// Propose runs the allocation steps and reports which one succeeded.
// The snapshot is not modified.
func Propose(snapshot []model.Seat, count int) (Proposal, error) {
	if count < 1 || count > MaxCount {
		return Proposal{}, ErrInvalidCount
	}

	free := make([]model.Seat, 0, len(snapshot))
	bookedInRow := map[int]int{}
	for _, s := range snapshot {
		if s.IsBooked {
			bookedInRow[s.RowNumber]++
			continue
		}
		free = append(free, s)
	}
	if len(free) < count {
		return Proposal{}, ErrNotAvailable
	}
	sortByNumber(free)

	rows, byRow := groupRows(free)

	for _, r := range rows {
		if run := firstRun(byRow[r], count); run != nil {
			return newProposal(run, StrategySameRow), nil
		}
	}

	for i := 0; i+1 < len(rows); i++ {
		merged := make([]model.Seat, 0, len(byRow[rows[i]])+len(byRow[rows[i+1]]))
		merged = append(merged, byRow[rows[i]]...)
		merged = append(merged, byRow[rows[i+1]]...)
		sortByNumber(merged)
		if run := firstRun(merged, count); run != nil {
			return newProposal(run, StrategyCrossRow), nil
		}
	}

	best, bestScore := -1, 0
	for start := 0; start+count <= len(free); start++ {
		sc := score(free[start:start+count], bookedInRow)
		if best < 0 || sc > bestScore {
			best, bestScore = start, sc
		}
	}
	return newProposal(free[best:best+count], StrategyCluster), nil
}

// firstRun returns the first count seats in seats (sorted by number) whose
// seat numbers are consecutive, or nil.
func firstRun(seats []model.Seat, count int) []model.Seat {
	start := 0
	for i := range seats {
		if i > 0 && seats[i].SeatNumber != seats[i-1].SeatNumber+1 {
			start = i
		}
		if i-start+1 == count {
			return seats[start : i+1]
		}
	}
	return nil
}

func score(window []model.Seat, bookedInRow map[int]int) int {
	perRow := map[int][]int{}
	for _, s := range window {
		perRow[s.RowNumber] = append(perRow[s.RowNumber], s.SeatNumber)
	}

	longest := 0
	clean := true
	for row, nums := range perRow {
		if n := longestStreak(nums); n > longest {
			longest = n
		}
		if bookedInRow[row] > 0 {
			clean = false
		}
	}

	sc := weightRowStreak * longest
	for i := 1; i < len(window); i++ {
		gap := window[i].SeatNumber - window[i-1].SeatNumber
		if gap == 1 {
			sc += weightAdjacent
		} else {
			sc -= penaltyGap * gap
		}
	}
	sc -= penaltySpread * (window[len(window)-1].SeatNumber - window[0].SeatNumber)
	sc -= penaltyRow * (len(perRow) - 1)
	if clean {
		sc += bonusCleanRows
	}
	return sc
}

// longestStreak expects nums in ascending order.
func longestStreak(nums []int) int {
	best, cur := 0, 0
	for i, n := range nums {
		if i > 0 && n == nums[i-1]+1 {
			cur++
		} else {
			cur = 1
		}
		if cur > best {
			best = cur
		}
	}
	return best
}

func groupRows(seats []model.Seat) ([]int, map[int][]model.Seat) {
	byRow := map[int][]model.Seat{}
	var rows []int
	for _, s := range seats {
		if _, ok := byRow[s.RowNumber]; !ok {
			rows = append(rows, s.RowNumber)
		}
		byRow[s.RowNumber] = append(byRow[s.RowNumber], s)
	}
	sort.Ints(rows)
	return rows, byRow
}

func sortByNumber(seats []model.Seat) {
	sort.Slice(seats, func(i, j int) bool { return seats[i].SeatNumber < seats[j].SeatNumber })
}

func newProposal(seats []model.Seat, st Strategy) Proposal {
	p := Proposal{
		SeatIDs:     make([]uint64, len(seats)),
		SeatNumbers: make([]int, len(seats)),
		Strategy:    st,
	}
	for i, s := range seats {
		p.SeatIDs[i] = s.ID
		p.SeatNumbers[i] = s.SeatNumber
	}
	return p
}
