package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/predator49/train-reservation/internal/booking"
	"github.com/predator49/train-reservation/internal/model"
)

// SeatRepo is the MySQL implementation of booking.Store over the seats
// table. seats.id is assigned by the layout generator, not AUTO_INCREMENT,
// so ids survive a reset.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

var _ booking.Store = (*SeatRepo)(nil)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const seatColumns = "id, seat_number, row_num, is_booked, booked_by, updated_at"

// LoadAll returns every seat ordered by seat number.
func (r *SeatRepo) LoadAll(ctx context.Context) ([]model.Seat, error) {
	return loadAll(ctx, r.db)
}

// WithinTx runs fn in a REPEATABLE READ transaction. Seats read through
// FindByIDs are locked until commit, which serializes overlapping
// bookings.
func (r *SeatRepo) WithinTx(ctx context.Context, fn func(tx booking.StoreTx) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&seatTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		if isContention(err) {
			return booking.ErrConflict
		}
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

type seatTx struct {
	tx *sql.Tx
}

func (t *seatTx) LoadAll(ctx context.Context) ([]model.Seat, error) {
	return loadAll(ctx, t.tx)
}

func (t *seatTx) FindByIDs(ctx context.Context, ids []uint64) ([]model.Seat, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := "SELECT " + seatColumns + " FROM seats WHERE id IN (" + placeholders(len(ids)) +
		") ORDER BY id FOR UPDATE"
	rows, err := t.tx.QueryContext(ctx, q, idArgs(ids)...)
	if err != nil {
		if isContention(err) {
			return nil, booking.ErrConflict
		}
		return nil, err
	}
	return scanSeats(rows)
}

// UpdateMany only touches seats still in the opposite booking state. If
// fewer rows change than requested, another writer got there first and
// the whole transaction is abandoned.
func (t *seatTx) UpdateMany(ctx context.Context, ids []uint64, change booking.SeatChange) error {
	if len(ids) == 0 {
		return nil
	}
	var bookedBy sql.NullInt64
	if change.BookedBy != nil {
		bookedBy = sql.NullInt64{Int64: int64(*change.BookedBy), Valid: true}
	}
	guard := 0
	if !change.IsBooked {
		guard = 1
	}
	q := "UPDATE seats SET is_booked = ?, booked_by = ?, updated_at = CURRENT_TIMESTAMP WHERE is_booked = ? AND id IN (" +
		placeholders(len(ids)) + ")"
	args := append([]any{change.IsBooked, bookedBy, guard}, idArgs(ids)...)
	res, err := t.tx.ExecContext(ctx, q, args...)
	if err != nil {
		if isContention(err) {
			return booking.ErrConflict
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != int64(len(ids)) {
		return booking.ErrConflict
	}
	return nil
}

// DeleteAll removes every seat. DELETE rather than TRUNCATE keeps the
// statement inside the transaction.
func (t *seatTx) DeleteAll(ctx context.Context) error {
	_, err := t.tx.ExecContext(ctx, "DELETE FROM seats")
	return err
}

// BulkInsert inserts seats in a single statement. A duplicate id means a
// concurrent seeding won and is reported as booking.ErrConflict.
func (t *seatTx) BulkInsert(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("INSERT INTO seats (id, seat_number, row_num, is_booked, booked_by) VALUES ")
	args := make([]any, 0, len(seats)*5)
	for i, s := range seats {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?, ?, ?)")
		var bookedBy sql.NullInt64
		if s.BookedBy != nil {
			bookedBy = sql.NullInt64{Int64: int64(*s.BookedBy), Valid: true}
		}
		args = append(args, s.ID, s.SeatNumber, s.RowNumber, s.IsBooked, bookedBy)
	}
	if _, err := t.tx.ExecContext(ctx, b.String(), args...); err != nil {
		if isDuplicate(err) || isContention(err) {
			return booking.ErrConflict
		}
		return err
	}
	return nil
}

func loadAll(ctx context.Context, q queryer) ([]model.Seat, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+seatColumns+" FROM seats ORDER BY seat_number")
	if err != nil {
		return nil, err
	}
	return scanSeats(rows)
}

func scanSeats(rows *sql.Rows) ([]model.Seat, error) {
	defer rows.Close()
	var out []model.Seat
	for rows.Next() {
		var (
			s        model.Seat
			bookedBy sql.NullInt64
		)
		if err := rows.Scan(&s.ID, &s.SeatNumber, &s.RowNumber, &s.IsBooked, &bookedBy, &s.UpdatedAt); err != nil {
			return nil, err
		}
		if bookedBy.Valid {
			by := uint64(bookedBy.Int64)
			s.BookedBy = &by
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func idArgs(ids []uint64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
