package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/predator49/train-reservation/internal/allocator"
	"github.com/predator49/train-reservation/internal/booking"
	"github.com/predator49/train-reservation/internal/model"
)

// SeatBooker is implemented by *booking.Service.
type SeatBooker interface {
	Snapshot(ctx context.Context) ([]model.Seat, error)
	Allocate(ctx context.Context, count int) (allocator.Proposal, error)
	Book(ctx context.Context, userID uint64, seatIDs []uint64) (*booking.Result, error)
	BookCount(ctx context.Context, userID uint64, count int) (*booking.Result, error)
	Cancel(ctx context.Context, userID uint64, seatIDs []uint64) (*booking.Result, error)
	SeatsOf(ctx context.Context, userID uint64) ([]model.Seat, error)
	Reset(ctx context.Context, userID uint64) ([]model.Seat, error)
	MaxSeatsPerBooking() int
}

// SeatHandler serves the seat map and booking endpoints. Every route sits
// behind JWTAuth.
type SeatHandler struct {
	Seats SeatBooker
}

func NewSeatHandler(s SeatBooker) *SeatHandler {
	return &SeatHandler{Seats: s}
}

type seatIDsReq struct {
	SeatIDs []uint64 `json:"seat_ids"`
}

type countReq struct {
	Count int `json:"count"`
}

type rowView struct {
	RowNumber int          `json:"row_number"`
	Seats     []model.Seat `json:"seats"`
}

// List handles GET /v1/seats.
func (h *SeatHandler) List(c echo.Context) error {
	seats, err := h.Seats.Snapshot(c.Request().Context())
	if err != nil {
		return writeBookingError(c, err)
	}
	available := 0
	for _, s := range seats {
		if s.Available() {
			available++
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"count":     len(seats),
		"available": available,
		"items":     nonNil(seats),
	})
}

// Layout handles GET /v1/seats/layout: the seat map grouped by row.
func (h *SeatHandler) Layout(c echo.Context) error {
	seats, err := h.Seats.Snapshot(c.Request().Context())
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"max_per_booking": h.Seats.MaxSeatsPerBooking(),
		"rows":            groupByRow(seats),
	})
}

// Allocate handles GET /v1/seats/allocate?count=N. The proposal does not
// reserve anything.
func (h *SeatHandler) Allocate(c echo.Context) error {
	count, err := strconv.Atoi(c.QueryParam("count"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "count must be an integer"})
	}
	p, err := h.Seats.Allocate(c.Request().Context(), count)
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Book handles POST /v1/seats/book.
func (h *SeatHandler) Book(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req seatIDsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	res, err := h.Seats.Book(c.Request().Context(), userID, req.SeatIDs)
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// BookAuto handles POST /v1/seats/book/auto: allocate and book count seats
// in one request.
func (h *SeatHandler) BookAuto(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req countReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	res, err := h.Seats.BookCount(c.Request().Context(), userID, req.Count)
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Cancel handles POST /v1/seats/cancel.
func (h *SeatHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req seatIDsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	res, err := h.Seats.Cancel(c.Request().Context(), userID, req.SeatIDs)
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Mine handles GET /v1/seats/mine.
func (h *SeatHandler) Mine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	seats, err := h.Seats.SeatsOf(c.Request().Context(), userID)
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"count": len(seats),
		"rows":  groupByRow(seats),
	})
}

// Reset handles POST /v1/seats/reset.
func (h *SeatHandler) Reset(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	seats, err := h.Seats.Reset(c.Request().Context(), userID)
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"count": len(seats),
		"items": nonNil(seats),
	})
}

// groupByRow expects seats ordered by seat number.
func groupByRow(seats []model.Seat) []rowView {
	rows := []rowView{}
	for _, s := range seats {
		if n := len(rows); n == 0 || rows[n-1].RowNumber != s.RowNumber {
			rows = append(rows, rowView{RowNumber: s.RowNumber})
		}
		rows[len(rows)-1].Seats = append(rows[len(rows)-1].Seats, s)
	}
	return rows
}

func nonNil(seats []model.Seat) []model.Seat {
	if seats == nil {
		return []model.Seat{}
	}
	return seats
}
