package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/predator49/train-reservation/internal/allocator"
	"github.com/predator49/train-reservation/internal/booking"
	"github.com/predator49/train-reservation/internal/layout"
	"github.com/predator49/train-reservation/internal/middleware"
)

// rejectionStatus maps a rejection reason to its HTTP status.
var rejectionStatus = map[booking.Reason]int{
	booking.ReasonNotFound:      http.StatusNotFound,
	booking.ReasonAlreadyBooked: http.StatusConflict,
	booking.ReasonNotOwned:      http.StatusForbidden,
	booking.ReasonCountExceeded: http.StatusBadRequest,
}

// writeBookingError translates booking core errors into JSON responses.
// Storage failures are logged and reported without detail.
func writeBookingError(c echo.Context, err error) error {
	var (
		rej *booking.RejectedError
		ve  *booking.ValidationError
		ce  *layout.ConfigError
	)
	switch {
	case errors.As(err, &rej):
		status, ok := rejectionStatus[rej.Reason]
		if !ok {
			status = http.StatusConflict
		}
		ids := rej.SeatIDs
		if ids == nil {
			ids = []uint64{}
		}
		nums := rej.SeatNumbers
		if nums == nil {
			nums = []int{}
		}
		return c.JSON(status, echo.Map{
			"error":        rej.Error(),
			"reason":       string(rej.Reason),
			"seat_ids":     ids,
			"seat_numbers": nums,
		})
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Error()})
	case errors.Is(err, allocator.ErrInvalidCount):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, allocator.ErrNotAvailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error(), "reason": "not available"})
	case errors.Is(err, booking.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": booking.ErrConflict.Error(), "reason": "conflict"})
	case errors.Is(err, middleware.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	case errors.As(err, &ce):
		log.Printf("handler: layout error: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "seat layout misconfigured"})
	}
	log.Printf("handler: seat operation failed: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "storage failure"})
}

// getUserID returns the authenticated caller's id.
func getUserID(c echo.Context) (uint64, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return 0, middleware.ErrUnauthenticated
	}
	return id.UserID, nil
}
