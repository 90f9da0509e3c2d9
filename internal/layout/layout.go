// Package layout generates the coach seat map from a row configuration.
package layout

import (
	"fmt"

	"github.com/predator49/train-reservation/internal/model"
)

// DefaultMaxSeats is the coach capacity used when no maximum is configured.
const DefaultMaxSeats = 80

// DefaultRowSizes is eleven rows of seven followed by a final row of three.
func DefaultRowSizes() []int {
	return []int{7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 3}
}

// Config describes the physical arrangement of the coach.
type Config struct {
	RowSizes []int `yaml:"row_sizes"`
	MaxSeats int   `yaml:"max_seats"`
}

// ConfigError reports an unusable layout. It is fatal at startup.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("layout: invalid %s: %s", e.Field, e.Reason)
}

// Total returns the number of seats described by the configuration.
func (c Config) Total() int {
	n := 0
	for _, s := range c.RowSizes {
		n += s
	}
	return n
}

// Validate checks the row sizes against the capacity limit.
func (c Config) Validate() error {
	if len(c.RowSizes) == 0 {
		return &ConfigError{Field: "row_sizes", Reason: "at least one row is required"}
	}
	max := c.MaxSeats
	if max <= 0 {
		max = DefaultMaxSeats
	}
	total := 0
	for i, s := range c.RowSizes {
		if s <= 0 {
			return &ConfigError{Field: "row_sizes", Reason: fmt.Sprintf("row %d has size %d", i+1, s)}
		}
		total += s
	}
	if total > max {
		return &ConfigError{Field: "row_sizes", Reason: fmt.Sprintf("%d seats exceed maximum of %d", total, max)}
	}
	return nil
}

// Generate builds the seat map for c. Seat numbers run from 1 in row order
// and each seat's ID equals its seat number, so the same configuration
// always yields the same seats.
func Generate(c Config) ([]model.Seat, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	seats := make([]model.Seat, 0, c.Total())
	num := 0
	for row, size := range c.RowSizes {
		for i := 0; i < size; i++ {
			num++
			seats = append(seats, model.Seat{
				ID:         uint64(num),
				SeatNumber: num,
				RowNumber:  row + 1,
			})
		}
	}
	return seats, nil
}
