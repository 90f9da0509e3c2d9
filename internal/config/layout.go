package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/predator49/train-reservation/internal/layout"
)

// LoadLayout resolves the coach layout. LAYOUT_FILE names a YAML document
// such as
//
//	row_sizes: [7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 3]
//	max_seats: 80
//
// Otherwise LAYOUT_ROW_SIZES ("7,7,3") and LAYOUT_MAX_SEATS are used, and
// without either the default 80-seat coach applies. The result is
// validated; a bad layout is returned as *layout.ConfigError.
func LoadLayout() (layout.Config, error) {
	cfg := layout.Config{
		RowSizes: layout.DefaultRowSizes(),
		MaxSeats: layout.DefaultMaxSeats,
	}

	if path := os.Getenv("LAYOUT_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return layout.Config{}, fmt.Errorf("read layout file: %w", err)
		}
		parsed, err := ParseLayoutYAML(raw)
		if err != nil {
			return layout.Config{}, err
		}
		cfg = parsed
	} else if v := os.Getenv("LAYOUT_ROW_SIZES"); v != "" {
		sizes, err := parseRowSizes(v)
		if err != nil {
			return layout.Config{}, err
		}
		cfg.RowSizes = sizes
	}

	if cfg.MaxSeats <= 0 {
		cfg.MaxSeats = layout.DefaultMaxSeats
	}
	cfg.MaxSeats = envInt("LAYOUT_MAX_SEATS", cfg.MaxSeats)

	if err := cfg.Validate(); err != nil {
		return layout.Config{}, err
	}
	return cfg, nil
}

// ParseLayoutYAML decodes a layout document. Unknown keys are rejected.
func ParseLayoutYAML(raw []byte) (layout.Config, error) {
	var cfg layout.Config
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return layout.Config{}, &layout.ConfigError{Field: "layout file", Reason: err.Error()}
	}
	return cfg, nil
}

func parseRowSizes(v string) ([]int, error) {
	var sizes []int
	for _, p := range strings.Split(v, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, &layout.ConfigError{Field: "LAYOUT_ROW_SIZES", Reason: fmt.Sprintf("%q is not an integer", p)}
		}
		sizes = append(sizes, n)
	}
	return sizes, nil
}
