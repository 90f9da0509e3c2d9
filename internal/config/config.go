// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/predator49/train-reservation/internal/allocator"
	"github.com/predator49/train-reservation/internal/layout"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	Layout             layout.Config // coach row sizes and capacity
	MaxSeatsPerBooking int           // per-request seat limit, at most allocator.MaxCount
	AllowAdminSignup   bool          // whether register may create ADMIN users
	CORSOrigins        []string      // allowed browser origins
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  An invalid seat
// layout is fatal as well.
func Load() Config {
	lay, err := LoadLayout()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		Layout:             lay,
		MaxSeatsPerBooking: maxSeatsPerBooking(),
		AllowAdminSignup:   envBool("ALLOW_ADMIN_SIGNUP", false),
		CORSOrigins:        envList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}
}

// maxSeatsPerBooking reads MAX_SEATS_PER_BOOKING, clamped to 1..7.
func maxSeatsPerBooking() int {
	n := envInt("MAX_SEATS_PER_BOOKING", allocator.MaxCount)
	if n < 1 {
		return 1
	}
	if n > allocator.MaxCount {
		log.Printf("config: MAX_SEATS_PER_BOOKING=%d clamped to %d", n, allocator.MaxCount)
		return allocator.MaxCount
	}
	return n
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
