// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values.  Each field
// corresponds to an environment variable.  Required variables are
// enforced by must() and missing values cause the program to exit
// with a fatal log message.
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

	Admission AdmissionConfig // check-in rule chain tuning
	Waitlist  WaitlistConfig  // promotion deadline and sweep tuning
}

// AdmissionConfig carries the tunable constants of the check-in rule
// chain.  The daily window is the local calendar day containing the
// evaluation time; the weekly window is a rolling span of WeeklyWindow
// ending at it.  Both semantics were lifted from the front-desk
// policy and kept configurable rather than hard-coded.
type AdmissionConfig struct {
	DailyLimit   int           // max approved check-ins per calendar day
	WeeklyLimit  int           // max approved check-ins per rolling weekly window
	WeeklyWindow time.Duration // length of the rolling weekly window
}

// WaitlistConfig carries the promotion timing constants.
type WaitlistConfig struct {
	ConfirmWindow time.Duration // how long a promoted member has to confirm
	SweepInterval time.Duration // how often the clock reconciles overdue deadlines
}

// Load reads configuration values from environment variables and
// returns a Config.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),
		Admission: AdmissionConfig{
			DailyLimit:   envIntDef("CHECKIN_DAILY_LIMIT", 3),
			WeeklyLimit:  envIntDef("CHECKIN_WEEKLY_LIMIT", 15),
			WeeklyWindow: envDurDef("CHECKIN_WEEKLY_WINDOW", 7*24*time.Hour),
		},
		Waitlist: WaitlistConfig{
			ConfirmWindow: envDurDef("WAITLIST_CONFIRM_WINDOW", 24*time.Hour),
			SweepInterval: envDurDef("WAITLIST_SWEEP_INTERVAL", time.Minute),
		},
	}
}

// must retrieves the value of a required environment variable.  If
// the variable is unset or empty, the application logs a fatal error
// and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an
// integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// envIntDef reads an optional integer variable, falling back to def.
func envIntDef(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// envDurDef reads an optional duration variable, falling back to def.
func envDurDef(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
