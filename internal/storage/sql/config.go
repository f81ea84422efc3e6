package sql

import "time"

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds database connection settings
type Config struct {
	// Driver selects the dialect ("sqlite" or "postgres")
	Driver string
	// DSN is the driver-specific data source, e.g. a file path for sqlite
	DSN string

	// Pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// LogLevel is passed to gorm: silent, error, warn or info
	LogLevel string
}

// DefaultConfig returns sensible defaults for a local sqlite database
func DefaultConfig() Config {
	return Config{
		Driver: DriverSQLite,
		DSN:    "gameshelf.db",
		// sqlite allows a single writer
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
		LogLevel:        "silent",
	}
}
