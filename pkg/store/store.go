// Package store provides read access to the sales relations held in a data store.
//
// Three backends are available: SQLite and DuckDB through database/sql, and
// DuckDB through an ADBC driver library. All of them return query results as
// Arrow records conforming to a caller-supplied schema.
package store

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// Supported backends.
const (
	BackendSQLite = "sqlite3"
	BackendDuckDB = "duckdb"
	BackendADBC   = "adbc"
)

// DefaultPath is the database file used when none is configured.
const DefaultPath = "sales_data.db"

// Store is a read-only view of the data store.
type Store interface {
	// Query runs a read query and returns its result shaped by schema.
	// Result columns are matched to schema fields by name, case-insensitively.
	// The caller owns the returned record and must Release it.
	Query(ctx context.Context, schema *arrow.Schema, query string, args ...any) (arrow.Record, error)

	// Columns returns the column names of a relation.
	Columns(ctx context.Context, relation string) ([]string, error)

	// Backend names the backend serving the store.
	Backend() string

	// Close releases the underlying connection.
	Close() error
}

// Config selects and locates a data store.
type Config struct {
	// Driver is one of BackendSQLite, BackendDuckDB or BackendADBC.
	Driver string `mapstructure:"driver"`
	// Path is the database file.
	Path string `mapstructure:"path"`
	// DriverPath is the ADBC driver library; empty means auto-detect.
	DriverPath string `mapstructure:"driver_path"`
}

// DefaultConfig returns the configuration of the reference SQLite database.
func DefaultConfig() Config {
	return Config{Driver: BackendSQLite, Path: DefaultPath}
}

// Validate checks configuration values.
func (c Config) Validate() error {
	switch c.Driver {
	case BackendSQLite, BackendDuckDB, BackendADBC:
	default:
		return fmt.Errorf("unsupported store driver %q: must be %s, %s or %s",
			c.Driver, BackendSQLite, BackendDuckDB, BackendADBC)
	}
	if c.Path == "" {
		return fmt.Errorf("store path is required")
	}
	return nil
}

// Open opens the configured store read-only.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store config: %w", err)
	}
	switch cfg.Driver {
	case BackendADBC:
		return OpenADBC(WithContext(ctx), WithPath(cfg.Path), WithDriverPath(cfg.DriverPath))
	default:
		return OpenSQL(ctx, cfg.Driver, cfg.Path)
	}
}
