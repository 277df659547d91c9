package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/TFMV/salesreport/logger"
	"github.com/TFMV/salesreport/pkg/core"

	// Register the database/sql drivers.
	_ "github.com/marcboeker/go-duckdb/v2"
	_ "github.com/mattn/go-sqlite3"
)

// Ensure SQLStore implements Store.
var _ Store = (*SQLStore)(nil)

// SQLStore serves the relations from a database/sql connection pool.
type SQLStore struct {
	db      *sql.DB
	backend string
	alloc   memory.Allocator
	owned   bool
}

// OpenSQL opens an existing SQLite or DuckDB database file read-only.
// A missing file is a DataAccessError; neither driver is allowed to create it.
func OpenSQL(ctx context.Context, driver, path string) (*SQLStore, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &core.DataAccessError{Op: "open " + path, Err: err}
	}

	var dsn string
	switch driver {
	case BackendSQLite:
		dsn = sqliteDSN(path)
	case BackendDuckDB:
		dsn = path + "?access_mode=READ_ONLY"
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, &core.DataAccessError{Op: "open " + path, Err: err}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &core.DataAccessError{Op: "connect " + path, Err: err}
	}
	// SQLite reads the file header lazily, so a foreign file passes Ping.
	if _, err := db.ExecContext(ctx, readableProbe[driver]); err != nil {
		db.Close()
		return nil, &core.DataAccessError{Op: "read " + path, Err: err}
	}

	logger.GetLogger().Debug("opened data store",
		zap.String("backend", driver),
		zap.String("path", path))

	s := NewSQLStore(db, driver)
	s.owned = true
	return s, nil
}

// readableProbe forces each backend to read its database header.
var readableProbe = map[string]string{
	BackendSQLite: "PRAGMA schema_version",
	BackendDuckDB: "SELECT 1",
}

// sqliteDSN builds a read-only SQLite URI. The path is escaped so '?', '#'
// and '%' stay part of the file name.
func sqliteDSN(path string) string {
	return "file:" + (&url.URL{Path: path}).EscapedPath() + "?mode=ro"
}

// NewSQLStore wraps an open database handle. The handle stays owned by the
// caller: Close does not close it.
func NewSQLStore(db *sql.DB, backend string) *SQLStore {
	return &SQLStore{
		db:      db,
		backend: backend,
		alloc:   memory.NewGoAllocator(),
	}
}

// Query executes a read query and scans its rows into an Arrow record.
func (s *SQLStore) Query(ctx context.Context, schema *arrow.Schema, query string, args ...any) (arrow.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.NewDataAccessError("query", err)
	}
	defer rows.Close()

	rec, err := scanRecord(rows, schema, s.alloc)
	if err != nil {
		return nil, core.NewDataAccessError("scan", err)
	}
	return rec, nil
}

// Columns lists the columns of a relation. A failing probe is a SchemaError
// only when the catalog is readable and does not list the relation.
func (s *SQLStore) Columns(ctx context.Context, relation string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT 0", quoteIdent(relation)))
	if err != nil {
		if ctx.Err() != nil {
			return nil, core.NewDataAccessError("describe "+relation, ctx.Err())
		}
		exists, catErr := s.hasRelation(ctx, relation)
		switch {
		case catErr != nil:
			return nil, core.NewDataAccessError("describe "+relation, catErr)
		case exists:
			return nil, core.NewDataAccessError("describe "+relation, err)
		default:
			return nil, &core.SchemaError{Relation: relation, Err: err}
		}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, core.NewDataAccessError("describe "+relation, err)
	}
	return cols, nil
}

// catalogQuery counts tables or views named like the relation, ignoring case
// the way both engines resolve identifiers.
var catalogQuery = map[string]string{
	BackendSQLite: "SELECT count(*) FROM sqlite_master WHERE type IN ('table', 'view') AND lower(name) = lower(?)",
	BackendDuckDB: "SELECT count(*) FROM information_schema.tables WHERE lower(table_name) = lower(?)",
}

func (s *SQLStore) hasRelation(ctx context.Context, relation string) (bool, error) {
	q, ok := catalogQuery[s.backend]
	if !ok {
		return false, fmt.Errorf("no catalog query for backend %q", s.backend)
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, q, relation).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Backend returns the database/sql driver name.
func (s *SQLStore) Backend() string {
	return s.backend
}

// Close closes the connection pool if the store opened it.
func (s *SQLStore) Close() error {
	if !s.owned || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// quoteIdent double-quotes an identifier; both SQLite and DuckDB accept it.
func quoteIdent(name string) string {
	out := make([]byte, 0, len(name)+2)
	out = append(out, '"')
	for i := 0; i < len(name); i++ {
		if name[i] == '"' {
			out = append(out, '"')
		}
		out = append(out, name[i])
	}
	return string(append(out, '"'))
}
