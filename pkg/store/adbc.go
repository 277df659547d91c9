package store

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/apache/arrow-adbc/go/adbc"
	"github.com/apache/arrow-adbc/go/adbc/drivermgr"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/TFMV/salesreport/logger"
	"github.com/TFMV/salesreport/pkg/core"
)

// Ensure ADBCStore implements Store.
var _ Store = (*ADBCStore)(nil)

// Options define the configuration for opening DuckDB through ADBC.
type Options struct {
	// Path to the DuckDB file.
	Path string

	// DriverPath is the location of libduckdb; empty means auto-detect.
	DriverPath string

	// Context for opening the database and connection.
	Context context.Context
}

// Option is a functional config approach.
type Option func(*Options)

// WithPath sets a file path for the DuckDB database.
func WithPath(p string) Option {
	return func(o *Options) {
		o.Path = p
	}
}

// WithDriverPath sets the path to the DuckDB driver library.
func WithDriverPath(p string) Option {
	return func(o *Options) {
		o.DriverPath = p
	}
}

// WithContext sets a custom Context for opening.
func WithContext(ctx context.Context) Option {
	return func(o *Options) {
		o.Context = ctx
	}
}

// ADBCStore reads the relations from DuckDB via the ADBC driver manager.
type ADBCStore struct {
	mu    sync.Mutex
	db    adbc.Database
	conn  adbc.Connection
	opts  Options
	alloc memory.Allocator
}

// defaultDriverPath returns the usual install location of libduckdb.
func defaultDriverPath() string {
	switch runtime.GOOS {
	case "darwin":
		return "/usr/local/lib/libduckdb.dylib"
	case "linux":
		return "/usr/local/lib/libduckdb.so"
	case "windows":
		if home, err := os.UserHomeDir(); err == nil {
			return home + "/Downloads/duckdb-windows-amd64/duckdb.dll"
		}
	}
	return ""
}

// OpenADBC opens an existing DuckDB file through ADBC.
func OpenADBC(options ...Option) (*ADBCStore, error) {
	var opts Options
	for _, opt := range options {
		opt(&opts)
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.DriverPath == "" {
		opts.DriverPath = defaultDriverPath()
	}
	if _, err := os.Stat(opts.Path); err != nil {
		return nil, &core.DataAccessError{Op: "open " + opts.Path, Err: err}
	}

	driver := drivermgr.Driver{}
	db, err := driver.NewDatabase(map[string]string{
		"driver":     opts.DriverPath,
		"entrypoint": "duckdb_adbc_init",
		"path":       opts.Path,
	})
	if err != nil {
		return nil, &core.DataAccessError{Op: "load adbc driver", Err: err}
	}

	conn, err := db.Open(opts.Context)
	if err != nil {
		db.Close()
		return nil, &core.DataAccessError{Op: "connect " + opts.Path, Err: err}
	}

	logger.GetLogger().Debug("opened data store",
		zap.String("backend", BackendADBC),
		zap.String("driver", opts.DriverPath),
		zap.String("path", opts.Path))

	s := &ADBCStore{
		db:    db,
		conn:  conn,
		opts:  opts,
		alloc: memory.NewGoAllocator(),
	}
	rec, err := s.query(opts.Context, readableSchema, "SELECT 1 AS ok")
	if err != nil {
		s.Close()
		return nil, &core.DataAccessError{Op: "read " + opts.Path, Err: err}
	}
	rec.Release()
	return s, nil
}

var (
	readableSchema = arrow.NewSchema([]arrow.Field{{Name: "ok", Type: arrow.PrimitiveTypes.Int64}}, nil)
	countSchema    = arrow.NewSchema([]arrow.Field{{Name: "n", Type: arrow.PrimitiveTypes.Int64}}, nil)
)

// Query executes a query, binding args as a single parameter row.
func (s *ADBCStore) Query(ctx context.Context, schema *arrow.Schema, query string, args ...any) (arrow.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query(ctx, schema, query, args...)
}

func (s *ADBCStore) query(ctx context.Context, schema *arrow.Schema, query string, args ...any) (arrow.Record, error) {
	if s.conn == nil {
		return nil, &core.DataAccessError{Op: "query", Err: fmt.Errorf("store is closed")}
	}

	stmt, err := s.conn.NewStatement()
	if err != nil {
		return nil, core.NewDataAccessError("create statement", err)
	}
	defer stmt.Close()

	if err := stmt.SetSqlQuery(query); err != nil {
		return nil, core.NewDataAccessError("set query", err)
	}
	if len(args) > 0 {
		params, err := paramRecord(s.alloc, args)
		if err != nil {
			return nil, err
		}
		defer params.Release()
		if err := stmt.Bind(ctx, params); err != nil {
			return nil, core.NewDataAccessError("bind parameters", err)
		}
	}

	rr, _, err := stmt.ExecuteQuery(ctx)
	if err != nil {
		return nil, core.NewDataAccessError("query", err)
	}
	defer rr.Release()

	var batches []arrow.Record
	defer func() {
		for _, b := range batches {
			b.Release()
		}
	}()
	for rr.Next() {
		rec, err := conformRecord(ctx, s.alloc, rr.Record(), schema)
		if err != nil {
			return nil, core.NewDataAccessError("convert result", err)
		}
		batches = append(batches, rec)
	}
	if err := rr.Err(); err != nil {
		return nil, core.NewDataAccessError("read result", err)
	}

	rec, err := concatRecords(s.alloc, schema, batches)
	if err != nil {
		return nil, core.NewDataAccessError("combine result", err)
	}
	return rec, nil
}

// Columns returns the column names of a relation from its Arrow schema.
func (s *ADBCStore) Columns(ctx context.Context, relation string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil, &core.DataAccessError{Op: "describe " + relation, Err: fmt.Errorf("store is closed")}
	}
	sc, err := s.conn.GetTableSchema(ctx, nil, nil, relation)
	if err != nil {
		if ctx.Err() != nil {
			return nil, core.NewDataAccessError("describe "+relation, ctx.Err())
		}
		rec, catErr := s.query(ctx, countSchema, `SELECT count(*) AS n FROM information_schema.tables WHERE lower(table_name) = lower(?)`, relation)
		if catErr != nil {
			return nil, core.NewDataAccessError("describe "+relation, catErr)
		}
		defer rec.Release()
		if rec.NumRows() == 1 && rec.Column(0).(*array.Int64).Value(0) > 0 {
			return nil, core.NewDataAccessError("describe "+relation, err)
		}
		return nil, &core.SchemaError{Relation: relation, Err: err}
	}
	cols := make([]string, 0, sc.NumFields())
	for _, f := range sc.Fields() {
		cols = append(cols, f.Name)
	}
	return cols, nil
}

// Backend returns BackendADBC.
func (s *ADBCStore) Backend() string {
	return BackendADBC
}

// Close closes the connection and the database.
func (s *ADBCStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.conn != nil {
		err = s.conn.Close()
		s.conn = nil
	}
	if s.db != nil {
		if closeErr := s.db.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		s.db = nil
	}
	return err
}

// paramRecord packs query arguments into a one-row record, one column per argument.
func paramRecord(alloc memory.Allocator, args []any) (arrow.Record, error) {
	fields := make([]arrow.Field, len(args))
	for i, a := range args {
		name := fmt.Sprintf("p%d", i+1)
		switch a.(type) {
		case int, int32, int64:
			fields[i] = arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Int64}
		case float64:
			fields[i] = arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float64}
		case string:
			fields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String}
		default:
			return nil, fmt.Errorf("unsupported parameter type %T", a)
		}
	}

	b := array.NewRecordBuilder(alloc, arrow.NewSchema(fields, nil))
	defer b.Release()
	for i, a := range args {
		if err := appendValue(b.Field(i), a); err != nil {
			return nil, err
		}
	}
	return b.NewRecord(), nil
}
