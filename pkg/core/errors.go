package core

import (
	"errors"
	"fmt"
)

var (
	// ErrDataAccess indicates the data store cannot be reached or read.
	ErrDataAccess = errors.New("data access error")
	// ErrSchema indicates an expected relation or column is absent.
	ErrSchema = errors.New("schema error")
	// ErrIOWrite indicates report output cannot be written.
	ErrIOWrite = errors.New("write error")
)

// DataAccessError reports a store that is unreachable or unreadable.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("data access: %s: %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error { return e.Err }

func (e *DataAccessError) Is(target error) bool { return target == ErrDataAccess }

// SchemaError reports a missing relation or column.
// Column is empty when the whole relation is missing.
type SchemaError struct {
	Relation string
	Column   string
	Err      error
}

func (e *SchemaError) Error() string {
	msg := "schema: relation " + e.Relation
	if e.Column != "" {
		msg += " has no column " + e.Column
	} else {
		msg += " not found"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SchemaError) Unwrap() error { return e.Err }

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// IOWriteError reports a report destination that cannot be written.
type IOWriteError struct {
	Path string
	Err  error
}

func (e *IOWriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *IOWriteError) Unwrap() error { return e.Err }

func (e *IOWriteError) Is(target error) bool { return target == ErrIOWrite }

// NewDataAccessError wraps err as a DataAccessError unless it already carries
// one of the domain error kinds.
func NewDataAccessError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrSchema) || errors.Is(err, ErrDataAccess) {
		return err
	}
	return &DataAccessError{Op: op, Err: err}
}
