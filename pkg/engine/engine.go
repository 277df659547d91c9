// Package engine implements the two realizations of the sales report:
// a query-based one that lets the store aggregate, and a transform-based one
// that aggregates typed in-memory tables.
package engine

import (
	"fmt"

	"github.com/TFMV/salesreport/pkg/core"
	"github.com/TFMV/salesreport/pkg/store"
)

// Realization kinds.
const (
	KindQuery     = "query"
	KindTransform = "transform"
)

// Kinds lists every realization in the order the orchestrator runs them.
var Kinds = []string{KindQuery, KindTransform}

// New creates the realization named by kind over s.
func New(kind string, s store.Store) (core.ReportComputer, error) {
	switch kind {
	case KindQuery:
		return NewQueryComputer(s), nil
	case KindTransform:
		return NewTransformComputer(s), nil
	default:
		return nil, fmt.Errorf("unsupported engine: %s", kind)
	}
}
