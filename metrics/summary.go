package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/TFMV/salesreport/internal/compare"
)

// -----------------------------
// Run Summary
// -----------------------------

// EngineResult captures the outcome of one realization.
type EngineResult struct {
	Engine   string        `json:"engine"`
	Rows     int           `json:"rows"`
	Output   string        `json:"output,omitempty"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// RunSummary aggregates one invocation of the report run.
type RunSummary struct {
	StartTime  time.Time       `json:"start_time"`
	EndTime    time.Time       `json:"end_time"`
	Backend    string          `json:"backend"`
	Store      string          `json:"store"`
	AgeRange   string          `json:"age_range"`
	Engines    []EngineResult  `json:"engines"`
	Comparison *compare.Result `json:"comparison,omitempty"`
}

// Passed reports whether every engine succeeded and, when compared, agreed.
func (r RunSummary) Passed() bool {
	for _, e := range r.Engines {
		if e.Error != "" {
			return false
		}
	}
	return r.Comparison == nil || r.Comparison.Identical
}

// JSONSummaryStore stores run summaries as JSON.
type JSONSummaryStore struct {
	FilePath string
	// Out receives the summary when FilePath is empty.
	Out io.Writer
}

func (j *JSONSummaryStore) Save(run RunSummary) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return err
	}
	if j.FilePath != "" {
		return os.WriteFile(j.FilePath, data, 0o644)
	}
	out := j.Out
	if out == nil {
		out = os.Stdout
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func (j *JSONSummaryStore) SaveWithContext(ctx context.Context, run RunSummary) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return j.Save(run)
	}
}
