package schemas

import (
	"fmt"
	"time"
)

// Sample is one row of a query result: the node's role tags plus a
// fixed-length numeric feature vector (raw properties for the baseline
// stage, induced embeddings afterwards).
type Sample struct {
	Classes  []string  `json:"classes"`
	Features []float64 `json:"features"`
}

// Table is a fully materialized, ordered query result. Rows keep the
// order the server returned them in.
type Table struct {
	// Dimension is the declared feature-vector length every row must match.
	Dimension int      `json:"dimension"`
	Rows      []Sample `json:"rows"`
}

// NewTable creates an empty table with a declared feature dimension.
func NewTable(dimension int) *Table {
	return &Table{Dimension: dimension}
}

// Append validates a sample against the declared dimension before adding it.
func (t *Table) Append(s Sample) error {
	if len(s.Features) != t.Dimension {
		return fmt.Errorf("row %d: feature vector has length %d, table declares %d",
			len(t.Rows), len(s.Features), t.Dimension)
	}
	t.Rows = append(t.Rows, s)
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Validate re-checks the dimension invariant across all rows. Append already
// enforces it; this exists for tables assembled by hand (tests, fixtures).
func (t *Table) Validate() error {
	for i, r := range t.Rows {
		if len(r.Features) != t.Dimension {
			return fmt.Errorf("row %d: feature vector has length %d, table declares %d",
				i, len(r.Features), t.Dimension)
		}
	}
	return nil
}

// EvaluationReport summarizes one full pipeline run: the baseline score on
// raw node features and the score on GraphSAGE embeddings.
type EvaluationReport struct {
	RunID       string    `json:"run_id"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`

	BaselineF1        float64 `json:"baseline_f1"`
	BaselineDimension int     `json:"baseline_dimension"`
	TrainSamples      int     `json:"train_samples"`
	TestSamples       int     `json:"test_samples"`

	EmbeddingF1        float64 `json:"embedding_f1"`
	EmbeddingDimension int     `json:"embedding_dimension"`
	ModelName          string  `json:"model_name"`

	TrainGraph GraphHandle `json:"train_graph"`
	TestGraph  GraphHandle `json:"test_graph"`

	TrainMillis int64 `json:"train_millis"`
}
