package classifier

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/protosage/api/schemas"
)

// Evaluate fits a fresh model on the training table, predicts the held-out
// test table, and returns the micro-averaged F1 score. The model is
// discarded afterwards; evaluation keeps no state between calls.
func Evaluate(ctx context.Context, train, test *schemas.Table, cfg Config) (float64, error) {
	if train == nil || test == nil {
		return 0, fmt.Errorf("evaluation requires both a train and a test table")
	}
	if train.Dimension != test.Dimension {
		return 0, fmt.Errorf("feature dimension mismatch: train has %d, test has %d",
			train.Dimension, test.Dimension)
	}
	if test.Len() == 0 {
		return 0, fmt.Errorf("cannot evaluate against an empty test table")
	}

	model := New(cfg)
	if err := model.Fit(ctx, train); err != nil {
		return 0, err
	}

	truth := make([][]string, test.Len())
	predicted := make([][]string, test.Len())
	for i, row := range test.Rows {
		tags, err := model.Predict(row.Features)
		if err != nil {
			return 0, fmt.Errorf("prediction for test row %d failed: %w", i, err)
		}
		truth[i] = row.Classes
		predicted[i] = tags
	}

	return MicroF1(truth, predicted), nil
}
