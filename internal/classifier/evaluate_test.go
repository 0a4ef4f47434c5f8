package classifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/protosage/api/schemas"
)

func singleClassTable(dimension, rows int) *schemas.Table {
	table := schemas.NewTable(dimension)
	for i := 0; i < rows; i++ {
		features := make([]float64, dimension)
		for j := range features {
			features[j] = 0.1 * float64(i+j)
		}
		_ = table.Append(schemas.Sample{Classes: []string{"A"}, Features: features})
	}
	return table
}

func TestEvaluate(t *testing.T) {
	ctx := context.Background()

	t.Run("should return an F1 within [0,1] for a single-class dataset", func(t *testing.T) {
		train := singleClassTable(4, 20)
		test := singleClassTable(4, 8)

		score, err := Evaluate(ctx, train, test, testConfig())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	})

	t.Run("should be idempotent for identical inputs", func(t *testing.T) {
		train := separableTable([]float64{-4, -3, -2, -1, 1, 2, 3, 4})
		test := separableTable([]float64{-2.5, -1.5, 1.5, 2.5})

		first, err := Evaluate(ctx, train, test, testConfig())
		require.NoError(t, err)
		second, err := Evaluate(ctx, train, test, testConfig())
		require.NoError(t, err)
		assert.Equal(t, first, second, "repeated evaluation of identical tables must agree exactly")
	})

	t.Run("should score a clean separable split as 1", func(t *testing.T) {
		train := separableTable([]float64{-4, -3, -2, -1, 1, 2, 3, 4})
		test := separableTable([]float64{-5, 5})

		score, err := Evaluate(ctx, train, test, testConfig())
		require.NoError(t, err)
		assert.Equal(t, 1.0, score)
	})

	t.Run("should reject mismatched feature dimensions", func(t *testing.T) {
		train := singleClassTable(4, 10)
		test := singleClassTable(5, 4)

		_, err := Evaluate(ctx, train, test, testConfig())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dimension mismatch")
	})

	t.Run("should reject an empty test table", func(t *testing.T) {
		train := singleClassTable(4, 10)

		_, err := Evaluate(ctx, train, schemas.NewTable(4), testConfig())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty test table")
	})

	t.Run("should not share state between evaluations", func(t *testing.T) {
		trainA := separableTable([]float64{-2, -1, 1, 2})
		testA := separableTable([]float64{-3, 3})
		trainB := singleClassTable(1, 6)
		testB := singleClassTable(1, 2)

		scoreA1, err := Evaluate(ctx, trainA, testA, testConfig())
		require.NoError(t, err)
		_, err = Evaluate(ctx, trainB, testB, testConfig())
		require.NoError(t, err)
		scoreA2, err := Evaluate(ctx, trainA, testA, testConfig())
		require.NoError(t, err)

		assert.Equal(t, scoreA1, scoreA2)
	})
}
