package classifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/protosage/api/schemas"
)

func testConfig() Config {
	return Config{L2Penalty: 0.01, MaxIterations: 200, Workers: 2}
}

// separableTable builds a trivially separable single-feature dataset:
// "pos" for positive values, "neg" for negative ones.
func separableTable(values []float64) *schemas.Table {
	table := schemas.NewTable(1)
	for _, v := range values {
		tag := "neg"
		if v > 0 {
			tag = "pos"
		}
		_ = table.Append(schemas.Sample{Classes: []string{tag}, Features: []float64{v}})
	}
	return table
}

func TestLinearFitPredict(t *testing.T) {
	ctx := context.Background()

	t.Run("should separate a linearly separable dataset", func(t *testing.T) {
		train := separableTable([]float64{-3, -2, -1, 1, 2, 3})

		model := New(testConfig())
		require.NoError(t, model.Fit(ctx, train))
		assert.Equal(t, []string{"neg", "pos"}, model.Classes())

		tags, err := model.Predict([]float64{2.5})
		require.NoError(t, err)
		assert.Equal(t, []string{"pos"}, tags)

		tags, err = model.Predict([]float64{-2.5})
		require.NoError(t, err)
		assert.Equal(t, []string{"neg"}, tags)
	})

	t.Run("should refuse an empty training table", func(t *testing.T) {
		model := New(testConfig())
		err := model.Fit(ctx, schemas.NewTable(1))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty table")
	})

	t.Run("should refuse prediction before fitting", func(t *testing.T) {
		model := New(testConfig())
		_, err := model.Predict([]float64{1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not been fitted")
	})

	t.Run("should refuse a vector of the wrong dimension", func(t *testing.T) {
		model := New(testConfig())
		require.NoError(t, model.Fit(ctx, separableTable([]float64{-1, 1})))

		_, err := model.Predict([]float64{1, 2})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "length 2")
	})

	t.Run("should support multi-tag rows", func(t *testing.T) {
		train := schemas.NewTable(2)
		// Tag "a" tracks the first feature, tag "b" the second.
		fixtures := []struct {
			features []float64
			tags     []string
		}{
			{[]float64{2, 2}, []string{"a", "b"}},
			{[]float64{2, -2}, []string{"a"}},
			{[]float64{-2, 2}, []string{"b"}},
			{[]float64{-2, -2}, nil},
			{[]float64{3, 3}, []string{"a", "b"}},
			{[]float64{-3, -3}, nil},
		}
		for _, f := range fixtures {
			require.NoError(t, train.Append(schemas.Sample{Classes: f.tags, Features: f.features}))
		}

		model := New(testConfig())
		require.NoError(t, model.Fit(ctx, train))

		tags, err := model.Predict([]float64{2.5, 2.5})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a", "b"}, tags)

		tags, err = model.Predict([]float64{-2.5, -2.5})
		require.NoError(t, err)
		assert.Empty(t, tags)
	})
}
