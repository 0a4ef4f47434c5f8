package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableAppend(t *testing.T) {
	t.Run("should accept rows matching the declared dimension", func(t *testing.T) {
		tbl := NewTable(3)
		err := tbl.Append(Sample{Classes: []string{"kinase"}, Features: []float64{0.1, 0.2, 0.3}})
		require.NoError(t, err)
		assert.Equal(t, 1, tbl.Len())
	})

	t.Run("should reject rows with the wrong vector length", func(t *testing.T) {
		tbl := NewTable(3)
		err := tbl.Append(Sample{Classes: []string{"kinase"}, Features: []float64{0.1}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "length 1")
		assert.Equal(t, 0, tbl.Len())
	})

	t.Run("should preserve insertion order", func(t *testing.T) {
		tbl := NewTable(1)
		for _, v := range []float64{1, 2, 3} {
			require.NoError(t, tbl.Append(Sample{Features: []float64{v}}))
		}
		assert.Equal(t, []float64{1}, tbl.Rows[0].Features)
		assert.Equal(t, []float64{3}, tbl.Rows[2].Features)
	})
}

func TestTableValidate(t *testing.T) {
	t.Run("should flag hand-built tables with mismatched rows", func(t *testing.T) {
		tbl := &Table{
			Dimension: 2,
			Rows: []Sample{
				{Features: []float64{1, 2}},
				{Features: []float64{1, 2, 3}},
			},
		}
		err := tbl.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "row 1")
	})

	t.Run("should pass a consistent table", func(t *testing.T) {
		tbl := &Table{
			Dimension: 2,
			Rows:      []Sample{{Features: []float64{1, 2}}},
		}
		assert.NoError(t, tbl.Validate())
	})
}
