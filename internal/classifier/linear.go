// Package classifier fits and scores the multi-label linear model used to
// compare raw node features against induced embeddings. The model is an
// off-the-shelf piece: one L2-regularized logistic regression per role tag,
// fitted with gonum's L-BFGS minimizer.
package classifier

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/xkilldash9x/protosage/api/schemas"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// Config tunes the fit. Workers bounds how many per-tag fits run at once;
// it changes wall time only, never the result.
type Config struct {
	L2Penalty     float64
	MaxIterations int
	Workers       int
}

// Linear is a one-vs-rest logistic regression over role tags. Training is
// deterministic (zero-initialized weights, no sampling), so identical
// inputs always produce identical predictions.
type Linear struct {
	cfg     Config
	classes []string
	weights [][]float64 // per class; length dim+1, bias last
	dim     int
}

// New creates an unfitted model.
func New(cfg Config) *Linear {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 200
	}
	return &Linear{cfg: cfg}
}

// Fit trains one binary classifier per role tag present in the training
// table. Tags are fitted in parallel, bounded by cfg.Workers.
func (m *Linear) Fit(ctx context.Context, table *schemas.Table) error {
	if table.Len() == 0 {
		return fmt.Errorf("cannot fit classifier on an empty table")
	}
	if err := table.Validate(); err != nil {
		return fmt.Errorf("invalid training table: %w", err)
	}

	m.dim = table.Dimension
	m.classes = collectClasses(table)
	if len(m.classes) == 0 {
		return fmt.Errorf("training table carries no role tags")
	}

	n := table.Len()
	cols := m.dim + 1
	x := mat.NewDense(n, cols, nil)
	for i, row := range table.Rows {
		for j, v := range row.Features {
			x.Set(i, j, v)
		}
		x.Set(i, m.dim, 1) // bias column
	}

	m.weights = make([][]float64, len(m.classes))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Workers)
	for idx, class := range m.classes {
		idx, class := idx, class
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			y := make([]float64, n)
			for i, row := range table.Rows {
				if containsTag(row.Classes, class) {
					y[i] = 1
				}
			}
			w, err := m.fitBinary(x, y)
			if err != nil {
				return fmt.Errorf("fit for tag %q failed: %w", class, err)
			}
			m.weights[idx] = w
			return nil
		})
	}
	return g.Wait()
}

// fitBinary minimizes the L2-regularized logistic loss for a single tag.
func (m *Linear) fitBinary(x *mat.Dense, y []float64) ([]float64, error) {
	n, cols := x.Dims()
	lambda := m.cfg.L2Penalty

	problem := optimize.Problem{
		Func: func(w []float64) float64 {
			loss := 0.0
			for i := 0; i < n; i++ {
				z := floats.Dot(x.RawRowView(i), w)
				loss += logisticLoss(z, y[i])
			}
			// The bias term (last column) is not regularized.
			for j := 0; j < cols-1; j++ {
				loss += 0.5 * lambda * w[j] * w[j]
			}
			return loss
		},
		Grad: func(grad, w []float64) {
			resid := make([]float64, n)
			for i := 0; i < n; i++ {
				z := floats.Dot(x.RawRowView(i), w)
				resid[i] = sigmoid(z) - y[i]
			}
			gv := mat.NewVecDense(cols, grad)
			gv.MulVec(x.T(), mat.NewVecDense(n, resid))
			for j := 0; j < cols-1; j++ {
				grad[j] += lambda * w[j]
			}
		},
	}

	settings := &optimize.Settings{
		MajorIterations:   m.cfg.MaxIterations,
		GradientThreshold: 1e-8,
	}

	result, err := optimize.Minimize(problem, make([]float64, cols), settings, &optimize.LBFGS{})
	if err != nil && result == nil {
		return nil, err
	}
	return result.X, nil
}

// Predict returns the set of role tags whose per-tag probability clears
// 0.5. The set may be empty.
func (m *Linear) Predict(features []float64) ([]string, error) {
	if m.weights == nil {
		return nil, fmt.Errorf("classifier has not been fitted")
	}
	if len(features) != m.dim {
		return nil, fmt.Errorf("feature vector has length %d, model was fitted on %d", len(features), m.dim)
	}

	var tags []string
	for idx, class := range m.classes {
		w := m.weights[idx]
		z := floats.Dot(w[:m.dim], features) + w[m.dim]
		if sigmoid(z) >= 0.5 {
			tags = append(tags, class)
		}
	}
	return tags, nil
}

// Classes returns the role tags the model was fitted on, sorted.
func (m *Linear) Classes() []string {
	out := make([]string, len(m.classes))
	copy(out, m.classes)
	return out
}

func collectClasses(table *schemas.Table) []string {
	seen := make(map[string]struct{})
	for _, row := range table.Rows {
		for _, tag := range row.Classes {
			seen[tag] = struct{}{}
		}
	}
	classes := make([]string, 0, len(seen))
	for tag := range seen {
		classes = append(classes, tag)
	}
	sort.Strings(classes)
	return classes
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// logisticLoss computes log(1+exp(z)) - y*z without overflowing for large |z|.
func logisticLoss(z, y float64) float64 {
	return math.Max(z, 0) + math.Log1p(math.Exp(-math.Abs(z))) - y*z
}
