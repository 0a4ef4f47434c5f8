// Package pipeline runs the end-to-end embedding evaluation: baseline
// scoring on raw node features, server-side GraphSAGE training, and
// re-scoring on the induced embeddings. Stages run strictly in sequence;
// each is a one-shot blocking call against the graph service.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xkilldash9x/protosage/api/schemas"
	"github.com/xkilldash9x/protosage/internal/classifier"
	"github.com/xkilldash9x/protosage/internal/config"
	"github.com/xkilldash9x/protosage/internal/graphdb"
	"go.uber.org/zap"
)

// cleanupTimeout bounds the best-effort catalog cleanup when the run's own
// context is already canceled.
const cleanupTimeout = 30 * time.Second

// Pipeline wires the graph service client and the local classifier into
// the evaluation sequence. The run-history store is optional.
type Pipeline struct {
	graph   schemas.GraphAnalytics
	history schemas.RunStore
	cfg     *config.Config
	log     *zap.Logger
}

// New creates a pipeline. history may be nil when run persistence is off.
func New(graph schemas.GraphAnalytics, history schemas.RunStore, cfg *config.Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		graph:   graph,
		history: history,
		cfg:     cfg,
		log:     logger.Named("pipeline"),
	}
}

// Run executes all stages and returns the evaluation report. Catalog state
// created along the way (graph views, the model) is dropped best-effort on
// every exit path; drop failures are logged, never fatal.
func (p *Pipeline) Run(ctx context.Context) (*schemas.EvaluationReport, error) {
	ds := p.cfg.Dataset
	features := graphdb.FeatureProperties(ds.FeaturePrefix, ds.FeatureCount)
	clsCfg := classifier.Config{
		L2Penalty:     p.cfg.Classifier.L2Penalty,
		MaxIterations: p.cfg.Classifier.MaxIterations,
		Workers:       p.cfg.Classifier.Workers,
	}

	report := &schemas.EvaluationReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		ModelName: p.cfg.Sage.ModelName,
	}
	p.log.Info("Starting evaluation run", zap.String("run_id", report.RunID))

	// Stage 2: baseline extraction.
	trainTable, err := p.graph.FetchFeatures(ctx, ds.TrainLabel, features)
	if err != nil {
		return nil, fmt.Errorf("baseline extraction (train) failed: %w", err)
	}
	testTable, err := p.graph.FetchFeatures(ctx, ds.TestLabel, features)
	if err != nil {
		return nil, fmt.Errorf("baseline extraction (test) failed: %w", err)
	}
	report.BaselineDimension = trainTable.Dimension
	report.TrainSamples = trainTable.Len()
	report.TestSamples = testTable.Len()
	p.log.Info("Baseline tables materialized",
		zap.Int("train_rows", trainTable.Len()),
		zap.Int("test_rows", testTable.Len()),
		zap.Int("dimension", trainTable.Dimension))

	// Stage 3: baseline evaluation.
	baselineF1, err := classifier.Evaluate(ctx, trainTable, testTable, clsCfg)
	if err != nil {
		return nil, fmt.Errorf("baseline evaluation failed: %w", err)
	}
	report.BaselineF1 = baselineF1
	p.log.Info("Baseline classifier scored", zap.Float64("micro_f1", baselineF1))

	// Stage 4: graph projection. From here on the run owns catalog state.
	var cleanups []func(context.Context)
	defer func() { p.cleanup(cleanups) }()

	trainGraph, err := p.graph.Project(ctx, schemas.ProjectionSpec{
		GraphName:         ds.TrainGraphName,
		NodeLabel:         ds.TrainLabel,
		RelationshipType:  ds.RelationshipType,
		FeatureProperties: features,
	})
	if err != nil {
		return nil, fmt.Errorf("train graph projection failed: %w", err)
	}
	cleanups = append(cleanups, func(ctx context.Context) {
		if err := p.graph.DropGraph(ctx, trainGraph); err != nil {
			p.log.Warn("Failed to drop train graph view", zap.Error(err))
		}
	})

	testGraph, err := p.graph.Project(ctx, schemas.ProjectionSpec{
		GraphName:         ds.TestGraphName,
		NodeLabel:         ds.TestLabel,
		RelationshipType:  ds.RelationshipType,
		FeatureProperties: features,
	})
	if err != nil {
		return nil, fmt.Errorf("test graph projection failed: %w", err)
	}
	cleanups = append(cleanups, func(ctx context.Context) {
		if err := p.graph.DropGraph(ctx, testGraph); err != nil {
			p.log.Warn("Failed to drop test graph view", zap.Error(err))
		}
	})
	report.TrainGraph = trainGraph
	report.TestGraph = testGraph

	// Stage 5: embedding training.
	model, err := p.graph.TrainSage(ctx, trainGraph, schemas.SageTrainConfig{
		ModelName:          p.cfg.Sage.ModelName,
		EmbeddingDimension: p.cfg.Sage.EmbeddingDimension,
		Aggregator:         p.cfg.Sage.Aggregator,
		ActivationFunction: p.cfg.Sage.ActivationFunction,
		BatchSize:          p.cfg.Sage.BatchSize,
		Epochs:             p.cfg.Sage.Epochs,
		SampleSizes:        p.cfg.Sage.SampleSizes,
		LearningRate:       p.cfg.Sage.LearningRate,
		FeatureProperties:  features,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding training failed: %w", err)
	}
	cleanups = append(cleanups, func(ctx context.Context) {
		if err := p.graph.DropModel(ctx, model); err != nil {
			p.log.Warn("Failed to drop embedding model", zap.Error(err))
		}
	})
	report.EmbeddingDimension = model.Dimension
	report.TrainMillis = model.TrainMillis

	// Stage 6: embedding extraction.
	trainEmbeddings, err := p.graph.StreamSage(ctx, trainGraph, model)
	if err != nil {
		return nil, fmt.Errorf("embedding extraction (train) failed: %w", err)
	}
	testEmbeddings, err := p.graph.StreamSage(ctx, testGraph, model)
	if err != nil {
		return nil, fmt.Errorf("embedding extraction (test) failed: %w", err)
	}

	// Stage 7: final evaluation.
	embeddingF1, err := classifier.Evaluate(ctx, trainEmbeddings, testEmbeddings, clsCfg)
	if err != nil {
		return nil, fmt.Errorf("embedding evaluation failed: %w", err)
	}
	report.EmbeddingF1 = embeddingF1
	report.CompletedAt = time.Now().UTC()
	p.log.Info("Embedding classifier scored",
		zap.Float64("micro_f1", embeddingF1),
		zap.Float64("baseline_micro_f1", report.BaselineF1))

	if p.history != nil {
		if err := p.history.SaveReport(ctx, report); err != nil {
			// Persistence is a convenience; a failed save must not void the run.
			p.log.Warn("Failed to persist evaluation report", zap.Error(err))
		}
	}

	return report, nil
}

// cleanup drops catalog state in reverse creation order on a fresh context,
// since the run's context may already be canceled.
func (p *Pipeline) cleanup(cleanups []func(context.Context)) {
	if len(cleanups) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i](ctx)
	}
}
