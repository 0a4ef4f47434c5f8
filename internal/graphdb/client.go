// Package graphdb is the client for the external graph-analytics engine.
// All heavy lifting (graph projection, GraphSAGE training and inference)
// happens server-side; this package submits queries and materializes the
// tabular responses.
package graphdb

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/xkilldash9x/protosage/api/schemas"
	"github.com/xkilldash9x/protosage/internal/config"
	"go.uber.org/zap"
)

// queryRunner abstracts query execution so tests can substitute a fake
// engine without a live server.
type queryRunner interface {
	Run(ctx context.Context, cypher string, params map[string]any, mode neo4j.AccessMode) ([]*neo4j.Record, error)
}

// driverRunner executes each query on its own short-lived session; the
// driver pools connections underneath.
type driverRunner struct {
	driver   neo4j.DriverWithContext
	database string
}

func (r *driverRunner) Run(ctx context.Context, cypher string, params map[string]any, mode neo4j.AccessMode) ([]*neo4j.Record, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: r.database,
	})
	defer session.Close(ctx)

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return result.Collect(ctx)
}

// Client implements schemas.GraphAnalytics against a Neo4j/GDS instance.
type Client struct {
	driver  neo4j.DriverWithContext
	runner  queryRunner
	dataset config.DatasetConfig
	log     *zap.Logger
}

var _ schemas.GraphAnalytics = (*Client)(nil)

// New opens a driver against the configured graph service and verifies
// connectivity before returning.
func New(ctx context.Context, cfg config.Neo4jConfig, dataset config.DatasetConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create graph service driver: %w", err)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to reach graph service at %s: %w", cfg.URI, err)
	}

	return &Client{
		driver:  driver,
		runner:  &driverRunner{driver: driver, database: cfg.Database},
		dataset: dataset,
		log:     logger.Named("graphdb"),
	}, nil
}

// Close releases the driver and its connection pool.
func (c *Client) Close(ctx context.Context) error {
	if c.driver == nil {
		return nil
	}
	return c.driver.Close(ctx)
}

// FetchFeatures reads role tags and raw feature vectors for every node
// carrying the given label, in server order.
func (c *Client) FetchFeatures(ctx context.Context, nodeLabel string, featureProperties []string) (*schemas.Table, error) {
	cypher := fetchFeaturesQuery(nodeLabel)
	records, err := c.runner.Run(ctx, cypher, map[string]any{
		"classProperty":     c.dataset.ClassProperty,
		"featureProperties": toAnySlice(featureProperties),
	}, neo4j.AccessModeRead)
	if err != nil {
		return nil, fmt.Errorf("feature fetch for label %q failed: %w", nodeLabel, err)
	}

	table := schemas.NewTable(len(featureProperties))
	for i, record := range records {
		sample, err := decodeSample(record)
		if err != nil {
			return nil, fmt.Errorf("feature fetch for label %q: record %d: %w", nodeLabel, i, err)
		}
		if err := table.Append(sample); err != nil {
			return nil, fmt.Errorf("feature fetch for label %q: %w", nodeLabel, err)
		}
	}

	c.log.Debug("Materialized feature table",
		zap.String("label", nodeLabel),
		zap.Int("rows", table.Len()),
		zap.Int("dimension", table.Dimension))
	return table, nil
}

// Project materializes an undirected in-memory graph view. The returned
// handle carries the node and relationship counts the server confirmed.
func (c *Client) Project(ctx context.Context, spec schemas.ProjectionSpec) (schemas.GraphHandle, error) {
	params := map[string]any{
		"graphName": spec.GraphName,
		"nodeProjection": map[string]any{
			spec.NodeLabel: map[string]any{
				"label":      spec.NodeLabel,
				"properties": toAnySlice(spec.FeatureProperties),
			},
		},
		"relationshipProjection": map[string]any{
			spec.RelationshipType: map[string]any{
				"type":        spec.RelationshipType,
				"orientation": "UNDIRECTED",
			},
		},
	}

	records, err := c.runner.Run(ctx, projectQuery, params, neo4j.AccessModeWrite)
	if err != nil {
		return schemas.GraphHandle{}, fmt.Errorf("projection of graph %q failed: %w", spec.GraphName, err)
	}

	record, err := singleRecord(records, "graph projection")
	if err != nil {
		return schemas.GraphHandle{}, err
	}
	name, err := stringField(record, "graphName")
	if err != nil {
		return schemas.GraphHandle{}, err
	}
	nodeCount, err := intField(record, "nodeCount")
	if err != nil {
		return schemas.GraphHandle{}, err
	}
	relCount, err := intField(record, "relationshipCount")
	if err != nil {
		return schemas.GraphHandle{}, err
	}

	handle := schemas.GraphHandle{Name: name, NodeCount: nodeCount, RelationshipCount: relCount}
	c.log.Info("Graph view projected",
		zap.String("graph", handle.Name),
		zap.Int64("nodes", handle.NodeCount),
		zap.Int64("relationships", handle.RelationshipCount))
	return handle, nil
}

// TrainSage invokes the server-side GraphSAGE training procedure on a
// projected view. The call blocks until the server finishes training.
func (c *Client) TrainSage(ctx context.Context, graph schemas.GraphHandle, cfg schemas.SageTrainConfig) (schemas.ModelHandle, error) {
	params := map[string]any{
		"graphName":          graph.Name,
		"modelName":          cfg.ModelName,
		"featureProperties":  toAnySlice(cfg.FeatureProperties),
		"aggregator":         cfg.Aggregator,
		"activationFunction": cfg.ActivationFunction,
		"batchSize":          cfg.BatchSize,
		"epochs":             cfg.Epochs,
		"sampleSizes":        intsToAny(cfg.SampleSizes),
		"learningRate":       cfg.LearningRate,
		"embeddingDimension": cfg.EmbeddingDimension,
	}

	records, err := c.runner.Run(ctx, trainQuery, params, neo4j.AccessModeWrite)
	if err != nil {
		return schemas.ModelHandle{}, fmt.Errorf("embedding training on graph %q failed: %w", graph.Name, err)
	}

	record, err := singleRecord(records, "embedding training")
	if err != nil {
		return schemas.ModelHandle{}, err
	}
	trainMillis, err := intField(record, "trainMillis")
	if err != nil {
		return schemas.ModelHandle{}, err
	}

	handle := schemas.ModelHandle{
		Name:        cfg.ModelName,
		TrainedOn:   graph.Name,
		Dimension:   cfg.EmbeddingDimension,
		TrainMillis: trainMillis,
	}
	c.log.Info("Embedding model trained",
		zap.String("model", handle.Name),
		zap.String("graph", handle.TrainedOn),
		zap.Int("dimension", handle.Dimension),
		zap.Int64("train_millis", trainMillis))
	return handle, nil
}

// StreamSage applies a trained model to a projected view, returning one
// embedding per node alongside its role tags. A model name unknown to the
// server fails here; no default embeddings are fabricated.
func (c *Client) StreamSage(ctx context.Context, graph schemas.GraphHandle, model schemas.ModelHandle) (*schemas.Table, error) {
	records, err := c.runner.Run(ctx, streamQuery, map[string]any{
		"graphName":     graph.Name,
		"modelName":     model.Name,
		"classProperty": c.dataset.ClassProperty,
	}, neo4j.AccessModeRead)
	if err != nil {
		return nil, fmt.Errorf("embedding stream of model %q over graph %q failed: %w", model.Name, graph.Name, err)
	}

	table := schemas.NewTable(model.Dimension)
	for i, record := range records {
		sample, err := decodeSample(record)
		if err != nil {
			return nil, fmt.Errorf("embedding stream of model %q: record %d: %w", model.Name, i, err)
		}
		if err := table.Append(sample); err != nil {
			return nil, fmt.Errorf("embedding stream of model %q: %w", model.Name, err)
		}
	}

	c.log.Debug("Materialized embedding table",
		zap.String("graph", graph.Name),
		zap.Int("rows", table.Len()),
		zap.Int("dimension", table.Dimension))
	return table, nil
}

// DropGraph removes a projected view from the server catalog.
func (c *Client) DropGraph(ctx context.Context, graph schemas.GraphHandle) error {
	_, err := c.runner.Run(ctx, dropGraphQuery, map[string]any{"graphName": graph.Name}, neo4j.AccessModeWrite)
	if err != nil {
		return fmt.Errorf("dropping graph %q failed: %w", graph.Name, err)
	}
	return nil
}

// DropModel removes a trained model from the server catalog.
func (c *Client) DropModel(ctx context.Context, model schemas.ModelHandle) error {
	_, err := c.runner.Run(ctx, dropModelQuery, map[string]any{"modelName": model.Name}, neo4j.AccessModeWrite)
	if err != nil {
		return fmt.Errorf("dropping model %q failed: %w", model.Name, err)
	}
	return nil
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func intsToAny(ns []int) []any {
	out := make([]any, len(ns))
	for i, n := range ns {
		out[i] = n
	}
	return out
}
