package schemas

import "context"

// GraphHandle identifies an in-memory graph projection held by the graph
// service's catalog. Handles are only minted by the projection call, so a
// consuming call can never be handed a name that was not actually created.
type GraphHandle struct {
	Name              string `json:"name"`
	NodeCount         int64  `json:"node_count"`
	RelationshipCount int64  `json:"relationship_count"`
}

// ModelHandle identifies a trained embedding model in the service catalog.
// Dimension records the embedding size the model was trained to produce;
// TrainMillis is the server-reported training duration.
type ModelHandle struct {
	Name        string `json:"name"`
	TrainedOn   string `json:"trained_on"`
	Dimension   int    `json:"dimension"`
	TrainMillis int64  `json:"train_millis"`
}

// ProjectionSpec describes one undirected in-memory graph view to create.
// FeatureProperties enumerates the scalar node properties the view carries;
// the same list must be declared at training and at inference time.
type ProjectionSpec struct {
	GraphName         string
	NodeLabel         string
	RelationshipType  string
	FeatureProperties []string
}

// SageTrainConfig is the fixed hyperparameter set handed to the external
// GraphSAGE training procedure. Training mechanics belong entirely to the
// graph service; this struct only names them.
type SageTrainConfig struct {
	ModelName          string
	EmbeddingDimension int
	Aggregator         string
	ActivationFunction string
	BatchSize          int
	Epochs             int
	SampleSizes        []int
	LearningRate       float64
	FeatureProperties  []string
}

// GraphAnalytics is the request/response contract with the external graph
// engine. Every method is a one-shot blocking call; failures propagate
// wrapped, never retried.
type GraphAnalytics interface {
	// FetchFeatures reads role tags and the raw feature vector for every
	// node carrying the given label, materialized in server order.
	FetchFeatures(ctx context.Context, nodeLabel string, featureProperties []string) (*Table, error)

	// Project materializes an undirected in-memory graph view and returns a
	// handle carrying the server-confirmed node and relationship counts.
	Project(ctx context.Context, spec ProjectionSpec) (GraphHandle, error)

	// TrainSage trains an embedding model on the given view and binds it to
	// the configured name.
	TrainSage(ctx context.Context, graph GraphHandle, cfg SageTrainConfig) (ModelHandle, error)

	// StreamSage applies a trained model to a view, yielding one embedding
	// per node alongside its role tags.
	StreamSage(ctx context.Context, graph GraphHandle, model ModelHandle) (*Table, error)

	// DropGraph and DropModel release catalog state created by this run.
	// Both are best-effort cleanup hooks.
	DropGraph(ctx context.Context, graph GraphHandle) error
	DropModel(ctx context.Context, model ModelHandle) error
}

// RunStore persists evaluation reports for later inspection.
type RunStore interface {
	SaveReport(ctx context.Context, report *EvaluationReport) error
	ListReports(ctx context.Context, limit int) ([]EvaluationReport, error)
}
