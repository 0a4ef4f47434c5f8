package graphdb

import (
	"context"
	"errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/protosage/api/schemas"
	"github.com/xkilldash9x/protosage/internal/config"
	"go.uber.org/zap"
)

// fakeRunner plays the graph engine: it records the queries it receives and
// replays canned responses.
type fakeRunner struct {
	lastCypher string
	lastParams map[string]any
	lastMode   neo4j.AccessMode
	records    []*neo4j.Record
	err        error
}

func (f *fakeRunner) Run(ctx context.Context, cypher string, params map[string]any, mode neo4j.AccessMode) ([]*neo4j.Record, error) {
	f.lastCypher = cypher
	f.lastParams = params
	f.lastMode = mode
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func newTestClient(runner queryRunner) *Client {
	return &Client{
		runner:  runner,
		dataset: config.DatasetConfig{ClassProperty: "class"},
		log:     zap.NewNop(),
	}
}

func record(keys []string, values ...any) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}

func sampleRecord(classes any, features any) *neo4j.Record {
	return record([]string{"classes", "features"}, classes, features)
}

func TestFetchFeatures(t *testing.T) {
	ctx := context.Background()

	t.Run("should materialize rows in server order", func(t *testing.T) {
		runner := &fakeRunner{records: []*neo4j.Record{
			sampleRecord([]any{"kinase"}, []any{0.1, 0.2}),
			sampleRecord([]any{"transporter", "kinase"}, []any{0.3, 0.4}),
		}}
		client := newTestClient(runner)

		table, err := client.FetchFeatures(ctx, "Train", []string{"embedding_0", "embedding_1"})
		require.NoError(t, err)
		require.Equal(t, 2, table.Len())
		assert.Equal(t, 2, table.Dimension)
		assert.Equal(t, []string{"kinase"}, table.Rows[0].Classes)
		assert.Equal(t, []float64{0.3, 0.4}, table.Rows[1].Features)
		assert.Equal(t, neo4j.AccessModeRead, runner.lastMode)
		assert.Contains(t, runner.lastCypher, "MATCH (n:`Train`)")
		assert.Equal(t, "class", runner.lastParams["classProperty"])
	})

	t.Run("should accept a single string class tag", func(t *testing.T) {
		runner := &fakeRunner{records: []*neo4j.Record{
			sampleRecord("kinase", []any{1.0}),
		}}
		client := newTestClient(runner)

		table, err := client.FetchFeatures(ctx, "Train", []string{"embedding_0"})
		require.NoError(t, err)
		assert.Equal(t, []string{"kinase"}, table.Rows[0].Classes)
	})

	t.Run("should reject a row whose vector length disagrees with the declared dimension", func(t *testing.T) {
		runner := &fakeRunner{records: []*neo4j.Record{
			sampleRecord([]any{"kinase"}, []any{0.1}),
		}}
		client := newTestClient(runner)

		_, err := client.FetchFeatures(ctx, "Train", []string{"embedding_0", "embedding_1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "length 1")
	})

	t.Run("should reject non-numeric features", func(t *testing.T) {
		runner := &fakeRunner{records: []*neo4j.Record{
			sampleRecord([]any{"kinase"}, []any{"not-a-number"}),
		}}
		client := newTestClient(runner)

		_, err := client.FetchFeatures(ctx, "Train", []string{"embedding_0"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "want number")
	})

	t.Run("should propagate engine errors unchanged in cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		client := newTestClient(&fakeRunner{err: cause})

		_, err := client.FetchFeatures(ctx, "Train", []string{"embedding_0"})
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
	})
}

func TestProject(t *testing.T) {
	ctx := context.Background()

	t.Run("should return server-confirmed counts unchanged", func(t *testing.T) {
		runner := &fakeRunner{records: []*neo4j.Record{
			record([]string{"graphName", "nodeCount", "relationshipCount"}, "train", int64(1000), int64(5000)),
		}}
		client := newTestClient(runner)

		handle, err := client.Project(ctx, schemas.ProjectionSpec{
			GraphName:         "train",
			NodeLabel:         "Train",
			RelationshipType:  "INTERACTS",
			FeatureProperties: FeatureProperties("embedding_", 2),
		})
		require.NoError(t, err)
		assert.Equal(t, "train", handle.Name)
		assert.Equal(t, int64(1000), handle.NodeCount)
		assert.Equal(t, int64(5000), handle.RelationshipCount)
		assert.Equal(t, neo4j.AccessModeWrite, runner.lastMode)
	})

	t.Run("should request an undirected relationship projection", func(t *testing.T) {
		runner := &fakeRunner{records: []*neo4j.Record{
			record([]string{"graphName", "nodeCount", "relationshipCount"}, "train", int64(1), int64(1)),
		}}
		client := newTestClient(runner)

		_, err := client.Project(ctx, schemas.ProjectionSpec{
			GraphName:         "train",
			NodeLabel:         "Train",
			RelationshipType:  "INTERACTS",
			FeatureProperties: []string{"embedding_0"},
		})
		require.NoError(t, err)

		relProjection, ok := runner.lastParams["relationshipProjection"].(map[string]any)
		require.True(t, ok)
		interacts, ok := relProjection["INTERACTS"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "UNDIRECTED", interacts["orientation"])
	})

	t.Run("should fail on a malformed confirmation record", func(t *testing.T) {
		runner := &fakeRunner{records: []*neo4j.Record{
			record([]string{"graphName"}, "train"),
		}}
		client := newTestClient(runner)

		_, err := client.Project(ctx, schemas.ProjectionSpec{GraphName: "train"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing column")
	})
}

func TestTrainSage(t *testing.T) {
	ctx := context.Background()

	t.Run("should bind the model handle to the training graph", func(t *testing.T) {
		runner := &fakeRunner{records: []*neo4j.Record{
			record([]string{"modelInfo", "trainMillis"}, map[string]any{"modelName": "proteinModel"}, int64(4200)),
		}}
		client := newTestClient(runner)

		graph := schemas.GraphHandle{Name: "train", NodeCount: 10, RelationshipCount: 20}
		model, err := client.TrainSage(ctx, graph, schemas.SageTrainConfig{
			ModelName:          "proteinModel",
			EmbeddingDimension: 64,
			Aggregator:         "mean",
			ActivationFunction: "sigmoid",
			BatchSize:          256,
			Epochs:             10,
			SampleSizes:        []int{25, 10},
			LearningRate:       0.01,
			FeatureProperties:  []string{"embedding_0"},
		})
		require.NoError(t, err)
		assert.Equal(t, "proteinModel", model.Name)
		assert.Equal(t, "train", model.TrainedOn)
		assert.Equal(t, 64, model.Dimension)
		assert.Equal(t, int64(4200), model.TrainMillis)

		assert.Equal(t, "mean", runner.lastParams["aggregator"])
		assert.Equal(t, []any{25, 10}, runner.lastParams["sampleSizes"])
	})
}

func TestStreamSage(t *testing.T) {
	ctx := context.Background()

	t.Run("should surface a missing-model failure instead of defaults", func(t *testing.T) {
		cause := errors.New("Model with name `proteinModel` does not exist")
		client := newTestClient(&fakeRunner{err: cause})

		_, err := client.StreamSage(ctx,
			schemas.GraphHandle{Name: "test"},
			schemas.ModelHandle{Name: "proteinModel", Dimension: 64})
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("should enforce the model dimension on streamed rows", func(t *testing.T) {
		runner := &fakeRunner{records: []*neo4j.Record{
			sampleRecord([]any{"kinase"}, []any{0.5, 0.6, 0.7}),
		}}
		client := newTestClient(runner)

		table, err := client.StreamSage(ctx,
			schemas.GraphHandle{Name: "test"},
			schemas.ModelHandle{Name: "proteinModel", Dimension: 3})
		require.NoError(t, err)
		require.Equal(t, 1, table.Len())
		assert.Equal(t, 3, table.Dimension)

		// Same stream against a model that claims a different dimension must fail.
		_, err = client.StreamSage(ctx,
			schemas.GraphHandle{Name: "test"},
			schemas.ModelHandle{Name: "proteinModel", Dimension: 4})
		require.Error(t, err)
	})
}

func TestDropCleanup(t *testing.T) {
	ctx := context.Background()

	t.Run("should drop graphs and models by handle name", func(t *testing.T) {
		runner := &fakeRunner{}
		client := newTestClient(runner)

		require.NoError(t, client.DropGraph(ctx, schemas.GraphHandle{Name: "train"}))
		assert.Equal(t, "train", runner.lastParams["graphName"])

		require.NoError(t, client.DropModel(ctx, schemas.ModelHandle{Name: "proteinModel"}))
		assert.Equal(t, "proteinModel", runner.lastParams["modelName"])
	})
}
