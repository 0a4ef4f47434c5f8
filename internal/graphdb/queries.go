package graphdb

import (
	"fmt"
	"strconv"
	"strings"
)

// FeatureProperties enumerates the ordered scalar node-property names the
// dataset stores its feature vector under, e.g. embedding_0 … embedding_49
// for ("embedding_", 50). The same list is declared at projection, training
// and inference time.
func FeatureProperties(prefix string, count int) []string {
	props := make([]string, count)
	for i := 0; i < count; i++ {
		props[i] = prefix + strconv.Itoa(i)
	}
	return props
}

// fetchFeaturesQuery reads role tags plus the feature vector for every node
// carrying the partition label. Labels cannot be query parameters, so the
// label is escaped and interpolated; everything else is parameterized.
func fetchFeaturesQuery(nodeLabel string) string {
	return fmt.Sprintf(`
		MATCH (n:%s)
		RETURN n[$classProperty] AS classes,
		       [key IN $featureProperties | n[key]] AS features`,
		escapeLabel(nodeLabel))
}

// escapeLabel backticks a label or relationship type for safe interpolation.
func escapeLabel(label string) string {
	return "`" + strings.ReplaceAll(label, "`", "``") + "`"
}

const projectQuery = `
	CALL gds.graph.project($graphName, $nodeProjection, $relationshipProjection)
	YIELD graphName, nodeCount, relationshipCount
	RETURN graphName, nodeCount, relationshipCount`

const trainQuery = `
	CALL gds.beta.graphSage.train($graphName, {
		modelName:          $modelName,
		featureProperties:  $featureProperties,
		aggregator:         $aggregator,
		activationFunction: $activationFunction,
		batchSize:          $batchSize,
		epochs:             $epochs,
		sampleSizes:        $sampleSizes,
		learningRate:       $learningRate,
		embeddingDimension: $embeddingDimension
	})
	YIELD modelInfo, trainMillis
	RETURN modelInfo, trainMillis`

const streamQuery = `
	CALL gds.beta.graphSage.stream($graphName, { modelName: $modelName })
	YIELD nodeId, embedding
	RETURN gds.util.asNode(nodeId)[$classProperty] AS classes,
	       embedding AS features`

const dropGraphQuery = `
	CALL gds.graph.drop($graphName, false)
	YIELD graphName
	RETURN graphName`

const dropModelQuery = `
	CALL gds.beta.model.drop($modelName)
	YIELD modelInfo
	RETURN modelInfo`
