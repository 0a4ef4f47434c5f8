package graphdb

import (
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/xkilldash9x/protosage/api/schemas"
)

// Every query in this package has a fixed result schema; decoding fails
// fast on a missing column or an unexpected type instead of papering over
// it with zero values.

func singleRecord(records []*neo4j.Record, op string) (*neo4j.Record, error) {
	if len(records) != 1 {
		return nil, fmt.Errorf("%s: expected exactly one result record, got %d", op, len(records))
	}
	return records[0], nil
}

func stringField(record *neo4j.Record, key string) (string, error) {
	raw, ok := record.Get(key)
	if !ok {
		return "", fmt.Errorf("result schema mismatch: missing column %q", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("result schema mismatch: column %q is %T, want string", key, raw)
	}
	return s, nil
}

func intField(record *neo4j.Record, key string) (int64, error) {
	raw, ok := record.Get(key)
	if !ok {
		return 0, fmt.Errorf("result schema mismatch: missing column %q", key)
	}
	n, ok := raw.(int64)
	if !ok {
		return 0, fmt.Errorf("result schema mismatch: column %q is %T, want int64", key, raw)
	}
	return n, nil
}

// decodeSample decodes a (classes, features) row. Role tags may be stored
// as a single string or a list of strings; the feature column must be a
// list of numbers.
func decodeSample(record *neo4j.Record) (schemas.Sample, error) {
	rawClasses, ok := record.Get("classes")
	if !ok {
		return schemas.Sample{}, fmt.Errorf("result schema mismatch: missing column %q", "classes")
	}
	classes, err := decodeClasses(rawClasses)
	if err != nil {
		return schemas.Sample{}, err
	}

	rawFeatures, ok := record.Get("features")
	if !ok {
		return schemas.Sample{}, fmt.Errorf("result schema mismatch: missing column %q", "features")
	}
	features, err := decodeVector(rawFeatures)
	if err != nil {
		return schemas.Sample{}, err
	}

	return schemas.Sample{Classes: classes, Features: features}, nil
}

func decodeClasses(raw any) ([]string, error) {
	switch v := raw.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		classes := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("class tag %d is %T, want string", i, item)
			}
			classes[i] = s
		}
		return classes, nil
	default:
		return nil, fmt.Errorf("class column is %T, want string or list of strings", raw)
	}
}

func decodeVector(raw any) ([]float64, error) {
	switch v := raw.(type) {
	case []float64:
		return v, nil
	case []any:
		vector := make([]float64, len(v))
		for i, item := range v {
			switch n := item.(type) {
			case float64:
				vector[i] = n
			case int64:
				vector[i] = float64(n)
			default:
				return nil, fmt.Errorf("feature %d is %T, want number", i, item)
			}
		}
		return vector, nil
	default:
		return nil, fmt.Errorf("feature column is %T, want list of numbers", raw)
	}
}
