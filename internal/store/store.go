package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/xkilldash9x/protosage/api/schemas"
	"go.uber.org/zap"
)

// DBPool abstracts pgxpool.Pool so the store can be exercised against a mock.
type DBPool interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// Store persists evaluation reports to PostgreSQL.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

const schemaSQL = `
    CREATE TABLE IF NOT EXISTS evaluation_runs (
        run_id                  TEXT PRIMARY KEY,
        started_at              TIMESTAMPTZ NOT NULL,
        completed_at            TIMESTAMPTZ NOT NULL,
        model_name              TEXT NOT NULL,
        baseline_f1             DOUBLE PRECISION NOT NULL,
        baseline_dimension      INTEGER NOT NULL,
        embedding_f1            DOUBLE PRECISION NOT NULL,
        embedding_dimension     INTEGER NOT NULL,
        train_samples           INTEGER NOT NULL,
        test_samples            INTEGER NOT NULL,
        train_graph             TEXT NOT NULL,
        test_graph              TEXT NOT NULL,
        train_node_count        BIGINT NOT NULL,
        train_relationship_count BIGINT NOT NULL,
        train_millis            BIGINT NOT NULL
    );
`

const insertRunSQL = `
    INSERT INTO evaluation_runs (
        run_id, started_at, completed_at, model_name,
        baseline_f1, baseline_dimension, embedding_f1, embedding_dimension,
        train_samples, test_samples,
        train_graph, test_graph, train_node_count, train_relationship_count,
        train_millis
    ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
`

const listRunsSQL = `
    SELECT run_id, started_at, completed_at, model_name,
        baseline_f1, baseline_dimension, embedding_f1, embedding_dimension,
        train_samples, test_samples,
        train_graph, test_graph, train_node_count, train_relationship_count,
        train_millis
    FROM evaluation_runs
    ORDER BY started_at DESC
    LIMIT $1;
`

// New verifies the connection and ensures the runs table exists.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to ensure runs table: %w", err)
	}

	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

// SaveReport inserts a completed evaluation report as a single run row.
func (s *Store) SaveReport(ctx context.Context, report *schemas.EvaluationReport) error {
	tag, err := s.pool.Exec(ctx, insertRunSQL,
		report.RunID, report.StartedAt, report.CompletedAt, report.ModelName,
		report.BaselineF1, report.BaselineDimension, report.EmbeddingF1, report.EmbeddingDimension,
		report.TrainSamples, report.TestSamples,
		report.TrainGraph.Name, report.TestGraph.Name,
		report.TrainGraph.NodeCount, report.TrainGraph.RelationshipCount,
		report.TrainMillis,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", report.RunID, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("unexpected rows affected inserting run %s: %d", report.RunID, tag.RowsAffected())
	}

	s.log.Debug("Persisted evaluation run", zap.String("run_id", report.RunID))
	return nil
}

// ListReports returns the most recent runs, newest first.
func (s *Store) ListReports(ctx context.Context, limit int) ([]schemas.EvaluationReport, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx, listRunsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var reports []schemas.EvaluationReport
	for rows.Next() {
		var r schemas.EvaluationReport
		err := rows.Scan(
			&r.RunID, &r.StartedAt, &r.CompletedAt, &r.ModelName,
			&r.BaselineF1, &r.BaselineDimension, &r.EmbeddingF1, &r.EmbeddingDimension,
			&r.TrainSamples, &r.TestSamples,
			&r.TrainGraph.Name, &r.TestGraph.Name,
			&r.TrainGraph.NodeCount, &r.TrainGraph.RelationshipCount,
			&r.TrainMillis,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		reports = append(reports, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	return reports, nil
}

var _ schemas.RunStore = (*Store)(nil)
