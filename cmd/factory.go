package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xkilldash9x/protosage/api/schemas"
	"github.com/xkilldash9x/protosage/internal/config"
	"github.com/xkilldash9x/protosage/internal/graphdb"
	"github.com/xkilldash9x/protosage/internal/observability"
	"github.com/xkilldash9x/protosage/internal/pipeline"
	"github.com/xkilldash9x/protosage/internal/store"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

// Components holds the initialized services an evaluation run needs. It
// centralizes lifecycle management so commands only create and release one
// thing.
type Components struct {
	Graph    *graphdb.Client
	History  schemas.RunStore
	Pipeline *pipeline.Pipeline

	dbPool *pgxpool.Pool
}

// Shutdown releases all held connections. Safe to call on a partially
// initialized struct.
func (c *Components) Shutdown() {
	logger := observability.GetLogger()

	if c.Graph != nil {
		// The run's context may already be canceled; give the driver its own.
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := c.Graph.Close(ctx); err != nil {
			logger.Warn("Error closing graph driver", zap.Error(err))
		}
	}

	if c.dbPool != nil {
		c.dbPool.Close()
	}

	logger.Debug("All components shut down.")
}

// ComponentFactory creates the component set for a run. The indirection keeps
// the evaluate command testable without live Neo4j or PostgreSQL instances.
type ComponentFactory interface {
	Create(ctx context.Context, cfg *config.Config) (*Components, error)
}

type concreteFactory struct{}

// NewComponentFactory creates the production component factory.
func NewComponentFactory() ComponentFactory {
	return &concreteFactory{}
}

// Create handles dependency injection for the evaluation pipeline.
func (f *concreteFactory) Create(ctx context.Context, cfg *config.Config) (*Components, error) {
	logger := observability.GetLogger()
	components := &Components{}

	// Release whatever was opened if a later step fails.
	var initializationErr error
	defer func() {
		if initializationErr != nil {
			logger.Warn("Initialization failed, shutting down partially created components.", zap.Error(initializationErr))
			components.Shutdown()
		}
	}()

	graphClient, err := graphdb.New(ctx, cfg.Neo4j, cfg.Dataset, logger)
	if err != nil {
		initializationErr = fmt.Errorf("failed to connect to graph service: %w", err)
		return nil, initializationErr
	}
	components.Graph = graphClient
	logger.Debug("Graph service client initialized.")

	if cfg.History.Enabled {
		dbPool, err := pgxpool.New(ctx, cfg.History.URL)
		if err != nil {
			initializationErr = fmt.Errorf("failed to create history connection pool: %w", err)
			return nil, initializationErr
		}
		components.dbPool = dbPool

		history, err := store.New(ctx, dbPool, logger)
		if err != nil {
			initializationErr = fmt.Errorf("failed to initialize run-history store: %w", err)
			return nil, initializationErr
		}
		components.History = history
		logger.Debug("Run-history store initialized.")
	}

	components.Pipeline = pipeline.New(graphClient, components.History, cfg, logger)

	return components, nil
}
