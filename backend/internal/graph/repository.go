package graph

import (
	"context"
	"fmt"
	"time"

	"cogex/backend/pkg/config"
	apperrors "cogex/backend/pkg/errors"
	"cogex/backend/pkg/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("cogex/graph")

// QueryRunner runs a read query and returns the values of every record.
type QueryRunner interface {
	QueryTx(ctx context.Context, query string, params map[string]interface{}) ([][]interface{}, error)
}

// Repository handles all Neo4j database operations
type Repository struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
}

// NewDriver creates a Neo4j driver from config and verifies connectivity.
func NewDriver(ctx context.Context, cfg *config.Config) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
		func(c *neo4j.Config) {
			c.MaxConnectionPoolSize = cfg.Neo4jMaxPoolSize
			c.SocketConnectTimeout = cfg.Neo4jTimeout
		},
	)
	if err != nil {
		return nil, apperrors.NewGraphConnectionFailed(cfg.Neo4jURI, err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, cfg.Neo4jTimeout)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, apperrors.NewGraphConnectionFailed(cfg.Neo4jURI, err)
	}
	return driver, nil
}

// NewRepository creates a new graph repository
func NewRepository(driver neo4j.DriverWithContext, database string) *Repository {
	return &Repository{
		driver:   driver,
		database: database,
		logger:   logger.Get().With(zap.String("component", "graph")),
	}
}

// Close closes the Neo4j driver connection
func (r *Repository) Close() error {
	return r.driver.Close(context.Background())
}

func (r *Repository) newSession(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: r.database})
}

// QueryTx runs query in a read transaction and returns the values of every record.
func (r *Repository) QueryTx(ctx context.Context, query string, params map[string]interface{}) ([][]interface{}, error) {
	ctx, span := tracer.Start(ctx, "graph.QueryTx")
	defer span.End()

	session := r.newSession(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	start := time.Now()
	rows, err := neo4j.ExecuteRead(ctx, session, func(tx neo4j.ManagedTransaction) ([][]interface{}, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		var rows [][]interface{}
		for result.Next(ctx) {
			rows = append(rows, result.Record().Values)
		}
		return rows, result.Err()
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		if ctx.Err() != nil {
			return nil, apperrors.NewContextCancelled("graph query", err)
		}
		return nil, apperrors.NewGraphQueryFailed(query, err)
	}

	span.SetAttributes(attribute.Int("graph.rows", len(rows)))
	r.logger.Debug("Query finished",
		zap.Int("rows", len(rows)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return rows, nil
}

// writeTx runs query in a write transaction, discarding the records.
func (r *Repository) writeTx(ctx context.Context, query string, params map[string]interface{}) error {
	ctx, span := tracer.Start(ctx, "graph.writeTx")
	defer span.End()

	session := r.newSession(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := neo4j.ExecuteWrite(ctx, session, func(tx neo4j.ManagedTransaction) (struct{}, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return struct{}{}, err
		}
		_, err = result.Consume(ctx)
		return struct{}{}, err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
		return fmt.Errorf("failed to execute write: %w", apperrors.NewGraphQueryFailed(query, err))
	}
	return nil
}
