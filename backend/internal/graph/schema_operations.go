package graph

import (
	"context"

	"go.uber.org/zap"
)

// ============================================================================
// Schema Operations
// ============================================================================

// schemaStatements are idempotent; each may fail on older servers without
// aborting the rest.
var schemaStatements = []string{
	"CREATE CONSTRAINT bioentity_id_unique IF NOT EXISTS FOR (n:BioEntity) REQUIRE n.id IS UNIQUE",
	"CREATE CONSTRAINT evidence_hash_unique IF NOT EXISTS FOR (e:Evidence) REQUIRE e.source_hash IS UNIQUE",
	"CREATE INDEX evidence_stmt_hash IF NOT EXISTS FOR (e:Evidence) ON (e.stmt_hash)",
	"CREATE INDEX publication_id IF NOT EXISTS FOR (p:Publication) ON (p.id)",
	"CREATE INDEX indra_rel_stmt_hash IF NOT EXISTS FOR ()-[r:indra_rel]-() ON (r.stmt_hash)",
}

// EnsureSchema creates the constraints and indexes the read queries rely on.
// It returns the number of statements that failed.
func (r *Repository) EnsureSchema(ctx context.Context) int {
	failed := 0
	for _, stmt := range schemaStatements {
		if err := r.writeTx(ctx, stmt, nil); err != nil {
			r.logger.Warn("Failed to apply schema statement",
				zap.String("statement", stmt),
				zap.Error(err),
			)
			failed++
		}
	}
	r.logger.Info("Schema ensured", zap.Int("statements", len(schemaStatements)), zap.Int("failed", failed))
	return failed
}
