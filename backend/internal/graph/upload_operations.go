package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// ============================================================================
// Upload Operations
// ============================================================================

// UpsertNodes merges nodes on their CURIE, one write per distinct label set.
func (r *Repository) UpsertNodes(ctx context.Context, nodes []Node) error {
	groups := make(map[string][]interface{})
	for _, n := range nodes {
		labels := n.Labels()
		for _, label := range labels {
			if !isIdentifier(label) {
				return fmt.Errorf("invalid node label %q", label)
			}
		}
		sort.Strings(labels)
		key := strings.Join(labels, ":")
		groups[key] = append(groups[key], map[string]interface{}{
			"id":   n.CURIE(),
			"data": n.Data(),
		})
	}

	for key, batch := range groups {
		setLabels := ""
		if key != "" {
			setLabels = ", n:" + key
		}
		query := fmt.Sprintf(upsertNodesQuery, setLabels)
		if err := r.writeTx(ctx, query, map[string]interface{}{"nodes": batch}); err != nil {
			return fmt.Errorf("failed to upsert nodes: %w", err)
		}
		r.logger.Debug("Upserted nodes", zap.String("labels", key), zap.Int("count", len(batch)))
	}
	return nil
}

// UpsertRelations merges relations between existing nodes, one write per
// relation type.
func (r *Repository) UpsertRelations(ctx context.Context, rels []Relation) error {
	groups := make(map[string][]interface{})
	for _, rel := range rels {
		if !isIdentifier(rel.RelType) {
			return fmt.Errorf("invalid relation type %q", rel.RelType)
		}
		groups[rel.RelType] = append(groups[rel.RelType], map[string]interface{}{
			"source": rel.SourceNs + ":" + rel.SourceID,
			"target": rel.TargetNs + ":" + rel.TargetID,
			"data":   copyData(rel.Data),
		})
	}

	for relType, batch := range groups {
		query := fmt.Sprintf(upsertRelationsQuery, relType)
		if err := r.writeTx(ctx, query, map[string]interface{}{"rels": batch}); err != nil {
			return fmt.Errorf("failed to upsert %s relations: %w", relType, err)
		}
		r.logger.Debug("Upserted relations", zap.String("type", relType), zap.Int("count", len(batch)))
	}
	return nil
}
