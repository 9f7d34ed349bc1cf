package graph

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ============================================================================
// Statement Operations
// ============================================================================

// StatementsByHashes loads statements in the order of hashes. When
// evidenceLimit is positive up to that many evidences are attached to each
// statement; database evidences are dropped unless includeDBEvidence is set.
// The second return value maps every found hash to its evidence count.
func (r *Repository) StatementsByHashes(ctx context.Context, hashes []int64, evidenceLimit int, includeDBEvidence bool) ([]Statement, map[int64]int, error) {
	if len(hashes) == 0 {
		return []Statement{}, map[int64]int{}, nil
	}

	rows, err := r.QueryTx(ctx, statementsByHashesQuery, map[string]interface{}{
		"hashes": int64sToInterfaces(hashes),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get statements: %w", err)
	}

	byHash := make(map[int64]Statement, len(rows))
	for _, row := range rows {
		counts, err := parseSourceCounts(valueAt(row, 5))
		if err != nil {
			r.logger.Warn("Skipping statement with unreadable source counts",
				zap.Int64("hash", int64At(row, 0)),
				zap.Error(err),
			)
			continue
		}
		stmt := Statement{
			Hash:          int64At(row, 0),
			Type:          stringAt(row, 1),
			JSON:          stringAt(row, 2),
			EvidenceCount: int(int64At(row, 3)),
			Belief:        float64At(row, 4),
			SourceCounts:  counts,
		}
		byHash[stmt.Hash] = stmt
	}
	if len(byHash) == 0 {
		return nil, nil, ErrStatementNotFound{Hashes: hashes}
	}

	var evidences map[int64][]Evidence
	if evidenceLimit > 0 {
		evidences, err = r.EvidencesForHashes(ctx, hashes, evidenceLimit, includeDBEvidence)
		if err != nil {
			return nil, nil, err
		}
	}

	stmts := make([]Statement, 0, len(byHash))
	counts := make(map[int64]int, len(byHash))
	seen := make(map[int64]bool, len(byHash))
	for _, h := range hashes {
		stmt, ok := byHash[h]
		if !ok || seen[h] {
			continue
		}
		seen[h] = true
		stmt.Evidences = evidences[h]
		stmts = append(stmts, stmt)
		counts[h] = stmt.EvidenceCount
	}
	return stmts, counts, nil
}

// EvidencesForHashes returns up to limit evidences per statement hash. A
// non-positive limit returns all of them.
func (r *Repository) EvidencesForHashes(ctx context.Context, hashes []int64, limit int, includeDBEvidence bool) (map[int64][]Evidence, error) {
	out := make(map[int64][]Evidence, len(hashes))
	if len(hashes) == 0 {
		return out, nil
	}

	rows, err := r.QueryTx(ctx, evidencesForHashesQuery, map[string]interface{}{
		"hashes": int64sToInterfaces(hashes),
		"limit":  int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get evidences: %w", err)
	}

	for _, row := range rows {
		ev := Evidence{
			StmtHash:   int64At(row, 0),
			SourceHash: int64At(row, 1),
			SourceAPI:  stringAt(row, 2),
			JSON:       stringAt(row, 3),
		}
		if !includeDBEvidence && IsDatabaseSource(ev.SourceAPI) {
			continue
		}
		out[ev.StmtHash] = append(out[ev.StmtHash], ev)
	}
	return out, nil
}

// SourceCountsForHashes returns source counts for the given statements.
func (r *Repository) SourceCountsForHashes(ctx context.Context, hashes []int64) (map[int64]SourceCounts, error) {
	if len(hashes) == 0 {
		return map[int64]SourceCounts{}, nil
	}
	rows, err := r.QueryTx(ctx, sourceCountsForHashesQuery, map[string]interface{}{
		"hashes": int64sToInterfaces(hashes),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get source counts: %w", err)
	}
	return sourceCountRows(rows)
}

func valueAt(row []interface{}, i int) interface{} {
	if i >= len(row) {
		return nil
	}
	return row[i]
}
