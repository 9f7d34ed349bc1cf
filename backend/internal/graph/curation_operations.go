package graph

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// ============================================================================
// Curation Candidate Operations
// ============================================================================

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func isIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// BuildSourceCountQuery renders the Cypher query and parameters for f.
func BuildSourceCountQuery(f SourceCountFilter) (string, map[string]interface{}, error) {
	params := map[string]interface{}{}
	var b strings.Builder
	b.WriteString("MATCH (a:BioEntity)-[r:indra_rel]->(b:BioEntity)\nWHERE true")

	if len(f.StmtTypes) > 0 {
		b.WriteString("\n  AND r.stmt_type IN $stmt_types")
		params["stmt_types"] = f.StmtTypes
	}
	if f.SubjectCURIE != "" {
		b.WriteString("\n  AND a.id = $subject_curie")
		params["subject_curie"] = f.SubjectCURIE
	}
	if f.ObjectCURIE != "" {
		b.WriteString("\n  AND b.id = $object_curie")
		params["object_curie"] = f.ObjectCURIE
	}
	if f.SubjectPrefix != "" {
		b.WriteString("\n  AND a.id STARTS WITH $subject_prefix")
		params["subject_prefix"] = f.SubjectPrefix + ":"
	}
	if f.ObjectPrefix != "" {
		b.WriteString("\n  AND b.id STARTS WITH $object_prefix")
		params["object_prefix"] = f.ObjectPrefix + ":"
	}
	if f.SubjectFlag != "" {
		if !isIdentifier(f.SubjectFlag) {
			return "", nil, fmt.Errorf("invalid subject flag %q", f.SubjectFlag)
		}
		fmt.Fprintf(&b, "\n  AND a.%s = true", f.SubjectFlag)
	}
	if !f.IncludeDBEvidence {
		b.WriteString("\n  AND r.has_reader_evidence")
	}
	if clause := MinimumEvidenceClause(f.MinimumEvidenceCount, "r"); clause != "" {
		b.WriteString("\n  " + clause)
	}
	if clause := MinimumBeliefClause(f.MinimumBelief, "r"); clause != "" {
		b.WriteString("\n  " + clause)
	}

	b.WriteString("\nRETURN DISTINCT r.stmt_hash, r.source_counts, r.evidence_count")
	b.WriteString("\nORDER BY r.evidence_count DESC")
	if f.Limit > 0 {
		b.WriteString("\nLIMIT $limit")
		params["limit"] = int64(f.Limit)
	}
	return b.String(), params, nil
}

// SourceCounts returns source counts for every statement matching f.
func (r *Repository) SourceCounts(ctx context.Context, f SourceCountFilter) (map[int64]SourceCounts, error) {
	query, params, err := BuildSourceCountQuery(f)
	if err != nil {
		return nil, err
	}
	rows, err := r.QueryTx(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get source counts: %w", err)
	}
	return sourceCountRows(rows)
}

// SourceCountsForPaper returns source counts of statements with evidence from
// the publication identified by curie, e.g. "pubmed:34915".
func (r *Repository) SourceCountsForPaper(ctx context.Context, curie string, includeDBEvidence bool) (map[int64]SourceCounts, error) {
	rows, err := r.QueryTx(ctx, sourceCountsForPaperQuery, map[string]interface{}{
		"paper":      curie,
		"include_db": includeDBEvidence,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get source counts for paper %s: %w", curie, err)
	}
	return sourceCountRows(rows)
}

// SourceCountsForMeSH returns source counts of statements from publications
// annotated with the MeSH term or one of its descendants. Empty prefixes
// disable the subject / object namespace filter.
func (r *Repository) SourceCountsForMeSH(ctx context.Context, mesh, subjectPrefix, objectPrefix string, includeDBEvidence bool) (map[int64]SourceCounts, error) {
	params := map[string]interface{}{
		"mesh":           mesh,
		"subject_prefix": "",
		"object_prefix":  "",
		"include_db":     includeDBEvidence,
	}
	if subjectPrefix != "" {
		params["subject_prefix"] = subjectPrefix + ":"
	}
	if objectPrefix != "" {
		params["object_prefix"] = objectPrefix + ":"
	}
	rows, err := r.QueryTx(ctx, sourceCountsForMeSHQuery, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get source counts for %s: %w", mesh, err)
	}
	return sourceCountRows(rows)
}

// SourceCountsForGOTerm returns source counts of statements between genes
// annotated with the GO term.
func (r *Repository) SourceCountsForGOTerm(ctx context.Context, goTerm string, includeDBEvidence bool) (map[int64]SourceCounts, error) {
	rows, err := r.QueryTx(ctx, sourceCountsForGOTermQuery, map[string]interface{}{
		"go":         goTerm,
		"include_db": includeDBEvidence,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get source counts for %s: %w", goTerm, err)
	}
	return sourceCountRows(rows)
}
