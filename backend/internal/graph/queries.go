package graph

import (
	"fmt"
	"strconv"
)

// Statement queries
const (
	statementsByHashesQuery = `
MATCH ()-[r:indra_rel]->()
WHERE r.stmt_hash IN $hashes
RETURN DISTINCT r.stmt_hash, r.stmt_type, r.stmt_json, r.evidence_count, r.belief, r.source_counts`

	evidencesForHashesQuery = `
UNWIND $hashes AS h
MATCH (e:Evidence {stmt_hash: h})
WITH h, collect(e) AS evs
UNWIND (CASE WHEN $limit > 0 THEN evs[..$limit] ELSE evs END) AS e
RETURN h, e.source_hash, e.source_api, e.evidence`

	sourceCountsForHashesQuery = `
MATCH ()-[r:indra_rel]->()
WHERE r.stmt_hash IN $hashes
RETURN DISTINCT r.stmt_hash, r.source_counts`
)

// Curation candidate queries
const (
	sourceCountsForPaperQuery = `
MATCH (p:Publication {id: $paper})<-[:has_citation]-(e:Evidence)
WITH DISTINCT e.stmt_hash AS h
MATCH ()-[r:indra_rel {stmt_hash: h}]->()
WHERE $include_db OR r.has_reader_evidence
RETURN DISTINCT r.stmt_hash, r.source_counts`

	sourceCountsForMeSHQuery = `
MATCH (m:BioEntity {id: $mesh})
MATCH (c:BioEntity)-[:isa*0..]->(m)
WITH DISTINCT c
MATCH (p:Publication)-[:annotated_with]->(c)
WITH DISTINCT p
MATCH (p)<-[:has_citation]-(e:Evidence)
WITH DISTINCT e.stmt_hash AS h
MATCH (a:BioEntity)-[r:indra_rel {stmt_hash: h}]->(b:BioEntity)
WHERE ($subject_prefix = '' OR a.id STARTS WITH $subject_prefix)
  AND ($object_prefix = '' OR b.id STARTS WITH $object_prefix)
  AND ($include_db OR r.has_reader_evidence)
RETURN DISTINCT r.stmt_hash, r.source_counts`

	sourceCountsForGOTermQuery = `
MATCH (g:BioEntity)-[:associated_with]->(:BioEntity {id: $go})
WITH collect(DISTINCT g) AS genes
UNWIND genes AS a
MATCH (a)-[r:indra_rel]->(b:BioEntity)
WHERE b IN genes AND ($include_db OR r.has_reader_evidence)
RETURN DISTINCT r.stmt_hash, r.source_counts`
)

// Ontology and gene lookup queries
const (
	descendantsQuery = `
MATCH (child:BioEntity)-[:isa|partof*1..]->(:BioEntity {id: $curie})
RETURN DISTINCT child.id`

	humanSymbolsQuery = `
MATCH (g:BioEntity)
WHERE g.id STARTS WITH 'hgnc:' AND g.name IN $names
RETURN g.name, g.id`

	// Mouse and rat genes are mapped to HGNC through orthology cross-references.
	orthologSymbolsQuery = `
MATCH (o:BioEntity)-[:xref]-(g:BioEntity)
WHERE o.id STARTS WITH $prefix AND o.name IN $names AND g.id STARTS WITH 'hgnc:'
RETURN o.name, g.id`
)

// Upload queries. Labels and relation types cannot be parameters, so they are
// validated with isIdentifier before being spliced in.
const (
	upsertNodesQuery = `
UNWIND $nodes AS node
MERGE (n:BioEntity {id: node.id})
SET n += node.data%s`

	upsertRelationsQuery = `
UNWIND $rels AS rel
MATCH (s:BioEntity {id: rel.source}), (t:BioEntity {id: rel.target})
MERGE (s)-[r:%s]->(t)
SET r += rel.data`
)

// MinimumEvidenceClause returns a Cypher WHERE fragment requiring at least n
// evidences on the relation bound to name. It is empty when n <= 1.
func MinimumEvidenceClause(n int, name string) string {
	if n <= 1 {
		return ""
	}
	return fmt.Sprintf("AND %s.evidence_count >= %d", name, n)
}

// MinimumBeliefClause returns a Cypher WHERE fragment requiring belief >= b on
// the relation bound to name. It is empty when b <= 0.
func MinimumBeliefClause(b float64, name string) string {
	if b <= 0 {
		return ""
	}
	return fmt.Sprintf("AND %s.belief >= %s", name, strconv.FormatFloat(b, 'f', -1, 64))
}
