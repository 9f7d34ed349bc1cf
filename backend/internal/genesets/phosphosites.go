package genesets

import (
	"context"
	"encoding/json"
	"strings"

	apperrors "cogex/backend/pkg/errors"
)

const kinaseSubstratesQuery = `
MATCH (kinase:BioEntity)-[r:indra_rel]->(substrate:BioEntity)
WHERE kinase.is_kinase = true
  AND substrate.id STARTS WITH "hgnc"
  AND r.stmt_type = "Phosphorylation"
RETURN kinase.id, kinase.name, collect([substrate.name, r.stmt_json, r.belief, r.evidence_count])`

var kinaseSubstrates = Source{Name: "kinase", CacheKey: "kinase_phosphosites", Query: kinaseSubstratesQuery, Weighted: true}

// Phosphosite formats a substrate site as "GENE-RESIDUEPOSITION", for example
// "MAPK1-T202".
func Phosphosite(gene, residue, position string) string {
	return strings.ToUpper(strings.TrimSpace(gene)) + "-" + strings.ToUpper(residue) + position
}

// ParsePhosphosite normalizes an entry of the form GENE-SITE, where SITE is a
// residue letter followed by a position. ok is false for anything else.
func ParsePhosphosite(entry string) (string, bool) {
	entry = strings.TrimSpace(entry)
	i := strings.LastIndex(entry, "-")
	if i <= 0 || i == len(entry)-1 {
		return "", false
	}
	gene, site := entry[:i], strings.ToUpper(entry[i+1:])
	residue := site[0]
	if residue < 'A' || residue > 'Z' || len(site) < 2 {
		return "", false
	}
	for _, r := range site[1:] {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return Phosphosite(gene, string(residue), site[1:]), true
}

// KinaseSubstrates maps each kinase to the phosphosites it phosphorylates,
// thresholded with thr.
func (c *Collector) KinaseSubstrates(ctx context.Context, thr Thresholds) (Mapping, error) {
	weighted, err := c.collectConfidence(ctx, kinaseSubstrates.CacheKey, kinaseSubstrates.Query, kinaseFromRows)
	if err != nil {
		return nil, err
	}
	return Threshold(weighted, thr), nil
}

// phosphorylation holds the site fields of a Phosphorylation statement.
type phosphorylation struct {
	Residue  string `json:"residue"`
	Position string `json:"position"`
}

// kinaseFromRows reads rows of (curie, name, [[substrate name, statement
// json, belief, evidence count]]). Statements without a site are skipped.
func kinaseFromRows(rows [][]interface{}) (ConfidenceMapping, error) {
	out := make(ConfidenceMapping, len(rows))
	for i, row := range rows {
		key, err := keyFromRow(row, i)
		if err != nil {
			return nil, err
		}
		items, ok := row[2].([]interface{})
		if !ok && row[2] != nil {
			return nil, apperrors.NewGraphMalformedRow(i, "substrates column is not a list")
		}
		sites, exists := out[key]
		if !exists {
			sites = make(map[string]Confidence, len(items))
			out[key] = sites
		}
		for _, item := range items {
			fields, ok := item.([]interface{})
			if !ok || len(fields) < 4 {
				return nil, apperrors.NewGraphMalformedRow(i, "expected [substrate, stmt_json, belief, evidence_count]")
			}
			gene, _ := fields[0].(string)
			raw, _ := fields[1].(string)
			if gene == "" || raw == "" {
				continue
			}
			var stmt phosphorylation
			if err := json.Unmarshal([]byte(raw), &stmt); err != nil || stmt.Residue == "" || stmt.Position == "" {
				continue
			}
			site := Phosphosite(gene, stmt.Residue, stmt.Position)
			conf := Confidence{Belief: toFloat(fields[2]), EvidenceCount: toInt(fields[3])}
			if prev, seen := sites[site]; seen {
				conf.Belief = max(prev.Belief, conf.Belief)
				conf.EvidenceCount = max(prev.EvidenceCount, conf.EvidenceCount)
			}
			sites[site] = conf
		}
	}
	return out, nil
}
