package genesets

import (
	"context"
	"fmt"
	"sort"

	apperrors "cogex/backend/pkg/errors"
)

const (
	goQuery = `
MATCH (gene:BioEntity)-[:associated_with]->(term:BioEntity)
RETURN term.id, term.name, collect(gene.id) AS genes`

	wikipathwaysQuery = `
MATCH (pathway:BioEntity)-[:haspart]->(gene:BioEntity)
WHERE pathway.id STARTS WITH "wikipathways" AND gene.id STARTS WITH "hgnc"
RETURN pathway.id, pathway.name, collect(gene.id)`

	reactomeQuery = `
MATCH (pathway:BioEntity)-[:haspart]-(gene:BioEntity)
WHERE pathway.id STARTS WITH "reactome" AND gene.id STARTS WITH "hgnc"
RETURN pathway.id, pathway.name, collect(gene.id)`

	phenotypeQuery = `
MATCH (phenotype:BioEntity)-[:phenotype_has_gene]-(gene:BioEntity)
WHERE gene.id STARTS WITH "hgnc"
RETURN phenotype.id, phenotype.name, collect(gene.id)`

	entityToTargetsQuery = `
MATCH (regulator:BioEntity)-[r:indra_rel]->(gene:BioEntity)
WHERE gene.id STARTS WITH "hgnc"
  AND r.stmt_type <> "Complex"
  AND NOT regulator.id STARTS WITH "uniprot"
RETURN regulator.id, regulator.name, collect([gene.id, r.belief, r.evidence_count])`

	entityToRegulatorsQuery = `
MATCH (gene:BioEntity)-[r:indra_rel]->(target:BioEntity)
WHERE gene.id STARTS WITH "hgnc"
  AND r.stmt_type <> "Complex"
  AND NOT target.id STARTS WITH "uniprot"
RETURN target.id, target.name, collect([gene.id, r.belief, r.evidence_count])`

	signedTargetsQuery = `
MATCH (regulator:BioEntity)-[r:indra_rel]->(gene:BioEntity)
WHERE gene.id STARTS WITH "hgnc"
  AND r.stmt_type IN %s
  AND NOT regulator.id STARTS WITH "uniprot"
RETURN regulator.id, regulator.name, collect([gene.id, r.belief, r.evidence_count])`

	humanGenesQuery = `
MATCH (gene:BioEntity)
WHERE gene.id STARTS WITH "hgnc:"
RETURN count(gene)`
)

// humanGenesKey caches the number of human genes in the graph.
const humanGenesKey = "human_genes"

const (
	upregulatingTypes   = `["IncreaseAmount", "Activation"]`
	downregulatingTypes = `["DecreaseAmount", "Inhibition"]`
)

// Source names accepted by Load.
const (
	SourceGO              = "go"
	SourceWikiPathways    = "wikipathways"
	SourceReactome        = "reactome"
	SourcePhenotype       = "phenotype"
	SourceIndraUpstream   = "indra-upstream"
	SourceIndraDownstream = "indra-downstream"
)

// Source describes one gene-set source.
type Source struct {
	Name     string
	CacheKey string
	Query    string
	// Weighted sources carry belief and evidence counts and are thresholded
	// on load.
	Weighted bool
}

var sources = map[string]Source{
	SourceGO:              {Name: SourceGO, CacheKey: "go", Query: goQuery},
	SourceWikiPathways:    {Name: SourceWikiPathways, CacheKey: "wiki", Query: wikipathwaysQuery},
	SourceReactome:        {Name: SourceReactome, CacheKey: "reactome", Query: reactomeQuery},
	SourcePhenotype:       {Name: SourcePhenotype, CacheKey: "phenotype", Query: phenotypeQuery},
	SourceIndraUpstream:   {Name: SourceIndraUpstream, CacheKey: "to_targets", Query: entityToTargetsQuery, Weighted: true},
	SourceIndraDownstream: {Name: SourceIndraDownstream, CacheKey: "to_regs", Query: entityToRegulatorsQuery, Weighted: true},
}

var (
	signedUp   = Source{Name: "indra-signed-up", CacheKey: "to_targets_up", Query: fmt.Sprintf(signedTargetsQuery, upregulatingTypes), Weighted: true}
	signedDown = Source{Name: "indra-signed-down", CacheKey: "to_targets_down", Query: fmt.Sprintf(signedTargetsQuery, downregulatingTypes), Weighted: true}
)

// Sources returns the names accepted by Load, sorted.
func Sources() []string {
	out := make([]string, 0, len(sources))
	for name := range sources {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// LookupSource returns the source registered under name.
func LookupSource(name string) (Source, error) {
	src, ok := sources[name]
	if !ok {
		return Source{}, apperrors.NewUnknownSource(name)
	}
	return src, nil
}

// CacheKeys returns every cache key the collector may write, sorted.
func CacheKeys() []string {
	out := []string{signedUp.CacheKey, signedDown.CacheKey, kinaseSubstrates.CacheKey, humanGenesKey}
	for _, src := range sources {
		out = append(out, src.CacheKey)
	}
	sort.Strings(out)
	return out
}

// Load returns the mapping of the named source. Weighted sources are
// thresholded with thr; others ignore it.
func (c *Collector) Load(ctx context.Context, name string, thr Thresholds) (Mapping, error) {
	src, err := LookupSource(name)
	if err != nil {
		return nil, err
	}
	return c.loadSource(ctx, src, thr)
}

// SignedTargets returns regulator-to-target mappings for up- and
// down-regulating statements.
func (c *Collector) SignedTargets(ctx context.Context, thr Thresholds) (Mapping, Mapping, error) {
	up, err := c.loadSource(ctx, signedUp, thr)
	if err != nil {
		return nil, nil, err
	}
	down, err := c.loadSource(ctx, signedDown, thr)
	if err != nil {
		return nil, nil, err
	}
	return up, down, nil
}

// HumanGeneCount is the number of HGNC genes in the graph, the default
// universe of over-representation analysis.
func (c *Collector) HumanGeneCount(ctx context.Context) (int, error) {
	return c.CollectCount(ctx, humanGenesKey, humanGenesQuery)
}

// Warm builds every cache entry that is not present yet. Without names the
// signed targets, kinase substrates and human gene count are built too.
func (c *Collector) Warm(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		names = Sources()
		if _, _, err := c.SignedTargets(ctx, DefaultThresholds()); err != nil {
			return err
		}
		if _, err := c.KinaseSubstrates(ctx, DefaultThresholds()); err != nil {
			return err
		}
		if _, err := c.HumanGeneCount(ctx); err != nil {
			return err
		}
	}
	for _, name := range names {
		if _, err := c.Load(ctx, name, DefaultThresholds()); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collector) loadSource(ctx context.Context, src Source, thr Thresholds) (Mapping, error) {
	if !src.Weighted {
		return c.CollectGeneSets(ctx, src.CacheKey, src.Query)
	}
	weighted, err := c.CollectGenesWithConfidence(ctx, src.CacheKey, src.Query)
	if err != nil {
		return nil, err
	}
	return Threshold(weighted, thr), nil
}
