package enrichment

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"cogex/backend/internal/genesets"
	apperrors "cogex/backend/pkg/errors"
	"cogex/backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Analyzer runs the gene list analyses over gene sets from a Collector.
type Analyzer struct {
	sets     *genesets.Collector
	resolver SymbolResolver
	ontology genesets.DescendantFinder
	logger   *zap.Logger
}

// NewAnalyzer creates an analyzer. ontology may be nil when GO propagation is
// never requested.
func NewAnalyzer(sets *genesets.Collector, resolver SymbolResolver, ontology genesets.DescendantFinder) *Analyzer {
	return &Analyzer{
		sets:     sets,
		resolver: resolver,
		ontology: ontology,
		logger:   logger.Get().With(zap.String("component", "enrichment")),
	}
}

// DiscreteOptions configure Discrete.
type DiscreteOptions struct {
	ORAOptions
	Thresholds genesets.Thresholds
	// IndraPathAnalysis adds the indra-upstream and indra-downstream sources.
	IndraPathAnalysis bool
	// PropagateGO adds the genes of descendant GO terms to each GO set.
	PropagateGO bool
}

// DiscreteResults maps a source name to its ORA results.
type DiscreteResults map[string][]Result

// Discrete runs ORA of genes against every gene-set source concurrently.
func (a *Analyzer) Discrete(ctx context.Context, genes genesets.GeneSet, opts DiscreteOptions) (DiscreteResults, error) {
	names := []string{genesets.SourceGO, genesets.SourceWikiPathways, genesets.SourceReactome, genesets.SourcePhenotype}
	if opts.IndraPathAnalysis {
		names = append(names, genesets.SourceIndraUpstream, genesets.SourceIndraDownstream)
	}

	start := time.Now()
	if len(opts.Background) == 0 {
		n, err := a.sets.HumanGeneCount(ctx)
		if err != nil {
			return nil, apperrors.NewAnalysisFailed("universe", err)
		}
		opts.UniverseSize = n
	}

	var mu sync.Mutex
	results := make(DiscreteResults, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		g.Go(func() error {
			mapping, err := a.sets.Load(gctx, name, opts.Thresholds)
			if err != nil {
				return apperrors.NewAnalysisFailed(name, err)
			}
			if name == genesets.SourceGO && opts.PropagateGO && a.ontology != nil {
				mapping = mapping.Clone()
				if err := genesets.ExtendByOntology(gctx, mapping, a.ontology, nil); err != nil {
					return apperrors.NewAnalysisFailed(name, err)
				}
			}
			res, err := ORA(genes, mapping, opts.ORAOptions)
			if err != nil {
				return err
			}
			mu.Lock()
			results[name] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.logger.Info("Discrete analysis finished",
		zap.Int("genes", len(genes)),
		zap.Int("sources", len(names)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results, nil
}

// SignedOptions configure Signed.
type SignedOptions struct {
	ORAOptions
	Thresholds genesets.Thresholds
}

// Signed runs reverse causal reasoning over the signed regulator mappings.
func (a *Analyzer) Signed(ctx context.Context, positive, negative genesets.GeneSet, opts SignedOptions) ([]RCRResult, error) {
	if len(positive)+len(negative) == 0 {
		return nil, apperrors.NewInvalidInput("genes", "at least one positive or negative gene is required")
	}
	up, down, err := a.sets.SignedTargets(ctx, opts.Thresholds)
	if err != nil {
		return nil, apperrors.NewAnalysisFailed("signed", err)
	}
	return ReverseCausalReasoning(positive, negative, up, down, opts.ORAOptions)
}

// KinaseOptions configure Kinase.
type KinaseOptions struct {
	ORAOptions
	Thresholds genesets.Thresholds
}

// Kinase runs ORA of phosphosites against the substrate sites of each kinase.
// Without a background the universe is every known substrate site plus the
// query.
func (a *Analyzer) Kinase(ctx context.Context, sites genesets.GeneSet, opts KinaseOptions) ([]Result, error) {
	if len(sites) == 0 {
		return nil, apperrors.NewInvalidInput("phosphosites", "at least one phosphosite is required")
	}
	mapping, err := a.sets.KinaseSubstrates(ctx, opts.Thresholds)
	if err != nil {
		return nil, apperrors.NewAnalysisFailed("kinase", err)
	}
	results, err := ORA(sites, mapping, opts.ORAOptions)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Kinase analysis finished",
		zap.Int("phosphosites", len(sites)),
		zap.Int("kinases", len(mapping)),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// ParsePhosphositeList normalizes GENE-SITE entries such as "MAPK1-T202".
// Malformed entries are returned in input order.
func ParsePhosphositeList(entries []string) (genesets.GeneSet, []string) {
	sites := make(genesets.GeneSet, len(entries))
	var invalid []string
	for _, entry := range entries {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		site, ok := genesets.ParsePhosphosite(entry)
		if !ok {
			invalid = append(invalid, entry)
			continue
		}
		sites.Add(site)
	}
	return sites, invalid
}

// ContinuousInput is a differential expression table and how to analyze it.
type ContinuousInput struct {
	Table      ScoreTable
	Species    string
	Source     string
	Thresholds genesets.Thresholds
	GSEA       GSEAOptions
}

// Continuous runs GSEA of the table against one gene-set source.
func (a *Analyzer) Continuous(ctx context.Context, in ContinuousInput) ([]GSEAResult, error) {
	if in.Table.Len() < 2 {
		return nil, apperrors.NewInvalidInput("file", "input file contains insufficient data, at least 2 genes are required")
	}
	if _, err := genesets.LookupSource(in.Source); err != nil {
		return nil, err
	}

	scores, err := SpeciesScores(ctx, a.resolver, in.Species, in.Table)
	if err != nil {
		return nil, err
	}
	if len(scores) < 2 {
		return nil, apperrors.NewInvalidInput("genes", fmt.Sprintf("only %d gene names could be mapped", len(scores)))
	}

	mapping, err := a.sets.Load(ctx, in.Source, in.Thresholds)
	if err != nil {
		return nil, apperrors.NewAnalysisFailed(in.Source, err)
	}
	start := time.Now()
	results, err := GSEA(scores, mapping, in.GSEA)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Continuous analysis finished",
		zap.String("source", in.Source),
		zap.Int("genes", len(scores)),
		zap.Int("results", len(results)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results, nil
}

// ParseGeneList resolves HGNC CURIEs, bare HGNC ids and human gene symbols to
// normalized HGNC ids. Entries that cannot be resolved are returned in input
// order.
func (a *Analyzer) ParseGeneList(ctx context.Context, entries []string) (genesets.GeneSet, []string, error) {
	genes := make(genesets.GeneSet, len(entries))
	var symbols []string
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		lower := strings.ToLower(entry)
		if id, ok := strings.CutPrefix(lower, "hgnc:"); ok {
			if isDigits(id) {
				genes.Add(id)
				continue
			}
		}
		if isDigits(entry) {
			genes.Add(entry)
			continue
		}
		symbols = append(symbols, entry)
	}
	if len(symbols) == 0 {
		return genes, nil, nil
	}

	ids, err := a.resolver.ResolveSymbols(ctx, SpeciesHuman, symbols)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve gene symbols: %w", err)
	}
	var unresolved []string
	for _, symbol := range symbols {
		if id, ok := ids[symbol]; ok {
			genes.Add(genesets.NormalizeGeneID(id))
		} else {
			unresolved = append(unresolved, symbol)
		}
	}
	return genes, unresolved, nil
}

// ParseTextField splits free text on commas and whitespace.
func ParseTextField(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// SetSizes summarizes a source as gene-set sizes keyed by CURIE.
func (a *Analyzer) SetSizes(ctx context.Context, source string, thr genesets.Thresholds) (map[string]int, error) {
	mapping, err := a.sets.Load(ctx, source, thr)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(mapping))
	for key, genes := range mapping {
		out[key.CURIE] = len(genes)
	}
	return out, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
