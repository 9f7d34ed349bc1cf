package curation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cogex/backend/internal/graph"
	apperrors "cogex/backend/pkg/errors"
	"cogex/backend/pkg/logger"

	"go.uber.org/zap"
)

// evidenceLimit is the number of evidences shown per statement.
const evidenceLimit = 10

// Graph is the part of the graph repository the service reads from.
type Graph interface {
	SourceCounts(ctx context.Context, f graph.SourceCountFilter) (map[int64]graph.SourceCounts, error)
	SourceCountsForHashes(ctx context.Context, hashes []int64) (map[int64]graph.SourceCounts, error)
	SourceCountsForPaper(ctx context.Context, curie string, includeDBEvidence bool) (map[int64]graph.SourceCounts, error)
	SourceCountsForMeSH(ctx context.Context, mesh, subjectPrefix, objectPrefix string, includeDBEvidence bool) (map[int64]graph.SourceCounts, error)
	SourceCountsForGOTerm(ctx context.Context, goTerm string, includeDBEvidence bool) (map[int64]graph.SourceCounts, error)
	StatementsByHashes(ctx context.Context, hashes []int64, evidenceLimit int, includeDBEvidence bool) ([]graph.Statement, map[int64]int, error)
}

// Options tune one curation page.
type Options struct {
	IncludeDBEvidence bool
	// FilterCurated hides curated evidences on paper pages.
	FilterCurated bool
	// ObjectPrefix narrows curators that support it.
	ObjectPrefix string
	// Limit overrides the service limit when positive.
	Limit int
}

// Page is a prioritized list of statements to curate.
type Page struct {
	Title          string                       `json:"title"`
	Description    string                       `json:"description,omitempty"`
	Statements     []graph.Statement            `json:"statements"`
	EvidenceCounts map[int64]int                `json:"evidence_counts"`
	SourceCounts   map[int64]graph.SourceCounts `json:"source_counts"`
	Curations      []Curation                   `json:"curations"`
	LookupTime     float64                      `json:"evidence_lookup_time"`
}

// Service builds curation pages.
type Service struct {
	graph  Graph
	store  Store
	cache  *Cache
	limit  int
	logger *zap.Logger
}

// NewService creates a service. limit caps the statements on a page.
func NewService(g Graph, store Store, cache *Cache, limit int) *Service {
	return &Service{
		graph:  g,
		store:  store,
		cache:  cache,
		limit:  limit,
		logger: logger.Get().With(zap.String("component", "curation")),
	}
}

// Candidates returns the page of the curator registered for kind.
func (s *Service) Candidates(ctx context.Context, kind string, opts Options) (*Page, error) {
	curator, ok := LookupCurator(kind)
	if !ok {
		return nil, apperrors.NewNotFound("curator " + kind)
	}

	if kind == KindConflicts {
		curations, err := s.cache.Get(ctx)
		if err != nil {
			return nil, err
		}
		counts, err := s.graph.SourceCountsForHashes(ctx, ConflictHashes(curations))
		if err != nil {
			return nil, err
		}
		opts.IncludeDBEvidence = true
		return s.render(ctx, curator.Title, curator.Description, counts, false, opts)
	}

	filter := curator.Filter
	filter.IncludeDBEvidence = opts.IncludeDBEvidence
	if opts.ObjectPrefix != "" {
		prefix := strings.ToLower(opts.ObjectPrefix)
		if !curator.allowsObjectPrefix(prefix) {
			return nil, apperrors.NewInvalidInput("object_prefix", fmt.Sprintf("%s is not supported by the %s curator", opts.ObjectPrefix, kind))
		}
		filter.ObjectPrefix = prefix
	}
	counts, err := s.graph.SourceCounts(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, curator.Title, curator.Description, counts, true, opts)
}

// Entity returns the statements about one entity. Paper prefixes show the
// statements of the paper and hgnc shows statements with the gene as subject.
func (s *Service) Entity(ctx context.Context, prefix, id string, opts Options) (*Page, error) {
	prefix = strings.ToLower(prefix)
	if isPaperPrefix(prefix) {
		return s.Paper(ctx, PaperID{Prefix: prefix, ID: id}, opts)
	}
	if prefix != "hgnc" {
		return nil, apperrors.NewNotFound("entity prefix " + prefix)
	}
	counts, err := s.graph.SourceCounts(ctx, graph.SourceCountFilter{
		SubjectCURIE:      prefix + ":" + id,
		IncludeDBEvidence: opts.IncludeDBEvidence,
	})
	if err != nil {
		return nil, err
	}
	return s.render(ctx, "Entity Curator", fmt.Sprintf("Statements where %s:%s is the subject.", prefix, id), counts, true, opts)
}

// Paper returns the statements with evidence from one publication.
func (s *Service) Paper(ctx context.Context, paper PaperID, opts Options) (*Page, error) {
	counts, err := s.graph.SourceCountsForPaper(ctx, paper.CURIE(), opts.IncludeDBEvidence)
	if err != nil {
		return nil, err
	}
	curations, err := s.cache.Get(ctx)
	if err != nil {
		return nil, err
	}

	hashes, totals := Prioritize(counts, nil, false, s.pageLimit(opts))
	stmts, elapsed, err := s.statements(ctx, hashes, opts.IncludeDBEvidence)
	if err != nil {
		return nil, err
	}
	if opts.FilterCurated {
		stmts = RemoveCuratedEvidences(stmts, curations)
	}
	return s.page("Publication Curator: "+paper.CURIE(), "", stmts, totals, counts, curations, elapsed), nil
}

// MeSH returns statements from publications annotated with a MeSH term or its
// descendants, optionally restricted to a named subset.
func (s *Service) MeSH(ctx context.Context, term, subset string, opts Options) (*Page, error) {
	sub, err := LookupMeSHSubset(subset)
	if err != nil {
		return nil, err
	}
	mesh := normCURIE(term, "MESH")
	counts, err := s.graph.SourceCountsForMeSH(ctx, mesh, sub.SubjectPrefix, sub.ObjectPrefix, opts.IncludeDBEvidence)
	if err != nil {
		return nil, err
	}
	title := "MeSH Curator: " + mesh
	if subset != "" {
		title += " (" + subset + ")"
	}
	return s.render(ctx, title, "", counts, true, opts)
}

// GOTerm returns statements between genes annotated with a GO term.
func (s *Service) GOTerm(ctx context.Context, term string, opts Options) (*Page, error) {
	goTerm := normCURIE(term, "GO")
	counts, err := s.graph.SourceCountsForGOTerm(ctx, goTerm, opts.IncludeDBEvidence)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, "GO Curator: "+goTerm, "", counts, true, opts)
}

// Record stores c and drops the cached curations.
func (s *Service) Record(ctx context.Context, c *Curation) error {
	if err := s.store.Create(ctx, c); err != nil {
		return err
	}
	s.cache.Invalidate()
	return nil
}

// Curations returns the curations of the given hashes, or all of them when
// hashes is empty.
func (s *Service) Curations(ctx context.Context, hashes []int64) ([]Curation, error) {
	if len(hashes) == 0 {
		return s.cache.Get(ctx)
	}
	return s.store.ForHashes(ctx, hashes)
}

func (s *Service) render(ctx context.Context, title, description string, counts map[int64]graph.SourceCounts, filterCurated bool, opts Options) (*Page, error) {
	curations, err := s.cache.Get(ctx)
	if err != nil {
		return nil, err
	}

	candidates := ReaderSupportedCounts(counts, opts.IncludeDBEvidence)
	hashes, totals := Prioritize(candidates, curations, filterCurated, s.pageLimit(opts))
	s.logger.Debug("Prioritized curation candidates",
		zap.String("title", title),
		zap.Int("candidates", len(counts)),
		zap.Int("selected", len(hashes)),
	)

	stmts, elapsed, err := s.statements(ctx, hashes, opts.IncludeDBEvidence)
	if err != nil {
		return nil, err
	}
	var exclude []Curation
	if filterCurated {
		exclude = curations
	}
	stmts = RemoveCuratedStatements(stmts, exclude, opts.IncludeDBEvidence)
	return s.page(title, description, stmts, totals, counts, curations, elapsed), nil
}

func (s *Service) statements(ctx context.Context, hashes []int64, includeDBEvidence bool) ([]graph.Statement, time.Duration, error) {
	start := time.Now()
	stmts, _, err := s.graph.StatementsByHashes(ctx, hashes, evidenceLimit, includeDBEvidence)
	elapsed := time.Since(start)
	var notFound graph.ErrStatementNotFound
	if errors.As(err, &notFound) {
		return []graph.Statement{}, elapsed, nil
	}
	if err != nil {
		return nil, elapsed, err
	}
	s.logger.Info("Got statements",
		zap.Int("statements", len(stmts)),
		zap.Duration("elapsed", elapsed),
	)
	return stmts, elapsed, nil
}

func (s *Service) page(title, description string, stmts []graph.Statement, totals map[int64]int, counts map[int64]graph.SourceCounts, curations []Curation, elapsed time.Duration) *Page {
	hashes := make([]int64, len(stmts))
	page := &Page{
		Title:          title,
		Description:    description,
		Statements:     stmts,
		EvidenceCounts: make(map[int64]int, len(stmts)),
		SourceCounts:   make(map[int64]graph.SourceCounts, len(stmts)),
		LookupTime:     elapsed.Seconds(),
	}
	for i, stmt := range stmts {
		hashes[i] = stmt.Hash
		page.EvidenceCounts[stmt.Hash] = totals[stmt.Hash]
		page.SourceCounts[stmt.Hash] = counts[stmt.Hash]
	}
	page.Curations = forHashes(curations, hashes)
	return page
}

func (s *Service) pageLimit(opts Options) int {
	if opts.Limit > 0 {
		return opts.Limit
	}
	return s.limit
}
