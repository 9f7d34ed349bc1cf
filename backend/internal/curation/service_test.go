package curation

import (
	"context"
	"testing"
	"time"

	"cogex/backend/internal/graph"
	apperrors "cogex/backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGraph serves fixed source counts and statements and records the last
// filter and identifiers it was asked for.
type fakeGraph struct {
	counts     map[int64]graph.SourceCounts
	lastFilter graph.SourceCountFilter
	lastID     string
	lastPrefix [2]string
	requested  []int64
}

func (f *fakeGraph) SourceCounts(ctx context.Context, filter graph.SourceCountFilter) (map[int64]graph.SourceCounts, error) {
	f.lastFilter = filter
	return f.counts, nil
}

func (f *fakeGraph) SourceCountsForHashes(ctx context.Context, hashes []int64) (map[int64]graph.SourceCounts, error) {
	out := make(map[int64]graph.SourceCounts)
	for _, h := range hashes {
		if c, ok := f.counts[h]; ok {
			out[h] = c
		}
	}
	return out, nil
}

func (f *fakeGraph) SourceCountsForPaper(ctx context.Context, curie string, includeDBEvidence bool) (map[int64]graph.SourceCounts, error) {
	f.lastID = curie
	return f.counts, nil
}

func (f *fakeGraph) SourceCountsForMeSH(ctx context.Context, mesh, subjectPrefix, objectPrefix string, includeDBEvidence bool) (map[int64]graph.SourceCounts, error) {
	f.lastID = mesh
	f.lastPrefix = [2]string{subjectPrefix, objectPrefix}
	return f.counts, nil
}

func (f *fakeGraph) SourceCountsForGOTerm(ctx context.Context, goTerm string, includeDBEvidence bool) (map[int64]graph.SourceCounts, error) {
	f.lastID = goTerm
	return f.counts, nil
}

func (f *fakeGraph) StatementsByHashes(ctx context.Context, hashes []int64, evidenceLimit int, includeDBEvidence bool) ([]graph.Statement, map[int64]int, error) {
	f.requested = hashes
	if len(hashes) == 0 {
		return nil, nil, graph.ErrStatementNotFound{}
	}
	stmts := make([]graph.Statement, 0, len(hashes))
	counts := make(map[int64]int, len(hashes))
	for _, h := range hashes {
		sc := f.counts[h]
		stmts = append(stmts, graph.Statement{
			Hash:         h,
			Type:         "Activation",
			SourceCounts: sc,
			Evidences:    []graph.Evidence{{StmtHash: h, SourceHash: h * 10}, {StmtHash: h, SourceHash: h*10 + 1}},
		})
		counts[h] = sc.Total()
	}
	return stmts, counts, nil
}

func newTestService(t *testing.T, stored []Curation) (*Service, *fakeGraph, *memoryStore) {
	t.Helper()
	g := &fakeGraph{counts: map[int64]graph.SourceCounts{
		1: {"reach": 2},
		2: {"reach": 9},
		3: {"sparser": 5},
		4: {"biogrid": 7},
	}}
	store := &memoryStore{curations: stored}
	return NewService(g, store, NewCache(store, time.Hour), 50), g, store
}

func TestService_Candidates(t *testing.T) {
	svc, g, _ := newTestService(t, []Curation{{PAHash: 2, Tag: TagCorrect, Curator: "a"}})

	page, err := svc.Candidates(context.Background(), KindKinase, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Kinase Curator", page.Title)
	assert.Equal(t, "is_kinase", g.lastFilter.SubjectFlag)
	assert.False(t, g.lastFilter.IncludeDBEvidence)

	// 2 is curated and 4 is supported only by a database.
	assert.Equal(t, []int64{3, 1}, g.requested)
	assert.Equal(t, []int64{3, 1}, hashesOf(page.Statements))
	assert.Equal(t, map[int64]int{3: 5, 1: 2}, page.EvidenceCounts)
	assert.Equal(t, graph.SourceCounts{"sparser": 5}, page.SourceCounts[3])

	page, err = svc.Candidates(context.Background(), KindKinase, Options{IncludeDBEvidence: true, Limit: 1})
	require.NoError(t, err)
	assert.True(t, g.lastFilter.IncludeDBEvidence)
	assert.Equal(t, []int64{4}, hashesOf(page.Statements))
}

func TestService_Candidates_LimitAppliesAfterFiltering(t *testing.T) {
	svc, g, _ := newTestService(t, []Curation{{PAHash: 2, Tag: TagCorrect, Curator: "a"}})

	page, err := svc.Candidates(context.Background(), KindKinase, Options{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1}, g.requested)
	assert.Equal(t, []int64{3, 1}, hashesOf(page.Statements))
}

func TestService_Candidates_ObjectPrefix(t *testing.T) {
	svc, g, _ := newTestService(t, nil)

	_, err := svc.Candidates(context.Background(), KindDisProt, Options{ObjectPrefix: "GO"})
	require.NoError(t, err)
	assert.Equal(t, "go", g.lastFilter.ObjectPrefix)

	_, err = svc.Candidates(context.Background(), KindDisProt, Options{ObjectPrefix: "mesh"})
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeInput))

	_, err = svc.Candidates(context.Background(), KindPPI, Options{ObjectPrefix: "go"})
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeInput))

	_, err = svc.Candidates(context.Background(), "modulator", Options{})
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))
}

func TestService_Conflicts(t *testing.T) {
	svc, _, _ := newTestService(t, []Curation{
		{PAHash: 3, Tag: TagCorrect, Curator: "a"},
		{PAHash: 3, Tag: "hypothesis", Curator: "b"},
		{PAHash: 1, Tag: TagCorrect, Curator: "a"},
	})

	page, err := svc.Candidates(context.Background(), KindConflicts, Options{})
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, hashesOf(page.Statements))
	assert.Len(t, page.Curations, 2)
}

func TestService_Entity(t *testing.T) {
	svc, g, _ := newTestService(t, nil)

	_, err := svc.Entity(context.Background(), "HGNC", "6407", Options{})
	require.NoError(t, err)
	assert.Equal(t, "hgnc:6407", g.lastFilter.SubjectCURIE)

	_, err = svc.Entity(context.Background(), "pubmed", "1234", Options{})
	require.NoError(t, err)
	assert.Equal(t, "pubmed:1234", g.lastID)

	_, err = svc.Entity(context.Background(), "chebi", "15377", Options{})
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))
}

func TestService_Entity_PaperKeepsFilterCurated(t *testing.T) {
	svc, _, _ := newTestService(t, []Curation{{PAHash: 2, SourceHash: 20, Tag: TagCorrect, Curator: "a"}})
	evidencesOf := func(page *Page, hash int64) int {
		for _, stmt := range page.Statements {
			if stmt.Hash == hash {
				return len(stmt.Evidences)
			}
		}
		return -1
	}

	page, err := svc.Entity(context.Background(), "pubmed", "123", Options{FilterCurated: false})
	require.NoError(t, err)
	assert.Equal(t, 2, evidencesOf(page, 2))

	page, err = svc.Entity(context.Background(), "pubmed", "123", Options{FilterCurated: true})
	require.NoError(t, err)
	assert.Equal(t, 1, evidencesOf(page, 2))
}

func TestService_Paper_FiltersCuratedEvidence(t *testing.T) {
	svc, g, _ := newTestService(t, []Curation{
		{PAHash: 2, SourceHash: 20, Tag: TagCorrect, Curator: "a"},
		{PAHash: 2, SourceHash: 21, Tag: TagCorrect, Curator: "a"},
		{PAHash: 3, SourceHash: 30, Tag: TagCorrect, Curator: "a"},
	})

	page, err := svc.Paper(context.Background(), PaperID{PrefixPMC, "PMC1"}, Options{FilterCurated: true})
	require.NoError(t, err)
	assert.Equal(t, "pmc:PMC1", g.lastID)
	assert.Equal(t, []int64{4, 3, 1}, hashesOf(page.Statements))
	assert.Len(t, page.Statements[1].Evidences, 1)

	page, err = svc.Paper(context.Background(), PaperID{PrefixPMC, "PMC1"}, Options{})
	require.NoError(t, err)
	assert.Len(t, page.Statements, 4)
}

func TestService_MeSHAndGO(t *testing.T) {
	svc, g, _ := newTestService(t, nil)

	page, err := svc.MeSH(context.Background(), "D015179", "ppi", Options{})
	require.NoError(t, err)
	assert.Equal(t, "mesh:D015179", g.lastID)
	assert.Equal(t, [2]string{"hgnc", "hgnc"}, g.lastPrefix)
	assert.Equal(t, "MeSH Curator: mesh:D015179 (ppi)", page.Title)

	_, err = svc.MeSH(context.Background(), "D015179", "bogus", Options{})
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeInput))

	_, err = svc.GOTerm(context.Background(), "GO:0003677", Options{})
	require.NoError(t, err)
	assert.Equal(t, "go:0003677", g.lastID)
}

func TestService_RecordInvalidatesCache(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	ctx := context.Background()

	all, err := svc.Curations(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, svc.Record(ctx, &Curation{PAHash: 2, Tag: TagCorrect, Curator: "a"}))

	all, err = svc.Curations(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	some, err := svc.Curations(ctx, []int64{2})
	require.NoError(t, err)
	assert.Len(t, some, 1)

	err = svc.Record(ctx, &Curation{Tag: TagCorrect, Curator: "a"})
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeInput))
}

func TestService_EmptyCandidates(t *testing.T) {
	svc, g, _ := newTestService(t, nil)
	g.counts = map[int64]graph.SourceCounts{}

	page, err := svc.Candidates(context.Background(), KindPPI, Options{})
	require.NoError(t, err)
	assert.Empty(t, page.Statements)
}
