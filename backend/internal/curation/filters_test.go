package curation

import (
	"testing"

	"cogex/backend/internal/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func curations() []Curation {
	return []Curation{
		{PAHash: 2, SourceHash: 20, Tag: TagCorrect, Curator: "a"},
		{PAHash: 2, SourceHash: 21, Tag: "grounding", Curator: "b"},
		{PAHash: 4, SourceHash: 40, Tag: "wrong_relation", Curator: "a"},
		{PAHash: 5, SourceHash: 50, Tag: TagCorrect, Curator: "c"},
	}
}

func TestRemoveCuratedPAHashes(t *testing.T) {
	assert.Equal(t, []int64{9, 1, 3}, RemoveCuratedPAHashes([]int64{9, 2, 1, 4, 3, 5}, curations()))
	assert.Empty(t, RemoveCuratedPAHashes(nil, curations()))
	assert.Equal(t, []int64{2, 4}, RemoveCuratedPAHashes([]int64{2, 4}, nil))
}

func TestRemoveCuratedStatements(t *testing.T) {
	stmts := []graph.Statement{
		{Hash: 1, SourceCounts: graph.SourceCounts{"reach": 3}},
		{Hash: 2, SourceCounts: graph.SourceCounts{"reach": 5}},
		{Hash: 3, SourceCounts: graph.SourceCounts{"biogrid": 2, "signor": 1}},
		{Hash: 6},
	}

	withDB := RemoveCuratedStatements(stmts, curations(), true)
	assert.Equal(t, []int64{1, 3, 6}, hashesOf(withDB))

	readersOnly := RemoveCuratedStatements(stmts, curations(), false)
	assert.Equal(t, []int64{1, 6}, hashesOf(readersOnly))
}

func TestRemoveCuratedEvidences(t *testing.T) {
	stmts := []graph.Statement{
		{Hash: 2, Evidences: []graph.Evidence{{SourceHash: 20}, {SourceHash: 22}}},
		{Hash: 4, Evidences: []graph.Evidence{{SourceHash: 40}}},
		{Hash: 7, Evidences: []graph.Evidence{{SourceHash: 20}}},
	}

	out := RemoveCuratedEvidences(stmts, curations())
	require.Len(t, out, 2)
	assert.Equal(t, int64(2), out[0].Hash)
	require.Len(t, out[0].Evidences, 1)
	assert.Equal(t, int64(22), out[0].Evidences[0].SourceHash)
	assert.Equal(t, int64(7), out[1].Hash)

	// The input is left untouched.
	assert.Len(t, stmts[0].Evidences, 2)
}

func TestPrioritize(t *testing.T) {
	counts := map[int64]graph.SourceCounts{
		1: {"reach": 1},
		2: {"reach": 10},
		3: {"reach": 4, "sparser": 4},
		4: {"reach": 8},
		5: {"trips": 2},
	}

	hashes, totals := Prioritize(counts, curations(), false, 0)
	assert.Equal(t, []int64{2, 3, 4, 5, 1}, hashes)
	assert.Equal(t, 8, totals[3])
	assert.Len(t, totals, 5)

	hashes, _ = Prioritize(counts, curations(), true, 0)
	assert.Equal(t, []int64{3, 1}, hashes)

	hashes, _ = Prioritize(counts, nil, true, 2)
	assert.Equal(t, []int64{2, 3}, hashes)
}

func TestConflictHashes(t *testing.T) {
	assert.Equal(t, []int64{2}, ConflictHashes(curations()))
	assert.Empty(t, ConflictHashes(nil))
}

func hashesOf(stmts []graph.Statement) []int64 {
	out := make([]int64, len(stmts))
	for i, s := range stmts {
		out[i] = s.Hash
	}
	return out
}
