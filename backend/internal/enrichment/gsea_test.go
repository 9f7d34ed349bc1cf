package enrichment

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cogex/backend/internal/genesets"
	apperrors "cogex/backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rankedScores returns g1..gn scored n..1.
func rankedScores(n int) map[string]float64 {
	scores := make(map[string]float64, n)
	for i := 1; i <= n; i++ {
		scores[fmt.Sprintf("g%d", i)] = float64(n - i + 1)
	}
	return scores
}

func smallGSEAOptions() GSEAOptions {
	opts := DefaultGSEAOptions()
	opts.MinSize = 1
	opts.Permutations = 50
	return opts
}

func TestEnrichmentScore(t *testing.T) {
	weights := []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
	assert.InDelta(t, 1.0, enrichmentScore([]int{0, 1, 2}, weights), 1e-9)
	assert.InDelta(t, -1.0, enrichmentScore([]int{7, 8, 9}, weights), 1e-9)

	// With all-zero scores every hit gets an equal step.
	zeros := make([]float64, 4)
	assert.InDelta(t, 1.0, enrichmentScore([]int{0, 1}, zeros), 1e-9)
}

func TestGSEA_TopAndBottomSets(t *testing.T) {
	mapping := genesets.Mapping{
		{CURIE: "go:top", Name: "top"}:       genesets.NewGeneSet("g1", "g2", "g3"),
		{CURIE: "go:bottom", Name: "bottom"}: genesets.NewGeneSet("g8", "g9", "g10"),
	}

	results, err := GSEA(rankedScores(10), mapping, smallGSEAOptions())
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "go:top", results[0].Term)
	assert.Equal(t, "top", results[0].Name)
	assert.InDelta(t, 1.0, results[0].ES, 1e-9)
	assert.Greater(t, results[0].NES, 0.0)
	assert.Equal(t, 3, results[0].MatchedSize)
	assert.Equal(t, 3, results[0].GeneSetSize)

	assert.Equal(t, "go:bottom", results[1].Term)
	assert.InDelta(t, -1.0, results[1].ES, 1e-9)
	assert.Less(t, results[1].NES, 0.0)

	for _, r := range results {
		assert.GreaterOrEqual(t, r.NomP, 0.0)
		assert.LessOrEqual(t, r.NomP, 1.0)
		assert.GreaterOrEqual(t, r.FDR, 0.0)
		assert.LessOrEqual(t, r.FDR, 1.0)
	}
}

func TestGSEA_IsDeterministicForSeed(t *testing.T) {
	mapping := genesets.Mapping{
		{CURIE: "go:mixed", Name: "mixed"}: genesets.NewGeneSet("g1", "g5", "g9"),
		{CURIE: "go:top", Name: "top"}:     genesets.NewGeneSet("g1", "g2"),
	}
	first, err := GSEA(rankedScores(12), mapping, smallGSEAOptions())
	require.NoError(t, err)
	second, err := GSEA(rankedScores(12), mapping, smallGSEAOptions())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGSEA_SizeFilterAndMatchedSize(t *testing.T) {
	mapping := genesets.Mapping{
		{CURIE: "go:partial", Name: "partial"}: genesets.NewGeneSet("g1", "g2", "unknown"),
		{CURIE: "go:tiny", Name: "tiny"}:       genesets.NewGeneSet("g3"),
	}
	opts := smallGSEAOptions()
	opts.MinSize = 2

	results, err := GSEA(rankedScores(10), mapping, opts)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "go:partial", results[0].Term)
	assert.Equal(t, 3, results[0].GeneSetSize)
	assert.Equal(t, 2, results[0].MatchedSize)
}

func TestGSEA_DropsInsignificant(t *testing.T) {
	mapping := genesets.Mapping{
		{CURIE: "go:top", Name: "top"}:     genesets.NewGeneSet("g1", "g2", "g3"),
		{CURIE: "go:mixed", Name: "mixed"}: genesets.NewGeneSet("g1", "g6", "g11"),
		{CURIE: "go:low", Name: "low"}:     genesets.NewGeneSet("g10", "g12"),
	}
	all, err := GSEA(rankedScores(12), mapping, smallGSEAOptions())
	require.NoError(t, err)
	require.Len(t, all, 3)

	opts := smallGSEAOptions()
	opts.KeepInsignificant = false
	opts.Alpha = 0.2
	filtered, err := GSEA(rankedScores(12), mapping, opts)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(filtered), len(all))
	for _, r := range filtered {
		assert.Less(t, r.NomP, 0.2)
	}
}

func TestGSEA_WritesReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "gsea")
	mapping := genesets.Mapping{
		{CURIE: "go:top", Name: "top"}: genesets.NewGeneSet("g1", "g2", "g3"),
	}
	opts := smallGSEAOptions()
	opts.Directory = dir

	_, err := GSEA(rankedScores(10), mapping, opts)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, GSEAReportFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "term\tname\tES\tNES\tNOM p-val\tFDR q-val\tgeneset_size\tmatched_size", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "go:top\ttop\t"))
}

func TestGSEA_InvalidInput(t *testing.T) {
	mapping := genesets.Mapping{}

	_, err := GSEA(map[string]float64{"g1": 1}, mapping, smallGSEAOptions())
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeInput))

	opts := smallGSEAOptions()
	opts.Permutations = 0
	_, err = GSEA(rankedScores(5), mapping, opts)
	assert.Error(t, err)

	opts = smallGSEAOptions()
	opts.MaxSize = 0
	_, err = GSEA(rankedScores(5), mapping, opts)
	assert.Error(t, err)
}
