package enrichment

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"cogex/backend/internal/genesets"
	apperrors "cogex/backend/pkg/errors"

	"gonum.org/v1/gonum/floats"
)

// GSEAReportFile is the name of the report written to GSEAOptions.Directory.
const GSEAReportFile = "gsea_report.tsv"

// GSEAOptions configure a pre-ranked gene set enrichment analysis.
type GSEAOptions struct {
	Permutations      int     `json:"permutations"`
	Alpha             float64 `json:"alpha"`
	KeepInsignificant bool    `json:"keep_insignificant"`
	MinSize           int     `json:"min_size"`
	MaxSize           int     `json:"max_size"`
	// Weight is the exponent applied to scores in the running sum; 0 gives
	// the classic Kolmogorov-Smirnov statistic.
	Weight float64 `json:"weight"`
	Seed   uint64  `json:"seed"`
	// Directory receives a TSV report when set. It is created with parents.
	Directory string `json:"-"`
}

// DefaultGSEAOptions mirror the usual prerank defaults.
func DefaultGSEAOptions() GSEAOptions {
	return GSEAOptions{
		Permutations:      100,
		Alpha:             0.05,
		KeepInsignificant: true,
		MinSize:           15,
		MaxSize:           500,
		Weight:            1,
		Seed:              123,
	}
}

// GSEAResult is the outcome for one gene set.
type GSEAResult struct {
	Term        string  `json:"term"`
	Name        string  `json:"name"`
	ES          float64 `json:"ES"`
	NES         float64 `json:"NES"`
	NomP        float64 `json:"NOM p-val"`
	FDR         float64 `json:"FDR q-val"`
	GeneSetSize int     `json:"geneset_size"`
	MatchedSize int     `json:"matched_size"`
}

func (o GSEAOptions) validate() error {
	switch {
	case o.Permutations < 1:
		return apperrors.NewInvalidInput("permutations", "must be at least 1")
	case o.MinSize < 1 || o.MaxSize < o.MinSize:
		return apperrors.NewInvalidInput("gene set size", fmt.Sprintf("invalid range [%d, %d]", o.MinSize, o.MaxSize))
	case o.Weight < 0:
		return apperrors.NewInvalidInput("weight", "must not be negative")
	}
	return validateAlpha(o.Alpha)
}

type rankedSet struct {
	key  genesets.Key
	size int
	hits []int // rank positions, ascending
	es   float64
	null []float64
}

// GSEA runs a pre-ranked gene set enrichment analysis of scores (gene id to
// score) against mapping. Significance comes from gene-label permutations.
// Results are sorted by NES, highest first.
func GSEA(scores map[string]float64, mapping genesets.Mapping, opts GSEAOptions) ([]GSEAResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if len(scores) < 2 {
		return nil, apperrors.NewInvalidInput("scores", "at least 2 genes are required")
	}

	genes := make([]string, 0, len(scores))
	for g := range scores {
		genes = append(genes, g)
	}
	sort.Slice(genes, func(i, j int) bool {
		if scores[genes[i]] != scores[genes[j]] {
			return scores[genes[i]] > scores[genes[j]]
		}
		return genes[i] < genes[j]
	})
	rank := make(map[string]int, len(genes))
	weights := make([]float64, len(genes))
	for i, g := range genes {
		rank[g] = i
		weights[i] = math.Pow(math.Abs(scores[g]), opts.Weight)
	}

	var sets []*rankedSet
	for _, key := range mapping.Keys() {
		var hits []int
		for g := range mapping[key] {
			if pos, ok := rank[g]; ok {
				hits = append(hits, pos)
			}
		}
		if len(hits) < opts.MinSize || len(hits) > opts.MaxSize || len(hits) == len(genes) {
			continue
		}
		sort.Ints(hits)
		sets = append(sets, &rankedSet{
			key:  key,
			size: len(mapping[key]),
			hits: hits,
			es:   enrichmentScore(hits, weights),
			null: make([]float64, 0, opts.Permutations),
		})
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	perm := make([]int, len(genes))
	for i := range perm {
		perm[i] = i
	}
	buf := make([]int, 0, opts.MaxSize)
	for p := 0; p < opts.Permutations; p++ {
		rng.Shuffle(len(perm), func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
		for _, s := range sets {
			buf = buf[:0]
			for _, h := range s.hits {
				buf = append(buf, perm[h])
			}
			sort.Ints(buf)
			s.null = append(s.null, enrichmentScore(buf, weights))
		}
	}

	results := normalize(sets)
	out := make([]GSEAResult, 0, len(results))
	for _, r := range results {
		if opts.KeepInsignificant || r.NomP < opts.Alpha {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].NES > out[j].NES })

	if opts.Directory != "" {
		if err := writeGSEAReport(opts.Directory, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// enrichmentScore walks the ranking, stepping up at hits by their share of the
// hit weight and down at misses, and returns the signed maximum deviation.
func enrichmentScore(hits []int, weights []float64) float64 {
	n := len(weights)
	hitWeight := 0.0
	for _, pos := range hits {
		hitWeight += weights[pos]
	}
	equalSteps := hitWeight == 0
	missStep := 0.0
	if misses := n - len(hits); misses > 0 {
		missStep = 1.0 / float64(misses)
	}

	running, maxDev, minDev := 0.0, 0.0, 0.0
	prev := -1
	for _, pos := range hits {
		running -= float64(pos-prev-1) * missStep
		minDev = math.Min(minDev, running)
		if equalSteps {
			running += 1.0 / float64(len(hits))
		} else {
			running += weights[pos] / hitWeight
		}
		maxDev = math.Max(maxDev, running)
		prev = pos
	}
	if math.Abs(maxDev) >= math.Abs(minDev) {
		return maxDev
	}
	return minDev
}

// normalize computes NES, nominal p-values and FDR q-values. Each ES is
// divided by the mean of the same-signed null scores of its own set.
func normalize(sets []*rankedSet) []GSEAResult {
	results := make([]GSEAResult, len(sets))
	var nullPos, nullNeg, obsPos, obsNeg []float64

	for i, s := range sets {
		pos, neg := splitBySign(s.null)
		posMean, negMean := meanOrZero(pos), math.Abs(meanOrZero(neg))
		r := GSEAResult{
			Term:        s.key.CURIE,
			Name:        s.key.Name,
			ES:          s.es,
			GeneSetSize: s.size,
			MatchedSize: len(s.hits),
			NomP:        1,
		}
		if s.es >= 0 && posMean > 0 {
			r.NES = s.es / posMean
			r.NomP = fractionAtLeast(pos, s.es)
			obsPos = append(obsPos, r.NES)
		} else if s.es < 0 && negMean > 0 {
			r.NES = s.es / negMean
			r.NomP = fractionAtMost(neg, s.es)
			obsNeg = append(obsNeg, r.NES)
		}
		for _, v := range pos {
			if posMean > 0 {
				nullPos = append(nullPos, v/posMean)
			}
		}
		for _, v := range neg {
			if negMean > 0 {
				nullNeg = append(nullNeg, v/negMean)
			}
		}
		results[i] = r
	}

	for i := range results {
		r := &results[i]
		r.FDR = 1
		switch {
		case r.NES > 0:
			den := fractionAtLeast(obsPos, r.NES)
			if den > 0 {
				r.FDR = math.Min(1, fractionAtLeast(nullPos, r.NES)/den)
			}
		case r.NES < 0:
			den := fractionAtMost(obsNeg, r.NES)
			if den > 0 {
				r.FDR = math.Min(1, fractionAtMost(nullNeg, r.NES)/den)
			}
		}
	}
	return results
}

func splitBySign(values []float64) (pos, neg []float64) {
	for _, v := range values {
		if v >= 0 {
			pos = append(pos, v)
		} else {
			neg = append(neg, v)
		}
	}
	return pos, neg
}

func meanOrZero(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Sum(values) / float64(len(values))
}

func fractionAtLeast(values []float64, x float64) float64 {
	if len(values) == 0 {
		return 0
	}
	n := 0
	for _, v := range values {
		if v >= x {
			n++
		}
	}
	return float64(n) / float64(len(values))
}

func fractionAtMost(values []float64, x float64) float64 {
	if len(values) == 0 {
		return 0
	}
	n := 0
	for _, v := range values {
		if v <= x {
			n++
		}
	}
	return float64(n) / float64(len(values))
}

func writeGSEAReport(dir string, results []GSEAResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create report directory %s: %w", dir, err)
	}
	f, err := os.Create(filepath.Join(dir, GSEAReportFile))
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'
	_ = w.Write([]string{"term", "name", "ES", "NES", "NOM p-val", "FDR q-val", "geneset_size", "matched_size"})
	for _, r := range results {
		_ = w.Write([]string{
			r.Term,
			r.Name,
			strconv.FormatFloat(r.ES, 'g', -1, 64),
			strconv.FormatFloat(r.NES, 'g', -1, 64),
			strconv.FormatFloat(r.NomP, 'g', -1, 64),
			strconv.FormatFloat(r.FDR, 'g', -1, 64),
			strconv.Itoa(r.GeneSetSize),
			strconv.Itoa(r.MatchedSize),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return f.Close()
}
