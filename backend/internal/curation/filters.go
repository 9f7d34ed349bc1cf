package curation

import (
	"sort"

	"cogex/backend/internal/graph"
)

// CuratedHashes returns the set of statement hashes with at least one
// curation.
func CuratedHashes(curations []Curation) map[int64]bool {
	out := make(map[int64]bool, len(curations))
	for _, c := range curations {
		out[c.PAHash] = true
	}
	return out
}

// RemoveCuratedPAHashes drops curated hashes and keeps the order of the rest.
func RemoveCuratedPAHashes(hashes []int64, curations []Curation) []int64 {
	curated := CuratedHashes(curations)
	out := make([]int64, 0, len(hashes))
	for _, h := range hashes {
		if !curated[h] {
			out = append(out, h)
		}
	}
	return out
}

// RemoveCuratedStatements drops curated statements. Unless includeDBEvidence
// is set, statements supported only by database sources are dropped too.
func RemoveCuratedStatements(stmts []graph.Statement, curations []Curation, includeDBEvidence bool) []graph.Statement {
	curated := CuratedHashes(curations)
	out := make([]graph.Statement, 0, len(stmts))
	for _, stmt := range stmts {
		if curated[stmt.Hash] {
			continue
		}
		if !includeDBEvidence && !stmt.SourceCounts.ReaderSupported() {
			continue
		}
		out = append(out, stmt)
	}
	return out
}

// ReaderSupportedCounts drops the hashes supported only by database sources
// unless includeDBEvidence is set.
func ReaderSupportedCounts(counts map[int64]graph.SourceCounts, includeDBEvidence bool) map[int64]graph.SourceCounts {
	if includeDBEvidence {
		return counts
	}
	out := make(map[int64]graph.SourceCounts, len(counts))
	for h, sc := range counts {
		if sc.ReaderSupported() {
			out[h] = sc
		}
	}
	return out
}

type evidenceKey struct {
	stmtHash   int64
	sourceHash int64
}

// RemoveCuratedEvidences drops curated evidences from each statement and then
// drops statements left without evidence.
func RemoveCuratedEvidences(stmts []graph.Statement, curations []Curation) []graph.Statement {
	curated := make(map[evidenceKey]bool, len(curations))
	for _, c := range curations {
		curated[evidenceKey{c.PAHash, c.SourceHash}] = true
	}

	out := make([]graph.Statement, 0, len(stmts))
	for _, stmt := range stmts {
		evidences := make([]graph.Evidence, 0, len(stmt.Evidences))
		for _, ev := range stmt.Evidences {
			if !curated[evidenceKey{stmt.Hash, ev.SourceHash}] {
				evidences = append(evidences, ev)
			}
		}
		if len(evidences) == 0 {
			continue
		}
		stmt.Evidences = evidences
		out = append(out, stmt)
	}
	return out
}

// Prioritize orders statement hashes by total evidence count, highest first
// with ties broken by hash. Curated hashes are removed when filterCurated is
// set and the result is cut to limit when limit is positive. The evidence
// totals of every input hash are returned alongside.
func Prioritize(sourceCounts map[int64]graph.SourceCounts, curations []Curation, filterCurated bool, limit int) ([]int64, map[int64]int) {
	totals := make(map[int64]int, len(sourceCounts))
	hashes := make([]int64, 0, len(sourceCounts))
	for h, counts := range sourceCounts {
		totals[h] = counts.Total()
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool {
		if totals[hashes[i]] != totals[hashes[j]] {
			return totals[hashes[i]] > totals[hashes[j]]
		}
		return hashes[i] < hashes[j]
	})

	if filterCurated {
		hashes = RemoveCuratedPAHashes(hashes, curations)
	}
	if limit > 0 && len(hashes) > limit {
		hashes = hashes[:limit]
	}
	return hashes, totals
}

// ConflictHashes returns, sorted, the hashes curated both as correct and as
// incorrect.
func ConflictHashes(curations []Curation) []int64 {
	positive := make(map[int64]bool)
	negative := make(map[int64]bool)
	for _, c := range curations {
		if c.Positive() {
			positive[c.PAHash] = true
		} else {
			negative[c.PAHash] = true
		}
	}
	var out []int64
	for h := range positive {
		if negative[h] {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// forHashes returns the curations of the given hashes, in input order.
func forHashes(curations []Curation, hashes []int64) []Curation {
	want := make(map[int64]bool, len(hashes))
	for _, h := range hashes {
		want[h] = true
	}
	var out []Curation
	for _, c := range curations {
		if want[c.PAHash] {
			out = append(out, c)
		}
	}
	return out
}
