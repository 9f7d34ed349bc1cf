package enrichment

import (
	"fmt"
	"sort"

	"cogex/backend/internal/genesets"
	apperrors "cogex/backend/pkg/errors"
)

// ORAOptions configure an over-representation analysis.
type ORAOptions struct {
	Method            string  `json:"method"`
	Alpha             float64 `json:"alpha"`
	KeepInsignificant bool    `json:"keep_insignificant"`
	// Background restricts the universe. When empty the universe is
	// UniverseSize, or every gene in the mapping plus the query if that is
	// larger.
	Background   genesets.GeneSet `json:"-"`
	UniverseSize int              `json:"-"`
}

// DefaultORAOptions uses fdr_bh at alpha 0.05.
func DefaultORAOptions() ORAOptions {
	return ORAOptions{Method: MethodFDRBH, Alpha: 0.05}
}

// Result is the outcome of one gene set in an over-representation analysis.
type Result struct {
	CURIE string  `json:"curie"`
	Name  string  `json:"name"`
	P     float64 `json:"p"`
	Q     float64 `json:"q"`
	MLP   float64 `json:"mlp"`
	MLQ   float64 `json:"mlq"`
}

func validateAlpha(alpha float64) error {
	if alpha <= 0 || alpha >= 1 {
		return apperrors.NewInvalidInput("alpha", fmt.Sprintf("must be in (0, 1), got %g", alpha))
	}
	return nil
}

// ORA tests every gene set in mapping for over-representation of query with a
// one-sided Fisher exact test, then corrects for multiple testing. Results are
// sorted by p-value; unless KeepInsignificant is set only q < Alpha is kept.
func ORA(query genesets.GeneSet, mapping genesets.Mapping, opts ORAOptions) ([]Result, error) {
	if err := validateAlpha(opts.Alpha); err != nil {
		return nil, err
	}
	if err := validateMethod(methodOrDefault(opts.Method)); err != nil {
		return nil, err
	}

	var universe int
	if len(opts.Background) > 0 {
		query = intersect(query, opts.Background)
		universe = len(opts.Background)
	} else {
		all := mapping.Genes()
		for g := range query {
			all.Add(g)
		}
		universe = max(len(all), opts.UniverseSize)
	}

	keys := mapping.Keys()
	results := make([]Result, 0, len(keys))
	pvalues := make([]float64, 0, len(keys))
	for _, key := range keys {
		set := mapping[key]
		if len(opts.Background) > 0 {
			set = intersect(set, opts.Background)
		}
		a := len(intersect(query, set))
		b := len(query) - a
		c := len(set) - a
		d := universe - (len(query) + len(set) - a)
		if d < 0 {
			d = 0
		}
		p := FisherExactGreater(a, b, c, d)
		results = append(results, Result{CURIE: key.CURIE, Name: key.Name, P: p})
		pvalues = append(pvalues, p)
	}

	qvalues, err := Correct(pvalues, opts.Method, opts.Alpha)
	if err != nil {
		return nil, err
	}

	out := results[:0]
	for i := range results {
		r := results[i]
		r.Q = qvalues[i]
		r.MLP = mlog10(r.P)
		r.MLQ = mlog10(r.Q)
		if opts.KeepInsignificant || r.Q < opts.Alpha {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].P != out[j].P {
			return out[i].P < out[j].P
		}
		return out[i].CURIE < out[j].CURIE
	})
	return out, nil
}

func methodOrDefault(method string) string {
	if method == "" {
		return MethodFDRBH
	}
	return method
}

func intersect(a, b genesets.GeneSet) genesets.GeneSet {
	if len(a) > len(b) {
		a, b = b, a
	}
	out := make(genesets.GeneSet, len(a))
	for g := range a {
		if b.Has(g) {
			out.Add(g)
		}
	}
	return out
}
