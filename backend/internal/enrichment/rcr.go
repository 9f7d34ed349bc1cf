package enrichment

import (
	"sort"

	"cogex/backend/internal/genesets"
)

// RCRResult is the outcome of reverse causal reasoning for one regulator.
type RCRResult struct {
	CURIE     string  `json:"curie"`
	Name      string  `json:"name"`
	Correct   int     `json:"correct"`
	Incorrect int     `json:"incorrect"`
	Ambiguous int     `json:"ambiguous"`
	P         float64 `json:"binom_pvalue"`
	Q         float64 `json:"q"`
	MLP       float64 `json:"binom_mlp"`
	MLQ       float64 `json:"mlq"`
}

// ReverseCausalReasoning scores each regulator by how well its known up- and
// down-regulated targets explain the observed positive and negative genes.
// A prediction is correct when an upregulated target is positive or a
// downregulated target is negative, incorrect for the opposite sign, and
// ambiguous when the regulator has statements of both signs on the gene.
// Regulators with no correct or incorrect predictions are not tested. The
// p-value is a one-sided binomial test with success probability 0.5.
func ReverseCausalReasoning(positive, negative genesets.GeneSet, up, down genesets.Mapping, opts ORAOptions) ([]RCRResult, error) {
	if err := validateAlpha(opts.Alpha); err != nil {
		return nil, err
	}
	if err := validateMethod(methodOrDefault(opts.Method)); err != nil {
		return nil, err
	}

	keys := make(map[genesets.Key]bool, len(up)+len(down))
	for k := range up {
		keys[k] = true
	}
	for k := range down {
		keys[k] = true
	}
	ordered := make([]genesets.Key, 0, len(keys))
	for k := range keys {
		ordered = append(ordered, k)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].CURIE < ordered[j].CURIE })

	var results []RCRResult
	var pvalues []float64
	for _, key := range ordered {
		upTargets, downTargets := up[key], down[key]
		r := RCRResult{CURIE: key.CURIE, Name: key.Name}
		count := func(gene string, observedUp bool) {
			inUp, inDown := upTargets.Has(gene), downTargets.Has(gene)
			switch {
			case inUp && inDown:
				r.Ambiguous++
			case inUp == observedUp && (inUp || inDown):
				r.Correct++
			case inUp || inDown:
				r.Incorrect++
			}
		}
		for g := range positive {
			count(g, true)
		}
		for g := range negative {
			count(g, false)
		}
		n := r.Correct + r.Incorrect
		if n == 0 {
			continue
		}
		r.P = BinomialGreater(r.Correct, n)
		results = append(results, r)
		pvalues = append(pvalues, r.P)
	}

	qvalues, err := Correct(pvalues, opts.Method, opts.Alpha)
	if err != nil {
		return nil, err
	}
	out := make([]RCRResult, 0, len(results))
	for i, r := range results {
		r.Q = qvalues[i]
		r.MLP = mlog10(r.P)
		r.MLQ = mlog10(r.Q)
		if opts.KeepInsignificant || r.Q < opts.Alpha {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].P < out[j].P })
	return out, nil
}
