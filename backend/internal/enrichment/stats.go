// Package enrichment runs gene-set statistics: over-representation analysis,
// reverse causal reasoning and pre-ranked gene set enrichment analysis.
package enrichment

import (
	"math"

	"gonum.org/v1/gonum/stat/combin"
	"gonum.org/v1/gonum/stat/distuv"
)

// FisherExactGreater is the one-sided Fisher exact test p-value for the 2x2
// table [[a, b], [c, d]] with the alternative that a is larger than expected.
// It is the hypergeometric upper tail P(X >= a).
func FisherExactGreater(a, b, c, d int) float64 {
	if a < 0 || b < 0 || c < 0 || d < 0 {
		return math.NaN()
	}
	total := a + b + c + d
	rowTotal := a + b
	colTotal := a + c
	upper := min(rowTotal, colTotal)

	logDenominator := combin.LogGeneralizedBinomial(float64(total), float64(rowTotal))
	p := 0.0
	for x := a; x <= upper; x++ {
		if rowTotal-x > total-colTotal {
			continue
		}
		logP := combin.LogGeneralizedBinomial(float64(colTotal), float64(x)) +
			combin.LogGeneralizedBinomial(float64(total-colTotal), float64(rowTotal-x)) -
			logDenominator
		p += math.Exp(logP)
	}
	return math.Min(p, 1.0)
}

// BinomialGreater is P(X >= k) for X ~ Binomial(n, 0.5).
func BinomialGreater(k, n int) float64 {
	if k <= 0 {
		return 1.0
	}
	if k > n {
		return 0.0
	}
	dist := distuv.Binomial{N: float64(n), P: 0.5}
	return math.Max(0, math.Min(1, 1-dist.CDF(float64(k-1))))
}

// mlog10 is -log10(p), finite for p == 0.
func mlog10(p float64) float64 {
	if p <= 0 {
		p = math.SmallestNonzeroFloat64
	}
	return -math.Log10(p)
}
