package enrichment

import (
	"fmt"
	"math"
	"sort"

	apperrors "cogex/backend/pkg/errors"
)

// Multiple hypothesis test correction methods.
const (
	MethodFDRBH      = "fdr_bh"
	MethodBonferroni = "bonferroni"
	MethodSidak      = "sidak"
	MethodHolmSidak  = "holm-sidak"
	MethodHolm       = "holm"
	MethodFDRTSBH    = "fdr_tsbh"
	MethodFDRTSBKY   = "fdr_tsbky"
)

// Methods lists the supported correction methods.
func Methods() []string {
	return []string{MethodFDRBH, MethodBonferroni, MethodSidak, MethodHolmSidak, MethodHolm, MethodFDRTSBH, MethodFDRTSBKY}
}

// Correct adjusts pvalues for multiple testing. An empty method means fdr_bh.
// alpha is only used by the two-stage FDR methods. The result has the same
// order as pvalues.
func Correct(pvalues []float64, method string, alpha float64) ([]float64, error) {
	if method == "" {
		method = MethodFDRBH
	}
	m := len(pvalues)
	if m == 0 {
		return []float64{}, validateMethod(method)
	}

	switch method {
	case MethodBonferroni:
		return mapValues(pvalues, func(p float64) float64 { return p * float64(m) }), nil
	case MethodSidak:
		return mapValues(pvalues, func(p float64) float64 { return sidak(p, m) }), nil
	case MethodHolm:
		return stepDown(pvalues, func(p float64, i int) float64 { return p * float64(m-i) }), nil
	case MethodHolmSidak:
		return stepDown(pvalues, func(p float64, i int) float64 { return sidak(p, m-i) }), nil
	case MethodFDRBH:
		return benjaminiHochberg(pvalues), nil
	case MethodFDRTSBH, MethodFDRTSBKY:
		if alpha <= 0 || alpha >= 1 {
			return nil, apperrors.NewInvalidInput("alpha", fmt.Sprintf("must be in (0, 1), got %g", alpha))
		}
		return twoStage(pvalues, alpha, method == MethodFDRTSBKY), nil
	}
	return nil, validateMethod(method)
}

func validateMethod(method string) error {
	for _, m := range Methods() {
		if m == method {
			return nil
		}
	}
	return apperrors.NewInvalidInput("correction method", fmt.Sprintf("unsupported method %q", method))
}

func sidak(p float64, m int) float64 {
	return 1 - math.Pow(1-p, float64(m))
}

func clip(q float64) float64 {
	return math.Max(0, math.Min(1, q))
}

func mapValues(pvalues []float64, f func(float64) float64) []float64 {
	out := make([]float64, len(pvalues))
	for i, p := range pvalues {
		out[i] = clip(f(p))
	}
	return out
}

// ascendingOrder returns the indices of pvalues sorted by value.
func ascendingOrder(pvalues []float64) []int {
	order := make([]int, len(pvalues))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return pvalues[order[i]] < pvalues[order[j]] })
	return order
}

// stepDown applies adjust to the i-th smallest p-value and enforces
// monotonicity with a running maximum.
func stepDown(pvalues []float64, adjust func(p float64, i int) float64) []float64 {
	order := ascendingOrder(pvalues)
	out := make([]float64, len(pvalues))
	running := 0.0
	for i, idx := range order {
		running = math.Max(running, clip(adjust(pvalues[idx], i)))
		out[idx] = running
	}
	return out
}

func benjaminiHochberg(pvalues []float64) []float64 {
	m := len(pvalues)
	order := ascendingOrder(pvalues)
	out := make([]float64, m)
	running := 1.0
	for i := m - 1; i >= 0; i-- {
		idx := order[i]
		running = math.Min(running, pvalues[idx]*float64(m)/float64(i+1))
		out[idx] = clip(running)
	}
	return out
}

// twoStage estimates the number of true nulls from a first BH pass and
// rescales the BH q-values by it.
func twoStage(pvalues []float64, alpha float64, bky bool) []float64 {
	m := len(pvalues)
	stageAlpha := alpha
	fact := 1.0
	if bky {
		stageAlpha = alpha / (1 + alpha)
		fact = 1 + alpha
	}

	first := benjaminiHochberg(pvalues)
	rejected := 0
	for _, q := range first {
		if q <= stageAlpha {
			rejected++
		}
	}

	out := make([]float64, m)
	if rejected == 0 || rejected == m {
		for i, q := range first {
			out[i] = clip(q * fact)
		}
		return out
	}
	trueNulls := float64(m - rejected)
	for i, q := range first {
		out[i] = clip(q * trueNulls / float64(m) * fact)
	}
	return out
}
