package graph

import (
	"context"
	"fmt"
)

// ============================================================================
// Ontology Operations
// ============================================================================

// Descendants returns the ids of every term below curie in the isa / partof
// hierarchy. curie itself is not included.
func (r *Repository) Descendants(ctx context.Context, curie string) ([]string, error) {
	rows, err := r.QueryTx(ctx, descendantsQuery, map[string]interface{}{"curie": curie})
	if err != nil {
		return nil, fmt.Errorf("failed to get descendants of %s: %w", curie, err)
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if id := stringAt(row, 0); id != "" {
			out = append(out, id)
		}
	}
	return out, nil
}

// speciesPrefixes maps a species to the namespace of its gene symbols.
var speciesPrefixes = map[string]string{
	"human": "hgnc:",
	"mouse": "mgi:",
	"rat":   "rgd:",
}

// ResolveSymbols maps gene symbols of species to HGNC CURIEs. Symbols without a
// match are absent from the result.
func (r *Repository) ResolveSymbols(ctx context.Context, species string, symbols []string) (map[string]string, error) {
	prefix, ok := speciesPrefixes[species]
	if !ok {
		return nil, fmt.Errorf("unsupported species %q", species)
	}
	out := make(map[string]string, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}

	query := humanSymbolsQuery
	params := map[string]interface{}{"names": symbols}
	if species != "human" {
		query = orthologSymbolsQuery
		params["prefix"] = prefix
	}

	rows, err := r.QueryTx(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s symbols: %w", species, err)
	}
	for _, row := range rows {
		symbol, id := stringAt(row, 0), stringAt(row, 1)
		if symbol == "" || id == "" {
			continue
		}
		// Keep the first ortholog when one symbol maps to several genes.
		if _, exists := out[symbol]; !exists {
			out[symbol] = id
		}
	}
	return out, nil
}
