package genesets

import (
	"context"
	"fmt"
)

// DescendantFinder lists the ontology terms below a term.
type DescendantFinder interface {
	Descendants(ctx context.Context, curie string) ([]string, error)
}

// ExtendByOntology adds to every set the genes annotated to its descendant
// terms. Genes are looked up in annotations, or in mapping itself when
// annotations is nil. mapping is modified in place; the lookups use a snapshot
// taken before any set grows.
func ExtendByOntology(ctx context.Context, mapping Mapping, ontology DescendantFinder, annotations Mapping) error {
	if annotations == nil {
		annotations = mapping
	}
	byCURIE := make(map[string]GeneSet, len(annotations))
	for key, genes := range annotations.Clone() {
		if existing, ok := byCURIE[key.CURIE]; ok {
			for g := range genes {
				existing.Add(g)
			}
			continue
		}
		byCURIE[key.CURIE] = genes
	}

	for key, genes := range mapping {
		children, err := ontology.Descendants(ctx, key.CURIE)
		if err != nil {
			return fmt.Errorf("failed to extend %s: %w", key.CURIE, err)
		}
		for _, child := range children {
			for g := range byCURIE[child] {
				genes.Add(g)
			}
		}
	}
	return nil
}
