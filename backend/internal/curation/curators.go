package curation

import (
	"sort"

	"cogex/backend/internal/graph"
)

// Curator kinds.
const (
	KindPPI         = "ppi"
	KindGOA         = "goa"
	KindTF          = "tf"
	KindKinase      = "kinase"
	KindPhosphatase = "phosphatase"
	KindDUB         = "dub"
	KindMiRNA       = "mirna"
	KindDisProt     = "disprot"
	KindConflicts   = "conflicts"
)

// Curator describes one curation candidate list.
type Curator struct {
	Kind        string
	Title       string
	Description string
	Filter      graph.SourceCountFilter
	// ObjectPrefixes, when set, are the object namespaces a caller may
	// narrow the list to.
	ObjectPrefixes []string
}

var (
	amountTypes = []string{"IncreaseAmount", "DecreaseAmount"}

	curators = map[string]Curator{
		KindPPI: {
			Kind:        KindPPI,
			Title:       "PPI Curator",
			Description: "Statements whose subjects and objects are human gene products and whose type is Complex.",
			Filter:      graph.SourceCountFilter{StmtTypes: []string{"Complex"}, SubjectPrefix: "hgnc", ObjectPrefix: "hgnc"},
		},
		KindGOA: {
			Kind:        KindGOA,
			Title:       "GO Annotation Curator",
			Description: "Statements whose subjects are human genes and whose objects are Gene Ontology terms.",
			Filter:      graph.SourceCountFilter{SubjectPrefix: "hgnc", ObjectPrefix: "go"},
		},
		KindTF: {
			Kind:        KindTF,
			Title:       "Transcription Factor Curator",
			Description: "Statements where a human transcription factor increases or decreases the amount of a gene.",
			Filter:      graph.SourceCountFilter{StmtTypes: amountTypes, SubjectFlag: "is_transcription_factor", ObjectPrefix: "hgnc"},
		},
		KindKinase: {
			Kind:        KindKinase,
			Title:       "Kinase Curator",
			Description: "Statements where a human protein kinase phosphorylates its target.",
			Filter:      graph.SourceCountFilter{StmtTypes: []string{"Phosphorylation"}, SubjectFlag: "is_kinase", ObjectPrefix: "hgnc"},
		},
		KindPhosphatase: {
			Kind:        KindPhosphatase,
			Title:       "Phosphatase Curator",
			Description: "Statements where a human phosphatase dephosphorylates its target.",
			Filter:      graph.SourceCountFilter{StmtTypes: []string{"Dephosphorylation"}, SubjectFlag: "is_phosphatase", ObjectPrefix: "hgnc"},
		},
		KindDUB: {
			Kind:        KindDUB,
			Title:       "Deubiquitinase Curator",
			Description: "Statements where a human deubiquitinase deubiquitinates its target.",
			Filter:      graph.SourceCountFilter{StmtTypes: []string{"Deubiquitination"}, SubjectFlag: "is_deubiquitinase", ObjectPrefix: "hgnc"},
		},
		KindMiRNA: {
			Kind:        KindMiRNA,
			Title:       "miRNA Curator",
			Description: "Statements where a micro-RNA increases or decreases the amount of a gene.",
			Filter:      graph.SourceCountFilter{StmtTypes: amountTypes, SubjectPrefix: "mirbase", ObjectPrefix: "hgnc"},
		},
		KindDisProt: {
			Kind:           KindDisProt,
			Title:          "DisProt Curator",
			Description:    "Statements whose subjects are intrinsically disordered proteins.",
			Filter:         graph.SourceCountFilter{SubjectFlag: "is_disordered"},
			ObjectPrefixes: []string{"hgnc", "go", "chebi"},
		},
		KindConflicts: {
			Kind:        KindConflicts,
			Title:       "Conflict Resolver",
			Description: "Statements that have conflicting prior curations.",
		},
	}
)

// Curators returns every curator kind, sorted.
func Curators() []string {
	out := make([]string, 0, len(curators))
	for kind := range curators {
		out = append(out, kind)
	}
	sort.Strings(out)
	return out
}

// LookupCurator returns the curator registered for kind.
func LookupCurator(kind string) (Curator, bool) {
	c, ok := curators[kind]
	return c, ok
}

func (c Curator) allowsObjectPrefix(prefix string) bool {
	for _, p := range c.ObjectPrefixes {
		if p == prefix {
			return true
		}
	}
	return false
}
