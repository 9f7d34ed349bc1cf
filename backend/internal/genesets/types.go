package genesets

import (
	"sort"
	"strings"
)

// Key identifies a gene set by the CURIE and name of the queried item.
type Key struct {
	CURIE string `json:"curie" msgpack:"curie"`
	Name  string `json:"name" msgpack:"name"`
}

// GeneSet is a set of normalized gene identifiers.
type GeneSet map[string]struct{}

// NewGeneSet builds a set from ids, normalizing each one.
func NewGeneSet(ids ...string) GeneSet {
	s := make(GeneSet, len(ids))
	for _, id := range ids {
		s.Add(NormalizeGeneID(id))
	}
	return s
}

// Add inserts an already normalized id.
func (s GeneSet) Add(id string) {
	s[id] = struct{}{}
}

// Has reports whether id is present.
func (s GeneSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the ids in lexical order.
func (s GeneSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Mapping maps gene-set keys to their genes.
type Mapping map[Key]GeneSet

// Clone returns a deep copy of m.
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for k, genes := range m {
		cp := make(GeneSet, len(genes))
		for g := range genes {
			cp.Add(g)
		}
		out[k] = cp
	}
	return out
}

// Genes returns the union of all sets.
func (m Mapping) Genes() GeneSet {
	out := make(GeneSet)
	for _, genes := range m {
		for g := range genes {
			out.Add(g)
		}
	}
	return out
}

// Keys returns the keys ordered by CURIE.
func (m Mapping) Keys() []Key {
	keys := make([]Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CURIE != keys[j].CURIE {
			return keys[i].CURIE < keys[j].CURIE
		}
		return keys[i].Name < keys[j].Name
	})
	return keys
}

// Confidence is the strongest support seen for one gene under one key.
type Confidence struct {
	Belief        float64 `json:"belief" msgpack:"belief"`
	EvidenceCount int     `json:"evidence_count" msgpack:"evidence_count"`
}

// ConfidenceMapping maps keys to per-gene confidence.
type ConfidenceMapping map[Key]map[string]Confidence

// Thresholds select the genes of a ConfidenceMapping.
type Thresholds struct {
	MinimumEvidenceCount int     `json:"minimum_evidence_count"`
	MinimumBelief        float64 `json:"minimum_belief"`
}

// DefaultThresholds keep every gene.
func DefaultThresholds() Thresholds {
	return Thresholds{MinimumEvidenceCount: 1, MinimumBelief: 0.0}
}

// Threshold keeps the genes with belief >= MinimumBelief and evidence count >=
// MinimumEvidenceCount. Keys left without genes stay as empty sets so that
// they still count as tests.
func Threshold(m ConfidenceMapping, thr Thresholds) Mapping {
	out := make(Mapping, len(m))
	for key, genes := range m {
		set := make(GeneSet)
		for gene, c := range genes {
			if c.Belief >= thr.MinimumBelief && c.EvidenceCount >= thr.MinimumEvidenceCount {
				set.Add(gene)
			}
		}
		out[key] = set
	}
	return out
}

// NormalizeGeneID lower-cases id and strips a leading "hgnc:" prefix, so
// "HGNC:1097" becomes "1097" and "FPLX:MEK" becomes "fplx:mek".
func NormalizeGeneID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	return strings.TrimPrefix(id, "hgnc:")
}

// mappingEntry is the persisted form of one Mapping key.
type mappingEntry struct {
	CURIE string   `msgpack:"curie"`
	Name  string   `msgpack:"name"`
	Genes []string `msgpack:"genes"`
}

func (m Mapping) entries() []mappingEntry {
	out := make([]mappingEntry, 0, len(m))
	for _, k := range m.Keys() {
		out = append(out, mappingEntry{CURIE: k.CURIE, Name: k.Name, Genes: m[k].Sorted()})
	}
	return out
}

func mappingFromEntries(entries []mappingEntry) Mapping {
	out := make(Mapping, len(entries))
	for _, e := range entries {
		set := make(GeneSet, len(e.Genes))
		for _, g := range e.Genes {
			set.Add(g)
		}
		out[Key{CURIE: e.CURIE, Name: e.Name}] = set
	}
	return out
}

type geneConfidence struct {
	Gene          string  `msgpack:"gene"`
	Belief        float64 `msgpack:"belief"`
	EvidenceCount int     `msgpack:"evidence_count"`
}

type confidenceEntry struct {
	CURIE string           `msgpack:"curie"`
	Name  string           `msgpack:"name"`
	Genes []geneConfidence `msgpack:"genes"`
}

func (m ConfidenceMapping) entries() []confidenceEntry {
	out := make([]confidenceEntry, 0, len(m))
	for key, genes := range m {
		e := confidenceEntry{CURIE: key.CURIE, Name: key.Name, Genes: make([]geneConfidence, 0, len(genes))}
		for gene, c := range genes {
			e.Genes = append(e.Genes, geneConfidence{Gene: gene, Belief: c.Belief, EvidenceCount: c.EvidenceCount})
		}
		sort.Slice(e.Genes, func(i, j int) bool { return e.Genes[i].Gene < e.Genes[j].Gene })
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CURIE < out[j].CURIE })
	return out
}

func confidenceFromEntries(entries []confidenceEntry) ConfidenceMapping {
	out := make(ConfidenceMapping, len(entries))
	for _, e := range entries {
		genes := make(map[string]Confidence, len(e.Genes))
		for _, g := range e.Genes {
			genes[g.Gene] = Confidence{Belief: g.Belief, EvidenceCount: g.EvidenceCount}
		}
		out[Key{CURIE: e.CURIE, Name: e.Name}] = genes
	}
	return out
}
