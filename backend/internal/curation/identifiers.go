package curation

import (
	"fmt"
	"sort"
	"strings"

	"cogex/backend/internal/graph"
	apperrors "cogex/backend/pkg/errors"
)

// Paper identifier prefixes.
const (
	PrefixPubMed = "pubmed"
	PrefixPMC    = "pmc"
	PrefixDOI    = "doi"
	PrefixTRID   = "trid"
)

// PaperID identifies a publication.
type PaperID struct {
	Prefix string
	ID     string
}

// CURIE returns the publication node id.
func (p PaperID) CURIE() string {
	return p.Prefix + ":" + p.ID
}

// ParsePaperIdentifier accepts a bare PubMed id, PMC id or DOI, or a CURIE
// with a pmid, pubmed, doi, pmc, pmcid or trid prefix.
func ParsePaperIdentifier(s string) (PaperID, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return PaperID{}, apperrors.NewInvalidInput("paper", "identifier is required")
	case isDigits(s):
		return PaperID{PrefixPubMed, s}, nil
	case strings.HasPrefix(s, "PMC"):
		return PaperID{PrefixPMC, s}, nil
	case strings.Contains(s, "."):
		return PaperID{PrefixDOI, s}, nil
	}

	prefix, id, ok := strings.Cut(s, ":")
	if !ok {
		return PaperID{}, apperrors.NewInvalidInput("paper", fmt.Sprintf("can not find prefix for %s, consider writing it as a CURIE", s))
	}
	switch strings.ToLower(prefix) {
	case "pmid", "pubmed":
		return PaperID{PrefixPubMed, id}, nil
	case "doi":
		return PaperID{PrefixDOI, id}, nil
	case "pmc", "pmcid":
		if strings.HasPrefix(id, "PMC") {
			return PaperID{PrefixPMC, id}, nil
		}
		if isDigits(id) {
			return PaperID{PrefixPMC, "PMC" + id}, nil
		}
		return PaperID{}, apperrors.NewInvalidInput("paper", fmt.Sprintf("invalid PMC identifier %s", id))
	case "trid":
		return PaperID{PrefixTRID, id}, nil
	}
	return PaperID{}, apperrors.NewInvalidInput("paper", fmt.Sprintf("unhandled prefix in CURIE %s", s))
}

func isPaperPrefix(prefix string) bool {
	switch prefix {
	case PrefixPubMed, PrefixPMC, PrefixDOI, PrefixTRID:
		return true
	}
	return false
}

// MeSHSubset restricts MeSH curation to statements between two namespaces.
type MeSHSubset struct {
	SubjectPrefix string
	ObjectPrefix  string
}

// MeSHSubsets are the named MeSH curation subsets.
var MeSHSubsets = map[string]MeSHSubset{
	"ppi": {SubjectPrefix: "hgnc", ObjectPrefix: "hgnc"},
	"pmi": {SubjectPrefix: "hgnc", ObjectPrefix: "chebi"},
	"go":  {SubjectPrefix: "hgnc", ObjectPrefix: "go"},
}

// LookupMeSHSubset returns the named subset. An empty name selects every
// statement.
func LookupMeSHSubset(name string) (MeSHSubset, error) {
	if name == "" {
		return MeSHSubset{}, nil
	}
	subset, ok := MeSHSubsets[name]
	if !ok {
		names := make([]string, 0, len(MeSHSubsets))
		for n := range MeSHSubsets {
			names = append(names, n)
		}
		sort.Strings(names)
		return MeSHSubset{}, apperrors.NewInvalidInput("subset", fmt.Sprintf("%s, choose one of %v", name, names))
	}
	return subset, nil
}

// normCURIE turns "GO:0006915" or a bare id with defaultPrefix into the
// identifiers.org form used on graph nodes.
func normCURIE(s, defaultPrefix string) string {
	s = strings.TrimSpace(s)
	prefix, id, ok := strings.Cut(s, ":")
	if !ok {
		return graph.NormID(defaultPrefix, s)
	}
	return graph.NormID(prefix, id)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
