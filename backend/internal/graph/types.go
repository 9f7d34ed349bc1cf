package graph

import "fmt"

// ============================================================================
// Statement Types
// ============================================================================

// SourceCounts maps a knowledge source (reader or database) to the number of
// evidences it contributed to one statement.
type SourceCounts map[string]int

// Total returns the evidence count summed over every source.
func (s SourceCounts) Total() int {
	total := 0
	for _, n := range s {
		total += n
	}
	return total
}

// Statement is one causal statement stored on an indra_rel edge.
type Statement struct {
	Hash          int64        `json:"hash"`
	Type          string       `json:"type"`
	JSON          string       `json:"stmt_json"`
	EvidenceCount int          `json:"evidence_count"`
	Belief        float64      `json:"belief"`
	SourceCounts  SourceCounts `json:"source_counts"`
	Evidences     []Evidence   `json:"evidences,omitempty"`
}

// Evidence is a single piece of support for a statement.
type Evidence struct {
	StmtHash   int64  `json:"stmt_hash"`
	SourceHash int64  `json:"source_hash"`
	SourceAPI  string `json:"source_api,omitempty"`
	JSON       string `json:"evidence"`
}

// SourceCountFilter selects curation candidates on indra_rel edges.
// Zero values disable the corresponding condition.
type SourceCountFilter struct {
	StmtTypes     []string
	SubjectPrefix string
	ObjectPrefix  string
	// SubjectFlag names a boolean property that must be true on the subject,
	// e.g. "is_kinase".
	SubjectFlag          string
	SubjectCURIE         string
	ObjectCURIE          string
	MinimumEvidenceCount int
	MinimumBelief        float64
	IncludeDBEvidence    bool
	Limit                int
}

// ErrStatementNotFound is returned when none of the requested hashes exist
type ErrStatementNotFound struct {
	Hashes []int64
}

func (e ErrStatementNotFound) Error() string {
	return fmt.Sprintf("statements not found: %v", e.Hashes)
}

// databaseSources are knowledge sources that are curated databases rather than
// text-mining readers.
var databaseSources = map[string]bool{
	"biopax":     true,
	"bel":        true,
	"signor":     true,
	"biogrid":    true,
	"hprd":       true,
	"trrust":     true,
	"tas":        true,
	"ctd":        true,
	"drugbank":   true,
	"virhostnet": true,
	"phosphoelm": true,
	"lincs_drug": true,
	"omnipath":   true,
	"crog":       true,
	"dgi":        true,
	"minerva":    true,
	"creeds":     true,
	"ubibrowser": true,
	"acsn":       true,
	"wormbase":   true,
}

// IsDatabaseSource reports whether source is a curated database.
func IsDatabaseSource(source string) bool {
	return databaseSources[source]
}

// ReaderSupported reports whether at least one evidence comes from a reader.
// Statements with no source counts are treated as reader supported.
func (s SourceCounts) ReaderSupported() bool {
	if len(s) == 0 {
		return true
	}
	for source, n := range s {
		if n > 0 && !IsDatabaseSource(source) {
			return true
		}
	}
	return false
}
