package graph

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ============================================================================
// Upload Representation
// ============================================================================

// Node is a graph node prepared for upload. It is immutable once built.
type Node struct {
	dbNs   string
	dbID   string
	labels []string
	data   map[string]interface{}
}

// NodeJSON is the serialized form of a Node.
type NodeJSON struct {
	Labels []string               `json:"labels"`
	Data   map[string]interface{} `json:"data"`
}

// NewNode builds a node. dbNs and dbID must both be set.
func NewNode(dbNs, dbID string, labels []string, data map[string]interface{}) (Node, error) {
	if dbNs == "" {
		return Node{}, errors.New("node namespace is empty")
	}
	if dbID == "" {
		return Node{}, errors.New("node identifier is empty")
	}
	return Node{
		dbNs:   dbNs,
		dbID:   dbID,
		labels: append([]string(nil), labels...),
		data:   copyData(data),
	}, nil
}

// Grounding returns the namespace and identifier of the node.
func (n Node) Grounding() (string, string) {
	return n.dbNs, n.dbID
}

// CURIE returns "ns:id".
func (n Node) CURIE() string {
	return n.dbNs + ":" + n.dbID
}

// Labels returns a copy of the node labels.
func (n Node) Labels() []string {
	return append([]string(nil), n.labels...)
}

// Data returns a copy of the node properties.
func (n Node) Data() map[string]interface{} {
	return copyData(n.data)
}

// ToJSON returns the labels and the properties extended with db_ns and db_id.
func (n Node) ToJSON() NodeJSON {
	data := copyData(n.data)
	data["db_ns"] = n.dbNs
	data["db_id"] = n.dbID
	return NodeJSON{Labels: n.Labels(), Data: data}
}

// NodeFromJSON rebuilds a node from its serialized form. The grounding is
// taken from db_ns and db_id in data.
func NodeFromJSON(j NodeJSON) (Node, error) {
	data := copyData(j.Data)
	dbNs, _ := data["db_ns"].(string)
	dbID, _ := data["db_id"].(string)
	delete(data, "db_ns")
	delete(data, "db_id")
	return NewNode(dbNs, dbID, j.Labels, data)
}

// String renders the node as a Cypher node literal.
func (n Node) String() string {
	var b strings.Builder
	b.WriteString("(")
	for _, label := range n.labels {
		b.WriteString(":" + label)
	}
	fmt.Fprintf(&b, " { id:%s", cypherValue(n.CURIE()))
	for _, k := range sortedKeys(n.data) {
		fmt.Fprintf(&b, ", %s:%s", k, cypherValue(n.data[k]))
	}
	b.WriteString(" })")
	return b.String()
}

// Relation is a directed edge prepared for upload.
type Relation struct {
	SourceNs string                 `json:"source_ns"`
	SourceID string                 `json:"source_id"`
	TargetNs string                 `json:"target_ns"`
	TargetID string                 `json:"target_id"`
	RelType  string                 `json:"rel_type"`
	Data     map[string]interface{} `json:"data"`
}

// NewRelation builds a relation with a private copy of data.
func NewRelation(sourceNs, sourceID, targetNs, targetID, relType string, data map[string]interface{}) Relation {
	return Relation{
		SourceNs: sourceNs,
		SourceID: sourceID,
		TargetNs: targetNs,
		TargetID: targetID,
		RelType:  relType,
		Data:     copyData(data),
	}
}

// ToJSON returns the relation as a plain map.
func (r Relation) ToJSON() map[string]interface{} {
	return map[string]interface{}{
		"source_ns": r.SourceNs,
		"source_id": r.SourceID,
		"target_ns": r.TargetNs,
		"target_id": r.TargetID,
		"rel_type":  r.RelType,
		"data":      copyData(r.Data),
	}
}

func (r Relation) String() string {
	parts := make([]string, 0, len(r.Data))
	for _, k := range sortedKeys(r.Data) {
		parts = append(parts, fmt.Sprintf("%s:%s", k, cypherValue(r.Data[k])))
	}
	rel := ":" + r.RelType
	if len(parts) > 0 {
		rel += " " + strings.Join(parts, ", ")
	}
	return fmt.Sprintf("(%s, %s)-[%s]->(%s, %s)", r.SourceNs, r.SourceID, rel, r.TargetNs, r.TargetID)
}

// NodeQuery renders a node pattern such as "n:BioEntity {id: 'hgnc:6407'}".
// Empty parts are omitted.
func NodeQuery(name, nodeType, id string) string {
	var b strings.Builder
	b.WriteString(name)
	if nodeType != "" {
		b.WriteString(":" + nodeType)
	}
	if id != "" {
		fmt.Fprintf(&b, " {id: %s}", cypherValue(id))
	}
	return b.String()
}

// TripleQuery renders "(source)-[rel]->(target)" from the given patterns.
func TripleQuery(source, relation, target string) string {
	return fmt.Sprintf("(%s)-[%s]->(%s)", source, relation, target)
}

// identifiersNamespace describes how a namespace is written on identifiers.org.
type identifiersNamespace struct {
	prefix string
	// embedded is true when ids already carry the prefix, e.g. "GO:0006915".
	embedded bool
}

var identifiersNamespaces = map[string]identifiersNamespace{
	"HGNC":     {prefix: "hgnc"},
	"UP":       {prefix: "uniprot"},
	"FPLX":     {prefix: "fplx"},
	"MESH":     {prefix: "mesh"},
	"GO":       {prefix: "go", embedded: true},
	"CHEBI":    {prefix: "chebi", embedded: true},
	"HP":       {prefix: "hp", embedded: true},
	"DOID":     {prefix: "doid", embedded: true},
	"EFO":      {prefix: "efo"},
	"UBERON":   {prefix: "uberon", embedded: true},
	"MGI":      {prefix: "mgi", embedded: true},
	"RGD":      {prefix: "rgd", embedded: true},
	"PUBCHEM":  {prefix: "pubchem.compound"},
	"REACTOME": {prefix: "reactome"},
	"WP":       {prefix: "wikipathways"},
	"PMID":     {prefix: "pubmed"},
	"NCIT":     {prefix: "ncit"},
	"CHEMBL":   {prefix: "chembl.compound"},
}

// NormID converts an INDRA-style grounding into an identifiers.org CURIE. The
// namespace is mapped and an embedded prefix is stripped from the id.
func NormID(dbNs, dbID string) string {
	ns, ok := identifiersNamespaces[strings.ToUpper(dbNs)]
	if !ok {
		return strings.ToLower(dbNs) + ":" + dbID
	}
	id := dbID
	if ns.embedded {
		if i := strings.Index(dbID, ":"); i >= 0 {
			id = dbID[i+1:]
		}
	}
	return ns.prefix + ":" + id
}

func cypherValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(val, "'", `\'`) + "'"
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func copyData(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
