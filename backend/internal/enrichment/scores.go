package enrichment

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"cogex/backend/internal/genesets"
	apperrors "cogex/backend/pkg/errors"
)

// Supported species for continuous analysis.
const (
	SpeciesHuman = "human"
	SpeciesMouse = "mouse"
	SpeciesRat   = "rat"
)

// SymbolResolver maps gene symbols of a species to HGNC CURIEs.
type SymbolResolver interface {
	ResolveSymbols(ctx context.Context, species string, symbols []string) (map[string]string, error)
}

// ScoreTable is one row per gene of a differential expression table.
type ScoreTable struct {
	GeneNames []string
	Values    []float64
}

// Len returns the number of rows.
func (t ScoreTable) Len() int {
	return len(t.GeneNames)
}

// SeparatorFor returns ',' for .csv files and '\t' otherwise.
func SeparatorFor(filename string) rune {
	if strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return ','
	}
	return '\t'
}

// ReadScoreTable reads the gene and score columns of a delimited table with a
// header row. Rows with an empty gene name are skipped.
func ReadScoreTable(r io.Reader, sep rune, geneColumn, scoreColumn string) (ScoreTable, error) {
	reader := csv.NewReader(r)
	reader.Comma = sep
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return ScoreTable{}, apperrors.NewInvalidInput("file", "input file is empty")
	}
	if err != nil {
		return ScoreTable{}, apperrors.NewInvalidInput("file", fmt.Sprintf("error reading input file: %v", err))
	}

	geneIdx, scoreIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case geneColumn:
			geneIdx = i
		case scoreColumn:
			scoreIdx = i
		}
	}
	if geneIdx < 0 {
		return ScoreTable{}, apperrors.NewInvalidInput("columns", fmt.Sprintf("no column named %s in input data", geneColumn))
	}
	if scoreIdx < 0 {
		return ScoreTable{}, apperrors.NewInvalidInput("columns", fmt.Sprintf("no column named %s in input data", scoreColumn))
	}

	var table ScoreTable
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ScoreTable{}, apperrors.NewInvalidInput("file", fmt.Sprintf("error reading input file: %v", err))
		}
		if geneIdx >= len(record) || scoreIdx >= len(record) {
			return ScoreTable{}, apperrors.NewInvalidInput("file", fmt.Sprintf("line %d has %d fields", line, len(record)))
		}
		gene := strings.TrimSpace(record[geneIdx])
		if gene == "" {
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(record[scoreIdx]), 64)
		if err != nil {
			return ScoreTable{}, apperrors.NewInvalidInput(scoreColumn, fmt.Sprintf("line %d: %q is not a number", line, record[scoreIdx]))
		}
		table.GeneNames = append(table.GeneNames, gene)
		table.Values = append(table.Values, value)
	}
	return table, nil
}

// SpeciesScores maps the symbols of table to normalized HGNC ids for species.
// Unmapped symbols are dropped; when a gene appears more than once the last
// row wins.
func SpeciesScores(ctx context.Context, resolver SymbolResolver, species string, table ScoreTable) (map[string]float64, error) {
	switch species {
	case SpeciesHuman, SpeciesMouse, SpeciesRat:
	default:
		return nil, apperrors.NewInvalidInput("species", fmt.Sprintf("unsupported species %q", species))
	}
	if len(table.GeneNames) != len(table.Values) {
		return nil, apperrors.NewInvalidInput("scores", "gene names and values differ in length")
	}

	unique := make(map[string]bool, len(table.GeneNames))
	symbols := make([]string, 0, len(table.GeneNames))
	for _, name := range table.GeneNames {
		if !unique[name] {
			unique[name] = true
			symbols = append(symbols, name)
		}
	}
	sort.Strings(symbols)

	ids, err := resolver.ResolveSymbols(ctx, species, symbols)
	if err != nil {
		return nil, fmt.Errorf("failed to map %s gene symbols: %w", species, err)
	}

	out := make(map[string]float64, len(ids))
	for i, name := range table.GeneNames {
		id, ok := ids[name]
		if !ok {
			continue
		}
		out[genesets.NormalizeGeneID(id)] = table.Values[i]
	}
	return out, nil
}
