package genesets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePhosphosite(t *testing.T) {
	for in, want := range map[string]string{
		"MAPK1-T202":  "MAPK1-T202",
		" akt1-s473 ": "AKT1-S473",
		"HLA-A-Y320":  "HLA-A-Y320",
	} {
		got, ok := ParsePhosphosite(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got)
	}
	for _, in := range []string{"MAPK1", "MAPK1-", "-T202", "MAPK1-202", "MAPK1-T", "MAPK1-T20x"} {
		_, ok := ParsePhosphosite(in)
		assert.False(t, ok, in)
	}
}

func TestKinaseSubstrates(t *testing.T) {
	rows := [][]interface{}{
		{"hgnc:6871", "MAPK1", []interface{}{
			[]interface{}{"ELK1", `{"type": "Phosphorylation", "residue": "S", "position": "383"}`, 0.9, int64(5)},
			[]interface{}{"ELK1", `{"type": "Phosphorylation", "residue": "S", "position": "383"}`, 0.7, int64(8)},
			[]interface{}{"RPS6KA1", `{"type": "Phosphorylation", "residue": "T", "position": "359"}`, 0.4, int64(1)},
			[]interface{}{"MYC", `{"type": "Phosphorylation"}`, 0.9, int64(9)},
			[]interface{}{"FOS", `not json`, 0.9, int64(9)},
		}},
	}
	c := NewCollector(&fakeRunner{rows: map[string][][]interface{}{`"Phosphorylation"`: rows}}, newTestStore(t))
	mapk1 := Key{CURIE: "hgnc:6871", Name: "MAPK1"}

	all, err := c.KinaseSubstrates(context.Background(), DefaultThresholds())
	require.NoError(t, err)
	assert.Equal(t, []string{"ELK1-S383", "RPS6KA1-T359"}, all[mapk1].Sorted())

	strict, err := c.KinaseSubstrates(context.Background(), Thresholds{MinimumEvidenceCount: 6, MinimumBelief: 0.8})
	require.NoError(t, err)
	assert.Equal(t, []string{"ELK1-S383"}, strict[mapk1].Sorted())
}
