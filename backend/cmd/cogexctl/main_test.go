package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cogex/backend/internal/cache"
	"cogex/backend/internal/curation"
	"cogex/backend/internal/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWarmer struct {
	names  []string
	called bool
}

func (f *fakeWarmer) Warm(ctx context.Context, names ...string) error {
	f.called = true
	f.names = names
	return nil
}

type fakeGraph struct {
	schema int
	nodes  []graph.Node
	rels   []graph.Relation
}

func (f *fakeGraph) EnsureSchema(ctx context.Context) int {
	f.schema++
	return 0
}

func (f *fakeGraph) UpsertNodes(ctx context.Context, nodes []graph.Node) error {
	f.nodes = append(f.nodes, nodes...)
	return nil
}

func (f *fakeGraph) UpsertRelations(ctx context.Context, rels []graph.Relation) error {
	f.rels = append(f.rels, rels...)
	return nil
}

type fakeOpener struct {
	store     cache.Store
	warmer    *fakeWarmer
	graph     *fakeGraph
	curations curation.Store
}

func (f *fakeOpener) Store(ctx context.Context) (cache.Store, error) { return f.store, nil }

func (f *fakeOpener) Warmer(ctx context.Context) (warmer, error) { return f.warmer, nil }

func (f *fakeOpener) Graph(ctx context.Context) (graphWriter, error) { return f.graph, nil }

func (f *fakeOpener) Curations(ctx context.Context) (curation.Store, error) {
	return f.curations, nil
}

func (f *fakeOpener) Close() {}

func newFakeOpener(t *testing.T) *fakeOpener {
	t.Helper()
	files, err := cache.NewFileStore(t.TempDir())
	require.NoError(t, err)

	db, err := curation.OpenDB(filepath.Join(t.TempDir(), "curation.db"))
	require.NoError(t, err)
	store := curation.NewGormStore(db)
	require.NoError(t, store.AutoMigrate(context.Background()))

	return &fakeOpener{store: files, warmer: &fakeWarmer{}, graph: &fakeGraph{}, curations: store}
}

func run(t *testing.T, o opener, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(o)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, newFakeOpener(t), "version")
	require.NoError(t, err)
	assert.Equal(t, "cogexctl dev\n", out)
}

func TestCacheWarm(t *testing.T) {
	o := newFakeOpener(t)

	_, err := run(t, o, "cache", "warm", "go", "reactome")
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "reactome"}, o.warmer.names)

	o.warmer = &fakeWarmer{}
	_, err = run(t, o, "cache", "warm")
	require.NoError(t, err)
	assert.True(t, o.warmer.called)
	assert.Empty(t, o.warmer.names)
}

func TestCacheWarm_UnknownSource(t *testing.T) {
	o := newFakeOpener(t)
	_, err := run(t, o, "cache", "warm", "kegg")
	assert.Error(t, err)
	assert.False(t, o.warmer.called)
}

func TestCacheListAndClear(t *testing.T) {
	o := newFakeOpener(t)
	ctx := context.Background()
	require.NoError(t, o.store.Put(ctx, "go", []string{"x"}))
	require.NoError(t, o.store.Put(ctx, "wiki", []string{"y"}))
	require.NoError(t, o.store.Put(ctx, "stale", []string{"z"}))

	out, err := run(t, o, "cache", "list")
	require.NoError(t, err)
	assert.Equal(t, "go\nstale (unknown)\nwiki\n", out)

	out, err = run(t, o, "cache", "clear", "wikipathways")
	require.NoError(t, err)
	assert.Equal(t, "deleted wiki\n", out)

	keys, err := o.store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "stale"}, keys)

	_, err = run(t, o, "cache", "clear")
	require.NoError(t, err)
	keys, err = o.store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"stale"}, keys)
}

func TestCurationsExport(t *testing.T) {
	o := newFakeOpener(t)
	ctx := context.Background()
	require.NoError(t, o.curations.Create(ctx, &curation.Curation{PAHash: 1, Tag: "correct", Curator: "a"}))
	require.NoError(t, o.curations.Create(ctx, &curation.Curation{PAHash: 2, Tag: "grounding", Curator: "b"}))

	out, err := run(t, o, "curations", "export")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 2)

	out, err = run(t, o, "curations", "export", "--hash", "2")
	require.NoError(t, err)
	var c curation.Curation
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &c))
	assert.Equal(t, int64(2), c.PAHash)
	assert.Equal(t, "grounding", c.Tag)
}

func TestGraphSchema(t *testing.T) {
	o := newFakeOpener(t)
	_, err := run(t, o, "graph", "schema")
	require.NoError(t, err)
	assert.Equal(t, 1, o.graph.schema)
}

func TestGraphUpload(t *testing.T) {
	dir := t.TempDir()
	nodes := filepath.Join(dir, "nodes.jsonl")
	rels := filepath.Join(dir, "relations.jsonl")
	require.NoError(t, os.WriteFile(nodes, []byte(
		`{"labels": ["BioEntity"], "data": {"db_ns": "hgnc", "db_id": "6407", "name": "KRAS"}}`+"\n\n"+
			`{"labels": ["BioEntity"], "data": {"db_ns": "go", "db_id": "0006915"}}`+"\n"), 0o644))
	require.NoError(t, os.WriteFile(rels, []byte(
		`{"source_ns": "hgnc", "source_id": "6407", "target_ns": "go", "target_id": "0006915", "rel_type": "associated_with", "data": {}}`+"\n"), 0o644))

	o := newFakeOpener(t)
	out, err := run(t, o, "graph", "upload", "--nodes", nodes, "--relations", rels)
	require.NoError(t, err)
	assert.Equal(t, "uploaded 2 nodes and 1 relations\n", out)
	require.Len(t, o.graph.nodes, 2)
	assert.Equal(t, "hgnc:6407", o.graph.nodes[0].CURIE())
	require.Len(t, o.graph.rels, 1)
	assert.Equal(t, "associated_with", o.graph.rels[0].RelType)
}

func TestGraphUpload_BadInput(t *testing.T) {
	o := newFakeOpener(t)
	_, err := run(t, o, "graph", "upload")
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "rels.jsonl")
	require.NoError(t, os.WriteFile(bad, []byte(`{"source_ns": "hgnc", "rel_type": "x"}`+"\n"), 0o644))
	_, err = run(t, o, "graph", "upload", "--relations", bad)
	assert.ErrorContains(t, err, "line 1")
	assert.Empty(t, o.graph.rels)
}
