package graph

import (
	"context"
	"os"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The tests below require a running Neo4j instance.
// Set NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD environment variables.

func TestRepository_UpsertAndQuery(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Skipf("Neo4j not available: %v", err)
	}
	defer driver.Close(ctx)

	repo := NewRepository(driver, "")

	gene, err := NewNode("hgnc", "test-6407", []string{"BioEntity"}, map[string]interface{}{"name": "TESTKRAS"})
	require.NoError(t, err)
	term, err := NewNode("go", "test-0000001", []string{"BioEntity"}, map[string]interface{}{"name": "test process"})
	require.NoError(t, err)

	// Clean up
	defer func() {
		session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
		defer session.Close(ctx)
		_, _ = session.Run(ctx, "MATCH (n:BioEntity) WHERE n.id IN $ids DETACH DELETE n",
			map[string]interface{}{"ids": []string{gene.CURIE(), term.CURIE()}})
	}()

	require.NoError(t, repo.UpsertNodes(ctx, []Node{gene, term}))
	require.NoError(t, repo.UpsertRelations(ctx, []Relation{
		NewRelation("hgnc", "test-6407", "go", "test-0000001", "associated_with", nil),
	}))

	rows, err := repo.QueryTx(ctx,
		"MATCH (g:BioEntity)-[:associated_with]->(t:BioEntity {id: $id}) RETURN t.id, t.name, collect(g.id)",
		map[string]interface{}{"id": term.CURIE()})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "go:test-0000001", rows[0][0])
	assert.Equal(t, []interface{}{"hgnc:test-6407"}, rows[0][2])

	symbols, err := repo.ResolveSymbols(ctx, "human", []string{"TESTKRAS", "NOPE"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"TESTKRAS": "hgnc:test-6407"}, symbols)
}

func TestRepository_StatementsByHashes_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Skipf("Neo4j not available: %v", err)
	}
	defer driver.Close(ctx)

	repo := NewRepository(driver, "")
	_, _, err = repo.StatementsByHashes(ctx, []int64{-424242}, 0, true)
	var notFound ErrStatementNotFound
	assert.ErrorAs(t, err, &notFound)
}

func createTestDriver() (neo4j.DriverWithContext, error) {
	uri := getEnvOrDefault("NEO4J_URI", "bolt://localhost:7687")
	user := getEnvOrDefault("NEO4J_USER", "neo4j")
	password := getEnvOrDefault("NEO4J_PASSWORD", "password")

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, err
	}
	if err := driver.VerifyConnectivity(context.Background()); err != nil {
		_ = driver.Close(context.Background())
		return nil, err
	}
	return driver, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
