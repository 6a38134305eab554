package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.HTTP.Port)
	assert.Equal(t, BackendTigerGraph, cfg.Graph.Backend)
	assert.Equal(t, "127.0.0.1", cfg.Graph.Host)
	assert.Equal(t, "14240", cfg.Graph.GSQLPort)
	assert.Equal(t, "9000", cfg.Graph.RestppPort)
	assert.False(t, cfg.Graph.InsecureSkipVerify)
	assert.Equal(t, 30*time.Second, cfg.Graph.Timeout)
	assert.Equal(t, "listPatients_Infected_By", cfg.Tree.Query)
	assert.Equal(t, "2000000205", cfg.Tree.RootPatient)
	assert.Equal(t, "http://localhost:3000,https://localhost:3000", cfg.HTTP.AllowedOriginsCSV)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GRAPH_HOST", "tg.internal")
	t.Setenv("GRAPH_BACKEND", "NEO4J")
	t.Setenv("GRAPH_TIMEOUT", "5s")
	t.Setenv("GRAPH_INSECURE_SKIP_VERIFY", "true")
	t.Setenv("GRAPH_RATE_LIMIT", "2.5")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tg.internal", cfg.Graph.Host)
	assert.Equal(t, BackendNeo4j, cfg.Graph.Backend)
	assert.Equal(t, 5*time.Second, cfg.Graph.Timeout)
	assert.True(t, cfg.Graph.InsecureSkipVerify)
	assert.Equal(t, 2.5, cfg.Graph.RateLimit)
	assert.Equal(t, 9090, cfg.HTTP.Port)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GRAPH_NAME=Trace\n"), 0o600))
	t.Setenv("GRAPH_NAME", "")
	os.Unsetenv("GRAPH_NAME")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Trace", cfg.Graph.Name)
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("GRAPH_BACKEND", "postgres")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("GRAPH_BACKEND", "")
	t.Setenv("SERVER_PORT", "70000")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("SERVER_PORT", "")
	t.Setenv("GRAPH_TIMEOUT", "soon")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadQueryCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`queries:
  listPatients_Infected_By: |
    MATCH (p:Patient) RETURN collect(p.id) AS Infected_Patients
`), 0o600))

	catalog, err := LoadQueryCatalog(path)
	require.NoError(t, err)
	assert.Contains(t, catalog.Queries["listPatients_Infected_By"], "Infected_Patients")
}

func TestLoadQueryCatalog_EmptyQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.yaml")
	require.NoError(t, os.WriteFile(path, []byte("queries:\n  broken: \"\"\n"), 0o600))

	_, err := LoadQueryCatalog(path)
	assert.Error(t, err)
}
