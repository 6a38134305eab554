package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// QueryCatalog maps installed query names to the Cypher statements that
// implement them on the Neo4j backend.
type QueryCatalog struct {
	Queries map[string]string `yaml:"queries"`
}

// LoadQueryCatalog reads a YAML query catalog:
//
//	queries:
//	  listPatients_Infected_By: |
//	    MATCH ... RETURN collect(p.id) AS Infected_Patients
func LoadQueryCatalog(path string) (QueryCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return QueryCatalog{}, fmt.Errorf("read query catalog: %w", err)
	}

	var catalog QueryCatalog
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return QueryCatalog{}, fmt.Errorf("parse query catalog %s: %w", path, err)
	}
	for name, cypher := range catalog.Queries {
		if strings.TrimSpace(cypher) == "" {
			return QueryCatalog{}, fmt.Errorf("query catalog %s: query %q is empty", path, name)
		}
	}
	if catalog.Queries == nil {
		catalog.Queries = map[string]string{}
	}
	return catalog, nil
}
