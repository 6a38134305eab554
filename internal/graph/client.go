package graph

import (
	"context"
	"errors"
	"fmt"
)

// Client runs pre-installed graph queries. Implementations exist for
// TigerGraph REST++ and for Neo4j, where installed queries are emulated by
// named Cypher statements.
type Client interface {
	RunInstalledQuery(ctx context.Context, name string, params map[string]any) (Result, error)
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Result is a simplified representation of a query response.
type Result struct {
	Records []Record
}

// Record groups key-value pairs returned from the graph engine.
type Record map[string]any

// Options configures the Neo4j client.
type Options struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
	// Queries maps installed query names to Cypher.
	Queries map[string]string
}

// InfectedByCypher implements listPatients_Infected_By on Neo4j. It is used
// when no query catalog is configured.
const InfectedByCypher = `MATCH (:Patient {patient_id: $p})-[:INFECTS]->(t:Patient)
RETURN collect(t.patient_id) AS Infected_Patients
`

var (
	// ErrMissingURI indicates the graph URI is not provided.
	ErrMissingURI = errors.New("graph URI is required")
	// ErrUnknownQuery indicates no installed query exists under the requested name.
	ErrUnknownQuery = errors.New("unknown installed query")
)

// QueryError is returned when the graph engine reports a failed query.
type QueryError struct {
	Query   string
	Code    string
	Message string
}

func (e *QueryError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("installed query %s failed (%s): %s", e.Query, e.Code, e.Message)
	}
	return fmt.Sprintf("installed query %s failed: %s", e.Query, e.Message)
}
