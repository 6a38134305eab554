package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// NewNeo4jClient establishes a Bolt connection using the official Neo4j driver.
// Installed queries are served from opts.Queries, so a Neo4j copy of the
// contact graph can stand in for TigerGraph during development.
func NewNeo4jClient(ctx context.Context, opts Options) (Client, error) {
	if opts.URI == "" {
		return nil, ErrMissingURI
	}

	auth := neo4j.NoAuth()
	if opts.Username != "" {
		auth = neo4j.BasicAuth(opts.Username, opts.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(opts.URI, auth, func(c *neo4j.Config) {
		if opts.MaxConnections > 0 {
			c.MaxConnectionPoolSize = opts.MaxConnections
		}
	})
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify graph connectivity: %w", err)
	}

	queries := make(map[string]string, len(opts.Queries))
	for name, cypher := range opts.Queries {
		queries[name] = cypher
	}

	return &neo4jClient{
		driver:   driver,
		database: opts.Database,
		queries:  queries,
	}, nil
}

type neo4jClient struct {
	driver   neo4j.DriverWithContext
	database string
	queries  map[string]string
}

func (c *neo4jClient) RunInstalledQuery(ctx context.Context, name string, params map[string]any) (res Result, err error) {
	start := time.Now()
	defer func() { observeQuery("neo4j", name, start, err) }()

	cypher, ok := c.queries[name]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownQuery, name)
	}

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	out, err := session.Run(ctx, cypher, params)
	if err != nil {
		return Result{}, &QueryError{Query: name, Message: err.Error()}
	}

	return consumeResult(ctx, out)
}

func (c *neo4jClient) VerifyConnectivity(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

func (c *neo4jClient) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func consumeResult(ctx context.Context, res neo4j.ResultWithContext) (Result, error) {
	var records []Record
	for res.Next(ctx) {
		rec := res.Record()
		record := make(Record, len(rec.Keys))
		for _, key := range rec.Keys {
			value, _ := rec.Get(key)
			record[key] = value
		}
		records = append(records, record)
	}
	if err := res.Err(); err != nil {
		return Result{}, err
	}
	return Result{Records: records}, nil
}
