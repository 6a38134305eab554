package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP    HTTPConfig
	Graph   GraphConfig
	Tree    TreeConfig
	Logging LoggingConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MetricsEnabled    bool
	AllowedOriginsCSV string
}

// Graph backends.
const (
	BackendTigerGraph = "tigergraph"
	BackendNeo4j      = "neo4j"
)

// GraphConfig describes connectivity to the graph database. TigerGraph is
// reached through the GSQL console and REST++; Neo4j through Bolt.
type GraphConfig struct {
	Backend  string
	Host     string
	Name     string
	Username string
	Password string

	GSQLPort   string
	RestppPort string
	Version    string
	Commit     string

	UseTLS             bool
	CACertFile         string
	InsecureSkipVerify bool
	Timeout            time.Duration

	SecretAlias   string
	TokenLifetime time.Duration
	RateLimit     float64

	URI            string
	Database       string
	MaxConnections int
	QueryCatalog   string
}

// TreeConfig selects the installed query backing the tree endpoint.
type TreeConfig struct {
	Query       string
	RootPatient string
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	Colored       bool
	IncludeCaller bool
}

const (
	defaultHost             = "0.0.0.0"
	defaultPort             = 8000
	defaultReadTimeout      = 10 * time.Second
	defaultWriteTimeout     = 60 * time.Second
	defaultIdleTimeout      = 60 * time.Second
	defaultShutdownTimeout  = 10 * time.Second
	defaultLoggingLevel     = "info"
	defaultLoggingFormat    = "text"
	defaultAllowedOrigins   = "http://localhost:3000,https://localhost:3000"
	defaultGraphHost        = "127.0.0.1"
	defaultGraphName        = "MyGraph"
	defaultGraphUser        = "tigergraph"
	defaultGSQLPort         = "14240"
	defaultRestppPort       = "9000"
	defaultGraphTimeout     = 30 * time.Second
	defaultSecretAlias      = "patienttrace"
	defaultTokenLifetime    = 30 * 24 * time.Hour
	defaultRateLimit        = 20
	defaultGraphMaxSessions = 10
	defaultTreeQuery        = "listPatients_Infected_By"
	defaultTreeRootPatient  = "2000000205"
)

// Load reads configuration from environment variables, applying defaults.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		HTTP: HTTPConfig{
			Host:            valueOrDefault("SERVER_HOST", defaultHost),
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			Colored:       parseBoolWithDefault("LOG_COLOR", false),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
		Graph: GraphConfig{
			Backend:            strings.ToLower(valueOrDefault("GRAPH_BACKEND", BackendTigerGraph)),
			Host:               valueOrDefault("GRAPH_HOST", defaultGraphHost),
			Name:               valueOrDefault("GRAPH_NAME", defaultGraphName),
			Username:           valueOrDefault("GRAPH_USERNAME", defaultGraphUser),
			Password:           valueOrDefault("GRAPH_PASSWORD", defaultGraphUser),
			GSQLPort:           valueOrDefault("GSQL_PORT", defaultGSQLPort),
			RestppPort:         valueOrDefault("RESTPP_PORT", defaultRestppPort),
			Version:            os.Getenv("GSQL_VERSION"),
			Commit:             os.Getenv("GSQL_COMMIT"),
			UseTLS:             parseBoolWithDefault("GRAPH_TLS", false),
			CACertFile:         os.Getenv("GRAPH_CA_CERT"),
			InsecureSkipVerify: parseBoolWithDefault("GRAPH_INSECURE_SKIP_VERIFY", false),
			Timeout:            defaultGraphTimeout,
			SecretAlias:        valueOrDefault("GRAPH_SECRET_ALIAS", defaultSecretAlias),
			TokenLifetime:      defaultTokenLifetime,
			RateLimit:          parseFloatWithDefault("GRAPH_RATE_LIMIT", defaultRateLimit),
			URI:                os.Getenv("GRAPH_URI"),
			Database:           valueOrDefault("GRAPH_DATABASE", ""),
			MaxConnections:     parseIntWithDefault("GRAPH_MAX_CONNECTIONS", defaultGraphMaxSessions),
			QueryCatalog:       os.Getenv("GRAPH_QUERY_CATALOG"),
		},
		Tree: TreeConfig{
			Query:       valueOrDefault("TREE_QUERY", defaultTreeQuery),
			RootPatient: valueOrDefault("TREE_ROOT_PATIENT", defaultTreeRootPatient),
		},
	}

	port, err := parsePort("SERVER_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", &cfg.HTTP.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout},
		{"GRAPH_TIMEOUT", &cfg.Graph.Timeout},
		{"GRAPH_TOKEN_LIFETIME", &cfg.Graph.TokenLifetime},
	}
	for _, d := range durations {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", d.key, err)
			}
			*d.dst = parsed
		}
	}

	switch cfg.Graph.Backend {
	case BackendTigerGraph, BackendNeo4j:
	default:
		return Config{}, fmt.Errorf("unsupported GRAPH_BACKEND %q", cfg.Graph.Backend)
	}

	cfg.HTTP.MetricsEnabled = parseBoolWithDefault("SERVER_METRICS_ENABLED", false)
	cfg.HTTP.AllowedOriginsCSV = valueOrDefault("SERVER_ALLOWED_ORIGINS", defaultAllowedOrigins)

	return cfg, nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseFloatWithDefault(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			return val
		}
	}
	return fallback
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
