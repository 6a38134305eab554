package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanshika/patienttrace/backend/internal/config"
	"github.com/vanshika/patienttrace/backend/internal/graph"
	"github.com/vanshika/patienttrace/backend/internal/gsql"
	"github.com/vanshika/patienttrace/backend/internal/logging"
	"github.com/vanshika/patienttrace/backend/internal/repository"
	"github.com/vanshika/patienttrace/backend/internal/server"
	"github.com/vanshika/patienttrace/backend/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "patienttrace: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := buildBackend(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to create graph client", "backend", cfg.Graph.Backend, "error", err)
		deps.close(logger)
		return err
	}
	defer deps.close(logger)

	repo := repository.New(deps.graph)
	trees := service.NewTreeService(repo, cfg.Tree.Query, cfg.Tree.RootPatient)

	var catalog server.CatalogLister
	health := server.HealthChecks{server.GraphHealthService{Client: deps.graph}}
	if deps.console != nil {
		console := service.NewConsoleService(deps.console)
		catalog = console
		health = append(health, server.SessionHealthService{LoggedIn: console.LoggedIn})
	}

	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           health,
		API:              server.NewAPIHandlers(logger, trees, catalog),
		AllowedOrigins:   parseAllowedOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: true,
		MetricsEnabled:   cfg.HTTP.MetricsEnabled,
	})

	srv := server.New(logger, cfg.HTTP, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndRun(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			logger.Info("received shutdown signal")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped unexpectedly", "error", err)
		return err
	}
	return nil
}

// backend bundles the installed-query client with the console session that
// bootstrapped it, if any.
type backend struct {
	graph   graph.Client
	console *gsql.Client
}

func (b backend) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if b.console != nil {
		if err := b.console.Quit(ctx); err != nil {
			logger.Warn("aborting console session failed", "error", err)
		}
	}
	if b.graph != nil {
		if err := b.graph.Close(ctx); err != nil {
			logger.Warn("closing graph client failed", "error", err)
		}
	}
}

func buildBackend(ctx context.Context, logger *slog.Logger, cfg config.Config) (backend, error) {
	switch cfg.Graph.Backend {
	case config.BackendNeo4j:
		client, err := buildNeo4jClient(ctx, cfg.Graph, cfg.Tree.Query)
		return backend{graph: client}, err
	default:
		return buildTigerGraph(ctx, logger, cfg.Graph)
	}
}

func buildNeo4jClient(ctx context.Context, cfg config.GraphConfig, treeQuery string) (graph.Client, error) {
	if cfg.URI == "" {
		return nil, graph.ErrMissingURI
	}

	opts := graph.Options{
		URI:            cfg.URI,
		Database:       cfg.Database,
		Username:       cfg.Username,
		Password:       cfg.Password,
		MaxConnections: cfg.MaxConnections,
		Queries:        map[string]string{treeQuery: graph.InfectedByCypher},
	}
	if cfg.QueryCatalog != "" {
		catalog, err := config.LoadQueryCatalog(cfg.QueryCatalog)
		if err != nil {
			return nil, err
		}
		opts.Queries = catalog.Queries
	}
	return graph.NewNeo4jClient(ctx, opts)
}

// buildTigerGraph logs in to the GSQL console, obtains a secret for the graph
// and exchanges it for a REST++ token.
func buildTigerGraph(ctx context.Context, logger *slog.Logger, cfg config.GraphConfig) (backend, error) {
	console, err := gsql.NewClient(gsql.Options{
		Host:               cfg.Host,
		GSPort:             cfg.GSQLPort,
		Username:           cfg.Username,
		Password:           cfg.Password,
		UseTLS:             cfg.UseTLS,
		CACertFile:         cfg.CACertFile,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		Version:            cfg.Version,
		Commit:             cfg.Commit,
		Timeout:            cfg.Timeout,
		Logger:             logger,
	})
	if err != nil {
		return backend{}, err
	}
	if err := console.Login(ctx); err != nil {
		return backend{}, fmt.Errorf("gsql login: %w", err)
	}
	logger.Info("gsql session established", "host", cfg.Host, "server_version", console.ServerVersion())

	secret, err := console.Secret(ctx, cfg.Name, cfg.SecretAlias)
	if err != nil {
		return backend{console: console}, fmt.Errorf("obtain secret for %s: %w", cfg.Name, err)
	}

	scheme := "http"
	if cfg.UseTLS || cfg.CACertFile != "" {
		scheme = "https"
	}
	restpp, err := graph.NewRestppClient(ctx, graph.RestppOptions{
		BaseURL:            scheme + "://" + net.JoinHostPort(cfg.Host, cfg.RestppPort),
		Graph:              cfg.Name,
		Secret:             secret,
		TokenLifetime:      cfg.TokenLifetime,
		CACertFile:         cfg.CACertFile,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		Timeout:            cfg.Timeout,
		RateLimit:          cfg.RateLimit,
	})
	if err != nil {
		return backend{console: console}, err
	}
	return backend{graph: restpp, console: console}, nil
}

func parseAllowedOrigins(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	var origins []string
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
