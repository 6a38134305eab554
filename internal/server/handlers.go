package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/vanshika/patienttrace/backend/internal/domain"
	"github.com/vanshika/patienttrace/backend/internal/gsql"
)

// TreeBuilder produces infection trees.
type TreeBuilder interface {
	InfectionTree(ctx context.Context, patientID string) (domain.TreeNode, error)
}

// CatalogLister lists the schema objects of the connected graph.
type CatalogLister interface {
	Catalog(ctx context.Context) (gsql.Catalog, error)
}

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger  *slog.Logger
	trees   TreeBuilder
	console CatalogLister
}

// NewAPIHandlers constructs an APIHandlers instance. console may be nil when
// the backend has no GSQL console, in which case /catalog answers 501.
func NewAPIHandlers(logger *slog.Logger, trees TreeBuilder, console CatalogLister) *APIHandlers {
	return &APIHandlers{
		logger:  logger,
		trees:   trees,
		console: console,
	}
}

func (h *APIHandlers) handleInfectionTree(w http.ResponseWriter, r *http.Request) {
	patientID := r.URL.Query().Get("p")

	tree, err := h.trees.InfectionTree(r.Context(), patientID)
	if err != nil {
		h.logger.Error("failed to build infection tree", "error", err, "patientId", patientID, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusBadGateway, "failed to query infected patients")
		return
	}

	respondJSON(w, http.StatusOK, tree)
}

func (h *APIHandlers) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if h.console == nil {
		writeError(w, http.StatusNotImplemented, "catalog requires the tigergraph backend")
		return
	}

	catalog, err := h.console.Catalog(r.Context())
	if err != nil {
		h.logger.Error("failed to list catalog", "error", err, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusBadGateway, "failed to list catalog")
		return
	}

	respondJSON(w, http.StatusOK, catalog)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}
