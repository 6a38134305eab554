package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/vanshika/patienttrace/backend/internal/graph"
)

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// GraphHealthService verifies installed-query connectivity as part of health checks.
type GraphHealthService struct {
	Client graph.Client
}

// Probe implements the HealthService interface.
func (s GraphHealthService) Probe(ctx context.Context) error {
	if s.Client == nil {
		return nil
	}
	if err := s.Client.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("graph: %w", err)
	}
	return nil
}

// SessionHealthService reports whether the console session is logged in.
type SessionHealthService struct {
	LoggedIn func() bool
}

// Probe implements the HealthService interface.
func (s SessionHealthService) Probe(context.Context) error {
	if s.LoggedIn == nil || s.LoggedIn() {
		return nil
	}
	return errors.New("gsql: console session is not logged in")
}

// HealthChecks runs every probe and joins their failures.
type HealthChecks []HealthService

// Probe implements the HealthService interface.
func (c HealthChecks) Probe(ctx context.Context) error {
	var errs []error
	for _, check := range c {
		if err := check.Probe(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
