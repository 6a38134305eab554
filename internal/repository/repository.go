package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vanshika/patienttrace/backend/internal/graph"
)

// InfectedPatientsField is the result column listing infected patient ids.
const InfectedPatientsField = "Infected_Patients"

// ErrEmptyResult is returned when an installed query yields no records.
var ErrEmptyResult = errors.New("installed query returned no records")

// Repository encapsulates graph read operations.
type Repository struct {
	client graph.Client
}

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	return &Repository{client: client}
}

// PatientsInfectedBy runs the named installed query for patientID and returns
// the ids listed in the first record's Infected_Patients column, in order.
func (r *Repository) PatientsInfectedBy(ctx context.Context, query, patientID string) ([]string, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, errors.New("patient id is required")
	}

	res, err := r.client.RunInstalledQuery(ctx, query, map[string]any{"p": patientID})
	if err != nil {
		return nil, fmt.Errorf("patients infected by %s: %w", patientID, err)
	}
	if len(res.Records) == 0 {
		return nil, fmt.Errorf("patients infected by %s: %w", patientID, ErrEmptyResult)
	}

	raw, ok := res.Records[0][InfectedPatientsField]
	if !ok {
		return nil, fmt.Errorf("patients infected by %s: missing %s column", patientID, InfectedPatientsField)
	}
	return toStrings(raw), nil
}

func toStrings(val any) []string {
	switch v := val.(type) {
	case nil:
		return []string{}
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, toString(item))
		}
		return out
	default:
		return []string{toString(v)}
	}
}

func toString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
