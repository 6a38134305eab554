package repository

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/vanshika/patienttrace/backend/internal/graph"
)

func TestRepository_PatientsInfectedBy(t *testing.T) {
	mem := graph.NewMemoryClient()
	mem.PushResult(graph.Result{Records: []graph.Record{
		{InfectedPatientsField: []any{"2000000206", "2000000311", int64(2000000999)}},
	}})
	repo := New(mem)

	ids, err := repo.PatientsInfectedBy(context.Background(), "listPatients_Infected_By", " 2000000205 ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := []string{"2000000206", "2000000311", "2000000999"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}

	calls := mem.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 query, got %d", len(calls))
	}
	if calls[0].Name != "listPatients_Infected_By" {
		t.Fatalf("unexpected query name %q", calls[0].Name)
	}
	if calls[0].Params["p"] != "2000000205" {
		t.Fatalf("expected trimmed patient id param, got %v", calls[0].Params["p"])
	}
}

func TestRepository_PatientsInfectedBy_StringSlice(t *testing.T) {
	mem := graph.NewMemoryClient()
	mem.PushResult(graph.Result{Records: []graph.Record{
		{InfectedPatientsField: []string{"a", "b"}},
	}})

	ids, err := New(mem).PatientsInfectedBy(context.Background(), "q", "1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"a", "b"}) {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestRepository_PatientsInfectedBy_Errors(t *testing.T) {
	if _, err := New(graph.NewMemoryClient()).PatientsInfectedBy(context.Background(), "q", " "); err == nil {
		t.Fatal("expected error for blank patient id")
	}

	if _, err := New(graph.NewMemoryClient()).PatientsInfectedBy(context.Background(), "q", "1"); !errors.Is(err, ErrEmptyResult) {
		t.Fatalf("expected ErrEmptyResult, got %v", err)
	}

	mem := graph.NewMemoryClient()
	mem.PushResult(graph.Result{Records: []graph.Record{{"other": 1}}})
	if _, err := New(mem).PatientsInfectedBy(context.Background(), "q", "1"); err == nil {
		t.Fatal("expected error for missing column")
	}

	boom := errors.New("boom")
	if _, err := New(graph.NewMemoryClient().WithError(boom)).PatientsInfectedBy(context.Background(), "q", "1"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped query error, got %v", err)
	}
}
