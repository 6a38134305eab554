package generator

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/vanshika/patienttrace/backend/internal/config"
	"github.com/vanshika/patienttrace/backend/internal/graph"
)

// Files written by WriteDataset.
const (
	PatientsFile     = "patients.csv"
	InfectionsFile   = "infects.csv"
	SchemaScript     = "schema.gsql"
	LoadScript       = "load.gsql"
	QueryScript      = "query.gsql"
	SetupScript      = "setup.gsql"
	Neo4jImportFile  = "import.cypher"
	QueryCatalogFile = "queries.yaml"
)

// WriteDataset writes the CSV files, the GSQL scripts that create and load
// the graph, and the Neo4j import script plus query catalog under dir.
// setup.gsql includes the other GSQL scripts and is meant for
// `gsql run-file`.
func WriteDataset(dataset Dataset, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve output dir: %w", err)
	}

	patients := [][]string{{"patient_id", "sex", "birth_year", "province", "infection_case", "confirmed_date"}}
	for _, p := range dataset.Patients {
		patients = append(patients, p.csvRecord())
	}
	if err := writeCSV(filepath.Join(abs, PatientsFile), patients); err != nil {
		return err
	}

	infections := [][]string{{"from", "to"}}
	for _, inf := range dataset.Infections {
		infections = append(infections, []string{inf.From, inf.To})
	}
	if err := writeCSV(filepath.Join(abs, InfectionsFile), infections); err != nil {
		return err
	}

	data := scriptData{
		Graph:          dataset.Graph,
		Dir:            abs,
		PatientsFile:   filepath.Join(abs, PatientsFile),
		InfectionsFile: filepath.Join(abs, InfectionsFile),
	}
	for name, tmpl := range scriptTemplates {
		if err := writeTemplate(filepath.Join(abs, name), tmpl, data); err != nil {
			return err
		}
	}

	catalog := config.QueryCatalog{Queries: map[string]string{
		"listPatients_Infected_By": graph.InfectedByCypher,
	}}
	return writeYAML(filepath.Join(abs, QueryCatalogFile), catalog)
}

func writeCSV(path string, records [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("write csv %s: %w", path, err)
	}
	return nil
}

func writeTemplate(path string, tmpl *template.Template, data scriptData) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	if err := tmpl.Execute(file, data); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return nil
}

func writeYAML(path string, data any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	enc := yaml.NewEncoder(file)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encode yaml for %s: %w", path, err)
	}
	return enc.Close()
}
