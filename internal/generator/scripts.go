package generator

import "text/template"

type scriptData struct {
	Graph          string
	Dir            string
	PatientsFile   string
	InfectionsFile string
}

var scriptTemplates = map[string]*template.Template{
	SchemaScript:    template.Must(template.New(SchemaScript).Parse(schemaGSQL)),
	LoadScript:      template.Must(template.New(LoadScript).Parse(loadGSQL)),
	QueryScript:     template.Must(template.New(QueryScript).Parse(queryGSQL)),
	SetupScript:     template.Must(template.New(SetupScript).Parse(setupGSQL)),
	Neo4jImportFile: template.Must(template.New(Neo4jImportFile).Parse(neo4jImport)),
}

const schemaGSQL = `CREATE VERTEX Patient (PRIMARY_ID patient_id STRING, sex STRING, birth_year INT, province STRING, infection_case STRING, confirmed_date DATETIME) WITH primary_id_as_attribute="true"
CREATE DIRECTED EDGE infects (FROM Patient, TO Patient) WITH REVERSE_EDGE="reverse_infects"
CREATE GRAPH {{.Graph}} (Patient, infects, reverse_infects)
`

const loadGSQL = `USE GRAPH {{.Graph}}
CREATE LOADING JOB load_patients FOR GRAPH {{.Graph}} {
  DEFINE FILENAME patients = "{{.PatientsFile}}";
  DEFINE FILENAME infections = "{{.InfectionsFile}}";
  LOAD patients TO VERTEX Patient VALUES ($0, $1, $2, $3, $4, $5) USING header="true", separator=",";
  LOAD infections TO EDGE infects VALUES ($0, $1) USING header="true", separator=",";
}
RUN LOADING JOB load_patients
`

const queryGSQL = `USE GRAPH {{.Graph}}
CREATE QUERY listPatients_Infected_By(VERTEX<Patient> p) FOR GRAPH {{.Graph}} {
  ListAccum<STRING> @@infected;
  Start = {p};
  Infected = SELECT t FROM Start:s -(infects:e)-> Patient:t
             ACCUM @@infected += t.patient_id;
  PRINT @@infected AS Infected_Patients;
}
INSTALL QUERY listPatients_Infected_By
`

const setupGSQL = `@{{.Dir}}/schema.gsql
@{{.Dir}}/load.gsql
@{{.Dir}}/query.gsql
`

const neo4jImport = `CREATE CONSTRAINT patient_id IF NOT EXISTS FOR (p:Patient) REQUIRE p.patient_id IS UNIQUE;
LOAD CSV WITH HEADERS FROM 'file:///patients.csv' AS row
MERGE (p:Patient {patient_id: row.patient_id})
SET p.sex = row.sex, p.birth_year = toInteger(row.birth_year), p.province = row.province,
    p.infection_case = row.infection_case, p.confirmed_date = row.confirmed_date;
LOAD CSV WITH HEADERS FROM 'file:///infects.csv' AS row
MATCH (a:Patient {patient_id: row.from}), (b:Patient {patient_id: row.to})
MERGE (a)-[:INFECTS]->(b);
`
