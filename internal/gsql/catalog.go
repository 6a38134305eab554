package gsql

import "strings"

// Catalog lists the schema objects reported by the console "ls" command.
type Catalog struct {
	Vertices []string `json:"vertices" yaml:"vertices"`
	Edges    []string `json:"edges" yaml:"edges"`
	Graphs   []string `json:"graphs" yaml:"graphs"`
	Jobs     []string `json:"jobs" yaml:"jobs"`
	Queries  []string `json:"queries" yaml:"queries"`
	Tuples   []string `json:"tuples" yaml:"tuples"`
}

type catalogMode int

const (
	modeNone catalogMode = iota
	modeVertex
	modeEdge
	modeGraph
	modeJob
	modeQuery
	modeTuple
)

var catalogHeaders = map[string]catalogMode{
	"Vertex Types":        modeVertex,
	"Edge Types":          modeEdge,
	"Graphs":              modeGraph,
	"Jobs":                modeJob,
	"Queries":             modeQuery,
	"User defined tuples": modeTuple,
}

// ParseCatalog extracts object names from "ls" output. A line ending in ':'
// switches the current section; unknown headers select no section and their
// entries are dropped.
func ParseCatalog(lines []string) Catalog {
	cat := Catalog{
		Vertices: []string{},
		Edges:    []string{},
		Graphs:   []string{},
		Jobs:     []string{},
		Queries:  []string{},
		Tuples:   []string{},
	}

	mode := modeNone
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasSuffix(line, ":") {
			mode = catalogHeaders[strings.TrimSuffix(line, ":")]
			continue
		}

		entry, ok := strings.CutPrefix(line, "- ")
		if !ok {
			continue
		}

		switch mode {
		case modeVertex:
			cat.Vertices = append(cat.Vertices, between(entry, "VERTEX ", "("))
		case modeEdge:
			cat.Edges = append(cat.Edges, between(entry, "EDGE ", "("))
		case modeGraph:
			cat.Graphs = append(cat.Graphs, between(entry, "Graph ", "("))
		case modeJob:
			cat.Jobs = append(cat.Jobs, between(entry, "JOB ", " FOR GRAPH"))
		case modeQuery:
			cat.Queries = append(cat.Queries, between(entry, "", "("))
		case modeTuple:
			cat.Tuples = append(cat.Tuples, between(entry, "", "("))
		}
	}
	return cat
}

// between returns the text after the first start marker up to the next end
// marker. A missing start marker begins at the start of s; a missing end
// marker runs to the end of s.
func between(s, start, end string) string {
	if start != "" {
		if i := strings.Index(s, start); i >= 0 {
			s = s[i+len(start):]
		}
	}
	if i := strings.Index(s, end); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
