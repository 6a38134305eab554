package generator

import (
	"context"
	"math/rand"
	"strconv"
	"time"
)

// Patient is one confirmed case.
type Patient struct {
	ID            string    `json:"patient_id"`
	Sex           string    `json:"sex"`
	BirthYear     int       `json:"birth_year"`
	Province      string    `json:"province"`
	InfectionCase string    `json:"infection_case"`
	ConfirmedDate time.Time `json:"confirmed_date"`
}

// Infection records that From infected To.
type Infection struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Dataset contains the generated patients and infection edges.
type Dataset struct {
	Graph      string      `json:"graph"`
	Patients   []Patient   `json:"patients"`
	Infections []Infection `json:"infections"`
}

// Generator produces synthetic contact-tracing data for the Patient graph.
type Generator struct {
	cfg       Config
	rand      *rand.Rand
	fragments fragments
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.NumPatients <= 0 {
		cfg.NumPatients = def.NumPatients
	}
	if cfg.FirstPatientID <= 0 {
		cfg.FirstPatientID = def.FirstPatientID
	}
	if cfg.InfectionChance <= 0 {
		cfg.InfectionChance = def.InfectionChance
	}
	if cfg.ClusterChance <= 0 {
		cfg.ClusterChance = def.ClusterChance
	}
	if cfg.Graph == "" {
		cfg.Graph = def.Graph
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:       cfg,
		rand:      rand.New(rand.NewSource(cfg.Seed)),
		fragments: defaultFragments(),
	}
}

// Generate synthesises patients and a forest of infections. Every patient is
// infected by at most one earlier patient. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (Dataset, error) {
	ids := g.patientIDs()
	patients := make([]Patient, len(ids))
	start := time.Date(2020, time.January, 20, 0, 0, 0, 0, time.UTC)

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		patients[i] = Patient{
			ID:            id,
			Sex:           g.pick(g.fragments.sexes),
			BirthYear:     1930 + g.rand.Intn(90),
			Province:      g.pick(g.fragments.provinces),
			InfectionCase: g.pick(g.fragments.cases),
			ConfirmedDate: start.Add(time.Duration(i)*6*time.Hour + time.Duration(g.rand.Intn(360))*time.Minute),
		}
	}

	var (
		infections []Infection
		spreaders  []int
		isSpreader = make(map[int]bool, len(ids))
	)
	for i := 1; i < len(ids); i++ {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		if g.rand.Float64() >= g.cfg.InfectionChance {
			continue
		}

		from := g.rand.Intn(i)
		if len(spreaders) > 0 && g.rand.Float64() < g.cfg.ClusterChance {
			from = spreaders[g.rand.Intn(len(spreaders))]
		}
		if !isSpreader[from] {
			spreaders = append(spreaders, from)
			isSpreader[from] = true
		}
		infections = append(infections, Infection{From: ids[from], To: ids[i]})
	}

	infections = g.ensureRootSpreads(ids, infections)

	return Dataset{Graph: g.cfg.Graph, Patients: patients, Infections: infections}, nil
}

// patientIDs numbers patients from FirstPatientID, adding RootPatient when the
// range does not cover it.
func (g *Generator) patientIDs() []string {
	ids := make([]string, 0, g.cfg.NumPatients+1)
	hasRoot := g.cfg.RootPatient == ""
	for i := 0; i < g.cfg.NumPatients; i++ {
		id := strconv.FormatInt(g.cfg.FirstPatientID+int64(i), 10)
		if id == g.cfg.RootPatient {
			hasRoot = true
		}
		ids = append(ids, id)
	}
	if !hasRoot {
		ids = append([]string{g.cfg.RootPatient}, ids...)
	}
	return ids
}

// ensureRootSpreads rewires the next patient to have been infected by the root
// when the root infected nobody.
func (g *Generator) ensureRootSpreads(ids []string, infections []Infection) []Infection {
	root := g.cfg.RootPatient
	if root == "" {
		return infections
	}
	for _, inf := range infections {
		if inf.From == root {
			return infections
		}
	}

	rootIdx := -1
	for i, id := range ids {
		if id == root {
			rootIdx = i
			break
		}
	}
	if rootIdx < 0 || rootIdx+1 >= len(ids) {
		return infections
	}

	target := ids[rootIdx+1]
	for i, inf := range infections {
		if inf.To == target {
			infections[i].From = root
			return infections
		}
	}
	return append(infections, Infection{From: root, To: target})
}

func (g *Generator) pick(options []string) string {
	return options[g.rand.Intn(len(options))]
}

type fragments struct {
	sexes     []string
	provinces []string
	cases     []string
}

func defaultFragments() fragments {
	return fragments{
		sexes:     []string{"male", "female"},
		provinces: []string{"Seoul", "Busan", "Daegu", "Incheon", "Gwangju", "Daejeon", "Ulsan", "Gyeonggi-do", "Gangwon-do", "Jeju-do"},
		cases:     []string{"contact with patient", "overseas inflow", "etc", "Shincheonji Church", "Itaewon Clubs", "Guro-gu Call Center"},
	}
}

func (p Patient) csvRecord() []string {
	return []string{
		p.ID,
		p.Sex,
		strconv.Itoa(p.BirthYear),
		p.Province,
		p.InfectionCase,
		p.ConfirmedDate.Format("2006-01-02 15:04:05"),
	}
}
