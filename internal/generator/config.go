package generator

// Config drives the synthetic contact-tracing data generator.
type Config struct {
	NumPatients int
	// FirstPatientID is the id of the first generated patient; later
	// patients count up from it.
	FirstPatientID int64
	// InfectionChance is the probability that a patient has a known infector.
	InfectionChance float64
	// ClusterChance is the probability that a new infection is traced back to
	// a patient who already infected someone, which grows wide trees.
	ClusterChance float64
	// RootPatient is guaranteed to exist and to have infected someone.
	RootPatient string
	Graph       string
	Seed        int64
}

// DefaultConfig returns settings that produce a tree under the default root
// patient used by the middleware.
func DefaultConfig() Config {
	return Config{
		NumPatients:     1000,
		FirstPatientID:  2000000001,
		InfectionChance: 0.6,
		ClusterChance:   0.4,
		RootPatient:     "2000000205",
		Graph:           "MyGraph",
		Seed:            42,
	}
}
