package gsql

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const secretTimeLayout = "2006-01-02 15:04:05"

var tokenPattern = regexp.MustCompile(`^- Token: ([^ ]+) expire at: (.+)`)

// Token is a time-limited REST++ token issued from a secret.
type Token struct {
	Value    string    `json:"token"`
	ExpireAt time.Time `json:"expireAt"`
}

// Secret is one entry of "show secret" output.
type Secret struct {
	ID     string  `json:"secret"`
	Alias  string  `json:"alias"`
	Graph  string  `json:"graph"`
	Tokens []Token `json:"tokens,omitempty"`
}

// Secrets is an insertion-ordered registry of secrets keyed by id.
type Secrets struct {
	items []Secret
	index map[string]int
}

// Len reports the number of secrets.
func (s *Secrets) Len() int { return len(s.items) }

// List returns the secrets in the order the server listed them.
func (s *Secrets) List() []Secret {
	return append([]Secret(nil), s.items...)
}

// Get looks a secret up by id.
func (s *Secrets) Get(id string) (Secret, bool) {
	i, ok := s.index[id]
	if !ok {
		return Secret{}, false
	}
	return s.items[i], true
}

// ForGraph returns the id of the first secret bound to graph.
func (s *Secrets) ForGraph(graph string) (string, bool) {
	for _, sec := range s.items {
		if sec.Graph == graph {
			return sec.ID, true
		}
	}
	return "", false
}

// open starts a fresh record for id. A repeated id keeps its position but
// loses the fields collected so far.
func (s *Secrets) open(id string) *Secret {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[id]; ok {
		s.items[i] = Secret{ID: id}
		return &s.items[i]
	}
	s.items = append(s.items, Secret{ID: id})
	s.index[id] = len(s.items) - 1
	return &s.items[len(s.items)-1]
}

// ParseSecrets builds the registry from "show secret" output. Attribute lines
// that appear before the first secret are ignored.
func ParseSecrets(lines []string) (*Secrets, error) {
	reg := &Secrets{index: make(map[string]int)}
	current := ""

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "- Secret: "):
			current = strings.TrimPrefix(line, "- Secret: ")
			reg.open(current)
		case current == "":
			continue
		case strings.HasPrefix(line, "- Alias: "):
			reg.items[reg.index[current]].Alias = strings.TrimPrefix(line, "- Alias: ")
		case strings.HasPrefix(line, "- GraphName: "):
			reg.items[reg.index[current]].Graph = strings.TrimPrefix(line, "- GraphName: ")
		case strings.HasPrefix(line, "- Token: "):
			m := tokenPattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			expire, err := time.Parse(secretTimeLayout, m[2])
			if err != nil {
				return nil, fmt.Errorf("%w: token expiry %q: %v", ErrUnexpectedOutput, m[2], err)
			}
			sec := &reg.items[reg.index[current]]
			sec.Tokens = append(sec.Tokens, Token{Value: m[1], ExpireAt: expire})
		}
	}
	return reg, nil
}
