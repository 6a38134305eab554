package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/vanshika/patienttrace/backend/internal/domain"
)

// InfectionRepository is the storage contract required by the tree service.
type InfectionRepository interface {
	PatientsInfectedBy(ctx context.Context, query, patientID string) ([]string, error)
}

// TreeService turns infection query results into the tree rendered by the
// front end.
type TreeService struct {
	repo        InfectionRepository
	query       string
	defaultRoot string
}

// NewTreeService constructs a TreeService. query names the installed query
// and defaultRoot is used when a request does not name a patient.
func NewTreeService(repo InfectionRepository, query, defaultRoot string) *TreeService {
	return &TreeService{
		repo:        repo,
		query:       query,
		defaultRoot: defaultRoot,
	}
}

// InfectionTree returns the tree of patients infected by patientID.
func (s *TreeService) InfectionTree(ctx context.Context, patientID string) (domain.TreeNode, error) {
	patientID = sanitizeString(patientID)
	if patientID == "" {
		patientID = s.defaultRoot
	}

	infected, err := s.repo.PatientsInfectedBy(ctx, s.query, patientID)
	if err != nil {
		return domain.TreeNode{}, err
	}
	return BuildTree(patientID, infected), nil
}

// BuildTree lays out root and its infected patients one level deep. Nodes are
// labelled by the last three characters of the patient id.
func BuildTree(root string, infected []string) domain.TreeNode {
	style := domain.RootStyle
	node := domain.TreeNode{
		Name:     shortID(root) + " ROOT",
		ID:       "root",
		Children: make([]domain.TreeNode, 0, len(infected)),
		Style:    &style,
	}
	for i, p := range infected {
		node.Children = append(node.Children, domain.TreeNode{
			Name:      shortID(p) + "Patient",
			ID:        strconv.Itoa(i),
			Children:  []domain.TreeNode{},
			Collapsed: true,
		})
	}
	return node
}

func shortID(id string) string {
	r := []rune(id)
	if len(r) <= 3 {
		return id
	}
	return string(r[len(r)-3:])
}

func sanitizeString(s string) string {
	return strings.TrimSpace(s)
}
