package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/patienttrace/backend/internal/domain"
)

type stubRepository struct {
	infected []string
	err      error
	query    string
	patient  string
}

func (s *stubRepository) PatientsInfectedBy(_ context.Context, query, patientID string) ([]string, error) {
	s.query = query
	s.patient = patientID
	if s.err != nil {
		return nil, s.err
	}
	return s.infected, nil
}

func TestBuildTree(t *testing.T) {
	tree := BuildTree("2000000205", []string{"2000000206", "2000000311"})

	assert.Equal(t, "205 ROOT", tree.Name)
	assert.Equal(t, "root", tree.ID)
	require.NotNil(t, tree.Style)
	assert.Equal(t, domain.NodeStyle{Fill: "#FFDBD9", Stroke: "#FF6D67"}, *tree.Style)
	assert.False(t, tree.Collapsed)

	require.Len(t, tree.Children, 2)
	assert.Equal(t, domain.TreeNode{Name: "206Patient", ID: "0", Children: []domain.TreeNode{}, Collapsed: true}, tree.Children[0])
	assert.Equal(t, "311Patient", tree.Children[1].Name)
	assert.Equal(t, "1", tree.Children[1].ID)
}

func TestBuildTree_ShortIDs(t *testing.T) {
	tree := BuildTree("7", nil)
	assert.Equal(t, "7 ROOT", tree.Name)
	assert.NotNil(t, tree.Children)
	assert.Empty(t, tree.Children)
}

func TestTreeService_DefaultRoot(t *testing.T) {
	repo := &stubRepository{infected: []string{"2000000400"}}
	svc := NewTreeService(repo, "listPatients_Infected_By", "2000000205")

	tree, err := svc.InfectionTree(context.Background(), "  ")
	require.NoError(t, err)

	assert.Equal(t, "listPatients_Infected_By", repo.query)
	assert.Equal(t, "2000000205", repo.patient)
	assert.Equal(t, "205 ROOT", tree.Name)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, "400Patient", tree.Children[0].Name)
}

func TestTreeService_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	svc := NewTreeService(&stubRepository{err: boom}, "q", "1")

	_, err := svc.InfectionTree(context.Background(), "2000000999")
	assert.ErrorIs(t, err, boom)
}
