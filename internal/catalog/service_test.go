package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *Repository) {
	t.Helper()
	repo := NewRepository(newTestDB(t))
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc, repo
}

func TestSearchRequiresTwoCharacters(t *testing.T) {
	svc, repo := newTestService(t)
	mustCreateMedication(t, repo, "Warfarin", "Warfarin", "5mg")

	short, err := svc.Search(context.Background(), "w", 0)
	require.NoError(t, err)
	assert.Empty(t, short)
	assert.NotNil(t, short)

	found, err := svc.Search(context.Background(), "wa", 0)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestSearchAppliesLimit(t *testing.T) {
	svc, repo := newTestService(t)
	for _, name := range []string{"Alpha One", "Alpha Two", "Alpha Three"} {
		mustCreateMedication(t, repo, name, name, "1mg")
	}

	found, err := svc.Search(context.Background(), "alpha", 2)
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Equal(t, "Alpha One", found[0].Name)
}

func TestResolveExtractedKeepsUnmatched(t *testing.T) {
	svc, repo := newTestService(t)
	mustCreateMedication(t, repo, "Acetaminophen", "Paracetamol", "500mg")
	mustCreateMedication(t, repo, "Ibuprofen", "Ibuprofen", "200mg")

	res, err := svc.ResolveExtracted(context.Background(), []ExtractedMedication{
		{Name: "paracetamol", Dosage: "500mg", Frequency: "every 6 hours"},
		{Name: "Unobtainium", Dosage: "1 tablet"},
		{Name: "  "},
		{Name: "IBUPROFEN", Dosage: "200mg", Instructions: "with food"},
	})
	require.NoError(t, err)

	require.Len(t, res.Resolved, 2)
	assert.Equal(t, 0, res.Resolved[0].SourceIndex)
	assert.Equal(t, "Acetaminophen", res.Resolved[0].Medication.Name)
	assert.Equal(t, "500mg", res.Resolved[0].Extracted.Dosage)
	assert.Equal(t, 3, res.Resolved[1].SourceIndex)
	assert.Equal(t, "with food", res.Resolved[1].Extracted.Instructions)

	require.Len(t, res.Unmatched, 2)
	assert.Equal(t, "Unobtainium", res.Unmatched[0].Extracted.Name)
	assert.Equal(t, 2, res.Unmatched[1].SourceIndex)
}
