package interactions

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/rxguard-backend/pkg/enums"
)

func TestCheckPairwiseIsOrderIndependent(t *testing.T) {
	finder := newFakeFinder()
	warfarin, aspirin := uuid.New(), uuid.New()
	finder.add(warfarin, aspirin, enums.SeveritySevere, "Increased risk of bleeding")

	forward, err := CheckPairwise(context.Background(), []uuid.UUID{warfarin, aspirin}, finder)
	require.NoError(t, err)
	reverse, err := CheckPairwise(context.Background(), []uuid.UUID{aspirin, warfarin}, finder)
	require.NoError(t, err)

	require.Len(t, forward, 1)
	require.Len(t, reverse, 1)
	assert.Equal(t, forward[0].Severity, reverse[0].Severity)
	assert.Equal(t, forward[0].Description, reverse[0].Description)
	assert.Equal(t, aspirin, reverse[0].Drug1ID)
}

func TestCheckPairwiseSingleOrEmpty(t *testing.T) {
	finder := newFakeFinder()
	single, err := CheckPairwise(context.Background(), []uuid.UUID{uuid.New()}, finder)
	require.NoError(t, err)
	assert.Empty(t, single)
	assert.NotNil(t, single)

	id := uuid.New()
	dup, err := CheckPairwise(context.Background(), []uuid.UUID{id, id}, finder)
	require.NoError(t, err)
	assert.Empty(t, dup)
	assert.Zero(t, finder.calls)
}

func TestCheckPairwiseStableOrdering(t *testing.T) {
	finder := newFakeFinder()
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	finder.add(c, d, enums.SeverityMild, "c-d")
	finder.add(a, c, enums.SeverityModerate, "a-c")
	finder.add(b, a, enums.SeveritySevere, "a-b")

	findings, err := CheckPairwise(context.Background(), []uuid.UUID{a, b, a, c, d}, finder)
	require.NoError(t, err)
	require.Len(t, findings, 3)
	assert.Equal(t, []string{"a-b", "a-c", "c-d"}, []string{findings[0].Description, findings[1].Description, findings[2].Description})
	// four distinct ids give six pair lookups
	assert.Equal(t, 6, finder.calls)
}

func TestCheckPairwisePropagatesErrors(t *testing.T) {
	finder := newFakeFinder()
	finder.err = errBoom
	_, err := CheckPairwise(context.Background(), []uuid.UUID{uuid.New(), uuid.New()}, finder)
	assert.ErrorIs(t, err, errBoom)
}

func TestDedupe(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	assert.Equal(t, []uuid.UUID{a, b}, Dedupe([]uuid.UUID{a, b, a, b}))
	assert.Empty(t, Dedupe(nil))
}
