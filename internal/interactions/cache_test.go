package interactions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/rxguard-backend/pkg/enums"
)

func TestCachedFinderReadsThrough(t *testing.T) {
	finder := newFakeFinder()
	kv := newFakeKV()
	a, b := uuid.New(), uuid.New()
	finder.add(a, b, enums.SeveritySevere, "bleeding")

	cached := NewCachedFinder(finder, kv, time.Minute, nil)

	first, err := cached.FindInteraction(context.Background(), a, b)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 1, finder.calls)

	second, err := cached.FindInteraction(context.Background(), b, a)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, 1, finder.calls, "reverse lookup should hit the cache")
	assert.Equal(t, enums.SeveritySevere, second.Severity)
	assert.Equal(t, first.ID, second.ID)
}

func TestCachedFinderSeesInteractionRecordedAfterMiss(t *testing.T) {
	ctx := context.Background()
	finder := newFakeFinder()
	kv := newFakeKV()
	cached := NewCachedFinder(finder, kv, time.Minute, nil)
	a, b := uuid.New(), uuid.New()

	miss, err := cached.FindInteraction(ctx, a, b)
	require.NoError(t, err)
	assert.Nil(t, miss)
	assert.Empty(t, kv.data, "a pair without an interaction must not be cached")

	finder.add(a, b, enums.SeveritySevere, "bleeding risk")

	findings, err := CheckPairwise(ctx, []uuid.UUID{a, b}, cached)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, enums.SeveritySevere, findings[0].Severity)
}

func TestCachedFinderIgnoresLegacyNoneMarker(t *testing.T) {
	finder := newFakeFinder()
	kv := newFakeKV()
	a, b := uuid.New(), uuid.New()
	kv.data[kv.InteractionKey(a.String(), b.String())] = legacyNoneMarker
	finder.add(a, b, enums.SeverityModerate, "monitor")

	cached := NewCachedFinder(finder, kv, time.Minute, nil)
	hit, err := cached.FindInteraction(context.Background(), b, a)
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, enums.SeverityModerate, hit.Severity)
	assert.Equal(t, 1, finder.calls)
	assert.NotEqual(t, legacyNoneMarker, kv.data[kv.InteractionKey(a.String(), b.String())])
}

func TestCachedFinderFallsBackOnCacheError(t *testing.T) {
	finder := newFakeFinder()
	kv := newFakeKV()
	kv.getErr = errBoom
	a, b := uuid.New(), uuid.New()
	finder.add(a, b, enums.SeverityMild, "mild")

	cached := NewCachedFinder(finder, kv, time.Minute, nil)
	hit, err := cached.FindInteraction(context.Background(), a, b)
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, 1, finder.calls)
}

func TestNewCachedFinderWithoutStore(t *testing.T) {
	finder := newFakeFinder()
	assert.Same(t, finder, NewCachedFinder(finder, nil, time.Minute, nil))
}
