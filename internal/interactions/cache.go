package interactions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/rxguard-backend/pkg/db/models"
	"github.com/angelmondragon/rxguard-backend/pkg/enums"
	"github.com/angelmondragon/rxguard-backend/pkg/logger"
	"github.com/angelmondragon/rxguard-backend/pkg/redis"
)

// legacyNoneMarker is what earlier builds cached for a pair with no
// interaction. It is read as a miss.
const legacyNoneMarker = "none"

// CachedFinder is a read-through cache over a Finder keyed by the unordered
// pair. Only recorded interactions are cached; a pair with no interaction is
// looked up again every time so a newly recorded one is seen immediately.
// Cache failures fall back to the underlying finder.
type CachedFinder struct {
	next  Finder
	store redis.KeyValueStore
	ttl   time.Duration
	logg  *logger.Logger
}

// NewCachedFinder wraps next. A nil store returns next unchanged.
func NewCachedFinder(next Finder, store redis.KeyValueStore, ttl time.Duration, logg *logger.Logger) Finder {
	if store == nil {
		return next
	}
	return &CachedFinder{next: next, store: store, ttl: ttl, logg: logg}
}

type cachedInteraction struct {
	ID          uuid.UUID `json:"id"`
	Drug1ID     uuid.UUID `json:"drug1_id"`
	Drug2ID     uuid.UUID `json:"drug2_id"`
	Severity    string    `json:"severity"`
	Description string    `json:"description"`
}

// FindInteraction implements Finder.
func (c *CachedFinder) FindInteraction(ctx context.Context, a, b uuid.UUID) (*models.DrugInteraction, error) {
	key := c.store.InteractionKey(a.String(), b.String())

	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		if hit, ok := decodeCached(raw); ok {
			return hit, nil
		}
	case !redis.IsMiss(err):
		c.warn(ctx, "interaction cache read failed", err)
	}

	interaction, err := c.next.FindInteraction(ctx, a, b)
	if err != nil || interaction == nil {
		return interaction, err
	}

	payload, err := json.Marshal(cachedInteraction{
		ID:          interaction.ID,
		Drug1ID:     interaction.Drug1ID,
		Drug2ID:     interaction.Drug2ID,
		Severity:    string(interaction.Severity),
		Description: interaction.Description,
	})
	if err != nil {
		return interaction, nil
	}
	if err := c.store.Set(ctx, key, string(payload), c.ttl); err != nil {
		c.warn(ctx, "interaction cache write failed", err)
	}
	return interaction, nil
}

func decodeCached(raw string) (*models.DrugInteraction, bool) {
	if raw == legacyNoneMarker {
		return nil, false
	}
	var cached cachedInteraction
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil, false
	}
	interaction := &models.DrugInteraction{
		ID:          cached.ID,
		Drug1ID:     cached.Drug1ID,
		Drug2ID:     cached.Drug2ID,
		Severity:    enums.Severity(cached.Severity),
		Description: cached.Description,
	}
	return interaction, true
}

func (c *CachedFinder) warn(ctx context.Context, msg string, err error) {
	if c.logg == nil {
		return
	}
	c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), msg)
}
