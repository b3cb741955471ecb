package interactions

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/rxguard-backend/pkg/db/models"
	"github.com/angelmondragon/rxguard-backend/pkg/enums"
)

// Finder looks up the interaction for an unordered pair. It returns nil, nil
// when the pair has no recorded interaction.
type Finder interface {
	FindInteraction(ctx context.Context, a, b uuid.UUID) (*models.DrugInteraction, error)
}

// PairFinding is one matched pair. Drug1ID and Drug2ID follow input order,
// not storage order.
type PairFinding struct {
	Drug1ID     uuid.UUID      `json:"drug1_id"`
	Drug2ID     uuid.UUID      `json:"drug2_id"`
	Severity    enums.Severity `json:"severity"`
	Description string         `json:"description"`
}

// Dedupe drops repeated ids, keeping first-seen order.
func Dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// CheckPairwise scans every unordered pair of the distinct ids and returns one
// finding per recorded interaction, ordered by (outer index, inner index).
func CheckPairwise(ctx context.Context, ids []uuid.UUID, finder Finder) ([]PairFinding, error) {
	distinct := Dedupe(ids)
	findings := []PairFinding{}
	if len(distinct) < 2 {
		return findings, nil
	}
	for i := 0; i < len(distinct); i++ {
		for j := i + 1; j < len(distinct); j++ {
			interaction, err := finder.FindInteraction(ctx, distinct[i], distinct[j])
			if err != nil {
				return nil, err
			}
			if interaction == nil {
				continue
			}
			findings = append(findings, PairFinding{
				Drug1ID:     distinct[i],
				Drug2ID:     distinct[j],
				Severity:    interaction.Severity,
				Description: interaction.Description,
			})
		}
	}
	return findings, nil
}
