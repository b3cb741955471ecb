package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/rxguard-backend/pkg/db/models"
)

const (
	minSearchLength    = 2
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// ExtractedMedication is one record produced by the upstream prescription
// extraction step. Name is free text and may not match the catalog.
type ExtractedMedication struct {
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Instructions string `json:"instructions"`
}

// ResolvedMedication pairs an extracted record with one catalog match.
// SourceIndex points back into the input slice.
type ResolvedMedication struct {
	SourceIndex int                 `json:"source_index"`
	Extracted   ExtractedMedication `json:"extracted"`
	Medication  models.Medication   `json:"medication"`
}

// UnmatchedMedication is an extracted record with no catalog match.
type UnmatchedMedication struct {
	SourceIndex int                 `json:"source_index"`
	Extracted   ExtractedMedication `json:"extracted"`
}

// Resolution is the outcome of ResolveExtracted. Every input record lands in
// exactly one of the two lists; a record may resolve to several medications.
type Resolution struct {
	Resolved  []ResolvedMedication  `json:"resolved"`
	Unmatched []UnmatchedMedication `json:"unmatched"`
}

// Service exposes catalog lookups used by the HTTP layer and other services.
type Service struct {
	repo *Repository
}

// NewService constructs a catalog service.
func NewService(repo *Repository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &Service{repo: repo}, nil
}

// Search returns medications whose name or generic name contains query.
// Queries shorter than two characters return nothing.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]models.Medication, error) {
	if len([]rune(strings.TrimSpace(query))) < minSearchLength {
		return []models.Medication{}, nil
	}
	switch {
	case limit <= 0:
		limit = defaultSearchLimit
	case limit > maxSearchLimit:
		limit = maxSearchLimit
	}
	return s.repo.MatchMedications(ctx, query, limit)
}

// ResolveExtracted maps extracted records onto catalog medications by
// case-insensitive substring of name or generic name. Records that match
// nothing, including blank names, are returned as unmatched.
func (s *Service) ResolveExtracted(ctx context.Context, records []ExtractedMedication) (*Resolution, error) {
	out := &Resolution{
		Resolved:  []ResolvedMedication{},
		Unmatched: []UnmatchedMedication{},
	}
	for i, record := range records {
		name := strings.TrimSpace(record.Name)
		if name == "" {
			out.Unmatched = append(out.Unmatched, UnmatchedMedication{SourceIndex: i, Extracted: record})
			continue
		}
		matches, err := s.repo.MatchMedications(ctx, name, 0)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			out.Unmatched = append(out.Unmatched, UnmatchedMedication{SourceIndex: i, Extracted: record})
			continue
		}
		for _, med := range matches {
			out.Resolved = append(out.Resolved, ResolvedMedication{SourceIndex: i, Extracted: record, Medication: med})
		}
	}
	return out, nil
}
