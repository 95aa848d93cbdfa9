// Package matching learns which description a user prefers for a raw bank
// or inbox description and suggests it for later review drafts.
package matching

import (
	"context"
	"strings"
	"time"

	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/MrJamesThe3rd/ledgerflow/internal/fingerprint"
)

// allowableDrift is the largest edit distance, as a fraction of the longer
// string, at which a learned pattern still counts as a fuzzy match.
const allowableDrift = 0.2

type Mapping struct {
	RawPattern           string
	PreferredDescription string
	CreatedAt            time.Time
}

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=matching
type Repository interface {
	FindMatch(ctx context.Context, ownerID, rawDescription string) (string, error)
	CreateMapping(ctx context.Context, ownerID, rawPattern, preferredDescription string) error
	ListMappings(ctx context.Context, ownerID string) ([]Mapping, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Suggest tries to find a preferred description for the given raw description.
// A substring match on a learned pattern wins; otherwise the closest pattern
// within the allowed drift is used. Returns empty string if no match found.
func (s *Service) Suggest(ctx context.Context, ownerID, rawDescription string) (string, error) {
	if strings.TrimSpace(rawDescription) == "" {
		return "", nil
	}

	preferred, err := s.repo.FindMatch(ctx, ownerID, rawDescription)
	if err != nil || preferred != "" {
		return preferred, err
	}

	mappings, err := s.repo.ListMappings(ctx, ownerID)
	if err != nil {
		return "", err
	}

	return closest(rawDescription, mappings), nil
}

func closest(raw string, mappings []Mapping) string {
	target := []rune(fingerprint.Fold(raw))

	best := ""
	bestDistance := -1

	for _, m := range mappings {
		pattern := []rune(fingerprint.Fold(m.RawPattern))

		distance := levenshtein.DistanceForStrings(target, pattern, levenshtein.DefaultOptions)
		maxAllowed := int(float64(max(len(target), len(pattern))) * allowableDrift)

		if distance > maxAllowed {
			continue
		}

		if bestDistance < 0 || distance < bestDistance {
			best = m.PreferredDescription
			bestDistance = distance
		}
	}

	return best
}

// Learn remembers a new mapping between a raw pattern and a preferred description.
// Identical pairs are not stored.
func (s *Service) Learn(ctx context.Context, ownerID, rawPattern, preferredDescription string) error {
	rawPattern = strings.TrimSpace(rawPattern)
	preferredDescription = strings.TrimSpace(preferredDescription)

	if rawPattern == "" || preferredDescription == "" || rawPattern == preferredDescription {
		return nil
	}

	return s.repo.CreateMapping(ctx, ownerID, rawPattern, preferredDescription)
}
