// Package service implements the screen-facing services of the breeds
// example, plus the fakes the mock container registers in their place.
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"

	"github.com/Ngone6325/appfac/model"
)

// BreedList is the live BreedListService. The catalog is fetched once and
// kept for the lifetime of the service.
type BreedList struct {
	catalog model.BreedCatalog
	log     zerolog.Logger

	mu     sync.Mutex
	breeds []model.Breed
}

var _ model.BreedListService = (*BreedList)(nil)

func NewBreedList(catalog model.BreedCatalog, log zerolog.Logger) *BreedList {
	return &BreedList{
		catalog: catalog,
		log:     log.With().Str("service", "breed_list").Logger(),
	}
}

// ListBreeds returns all breeds sorted by name.
func (s *BreedList) ListBreeds(ctx context.Context) ([]model.Breed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.breeds != nil {
		return cloneBreeds(s.breeds), nil
	}

	all, err := s.catalog.AllBreeds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list breeds: %w", err)
	}
	s.breeds = breedsFromMap(all)
	s.log.Debug().Int("breeds", len(s.breeds)).Msg("breed catalog loaded")
	return cloneBreeds(s.breeds), nil
}

// Search ranks breeds by how well their names match query; see rankBreeds.
func (s *BreedList) Search(ctx context.Context, query string, limit int) ([]model.Breed, error) {
	breeds, err := s.ListBreeds(ctx)
	if err != nil {
		return nil, err
	}
	return rankBreeds(breeds, query, limit), nil
}

// RandomImage returns an image URL for a known breed or sub-breed.
func (s *BreedList) RandomImage(ctx context.Context, breed string) (string, error) {
	breeds, err := s.ListBreeds(ctx)
	if err != nil {
		return "", err
	}
	key := model.NormalizeBreed(breed)
	if !knownBreed(breeds, key) {
		return "", fmt.Errorf("%w: %q", model.ErrInvalidBreed, breed)
	}
	return s.catalog.RandomImage(ctx, key)
}

func breedsFromMap(all map[string][]string) []model.Breed {
	out := make([]model.Breed, 0, len(all))
	for name, subs := range all {
		b := model.Breed{Name: name}
		if len(subs) > 0 {
			b.SubBreeds = append([]string(nil), subs...)
			sort.Strings(b.SubBreeds)
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func cloneBreeds(in []model.Breed) []model.Breed {
	out := make([]model.Breed, len(in))
	for i, b := range in {
		out[i] = model.Breed{Name: b.Name}
		if b.SubBreeds != nil {
			out[i].SubBreeds = append([]string(nil), b.SubBreeds...)
		}
	}
	return out
}

func knownBreed(breeds []model.Breed, key string) bool {
	for _, b := range breeds {
		for _, name := range b.Names() {
			if name == key {
				return true
			}
		}
	}
	return false
}

// match ranks, lower is better
const (
	rankExact = iota
	rankPrefix
	rankSubstring
	rankFuzzy
)

// rankBreeds orders breeds by their best-matching name: exact, then prefix,
// then substring, then names within a small edit distance of query. An empty
// query returns the first limit breeds. limit <= 0 means no limit.
func rankBreeds(breeds []model.Breed, query string, limit int) []model.Breed {
	q := model.NormalizeBreed(query)
	if q == "" {
		return truncate(cloneBreeds(breeds), limit)
	}

	maxDist := len(q) / 3
	if maxDist < 1 {
		maxDist = 1
	}

	type scored struct {
		breed model.Breed
		score int
	}
	var hits []scored
	for _, b := range breeds {
		best := -1
		for _, name := range b.Names() {
			score := -1
			switch {
			case name == q:
				score = rankExact
			case strings.HasPrefix(name, q):
				score = rankPrefix
			case strings.Contains(name, q):
				score = rankSubstring
			default:
				if d := levenshtein.ComputeDistance(lastSegment(name), q); d <= maxDist {
					score = rankFuzzy + d
				}
			}
			if score >= 0 && (best < 0 || score < best) {
				best = score
			}
		}
		if best >= 0 {
			hits = append(hits, scored{breed: b, score: best})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score < hits[j].score
		}
		return hits[i].breed.Name < hits[j].breed.Name
	})

	out := make([]model.Breed, len(hits))
	for i, h := range hits {
		out[i] = h.breed
	}
	return truncate(cloneBreeds(out), limit)
}

func lastSegment(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func truncate(breeds []model.Breed, limit int) []model.Breed {
	if limit > 0 && len(breeds) > limit {
		return breeds[:limit]
	}
	return breeds
}
