// Package model holds the domain types of the breeds example and the
// capability interfaces both container variants implement.
package model

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidBreed = errors.New("invalid breed")
	ErrNotFavorite  = errors.New("breed is not a favorite")
	ErrUnavailable  = errors.New("breed source unavailable")
)

// Breed is a dog breed with its sub-breeds, e.g. "hound" with "afghan".
type Breed struct {
	Name      string   `json:"name" yaml:"name"`
	SubBreeds []string `json:"sub_breeds,omitempty" yaml:"sub_breeds,omitempty"`
}

// Names returns the breed followed by its qualified sub-breeds ("hound", "hound/afghan").
func (b Breed) Names() []string {
	out := make([]string, 0, len(b.SubBreeds)+1)
	out = append(out, b.Name)
	for _, sub := range b.SubBreeds {
		out = append(out, b.Name+"/"+sub)
	}
	return out
}

// Favorite is a breed the user has marked.
type Favorite struct {
	ID      uuid.UUID `json:"id"`
	Breed   string    `json:"breed"`
	AddedAt time.Time `json:"added_at"`
}

// NormalizeBreed lower-cases and trims a breed key. Sub-breeds use "breed/sub".
func NormalizeBreed(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Trim(s, "/")
}

// BreedCatalog is the raw source of breed data: the remote API in the live
// container, a fixture in the mock one.
type BreedCatalog interface {
	AllBreeds(ctx context.Context) (map[string][]string, error)
	RandomImage(ctx context.Context, breed string) (string, error)
}

// FavoritesStore persists favorites.
type FavoritesStore interface {
	Put(ctx context.Context, fav Favorite) (Favorite, error)
	Delete(ctx context.Context, breed string) (bool, error)
	List(ctx context.Context) ([]Favorite, error)
	Get(ctx context.Context, breed string) (Favorite, bool, error)
}

// BreedListService backs the breed list screen.
type BreedListService interface {
	ListBreeds(ctx context.Context) ([]Breed, error)
	Search(ctx context.Context, query string, limit int) ([]Breed, error)
	RandomImage(ctx context.Context, breed string) (string, error)
}

// FavoritesService backs the favorites screen.
type FavoritesService interface {
	Add(ctx context.Context, breed string) (Favorite, error)
	Remove(ctx context.Context, breed string) error
	List(ctx context.Context) ([]Favorite, error)
	IsFavorite(ctx context.Context, breed string) (bool, error)
}
