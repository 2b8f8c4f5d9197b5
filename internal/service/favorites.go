package service

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/Ngone6325/appfac/model"
)

// Favorites is the live FavoritesService. Only breeds known to the breed
// list can be marked.
type Favorites struct {
	store  model.FavoritesStore
	breeds model.BreedListService
	clock  clockwork.Clock
	log    zerolog.Logger
}

var _ model.FavoritesService = (*Favorites)(nil)

func NewFavorites(store model.FavoritesStore, breeds model.BreedListService, clock clockwork.Clock, log zerolog.Logger) *Favorites {
	return &Favorites{
		store:  store,
		breeds: breeds,
		clock:  clock,
		log:    log.With().Str("service", "favorites").Logger(),
	}
}

// Add marks breed as a favorite. Adding an existing favorite returns it unchanged.
func (s *Favorites) Add(ctx context.Context, breed string) (model.Favorite, error) {
	key, err := s.validate(ctx, breed)
	if err != nil {
		return model.Favorite{}, err
	}
	fav, err := s.store.Put(ctx, model.Favorite{Breed: key, AddedAt: s.clock.Now()})
	if err != nil {
		return model.Favorite{}, fmt.Errorf("add favorite %q: %w", key, err)
	}
	s.log.Info().Str("breed", key).Msg("favorite added")
	return fav, nil
}

// Remove unmarks breed; ErrNotFavorite if it was not marked.
func (s *Favorites) Remove(ctx context.Context, breed string) error {
	key := model.NormalizeBreed(breed)
	removed, err := s.store.Delete(ctx, key)
	if err != nil {
		return fmt.Errorf("remove favorite %q: %w", key, err)
	}
	if !removed {
		return fmt.Errorf("%w: %q", model.ErrNotFavorite, key)
	}
	s.log.Info().Str("breed", key).Msg("favorite removed")
	return nil
}

// List returns favorites in the order they were added.
func (s *Favorites) List(ctx context.Context) ([]model.Favorite, error) {
	return s.store.List(ctx)
}

func (s *Favorites) IsFavorite(ctx context.Context, breed string) (bool, error) {
	_, ok, err := s.store.Get(ctx, model.NormalizeBreed(breed))
	return ok, err
}

func (s *Favorites) validate(ctx context.Context, breed string) (string, error) {
	return knownKey(ctx, s.breeds, breed)
}

// knownKey normalizes breed and checks that the breed list has it.
func knownKey(ctx context.Context, breeds model.BreedListService, breed string) (string, error) {
	key := model.NormalizeBreed(breed)
	if key == "" {
		return "", fmt.Errorf("%w: empty breed", model.ErrInvalidBreed)
	}
	all, err := breeds.ListBreeds(ctx)
	if err != nil {
		return "", err
	}
	if !knownBreed(all, key) {
		return "", fmt.Errorf("%w: %q", model.ErrInvalidBreed, breed)
	}
	return key, nil
}
