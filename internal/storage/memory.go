package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Ngone6325/appfac/model"
)

// MemoryStore is an in-memory FavoritesStore for the mock container and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	favs map[string]model.Favorite
}

var _ model.FavoritesStore = (*MemoryStore)(nil)

func NewMemoryStore(seed ...model.Favorite) *MemoryStore {
	s := &MemoryStore{favs: make(map[string]model.Favorite)}
	for _, f := range seed {
		if f.ID == uuid.Nil {
			f.ID = uuid.New()
		}
		s.favs[f.Breed] = f
	}
	return s
}

func (s *MemoryStore) Put(_ context.Context, fav model.Favorite) (model.Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.favs[fav.Breed]; ok {
		return existing, nil
	}
	if fav.ID == uuid.Nil {
		fav.ID = uuid.New()
	}
	fav.AddedAt = fav.AddedAt.UTC()
	s.favs[fav.Breed] = fav
	return fav, nil
}

func (s *MemoryStore) Delete(_ context.Context, breed string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.favs[breed]
	delete(s.favs, breed)
	return ok, nil
}

func (s *MemoryStore) List(_ context.Context) ([]model.Favorite, error) {
	s.mu.RLock()
	out := make([]model.Favorite, 0, len(s.favs))
	for _, f := range s.favs {
		out = append(out, f)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.Before(out[j].AddedAt)
		}
		return out[i].Breed < out[j].Breed
	})
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, breed string) (model.Favorite, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.favs[breed]
	return f, ok, nil
}
