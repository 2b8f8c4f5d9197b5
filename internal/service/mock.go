package service

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"gopkg.in/yaml.v3"

	"github.com/Ngone6325/appfac/model"
)

//go:embed fixtures/breeds.yaml
var fixtureYAML []byte

// LoadFixture decodes the embedded breed catalog.
func LoadFixture() ([]model.Breed, error) {
	var breeds []model.Breed
	if err := yaml.Unmarshal(fixtureYAML, &breeds); err != nil {
		return nil, fmt.Errorf("decode breed fixture: %w", err)
	}
	return breeds, nil
}

// FixtureCatalog is a BreedCatalog over a fixed breed list.
type FixtureCatalog struct {
	breeds []model.Breed
}

var _ model.BreedCatalog = (*FixtureCatalog)(nil)

func NewFixtureCatalog(breeds []model.Breed) *FixtureCatalog {
	return &FixtureCatalog{breeds: cloneBreeds(breeds)}
}

func (c *FixtureCatalog) AllBreeds(context.Context) (map[string][]string, error) {
	out := make(map[string][]string, len(c.breeds))
	for _, b := range c.breeds {
		out[b.Name] = append([]string{}, b.SubBreeds...)
	}
	return out, nil
}

// RandomImage returns a stable placeholder URL shaped like the real API's.
func (c *FixtureCatalog) RandomImage(_ context.Context, breed string) (string, error) {
	key := model.NormalizeBreed(breed)
	if !knownBreed(c.breeds, key) {
		return "", fmt.Errorf("%w: %q", model.ErrInvalidBreed, breed)
	}
	return fixtureImage(key), nil
}

func fixtureImage(key string) string {
	return "https://images.dog.ceo/breeds/" + strings.ReplaceAll(key, "/", "-") + "/fixture.jpg"
}

// MockBreedList is the fake BreedListService. It reads the catalog on every
// call, without the live service's cache, and counts calls so tests can
// assert on usage.
type MockBreedList struct {
	catalog model.BreedCatalog
	// Err, when set, is returned by every method.
	Err error

	mu    sync.Mutex
	calls map[string]int
}

var _ model.BreedListService = (*MockBreedList)(nil)

func NewMockBreedList(catalog model.BreedCatalog) *MockBreedList {
	return &MockBreedList{catalog: catalog, calls: make(map[string]int)}
}

// Calls returns how often method was invoked.
func (m *MockBreedList) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockBreedList) record(method string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
	return m.Err
}

func (m *MockBreedList) breeds(ctx context.Context) ([]model.Breed, error) {
	all, err := m.catalog.AllBreeds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list breeds: %w", err)
	}
	return breedsFromMap(all), nil
}

func (m *MockBreedList) ListBreeds(ctx context.Context) ([]model.Breed, error) {
	if err := m.record("ListBreeds"); err != nil {
		return nil, err
	}
	return m.breeds(ctx)
}

func (m *MockBreedList) Search(ctx context.Context, query string, limit int) ([]model.Breed, error) {
	if err := m.record("Search"); err != nil {
		return nil, err
	}
	breeds, err := m.breeds(ctx)
	if err != nil {
		return nil, err
	}
	return rankBreeds(breeds, query, limit), nil
}

func (m *MockBreedList) RandomImage(ctx context.Context, breed string) (string, error) {
	if err := m.record("RandomImage"); err != nil {
		return "", err
	}
	return m.catalog.RandomImage(ctx, model.NormalizeBreed(breed))
}

// MockFavorites is the fake FavoritesService. It keeps the live rules (only
// breeds the breed list knows can be added) but does not log.
type MockFavorites struct {
	store  model.FavoritesStore
	breeds model.BreedListService
	clock  clockwork.Clock
}

var _ model.FavoritesService = (*MockFavorites)(nil)

func NewMockFavorites(store model.FavoritesStore, breeds model.BreedListService, clock clockwork.Clock) *MockFavorites {
	return &MockFavorites{store: store, breeds: breeds, clock: clock}
}

func (m *MockFavorites) Add(ctx context.Context, breed string) (model.Favorite, error) {
	key, err := knownKey(ctx, m.breeds, breed)
	if err != nil {
		return model.Favorite{}, err
	}
	return m.store.Put(ctx, model.Favorite{Breed: key, AddedAt: m.clock.Now()})
}

func (m *MockFavorites) Remove(ctx context.Context, breed string) error {
	key := model.NormalizeBreed(breed)
	removed, err := m.store.Delete(ctx, key)
	if err != nil {
		return fmt.Errorf("remove favorite %q: %w", key, err)
	}
	if !removed {
		return fmt.Errorf("%w: %q", model.ErrNotFavorite, key)
	}
	return nil
}

func (m *MockFavorites) List(ctx context.Context) ([]model.Favorite, error) {
	return m.store.List(ctx)
}

func (m *MockFavorites) IsFavorite(ctx context.Context, breed string) (bool, error) {
	_, ok, err := m.store.Get(ctx, model.NormalizeBreed(breed))
	return ok, err
}
