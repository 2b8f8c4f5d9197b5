// Package di is the composition root of the breeds app: it names every
// capability and builds the live and mock containers over the same set.
package di

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/Ngone6325/appfac"
	"github.com/Ngone6325/appfac/internal/config"
	"github.com/Ngone6325/appfac/internal/dogapi"
	"github.com/Ngone6325/appfac/internal/logging"
	"github.com/Ngone6325/appfac/internal/service"
	"github.com/Ngone6325/appfac/internal/storage"
	"github.com/Ngone6325/appfac/model"
)

// Capability identifiers, identical in both variants.
const (
	CapConfig         appfac.CapabilityID = "Config"
	CapLogger         appfac.CapabilityID = "Logger"
	CapClock          appfac.CapabilityID = "Clock"
	CapBreedCatalog   appfac.CapabilityID = "BreedCatalog"
	CapFavoritesStore appfac.CapabilityID = "FavoritesStore"
	CapBreedList      appfac.CapabilityID = "BreedListService"
	CapFavorites      appfac.CapabilityID = "FavoritesService"
)

// Capabilities returns every identifier the containers register, sorted.
func Capabilities() []appfac.CapabilityID {
	ids := []appfac.CapabilityID{
		CapConfig, CapLogger, CapClock, CapBreedCatalog,
		CapFavoritesStore, CapBreedList, CapFavorites,
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MockEpoch is the time the mock container's fake clock starts at.
var MockEpoch = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

type liveOptions struct {
	httpClient *http.Client
	logWriter  io.Writer
}

// LiveOption customises MakeLiveContainer.
type LiveOption func(*liveOptions)

// WithHTTPClient replaces the HTTP client used by the breed API client.
func WithHTTPClient(c *http.Client) LiveOption {
	return func(o *liveOptions) { o.httpClient = c }
}

// WithLogWriter sends the container's logs to w instead of stderr.
func WithLogWriter(w io.Writer) LiveOption {
	return func(o *liveOptions) { o.logWriter = w }
}

// MakeLiveContainer builds the registry bound to the real breed API and the
// sqlite favorites store. Any initialisation failure, e.g. an unusable
// storage path, is returned as an *appfac.ConstructionError and no container
// is produced.
func MakeLiveContainer(cfg config.Config, opts ...LiveOption) (*appfac.Container, error) {
	var o liveOptions
	for _, opt := range opts {
		opt(&o)
	}
	if err := cfg.Validate(); err != nil {
		return nil, &appfac.ConstructionError{Capability: CapConfig, Err: err}
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format, o.logWriter)
	b := appfac.NewBuilder(appfac.Live, appfac.WithLogger(log))

	b.MustProvideInstance(CapConfig, &cfg)
	b.MustProvideInstance(CapLogger, log)
	b.MustProvideInstanceAs(CapClock, clockwork.NewRealClock(), (*clockwork.Clock)(nil))

	b.MustProvideAs(CapBreedCatalog, func(cfg *config.Config, log zerolog.Logger) (*dogapi.Client, error) {
		return dogapi.NewClient(dogapi.Config{
			BaseURL:       cfg.API.BaseURL,
			Timeout:       cfg.API.Timeout,
			RatePerSecond: cfg.API.RatePerSecond,
			Burst:         cfg.API.Burst,
			HTTPClient:    o.httpClient,
		}, log)
	}, (*model.BreedCatalog)(nil), appfac.Singleton)

	b.MustProvideAs(CapFavoritesStore, func(cfg *config.Config, log zerolog.Logger) (*storage.SQLiteStore, error) {
		return storage.NewSQLiteStore(cfg.Storage.Path, log)
	}, (*model.FavoritesStore)(nil), appfac.Singleton)

	registerServices(b)
	return b.Build()
}

func registerServices(b *appfac.Builder) {
	b.MustProvideAs(CapBreedList, service.NewBreedList, (*model.BreedListService)(nil), appfac.Singleton)
	b.MustProvideAs(CapFavorites, service.NewFavorites, (*model.FavoritesService)(nil), appfac.Singleton)
}

// MakeMockContainer builds the registry from fakes. Each entry of overrides
// replaces the default fake for that capability; every other capability keeps
// its default. Overriding an unknown capability or with a value of the wrong
// type fails.
func MakeMockContainer(overrides map[appfac.CapabilityID]any) (*appfac.Container, error) {
	b := appfac.NewBuilder(appfac.Mock)

	cfg := config.Default()
	cfg.Variant = appfac.Mock.String()
	cfg.Storage.Path = ":memory:"
	b.MustProvideInstance(CapConfig, &cfg)
	b.MustProvideInstance(CapLogger, zerolog.Nop())
	b.MustProvideInstanceAs(CapClock, clockwork.NewFakeClockAt(MockEpoch), (*clockwork.Clock)(nil))

	b.MustProvideAs(CapBreedCatalog, func() (*service.FixtureCatalog, error) {
		breeds, err := service.LoadFixture()
		if err != nil {
			return nil, err
		}
		return service.NewFixtureCatalog(breeds), nil
	}, (*model.BreedCatalog)(nil), appfac.Singleton)

	b.MustProvideAs(CapFavoritesStore, func() *storage.MemoryStore {
		return storage.NewMemoryStore()
	}, (*model.FavoritesStore)(nil), appfac.Singleton)

	b.MustProvideAs(CapBreedList, service.NewMockBreedList, (*model.BreedListService)(nil), appfac.Singleton)
	b.MustProvideAs(CapFavorites, service.NewMockFavorites, (*model.FavoritesService)(nil), appfac.Singleton)

	ids := make([]appfac.CapabilityID, 0, len(overrides))
	for id := range overrides {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if err := b.Override(id, overrides[id]); err != nil {
			return nil, &appfac.ConstructionError{Capability: id, Err: fmt.Errorf("override: %w", err)}
		}
	}

	return b.Build()
}
