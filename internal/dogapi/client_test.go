package dogapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ngone6325/appfac/model"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/breeds/list/all", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":{"hound":["afghan","basset"],"pug":[]},"status":"success"}`))
	})
	mux.HandleFunc("/api/breed/hound/afghan/images/random", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"https://images.dog.ceo/breeds/hound-afghan/n02088094_1003.jpg","status":"success"}`))
	})
	mux.HandleFunc("/api/breed/unicorn/images/random", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":"error","message":"Breed not found (master breed does not exist)","code":404}`))
	})
	mux.HandleFunc("/api/breed/broken/images/random", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`upstream down`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: baseURL + "/api/", Timeout: time.Second}, zerolog.Nop())
	require.NoError(t, err)
	return c
}

func TestNewClientInvalidURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "not a url"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestAllBreeds(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv.URL)

	breeds, err := c.AllBreeds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"afghan", "basset"}, breeds["hound"])
	assert.Contains(t, breeds, "pug")
	assert.Empty(t, breeds["pug"])
}

func TestRandomImage(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv.URL)

	img, err := c.RandomImage(context.Background(), " Hound/Afghan ")
	require.NoError(t, err)
	assert.Equal(t, "https://images.dog.ceo/breeds/hound-afghan/n02088094_1003.jpg", img)
}

func TestRandomImageErrors(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	_, err := c.RandomImage(ctx, "unicorn")
	assert.ErrorIs(t, err, model.ErrInvalidBreed)
	assert.Contains(t, err.Error(), "master breed does not exist")

	_, err = c.RandomImage(ctx, "broken")
	assert.ErrorIs(t, err, model.ErrUnavailable)
	assert.Contains(t, err.Error(), "502")

	_, err = c.RandomImage(ctx, "  ")
	assert.ErrorIs(t, err, model.ErrInvalidBreed)
}

func TestRateLimitHonoursContext(t *testing.T) {
	srv := newTestServer(t)
	c, err := NewClient(Config{BaseURL: srv.URL + "/api", RatePerSecond: 0.001, Burst: 1}, zerolog.Nop())
	require.NoError(t, err)

	_, err = c.AllBreeds(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.AllBreeds(ctx)
	assert.ErrorIs(t, err, model.ErrUnavailable)
}

func TestUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newTestClient(t, url)
	_, err := c.AllBreeds(context.Background())
	assert.ErrorIs(t, err, model.ErrUnavailable)
}
