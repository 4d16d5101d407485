package movies

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"cinebook/internal/shared/apperrors"
	"cinebook/internal/shared/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(baseURL string) CatalogClient {
	return NewCatalogClient(config.CatalogConfig{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	})
}

func TestCatalogClient_NowPlaying_RetriesTransientFailures(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"id":550,"title":"Midnight Run Redux","vote_average":7.8}]}`))
	}))
	defer srv.Close()

	client := newTestCatalog(srv.URL)
	results, err := client.NowPlaying(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 3, requests.Load(), "two failures then success within the retry budget")
	require.Len(t, results, 1)
	assert.Equal(t, 550, results[0].ID)
	assert.Equal(t, "Midnight Run Redux", results[0].Title)
}

func TestCatalogClient_NowPlaying_ExhaustsRetries(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newTestCatalog(srv.URL)
	_, err := client.NowPlaying(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUpstreamUnavailable)
	assert.EqualValues(t, 3, requests.Load(), "three attempts, then give up")
}

func TestCatalogClient_GetMovie_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestCatalog(srv.URL)
	_, err := client.GetMovie(context.Background(), "99999")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCatalogClient_GetMovie_FoldsDetailsAndCredits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/movie/550":
			w.Write([]byte(`{
				"id": 550,
				"title": "Midnight Run Redux",
				"overview": "A bounty hunter escorts a mob accountant.",
				"genres": [{"id": 28, "name": "Action"}],
				"release_date": "2025-11-07",
				"original_language": "en",
				"tagline": "Nobody runs forever.",
				"vote_average": 7.8,
				"runtime": 126
			}`))
		case "/movie/550/credits":
			w.Write([]byte(`{"cast":[{"name":"R. Kapoor","profile_path":"/rk.jpg"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := newTestCatalog(srv.URL)
	movie, err := client.GetMovie(context.Background(), "550")
	require.NoError(t, err)

	assert.Equal(t, "550", movie.ID, "keyed by the provider id as given")
	assert.Equal(t, "Midnight Run Redux", movie.Title)
	assert.Equal(t, 126, movie.Runtime)
	require.Len(t, movie.Genres, 1)
	assert.Equal(t, "Action", movie.Genres[0].Name)
	require.Len(t, movie.Casts, 1)
	assert.Equal(t, "R. Kapoor", movie.Casts[0].Name)
}
