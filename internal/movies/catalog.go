package movies

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"cinebook/internal/shared/apperrors"
	"cinebook/internal/shared/config"

	"github.com/hashicorp/go-retryablehttp"
)

// CatalogClient is the external movie-catalog collaborator. Transient
// failures are retried up to 3 attempts with a fixed 1s wait; when retries
// exhaust the error surfaces as UpstreamUnavailable.
type CatalogClient interface {
	GetMovie(ctx context.Context, id string) (*Movie, error)
	NowPlaying(ctx context.Context) ([]CatalogMovie, error)
}

// CatalogMovie is the provider's listing shape, passed through untouched on
// the now-playing endpoint.
type CatalogMovie struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	Overview     string    `json:"overview"`
	PosterPath   string    `json:"poster_path"`
	BackdropPath string    `json:"backdrop_path"`
	ReleaseDate  string    `json:"release_date"`
	VoteAverage  float64   `json:"vote_average"`
	GenreIDs     []int     `json:"genre_ids"`
}

type catalogClient struct {
	baseURL string
	apiKey  string
	http    *retryablehttp.Client
}

func NewCatalogClient(cfg config.CatalogConfig) CatalogClient {
	client := retryablehttp.NewClient()
	client.RetryMax = 2 // 3 attempts total
	client.RetryWaitMin = time.Second
	client.RetryWaitMax = time.Second
	client.HTTPClient.Timeout = cfg.Timeout
	client.Logger = nil

	return &catalogClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    client,
	}
}

type movieDetailsResponse struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	Genres           []Genre `json:"genres"`
	ReleaseDate      string  `json:"release_date"`
	OriginalLanguage string  `json:"original_language"`
	Tagline          string  `json:"tagline"`
	VoteAverage      float64 `json:"vote_average"`
	Runtime          int     `json:"runtime"`
}

type movieCreditsResponse struct {
	Cast []CastMember `json:"cast"`
}

type nowPlayingResponse struct {
	Results []CatalogMovie `json:"results"`
}

// GetMovie fetches details and credits for one title and folds them into a
// Movie record keyed by the provider id.
func (c *catalogClient) GetMovie(ctx context.Context, id string) (*Movie, error) {
	var details movieDetailsResponse
	if err := c.get(ctx, fmt.Sprintf("%s/movie/%s", c.baseURL, id), &details); err != nil {
		return nil, err
	}

	var credits movieCreditsResponse
	if err := c.get(ctx, fmt.Sprintf("%s/movie/%s/credits", c.baseURL, id), &credits); err != nil {
		return nil, err
	}

	return &Movie{
		ID:               id,
		Title:            details.Title,
		Overview:         details.Overview,
		PosterPath:       details.PosterPath,
		BackdropPath:     details.BackdropPath,
		Genres:           details.Genres,
		Casts:            credits.Cast,
		ReleaseDate:      details.ReleaseDate,
		OriginalLanguage: details.OriginalLanguage,
		Tagline:          details.Tagline,
		VoteAverage:      details.VoteAverage,
		Runtime:          details.Runtime,
	}, nil
}

func (c *catalogClient) NowPlaying(ctx context.Context) ([]CatalogMovie, error) {
	var payload nowPlayingResponse
	url := fmt.Sprintf("%s/movie/now_playing?language=en-US&page=1", c.baseURL)
	if err := c.get(ctx, url, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

func (c *catalogClient) get(ctx context.Context, url string, dest interface{}) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: catalog request failed: %v", apperrors.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return apperrors.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: catalog returned status %d", apperrors.ErrUpstreamUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode catalog response: %w", err)
	}
	return nil
}
