package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vehicletrack/backend/internal/domain"
)

// TrackSource is what the track view needs from a loader.
type TrackSource interface {
	Load(ctx context.Context, selector domain.DateRange) (domain.Track, error)
	LoadLive(ctx context.Context) (domain.Track, error)
}

// TrackLoader fetches coordinate sequences from the location service
type TrackLoader struct {
	baseURL    string
	httpClient *http.Client
}

// NewTrackLoader creates a loader for the service rooted at baseURL
func NewTrackLoader(baseURL string, timeout time.Duration) *TrackLoader {
	return &TrackLoader{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Load fetches the track for a date range. The selector is sent as-is;
// unknown values are left for the backend to interpret.
func (l *TrackLoader) Load(ctx context.Context, selector domain.DateRange) (domain.Track, error) {
	q := url.Values{}
	q.Set("date", string(selector))
	return l.fetch(ctx, l.baseURL+"/vehicle-location?"+q.Encode())
}

// LoadLive fetches the most recent positions
func (l *TrackLoader) LoadLive(ctx context.Context) (domain.Track, error) {
	return l.fetch(ctx, l.baseURL+"/vehicle-location/live")
}

func (l *TrackLoader) fetch(ctx context.Context, u string) (domain.Track, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("loader: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("loader: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("loader: location service returned status %d", resp.StatusCode)
	}

	var samples []domain.LocationSample
	if err := json.NewDecoder(resp.Body).Decode(&samples); err != nil {
		return nil, fmt.Errorf("loader: failed to decode response: %w", err)
	}

	return domain.TrackFromSamples(samples), nil
}
