package hazard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Source loads a hazard feed.
type Source interface {
	Fetch(ctx context.Context) (*FeatureCollection, error)
}

// maxFeedSize bounds the upstream response body.
const maxFeedSize = 16 << 20

// HTTPSource fetches a GeoJSON feature collection from a URL.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// NewHTTPSource returns a source for url with the given request timeout.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{URL: url, Client: &http.Client{Timeout: timeout}}
}

// Fetch downloads and decodes the feed.
func (s *HTTPSource) Fetch(ctx context.Context) (*FeatureCollection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("building feed request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching feed: unexpected status %s", resp.Status)
	}

	var fc FeatureCollection
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxFeedSize)).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decoding feed: %w", err)
	}
	if fc.Type != TypeFeatureCollection {
		return nil, fmt.Errorf("decoding feed: expected %s, got %q", TypeFeatureCollection, fc.Type)
	}
	if fc.Features == nil {
		fc.Features = []Feature{}
	}
	return &fc, nil
}

// StaticSource always returns the same collection.
type StaticSource struct {
	Collection FeatureCollection
}

// Fetch returns a copy of the static collection.
func (s *StaticSource) Fetch(context.Context) (*FeatureCollection, error) {
	fc := FeatureCollection{Type: TypeFeatureCollection, Features: append([]Feature{}, s.Collection.Features...)}
	return &fc, nil
}

// SampleFires is used when no upstream fire feed is configured.
func SampleFires() *StaticSource {
	return &StaticSource{Collection: FeatureCollection{
		Type: TypeFeatureCollection,
		Features: []Feature{
			NewPoint("fire-1", 13.7302, 45.7050, map[string]any{
				"name": "Kras wildfire", "severity": "HIGH", "areaHa": 420.0, "active": true,
			}),
			NewPoint("fire-2", 14.5058, 46.0569, map[string]any{
				"name": "Ljubljana marshes grass fire", "severity": "LOW", "areaHa": 3.5, "active": false,
			}),
			NewPoint("fire-3", 15.6459, 46.5547, map[string]any{
				"name": "Pohorje forest fire", "severity": "MEDIUM", "areaHa": 37.0, "active": true,
			}),
		},
	}}
}
