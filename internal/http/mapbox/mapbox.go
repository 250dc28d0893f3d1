package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/pkg/errors"
)

const defaultMapboxBaseURL = "https://api.mapbox.com"

// reverseTypes limits reverse lookups to features a check-in can be named after.
var reverseTypes = []string{"poi", "address", "neighborhood", "locality", "place"}

// MapboxClient handles communication with the Mapbox Geocoding API
type MapboxClient struct {
	BaseURL *url.URL
	APIKey  string
	Client  *http.Client
}

// NewMapboxClient creates a new Mapbox client instance. An empty baseURL
// means the public API.
func NewMapboxClient(apiKey, baseURL string) (*MapboxClient, error) {
	if apiKey == "" {
		return nil, errors.New("mapbox API key is not set")
	}
	if baseURL == "" {
		baseURL = defaultMapboxBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base URL")
	}
	return &MapboxClient{
		BaseURL: u,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// ReverseQuery holds the query parameters of a reverse geocoding request.
type ReverseQuery struct {
	AccessToken string   `url:"access_token"`
	Types       []string `url:"types,omitempty,comma"`
	Limit       int      `url:"limit,omitempty"`
	Language    string   `url:"language,omitempty"`
}

// GeocodingResponse is the subset of the Mapbox places response we read.
type GeocodingResponse struct {
	Type     string    `json:"type"` // "FeatureCollection"
	Features []Feature `json:"features"`
}

type Feature struct {
	ID        string    `json:"id"`
	PlaceType []string  `json:"place_type"`
	Text      string    `json:"text"`       // short name, e.g. "Blue Bottle Coffee"
	PlaceName string    `json:"place_name"` // full label with context
	Center    []float64 `json:"center"`     // [lon, lat]
}

// ReverseGeocode looks up the features at lat,lng.
// Endpoint: /geocoding/v5/mapbox.places/{lng},{lat}.json
func (mc *MapboxClient) ReverseGeocode(ctx context.Context, lat, lng float64, params ReverseQuery) (*GeocodingResponse, error) {
	params.AccessToken = mc.APIKey

	values, err := query.Values(params)
	if err != nil {
		return nil, errors.Wrap(err, "encode query parameters")
	}

	endpoint := fmt.Sprintf("/geocoding/v5/mapbox.places/%s,%s.json", formatCoordinate(lng), formatCoordinate(lat))
	u := mc.BaseURL.ResolveReference(&url.URL{Path: endpoint})
	u.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "create Mapbox geocoding request")
	}

	resp, err := mc.Client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "execute Mapbox geocoding request")
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "read Mapbox geocoding response body")
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Mapbox] geocoding request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
		return nil, fmt.Errorf("mapbox geocoding error: status code %d", resp.StatusCode)
	}

	var result GeocodingResponse
	if err := json.Unmarshal(bodyBytes, &result); err != nil {
		return nil, errors.Wrap(err, "decode Mapbox geocoding response")
	}
	return &result, nil
}

// PlaceName returns the short name of the closest feature to lat,lng,
// falling back to its full label.
func (mc *MapboxClient) PlaceName(ctx context.Context, lat, lng float64) (string, error) {
	result, err := mc.ReverseGeocode(ctx, lat, lng, ReverseQuery{Types: reverseTypes, Limit: 1})
	if err != nil {
		return "", err
	}
	if len(result.Features) == 0 {
		return "", errors.Errorf("no place found at %f,%f", lat, lng)
	}

	f := result.Features[0]
	if text := strings.TrimSpace(f.Text); text != "" {
		return text, nil
	}
	if label := strings.TrimSpace(f.PlaceName); label != "" {
		return label, nil
	}
	return "", errors.Errorf("place at %f,%f has no name", lat, lng)
}

func formatCoordinate(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", v), "0"), ".")
}
