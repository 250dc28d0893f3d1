package stadiamaps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/pkg/errors"
)

const (
	defaultStadiaBaseURL = "https://api.stadiamaps.com"
)

// reverseLayers limits reverse lookups to things worth naming a check-in after.
var reverseLayers = []string{"venue", "address", "street", "neighbourhood", "locality"}

// Client handles communication with the Stadia Maps API.
type Client struct {
	BaseURL    *url.URL
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new Stadia Maps API client. An empty baseURL means the
// public API.
func NewClient(apiKey, baseURL string) (*Client, error) {
	if baseURL == "" {
		baseURL = defaultStadiaBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base URL")
	}
	return &Client{
		BaseURL: u,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
	}, nil
}

// GeocodeQuery represents parameters for geocoding requests.
type GeocodeQuery struct {
	PointLat *float64 `url:"point.lat,omitempty"`
	PointLon *float64 `url:"point.lon,omitempty"`
	Size     *int     `url:"size,omitempty"`
	Layers   []string `url:"layers,omitempty,comma"`
}

// GeoJSONFeatureCollection is the response structure for geocoding APIs.
type GeoJSONFeatureCollection struct {
	Type     string `json:"type"` // "FeatureCollection"
	Features []struct {
		Type     string `json:"type"` // "Feature"
		Geometry *struct {
			Type        string    `json:"type"`        // "Point"
			Coordinates []float64 `json:"coordinates"` // [lon, lat]
		} `json:"geometry"`
		Properties struct {
			Name     string  `json:"name,omitempty"`
			Label    string  `json:"label,omitempty"`
			Layer    string  `json:"layer,omitempty"`
			Distance float64 `json:"distance,omitempty"` // km from the query point
		} `json:"properties"`
	} `json:"features"`
}

// buildURL constructs the API URL with query parameters.
func (c *Client) buildURL(endpoint string, queryParams interface{}) (string, error) {
	rel, err := url.Parse(endpoint)
	if err != nil {
		return "", errors.Wrap(err, "parse endpoint")
	}
	u := c.BaseURL.ResolveReference(rel)

	q := u.Query()
	q.Set("api_key", c.APIKey)

	if queryParams != nil {
		v, err := query.Values(queryParams)
		if err != nil {
			return "", errors.Wrap(err, "encode query parameters")
		}
		for k, vals := range v {
			for _, val := range vals {
				q.Add(k, val)
			}
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ReverseGeocode performs reverse geocoding using v1 API.
// Endpoint: /geocoding/v1/reverse
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64, params *GeocodeQuery) (*GeoJSONFeatureCollection, error) {
	if params == nil {
		params = &GeocodeQuery{}
	}
	params.PointLat = &lat
	params.PointLon = &lon
	endpoint := "/geocoding/v1/reverse"

	reqURL, err := c.buildURL(endpoint, params)
	if err != nil {
		return nil, errors.Wrap(err, "build reverse geocode URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create reverse geocode request")
	}

	var result GeoJSONFeatureCollection
	if err := c.do(req, &result); err != nil {
		return nil, errors.Wrap(err, "execute reverse geocode request")
	}
	return &result, nil
}

// PlaceName returns a short label for the closest feature to lat,lon: its
// name when it has one, otherwise the full label. No features is an error.
func (c *Client) PlaceName(ctx context.Context, lat, lon float64) (string, error) {
	size := 1
	result, err := c.ReverseGeocode(ctx, lat, lon, &GeocodeQuery{Size: &size, Layers: reverseLayers})
	if err != nil {
		return "", err
	}
	if len(result.Features) == 0 {
		return "", errors.Errorf("no place found at %f,%f", lat, lon)
	}

	props := result.Features[0].Properties
	if name := strings.TrimSpace(props.Name); name != "" {
		return name, nil
	}
	if label := strings.TrimSpace(props.Label); label != "" {
		return label, nil
	}
	return "", errors.Errorf("place at %f,%f has no name", lat, lon)
}

// do executes HTTP requests and decodes JSON responses.
func (c *Client) do(req *http.Request, v interface{}) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "execute HTTP request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return errors.Wrap(err, "decode response")
		}
	}
	return nil
}
