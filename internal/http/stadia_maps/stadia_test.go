package stadiamaps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient("test-key", srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestPlaceNameQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/geocoding/v1/reverse" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		want := map[string]string{
			"api_key":   "test-key",
			"point.lat": "37.7749",
			"point.lon": "-122.4194",
			"size":      "1",
			"layers":    "venue,address,street,neighbourhood,locality",
		}
		for k, v := range want {
			if got := q.Get(k); got != v {
				t.Errorf("query %s = %q; want %q", k, got, v)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"name":"Blue Bottle Coffee","label":"Blue Bottle Coffee, San Francisco, CA, USA"}}]}`))
	})

	name, err := c.PlaceName(context.Background(), 37.7749, -122.4194)
	if err != nil {
		t.Fatalf("PlaceName: %v", err)
	}
	if name != "Blue Bottle Coffee" {
		t.Errorf("PlaceName = %q", name)
	}
}

func TestPlaceNameResponses(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{"label fallback", 200, `{"features":[{"properties":{"label":"Market St, San Francisco"}}]}`, "Market St, San Francisco", false},
		{"no features", 200, `{"features":[]}`, "", true},
		{"unnamed feature", 200, `{"features":[{"properties":{"name":" "}}]}`, "", true},
		{"upstream error", 503, `overloaded`, "", true},
		{"bad json", 200, `{"features":`, "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})

			got, err := c.PlaceName(context.Background(), 1, 2)
			if (err != nil) != tc.wantErr {
				t.Fatalf("PlaceName err = %v; wantErr %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("PlaceName = %q; want %q", got, tc.want)
			}
		})
	}
}

func TestPlaceNameHonoursContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.PlaceName(ctx, 1, 2); err == nil {
		t.Error("PlaceName succeeded with a cancelled context")
	}
}
