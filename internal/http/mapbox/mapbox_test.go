package mapbox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *MapboxClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewMapboxClient("pk.test", srv.URL)
	if err != nil {
		t.Fatalf("NewMapboxClient: %v", err)
	}
	return c
}

func TestNewMapboxClientRequiresKey(t *testing.T) {
	if _, err := NewMapboxClient("", ""); err == nil {
		t.Error("expected an error for an empty API key")
	}
}

func TestPlaceNameRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if want := "/geocoding/v5/mapbox.places/-122.4194,37.7749.json"; r.URL.Path != want {
			t.Errorf("path = %s; want %s", r.URL.Path, want)
		}
		q := r.URL.Query()
		want := map[string]string{
			"access_token": "pk.test",
			"types":        "poi,address,neighborhood,locality,place",
			"limit":        "1",
		}
		for k, v := range want {
			if got := q.Get(k); got != v {
				t.Errorf("query %s = %q; want %q", k, got, v)
			}
		}
		w.Write([]byte(`{"type":"FeatureCollection","features":[{"id":"poi.1","text":"Blue Bottle Coffee","place_name":"Blue Bottle Coffee, 66 Mint St, San Francisco"}]}`))
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
		{"label fallback", http.StatusOK, `{"features":[{"text":" ","place_name":"Mint Plaza, San Francisco"}]}`, "Mint Plaza, San Francisco", false},
		{"no features", http.StatusOK, `{"features":[]}`, "", true},
		{"nameless feature", http.StatusOK, `{"features":[{"id":"x"}]}`, "", true},
		{"unauthorized", http.StatusUnauthorized, `{"message":"Not Authorized - Invalid Token"}`, "", true},
		{"malformed body", http.StatusOK, `{"features":`, "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})

			got, err := c.PlaceName(context.Background(), 1, 2)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v; wantErr %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("PlaceName = %q; want %q", got, tc.want)
			}
		})
	}
}

func TestFormatCoordinate(t *testing.T) {
	testCases := map[float64]string{
		0:         "0",
		10:        "10",
		-122.4194: "-122.4194",
		37.123456: "37.123456",
	}
	for in, want := range testCases {
		if got := formatCoordinate(in); got != want {
			t.Errorf("formatCoordinate(%v) = %q; want %q", in, got, want)
		}
	}
}
