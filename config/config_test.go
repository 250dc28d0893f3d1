package config

import (
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STORE", "")
	t.Setenv("GEOCODE_TIMEOUT", "")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d; want 8080", cfg.Port)
	}
	if cfg.Store != StorePostgres {
		t.Errorf("Store = %q; want postgres", cfg.Store)
	}
	if !cfg.Migrate {
		t.Error("Migrate = false; want true")
	}
	if cfg.GeocodeTimeout != 4*time.Second {
		t.Errorf("GeocodeTimeout = %v; want 4s", cfg.GeocodeTimeout)
	}
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE", "memory")
	t.Setenv("MIGRATE", "false")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STADIA_API_KEY", "key")
	t.Setenv("MAPBOX_API_KEY", "pk.key")
	t.Setenv("GEOCODE_TIMEOUT", "750ms")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Port != 9090 || cfg.Store != StoreMemory || cfg.Migrate {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.JwtSecret != "s3cret" || cfg.StadiaAPIKey != "key" || cfg.MapboxAPIKey != "pk.key" {
		t.Errorf("secrets not read: %+v", cfg)
	}
	if cfg.GeocodeTimeout != 750*time.Millisecond {
		t.Errorf("GeocodeTimeout = %v", cfg.GeocodeTimeout)
	}
}

func TestParseUnknownStoreFallsBack(t *testing.T) {
	t.Setenv("STORE", "redis")
	cfg, err := Parse()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store != StorePostgres {
		t.Errorf("Store = %q; want postgres", cfg.Store)
	}
}

func TestParseBadValue(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	if _, err := Parse(); err == nil {
		t.Error("Parse accepted a non-numeric PORT")
	}
}
