package presence

import (
	"context"
	"log"
	"strings"

	"github.com/bwise1/workin/internal/geo"
	"github.com/bwise1/workin/internal/model"
)

// LookupPlace returns the cached place name for key, or ok=false on a miss.
func (s *Service) LookupPlace(ctx context.Context, key string) (string, bool, error) {
	entry, err := s.store.GeocodeEntry(ctx, key)
	if err != nil {
		return "", false, err
	}
	if entry == nil {
		return "", false, nil
	}
	return entry.PlaceName, true, nil
}

// StorePlace writes or overwrites a cache entry.
func (s *Service) StorePlace(ctx context.Context, key, placeName string) error {
	return s.store.PutGeocodeEntry(ctx, model.GeocodeEntry{
		Key:       key,
		PlaceName: placeName,
		UpdatedAt: s.now(),
	})
}

// resolvePlace never fails: any cache or geocoder problem degrades to
// UnknownPlace so a check-in is never blocked on naming.
func (s *Service) resolvePlace(ctx context.Context, lat, lng float64) string {
	key := geo.CacheKey(lat, lng)

	name, ok, err := s.LookupPlace(ctx, key)
	if err != nil {
		log.Printf("[Geocode] cache lookup %s failed: %v", key, err)
	} else if ok {
		return name
	}

	if s.geocoder == nil {
		return UnknownPlace
	}

	gctx, cancel := context.WithTimeout(ctx, s.geocodeTimeout)
	defer cancel()

	name, err = s.geocoder.PlaceName(gctx, lat, lng)
	name = strings.TrimSpace(name)
	if err != nil || name == "" {
		log.Printf("[Geocode] reverse lookup %s failed, using %q: %v", key, UnknownPlace, err)
		return UnknownPlace
	}

	if err := s.StorePlace(ctx, key, name); err != nil {
		log.Printf("[Geocode] cache store %s failed: %v", key, err)
	}
	return name
}
