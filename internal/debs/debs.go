package deps

import (
	"context"
	"log"
	"time"

	"github.com/bwise1/workin/config"
	"github.com/bwise1/workin/internal/db"
	"github.com/bwise1/workin/internal/http/mapbox"
	stadiamaps "github.com/bwise1/workin/internal/http/stadia_maps"
	"github.com/bwise1/workin/internal/presence"
	"github.com/bwise1/workin/internal/repository/memory"
	"github.com/bwise1/workin/internal/repository/postgres"
	"github.com/bwise1/workin/util/websockets"
)

const migrateTimeout = 30 * time.Second

type Dependencies struct {
	DB        *db.DB // nil with the memory store
	Store     presence.Store
	Geocoder  presence.Geocoder // nil without a Stadia or Mapbox key
	WebSocket *websockets.WebSocketManager
}

func New(cfg *config.Config) *Dependencies {
	d := Dependencies{
		WebSocket: websockets.NewWebSocketManager(),
	}

	switch cfg.Store {
	case config.StoreMemory:
		log.Println("[Deps] using in-memory presence store")
		d.Store = memory.NewStore()
	default:
		database, err := db.New(cfg.Dsn)
		if err != nil {
			log.Panicln("failed to connect to database", "error", err)
		}
		if cfg.Migrate {
			ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
			err := database.Migrate(ctx)
			cancel()
			if err != nil {
				log.Panicln("failed to migrate database", "error", err)
			}
		}
		d.DB = database
		d.Store = postgres.NewStore(database)
	}

	d.Geocoder = newGeocoder(cfg)

	return &d
}

// newGeocoder prefers Stadia Maps and falls back to Mapbox.
func newGeocoder(cfg *config.Config) presence.Geocoder {
	switch {
	case cfg.StadiaAPIKey != "":
		client, err := stadiamaps.NewClient(cfg.StadiaAPIKey, cfg.StadiaBaseURL)
		if err != nil {
			log.Panicln("invalid stadia maps config", "error", err)
		}
		return client
	case cfg.MapboxAPIKey != "":
		client, err := mapbox.NewMapboxClient(cfg.MapboxAPIKey, cfg.MapboxBaseURL)
		if err != nil {
			log.Panicln("invalid mapbox config", "error", err)
		}
		log.Println("[Deps] using Mapbox for place names")
		return client
	default:
		log.Println("[Deps] no geocoder key set, place names fall back to", presence.UnknownPlace)
		return nil
	}
}

func (d *Dependencies) Close() {
	d.WebSocket.Close()
	if d.DB != nil {
		d.DB.Close()
	}
}
