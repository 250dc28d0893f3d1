package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Port           int           `env:"PORT" envDefault:"8080"`
	Dsn            string        `env:"DSN"`
	Store          string        `env:"STORE" envDefault:"postgres"`
	Migrate        bool          `env:"MIGRATE" envDefault:"true"`
	JwtSecret      string        `env:"JWT_SECRET"`
	StadiaAPIKey   string        `env:"STADIA_API_KEY"`
	StadiaBaseURL  string        `env:"STADIA_BASE_URL"`
	MapboxAPIKey   string        `env:"MAPBOX_API_KEY"`
	MapboxBaseURL  string        `env:"MAPBOX_BASE_URL"`
	GeocodeTimeout time.Duration `env:"GEOCODE_TIMEOUT" envDefault:"4s"`
}

func New() *Config {
	if loadErr := godotenv.Load(".env"); loadErr != nil {
		log.Printf("[Env]: unable to load .env file %v", loadErr)
	}

	cfg, err := Parse()
	if err != nil {
		log.Printf("[Env]: failed to parse environment variables: %v", err)
	}

	return cfg
}

// Parse reads the environment only, without touching .env.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return &cfg, err
	}
	if cfg.Store != StoreMemory {
		cfg.Store = StorePostgres
	}
	return &cfg, nil
}
