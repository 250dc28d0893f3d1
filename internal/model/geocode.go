package model

import "time"

type GeocodeEntry struct {
	Key       string    `json:"key"`
	PlaceName string    `json:"place_name"`
	UpdatedAt time.Time `json:"updated_at"`
}
