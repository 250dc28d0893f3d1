package model

import (
	"time"

	"github.com/google/uuid"
)

// Space is a named venue check-ins can be attached to, such as a cafe or a
// coworking floor.
type Space struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	City      *string   `json:"city,omitempty"`
	Country   *string   `json:"country,omitempty"`
	Address   *string   `json:"address,omitempty"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	CreatedAt time.Time `json:"created_at"`
}

// SpaceInput names the venue a check-in is started at. The venue sits at
// the check-in's own coordinates.
type SpaceInput struct {
	Name    string  `json:"name" validate:"required,max=120"`
	City    *string `json:"city,omitempty" validate:"omitempty,max=80"`
	Country *string `json:"country,omitempty" validate:"omitempty,max=80"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=200"`
}

// SpaceDetail is a space with the live check-ins the viewer may see there.
type SpaceDetail struct {
	Space       Space         `json:"space"`
	ActiveCount int           `json:"active_count"`
	Active      []CheckinView `json:"active"`
}
