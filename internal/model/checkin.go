package model

import (
	"time"

	"github.com/google/uuid"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityNearby  Visibility = "nearby"
	VisibilityPrivate Visibility = "private"
)

// Checkin is a time-bounded presence broadcast. Lat/Lng are the true
// coordinates; DisplayLat/DisplayLng hold the fuzzed point chosen once at
// creation and never recomputed.
type Checkin struct {
	ID           uuid.UUID  `json:"id"`
	OwnerID      string     `json:"owner_id"`
	Lat          float64    `json:"lat"`
	Lng          float64    `json:"lng"`
	DisplayLat   *float64   `json:"display_lat,omitempty"`
	DisplayLng   *float64   `json:"display_lng,omitempty"`
	PlaceName    string     `json:"place_name"`
	Note         string     `json:"note"`
	Status       *string    `json:"status,omitempty"`
	Visibility   Visibility `json:"visibility"`
	Active       bool       `json:"active"`
	ShareID      string     `json:"share_id"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	Participants []string   `json:"participants"`
	SpaceID      *uuid.UUID `json:"space_id,omitempty"`
}

// HasParticipant reports whether identity was accepted into the check-in.
func (c *Checkin) HasParticipant(identity string) bool {
	for _, p := range c.Participants {
		if p == identity {
			return true
		}
	}
	return false
}

// CheckinView is what a viewer gets back: coordinates already passed through
// the visibility policy, and no true location for non-owners.
type CheckinView struct {
	ID           uuid.UUID  `json:"id"`
	OwnerID      string     `json:"owner_id"`
	Lat          float64    `json:"lat"`
	Lng          float64    `json:"lng"`
	PlaceName    string     `json:"place_name"`
	Note         string     `json:"note"`
	Status       *string    `json:"status,omitempty"`
	Visibility   Visibility `json:"visibility"`
	ShareID      string     `json:"share_id"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	Live         bool       `json:"live"`
	Participants []string   `json:"participants"`
	SpaceID      *uuid.UUID `json:"space_id,omitempty"`
	DistanceKm   *float64   `json:"distance_km,omitempty"`
}

// SharedCheckin is what a share link resolves to.
type SharedCheckin struct {
	Checkin    CheckinView `json:"checkin"`
	Space      *Space      `json:"space,omitempty"`
	JoinsCount int         `json:"joins_count"`
}

type StartCheckinRequest struct {
	Latitude   float64     `json:"latitude" validate:"latitude"`
	Longitude  float64     `json:"longitude" validate:"longitude"`
	Note       string      `json:"note" validate:"max=280"`
	Status     *string     `json:"status,omitempty" validate:"omitempty,max=40"`
	Visibility *string     `json:"visibility,omitempty"`
	FuzzKm     *float64    `json:"fuzz_km,omitempty" validate:"omitempty,min=0,max=50"`
	Space      *SpaceInput `json:"space,omitempty"`
}

type StartCheckinResponse struct {
	ID      uuid.UUID `json:"id"`
	ShareID string    `json:"share_id"`
}

type StopCheckinResponse struct {
	Ended bool `json:"ended"`
}

type ActiveStats struct {
	ActiveCount      int `json:"active_count"`
	UniqueIdentities int `json:"unique_identities"`
}
