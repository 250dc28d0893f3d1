package model

import "time"

// Profile is the identity-profile row. The identity provider owns it; the
// presence engine reads display fields and check-in defaults from it.
type Profile struct {
	ID            string      `json:"id"`
	DisplayName   string      `json:"display_name"`
	AvatarURL     string      `json:"avatar_url"`
	Preferences   Preferences `json:"preferences"`
	CheckinsCount int         `json:"checkins_count"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`

	ProfileDetails
}

// Preferences are the per-identity defaults applied when a check-in is
// started without an explicit value.
type Preferences struct {
	DefaultVisibility *string  `json:"default_visibility,omitempty"`
	DefaultFuzzKm     *float64 `json:"default_fuzz_km,omitempty" validate:"omitempty,min=0,max=50"`
	DefaultStatus     *string  `json:"default_status,omitempty" validate:"omitempty,max=40"`
}

// ProfileDetails are the fields an identity edits about itself. An update
// replaces all of them at once.
type ProfileDetails struct {
	Handle *string  `json:"handle,omitempty" validate:"omitempty,min=2,max=30,alphanum"`
	Bio    *string  `json:"bio,omitempty" validate:"omitempty,max=500"`
	Links  []string `json:"links,omitempty" validate:"max=10,dive,url"`
	Skills []string `json:"skills,omitempty" validate:"max=20,dive,max=40"`
}

// Identity is what the identity provider hands over for a verified request.
type Identity struct {
	Subject     string `json:"subject"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}
